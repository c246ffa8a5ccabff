package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	db *gorm.DB
)

func GetDB() *gorm.DB {
	return db
}

func dsn(s *Settings) string {
	network := "tcp"
	address := fmt.Sprintf("%s:%s", s.DBHost, s.DBPort)
	// Cloud SQL exposes a unix socket under /cloudsql/<connection name>.
	if strings.HasPrefix(s.DBHost, "/cloudsql/") {
		network = "unix"
		address = s.DBHost
	}
	return fmt.Sprintf("%s:%s@%s(%s)/%s?parseTime=true&loc=UTC",
		s.DBUser, s.DBPassword, network, address, s.DBName)
}

// ConnectDatabaseWithRetry blocks until MySQL accepts a connection, then sets the global DB.
func ConnectDatabaseWithRetry(s *Settings) *gorm.DB {
	var attempt int
	for {
		attempt++
		conn, err := gorm.Open(mysql.Open(dsn(s)), &gorm.Config{Logger: gormLogger()})
		if err == nil {
			if sqlDB, derr := conn.DB(); derr == nil && sqlDB != nil {
				sqlDB.SetMaxOpenConns(intFromEnv("DB_MAX_OPEN_CONNS", 25))
				sqlDB.SetMaxIdleConns(intFromEnv("DB_MAX_IDLE_CONNS", 10))
				sqlDB.SetConnMaxLifetime(time.Duration(intFromEnv("DB_CONN_MAX_LIFETIME_SECONDS", 300)) * time.Second)
				sqlDB.SetConnMaxIdleTime(time.Duration(intFromEnv("DB_CONN_MAX_IDLE_TIME_SECONDS", 60)) * time.Second)
			}
			if pluginErr := conn.Use(otelgorm.NewPlugin()); pluginErr != nil {
				logg.WithError(pluginErr).Warn("db connected but failed to install otelgorm plugin")
			}
			logg.WithField("attempt", attempt).Info("connected to database")
			db = conn
			return conn
		}

		sleep := backoff(attempt)
		logg.WithFields(map[string]interface{}{
			"attempt": attempt,
			"retry":   sleep.String(),
		}).WithError(err).Warn("failed to connect database")
		time.Sleep(sleep)
	}
}

func backoff(attempt int) time.Duration {
	sleep := time.Second * time.Duration(1<<min(attempt, 5))
	if sleep > 30*time.Second {
		sleep = 30 * time.Second
	}
	return sleep
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func gormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			Colorful:      false,
			LogLevel:      logger.Error,
			SlowThreshold: time.Second,
		},
	)
}
