package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/margindesk/margindesk_backend/app"
	"github.com/margindesk/margindesk_backend/config"
	"github.com/margindesk/margindesk_backend/handlers"
	"github.com/margindesk/margindesk_backend/middlewares"
	"github.com/margindesk/margindesk_backend/utils"
	"github.com/sirupsen/logrus"
)

func corsConfig(s *config.Settings) cors.Config {
	c := cors.DefaultConfig()
	if s.IsProduction() {
		c.AllowOrigins = s.CorsAllowedOrigins
		if len(c.AllowOrigins) == 0 {
			c.AllowOriginFunc = func(string) bool { return false }
		}
	} else {
		c.AllowAllOrigins = true
	}
	c.AddAllowMethods("GET", "POST", "PATCH", "DELETE", "OPTIONS")
	c.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", middlewares.CorrelationHeader)
	c.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.CorrelationHeader)
	c.AllowCredentials = !c.AllowAllOrigins
	return c
}

func newRouter(a *app.App) *gin.Engine {
	s := a.Settings
	if s.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(cors.New(corsConfig(s)))
	r.Use(middlewares.RequestLogger(a.Logger))
	r.Use(gin.Recovery())

	r.GET("/healthz", handlers.HealthzHandler())

	deps := &handlers.Deps{
		Syncer:   a.Syncer,
		Jobs:     a.Jobs,
		Reports:  a.Reports,
		Store:    a.Store,
		Settings: s,
		Logger:   a.Logger,
	}
	if s.GCSBucket != "" {
		deps.Archive = func(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
			return utils.UploadToGCS(ctx, s.GCSBucket, s.GCSCredJSON, objectName, contentType, data)
		}
	}

	api := r.Group("")
	api.Use(middlewares.AuthMiddleware(s.AuthSecret, config.AuthRequired()))
	handlers.Register(api, deps)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return r
}

func main() {
	logger := config.GetLogger()
	settings, err := config.LoadSettings()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	config.SetLogLevel(settings.LogLevel)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	st, err := app.Connect(sigCtx, settings, logger)
	if err != nil {
		logger.WithError(err).Fatal("startup failed")
	}
	if sqlDB, err := config.GetDB().DB(); err == nil {
		defer sqlDB.Close()
	}
	a := app.New(sigCtx, settings, st, logger)

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           newRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		logger.WithField("port", settings.Port).Info("http server listening")
		serverErrCh <- srv.ListenAndServe()
	}()

	select {
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		// Detail jobs are detached from requests; give them the same grace period.
		done := make(chan struct{})
		go func() {
			a.Jobs.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-shutdownCtx.Done():
			logger.Warn("detail jobs still running at shutdown")
		}
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "server"}).Error(err)
		}
	}
}
