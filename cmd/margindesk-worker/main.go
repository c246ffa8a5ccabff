package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/margindesk/margindesk_backend/app"
	"github.com/margindesk/margindesk_backend/config"
	"github.com/margindesk/margindesk_backend/jobs"
)

func main() {
	logger := config.GetLogger()
	settings, err := config.LoadSettings()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	config.SetLogLevel(settings.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := app.Connect(ctx, settings, logger)
	if err != nil {
		logger.WithError(err).Fatal("startup failed")
	}
	if sqlDB, err := config.GetDB().DB(); err == nil {
		defer sqlDB.Close()
	}
	a := app.New(ctx, settings, st, logger)

	var cron []jobs.CronRegistration
	if config.SchedulerEnabled() {
		cron, err = jobs.ScheduledSyncs(settings)
		if err != nil {
			logger.WithError(err).Fatal("build sync schedule")
		}
	} else {
		logger.Warn("ENABLE_SYNC_SCHEDULER=false; processing enqueued syncs only")
	}

	w, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: settings.RedisAddress, Password: settings.RedisPassword},
		Logger:    logger,
		Sync:      jobs.NewSyncTaskHandler(a.Syncer, logger),
		Cron:      cron,
	})
	if err != nil {
		logger.WithError(err).Fatal("build worker")
	}
	if err := w.Run(ctx); err != nil {
		logger.WithError(err).Fatal("worker stopped")
	}
}
