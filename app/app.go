// Package app wires settings, storage and the upstream clients into the services shared by the
// API server, the worker and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/margindesk/margindesk_backend/audit"
	"github.com/margindesk/margindesk_backend/config"
	"github.com/margindesk/margindesk_backend/finance"
	"github.com/margindesk/margindesk_backend/integrations"
	"github.com/margindesk/margindesk_backend/integrations/msgraph"
	"github.com/margindesk/margindesk_backend/integrations/zoho"
	"github.com/margindesk/margindesk_backend/jobs"
	"github.com/margindesk/margindesk_backend/models"
	"github.com/margindesk/margindesk_backend/store"
	"github.com/margindesk/margindesk_backend/syncer"
	"github.com/sirupsen/logrus"
)

// zohoRatePerMin stays under the per-organization API limit.
const zohoRatePerMin = 90

type App struct {
	Settings *config.Settings
	Logger   *logrus.Logger
	Store    store.Store
	Sink     audit.Sink
	Syncer   *syncer.Syncer
	Jobs     *jobs.Runner
	Reports  *finance.Engine
}

// TokenProviders returns one provider per upstream service according to TOKEN_SOURCE.
func TokenProviders(s *config.Settings) map[integrations.Service]integrations.TokenProvider {
	if s.TokenSource == "redis" {
		rdb := config.GetRedisDB()
		return map[integrations.Service]integrations.TokenProvider{
			integrations.ServiceZohoBooks:  integrations.NewRedisTokenProvider(rdb, integrations.ServiceZohoBooks),
			integrations.ServiceZohoPeople: integrations.NewRedisTokenProvider(rdb, integrations.ServiceZohoPeople),
			integrations.ServiceMicrosoft:  integrations.NewRedisTokenProvider(rdb, integrations.ServiceMicrosoft),
		}
	}
	return map[integrations.Service]integrations.TokenProvider{
		integrations.ServiceZohoBooks:  integrations.NewStaticTokenProvider(s.ZohoBooksToken, s.ZohoOrganizationID),
		integrations.ServiceZohoPeople: integrations.NewStaticTokenProvider(s.ZohoPeopleToken, ""),
		integrations.ServiceMicrosoft:  integrations.NewStaticTokenProvider(s.MicrosoftToken, ""),
	}
}

func retryPolicy(s *config.Settings) integrations.RetryPolicy {
	return integrations.RetryPolicy{MaxAttempts: s.RetryMaxAttempts, Backoff: s.RetryBackoff}
}

// Connect opens MySQL (migrating unless SKIP_MIGRATIONS) and Redis. Redis is optional: without it
// there is no report cache and no sync lock.
func Connect(ctx context.Context, s *config.Settings, logger *logrus.Logger) (store.Store, error) {
	db := config.ConnectDatabaseWithRetry(s)
	if s.SkipMigrations {
		logger.WithField("field", "migrations").Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	} else if err := models.MigrateTable(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := config.ConnectRedisWithRetry(ctx, s, 3); err != nil {
		logger.WithError(err).Warn("redis unavailable; running without cache and sync locks")
	}
	return store.NewGormStore(db), nil
}

// New builds the services on top of an already connected store.
func New(ctx context.Context, s *config.Settings, st store.Store, logger *logrus.Logger) *App {
	tokens := TokenProviders(s)
	retry := retryPolicy(s)
	zcfg := zoho.Config{Region: s.ZohoRegion, PageSize: s.PageSize}

	books := zoho.NewBooksClient(zcfg, tokens[integrations.ServiceZohoBooks],
		integrations.NewRequester(integrations.ServiceZohoBooks, s.HTTPTimeout, retry, zohoRatePerMin, logger))
	people := zoho.NewPeopleClient(zcfg, tokens[integrations.ServiceZohoPeople],
		integrations.NewRequester(integrations.ServiceZohoPeople, s.HTTPTimeout, retry, zohoRatePerMin, logger))
	graph := msgraph.NewClient(msgraph.DefaultBaseURL, tokens[integrations.ServiceMicrosoft],
		integrations.NewRequester(integrations.ServiceMicrosoft, s.HTTPTimeout, retry, 0, logger))

	sink := audit.NewSink(ctx, s, logger)
	sy := syncer.New(st, books, people, graph, sink, logger, syncer.Options{
		MaxPages:    s.MaxPages,
		PhoneRegion: s.DefaultPhoneRegion,
		LockTTL:     s.SyncLockTTL,
	})
	if l := config.GetRedisLock(); l != nil {
		sy.WithLocker(l)
	}

	return &App{
		Settings: s,
		Logger:   logger,
		Store:    st,
		Sink:     sink,
		Syncer:   sy,
		Jobs:     jobs.NewRunner(st, books, sink, logger),
		Reports:  finance.NewEngine(st, logger),
	}
}
