// Package syncer pulls Zoho Books, Zoho People and Microsoft Graph listings into the local
// store and records one SyncLog per run.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/margindesk/margindesk_backend/audit"
	"github.com/margindesk/margindesk_backend/config"
	"github.com/margindesk/margindesk_backend/integrations"
	"github.com/margindesk/margindesk_backend/integrations/zoho"
	"github.com/margindesk/margindesk_backend/models"
	"github.com/margindesk/margindesk_backend/paginate"
	"github.com/margindesk/margindesk_backend/store"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrSyncInProgress = errors.New("a sync of this type is already running")

type BooksAPI interface {
	PageSize() int
	ContactsPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error)
	InvoicesPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error)
	CustomerPaymentsPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error)
	BillsPage(r zoho.DateRange) paginate.FetchFunc[json.RawMessage]
	ExpensesPage(r zoho.DateRange) paginate.FetchFunc[json.RawMessage]
	BillDetail(ctx context.Context, zohoBillID string) (json.RawMessage, error)
}

type PeopleAPI interface {
	PageSize() int
	EmployeesPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error)
	LeavesPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error)
	HolidaysPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error)
}

type GraphAPI interface {
	UsersPage(ctx context.Context, cursor string) (paginate.Page[json.RawMessage], error)
}

type Options struct {
	MaxPages    int
	PhoneRegion string
	LockTTL     time.Duration
}

type Syncer struct {
	store  store.Store
	books  BooksAPI
	people PeopleAPI
	graph  GraphAPI
	sink   audit.Sink
	locker *redislock.Client
	logger *logrus.Logger
	opts   Options
	now    func() time.Time
	tracer trace.Tracer
}

func New(s store.Store, books BooksAPI, people PeopleAPI, graph GraphAPI, sink audit.Sink, logger *logrus.Logger, opts Options) *Syncer {
	if sink == nil {
		sink = audit.NopSink{}
	}
	if logger == nil {
		logger = config.GetLogger()
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = paginate.DefaultMaxPages
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Minute
	}
	return &Syncer{
		store:  s,
		books:  books,
		people: people,
		graph:  graph,
		sink:   sink,
		logger: logger,
		opts:   opts,
		now:    time.Now,
		tracer: otel.Tracer("margindesk/syncer"),
	}
}

// WithLocker enables the per sync type Redis lock.
func (s *Syncer) WithLocker(l *redislock.Client) *Syncer {
	s.locker = l
	return s
}

func (s *Syncer) WithClock(now func() time.Time) *Syncer {
	s.now = now
	return s
}

func (s *Syncer) Store() store.Store {
	return s.store
}

func (s *Syncer) Books() BooksAPI {
	return s.books
}

type Request struct {
	SyncType      models.SyncType
	DateRange     string
	TriggeredBy   string
	CorrelationID string
}

// Validate checks the type and resolves the date range token without running anything.
func (s *Syncer) Validate(req Request) error {
	if !req.SyncType.IsValid() {
		return fmt.Errorf("unknown sync type %q", req.SyncType)
	}
	if req.SyncType.NeedsDateRange() {
		if _, err := ParseDateRange(req.DateRange, s.now()); err != nil {
			return err
		}
	}
	return nil
}

// Run executes one sync type, or every member of "all" in order. Each executed type
// writes exactly one SyncLog. The returned error joins the run-level failures
// (configuration, upstream) of all executed types.
func (s *Syncer) Run(ctx context.Context, req Request) ([]*models.SyncLog, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}
	if req.TriggeredBy == "" {
		req.TriggeredBy = models.SyncTriggeredManual
	}
	if req.SyncType != models.SyncTypeAll {
		l, err := s.runOne(ctx, req)
		if l == nil {
			return nil, err
		}
		return []*models.SyncLog{l}, err
	}

	var logs []*models.SyncLog
	var errs []error
	for _, t := range models.AllSyncOrder {
		sub := req
		sub.SyncType = t
		l, err := s.runOne(ctx, sub)
		if l != nil {
			logs = append(logs, l)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t, err))
		}
		if ctx.Err() != nil {
			break
		}
	}
	return logs, errors.Join(errs...)
}

func (s *Syncer) runOne(ctx context.Context, req Request) (*models.SyncLog, error) {
	ctx, span := s.tracer.Start(ctx, "sync."+string(req.SyncType))
	defer span.End()
	span.SetAttributes(attribute.String("sync.type", string(req.SyncType)))

	logger := s.logger.WithFields(logrus.Fields{
		"sync_type":      req.SyncType,
		"correlation_id": req.CorrelationID,
	})

	release, err := s.lock(ctx, req.SyncType, logger)
	if err != nil {
		return nil, err
	}
	defer release()

	startedAt := s.now()
	res, runErr := s.dispatch(ctx, req, logger)

	l := &models.SyncLog{
		SyncType:      req.SyncType,
		DateRange:     req.DateRange,
		RecordsSynced: res.Synced(),
		CreatedCount:  res.Created,
		UpdatedCount:  res.Updated,
		SkippedCount:  res.Skipped,
		ErrorCount:    res.Errors,
		ErrorMessages: res.Messages,
		Warnings:      res.Warnings,
		TriggeredBy:   req.TriggeredBy,
		CorrelationId: req.CorrelationID,
		StartedAt:     startedAt,
	}
	l.Status = status(res, runErr)
	if runErr != nil {
		l.ErrorMessages = append(l.ErrorMessages, runErr.Error())
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
	}
	l.FinishedAt = s.now()
	l.DurationMs = l.FinishedAt.Sub(startedAt).Milliseconds()

	if err := s.store.CreateSyncLog(context.WithoutCancel(ctx), l); err != nil {
		config.LogError(s.logger, "syncer", "runOne", "create sync log", req.SyncType, err)
	}
	if err := s.sink.Publish(context.WithoutCancel(ctx), audit.SyncCompleted(l)); err != nil {
		logger.WithError(err).Warn("audit publish failed")
	}

	entry := logger.WithFields(logrus.Fields{
		"status":      l.Status,
		"created":     l.CreatedCount,
		"updated":     l.UpdatedCount,
		"skipped":     l.SkippedCount,
		"errors":      l.ErrorCount,
		"duration_ms": l.DurationMs,
	})
	if l.Status == models.SyncStatusFailed {
		entry.Error("sync finished")
	} else {
		entry.Info("sync finished")
	}
	return l, runErr
}

// status is failed on a run-level error or when nothing synced but records failed,
// partial when some records failed, success otherwise.
func status(res MergeResult, runErr error) models.SyncStatus {
	switch {
	case runErr != nil:
		return models.SyncStatusFailed
	case res.Errors > 0 && res.Synced() == 0:
		return models.SyncStatusFailed
	case res.Errors > 0:
		return models.SyncStatusPartial
	}
	return models.SyncStatusSuccess
}

func (s *Syncer) lock(ctx context.Context, t models.SyncType, logger logrus.FieldLogger) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}
	lock, err := s.locker.Obtain(ctx, "margindesk:sync:"+string(t), s.opts.LockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrSyncInProgress
	}
	if err != nil {
		logger.WithError(err).Warn("sync lock unavailable, continuing without it")
		return noop, nil
	}
	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.WithError(err).Warn("sync lock release failed")
		}
	}, nil
}

func (s *Syncer) dispatch(ctx context.Context, req Request, logger logrus.FieldLogger) (MergeResult, error) {
	switch req.SyncType {
	case models.SyncTypeContacts:
		return s.syncContacts(ctx, logger)
	case models.SyncTypeInvoices:
		return s.syncInvoices(ctx, logger)
	case models.SyncTypeCashReceipts:
		return s.syncCashReceipts(ctx, logger)
	case models.SyncTypeEmployees:
		return s.syncEmployees(ctx, logger)
	case models.SyncTypeLeaves:
		return s.syncLeaves(ctx, logger)
	case models.SyncTypeHolidays:
		return s.syncHolidays(ctx, logger)
	case models.SyncTypeMicrosoftUsers:
		return s.syncMicrosoftUsers(ctx, logger)
	case models.SyncTypeBills, models.SyncTypeExpenses:
		r, err := ParseDateRange(req.DateRange, s.now())
		if err != nil {
			return MergeResult{}, err
		}
		if req.SyncType == models.SyncTypeBills {
			return s.syncBills(ctx, r, logger)
		}
		return s.syncExpenses(ctx, r, logger)
	}
	return MergeResult{}, fmt.Errorf("unknown sync type %q", req.SyncType)
}

// fetchAll walks a listing. Its warnings go into res.
func fetchAll(ctx context.Context, s *Syncer, label string, pageSize int, fetch paginate.FetchFunc[json.RawMessage], logger logrus.FieldLogger, res *MergeResult) ([]json.RawMessage, error) {
	if fetch == nil {
		return nil, fmt.Errorf("%s: %w", label, integrations.ErrNotConnected)
	}
	out, err := paginate.Walk(ctx, fetch, paginate.Options{
		PageSize: pageSize,
		MaxPages: s.opts.MaxPages,
		Logger:   logger,
		Label:    label,
	})
	res.Warn(out.Warnings...)
	if err != nil {
		return nil, err
	}
	return out.Items, nil
}

func recordWarnings(res *MergeResult, key string, ws []string) {
	for _, w := range ws {
		res.Warn(key + ": " + w)
	}
}

func nonEmpty(incoming, current string) string {
	if strings.TrimSpace(incoming) == "" {
		return current
	}
	return incoming
}
