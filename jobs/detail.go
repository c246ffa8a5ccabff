// Package jobs runs the bill detail job and the scheduled sync tasks.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/margindesk/margindesk_backend/audit"
	"github.com/margindesk/margindesk_backend/config"
	"github.com/margindesk/margindesk_backend/integrations"
	"github.com/margindesk/margindesk_backend/mapper"
	"github.com/margindesk/margindesk_backend/models"
	"github.com/margindesk/margindesk_backend/store"
	"github.com/margindesk/margindesk_backend/syncer"
	"github.com/margindesk/margindesk_backend/utils"
	"github.com/sirupsen/logrus"
)

var ErrJobNotRunning = errors.New("job is not running")

// DetailSource fetches one bill with its line items.
type DetailSource interface {
	BillDetail(ctx context.Context, zohoBillID string) (json.RawMessage, error)
}

type Store interface {
	store.LedgerStore
	store.JobStore
}

// Handle is the in-process side of a running job. Cancel is cooperative: the worker checks
// it before each fetch and before each write.
type Handle struct {
	ID        string
	cancelled atomic.Bool
}

func (h *Handle) Cancel() {
	h.cancelled.Store(true)
}

func (h *Handle) Cancelled() bool {
	return h.cancelled.Load()
}

type Runner struct {
	store  Store
	books  DetailSource
	sink   audit.Sink
	logger *logrus.Logger
	now    func() time.Time

	mu      sync.Mutex
	handles map[string]*Handle
	wg      sync.WaitGroup
}

func NewRunner(s Store, books DetailSource, sink audit.Sink, logger *logrus.Logger) *Runner {
	if sink == nil {
		sink = audit.NopSink{}
	}
	if logger == nil {
		logger = config.GetLogger()
	}
	return &Runner{
		store:   s,
		books:   books,
		sink:    sink,
		logger:  logger,
		now:     time.Now,
		handles: map[string]*Handle{},
	}
}

func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// StartBillDetails creates a running job and processes it in the background. The job
// outlives ctx; callers poll Get for progress.
func (r *Runner) StartBillDetails(ctx context.Context, dateRange string) (*models.DetailSyncJob, error) {
	rng, err := syncer.ParseDateRange(dateRange, r.now())
	if err != nil {
		return nil, err
	}
	if r.books == nil {
		return nil, fmt.Errorf("zoho books client: %w", integrations.ErrNotConnected)
	}

	job := &models.DetailSyncJob{
		ID:          uuid.NewString(),
		JobType:     models.SyncTypeBillDetails,
		DateRange:   dateRange,
		TriggeredBy: utils.TriggeredBy(ctx),
		Status:      models.JobStatusRunning,
		StartedAt:   r.now(),
	}
	if err := r.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	h := &Handle{ID: job.ID}
	r.mu.Lock()
	r.handles[job.ID] = h
	r.mu.Unlock()

	snapshot := *job
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.forget(job.ID)
		r.run(context.WithoutCancel(ctx), job, h, rng)
	}()
	return &snapshot, nil
}

func (r *Runner) forget(id string) {
	r.mu.Lock()
	delete(r.handles, id)
	r.mu.Unlock()
}

// Wait blocks until every job started by this runner has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) Get(ctx context.Context, id string) (*models.DetailSyncJob, error) {
	return r.store.GetJob(ctx, id)
}

// Cancel marks a running job cancelled and raises its handle's flag. Terminal jobs are
// rejected with ErrJobNotRunning.
func (r *Runner) Cancel(ctx context.Context, id string) (*models.DetailSyncJob, error) {
	job, err := r.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusRunning {
		return nil, ErrJobNotRunning
	}

	r.mu.Lock()
	h := r.handles[id]
	r.mu.Unlock()
	if h != nil {
		h.Cancel()
	}

	at := r.now()
	job.Status = models.JobStatusCancelled
	job.CompletedAt = &at
	ok, err := r.store.UpdateRunningJob(ctx, job)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrJobNotRunning
	}
	r.logger.WithField("job_id", id).Info("detail job cancelled")
	return job, nil
}

func finalStatus(success, errs int) models.JobStatus {
	if success == 0 && errs > 0 {
		return models.JobStatusFailed
	}
	return models.JobStatusCompleted
}

func (r *Runner) run(ctx context.Context, job *models.DetailSyncJob, h *Handle, rng syncer.DateRange) {
	logger := r.logger.WithFields(logrus.Fields{"job_id": job.ID, "job_type": job.JobType})
	defer func() {
		if p := recover(); p != nil {
			job.ErrorMessages = append(job.ErrorMessages, fmt.Sprintf("panic: %v", p))
			r.finish(ctx, job, models.JobStatusFailed, logger)
		}
	}()

	bills, err := r.store.ListBills(ctx, store.DateFilter{From: rng.From, To: rng.To})
	if err != nil {
		job.ErrorCount++
		job.ErrorMessages = append(job.ErrorMessages, "list bills: "+err.Error())
		r.finish(ctx, job, models.JobStatusFailed, logger)
		return
	}
	job.Total = len(bills)
	if !r.write(ctx, job, logger) {
		return
	}

	for _, b := range bills {
		if h.Cancelled() {
			logger.Info("detail job stopped before fetch")
			return
		}
		raw, err := r.books.BillDetail(ctx, b.ZohoBillId)
		if h.Cancelled() {
			logger.WithField("bill", b.ZohoBillId).Info("detail job stopped, fetched bill discarded")
			return
		}
		if err == nil {
			err = r.replaceLines(ctx, b, raw)
		}
		job.Processed++
		if err != nil {
			job.ErrorCount++
			job.ErrorMessages = append(job.ErrorMessages, fmt.Sprintf("%s: %v", b.ZohoBillId, err))
		} else {
			job.SuccessCount++
		}
		if !r.write(ctx, job, logger) {
			return
		}
	}
	r.finish(ctx, job, finalStatus(job.SuccessCount, job.ErrorCount), logger)
}

func (r *Runner) replaceLines(ctx context.Context, b models.Bill, raw json.RawMessage) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty bill detail")
	}
	items, err := mapper.BillLineItems(raw)
	if err != nil {
		return err
	}
	return r.store.ReplaceBillLineItems(ctx, b.ID, items)
}

// write persists progress. It reports false once the stored job is no longer running,
// which is how a cancel from another process reaches this worker.
func (r *Runner) write(ctx context.Context, job *models.DetailSyncJob, logger logrus.FieldLogger) bool {
	ok, err := r.store.UpdateRunningJob(ctx, job)
	if err != nil {
		logger.WithError(err).Warn("detail job progress write failed")
		return true
	}
	if !ok {
		logger.Info("detail job no longer running, stopping")
	}
	return ok
}

func (r *Runner) finish(ctx context.Context, job *models.DetailSyncJob, st models.JobStatus, logger logrus.FieldLogger) {
	at := r.now()
	job.Status = st
	job.CompletedAt = &at
	ok, err := r.store.UpdateRunningJob(ctx, job)
	if err != nil {
		config.LogError(r.logger, "jobs", "finish", "update job", job.ID, err)
		return
	}
	if !ok {
		return
	}
	if err := r.sink.Publish(ctx, audit.JobFinished(job)); err != nil {
		logger.WithError(err).Warn("audit publish failed")
	}
	logger.WithFields(logrus.Fields{
		"status":    st,
		"total":     job.Total,
		"succeeded": job.SuccessCount,
		"failed":    job.ErrorCount,
	}).Info("detail job finished")
}
