package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/margindesk/margindesk_backend/models"
	"github.com/margindesk/margindesk_backend/syncer"
	"github.com/sirupsen/logrus"
)

const (
	QueueDefault = "default"

	// TaskSyncRun runs one sync type through the syncer.
	TaskSyncRun = "margindesk:sync:run"
)

type SyncRunPayload struct {
	SyncType  models.SyncType `json:"sync_type"`
	DateRange string          `json:"date_range,omitempty"`
}

func NewSyncRunTask(t models.SyncType, dateRange string) (*asynq.Task, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("unknown sync type %q", t)
	}
	data, err := json.Marshal(SyncRunPayload{SyncType: t, DateRange: dateRange})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSyncRun, data), nil
}

// SyncRunner is the part of syncer.Syncer the task handler needs.
type SyncRunner interface {
	Run(ctx context.Context, req syncer.Request) ([]*models.SyncLog, error)
}

type SyncTaskHandler struct {
	syncer SyncRunner
	logger logrus.FieldLogger
}

func NewSyncTaskHandler(s SyncRunner, logger logrus.FieldLogger) *SyncTaskHandler {
	return &SyncTaskHandler{syncer: s, logger: logger}
}

// Handle runs the payload's sync. A lock conflict is not retried, since the other run
// covers the same data; bad payloads are never retried.
func (h *SyncTaskHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var p SyncRunPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", TaskSyncRun, err, asynq.SkipRetry)
	}
	logs, err := h.syncer.Run(ctx, syncer.Request{
		SyncType:    p.SyncType,
		DateRange:   p.DateRange,
		TriggeredBy: models.SyncTriggeredScheduler,
	})
	if errors.Is(err, syncer.ErrSyncInProgress) {
		h.logger.WithField("sync_type", p.SyncType).Info("scheduled sync skipped, another run holds the lock")
		return nil
	}
	if errors.Is(err, syncer.ErrDateRangeRequired) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	for _, l := range logs {
		h.logger.WithFields(logrus.Fields{
			"sync_type": l.SyncType,
			"status":    l.Status,
			"synced":    l.RecordsSynced,
		}).Info("scheduled sync done")
	}
	return err
}
