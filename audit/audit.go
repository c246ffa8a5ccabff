// Package audit publishes sync run and job outcomes for downstream consumers.
package audit

import (
	"context"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/margindesk/margindesk_backend/config"
	"github.com/margindesk/margindesk_backend/models"
	"github.com/sirupsen/logrus"
)

const (
	EventSyncCompleted = "sync.completed"
	EventJobFinished   = "detail_job.finished"
)

type Event struct {
	Type          string                `json:"type"`
	OccurredAt    time.Time             `json:"occurred_at"`
	CorrelationId string                `json:"correlation_id,omitempty"`
	SyncLog       *models.SyncLog       `json:"sync_log,omitempty"`
	Job           *models.DetailSyncJob `json:"job,omitempty"`
}

// Sink receives audit events. Publishing is best effort: callers log a failure and move on.
type Sink interface {
	Publish(ctx context.Context, e Event) error
}

func SyncCompleted(l *models.SyncLog) Event {
	return Event{Type: EventSyncCompleted, OccurredAt: l.FinishedAt, CorrelationId: l.CorrelationId, SyncLog: l}
}

func JobFinished(j *models.DetailSyncJob) Event {
	at := time.Now().UTC()
	if j.CompletedAt != nil {
		at = *j.CompletedAt
	}
	return Event{Type: EventJobFinished, OccurredAt: at, Job: j}
}

type NopSink struct{}

func (NopSink) Publish(ctx context.Context, e Event) error { return nil }

// LogSink writes events to logrus, used when no Pub/Sub topic is configured.
type LogSink struct {
	Logger logrus.FieldLogger
}

func (s LogSink) Publish(ctx context.Context, e Event) error {
	fields := logrus.Fields{"event": e.Type, "correlation_id": e.CorrelationId}
	if e.SyncLog != nil {
		fields["sync_type"] = e.SyncLog.SyncType
		fields["status"] = e.SyncLog.Status
		fields["records_synced"] = e.SyncLog.RecordsSynced
		fields["error_count"] = e.SyncLog.ErrorCount
	}
	if e.Job != nil {
		fields["job_id"] = e.Job.ID
		fields["status"] = e.Job.Status
	}
	s.Logger.WithFields(fields).Info("audit event")
	return nil
}

// PubSubSink publishes events as JSON messages with the event type as an attribute.
type PubSubSink struct {
	topic *pubsub.Topic
}

func NewPubSubSink(topic *pubsub.Topic) *PubSubSink {
	return &PubSubSink{topic: topic}
}

func (s *PubSubSink) Publish(ctx context.Context, e Event) error {
	_, err := config.PublishJSON(ctx, s.topic, e, map[string]string{"type": e.Type})
	return err
}

// NewSink picks Pub/Sub when a topic is configured and falls back to logging.
func NewSink(ctx context.Context, s *config.Settings, logger logrus.FieldLogger) Sink {
	if s.PubSubTopic == "" {
		return LogSink{Logger: logger}
	}
	client, err := config.GetPubSubClient(ctx, s)
	if err != nil {
		logger.WithError(err).Warn("pubsub unavailable, audit events go to the log")
		return LogSink{Logger: logger}
	}
	return NewPubSubSink(client.Topic(s.PubSubTopic))
}
