package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/margindesk/margindesk_backend/config"
	"github.com/margindesk/margindesk_backend/models"
	"github.com/sirupsen/logrus"
)

// CronRegistration wires a cron expression to a prepared task.
type CronRegistration struct {
	Spec    string
	Task    *asynq.Task
	Options []asynq.Option
}

// ScheduledSyncs is the nightly "all" run plus the monthly bills and expenses runs for the
// month that just closed.
func ScheduledSyncs(s *config.Settings) ([]CronRegistration, error) {
	var out []CronRegistration
	add := func(spec string, t models.SyncType, dateRange string) error {
		if spec == "" {
			return nil
		}
		task, err := NewSyncRunTask(t, dateRange)
		if err != nil {
			return err
		}
		out = append(out, CronRegistration{
			Spec:    spec,
			Task:    task,
			Options: []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(2), asynq.Timeout(time.Hour)},
		})
		return nil
	}
	if err := add(s.NightlySyncCron, models.SyncTypeAll, ""); err != nil {
		return nil, err
	}
	if err := add(s.MonthlySyncCron, models.SyncTypeBills, "last_month"); err != nil {
		return nil, err
	}
	if err := add(s.MonthlySyncCron, models.SyncTypeExpenses, "last_month"); err != nil {
		return nil, err
	}
	return out, nil
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    logrus.FieldLogger
}

type WorkerConfig struct {
	RedisOpts asynq.RedisClientOpt
	Logger    logrus.FieldLogger
	Sync      *SyncTaskHandler
	Cron      []CronRegistration
}

func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Sync == nil {
		return nil, errors.New("worker: sync handler is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = config.GetLogger()
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		// One sync at a time; runs of different types share upstream rate limits.
		Concurrency: 1,
		Queues:      map[string]int{QueueDefault: 1},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskSyncRun, cfg.Sync.Handle)

	var scheduler *asynq.Scheduler
	if len(cfg.Cron) > 0 {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
		for _, entry := range cfg.Cron {
			if _, err := scheduler.Register(entry.Spec, entry.Task, entry.Options...); err != nil {
				return nil, err
			}
		}
	}
	return &Worker{server: srv, mux: mux, scheduler: scheduler, logger: cfg.Logger}, nil
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	if err := w.server.Start(w.mux); err != nil {
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		return err
	}
	w.logger.Info("worker started")
	<-ctx.Done()
	if w.scheduler != nil {
		w.scheduler.Shutdown()
	}
	w.server.Shutdown()
	w.logger.Info("worker stopped")
	return nil
}

// Enqueuer submits sync tasks, used by the CLI to hand a run to the worker.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(opts asynq.RedisClientOpt) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(opts)}
}

func (e *Enqueuer) EnqueueSync(ctx context.Context, t models.SyncType, dateRange string) (*asynq.TaskInfo, error) {
	task, err := NewSyncRunTask(t, dateRange)
	if err != nil {
		return nil, err
	}
	return e.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}
