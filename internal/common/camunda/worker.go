// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// JobHandler completes or fails the job itself; the returned error is only
// logged.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

// WorkerOptions mirror the per-worker config section.
type WorkerOptions struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

// NewWorker opens a job worker for opts.TaskType. Closing it leaves the
// shared client open.
func NewWorker(client zbc.Client, opts WorkerOptions, handler JobHandler, logger *zap.Logger) *CamundaWorker {
	logger = logger.With(zap.String("taskType", opts.TaskType))

	step := client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(func(client worker.JobClient, job entities.Job) {
			if err := handler.Handle(client, job); err != nil {
				logger.Error("Handler returned error", zap.Error(err), zap.Int64("jobKey", job.Key))
			}
		}).
		MaxJobsActive(opts.MaxJobsActive)
	if opts.Timeout > 0 {
		step = step.Timeout(opts.Timeout)
	}

	return &CamundaWorker{
		worker:   step.Open(),
		logger:   logger,
		taskType: opts.TaskType,
	}
}

func (w *CamundaWorker) Start() {
	w.logger.Info("worker started")
}

func (w *CamundaWorker) Stop(ctx context.Context) {
	w.logger.Info("stopping worker")
	done := make(chan struct{})
	go func() {
		w.worker.Close()
		w.worker.AwaitClose()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("worker did not drain before shutdown deadline")
	}
}
