package camunda

import (
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// JobHandlerFunc matches the Zeebe job worker callback. Completion and
// failure commands are the handler's responsibility.
type JobHandlerFunc func(client worker.JobClient, job entities.Job)

// CamundaWorker owns one open job subscription.
type CamundaWorker struct {
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

type WorkerOptions struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
}

func NewWorker(client zbc.Client, opts WorkerOptions, handler JobHandlerFunc, logger *zap.Logger) *CamundaWorker {
	jobWorker := client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(worker.JobHandler(handler)).
		MaxJobsActive(opts.MaxJobsActive).
		Timeout(opts.Timeout).
		Open()

	logger.Info("worker started",
		zap.String("taskType", opts.TaskType),
		zap.Int("maxJobsActive", opts.MaxJobsActive),
		zap.Duration("timeout", opts.Timeout),
	)

	return &CamundaWorker{
		worker:   jobWorker,
		logger:   logger,
		taskType: opts.TaskType,
	}
}

// Close drains in-flight jobs and stops polling.
func (w *CamundaWorker) Close() {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.worker.Close()
	w.worker.AwaitClose()
}
