package camunda

import (
	"context"
	"time"

	"technician-dispatch/internal/common/config"
	"technician-dispatch/internal/common/logger"
	"technician-dispatch/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler processes one job and reports the outcome to the broker
// itself. The returned error is only used for instrumentation.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

// JobObserver receives per-job OpenTelemetry measurements.
type JobObserver interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, d time.Duration, status string)
}

// StartWorker opens a job worker for taskType. obs may be nil. The returned
// worker must be closed on shutdown.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler JobHandler, obs JobObserver, log logger.Logger) worker.JobWorker {
	w := client.NewJobWorker().
		JobType(taskType).
		Handler(instrument(taskType, handler, obs)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Name(taskType + "-worker").
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeoutMs":     wcfg.Timeout,
	})
	return w
}

func instrument(taskType string, handler JobHandler, obs JobObserver) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		start := time.Now()

		status := "completed"
		if err := handler.Handle(client, job); err != nil {
			status = "failed"
		}

		elapsed := time.Since(start)
		metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
		if obs != nil {
			ctx := context.Background()
			obs.RecordJobProcessed(ctx, taskType, status)
			obs.RecordJobDuration(ctx, taskType, elapsed, status)
		}
	}
}
