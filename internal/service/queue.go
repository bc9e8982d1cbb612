package service

import (
	"context"

	"cluequest-ar/internal/apierr"
	"cluequest-ar/internal/domain"

	"github.com/rs/zerolog"
)

type OptimizeTask struct {
	AssetID string
	Tier    domain.PerformanceTier
}

// OptimizeQueue is the background-optimization seam. The in-process channel
// implementation below warms the variant cache after uploads; the synchronous
// first-request path through the optimizer stays authoritative, so dropped or
// failed tasks cost latency, never correctness.
type OptimizeQueue interface {
	Enqueue(ctx context.Context, task OptimizeTask) error
	Dequeue(ctx context.Context) (OptimizeTask, error)
}

type memoryQueue struct {
	tasks chan OptimizeTask
}

func NewMemoryQueue(capacity int) OptimizeQueue {
	return &memoryQueue{tasks: make(chan OptimizeTask, capacity)}
}

func (q *memoryQueue) Enqueue(ctx context.Context, task OptimizeTask) error {
	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return apierr.UpstreamIO("optimization queue full", nil)
	}
}

func (q *memoryQueue) Dequeue(ctx context.Context) (OptimizeTask, error) {
	select {
	case task := <-q.tasks:
		return task, nil
	case <-ctx.Done():
		return OptimizeTask{}, ctx.Err()
	}
}

// OptimizeWorker drains the queue, computing variants through the optimizer.
// Failures are logged and skipped.
type OptimizeWorker struct {
	queue     OptimizeQueue
	optimizer *OptimizerService
	logger    zerolog.Logger
}

func NewOptimizeWorker(queue OptimizeQueue, optimizer *OptimizerService, logger zerolog.Logger) *OptimizeWorker {
	return &OptimizeWorker{queue: queue, optimizer: optimizer, logger: logger}
}

func (w *OptimizeWorker) Run(ctx context.Context) {
	w.logger.Info().Msg("optimize worker started")
	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			w.logger.Info().Msg("optimize worker stopped")
			return
		}

		profile := domain.CapabilityProfile{PerformanceTier: task.Tier}
		if _, err := w.optimizer.Optimize(ctx, task.AssetID, profile); err != nil {
			w.logger.Warn().
				Err(err).
				Str("asset_id", task.AssetID).
				Str("tier", string(task.Tier)).
				Msg("background optimization failed")
		}
	}
}
