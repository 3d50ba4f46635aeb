package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Runner dispatches submitted lists to the pipeline service on background
// goroutines. Submit never blocks the caller: when the queue is full the
// list is dropped with a warning and can be reprocessed later.
type Runner struct {
	log     *slog.Logger
	svc     *Service
	queue   chan uuid.UUID
	wg      sync.WaitGroup
	workers int
}

// NewRunner creates a runner with the given worker count and queue depth.
func NewRunner(logger *slog.Logger, svc *Service, workers, queueSize int) *Runner {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Runner{
		log:     logger.With("component", "pipeline_runner"),
		svc:     svc,
		queue:   make(chan uuid.UUID, queueSize),
		workers: workers,
	}
}

// Start launches the worker goroutines. Workers exit when the context is
// canceled or the queue is closed via Stop.
func (r *Runner) Start(ctx context.Context) {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.work(ctx)
	}
}

// Stop closes the queue and waits for in-flight processing to finish.
func (r *Runner) Stop() {
	close(r.queue)
	r.wg.Wait()
}

// Submit queues a list for processing without blocking.
func (r *Runner) Submit(listID uuid.UUID) {
	select {
	case r.queue <- listID:
	default:
		r.log.Warn("pipeline queue full, dropping list", "list_id", listID)
	}
}

func (r *Runner) work(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case listID, ok := <-r.queue:
			if !ok {
				return
			}
			if err := r.svc.ProcessList(ctx, listID); err != nil {
				r.log.Error("process list failed", "list_id", listID, "error", err)
			}
		}
	}
}
