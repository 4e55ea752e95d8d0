// Package service bridges created job records and their units of work.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"polling-job-service/internal/entity"
	"polling-job-service/internal/jobproc"
	"polling-job-service/internal/store"
)

// Coordinator launches each submitted unit of work on its own goroutine and
// drives the record through the state machine from the outcome. The store
// update happens exactly once per job; failures never reach the submitter,
// they are only visible through polling.
type Coordinator struct {
	store  store.Store
	logger *slog.Logger

	baseCtx context.Context
	stop    context.CancelFunc

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewCoordinator(s store.Store, logger *slog.Logger) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		store:   s,
		logger:  logger,
		baseCtx: ctx,
		stop:    cancel,
		cancels: make(map[string]context.CancelFunc),
	}
}

// Submit creates a record, kicks off the work in the background and returns
// the record immediately; the work has not necessarily started yet.
func (c *Coordinator) Submit(name string, proc jobproc.Processor, input json.RawMessage) *entity.Job {
	job := c.store.Create()

	ctx, cancel := context.WithCancel(c.baseCtx)
	c.mu.Lock()
	c.cancels[job.ID] = cancel
	c.mu.Unlock()

	c.logger.Info("job submitted",
		slog.String("job_id", job.ID),
		slog.String("job_type", name),
	)

	go c.run(ctx, name, job.ID, proc, input)

	return job
}

// Cancel transitions the record via TryCancel and signals the running work
// to stop. The background task's own late update is a no-op against the
// already terminal record.
func (c *Coordinator) Cancel(id string) bool {
	ok := c.store.TryCancel(id)

	c.mu.Lock()
	cancel := c.cancels[id]
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	return ok
}

// Shutdown cancels every in-flight unit of work. Each one observes the
// signal and records itself Canceled through the usual path.
func (c *Coordinator) Shutdown() {
	c.stop()
}

func (c *Coordinator) run(ctx context.Context, name, id string, proc jobproc.Processor, input json.RawMessage) {
	defer func() {
		c.mu.Lock()
		delete(c.cancels, id)
		c.mu.Unlock()

		final := c.store.Get(id)
		if final == nil {
			c.logger.Info("job record gone at task end", slog.String("job_id", id))
			return
		}
		c.logger.Info("job task finished",
			slog.String("job_id", id),
			slog.String("status", string(final.Status)),
		)
	}()

	c.store.SetProcessing(id)

	result, err := proc.Run(ctx, input)

	switch {
	case err == nil && ctx.Err() == nil:
		c.store.SetCompleted(id, result, name+" completed")
	case ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		// Caller cancel or shutdown. TryCancel no-ops if a direct cancel
		// already landed, so the record never regresses.
		c.store.TryCancel(id)
		c.logger.Warn("job canceled",
			slog.String("job_id", id),
			slog.String("job_type", name),
		)
	default:
		c.store.SetFailed(id, err.Error())
		c.logger.Error("job failed",
			slog.String("job_id", id),
			slog.String("job_type", name),
			slog.String("error", err.Error()),
		)
	}
}
