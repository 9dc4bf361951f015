// Package queue delivers email jobs off the request path, either through
// in-process workers or through a durable RabbitMQ queue.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"academicevents/internal/domain"
)

// ErrQueueFull is returned when the in-process buffer has no room.
var ErrQueueFull = errors.New("email queue is full")

// ErrClosed is returned by Dispatch after Close.
var ErrClosed = errors.New("email dispatcher is closed")

// JobHandler performs the delivery of one job. domain.EmailService implements it.
type JobHandler interface {
	Handle(ctx context.Context, job domain.EmailJob) error
}

const jobTimeout = 30 * time.Second

// InProcessDispatcher runs email jobs on a fixed pool of goroutines.
type InProcessDispatcher struct {
	handler JobHandler
	logger  *slog.Logger
	jobs    chan domain.EmailJob
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewInProcessDispatcher starts workers goroutines draining a buffer of the given size.
func NewInProcessDispatcher(handler JobHandler, workers, buffer int, logger *slog.Logger) *InProcessDispatcher {
	if workers < 1 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	d := &InProcessDispatcher{
		handler: handler,
		logger:  logger,
		jobs:    make(chan domain.EmailJob, buffer),
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

// Dispatch enqueues job without waiting for delivery. It never blocks: a
// full buffer yields ErrQueueFull.
func (d *InProcessDispatcher) Dispatch(ctx context.Context, job domain.EmailJob) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *InProcessDispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *InProcessDispatcher) work() {
	defer d.wg.Done()
	for job := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		if err := d.handler.Handle(ctx, job); err != nil {
			d.logger.Error("email delivery failed", "template", job.Template, "to", job.To, "err", err)
		}
		cancel()
	}
}
