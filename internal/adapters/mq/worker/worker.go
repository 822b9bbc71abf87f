// Package worker applies queued join requests to the catalog and leaderboard.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/ecomap/internal/adapters/mq/queue"
	"github.com/okian/ecomap/internal/adapters/repository"
	"github.com/okian/ecomap/internal/domain/model"
	"github.com/okian/ecomap/pkg/logger"
	"github.com/okian/ecomap/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Request is what workers read off the queue.
type Request = queue.Request

// Joiner adds a participant to an event.
type Joiner interface {
	Join(ctx context.Context, eventID, participantID string) (model.Event, error)
}

// Crediter credits reward points to a participant.
type Crediter interface {
	Credit(ctx context.Context, participantID string, points int) (repository.Entry, error)
}

// Queue defines how workers receive requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Request
}

// ResultFunc observes the outcome of every processed request. err is nil
// when the join was applied.
type ResultFunc func(ctx context.Context, r Request, err error)

// Worker processes join requests.
type Worker interface {
	// Run processes requests until ctx is canceled or the queue is drained.
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the queue to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	joiner   Joiner
	crediter Crediter
	onResult ResultFunc
	name     string

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, joiner Joiner, crediter Crediter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		joiner:   joiner,
		crediter: crediter,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-requests:
			if !ok {
				return
			}
			err := w.process(ctx, r)
			if w.onResult != nil {
				w.onResult(ctx, r, err)
			}
		}
	}
}

// Shutdown signals the worker to stop and waits for it.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) process(ctx context.Context, r Request) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	event, err := w.joiner.Join(ctx, r.EventID, r.ParticipantID)
	if err != nil {
		reason := rejectReason(err)
		metrics.RecordJoinRejected(reason)
		if reason == "internal" {
			metrics.RecordWorkerError()
			w.logger.Error(ctx, "join failed",
				logger.String("request_id", r.RequestID),
				logger.String("event_id", r.EventID),
				logger.Error(err),
			)
		} else {
			w.logger.Info(ctx, "join rejected",
				logger.String("request_id", r.RequestID),
				logger.String("event_id", r.EventID),
				logger.String("reason", reason),
			)
		}
		return fmt.Errorf("join request %s: %w", r.RequestID, err)
	}

	entry, err := w.crediter.Credit(ctx, r.ParticipantID, event.Reward)
	if err != nil {
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "reward credit failed",
			logger.String("request_id", r.RequestID),
			logger.String("participant_id", r.ParticipantID),
			logger.Error(err),
		)
		return fmt.Errorf("credit request %s: %w", r.RequestID, err)
	}

	metrics.RecordJoinApplied()
	w.logger.Debug(ctx, "join applied",
		logger.String("request_id", r.RequestID),
		logger.String("event_id", r.EventID),
		logger.Int("participants", event.Participants),
		logger.Int("points", entry.Points),
		logger.Int("rank", entry.Rank),
	)
	return nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, repository.ErrEventFull):
		return "event_full"
	case errors.Is(err, repository.ErrAlreadyJoined):
		return "already_joined"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

// Pool manages multiple workers reading the same queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. A non-positive workerCount means one per CPU.
func NewPool(workerCount int, q Queue, joiner Joiner, crediter Crediter, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, joiner, crediter, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, lets workers drain what is already queued and
// then stops them. Workers still busy when ctx expires are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	drainCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-drainCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
		}
		if timedOut {
			break
		}
	}

	for _, w := range p.workers {
		w.stop()
	}
	metrics.UpdateWorkerCount(0)

	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", drainCtx.Err())
	}
	return nil
}
