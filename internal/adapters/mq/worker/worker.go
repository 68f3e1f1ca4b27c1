// Package worker applies committed session speeds to the roster asynchronously.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pitchlab/internal/adapters/mq/queue"
	"github.com/okian/pitchlab/internal/domain/model"
	"github.com/okian/pitchlab/pkg/logger"
	"github.com/okian/pitchlab/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	metricsUpdateInterval   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// Rater computes the next rating state of a player from one session average.
// *rating.Protocol satisfies it.
type Rater interface {
	Apply(p model.Player, date time.Time, sessionAvg float64) (model.Player, model.RatingUpdate)
}

// Roster mutates stored players atomically.
type Roster interface {
	Update(ctx context.Context, id string, fn func(model.Player) (model.Player, error)) (model.Player, error)
}

// Source defines how workers receive jobs.
type Source interface {
	Jobs() <-chan Job
}

// CommitHook is called once per processed job with the updates that were
// written. Failed players are absent from updates.
type CommitHook func(ctx context.Context, sessionID string, updates []model.RatingUpdate)

// Worker processes commit jobs.
type Worker interface {
	// Run processes jobs until the source is closed or ctx is canceled.
	Run(ctx context.Context)

	// Shutdown waits for Run to return.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker against an in-process roster.
type InMemoryWorker struct {
	source Source
	rater  Rater
	roster Roster
	name   string
	hook   CommitHook

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	processed *atomic.Int64

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(source Source, rater Rater, roster Roster, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		source:    source,
		rater:     rater,
		roster:    roster,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		processed: &atomic.Int64{},
		logger:    logger.Discard(),
	}

	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)

	return w
}

// Run starts the worker loop. Buffered jobs are drained after the source closes.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.source.Jobs()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing commit", logger.String("session_id", job.SessionID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker without draining and waits for it to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// process writes one rating update per participant. A missing player does not
// block the others; the joined error reports every failure.
func (w *InMemoryWorker) process(ctx context.Context, job Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	var (
		errs    []error
		updates = make([]model.RatingUpdate, 0, len(job.Speeds))
	)
	for _, s := range job.Speeds {
		var upd model.RatingUpdate
		_, err := w.roster.Update(ctx, s.PlayerID, func(p model.Player) (model.Player, error) {
			next, u := w.rater.Apply(p, job.Date, s.AvgSpeedMps)
			upd = u
			return next, nil
		})
		if err != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "roster_update_error")
			errs = append(errs, fmt.Errorf("player %s: %w", s.PlayerID, err))
			continue
		}
		updates = append(updates, upd)
		metrics.RecordRatingUpdate(upd.Change)
	}

	w.processed.Add(1)
	metrics.RecordRatingCommit()
	w.logger.Info(ctx, "ratings committed",
		logger.String("session_id", job.SessionID),
		logger.Int("updated", len(updates)),
		logger.Int("failed", len(errs)),
	)

	if w.hook != nil {
		w.hook(ctx, job.SessionID, updates)
	}
	return errors.Join(errs...)
}

// Pool manages multiple workers sharing one source.
type Pool struct {
	workers []*InMemoryWorker
	source  Source

	shutdown     chan struct{}
	shutdownOnce sync.Once

	processed         atomic.Int64
	lastProcessedTime time.Time

	logger logger.Logger
}

// NewPool creates a new worker pool. A count below one picks a CPU-based default.
func NewPool(workerCount int, source Source, rater Rater, roster Roster, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	cfg := poolConfig{logger: logger.Discard()}
	for _, opt := range opts {
		opt(&cfg)
	}

	pool := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		source:            source,
		shutdown:          make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            cfg.logger.Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(source, rater, roster,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(cfg.logger),
			WithCommitHook(cfg.hook),
		)
		w.processed = &pool.processed
		pool.workers[i] = w
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerMessagesPerSecond(0.0)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of jobs handled since the pool was created.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	var last int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case now := <-ticker.C:
			cur := p.processed.Load()
			if diff := now.Sub(p.lastProcessedTime).Seconds(); diff > 0 {
				metrics.UpdateWorkerMessagesPerSecond(float64(cur-last) / diff)
			}
			last = cur
			p.lastProcessedTime = now
		}
	}
}

// Shutdown closes the source when it can be closed, lets the workers drain
// what is buffered and waits for them or for ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil && !errors.Is(err, queue.ErrClosed) {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	p.shutdownOnce.Do(func() { close(p.shutdown) })

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	if timedOut {
		return fmt.Errorf("worker.Pool.Shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
