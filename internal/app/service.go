// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/okian/pitchlab/internal/adapters/mq/queue"
	"github.com/okian/pitchlab/internal/adapters/mq/worker"
	"github.com/okian/pitchlab/internal/adapters/repository"
	"github.com/okian/pitchlab/internal/domain/analytics"
	"github.com/okian/pitchlab/internal/domain/dedupe"
	"github.com/okian/pitchlab/internal/domain/drill"
	"github.com/okian/pitchlab/internal/domain/model"
	"github.com/okian/pitchlab/internal/domain/rating"
	"github.com/okian/pitchlab/internal/domain/session"
	"github.com/okian/pitchlab/pkg/logger"
	"github.com/okian/pitchlab/pkg/metrics"
)

// Defaults applied by New.
const (
	defaultQueueSize     = 1024
	defaultDedupeSize    = 100_000
	defaultMaxSessions   = 256
	defaultTickInterval  = 50 * time.Millisecond
	shutdownTimeout      = 10 * time.Second
	systemMetricsRefresh = 10 * time.Second
)

// Service owns the live sessions, the roster and the rating commit pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	roster   repository.Store
	deduper  dedupe.Deduper
	queue    *queue.InMemoryQueue
	pool     *worker.Pool
	protocol *rating.Protocol
	analyzer *analytics.Analyzer
	observer session.Observer

	sessions map[string]*session.Session
	order    []string
	commits  map[string][]model.RatingUpdate

	// Configuration
	workerCount  int
	queueSize    int
	dedupeSize   int
	maxSessions  int
	maxStep      time.Duration
	tickInterval time.Duration
	drillCfg     drill.Config
	seed         []model.Player

	// State
	started   bool
	runCtx    context.Context
	runCancel context.CancelFunc
	runners   sync.WaitGroup

	logger logger.Logger
}

// New constructs a Service. The roster and commit queue exist right away so
// sessions can be started before Start; Start launches the commit workers.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU(),
		queueSize:    defaultQueueSize,
		dedupeSize:   defaultDedupeSize,
		maxSessions:  defaultMaxSessions,
		maxStep:      session.DefaultMaxStep,
		tickInterval: defaultTickInterval,
		drillCfg:     drill.DefaultConfig(),
		protocol:     rating.New(),
		analyzer:     analytics.New(),
		sessions:     make(map[string]*session.Session),
		commits:      make(map[string][]model.RatingUpdate),
		logger:       logger.Discard(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.Named("service")
	if s.roster == nil {
		s.roster = repository.NewRosterStore(repository.WithPlayers(s.seed))
	} else {
		s.seedStore(context.Background())
	}
	s.seed = nil
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.runCtx, s.runCancel = context.WithCancel(context.Background())

	return s
}

// Start launches the commit workers and the system metrics refresher.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting drill service...")

	s.pool = worker.NewPool(s.workerCount, s.queue, s.protocol, s.roster,
		worker.WithPoolLogger(s.logger),
		worker.WithPoolCommitHook(s.recordCommit),
	)
	s.pool.Start(s.runCtx)

	s.runners.Add(1)
	go func() {
		defer s.runners.Done()
		s.refreshSystemMetrics(s.runCtx)
	}()

	s.started = true
	s.logger.Info(ctx, "drill service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("players", s.roster.Count(ctx)),
	)

	return nil
}

// Stop stops the session drivers, drains the commit queue and waits for the
// workers.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		// Session drivers may run without the workers.
		s.runCancel()
		s.runners.Wait()
		return
	}
	s.started = false
	pool := s.pool
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping drill service...")

	// Drain commits first: the pool's workers run on runCtx.
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.runCancel()
	s.runners.Wait()

	s.logger.Info(ctx, "drill service stopped")
}

// seedStore inserts the seed players the store does not hold yet. Stored
// records keep their committed ratings and history.
func (s *Service) seedStore(ctx context.Context) {
	added := 0
	for _, p := range s.seed {
		id := strings.TrimSpace(p.ID)
		_, err := s.roster.Get(ctx, id)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, repository.ErrNotFound):
			s.logger.Warn(ctx, "roster seed lookup failed", logger.String("id", id), logger.Error(err))
			continue
		}
		if err := s.roster.Upsert(ctx, p); err != nil {
			s.logger.Warn(ctx, "roster seed failed", logger.String("id", id), logger.Error(err))
			continue
		}
		added++
	}
	if len(s.seed) > 0 {
		s.logger.Info(ctx, "roster seeded",
			logger.Int("given", len(s.seed)),
			logger.Int("added", added),
		)
	}
}

// recordCommit keeps the updates a worker wrote for a session.
func (s *Service) recordCommit(ctx context.Context, sessionID string, updates []model.RatingUpdate) {
	s.mu.Lock()
	s.commits[sessionID] = updates
	s.mu.Unlock()
}

func (s *Service) refreshSystemMetrics(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsRefresh)
	defer ticker.Stop()

	var ms runtime.MemStats
	var lastGC uint32
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runtime.ReadMemStats(&ms)
			metrics.UpdateSystemMemoryUsage(ms.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
			if ms.NumGC != lastGC {
				pause := ms.PauseNs[(ms.NumGC+255)%256]
				metrics.RecordSystemGCPauseTime(float64(pause) / float64(time.Millisecond))
				lastGC = ms.NumGC
			}
		}
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	byStatus := make(map[string]int)
	for _, sess := range s.sessions {
		byStatus[string(sess.Status())]++
	}

	stats := map[string]interface{}{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"queueLength":      s.queue.Len(),
		"dedupeSize":       s.dedupeSize,
		"committed":        s.deduper.Size(),
		"maxSessions":      s.maxSessions,
		"sessions":         len(s.sessions),
		"sessionsByStatus": byStatus,
		"players":          s.roster.Count(ctx),
	}
	if s.pool != nil {
		stats["commitsProcessed"] = s.pool.Processed()
	}

	metrics.UpdateQueueSize(s.queue.Len())
	metrics.UpdateActiveSessions(len(s.sessions))

	return stats
}
