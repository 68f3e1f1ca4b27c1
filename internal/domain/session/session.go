// Package session drives one drill instance through its lifecycle: it steps
// the drill, records position traces and, on stop, runs analytics and builds
// the report exactly once.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/pitchlab/internal/domain/analytics"
	"github.com/okian/pitchlab/internal/domain/drill"
	"github.com/okian/pitchlab/internal/domain/model"
	"github.com/okian/pitchlab/internal/domain/rating"
	"github.com/okian/pitchlab/internal/domain/report"
	"github.com/okian/pitchlab/pkg/logger"
	"github.com/okian/pitchlab/pkg/metrics"
)

// Status is the lifecycle state of a session.
type Status string

// Session states.
const (
	StatusNotStarted Status = "not_started"
	StatusRunning    Status = "running"
	StatusPaused     Status = "paused"
	StatusStopped    Status = "stopped"
	StatusAnalyzed   Status = "analyzed"
)

// ErrInvalidTransition is returned for lifecycle calls made in the wrong state.
var ErrInvalidTransition = errors.New("invalid session transition")

// traceCapacity pre-sizes traces for about two minutes at 20 Hz.
const traceCapacity = 2400

// Session is one running drill. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id       string
	kind     drill.Kind
	cfg      drill.Config
	rng      *rand.Rand
	maxStep  float64
	observer Observer
	analyzer *analytics.Analyzer
	protocol *rating.Protocol
	log      logger.Logger
	now      func() time.Time

	players []model.Player
	drill   drill.Drill
	state   *drill.State
	traces  []*model.PositionTrace

	status      Status
	lastTick    time.Time
	hasBaseline bool

	ctx    context.Context
	cancel context.CancelFunc
	report *report.SessionReport
}

// New validates players against the drill and builds a NotStarted session.
// Rejections leave no state behind.
func New(id string, kind drill.Kind, players []model.Player, opts ...Option) (*Session, error) {
	const op = "session.New"
	s := &Session{
		id:       id,
		kind:     kind,
		cfg:      drill.DefaultConfig(),
		maxStep:  DefaultMaxStep.Seconds(),
		analyzer: analytics.New(),
		protocol: rating.New(),
		log:      logger.Discard(),
		now:      time.Now,
		status:   StatusNotStarted,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.id == "" {
		s.id = report.NewID()
	}

	d, err := drill.New(kind, s.cfg, s.rng)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	st, err := d.Setup(players)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.drill, s.state = d, st
	s.players = make([]model.Player, len(players))
	for i, p := range players {
		s.players[i] = p.Clone()
	}
	s.traces = make([]*model.PositionTrace, len(st.Participants))
	for i := range s.traces {
		s.traces[i] = model.NewPositionTrace(traceCapacity)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Kind returns the drill kind.
func (s *Session) Kind() drill.Kind { return s.kind }

// Done is closed once Stop has been requested.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Players returns the roster snapshot taken when the session was created.
func (s *Session) Players() []model.Player {
	out := make([]model.Player, len(s.players))
	for i, p := range s.players {
		out[i] = p.Clone()
	}
	return out
}

// Snapshot returns the current world without mutating it.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Report returns the report once the session has been analysed.
func (s *Session) Report() (*report.SessionReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report, s.report != nil
}

// Start moves a new session to Running and records the t=0 samples.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.status != StatusNotStarted || s.ctx.Err() != nil {
		st := s.status
		s.mu.Unlock()
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, st)
	}
	s.status = StatusRunning
	s.hasBaseline = false
	s.recordLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info(s.ctx, "session started",
		logger.String("session", s.id),
		logger.String("drill", s.kind.String()),
		logger.Int("participants", len(s.players)),
	)
	s.publish(snap)
	return nil
}

// Pause suspends stepping. State and traces are kept as they are.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return fmt.Errorf("%w: pause from %s", ErrInvalidTransition, s.status)
	}
	s.status = StatusPaused
	s.hasBaseline = false
	return nil
}

// Resume continues a paused session. The next Tick re-baselines the clock so
// the paused interval never reaches the integrator.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusPaused {
		return fmt.Errorf("%w: resume from %s", ErrInvalidTransition, s.status)
	}
	s.status = StatusRunning
	s.hasBaseline = false
	return nil
}

// Tick advances by the wall-clock time since the previous tick, clamped to
// [0, max step]. The first tick after Start or Resume only sets the
// baseline. Sessions that are not running return their snapshot unchanged.
func (s *Session) Tick(now time.Time) (Snapshot, error) {
	s.mu.Lock()
	if s.ctx.Err() != nil || s.status != StatusRunning {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	if !s.hasBaseline {
		s.lastTick, s.hasBaseline = now, true
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	dt := now.Sub(s.lastTick).Seconds()
	s.lastTick = now
	snap, stepped := s.stepLocked(dt)
	s.mu.Unlock()

	if stepped {
		s.publish(snap)
	}
	return snap, nil
}

// Advance steps by a fixed dt, clamped like Tick.
func (s *Session) Advance(dt float64) (Snapshot, error) {
	s.mu.Lock()
	if s.ctx.Err() != nil || s.status != StatusRunning {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	snap, stepped := s.stepLocked(dt)
	s.mu.Unlock()

	if stepped {
		s.publish(snap)
	}
	return snap, nil
}

// stepLocked runs one drill step. The cancellation check comes before any
// mutation so nothing changes once Stop has been requested.
func (s *Session) stepLocked(dt float64) (Snapshot, bool) {
	if s.ctx.Err() != nil {
		return s.snapshotLocked(), false
	}
	if math.IsNaN(dt) || dt <= 0 {
		return s.snapshotLocked(), false
	}
	dt = math.Min(dt, s.maxStep)

	start := time.Now()
	s.drill.Step(s.state, dt)
	s.state.Elapsed += dt
	s.recordLocked()
	metrics.RecordTick(s.kind.String(), float64(time.Since(start).Microseconds())/1000)

	return s.snapshotLocked(), true
}

func (s *Session) recordLocked() {
	for i, p := range s.state.Participants {
		s.traces[i].Append(s.state.Elapsed, p.Pos)
	}
}

// Stop cancels further stepping, analyses the frozen traces and returns the
// report. Only the first call does the work; later calls return the same
// report.
func (s *Session) Stop() (*report.SessionReport, error) {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report != nil {
		return s.report, nil
	}

	s.status = StatusStopped
	for _, tr := range s.traces {
		tr.Freeze()
	}

	date := s.now()
	entries := make([]report.Entry, 0, len(s.state.Participants))
	for i, p := range s.state.Participants {
		m := s.analyzer.Compute(s.traces[i])
		e := report.Entry{Player: s.players[i], Metrics: m, Progress: p.Progress}
		if avg := report.Quantize(m.AvgSpeedMps); avg > 0 {
			_, upd := s.protocol.Apply(s.players[i], date, avg)
			e.Rating = &upd
		}
		entries = append(entries, e)
	}

	meta := report.Meta{ID: s.id, DateTime: date, Drill: s.kind.String(), DurationSec: s.state.Elapsed}
	if s.kind == drill.KindSlalom {
		meta.GatesTotal = s.cfg.Gates
	}
	s.report = report.Build(meta, entries)
	s.status = StatusAnalyzed
	metrics.RecordReport(s.kind.String())

	s.log.Info(context.Background(), "session analysed",
		logger.String("session", s.id),
		logger.String("drill", s.kind.String()),
		logger.Float64("duration_s", s.state.Elapsed),
	)
	return s.report, nil
}

// Run ticks the session every interval until it stops, its drill completes
// or ctx ends. It does not call Stop.
func (s *Session) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("session.Run: interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.ctx.Done():
			return nil
		case now := <-ticker.C:
			snap, err := s.Tick(now)
			if err != nil {
				return err
			}
			if snap.Done {
				return nil
			}
		}
	}
}

func (s *Session) publish(snap Snapshot) {
	if s.observer != nil {
		s.observer.Publish(snap)
	}
}
