package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/pitchlab/internal/adapters/repository"
	"github.com/okian/pitchlab/internal/domain/drill"
	"github.com/okian/pitchlab/internal/domain/model"
	"github.com/okian/pitchlab/internal/domain/report"
	"github.com/okian/pitchlab/internal/domain/session"
	"github.com/okian/pitchlab/pkg/logger"
	"github.com/okian/pitchlab/pkg/metrics"
)

// SessionConfig holds the per-session choices of a start request.
type SessionConfig struct {
	// Seed makes the session reproducible; 0 picks a time-based seed.
	Seed int64
	// Fatigue enables stamina depletion on top of the service default.
	Fatigue bool
	// AutoRun drives the session server-side at the service tick interval.
	AutoRun bool
}

// SessionSummary is the list view of a session.
type SessionSummary struct {
	ID           string         `json:"session_id"`
	Drill        drill.Kind     `json:"drill"`
	Status       session.Status `json:"status"`
	ElapsedSec   float64        `json:"elapsed_s"`
	Participants []string       `json:"participants"`
}

// StartSession validates the drill and the participants, builds a session
// and starts it. Rejections leave no session behind.
func (s *Service) StartSession(ctx context.Context, drillName string, playerIDs []string, cfg SessionConfig) (session.Snapshot, error) {
	const op = "service.StartSession"

	kind, err := drill.ParseKind(drillName)
	if err != nil {
		return session.Snapshot{}, s.reject(ctx, op, err)
	}

	players := make([]model.Player, 0, len(playerIDs))
	for _, id := range playerIDs {
		p, err := s.roster.Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				metrics.RecordSessionRejected("UnknownPlayer")
				return session.Snapshot{}, fmt.Errorf("%s: %w: %q", op, ErrPlayerNotFound, id)
			}
			return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
		}
		players = append(players, p)
	}

	dcfg := s.drillCfg
	dcfg.Fatigue = dcfg.Fatigue || cfg.Fatigue
	opts := []session.Option{
		session.WithDrillConfig(dcfg),
		session.WithMaxStep(s.maxStep),
		session.WithAnalyzer(s.analyzer),
		session.WithRatingProtocol(s.protocol),
		session.WithLogger(s.logger.Named("session")),
	}
	if cfg.Seed != 0 {
		opts = append(opts, session.WithSeed(cfg.Seed))
	}
	if s.observer != nil {
		opts = append(opts, session.WithObserver(s.observer))
	}

	sess, err := session.New("", kind, players, opts...)
	if err != nil {
		return session.Snapshot{}, s.reject(ctx, op, err)
	}

	s.mu.Lock()
	if err := s.makeRoomLocked(); err != nil {
		s.mu.Unlock()
		metrics.RecordSessionRejected("TooManySessions")
		return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	s.sessions[sess.ID()] = sess
	s.order = append(s.order, sess.ID())
	active := len(s.sessions)
	s.mu.Unlock()

	if err := sess.Start(); err != nil {
		return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordSessionStarted(kind.String())
	metrics.UpdateActiveSessions(active)

	if cfg.AutoRun {
		s.runners.Add(1)
		go func() {
			defer s.runners.Done()
			if err := sess.Run(s.runCtx, s.tickInterval); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn(ctx, "session driver stopped", logger.String("session", sess.ID()), logger.Error(err))
			}
		}()
	}

	return sess.Snapshot(), nil
}

func (s *Service) reject(ctx context.Context, op string, err error) error {
	reason := drill.ReasonCode(err)
	if reason == "" {
		reason = "Invalid"
	}
	metrics.RecordSessionRejected(reason)
	s.logger.Info(ctx, "session rejected", logger.String("reason", reason), logger.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}

// makeRoomLocked evicts the oldest analysed session when the service is at
// capacity. Live sessions are never evicted.
func (s *Service) makeRoomLocked() error {
	if len(s.sessions) < s.maxSessions {
		return nil
	}
	for i, id := range s.order {
		if s.sessions[id].Status() != session.StatusAnalyzed {
			continue
		}
		delete(s.sessions, id)
		delete(s.commits, id)
		s.order = append(s.order[:i], s.order[i+1:]...)
		return nil
	}
	return ErrTooManySessions
}

func (s *Service) get(id string) (*session.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		metrics.RecordErrorByComponent("service", "session_not_found")
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Sessions lists the held sessions in creation order.
func (s *Service) Sessions(_ context.Context) []SessionSummary {
	s.mu.RLock()
	list := make([]*session.Session, 0, len(s.order))
	for _, id := range s.order {
		list = append(list, s.sessions[id])
	}
	s.mu.RUnlock()

	out := make([]SessionSummary, 0, len(list))
	for _, sess := range list {
		snap := sess.Snapshot()
		ids := make([]string, 0, len(snap.Participants))
		for _, p := range snap.Participants {
			ids = append(ids, p.ID)
		}
		out = append(out, SessionSummary{
			ID:           snap.SessionID,
			Drill:        snap.Drill,
			Status:       snap.Status,
			ElapsedSec:   snap.ElapsedSec,
			Participants: ids,
		})
	}
	return out
}

// Snapshot returns the current state of a session.
func (s *Service) Snapshot(_ context.Context, id string) (session.Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("service.Snapshot: %w", err)
	}
	return sess.Snapshot(), nil
}

// Tick advances a session by the wall-clock time since its previous tick.
// A zero now uses the current time.
func (s *Service) Tick(_ context.Context, id string, now time.Time) (session.Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("service.Tick: %w", err)
	}
	if now.IsZero() {
		now = time.Now()
	}
	return sess.Tick(now)
}

// Advance steps a session by a fixed dt in seconds.
func (s *Service) Advance(_ context.Context, id string, dt float64) (session.Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("service.Advance: %w", err)
	}
	return sess.Advance(dt)
}

// Pause suspends a running session.
func (s *Service) Pause(_ context.Context, id string) (session.Snapshot, error) {
	const op = "service.Pause"
	sess, err := s.get(id)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := sess.Pause(); err != nil {
		return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	return sess.Snapshot(), nil
}

// Resume continues a paused session.
func (s *Service) Resume(_ context.Context, id string) (session.Snapshot, error) {
	const op = "service.Resume"
	sess, err := s.get(id)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := sess.Resume(); err != nil {
		return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	return sess.Snapshot(), nil
}

// StopSession ends a session and returns its report. Repeated calls return
// the same report.
func (s *Service) StopSession(ctx context.Context, id string) (*report.SessionReport, error) {
	const op = "service.StopSession"
	sess, err := s.get(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rep, err := sess.Stop()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.observer != nil {
		s.observer.Publish(sess.Snapshot())
	}
	s.logger.Info(ctx, "session stopped",
		logger.String("session", id),
		logger.Int("participants", len(rep.Participants)),
	)
	return rep, nil
}

// Report returns the report of an analysed session.
func (s *Service) Report(_ context.Context, id string) (*report.SessionReport, error) {
	const op = "service.Report"
	sess, err := s.get(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rep, ok := sess.Report()
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrNotStopped, id)
	}
	return rep, nil
}
