package session

import (
	"math/rand"
	"time"

	"github.com/okian/pitchlab/internal/domain/analytics"
	"github.com/okian/pitchlab/internal/domain/drill"
	"github.com/okian/pitchlab/internal/domain/rating"
	"github.com/okian/pitchlab/pkg/logger"
)

// DefaultMaxStep caps a single integration step.
const DefaultMaxStep = 100 * time.Millisecond

// Option applies a configuration option to a Session.
type Option func(*Session)

// WithDrillConfig overrides the drill parameters.
func WithDrillConfig(cfg drill.Config) Option {
	return func(s *Session) {
		s.cfg = cfg
	}
}

// WithSeed seeds the session random source.
func WithSeed(seed int64) Option {
	return func(s *Session) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// WithMaxStep sets the upper bound of one step.
func WithMaxStep(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.maxStep = d.Seconds()
		}
	}
}

// WithObserver registers the snapshot observer.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		s.observer = o
	}
}

// WithAnalyzer sets the analytics engine used at stop.
func WithAnalyzer(a *analytics.Analyzer) Option {
	return func(s *Session) {
		if a != nil {
			s.analyzer = a
		}
	}
}

// WithRatingProtocol sets the protocol used for suggested rating updates.
func WithRatingProtocol(p *rating.Protocol) Option {
	return func(s *Session) {
		if p != nil {
			s.protocol = p
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock sets the wall clock used to stamp reports.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}
