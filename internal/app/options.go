package service

import (
	"time"

	"github.com/okian/pitchlab/internal/adapters/repository"
	"github.com/okian/pitchlab/internal/domain/analytics"
	"github.com/okian/pitchlab/internal/domain/drill"
	"github.com/okian/pitchlab/internal/domain/model"
	"github.com/okian/pitchlab/internal/domain/rating"
	"github.com/okian/pitchlab/internal/domain/session"
	"github.com/okian/pitchlab/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of rating commit workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the commit queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the committed-session cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxSessions caps the number of sessions held in memory.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore replaces the in-memory roster store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.roster = store
		}
	}
}

// WithPlayers seeds the roster store.
func WithPlayers(players []model.Player) Option {
	return func(s *Service) {
		s.seed = append(s.seed, players...)
	}
}

// WithDrillConfig sets the drill parameters every session starts from.
func WithDrillConfig(cfg drill.Config) Option {
	return func(s *Service) {
		s.drillCfg = cfg
	}
}

// WithAnalyticsOptions configures the analyzer shared by all sessions.
func WithAnalyticsOptions(opts ...analytics.Option) Option {
	return func(s *Service) {
		s.analyzer = analytics.New(opts...)
	}
}

// WithRatingProtocol sets the protocol used for previews and commits.
func WithRatingProtocol(p *rating.Protocol) Option {
	return func(s *Service) {
		if p != nil {
			s.protocol = p
		}
	}
}

// WithMaxStep clamps one simulation step.
func WithMaxStep(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.maxStep = d
		}
	}
}

// WithTickInterval sets the server-side driver interval for auto-run sessions.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithObserver receives the snapshots of every session.
func WithObserver(o session.Observer) Option {
	return func(s *Service) {
		s.observer = o
	}
}
