package ws

import (
	"time"

	"github.com/okian/pitchlab/pkg/logger"
)

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithBuffer sets the per-client send queue length.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithLogger sets the hub logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// HandlerOption configures a stream handler.
type HandlerOption func(*handler)

// WithWriteTimeout bounds a single frame write.
func WithWriteTimeout(d time.Duration) HandlerOption {
	return func(s *handler) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithOriginPatterns allows cross-origin viewers matching the patterns.
func WithOriginPatterns(patterns ...string) HandlerOption {
	return func(s *handler) {
		s.origins = append(s.origins, patterns...)
	}
}
