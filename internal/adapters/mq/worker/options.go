package worker

import (
	"github.com/okian/pitchlab/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithCommitHook registers a callback fired after each processed job.
func WithCommitHook(h CommitHook) Option {
	return func(w *InMemoryWorker) {
		w.hook = h
	}
}

type poolConfig struct {
	logger logger.Logger
	hook   CommitHook
}

// PoolOption configures a Pool.
type PoolOption func(*poolConfig)

// WithPoolLogger sets the logger shared by the pool and its workers.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(c *poolConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPoolCommitHook sets the commit hook of every worker in the pool.
func WithPoolCommitHook(h CommitHook) PoolOption {
	return func(c *poolConfig) {
		c.hook = h
	}
}
