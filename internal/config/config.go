// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Functions accept context.Context as the first parameter.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the rating commit queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of rating commit workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the committed-session cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxStepMs clamps one simulation step.
	MaxStepMs int `koanf:"max_step_ms"`

	// TickIntervalMs drives sessions server-side when positive; zero leaves
	// ticking to the client.
	TickIntervalMs int `koanf:"tick_interval_ms"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MaxSessions caps the sessions held in memory.
	MaxSessions int `koanf:"max_sessions"`

	// RosterFile optionally seeds the roster from YAML.
	RosterFile string `koanf:"roster_file"`

	// RedisAddr switches the roster to Redis when set, e.g. "localhost:6379".
	RedisAddr      string `koanf:"redis_addr"`
	RedisPassword  string `koanf:"redis_password"`
	RedisKeyPrefix string `koanf:"redis_key_prefix"`

	// Analytics thresholds.
	SmoothingSeconds float64 `koanf:"smoothing_seconds"`
	MaxPlausibleMps  float64 `koanf:"max_plausible_mps"`
	HighSpeedMps     float64 `koanf:"high_speed_mps"`
	SprintMps        float64 `koanf:"sprint_mps"`
	MinSprintSeconds float64 `koanf:"min_sprint_seconds"`

	// Rating protocol.
	RatingMaxSpeedMps       float64 `koanf:"rating_max_speed_mps"`
	RatingWindow            int     `koanf:"rating_window"`
	RatingBootstrapSessions int     `koanf:"rating_bootstrap_sessions"`

	// Slalom error detection.
	SlalomErrorAngleDeg float64 `koanf:"slalom_error_angle_deg"`
	SlalomErrorSpeedMps float64 `koanf:"slalom_error_speed_mps"`

	// Fatigue enables stamina depletion in every drill.
	Fatigue bool `koanf:"fatigue"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		QueueSize:               1024,
		WorkerCount:             runtime.NumCPU(),
		DedupeSize:              100_000,
		MaxStepMs:               100,
		TickIntervalMs:          0,
		MaxLeaderboardLimit:     100,
		MaxSessions:             256,
		RedisKeyPrefix:          "pitchlab",
		SmoothingSeconds:        1.0,
		MaxPlausibleMps:         12,
		HighSpeedMps:            4.7,
		SprintMps:               5.5,
		MinSprintSeconds:        1.0,
		RatingMaxSpeedMps:       9.0,
		RatingWindow:            6,
		RatingBootstrapSessions: 2,
		SlalomErrorAngleDeg:     90,
		SlalomErrorSpeedMps:     4.5,
	}
}

// MaxStep returns MaxStepMs as a duration.
func (c *Config) MaxStep() time.Duration { return time.Duration(c.MaxStepMs) * time.Millisecond }

// TickInterval returns TickIntervalMs as a duration; zero disables the driver.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// Validate reports the first invalid setting, wrapped with ErrInvalidConfig.
func (c *Config) Validate(_ context.Context) error {
	const op = "config.Validate"
	check := func(ok bool, format string, args ...any) error {
		if ok {
			return nil
		}
		return fmt.Errorf("%s: %w: %s", op, ErrInvalidConfig, fmt.Sprintf(format, args...))
	}
	for _, err := range []error{
		check(strings.TrimSpace(c.Addr) != "", "addr must not be empty"),
		check(c.QueueSize > 0, "queue_size must be positive, got %d", c.QueueSize),
		check(c.DedupeSize > 0, "dedupe_size must be positive, got %d", c.DedupeSize),
		check(c.MaxStepMs > 0, "max_step_ms must be positive, got %d", c.MaxStepMs),
		check(c.TickIntervalMs >= 0, "tick_interval_ms must not be negative, got %d", c.TickIntervalMs),
		check(c.MaxLeaderboardLimit > 0, "max_leaderboard_limit must be positive, got %d", c.MaxLeaderboardLimit),
		check(c.MaxSessions > 0, "max_sessions must be positive, got %d", c.MaxSessions),
		check(c.RedisAddr == "" || strings.TrimSpace(c.RedisKeyPrefix) != "", "redis_key_prefix must not be empty"),
		check(c.SmoothingSeconds > 0, "smoothing_seconds must be positive"),
		check(c.MaxPlausibleMps > 0, "max_plausible_mps must be positive"),
		check(c.HighSpeedMps > 0 && c.SprintMps > 0, "speed thresholds must be positive"),
		check(c.MinSprintSeconds >= 0, "min_sprint_seconds must not be negative"),
		check(c.RatingMaxSpeedMps > 0, "rating_max_speed_mps must be positive"),
		check(c.RatingWindow > 0, "rating_window must be positive, got %d", c.RatingWindow),
		check(c.RatingBootstrapSessions >= 0, "rating_bootstrap_sessions must not be negative"),
		check(c.SlalomErrorAngleDeg > 0 && c.SlalomErrorAngleDeg <= 180, "slalom_error_angle_deg must be in (0, 180]"),
		check(c.SlalomErrorSpeedMps >= 0, "slalom_error_speed_mps must not be negative"),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}
