package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/pitchlab/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars(t)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
				convey.So(cfg.MaxStepMs, convey.ShouldEqual, 100)
				convey.So(cfg.Fatigue, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			t.Setenv("PITCHLAB_ADDR", ":8080")
			t.Setenv("PITCHLAB_QUEUE_SIZE", "64")
			t.Setenv("PITCHLAB_WORKER_COUNT", "3")
			t.Setenv("PITCHLAB_TICK_INTERVAL_MS", "50")
			t.Setenv("PITCHLAB_SPRINT_MPS", "6.1")
			t.Setenv("PITCHLAB_FATIGUE", "true")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.TickInterval(), convey.ShouldEqual, 50*time.Millisecond)
				convey.So(cfg.SprintMps, convey.ShouldEqual, 6.1)
				convey.So(cfg.Fatigue, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := writeTemp(t, "config.yaml", `
addr: ":9090"
queue_size: 300
rating_window: 4
slalom_error_speed_mps: 5.0
`)
			t.Setenv("PITCHLAB_CONFIG", path)
			t.Setenv("PITCHLAB_QUEUE_SIZE", "500")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.RatingWindow, convey.ShouldEqual, 4)
				convey.So(cfg.SlalomErrorSpeedMps, convey.ShouldEqual, 5.0)
				convey.So(cfg.RatingBootstrapSessions, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			t.Setenv("PITCHLAB_CONFIG", writeTemp(t, "bad.yaml", `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			t.Setenv("PITCHLAB_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			t.Setenv("PITCHLAB_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			t.Setenv("PITCHLAB_QUEUE_SIZE", "invalid")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestLoadRoster(t *testing.T) {
	convey.Convey("Given a YAML roster", t, func() {
		ctx := context.Background()

		convey.Convey("When it holds duplicates, blanks and out-of-range ratings", func() {
			path := writeTemp(t, "roster.yaml", `
players:
  - id: P1
    name: Ada
    position: ST
    ratings: {speed: 140, stamina: 70}
    physical: {height_cm: 180, weight_kg: 75, age: 24}
    match_history:
      - date: "2025-02-01T10:00:00Z"
        avg_speed_mps: 3.4
  - id: P1
    name: Duplicate
  - id: ""
    name: Nobody
  - id: P2
    position: CB
`)
			players, err := config.LoadRoster(ctx, path)

			convey.Convey("Then the roster is normalised", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(players), convey.ShouldEqual, 2)

				convey.So(players[0].Name, convey.ShouldEqual, "Ada")
				convey.So(players[0].Ratings.Speed, convey.ShouldEqual, 100)
				convey.So(players[0].Physical.Age, convey.ShouldEqual, 24)
				convey.So(len(players[0].MatchHistory), convey.ShouldEqual, 1)
				convey.So(players[0].MatchHistory[0].Date.Equal(time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)), convey.ShouldBeTrue)

				convey.So(players[1].Name, convey.ShouldEqual, "P2")
				convey.So(players[1].Ratings.Speed, convey.ShouldEqual, 0)
				convey.So(players[1].Ratings.Stamina, convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When the path is missing", func() {
			_, err := config.LoadRoster(ctx, filepath.Join(t.TempDir(), "missing.yaml"))

			convey.Convey("Then ErrLoadRoster is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadRoster), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the path is empty", func() {
			_, err := config.LoadRoster(ctx, "")

			convey.Convey("Then ErrLoadRoster is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadRoster), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PITCHLAB_CONFIG", "PITCHLAB_ADDR", "PITCHLAB_QUEUE_SIZE", "PITCHLAB_WORKER_COUNT",
		"PITCHLAB_TICK_INTERVAL_MS", "PITCHLAB_SPRINT_MPS", "PITCHLAB_FATIGUE",
	} {
		if _, ok := os.LookupEnv(name); ok {
			t.Setenv(name, "")
			_ = os.Unsetenv(name)
		}
	}
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
