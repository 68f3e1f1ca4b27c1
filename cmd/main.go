package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/pitchlab/internal/adapters/http/api"
	"github.com/okian/pitchlab/internal/adapters/http/swagger"
	"github.com/okian/pitchlab/internal/adapters/repository"
	"github.com/okian/pitchlab/internal/adapters/ws"
	app "github.com/okian/pitchlab/internal/app"
	"github.com/okian/pitchlab/internal/config"
	"github.com/okian/pitchlab/internal/domain/analytics"
	"github.com/okian/pitchlab/internal/domain/drill"
	"github.com/okian/pitchlab/internal/domain/rating"
	"github.com/okian/pitchlab/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// HTTP server timeout constants. There is no write timeout: snapshot
// streams stay open for the whole session.
const (
	readTimeout       = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	redisPingTimeout  = 3 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger.Get()); err != nil {
		logger.Get().Error(ctx, "pitchlab exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, log logger.Logger) error {
	// defaults -> optional file -> env
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	a, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer a.svc.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.handler,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// application bundles the wired service and its HTTP surface.
type application struct {
	svc     *app.Service
	hub     *ws.Hub
	handler http.Handler
	redis   *redis.Client
}

// close releases the roster backend. The service is stopped by the caller.
func (a *application) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func newApplication(ctx context.Context, cfg *config.Config, log logger.Logger) (*application, error) {
	opts, err := serviceOptions(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var client *redis.Client
	if cfg.RedisAddr != "" {
		client, err = connectRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "roster backed by redis", logger.String("addr", cfg.RedisAddr))
		opts = append(opts, app.WithStore(repository.NewRedisStore(client,
			repository.WithKeyPrefix(cfg.RedisKeyPrefix),
			repository.WithRedisLogger(log.Named("roster")),
		)))
	}

	hub := ws.NewHub(ws.WithLogger(log.Named("ws")))
	svc := app.New(append(opts, app.WithObserver(hub))...)

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, cfg.MaxLeaderboardLimit,
		api.WithStream(hub.Handler(svc)),
		api.WithLogger(log.Named("api")),
	).Register(ctx, mux)

	return &application{svc: svc, hub: hub, handler: mux, redis: client}, nil
}

// connectRedis opens a client and checks the server answers.
func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}

// serviceOptions maps the configuration onto service options.
func serviceOptions(ctx context.Context, cfg *config.Config, log logger.Logger) ([]app.Option, error) {
	dcfg := drill.DefaultConfig()
	dcfg.ErrorAngle = cfg.SlalomErrorAngleDeg * math.Pi / 180
	dcfg.ErrorSpeedMps = cfg.SlalomErrorSpeedMps
	dcfg.Fatigue = cfg.Fatigue

	opts := []app.Option{
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithMaxSessions(cfg.MaxSessions),
		app.WithMaxStep(cfg.MaxStep()),
		app.WithTickInterval(cfg.TickInterval()),
		app.WithDrillConfig(dcfg),
		app.WithAnalyticsOptions(
			analytics.WithSmoothingSeconds(cfg.SmoothingSeconds),
			analytics.WithMaxPlausibleSpeed(cfg.MaxPlausibleMps),
			analytics.WithHighSpeedThreshold(cfg.HighSpeedMps),
			analytics.WithSprintThreshold(cfg.SprintMps),
			analytics.WithMinSprintDuration(cfg.MinSprintSeconds),
		),
		app.WithRatingProtocol(rating.New(
			rating.WithMaxSpeed(cfg.RatingMaxSpeedMps),
			rating.WithWindow(cfg.RatingWindow),
			rating.WithBootstrapSessions(cfg.RatingBootstrapSessions),
		)),
	}

	if cfg.RosterFile != "" {
		players, err := config.LoadRoster(ctx, cfg.RosterFile)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "roster loaded", logger.String("file", cfg.RosterFile), logger.Int("players", len(players)))
		opts = append(opts, app.WithPlayers(players))
	}
	return opts, nil
}
