package headless

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	service "github.com/okian/pitchlab/internal/app"
	"github.com/okian/pitchlab/internal/domain/drill"
	"github.com/okian/pitchlab/internal/domain/model"
	"github.com/okian/pitchlab/internal/domain/report"
	"github.com/okian/pitchlab/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0640
)

const commitPollInterval = 10 * time.Millisecond

// Result summarises a finished run.
type Result struct {
	SessionID    string
	Steps        int
	ElapsedSec   float64
	Participants int
	CommitStatus string
	Duration     time.Duration
}

// driver runs a session either in-process or over HTTP.
type driver interface {
	players(ctx context.Context) ([]model.Player, error)
	start(ctx context.Context, cfg *Config, ids []string) (string, error)
	advance(ctx context.Context, id string, dt float64) (elapsed float64, done bool, err error)
	stop(ctx context.Context, id string) error
	report(ctx context.Context, id, format string) (string, error)
	commit(ctx context.Context, id string) error
	commitStatus(ctx context.Context, id string) (string, error)
	close()
}

// Runner executes one headless run.
type Runner struct {
	cfg    *Config
	logger logger.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a runner for cfg.
func NewRunner(cfg *Config, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, logger: logger.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the session and writes the report to out, or to the
// configured output file.
func (r *Runner) Run(ctx context.Context, out io.Writer) (*Result, error) {
	const op = "headless.Run"
	cfg := r.cfg
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	kind, err := drill.ParseKind(cfg.Drill)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	d, err := r.newDriver(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer d.close()

	ids := cfg.PlayerIDs
	if len(ids) == 0 {
		players, err := d.players(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = defaultParticipants(kind, players)
	}

	res := &Result{Participants: len(ids)}
	begin := time.Now()

	r.logger.Info(ctx, "starting drill run",
		logger.String("drill", kind.String()),
		logger.Any("players", ids),
		logger.Any("seed", cfg.Seed),
		logger.Float64("dt", cfg.DT),
		logger.String("duration", cfg.Duration.String()),
		logger.String("mode", r.mode()),
	)

	id, err := d.start(ctx, cfg, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: start: %w", op, err)
	}
	res.SessionID = id

	steps := cfg.Steps()
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		elapsed, done, err := d.advance(ctx, id, cfg.DT)
		if err != nil {
			return nil, fmt.Errorf("%s: step %d: %w", op, i, err)
		}
		res.Steps++
		res.ElapsedSec = elapsed
		if done {
			r.logger.Debug(ctx, "drill finished early", logger.Int("step", i))
			break
		}
	}

	if err := d.stop(ctx, id); err != nil {
		return nil, fmt.Errorf("%s: stop: %w", op, err)
	}
	body, err := d.report(ctx, id, cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("%s: report: %w", op, err)
	}
	if err := r.write(ctx, out, body); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Commit {
		status, err := r.commit(ctx, d, id)
		if err != nil {
			return nil, fmt.Errorf("%s: commit: %w", op, err)
		}
		res.CommitStatus = status
	}

	res.Duration = time.Since(begin)
	r.logger.Info(ctx, "drill run finished",
		logger.String("session", id),
		logger.Int("steps", res.Steps),
		logger.Float64("elapsedSec", res.ElapsedSec),
		logger.String("commit", res.CommitStatus),
		logger.String("duration", res.Duration.String()),
	)
	return res, nil
}

func (r *Runner) mode() string {
	if r.cfg.BaseURL != "" {
		return "remote"
	}
	return "local"
}

func (r *Runner) newDriver(ctx context.Context) (driver, error) {
	if r.cfg.BaseURL != "" {
		c := newHTTPClient(r.cfg.BaseURL, r.cfg.Timeout)
		if err := c.checkHealth(ctx); err != nil {
			return nil, err
		}
		return c, nil
	}
	players, err := loadRoster(ctx, r.cfg)
	if err != nil {
		return nil, err
	}
	return newLocalDriver(ctx, players, r.cfg.Commit, r.logger)
}

// commit queues the ratings and waits until the workers wrote them.
func (r *Runner) commit(ctx context.Context, d driver, id string) (string, error) {
	if err := d.commit(ctx, id); err != nil {
		return "", err
	}
	ticker := time.NewTicker(commitPollInterval)
	defer ticker.Stop()
	for {
		status, err := d.commitStatus(ctx, id)
		if err != nil {
			return "", err
		}
		if status == service.CommitCommitted {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Runner) write(ctx context.Context, out io.Writer, body string) error {
	if r.cfg.Output == "" {
		if out == nil {
			return errors.New("no output")
		}
		_, err := io.WriteString(out, body)
		return err
	}

	if dir := filepath.Dir(r.cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(r.cfg.Output, []byte(body), filePermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	r.logger.Info(ctx, "report saved to file", logger.String("filename", r.cfg.Output))
	return nil
}

// localDriver runs the session on an in-process service.
type localDriver struct {
	svc *service.Service
}

func newLocalDriver(ctx context.Context, players []model.Player, withWorkers bool, log logger.Logger) (*localDriver, error) {
	svc := service.New(
		service.WithPlayers(players),
		service.WithWorkerCount(1),
		service.WithLogger(log),
	)
	if withWorkers {
		if err := svc.Start(ctx); err != nil {
			return nil, err
		}
	}
	return &localDriver{svc: svc}, nil
}

func (l *localDriver) players(ctx context.Context) ([]model.Player, error) {
	return l.svc.Players(ctx), nil
}

func (l *localDriver) start(ctx context.Context, cfg *Config, ids []string) (string, error) {
	snap, err := l.svc.StartSession(ctx, cfg.Drill, ids, service.SessionConfig{Seed: cfg.Seed, Fatigue: cfg.Fatigue})
	if err != nil {
		return "", err
	}
	return snap.SessionID, nil
}

func (l *localDriver) advance(ctx context.Context, id string, dt float64) (float64, bool, error) {
	snap, err := l.svc.Advance(ctx, id, dt)
	if err != nil {
		return 0, false, err
	}
	return snap.ElapsedSec, snap.Done, nil
}

func (l *localDriver) stop(ctx context.Context, id string) error {
	_, err := l.svc.StopSession(ctx, id)
	return err
}

func (l *localDriver) report(ctx context.Context, id, format string) (string, error) {
	rep, err := l.svc.Report(ctx, id)
	if err != nil {
		return "", err
	}
	if format == FormatJSON {
		return report.ExportJSON(rep)
	}
	return report.ExportCSV(rep)
}

func (l *localDriver) commit(ctx context.Context, id string) error {
	_, err := l.svc.CommitRatings(ctx, id)
	return err
}

func (l *localDriver) commitStatus(ctx context.Context, id string) (string, error) {
	res, err := l.svc.CommitStatus(ctx, id)
	return res.Status, err
}

func (l *localDriver) close() { l.svc.Stop() }
