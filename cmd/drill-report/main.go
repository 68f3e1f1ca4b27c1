package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/pitchlab/internal/headless"
	"github.com/okian/pitchlab/pkg/logger"
)

func main() {
	cfg, err := headless.ParseFlags("drill-report", os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Stderr.WriteString("invalid arguments: " + err.Error() + "\n")
		os.Exit(2)
	}

	if err := logger.InitWriter(os.Stderr); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	level := "warn"
	if cfg.Verbose {
		level = "debug"
	}
	_ = logger.SetLevelString(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := headless.NewRunner(cfg, headless.WithLogger(logger.Named("drill-report")))
	if _, err := runner.Run(ctx, os.Stdout); err != nil {
		os.Stderr.WriteString("run failed: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
