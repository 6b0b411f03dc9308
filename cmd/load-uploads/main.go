package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/gradepulse/internal/loadtest"
	"github.com/okian/gradepulse/pkg/logger"
)

const runTimeout = 15 * time.Minute

func main() {
	cfg, err := loadtest.ParseConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		loadtest.Usage(os.Stdout)
		return
	}
	if err != nil {
		os.Stderr.WriteString("invalid arguments: " + err.Error() + "\n")
		loadtest.Usage(os.Stderr)
		os.Exit(2)
	}

	if err := loadtest.SetupLogging(cfg.LogFile); err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	if _, err := loadtest.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "load run failed", logger.Error(err))
		os.Exit(1)
	}
}
