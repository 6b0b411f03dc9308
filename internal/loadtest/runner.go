package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/okian/gradepulse/internal/domain/model"
	"github.com/okian/gradepulse/pkg/logger"
)

// Run executes a complete load run: health check, generate, submit, wait
// for ingestion, verify.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("loadtest")
	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("uploads", cfg.Uploads),
		logger.Int("teachers", cfg.Teachers),
		logger.Int("workers", cfg.Workers),
	)

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if _, err := client.Get(ctx, "/healthz"); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}

	uploads := Generate(cfg)
	stats.Generated = len(uploads)
	if cfg.OutputFile != "" {
		if err := saveUploads(cfg.OutputFile, uploads); err != nil {
			log.Warn(ctx, "failed to save uploads", logger.Error(err))
		}
	}

	Submit(ctx, cfg, client, uploads, stats)

	err := WaitStored(ctx, client, stats.Accepted, cfg.SettleTimeout)
	if err == nil {
		err = Verify(ctx, client, uploads, stats)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, stats)
	return stats, err
}

func saveUploads(path string, uploads []model.UploadRecord) error {
	data, err := json.MarshalIndent(uploads, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal uploads: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func logStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("throttled", stats.Throttled),
		logger.Int("failed", stats.Failed),
		logger.Int("mismatches", len(stats.Mismatches)),
		logger.Duration("duration", stats.Duration),
		logger.Float64("uploadsPerSecond", perSecond),
	)
}
