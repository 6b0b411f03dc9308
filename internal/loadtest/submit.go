package loadtest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/gradepulse/internal/domain/model"
	"github.com/okian/gradepulse/pkg/logger"
)

const (
	maxRetries     = 20
	retryBaseDelay = 5 * time.Millisecond
	retryMaxDelay  = 500 * time.Millisecond
)

// Submit posts uploads with cfg.Workers concurrent submitters. Throttled
// uploads are retried with backoff. When cfg.DuplicateEvery is set, every
// Nth upload is posted a second time to exercise duplicate detection.
func Submit(ctx context.Context, cfg *Config, client *Client, uploads []model.UploadRecord, stats *Stats) {
	log := logger.Get().Named("loadtest")
	log.Info(ctx, "submitting uploads", logger.Int("uploads", len(uploads)), logger.Int("workers", cfg.Workers))

	var submitted, accepted, duplicate, throttled, failed atomic.Int64

	work := make(chan model.UploadRecord, cfg.Workers*2)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range work {
				outcome, retries := postWithRetry(ctx, client, u)
				submitted.Add(1)
				throttled.Add(int64(retries))
				switch outcome {
				case OutcomeAccepted:
					accepted.Add(1)
				case OutcomeDuplicate:
					duplicate.Add(1)
				default:
					failed.Add(1)
					if cfg.Verbose {
						log.Warn(ctx, "upload failed", logger.String("id", u.ID))
					}
				}
			}
		}()
	}

	func() {
		defer close(work)
		for i, u := range uploads {
			select {
			case <-ctx.Done():
				return
			case work <- u:
			}
			if cfg.DuplicateEvery > 0 && (i+1)%cfg.DuplicateEvery == 0 {
				select {
				case <-ctx.Done():
					return
				case work <- u:
				}
			}
		}
	}()
	wg.Wait()

	stats.Submitted = int(submitted.Load())
	stats.Accepted = int(accepted.Load())
	stats.Duplicate = int(duplicate.Load())
	stats.Throttled = int(throttled.Load())
	stats.Failed = int(failed.Load())

	log.Info(ctx, "submission completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("throttled", stats.Throttled),
		logger.Int("failed", stats.Failed),
	)
}

// postWithRetry posts u until it is not throttled. It returns the final
// outcome and how many throttled attempts preceded it.
func postWithRetry(ctx context.Context, client *Client, u model.UploadRecord) (Outcome, int) { //nolint:gocritic // hugeParam: value semantics
	delay := retryBaseDelay
	for attempt := 0; ; attempt++ {
		outcome, err := client.PostUpload(ctx, u)
		if err != nil || outcome != OutcomeThrottled || attempt == maxRetries {
			if outcome == OutcomeThrottled {
				outcome = OutcomeFailed
			}
			return outcome, attempt
		}
		select {
		case <-ctx.Done():
			return OutcomeFailed, attempt
		case <-time.After(delay):
		}
		delay = min(delay*2, retryMaxDelay)
	}
}
