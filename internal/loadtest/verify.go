package loadtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tidwall/gjson"

	"github.com/okian/gradepulse/internal/domain/aggregate"
	"github.com/okian/gradepulse/internal/domain/model"
	"github.com/okian/gradepulse/pkg/logger"
)

const (
	pollInterval     = 200 * time.Millisecond
	averageTolerance = 1e-6
)

// WaitStored polls /stats until the server reports want stored uploads.
func WaitStored(ctx context.Context, client *Client, want int, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	stored := int64(-1)
	for {
		if body, err := client.Get(ctx, "/stats"); err == nil {
			stored = gjson.GetBytes(body, "storedUploads").Int()
			if stored >= int64(want) {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %d of %d", ErrNotStored, stored, want)
		case <-ticker.C:
		}
	}
}

// FetchSummary reads the leader summary from the server.
func FetchSummary(ctx context.Context, client *Client) (SummaryFigures, error) {
	body, err := client.Get(ctx, "/summary")
	if err != nil {
		return SummaryFigures{}, err
	}
	res := gjson.ParseBytes(body)
	dist := res.Get("performanceDistribution")
	return SummaryFigures{
		TotalStudents: int(res.Get("totalStudents").Int()),
		SchoolAverage: res.Get("schoolAverage").Float(),
		Green:         int(dist.Get("green").Int()),
		Orange:        int(dist.Get("orange").Int()),
		Red:           int(dist.Get("red").Int()),
		Gray:          int(dist.Get("gray").Int()),
	}, nil
}

// Expected runs the aggregation core over uploads locally.
func Expected(uploads []model.UploadRecord) SummaryFigures {
	s := aggregate.CurrentSummary(uploads)
	return SummaryFigures{
		TotalStudents: s.TotalStudents,
		SchoolAverage: s.SchoolAverage,
		Green:         s.Distribution.Green,
		Orange:        s.Distribution.Orange,
		Red:           s.Distribution.Red,
		Gray:          s.Distribution.Gray,
	}
}

// Compare lists every field where got differs from want.
func Compare(got, want SummaryFigures) []string {
	var out []string
	check := func(name string, g, w int) {
		if g != w {
			out = append(out, fmt.Sprintf("%s: server %d, local %d", name, g, w))
		}
	}
	check("totalStudents", got.TotalStudents, want.TotalStudents)
	check("green", got.Green, want.Green)
	check("orange", got.Orange, want.Orange)
	check("red", got.Red, want.Red)
	check("gray", got.Gray, want.Gray)
	if math.Abs(got.SchoolAverage-want.SchoolAverage) > averageTolerance {
		out = append(out, fmt.Sprintf("schoolAverage: server %.6f, local %.6f", got.SchoolAverage, want.SchoolAverage))
	}
	return out
}

// Verify compares the server summary with a local aggregation of uploads.
func Verify(ctx context.Context, client *Client, uploads []model.UploadRecord, stats *Stats) error {
	got, err := FetchSummary(ctx, client)
	if err != nil {
		return err
	}
	stats.Summary = got
	stats.Mismatches = Compare(got, Expected(uploads))
	if len(stats.Mismatches) > 0 {
		for _, m := range stats.Mismatches {
			logger.Get().Warn(ctx, "summary mismatch", logger.String("field", m))
		}
		return fmt.Errorf("%w: %d fields differ", ErrMismatch, len(stats.Mismatches))
	}
	logger.Get().Info(ctx, "summary verified",
		logger.Int("totalStudents", got.TotalStudents),
		logger.Float64("schoolAverage", got.SchoolAverage),
	)
	return nil
}
