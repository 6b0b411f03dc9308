// Package aggregate turns upload records into dashboard statistics.
//
// Every function here is pure: it reads the uploads it is given, keeps no
// state and never fails on malformed records. Missing identities are
// skipped and empty inputs produce zero values.
//
// Two views coexist and callers pick one explicitly:
//
//   - LatestPerTeacher: the current state, built from each teacher's most
//     recent upload (CurrentSummary).
//   - GroupByWeek: the trend, built from every upload bucketed by week
//     number (ComputeTrend, LatestTrend).
package aggregate

import (
	"fmt"
	"strings"
)

// Mode selects how uploads are grouped before aggregation.
type Mode int

// Aggregation modes.
const (
	LatestPerTeacher Mode = iota + 1
	GroupByWeek
)

func (m Mode) String() string {
	switch m {
	case LatestPerTeacher:
		return "latest_per_teacher"
	case GroupByWeek:
		return "group_by_week"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts "latest", "latest_per_teacher", "week" or "group_by_week".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "latest", "latest_per_teacher":
		return LatestPerTeacher, nil
	case "week", "group_by_week":
		return GroupByWeek, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Report is the result of Aggregate. Exactly one of Summary or Trend is set,
// matching Mode.
type Report struct {
	Mode    string   `json:"mode"`
	Summary *Summary `json:"summary,omitempty"`
	Trend   *Trend   `json:"trend,omitempty"`
}

// Aggregate runs the view selected by mode over uploads.
func Aggregate(mode Mode, uploads []UploadRecord) (Report, error) {
	switch mode {
	case LatestPerTeacher:
		s := CurrentSummary(uploads)
		return Report{Mode: mode.String(), Summary: &s}, nil
	case GroupByWeek:
		t := LatestTrend(uploads)
		return Report{Mode: mode.String(), Trend: &t}, nil
	default:
		return Report{}, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
}
