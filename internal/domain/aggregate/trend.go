package aggregate

import (
	"sort"
	"strconv"
	"strings"
)

// Trend compares the weighted average of two weeks.
type Trend struct {
	LatestWeek      int     `json:"latestWeek"`
	PreviousWeek    int     `json:"previousWeek"`
	LatestAverage   float64 `json:"latestAverage"`
	PreviousAverage float64 `json:"previousAverage"`
	LatestUploads   int     `json:"latestUploads"`
	PreviousUploads int     `json:"previousUploads"`
	GrowthRate      float64 `json:"growthRate"`
	Growth          string  `json:"growth"`
}

// GroupUploadsByWeek buckets every upload by week number, across all
// teachers and without deduplication.
func GroupUploadsByWeek(uploads []UploadRecord) map[int][]UploadRecord {
	out := make(map[int][]UploadRecord)
	for _, u := range uploads {
		out[u.WeekNumber] = append(out[u.WeekNumber], u)
	}
	return out
}

// Weeks lists the distinct week numbers in ascending order.
func Weeks(uploads []UploadRecord) []int {
	seen := make(map[int]struct{})
	for _, u := range uploads {
		seen[u.WeekNumber] = struct{}{}
	}
	weeks := make([]int, 0, len(seen))
	for w := range seen {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	return weeks
}

// ComputeTrend compares the weighted averages of latestWeek and
// previousWeek.
func ComputeTrend(uploads []UploadRecord, latestWeek, previousWeek int) Trend {
	byWeek := GroupUploadsByWeek(uploads)
	latest := byWeek[latestWeek]
	previous := byWeek[previousWeek]

	t := Trend{
		LatestWeek:      latestWeek,
		PreviousWeek:    previousWeek,
		LatestAverage:   WeightedAverage(latest),
		PreviousAverage: WeightedAverage(previous),
		LatestUploads:   len(latest),
		PreviousUploads: len(previous),
	}
	t.GrowthRate, t.Growth = growth(t.LatestAverage, t.PreviousAverage, len(previous) > 0)
	return t
}

// LatestTrend compares the two most recent weeks present in uploads. With a
// single week the previous bucket is empty and growth is 0%.
func LatestTrend(uploads []UploadRecord) Trend {
	weeks := Weeks(uploads)
	switch len(weeks) {
	case 0:
		return Trend{Growth: zeroGrowth}
	case 1:
		return ComputeTrend(uploads, weeks[0], weeks[0]-1)
	default:
		return ComputeTrend(uploads, weeks[len(weeks)-1], weeks[len(weeks)-2])
	}
}

const zeroGrowth = "0%"

// growth returns (latest-previous)/previous*100 and its display form. A
// missing or zero previous value reports 0%.
func growth(latest, previous float64, hasPrevious bool) (float64, string) {
	if !hasPrevious || previous == 0 {
		return 0, zeroGrowth
	}
	rate := (latest - previous) / previous * 100
	return rate, strconv.FormatFloat(rate, 'f', 1, 64) + "%"
}

// TeacherTrend is a Trend restricted to one teacher's uploads.
type TeacherTrend struct {
	TeacherName string `json:"teacherName"`
	Trend
}

// TeacherTrends compares each teacher's two most recent weeks, ordered by
// teacher name. Uploads without a teacher are skipped.
func TeacherTrends(uploads []UploadRecord) []TeacherTrend {
	byTeacher := make(map[string][]UploadRecord)
	for _, u := range uploads {
		if !u.HasTeacher() {
			continue
		}
		name := strings.TrimSpace(u.TeacherName)
		byTeacher[name] = append(byTeacher[name], u)
	}

	names := make([]string, 0, len(byTeacher))
	for name := range byTeacher {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]TeacherTrend, 0, len(names))
	for _, name := range names {
		out = append(out, TeacherTrend{TeacherName: name, Trend: LatestTrend(byTeacher[name])})
	}
	return out
}
