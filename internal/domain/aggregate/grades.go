package aggregate

import (
	"sort"

	"github.com/okian/gradepulse/internal/domain/model"
	"github.com/okian/gradepulse/internal/domain/tier"
)

// GradeSummary rolls up the uploads of one grade.
type GradeSummary struct {
	Grade          string            `json:"grade"`
	MathAverage    float64           `json:"mathAverage"`
	ReadingAverage float64           `json:"readingAverage"`
	MathScores     int               `json:"mathScores"`
	ReadingScores  int               `json:"readingScores"`
	StudentCount   int               `json:"studentCount"`
	UploadCount    int               `json:"uploadCount"`
	Distribution   tier.Distribution `json:"performanceDistribution"`
}

// RollupByGrade groups uploads by grade, sorted by grade name. Math and
// Reading averages are means over students: a detailed score counts once
// and an upload without detail counts its average once per reported
// student.
//
// StudentCount is SumReportedStudentCounts of the grade's uploads and can
// count a student more than once when they appear in several uploads.
func RollupByGrade(uploads []UploadRecord) []GradeSummary {
	groups := make(map[string][]UploadRecord)
	for _, u := range uploads {
		groups[u.Grade] = append(groups[u.Grade], u)
	}

	out := make([]GradeSummary, 0, len(groups))
	for grade, group := range groups {
		g := GradeSummary{
			Grade:        grade,
			UploadCount:  len(group),
			StudentCount: SumReportedStudentCounts(group),
		}
		var mathAcc, readingAcc meanAcc
		for i := range group {
			eachScore(&group[i], func(sub model.Subject, score float64, n int) {
				switch sub {
				case model.SubjectMath:
					mathAcc.add(score, n)
				case model.SubjectReading:
					readingAcc.add(score, n)
				}
				g.Distribution.AddN(score, n)
			})
		}
		g.MathAverage, g.MathScores = mathAcc.mean(), mathAcc.n
		g.ReadingAverage, g.ReadingScores = readingAcc.mean(), readingAcc.n
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Grade < out[j].Grade })
	return out
}

// meanAcc is a running weighted mean.
type meanAcc struct {
	sum float64
	n   int
}

func (a *meanAcc) add(score float64, n int) {
	a.sum += score * float64(n)
	a.n += n
}

func (a *meanAcc) mean() float64 {
	if a.n <= 0 {
		return 0
	}
	return a.sum / float64(a.n)
}
