package aggregate

import (
	"strings"

	"github.com/okian/gradepulse/internal/domain/dedupe"
	"github.com/okian/gradepulse/internal/domain/model"
	"github.com/okian/gradepulse/internal/domain/tier"
)

// Summary holds school-wide figures for one upload set.
type Summary struct {
	TotalStudents int               `json:"totalStudents"`
	SchoolAverage float64           `json:"schoolAverage"`
	Distribution  tier.Distribution `json:"performanceDistribution"`
	UploadCount   int               `json:"uploadCount"`
	TeacherCount  int               `json:"teacherCount"`
}

// CurrentSummary summarizes the most recent upload of every teacher.
func CurrentSummary(uploads []UploadRecord) Summary {
	return ComputeSummary(dedupe.Latest(uploads))
}

// ComputeSummary summarizes exactly the uploads given; it does not
// deduplicate.
//
// TotalStudents counts distinct student IDs across uploads with per-student
// detail, plus the reported TotalStudents of uploads without detail.
// SchoolAverage is weighted by student count (see WeightedAverage).
// Distribution classifies every individual subject score, so a student in a
// combined Math & Reading upload is counted once per subject.
func ComputeSummary(uploads []UploadRecord) Summary {
	s := Summary{UploadCount: len(uploads)}

	teachers := make(map[string]struct{})
	reportedOnly := 0
	for i := range uploads {
		u := &uploads[i]
		if u.HasTeacher() {
			teachers[strings.TrimSpace(u.TeacherName)] = struct{}{}
		}
		if !u.HasStudentDetail() && u.TotalStudents > 0 {
			reportedOnly += u.TotalStudents
		}
		eachScore(u, func(_ model.Subject, score float64, n int) {
			s.Distribution.AddN(score, n)
		})
	}

	s.TotalStudents = len(ResolveStudents(uploads)) + reportedOnly
	s.SchoolAverage = WeightedAverage(uploads)
	s.TeacherCount = len(teachers)
	return s
}

// WeightedAverage is sum(average*count)/sum(count) over the uploads'
// UploadFigures. A plain mean of upload averages would overweight small
// classes. Returns 0 when no students are counted.
func WeightedAverage(uploads []UploadRecord) float64 {
	var weighted float64
	var total int
	for _, u := range uploads {
		avg, n := UploadFigures(u)
		weighted += avg * float64(n)
		total += n
	}
	if total <= 0 {
		return 0
	}
	return weighted / float64(total)
}

// SumReportedStudentCounts adds up TotalStudents as reported by each upload.
// A student present in several uploads is counted once per upload; this is
// not a unique-student count.
func SumReportedStudentCounts(uploads []UploadRecord) int {
	total := 0
	for _, u := range uploads {
		if u.TotalStudents > 0 {
			total += u.TotalStudents
		}
	}
	return total
}
