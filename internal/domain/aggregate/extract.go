package aggregate

import (
	"github.com/okian/gradepulse/internal/domain/model"
)

// Aliases keep signatures in this package short.
type (
	UploadRecord = model.UploadRecord
	StudentScore = model.StudentScore
)

// studentScores returns the identified per-student scores of u. A score
// without a subject inherits the upload's subject when the upload covers a
// single subject.
func studentScores(u *UploadRecord) []StudentScore {
	if !u.HasStudentDetail() {
		return nil
	}
	out := make([]StudentScore, 0, len(u.Students))
	for _, s := range u.Students {
		if !s.HasIdentity() {
			continue
		}
		if s.Subject == "" && u.Subject != model.SubjectBoth {
			s.Subject = u.Subject
		}
		out = append(out, s)
	}
	return out
}

// syntheticScores reports the upload average once per covered subject,
// weighted by the reported student count. It stands in for per-student
// detail when an upload only carries its summary fields.
func syntheticScores(u *UploadRecord, fn func(sub model.Subject, score float64, n int)) {
	if u.TotalStudents <= 0 {
		return
	}
	if u.Subject == model.SubjectBoth {
		fn(model.SubjectMath, u.AverageScore, u.TotalStudents)
		fn(model.SubjectReading, u.AverageScore, u.TotalStudents)
		return
	}
	fn(u.Subject, u.AverageScore, u.TotalStudents)
}

// eachScore is the single extraction rule shared by the summary
// distribution and the grade rollup: per-student detail when the upload has
// it, the weighted synthetic average when it has none. fn receives n, the
// number of students the score stands for. An upload whose students all
// lack identity yields nothing.
func eachScore(u *UploadRecord, fn func(sub model.Subject, score float64, n int)) {
	if !u.HasStudentDetail() {
		syntheticScores(u, fn)
		return
	}
	for _, sc := range studentScores(u) {
		fn(sc.Subject, sc.Score, 1)
	}
}

// UploadFigures returns the average and student count an upload
// contributes to weighted averages. With identified per-student detail the
// figures are recomputed from it: count is the number of distinct students
// and average is the mean of their overall scores. Without detail the
// summary fields are used as reported. Detail in which no student has an ID
// contributes nothing.
func UploadFigures(u UploadRecord) (average float64, count int) {
	if !u.HasStudentDetail() {
		if u.TotalStudents < 0 {
			return u.AverageScore, 0
		}
		return u.AverageScore, u.TotalStudents
	}
	scores := studentScores(&u)
	if len(scores) == 0 {
		return 0, 0
	}
	students := resolve(scores)
	sum := 0.0
	for i := range students {
		sum += students[i].OverallScore
	}
	return sum / float64(len(students)), len(students)
}
