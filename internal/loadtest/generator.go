package loadtest

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gradepulse/internal/domain/aggregate"
	"github.com/okian/gradepulse/internal/domain/model"
)

var (
	grades   = []string{"Kindergarten", "Grade 1", "Grade 2", "Grade 3", "Grade 4", "Grade 5"}
	subjects = []model.Subject{model.SubjectMath, model.SubjectReading, model.SubjectBoth}
	baseTime = time.Date(2024, time.September, 2, 8, 0, 0, 0, time.UTC)
)

// Generate builds cfg.Uploads distinct uploads. Output is deterministic for
// a given seed apart from the upload IDs. Every third upload carries only
// summary figures; the rest carry per-student detail. Upload times strictly
// increase so the latest upload per teacher is never a tie.
func Generate(cfg *Config) []model.UploadRecord {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)) //nolint:gosec // synthetic data

	uploads := make([]model.UploadRecord, cfg.Uploads)
	for i := range uploads {
		teacher := i % cfg.Teachers
		u := model.UploadRecord{
			ID:          uuid.NewString(),
			TeacherName: fmt.Sprintf("Teacher %03d", teacher+1),
			Grade:       grades[teacher%len(grades)],
			ClassName:   fmt.Sprintf("%d%c", teacher%len(grades), 'A'+rune(teacher/len(grades)%26)),
			Subject:     subjects[rng.IntN(len(subjects))],
			UploadTime:  baseTime.Add(time.Duration(i) * time.Minute),
			WeekNumber:  i*cfg.Weeks/cfg.Uploads + 1,
		}
		if i%3 == 2 || cfg.StudentsPerUpload == 0 {
			u.TotalStudents = 10 + rng.IntN(20)
			u.AverageScore = round1(score(rng))
		} else {
			u.Students = students(rng, teacher, u.Subject, cfg.StudentsPerUpload)
			u.AverageScore, u.TotalStudents = aggregate.UploadFigures(u)
		}
		uploads[i] = u
	}
	return uploads
}

// students draws scores for a class. Student IDs are stable per teacher so
// later weeks re-score the same children.
func students(rng *rand.Rand, teacher int, subject model.Subject, n int) []model.StudentScore {
	var covered []model.Subject
	if subject == model.SubjectBoth {
		covered = []model.Subject{model.SubjectMath, model.SubjectReading}
	} else {
		covered = []model.Subject{subject}
	}
	out := make([]model.StudentScore, 0, n*len(covered))
	for s := 0; s < n; s++ {
		id := fmt.Sprintf("t%03d-s%02d", teacher+1, s+1)
		for _, sub := range covered {
			out = append(out, model.StudentScore{
				StudentID:   id,
				StudentName: fmt.Sprintf("Student %s", id),
				Subject:     sub,
				Score:       round1(score(rng)),
			})
		}
	}
	return out
}

// score draws from a spread that lands in every tier.
func score(rng *rand.Rand) float64 {
	s := 75 + rng.NormFloat64()*12
	return math.Max(0, math.Min(100, s))
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
