package aggregate

import (
	"strings"
	"time"

	"github.com/okian/gradepulse/internal/domain/dedupe"
	"github.com/okian/gradepulse/internal/domain/model"
	"github.com/okian/gradepulse/internal/domain/tier"
)

// TeacherSummary describes a teacher's most recent upload.
type TeacherSummary struct {
	TeacherName string        `json:"teacherName"`
	Grade       string        `json:"grade"`
	ClassName   string        `json:"className"`
	Subject     model.Subject `json:"subject"`
	UploadID    string        `json:"uploadId"`
	UploadTime  time.Time     `json:"uploadTime"`
	WeekNumber  int           `json:"weekNumber"`
	Average     float64       `json:"average"`
	Students    int           `json:"students"`
	Tier        string        `json:"tier"`
	Color       string        `json:"color"`
}

// TeacherSummaries returns one row per teacher built from their latest
// upload, ordered by teacher name.
func TeacherSummaries(uploads []UploadRecord) []TeacherSummary {
	latest := dedupe.Latest(uploads)
	out := make([]TeacherSummary, 0, len(latest))
	for _, u := range latest {
		avg, n := UploadFigures(u)
		t := tier.Classify(avg)
		out = append(out, TeacherSummary{
			TeacherName: strings.TrimSpace(u.TeacherName),
			Grade:       u.Grade,
			ClassName:   u.ClassName,
			Subject:     u.Subject,
			UploadID:    u.ID,
			UploadTime:  u.UploadTime,
			WeekNumber:  u.WeekNumber,
			Average:     avg,
			Students:    n,
			Tier:        t.String(),
			Color:       t.Color(),
		})
	}
	return out
}
