package worker

import (
	"time"

	"github.com/okian/gradepulse/internal/adapters/mq/queue"
	"github.com/okian/gradepulse/internal/domain/aggregate"
	"github.com/okian/gradepulse/internal/domain/model"
)

// Normalize prepares a submission for storage. Names are trimmed, missing
// summary fields are derived from the student detail and a zero upload
// time becomes the receipt time.
func Normalize(s queue.Submission) model.UploadRecord { //nolint:gocritic // hugeParam: value semantics
	u := s.Upload.Trimmed()

	if len(u.Students) > 0 {
		avg, n := aggregate.UploadFigures(u)
		if u.TotalStudents <= 0 {
			u.TotalStudents = n
		}
		if u.AverageScore == 0 {
			u.AverageScore = avg
		}
	}

	if u.UploadTime.IsZero() {
		u.UploadTime = s.ReceivedAt
		if u.UploadTime.IsZero() {
			u.UploadTime = time.Now().UTC()
		}
	}
	return u
}
