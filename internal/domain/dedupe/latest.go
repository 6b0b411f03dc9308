package dedupe

import (
	"sort"
	"strings"

	"github.com/okian/gradepulse/internal/domain/model"
)

// LatestPerTeacher keeps, for every teacher, the upload with the greatest
// UploadTime. Equal times resolve last-wins in input order. Uploads without
// a teacher name are left out of the grouping. Names are keyed without
// surrounding whitespace.
func LatestPerTeacher(uploads []model.UploadRecord) map[string]model.UploadRecord {
	latest := make(map[string]model.UploadRecord, len(uploads))
	for _, u := range uploads {
		if !u.HasTeacher() {
			continue
		}
		key := strings.TrimSpace(u.TeacherName)
		cur, ok := latest[key]
		if !ok || !u.UploadTime.Before(cur.UploadTime) {
			latest[key] = u
		}
	}
	return latest
}

// Latest returns the LatestPerTeacher selection ordered by teacher name.
func Latest(uploads []model.UploadRecord) []model.UploadRecord {
	byTeacher := LatestPerTeacher(uploads)
	names := make([]string, 0, len(byTeacher))
	for name := range byTeacher {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]model.UploadRecord, 0, len(names))
	for _, name := range names {
		out = append(out, byTeacher[name])
	}
	return out
}
