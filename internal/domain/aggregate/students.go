package aggregate

import (
	"sort"

	"github.com/okian/gradepulse/internal/domain/model"
	"github.com/okian/gradepulse/internal/domain/tier"
	"github.com/okian/gradepulse/internal/domain/types"
)

// ResolveStudents folds the per-student scores of uploads into one entry
// per student ID, sorted by ID. Callers choose the upload set: pass
// dedupe.Latest(uploads) for the current state or the full list for a
// history view. Scores without a student ID are ignored.
//
// The resolver combines subjects, not weeks: when a subject appears more
// than once for a student, the last score seen for it is used.
func ResolveStudents(uploads []UploadRecord) []model.AggregatedStudent {
	var scores []StudentScore
	for i := range uploads {
		scores = append(scores, studentScores(&uploads[i])...)
	}
	return resolve(scores)
}

func resolve(scores []StudentScore) []model.AggregatedStudent {
	byID := make(map[string]*model.AggregatedStudent)
	for _, s := range scores {
		st, ok := byID[s.StudentID]
		if !ok {
			st = &model.AggregatedStudent{StudentID: s.StudentID}
			byID[s.StudentID] = st
		}
		if st.StudentName == "" {
			st.StudentName = s.StudentName
		}
		st.Scores = append(st.Scores, s)
	}

	out := make([]model.AggregatedStudent, 0, len(byID))
	for _, st := range byID {
		st.OverallScore = overallScore(st.Scores)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out
}

// overallScore averages Math and Reading when both are present. Otherwise
// it is the mean over the distinct subjects present, which for a single
// subject is just that score.
func overallScore(scores []StudentScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	bySubject := make(map[model.Subject]float64, len(scores))
	order := make([]model.Subject, 0, len(scores))
	for _, s := range scores {
		if _, seen := bySubject[s.Subject]; !seen {
			order = append(order, s.Subject)
		}
		bySubject[s.Subject] = s.Score
	}

	math, hasMath := bySubject[model.SubjectMath]
	reading, hasReading := bySubject[model.SubjectReading]
	if hasMath && hasReading {
		return (math + reading) / 2
	}

	sum := 0.0
	for _, sub := range order {
		sum += bySubject[sub]
	}
	return sum / float64(len(order))
}

// RankStudents orders students by overall score, best first, breaking ties
// by student ID.
func RankStudents(students []model.AggregatedStudent) []types.RankedStudent {
	sorted := make([]model.AggregatedStudent, len(students))
	copy(sorted, students)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].OverallScore != sorted[j].OverallScore {
			return sorted[i].OverallScore > sorted[j].OverallScore
		}
		return sorted[i].StudentID < sorted[j].StudentID
	})

	out := make([]types.RankedStudent, len(sorted))
	for i, st := range sorted {
		t := tier.Classify(st.OverallScore)
		out[i] = types.RankedStudent{
			Rank:         i + 1,
			StudentID:    st.StudentID,
			StudentName:  st.StudentName,
			OverallScore: st.OverallScore,
			Tier:         t.String(),
			Color:        t.Color(),
		}
	}
	return out
}
