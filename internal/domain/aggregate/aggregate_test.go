package aggregate_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/gradepulse/internal/domain/aggregate"
	"github.com/okian/gradepulse/internal/domain/model"
	"github.com/okian/gradepulse/internal/domain/tier"
	. "github.com/smartystreets/goconvey/convey"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 8, 0, 0, 0, time.UTC)
}

func math(id string, score float64) model.StudentScore {
	return model.StudentScore{StudentID: id, Subject: model.SubjectMath, Score: score}
}

func reading(id string, score float64) model.StudentScore {
	return model.StudentScore{StudentID: id, Subject: model.SubjectReading, Score: score}
}

func TestComputeSummary_EndToEnd(t *testing.T) {
	Convey("Given one Grade 3 math upload with two students", t, func() {
		uploads := []model.UploadRecord{{
			ID: "u1", TeacherName: "A", Grade: "Grade 3", Subject: model.SubjectMath,
			TotalStudents: 2, AverageScore: 80, UploadTime: day(1),
			Students: []model.StudentScore{math("1", 70), math("2", 90)},
		}}

		Convey("When computing the current-state summary", func() {
			s := aggregate.CurrentSummary(uploads)

			Convey("Then each student score is classified individually", func() {
				So(s.Distribution, ShouldResemble, tier.Distribution{Green: 1, Red: 1})
				So(s.TotalStudents, ShouldEqual, 2)
				So(s.SchoolAverage, ShouldEqual, 80)
				So(s.UploadCount, ShouldEqual, 1)
				So(s.TeacherCount, ShouldEqual, 1)
			})
		})
	})
}

func TestWeightedAverage(t *testing.T) {
	Convey("Given two summary-only uploads of different class sizes", t, func() {
		uploads := []model.UploadRecord{
			{TeacherName: "A", Subject: model.SubjectMath, AverageScore: 80, TotalStudents: 10},
			{TeacherName: "B", Subject: model.SubjectMath, AverageScore: 90, TotalStudents: 30},
		}

		Convey("Then the school average is weighted by class size", func() {
			So(aggregate.WeightedAverage(uploads), ShouldEqual, 87.5)
			So(aggregate.ComputeSummary(uploads).SchoolAverage, ShouldEqual, 87.5)
		})

		Convey("And the student total falls back to the reported counts", func() {
			So(aggregate.ComputeSummary(uploads).TotalStudents, ShouldEqual, 40)
		})
	})

	Convey("Given no students at all", t, func() {
		uploads := []model.UploadRecord{{TeacherName: "A", AverageScore: 95, TotalStudents: 0}}

		Convey("Then the average is zero instead of a division error", func() {
			So(aggregate.WeightedAverage(uploads), ShouldEqual, 0)
			So(aggregate.WeightedAverage(nil), ShouldEqual, 0)
		})
	})

	Convey("Given an upload whose summary fields disagree with its students", t, func() {
		u := model.UploadRecord{
			Subject: model.SubjectMath, AverageScore: 50, TotalStudents: 9,
			Students: []model.StudentScore{math("1", 60), math("2", 80)},
		}

		Convey("Then the figures are recomputed from the students", func() {
			avg, n := aggregate.UploadFigures(u)
			So(avg, ShouldEqual, 70)
			So(n, ShouldEqual, 2)
		})
	})
}

func TestCurrentSummary_LatestPerTeacher(t *testing.T) {
	Convey("Given a teacher who re-uploaded corrected scores", t, func() {
		uploads := []model.UploadRecord{
			{ID: "old", TeacherName: "Ms. Lee", Subject: model.SubjectMath, UploadTime: day(1), TotalStudents: 10, AverageScore: 60},
			{ID: "new", TeacherName: "Ms. Lee", Subject: model.SubjectMath, UploadTime: day(2), TotalStudents: 10, AverageScore: 90},
		}

		Convey("When summarizing the current state", func() {
			s := aggregate.CurrentSummary(uploads)

			Convey("Then only the newest upload counts", func() {
				So(s.SchoolAverage, ShouldEqual, 90)
				So(s.UploadCount, ShouldEqual, 1)
				So(s.Distribution.Green, ShouldEqual, 10)
				So(s.Distribution.Gray, ShouldEqual, 0)
			})
		})

		Convey("When summarizing without deduplication", func() {
			s := aggregate.ComputeSummary(uploads)

			Convey("Then both uploads contribute", func() {
				So(s.SchoolAverage, ShouldEqual, 75)
				So(s.UploadCount, ShouldEqual, 2)
				So(s.Distribution.Total(), ShouldEqual, 20)
			})
		})
	})
}

func TestDistribution_CombinedAndSynthetic(t *testing.T) {
	Convey("Given a combined Math & Reading upload", t, func() {
		u := model.UploadRecord{
			TeacherName: "A", Subject: model.SubjectBoth, UploadTime: day(1),
			Students: []model.StudentScore{math("1", 80), reading("1", 90)},
		}

		Convey("Then each subject score is classified separately", func() {
			s := aggregate.ComputeSummary([]model.UploadRecord{u})
			So(s.Distribution, ShouldResemble, tier.Distribution{Green: 1, Orange: 1})
			So(s.TotalStudents, ShouldEqual, 1)
			So(s.SchoolAverage, ShouldEqual, 85)
		})
	})

	Convey("Given uploads without per-student detail", t, func() {
		uploads := []model.UploadRecord{
			{TeacherName: "A", Subject: model.SubjectMath, TotalStudents: 3, AverageScore: 70},
			{TeacherName: "B", Subject: model.SubjectBoth, TotalStudents: 2, AverageScore: 90},
		}

		Convey("Then the average is replicated once per reported student and subject", func() {
			s := aggregate.ComputeSummary(uploads)
			So(s.Distribution, ShouldResemble, tier.Distribution{Green: 4, Red: 3})
			So(s.TotalStudents, ShouldEqual, 5)
		})
	})

	Convey("Given a summary-only upload reporting a huge class", t, func() {
		huge := model.UploadRecord{TeacherName: "A", Subject: model.SubjectBoth, TotalStudents: 1 << 40, AverageScore: 80}

		Convey("Then the distribution is weighted without expanding students", func() {
			s := aggregate.ComputeSummary([]model.UploadRecord{huge})
			So(s.Distribution, ShouldResemble, tier.Distribution{Orange: 2 << 40})
			So(s.TotalStudents, ShouldEqual, 1<<40)
			So(s.SchoolAverage, ShouldEqual, 80)
		})

		Convey("Then the cost does not depend on the reported count", func() {
			small := huge
			small.TotalStudents = 10
			allocs := func(u model.UploadRecord) float64 {
				uploads := []model.UploadRecord{u}
				return testing.AllocsPerRun(20, func() {
					aggregate.ComputeSummary(uploads)
					aggregate.RollupByGrade(uploads)
				})
			}
			So(allocs(huge), ShouldEqual, allocs(small))
		})
	})
}

func TestResolveStudents(t *testing.T) {
	uploads := []model.UploadRecord{
		{
			TeacherName: "A", Subject: model.SubjectBoth,
			Students: []model.StudentScore{
				{StudentID: "s2", StudentName: "Bo", Subject: model.SubjectMath, Score: 80},
				{StudentID: "s2", Subject: model.SubjectReading, Score: 90},
				{StudentID: "s1", StudentName: "Al", Subject: model.SubjectMath, Score: 80},
				{StudentID: "", StudentName: "Nobody", Subject: model.SubjectMath, Score: 10},
			},
		},
	}

	Convey("Given students with one or two subjects", t, func() {
		students := aggregate.ResolveStudents(uploads)

		Convey("Then one entry per student id is produced in id order", func() {
			So(students, ShouldHaveLength, 2)
			So(students[0].StudentID, ShouldEqual, "s1")
			So(students[1].StudentID, ShouldEqual, "s2")
		})

		Convey("And math plus reading is averaged while a single subject stands alone", func() {
			So(students[0].OverallScore, ShouldEqual, 80)
			So(students[1].OverallScore, ShouldEqual, 85)
			So(students[1].StudentName, ShouldEqual, "Bo")
			So(students[1].Scores, ShouldHaveLength, 2)
		})

		Convey("And repeated resolution is identical", func() {
			So(aggregate.ResolveStudents(uploads), ShouldResemble, students)
		})
	})

	Convey("Given a score with no student id", t, func() {
		u := model.UploadRecord{
			Subject:  model.SubjectMath,
			Students: []model.StudentScore{{Subject: model.SubjectMath, Score: 20}},
		}

		Convey("Then it contributes to no aggregate", func() {
			So(aggregate.ResolveStudents([]model.UploadRecord{u}), ShouldBeEmpty)
			s := aggregate.ComputeSummary([]model.UploadRecord{u})
			So(s.TotalStudents, ShouldEqual, 0)
			So(s.Distribution.Total(), ShouldEqual, 0)
			So(s.SchoolAverage, ShouldEqual, 0)
		})
	})

	Convey("Given a score without a subject in a single-subject upload", t, func() {
		u := model.UploadRecord{
			Subject:  model.SubjectReading,
			Students: []model.StudentScore{{StudentID: "x", Score: 66}},
		}

		Convey("Then it inherits the upload subject", func() {
			students := aggregate.ResolveStudents([]model.UploadRecord{u})
			So(students[0].Scores[0].Subject, ShouldEqual, model.SubjectReading)
		})
	})

	Convey("Given a student with only non-core subjects", t, func() {
		u := model.UploadRecord{
			Subject: "Science",
			Students: []model.StudentScore{
				{StudentID: "x", Subject: "Science", Score: 70},
				{StudentID: "x", Subject: "Art", Score: 90},
			},
		}

		Convey("Then the overall score is the mean of those subjects", func() {
			So(aggregate.ResolveStudents([]model.UploadRecord{u})[0].OverallScore, ShouldEqual, 80)
		})
	})
}

func TestRankStudents(t *testing.T) {
	Convey("Given resolved students with a tie", t, func() {
		students := []model.AggregatedStudent{
			{StudentID: "c", OverallScore: 70},
			{StudentID: "b", OverallScore: 90},
			{StudentID: "a", OverallScore: 70},
		}

		Convey("When ranking", func() {
			ranked := aggregate.RankStudents(students)

			Convey("Then scores descend and ties break by id", func() {
				So(ranked[0].StudentID, ShouldEqual, "b")
				So(ranked[1].StudentID, ShouldEqual, "a")
				So(ranked[2].StudentID, ShouldEqual, "c")
				So(ranked[2].Rank, ShouldEqual, 3)
				So(ranked[0].Tier, ShouldEqual, "green")
				So(ranked[1].Color, ShouldEqual, "red")
			})

			Convey("And the input is left untouched", func() {
				So(students[0].StudentID, ShouldEqual, "c")
			})
		})
	})
}

func TestTrend(t *testing.T) {
	Convey("Given uploads across weeks", t, func() {
		uploads := []model.UploadRecord{
			{TeacherName: "A", WeekNumber: 1, TotalStudents: 10, AverageScore: 80, UploadTime: day(1)},
			{TeacherName: "A", WeekNumber: 2, TotalStudents: 10, AverageScore: 88, UploadTime: day(8)},
			{TeacherName: "B", WeekNumber: 2, TotalStudents: 10, AverageScore: 88, UploadTime: day(9)},
			{TeacherName: "B", WeekNumber: 1, TotalStudents: 30, AverageScore: 80, UploadTime: day(2)},
		}

		Convey("When grouping by week", func() {
			byWeek := aggregate.GroupUploadsByWeek(uploads)

			Convey("Then every upload lands in its week", func() {
				So(byWeek[1], ShouldHaveLength, 2)
				So(byWeek[2], ShouldHaveLength, 2)
				So(aggregate.Weeks(uploads), ShouldResemble, []int{1, 2})
			})
		})

		Convey("When comparing the latest two weeks", func() {
			trend := aggregate.LatestTrend(uploads)

			Convey("Then growth is relative to the previous week", func() {
				So(trend.LatestWeek, ShouldEqual, 2)
				So(trend.PreviousWeek, ShouldEqual, 1)
				So(trend.LatestAverage, ShouldEqual, 88)
				So(trend.PreviousAverage, ShouldEqual, 80)
				So(trend.GrowthRate, ShouldAlmostEqual, 10, 1e-9)
				So(trend.Growth, ShouldEqual, "10.0%")
				So(trend.LatestUploads, ShouldEqual, 2)
			})
		})

		Convey("When the previous week has no data", func() {
			trend := aggregate.ComputeTrend(uploads, 2, 7)

			Convey("Then growth falls back to 0%", func() {
				So(trend.GrowthRate, ShouldEqual, 0)
				So(trend.Growth, ShouldEqual, "0%")
			})
		})

		Convey("When the previous average is zero", func() {
			zero := append(uploads, model.UploadRecord{TeacherName: "C", WeekNumber: 0, TotalStudents: 5, AverageScore: 0})
			trend := aggregate.ComputeTrend(zero, 1, 0)

			Convey("Then growth falls back to 0%", func() {
				So(trend.Growth, ShouldEqual, "0%")
			})
		})

		Convey("When the scores fall", func() {
			trend := aggregate.ComputeTrend(uploads, 1, 2)

			Convey("Then growth is negative", func() {
				So(trend.Growth, ShouldEqual, "-9.1%")
			})
		})

		Convey("When computing per-teacher trends", func() {
			trends := aggregate.TeacherTrends(uploads)

			Convey("Then each teacher is compared with their own history", func() {
				So(trends, ShouldHaveLength, 2)
				So(trends[0].TeacherName, ShouldEqual, "A")
				So(trends[0].Growth, ShouldEqual, "10.0%")
			})
		})
	})

	Convey("Given a single week or nothing", t, func() {
		single := []model.UploadRecord{{TeacherName: "A", WeekNumber: 3, TotalStudents: 1, AverageScore: 70}}

		So(aggregate.LatestTrend(single).Growth, ShouldEqual, "0%")
		So(aggregate.LatestTrend(single).LatestAverage, ShouldEqual, 70)
		So(aggregate.LatestTrend(nil).Growth, ShouldEqual, "0%")
	})
}

func TestRollupByGrade(t *testing.T) {
	Convey("Given uploads in two grades", t, func() {
		uploads := []model.UploadRecord{
			{
				TeacherName: "A", Grade: "Grade 3", Subject: model.SubjectMath, TotalStudents: 2,
				Students: []model.StudentScore{math("1", 70), math("2", 90)},
			},
			{TeacherName: "B", Grade: "Grade 3", Subject: model.SubjectReading, TotalStudents: 2, AverageScore: 80},
			{
				TeacherName: "C", Grade: "Grade 4", Subject: model.SubjectBoth, TotalStudents: 1,
				Students: []model.StudentScore{math("9", 60), reading("9", 100)},
			},
		}

		Convey("When rolling up", func() {
			grades := aggregate.RollupByGrade(uploads)

			Convey("Then grades are sorted and averaged per subject", func() {
				So(grades, ShouldHaveLength, 2)
				g3 := grades[0]
				So(g3.Grade, ShouldEqual, "Grade 3")
				So(g3.MathAverage, ShouldEqual, 80)
				So(g3.ReadingAverage, ShouldEqual, 80)
				So(g3.MathScores, ShouldEqual, 2)
				So(g3.ReadingScores, ShouldEqual, 2)
				So(g3.StudentCount, ShouldEqual, 4)
				So(g3.UploadCount, ShouldEqual, 2)

				g4 := grades[1]
				So(g4.MathAverage, ShouldEqual, 60)
				So(g4.ReadingAverage, ShouldEqual, 100)
				So(g4.Distribution, ShouldResemble, tier.Distribution{Green: 1, Gray: 1})
			})
		})
	})

	Convey("Given detailed and huge summary-only uploads in one grade", t, func() {
		uploads := []model.UploadRecord{
			{
				TeacherName: "A", Grade: "Grade 6", Subject: model.SubjectMath,
				Students: []model.StudentScore{math("1", 70), math("2", 90)},
			},
			{TeacherName: "B", Grade: "Grade 6", Subject: model.SubjectBoth, TotalStudents: 1 << 40, AverageScore: 80},
		}

		Convey("Then subject means weight each reported student", func() {
			grades := aggregate.RollupByGrade(uploads)
			So(grades, ShouldHaveLength, 1)
			g := grades[0]
			So(g.MathScores, ShouldEqual, 1<<40+2)
			So(g.MathAverage, ShouldEqual, 80)
			So(g.ReadingScores, ShouldEqual, 1<<40)
			So(g.ReadingAverage, ShouldEqual, 80)
			So(g.Distribution.Total(), ShouldEqual, 2<<40+2)
		})
	})

	Convey("Given the same student in two uploads of one grade", t, func() {
		uploads := []model.UploadRecord{
			{Grade: "Grade 5", Subject: model.SubjectMath, TotalStudents: 1, Students: []model.StudentScore{math("7", 80)}},
			{Grade: "Grade 5", Subject: model.SubjectReading, TotalStudents: 1, Students: []model.StudentScore{reading("7", 80)}},
		}

		Convey("Then the reported counts are summed, not deduplicated", func() {
			grades := aggregate.RollupByGrade(uploads)
			So(grades[0].StudentCount, ShouldEqual, 2)
			So(aggregate.SumReportedStudentCounts(uploads), ShouldEqual, 2)
			So(aggregate.ComputeSummary(uploads).TotalStudents, ShouldEqual, 1)
		})
	})

	Convey("Given a grade with no reading scores", t, func() {
		uploads := []model.UploadRecord{{Grade: "K", Subject: model.SubjectMath, TotalStudents: 1, AverageScore: 50}}

		So(aggregate.RollupByGrade(uploads)[0].ReadingAverage, ShouldEqual, 0)
		So(aggregate.RollupByGrade(nil), ShouldBeEmpty)
	})
}

func TestTeacherSummaries(t *testing.T) {
	Convey("Given two teachers with several uploads", t, func() {
		uploads := []model.UploadRecord{
			{ID: "z1", TeacherName: "Zed", Subject: model.SubjectMath, UploadTime: day(1), TotalStudents: 4, AverageScore: 66},
			{ID: "a1", TeacherName: "Amy", Subject: model.SubjectReading, UploadTime: day(1), TotalStudents: 2, AverageScore: 50},
			{ID: "a2", TeacherName: "Amy", Subject: model.SubjectMath, UploadTime: day(5), Students: []model.StudentScore{math("1", 86)}},
		}

		summaries := aggregate.TeacherSummaries(uploads)

		So(summaries, ShouldHaveLength, 2)
		So(summaries[0].TeacherName, ShouldEqual, "Amy")
		So(summaries[0].UploadID, ShouldEqual, "a2")
		So(summaries[0].Average, ShouldEqual, 86)
		So(summaries[0].Students, ShouldEqual, 1)
		So(summaries[0].Tier, ShouldEqual, "green")
		So(summaries[1].Tier, ShouldEqual, "red")
	})
}

func TestAggregateModes(t *testing.T) {
	uploads := []model.UploadRecord{
		{TeacherName: "A", WeekNumber: 1, UploadTime: day(1), TotalStudents: 10, AverageScore: 70},
		{TeacherName: "A", WeekNumber: 2, UploadTime: day(8), TotalStudents: 10, AverageScore: 77},
	}

	Convey("Given an explicit mode", t, func() {
		Convey("When asking for the latest-per-teacher view", func() {
			r, err := aggregate.Aggregate(aggregate.LatestPerTeacher, uploads)

			So(err, ShouldBeNil)
			So(r.Trend, ShouldBeNil)
			So(r.Summary.SchoolAverage, ShouldEqual, 77)
			So(r.Mode, ShouldEqual, "latest_per_teacher")
		})

		Convey("When asking for the weekly view", func() {
			r, err := aggregate.Aggregate(aggregate.GroupByWeek, uploads)

			So(err, ShouldBeNil)
			So(r.Summary, ShouldBeNil)
			So(r.Trend.Growth, ShouldEqual, "10.0%")
		})

		Convey("When the mode is unknown", func() {
			_, err := aggregate.Aggregate(aggregate.Mode(42), uploads)

			So(errors.Is(err, aggregate.ErrUnknownMode), ShouldBeTrue)
		})
	})

	Convey("Given mode strings", t, func() {
		m, err := aggregate.ParseMode("latest")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, aggregate.LatestPerTeacher)

		m, err = aggregate.ParseMode("GROUP_BY_WEEK")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, aggregate.GroupByWeek)

		_, err = aggregate.ParseMode("monthly")
		So(errors.Is(err, aggregate.ErrUnknownMode), ShouldBeTrue)
	})
}
