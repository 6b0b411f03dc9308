// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Subject names an assessment subject as reported by the ingestion side.
type Subject string

// Known subjects. Any other value is carried through as an "other" subject.
const (
	SubjectMath    Subject = "Math"
	SubjectReading Subject = "Reading"
	SubjectBoth    Subject = "Both Math & Reading"
)

// Covers reports whether an upload of subject s carries scores for sub.
// A combined upload covers both Math and Reading.
func (s Subject) Covers(sub Subject) bool {
	if s == SubjectBoth {
		return sub == SubjectMath || sub == SubjectReading
	}
	return s == sub
}

// MaxReportedStudents bounds TotalStudents on ingested uploads.
const MaxReportedStudents = 100_000

// UploadRecord is one teacher's submission of assessment scores for a
// class, subject and week.
type UploadRecord struct {
	ID            string         `json:"id" yaml:"id"`
	TeacherName   string         `json:"teacherName" yaml:"teacherName"`
	Grade         string         `json:"grade" yaml:"grade"`
	ClassName     string         `json:"className" yaml:"className"`
	Subject       Subject        `json:"subject" yaml:"subject"`
	UploadTime    time.Time      `json:"uploadTime" yaml:"uploadTime"`
	WeekNumber    int            `json:"weekNumber" yaml:"weekNumber"`
	TotalStudents int            `json:"totalStudents" yaml:"totalStudents"`
	AverageScore  float64        `json:"averageScore" yaml:"averageScore"`
	Students      []StudentScore `json:"students,omitempty" yaml:"students,omitempty"`
}

// HasStudentDetail reports whether per-student scores are present. When
// false, only the TotalStudents/AverageScore summary fields describe the
// upload.
func (u *UploadRecord) HasStudentDetail() bool {
	return len(u.Students) > 0
}

// HasTeacher reports whether the upload names a teacher.
func (u *UploadRecord) HasTeacher() bool {
	return strings.TrimSpace(u.TeacherName) != ""
}

// Trimmed returns a copy of u with surrounding whitespace removed from its
// names, subjects and student identities.
func (u UploadRecord) Trimmed() UploadRecord { //nolint:gocritic // hugeParam: value semantics
	u.ID = strings.TrimSpace(u.ID)
	u.TeacherName = strings.TrimSpace(u.TeacherName)
	u.Grade = strings.TrimSpace(u.Grade)
	u.ClassName = strings.TrimSpace(u.ClassName)
	u.Subject = Subject(strings.TrimSpace(string(u.Subject)))
	if len(u.Students) > 0 {
		students := make([]StudentScore, len(u.Students))
		for i, st := range u.Students {
			st.StudentID = strings.TrimSpace(st.StudentID)
			st.StudentName = strings.TrimSpace(st.StudentName)
			st.Subject = Subject(strings.TrimSpace(string(st.Subject)))
			students[i] = st
		}
		u.Students = students
	}
	return u
}

// StudentScore is one student's result within an upload.
type StudentScore struct {
	StudentID   string  `json:"studentId" yaml:"studentId"`
	StudentName string  `json:"studentName" yaml:"studentName"`
	Subject     Subject `json:"subject" yaml:"subject"`
	Score       float64 `json:"score" yaml:"score"`
}

// HasIdentity reports whether the score can be attributed to a student.
func (s *StudentScore) HasIdentity() bool {
	return strings.TrimSpace(s.StudentID) != ""
}

// AggregatedStudent is the identity-resolved view of one student across
// the subjects present in a given upload set.
type AggregatedStudent struct {
	StudentID    string         `json:"studentId"`
	StudentName  string         `json:"studentName"`
	Scores       []StudentScore `json:"scores"`
	OverallScore float64        `json:"overallScore"`
}

// Teacher is a roster entry.
type Teacher struct {
	Name      string `json:"name" yaml:"name" koanf:"name" validate:"required"`
	Grade     string `json:"grade" yaml:"grade" koanf:"grade"`
	ClassName string `json:"className" yaml:"className" koanf:"class_name"`
}
