package repository

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/okian/gradepulse/internal/domain/model"
	"gopkg.in/yaml.v3"
)

// Fixtures is the seed data format read by LoadFixtures.
//
//	teachers:
//	  - name: Ms. Lee
//	    grade: Grade 3
//	uploads:
//	  - id: lee-w1
//	    teacherName: Ms. Lee
//	    subject: Math
//	    uploadTime: 2024-01-08T09:00:00Z
//	    weekNumber: 1
//	    students:
//	      - {studentId: s1, score: 82}
type Fixtures struct {
	Teachers []model.Teacher      `yaml:"teachers"`
	Uploads  []model.UploadRecord `yaml:"uploads"`
}

// LoadFixtures reads seed data from a YAML file.
func LoadFixtures(path string) (Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("%w: %w", ErrLoadFixtures, err)
	}
	return DecodeFixtures(bytes.NewReader(data))
}

// DecodeFixtures parses seed data. Unknown keys are rejected. Every upload
// must carry an ID, a week of at least 1 and a reported student count within
// model.MaxReportedStudents. Names are trimmed the way ingested uploads are.
func DecodeFixtures(r io.Reader) (Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return Fixtures{}, fmt.Errorf("%w: %w", ErrLoadFixtures, err)
	}
	for i := range fx.Uploads {
		u := fx.Uploads[i].Trimmed()
		switch {
		case u.ID == "":
			return Fixtures{}, fmt.Errorf("%w: upload %d: %w: missing id", ErrLoadFixtures, i, ErrInvalidUpload)
		case u.WeekNumber < 1:
			return Fixtures{}, fmt.Errorf("%w: upload %s: %w: weekNumber %d", ErrLoadFixtures, u.ID, ErrInvalidUpload, u.WeekNumber)
		case u.TotalStudents < 0 || u.TotalStudents > model.MaxReportedStudents:
			return Fixtures{}, fmt.Errorf("%w: upload %s: %w: totalStudents %d", ErrLoadFixtures, u.ID, ErrInvalidUpload, u.TotalStudents)
		}
		fx.Uploads[i] = u
	}
	return fx, nil
}

// Options converts the fixtures into store options.
func (fx Fixtures) Options() []Option {
	return []Option{WithRoster(fx.Teachers), WithUploads(fx.Uploads)}
}
