package repository

import "github.com/okian/gradepulse/internal/domain/model"

// Option applies a configuration option to the InMemoryStore.
type Option func(*InMemoryStore)

// WithRoster seeds the teacher directory with configured teachers.
func WithRoster(teachers []model.Teacher) Option {
	return func(s *InMemoryStore) {
		for _, t := range teachers {
			s.addTeacher(t)
		}
	}
}

// WithUploads pre-loads uploads, typically from LoadFixtures.
func WithUploads(uploads []model.UploadRecord) Option {
	return func(s *InMemoryStore) {
		for _, u := range uploads {
			s.put(u)
		}
	}
}
