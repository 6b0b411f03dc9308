package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/okian/gradepulse/internal/domain/model"
	"github.com/okian/gradepulse/pkg/metrics"
)

// InMemoryStore keeps uploads in insertion order. Re-saving an ID replaces
// the record at its original position, so iteration order stays stable for
// the latest-per-teacher tie rule.
type InMemoryStore struct {
	mu      sync.RWMutex
	uploads []model.UploadRecord
	index   map[string]int

	// roster is keyed by teacher name; configured entries win over
	// discovered ones.
	roster map[string]model.Teacher
}

var (
	_ Store            = (*InMemoryStore)(nil)
	_ TeacherDirectory = (*InMemoryStore)(nil)
)

// NewInMemoryStore creates an empty store.
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{
		index:  make(map[string]int),
		roster: make(map[string]model.Teacher),
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateStoredUploads(len(s.uploads))
	return s
}

// Save implements Store.
func (s *InMemoryStore) Save(ctx context.Context, u model.UploadRecord) (bool, error) {
	if strings.TrimSpace(u.ID) == "" {
		metrics.RecordErrorByComponent("repository", "invalid_upload")
		return false, fmt.Errorf("%w: missing id", ErrInvalidUpload)
	}

	s.mu.Lock()
	created := s.put(u)
	n := len(s.uploads)
	s.mu.Unlock()

	metrics.UpdateStoredUploads(n)
	return created, nil
}

// put inserts or replaces u. Caller holds the write lock.
func (s *InMemoryStore) put(u model.UploadRecord) bool {
	u.Students = append([]model.StudentScore(nil), u.Students...)
	if i, ok := s.index[u.ID]; ok {
		s.uploads[i] = u
		return false
	}
	s.index[u.ID] = len(s.uploads)
	s.uploads = append(s.uploads, u)
	return true
}

// Get implements Store.
func (s *InMemoryStore) Get(ctx context.Context, id string) (model.UploadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.UploadRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.uploads[i], nil
}

// List implements Store.
func (s *InMemoryStore) List(ctx context.Context, f Filter) ([]model.UploadRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.UploadRecord, 0, len(s.uploads))
	for i := range s.uploads {
		if f.Match(&s.uploads[i]) {
			out = append(out, s.uploads[i])
		}
	}
	return out, nil
}

// Count implements Store.
func (s *InMemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.uploads)
}

// AddTeacher registers a roster entry, replacing any entry with the same name.
func (s *InMemoryStore) AddTeacher(t model.Teacher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addTeacher(t)
}

func (s *InMemoryStore) addTeacher(t model.Teacher) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return
	}
	s.roster[t.Name] = t
}

// ListTeachers implements TeacherDirectory. It returns the configured roster
// plus every teacher seen in an upload, sorted by name. Discovered teachers
// take grade and class from their most recently stored upload.
func (s *InMemoryStore) ListTeachers(ctx context.Context) []model.Teacher {
	s.mu.RLock()
	defer s.mu.RUnlock()

	merged := make(map[string]model.Teacher, len(s.roster))
	for i := range s.uploads {
		u := &s.uploads[i]
		if !u.HasTeacher() {
			continue
		}
		merged[u.TeacherName] = model.Teacher{Name: u.TeacherName, Grade: u.Grade, ClassName: u.ClassName}
	}
	for name, t := range s.roster {
		merged[name] = t
	}

	out := make([]model.Teacher, 0, len(merged))
	for _, t := range merged {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
