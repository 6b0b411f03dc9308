// Package repository stores upload records and the teacher roster.
package repository

import (
	"context"

	"github.com/okian/gradepulse/internal/domain/model"
)

// Filter narrows List results. Zero fields match everything; stored weeks
// start at 1, so a zero Week never hides an upload.
type Filter struct {
	TeacherName string
	Grade       string
	Week        int
}

// Match reports whether u passes every set field of f.
func (f Filter) Match(u *model.UploadRecord) bool {
	if f.TeacherName != "" && u.TeacherName != f.TeacherName {
		return false
	}
	if f.Grade != "" && u.Grade != f.Grade {
		return false
	}
	if f.Week != 0 && u.WeekNumber != f.Week {
		return false
	}
	return true
}

// Store provides read/write access to uploads.
type Store interface {
	// Save inserts u, or replaces the stored record with the same ID in place.
	// Returns true when the ID was new.
	Save(ctx context.Context, u model.UploadRecord) (bool, error)

	// Get returns the upload with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (model.UploadRecord, error)

	// List returns matching uploads in insertion order.
	List(ctx context.Context, f Filter) ([]model.UploadRecord, error)

	// Count returns the number of stored uploads.
	Count(ctx context.Context) int
}

// TeacherDirectory lists known teachers.
type TeacherDirectory interface {
	ListTeachers(ctx context.Context) []model.Teacher
}
