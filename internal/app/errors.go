package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrQueueFull       = errors.New("ingestion queue full")
	ErrMissingTeacher  = errors.New("teacher scope requires a teacher name")
	ErrUnknownRole     = errors.New("unknown role")
	ErrInvalidLimit    = errors.New("invalid student limit")
	ErrStudentNotFound = errors.New("student not found")
	ErrUnknownView     = errors.New("unknown student view")
)
