// Package loadtest drives a running server with synthetic uploads and
// checks the resulting summary against a local run of the aggregation core.
package loadtest

import (
	"errors"
	"time"
)

// Errors returned by the load test.
var (
	ErrUnhealthy = errors.New("service is not healthy")
	ErrNotStored = errors.New("uploads were not all stored in time")
	ErrMismatch  = errors.New("server summary does not match local aggregation")
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL           string        // Base URL of the service
	Uploads           int           // Distinct uploads to generate
	Teachers          int           // Teachers the uploads are spread across
	Weeks             int           // Weeks the uploads are spread across
	StudentsPerUpload int           // Students per upload with per-student detail
	DuplicateEvery    int           // Re-post every Nth upload; 0 disables
	Seed              uint64        // Generator seed
	Workers           int           // Concurrent submitters
	Timeout           time.Duration // HTTP request timeout
	SettleTimeout     time.Duration // How long to wait for ingestion to finish
	OutputFile        string        // Optional JSON dump of generated uploads
	LogFile           string        // Optional log file, in addition to stdout
	Verbose           bool
}

// Stats holds load run statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Accepted   int
	Duplicate  int
	Throttled  int
	Failed     int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Summary    SummaryFigures
	Mismatches []string
}

// SummaryFigures are the summary fields compared between server and local
// aggregation.
type SummaryFigures struct {
	TotalStudents int
	SchoolAverage float64
	Green         int
	Orange        int
	Red           int
	Gray          int
}
