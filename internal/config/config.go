// Package config defines service configuration and how it is loaded.
package config

import (
	"context"
	"runtime"

	"github.com/okian/gradepulse/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// QueueSize bounds the in-memory ingestion queue.
	QueueSize int `koanf:"queue_size" validate:"gt=0"`

	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count" validate:"gt=0"`

	// DedupeSize sets how many upload IDs are remembered.
	DedupeSize int `koanf:"dedupe_size" validate:"gt=0"`

	// MaxStudentLimit caps GET /students?limit.
	MaxStudentLimit int `koanf:"max_student_limit" validate:"gt=0"`

	// FixturesPath optionally points at a YAML file of seed uploads.
	FixturesPath string `koanf:"fixtures_path"`

	// Teachers is the configured roster.
	Teachers []model.Teacher `koanf:"teachers" validate:"dive"`
}

// New returns a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		QueueSize:       10_000,
		WorkerCount:     runtime.NumCPU() * 2,
		DedupeSize:      50_000,
		MaxStudentLimit: 1_000,
	}
}
