package loadtest

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/peterbourgon/ff/v3"

	"github.com/okian/gradepulse/pkg/logger"
)

// EnvPrefix prefixes environment variables read by ParseConfig, e.g.
// GRADEPULSE_LOAD_URL.
const EnvPrefix = "GRADEPULSE_LOAD"

// Defaults for ParseConfig.
const (
	defaultUploads        = 2000
	defaultTeachers       = 40
	defaultWeeks          = 6
	defaultStudents       = 25
	defaultDuplicateEvery = 10
	defaultTimeout        = 30 * time.Second
	defaultSettleTimeout  = 2 * time.Minute
)

// ParseConfig reads flags from args, then GRADEPULSE_LOAD_* environment
// variables, then an optional -config file of "name value" lines.
func ParseConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("load-uploads", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg := &Config{}
	_ = fs.String("config", "", "config file (optional), one \"flag value\" per line")
	fs.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	fs.IntVar(&cfg.Uploads, "uploads", defaultUploads, "number of distinct uploads to submit")
	fs.IntVar(&cfg.Teachers, "teachers", defaultTeachers, "number of teachers")
	fs.IntVar(&cfg.Weeks, "weeks", defaultWeeks, "number of weeks")
	fs.IntVar(&cfg.StudentsPerUpload, "students", defaultStudents, "students per upload with detail")
	fs.IntVar(&cfg.DuplicateEvery, "duplicate-every", defaultDuplicateEvery, "re-post every Nth upload (0 disables)")
	fs.Uint64Var(&cfg.Seed, "seed", 1, "generator seed")
	fs.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*2, "concurrent submitters")
	fs.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	fs.DurationVar(&cfg.SettleTimeout, "settle", defaultSettleTimeout, "time to wait for ingestion to finish")
	fs.StringVar(&cfg.OutputFile, "output", "", "write generated uploads to this JSON file")
	fs.StringVar(&cfg.LogFile, "log", "", "also write logs to this file")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "log every mismatch and progress")

	err := ff.Parse(fs, args,
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithEnvVarPrefix(EnvPrefix),
	)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.BaseURL == "":
		return errors.New("url is required")
	case c.Uploads <= 0:
		return fmt.Errorf("uploads must be positive, got %d", c.Uploads)
	case c.Teachers <= 0:
		return fmt.Errorf("teachers must be positive, got %d", c.Teachers)
	case c.Weeks <= 0:
		return fmt.Errorf("weeks must be positive, got %d", c.Weeks)
	case c.StudentsPerUpload < 0, c.DuplicateEvery < 0:
		return errors.New("students and duplicate-every must not be negative")
	case c.Workers <= 0:
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	return nil
}

// Usage prints the flag set to w.
func Usage(w io.Writer) {
	fmt.Fprint(w, `GradePulse load tool

Generates synthetic teacher uploads, posts them concurrently to /uploads,
waits for ingestion, then checks /summary against a local aggregation of
the same uploads. Run it against a server without seeded fixtures.

Usage:
  load-uploads [flags]

Flags (also GRADEPULSE_LOAD_<FLAG>, e.g. GRADEPULSE_LOAD_URL):
  -url              base URL (default http://localhost:9080)
  -uploads          distinct uploads (default 2000)
  -teachers         teachers (default 40)
  -weeks            weeks (default 6)
  -students         students per upload with detail (default 25)
  -duplicate-every  re-post every Nth upload, 0 disables (default 10)
  -seed             generator seed (default 1)
  -workers          concurrent submitters (default CPU*2)
  -timeout          HTTP timeout (default 30s)
  -settle           ingestion wait (default 2m)
  -output           JSON dump of generated uploads
  -log              also write logs to this file
  -config           file of "flag value" lines
  -verbose          chatty output
`)
}

// SetupLogging initializes the logger, teeing to logFile when set.
func SetupLogging(logFile string) error {
	if logFile == "" {
		return logger.Init()
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	return logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file)))
}
