package loadtest_test

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/gradepulse/internal/adapters/http/api"
	service "github.com/okian/gradepulse/internal/app"
	"github.com/okian/gradepulse/internal/domain/model"
	"github.com/okian/gradepulse/internal/loadtest"
	"github.com/okian/gradepulse/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func smallConfig(url string) *loadtest.Config {
	return &loadtest.Config{
		BaseURL:           url,
		Uploads:           60,
		Teachers:          6,
		Weeks:             3,
		StudentsPerUpload: 5,
		DuplicateEvery:    5,
		Seed:              7,
		Workers:           4,
		Timeout:           5 * time.Second,
		SettleTimeout:     10 * time.Second,
	}
}

func TestParseConfig(t *testing.T) {
	Convey("Given load tool arguments", t, func() {
		defer os.Unsetenv("GRADEPULSE_LOAD_UPLOADS")
		defer os.Unsetenv("GRADEPULSE_LOAD_DUPLICATE_EVERY")

		Convey("When no flags are given", func() {
			cfg, err := loadtest.ParseConfig(nil)

			Convey("Then defaults apply", func() {
				So(err, ShouldBeNil)
				So(cfg.BaseURL, ShouldEqual, "http://localhost:9080")
				So(cfg.Uploads, ShouldEqual, 2000)
				So(cfg.Workers, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When flags and environment are both set", func() {
			_ = os.Setenv("GRADEPULSE_LOAD_UPLOADS", "300")
			_ = os.Setenv("GRADEPULSE_LOAD_DUPLICATE_EVERY", "0")
			cfg, err := loadtest.ParseConfig([]string{"-url", "http://gp:8080", "-uploads", "50"})

			Convey("Then flags win over the environment", func() {
				So(err, ShouldBeNil)
				So(cfg.BaseURL, ShouldEqual, "http://gp:8080")
				So(cfg.Uploads, ShouldEqual, 50)
				So(cfg.DuplicateEvery, ShouldEqual, 0)
			})
		})

		Convey("When a config file is given", func() {
			path := filepath.Join(t.TempDir(), "load.conf")
			So(os.WriteFile(path, []byte("teachers 3\nweeks 2\n"), 0o600), ShouldBeNil)
			cfg, err := loadtest.ParseConfig([]string{"-config", path})

			Convey("Then its values are read", func() {
				So(err, ShouldBeNil)
				So(cfg.Teachers, ShouldEqual, 3)
				So(cfg.Weeks, ShouldEqual, 2)
			})
		})

		Convey("When values are invalid", func() {
			_, err := loadtest.ParseConfig([]string{"-uploads", "0"})
			So(err, ShouldNotBeNil)
			_, err = loadtest.ParseConfig([]string{"-workers", "-1"})
			So(err, ShouldNotBeNil)
		})

		Convey("When help is requested", func() {
			_, err := loadtest.ParseConfig([]string{"-help"})
			So(errors.Is(err, flag.ErrHelp), ShouldBeTrue)
		})
	})
}

func TestGenerate(t *testing.T) {
	Convey("Given a generator config", t, func() {
		cfg := smallConfig("")
		uploads := loadtest.Generate(cfg)

		Convey("Then the requested number of distinct uploads is produced", func() {
			So(uploads, ShouldHaveLength, 60)
			ids := make(map[string]bool)
			for _, u := range uploads {
				ids[u.ID] = true
			}
			So(ids, ShouldHaveLength, 60)
		})

		Convey("Then weeks, times and summary fields are consistent", func() {
			for i, u := range uploads {
				So(u.WeekNumber, ShouldBeBetweenOrEqual, 1, cfg.Weeks)
				So(u.TotalStudents, ShouldBeGreaterThan, 0)
				if i > 0 {
					So(u.UploadTime.After(uploads[i-1].UploadTime), ShouldBeTrue)
				}
				if i%3 == 2 {
					So(u.Students, ShouldBeEmpty)
				} else if u.Subject == model.SubjectBoth {
					So(u.Students, ShouldHaveLength, 2*cfg.StudentsPerUpload)
				} else {
					So(u.Students, ShouldHaveLength, cfg.StudentsPerUpload)
				}
			}
		})

		Convey("Then the same seed gives the same scores", func() {
			again := loadtest.Generate(cfg)
			for i := range uploads {
				So(again[i].Subject, ShouldEqual, uploads[i].Subject)
				So(again[i].AverageScore, ShouldEqual, uploads[i].AverageScore)
			}
		})
	})
}

func TestCompare(t *testing.T) {
	Convey("Given two summaries", t, func() {
		want := loadtest.SummaryFigures{TotalStudents: 10, SchoolAverage: 80, Green: 3, Orange: 3, Red: 2, Gray: 2}

		So(loadtest.Compare(want, want), ShouldBeEmpty)

		got := want
		got.Red = 1
		got.SchoolAverage = 80.5
		So(loadtest.Compare(got, want), ShouldHaveLength, 2)
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running server", t, func() {
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(1000))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("When a load run completes", func() {
			cfg := smallConfig(srv.URL)
			cfg.OutputFile = filepath.Join(t.TempDir(), "uploads.json")
			stats, err := loadtest.Run(ctx, cfg)

			Convey("Then the server agrees with the local aggregation", func() {
				So(err, ShouldBeNil)
				So(stats.Generated, ShouldEqual, 60)
				So(stats.Accepted, ShouldEqual, 60)
				So(stats.Duplicate, ShouldEqual, 12)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.Mismatches, ShouldBeEmpty)
				So(stats.Summary.TotalStudents, ShouldBeGreaterThan, 0)

				_, statErr := os.Stat(cfg.OutputFile)
				So(statErr, ShouldBeNil)
			})
		})
	})

	Convey("Given a server that miscounts", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {})
		mux.HandleFunc("/uploads", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"status":"accepted"}`))
		})
		mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"storedUploads": 100000}`))
		})
		mux.HandleFunc("/summary", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"totalStudents": 1, "schoolAverage": 12.5, "performanceDistribution": {"gray": 1}}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("When a load run completes", func() {
			cfg := smallConfig(srv.URL)
			cfg.DuplicateEvery = 0
			stats, err := loadtest.Run(context.Background(), cfg)

			Convey("Then the mismatch is reported", func() {
				So(errors.Is(err, loadtest.ErrMismatch), ShouldBeTrue)
				So(stats.Mismatches, ShouldNotBeEmpty)
				So(stats.Summary.SchoolAverage, ShouldEqual, 12.5)
			})
		})
	})

	Convey("Given a server that never finishes ingesting", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"storedUploads": 1}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		err := loadtest.WaitStored(context.Background(), loadtest.NewClient(srv.URL, time.Second), 5, 300*time.Millisecond)
		So(errors.Is(err, loadtest.ErrNotStored), ShouldBeTrue)
	})

	Convey("Given no server at all", t, func() {
		cfg := smallConfig("http://127.0.0.1:1")
		cfg.Timeout = 200 * time.Millisecond
		_, err := loadtest.Run(context.Background(), cfg)
		So(errors.Is(err, loadtest.ErrUnhealthy), ShouldBeTrue)
	})
}
