// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/gradepulse/internal/adapters/repository"
	service "github.com/okian/gradepulse/internal/app"
	"github.com/okian/gradepulse/internal/domain/aggregate"
	"github.com/okian/gradepulse/internal/domain/model"
	"github.com/okian/gradepulse/internal/domain/types"
)

// Dependencies required by HTTP handlers. Every read takes the caller's
// scope; the implementation applies it before aggregating.
type Dependencies interface {
	// Submit accepts an upload for asynchronous storage.
	Submit(ctx context.Context, u model.UploadRecord) (service.SubmitResult, error)

	Uploads(ctx context.Context, scope service.Scope, f repository.Filter) ([]model.UploadRecord, error)
	Upload(ctx context.Context, scope service.Scope, id string) (model.UploadRecord, error)
	Summary(ctx context.Context, scope service.Scope) (aggregate.Summary, error)
	Trend(ctx context.Context, scope service.Scope, latest, previous int) (aggregate.Trend, error)
	Aggregate(ctx context.Context, scope service.Scope, mode aggregate.Mode) (aggregate.Report, error)
	Grades(ctx context.Context, scope service.Scope) ([]aggregate.GradeSummary, error)
	Teachers(ctx context.Context, scope service.Scope) ([]service.TeacherView, error)
	Students(ctx context.Context, scope service.Scope, view service.StudentView, limit int) ([]types.RankedStudent, error)
	Student(ctx context.Context, scope service.Scope, id string) (service.StudentDetail, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	uploadsHandler   *UploadsHandler
	reportsHandler   *ReportsHandler
	studentsHandler  *StudentsHandler
	tierHandler      *TierHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		uploadsHandler:   NewUploadsHandler(deps),
		reportsHandler:   NewReportsHandler(deps),
		studentsHandler:  NewStudentsHandler(deps),
		tierHandler:      NewTierHandler(),
		dashboardHandler: newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/uploads", MetricsMiddleware(s.uploadsHandler.HandleUploads, "uploads"))
	mux.HandleFunc("/uploads/", MetricsMiddleware(s.uploadsHandler.HandleGetUpload, "upload"))
	mux.HandleFunc("/summary", MetricsMiddleware(s.reportsHandler.HandleSummary, "summary"))
	mux.HandleFunc("/trend", MetricsMiddleware(s.reportsHandler.HandleTrend, "trend"))
	mux.HandleFunc("/aggregate", MetricsMiddleware(s.reportsHandler.HandleAggregate, "aggregate"))
	mux.HandleFunc("/grades", MetricsMiddleware(s.reportsHandler.HandleGrades, "grades"))
	mux.HandleFunc("/teachers", MetricsMiddleware(s.reportsHandler.HandleTeachers, "teachers"))
	mux.HandleFunc("/students", MetricsMiddleware(s.studentsHandler.HandleListStudents, "students"))
	mux.HandleFunc("/students/", MetricsMiddleware(s.studentsHandler.HandleGetStudent, "student"))
	mux.HandleFunc("/tier", MetricsMiddleware(s.tierHandler.HandleTier, "tier"))
}

type ackResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// statusFor maps an error from the service layer to an HTTP status and an
// error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrQueueFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, ErrNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrStudentNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrMissingTeacher),
		errors.Is(err, service.ErrUnknownRole),
		errors.Is(err, service.ErrInvalidLimit),
		errors.Is(err, service.ErrUnknownView),
		errors.Is(err, aggregate.ErrUnknownMode):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// fail writes err with the status statusFor assigns to it.
func fail(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}
