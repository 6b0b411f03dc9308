package api

import (
	"net/http"
	"strconv"

	service "github.com/okian/gradepulse/internal/app"
	"github.com/okian/gradepulse/internal/domain/aggregate"
)

// ReportsHandler serves the school-wide aggregation views.
type ReportsHandler struct {
	deps Dependencies
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps Dependencies) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

// readScope rejects non-GET requests and resolves the caller's scope. It
// reports false once a response has been written.
func readScope(w http.ResponseWriter, r *http.Request) (service.Scope, bool) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return service.Scope{}, false
	}
	scope, err := scopeFromRequest(r)
	if err != nil {
		fail(w, err)
		return service.Scope{}, false
	}
	return scope, true
}

// intParam parses an optional non-negative query parameter.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, WrapKind("api.param."+name, ErrBadRequest, err)
	}
	if n < 0 {
		return 0, NewKind("api.param."+name, ErrBadRequest)
	}
	return n, nil
}

// HandleSummary handles GET /summary requests.
func (h *ReportsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	scope, ok := readScope(w, r)
	if !ok {
		return
	}
	summary, err := h.deps.Summary(r.Context(), scope)
	if err != nil {
		fail(w, Wrap("api.summary", err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleTrend handles GET /trend?latest=&previous= requests. Omitted weeks
// default to the two most recent weeks with uploads.
func (h *ReportsHandler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	const op = "api.trend"

	scope, ok := readScope(w, r)
	if !ok {
		return
	}
	latest, err := intParam(r, "latest")
	if err != nil {
		fail(w, err)
		return
	}
	previous, err := intParam(r, "previous")
	if err != nil {
		fail(w, err)
		return
	}
	trend, err := h.deps.Trend(r.Context(), scope, latest, previous)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, trend)
}

// HandleAggregate handles GET /aggregate?mode= requests.
func (h *ReportsHandler) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	const op = "api.aggregate"

	scope, ok := readScope(w, r)
	if !ok {
		return
	}
	raw := r.URL.Query().Get("mode")
	if raw == "" {
		raw = aggregate.LatestPerTeacher.String()
	}
	mode, err := aggregate.ParseMode(raw)
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	report, err := h.deps.Aggregate(r.Context(), scope, mode)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleGrades handles GET /grades requests.
func (h *ReportsHandler) HandleGrades(w http.ResponseWriter, r *http.Request) {
	scope, ok := readScope(w, r)
	if !ok {
		return
	}
	grades, err := h.deps.Grades(r.Context(), scope)
	if err != nil {
		fail(w, Wrap("api.grades", err))
		return
	}
	if grades == nil {
		grades = []aggregate.GradeSummary{}
	}
	writeJSON(w, http.StatusOK, grades)
}

// HandleTeachers handles GET /teachers requests.
func (h *ReportsHandler) HandleTeachers(w http.ResponseWriter, r *http.Request) {
	scope, ok := readScope(w, r)
	if !ok {
		return
	}
	teachers, err := h.deps.Teachers(r.Context(), scope)
	if err != nil {
		fail(w, Wrap("api.teachers", err))
		return
	}
	if teachers == nil {
		teachers = []service.TeacherView{}
	}
	writeJSON(w, http.StatusOK, teachers)
}
