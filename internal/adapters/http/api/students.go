package api

import (
	"net/http"
	"strings"

	service "github.com/okian/gradepulse/internal/app"
	"github.com/okian/gradepulse/internal/domain/types"
)

// StudentsHandler serves the student ranking.
type StudentsHandler struct {
	deps Dependencies
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(deps Dependencies) *StudentsHandler {
	return &StudentsHandler{deps: deps}
}

// HandleListStudents handles GET /students?limit=&mode=latest|all requests.
func (h *StudentsHandler) HandleListStudents(w http.ResponseWriter, r *http.Request) {
	const op = "api.students"

	scope, ok := readScope(w, r)
	if !ok {
		return
	}
	view, err := service.ParseStudentView(r.URL.Query().Get("mode"))
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		fail(w, err)
		return
	}
	ranked, err := h.deps.Students(r.Context(), scope, view, limit)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	if ranked == nil {
		ranked = []types.RankedStudent{}
	}
	writeJSON(w, http.StatusOK, ranked)
}

// HandleGetStudent handles GET /students/{id} requests.
func (h *StudentsHandler) HandleGetStudent(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/students/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	scope, ok := readScope(w, r)
	if !ok {
		return
	}
	detail, err := h.deps.Student(r.Context(), scope, id)
	if err != nil {
		fail(w, Wrap("api.student", err))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
