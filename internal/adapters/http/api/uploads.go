package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/gradepulse/internal/adapters/repository"
	"github.com/okian/gradepulse/internal/domain/model"
)

const maxUploadBytes = 4 << 20

// studentRequest is one per-student score in POST /uploads.
type studentRequest struct {
	StudentID   string  `json:"studentId" validate:"max=128"`
	StudentName string  `json:"studentName" validate:"max=256"`
	Subject     string  `json:"subject" validate:"max=64"`
	Score       float64 `json:"score"`
}

// uploadRequest mirrors the OpenAPI schema for POST /uploads.
type uploadRequest struct {
	ID            string           `json:"id" validate:"max=128"`
	TeacherName   string           `json:"teacherName" validate:"required,max=256"`
	Grade         string           `json:"grade" validate:"max=64"`
	ClassName     string           `json:"className" validate:"max=64"`
	Subject       string           `json:"subject" validate:"required,max=64"`
	UploadTime    string           `json:"uploadTime" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	WeekNumber    int              `json:"weekNumber" validate:"gte=1"`
	TotalStudents int              `json:"totalStudents" validate:"gte=0,lte=100000"`
	AverageScore  float64          `json:"averageScore"`
	Students      []studentRequest `json:"students" validate:"dive"`
}

func (req *uploadRequest) record() model.UploadRecord {
	u := model.UploadRecord{
		ID:            req.ID,
		TeacherName:   req.TeacherName,
		Grade:         req.Grade,
		ClassName:     req.ClassName,
		Subject:       model.Subject(req.Subject),
		WeekNumber:    req.WeekNumber,
		TotalStudents: req.TotalStudents,
		AverageScore:  req.AverageScore,
	}
	if req.UploadTime != "" {
		// Already checked by the datetime rule.
		u.UploadTime, _ = time.Parse(time.RFC3339, req.UploadTime)
	}
	if len(req.Students) > 0 {
		u.Students = make([]model.StudentScore, 0, len(req.Students))
		for _, s := range req.Students {
			u.Students = append(u.Students, model.StudentScore{
				StudentID:   s.StudentID,
				StudentName: s.StudentName,
				Subject:     model.Subject(s.Subject),
				Score:       s.Score,
			})
		}
	}
	return u
}

// UploadsHandler handles upload submission and listing.
type UploadsHandler struct {
	deps Dependencies
}

// NewUploadsHandler creates a new uploads handler.
func NewUploadsHandler(deps Dependencies) *UploadsHandler {
	return &UploadsHandler{deps: deps}
}

// HandleUploads dispatches POST and GET /uploads.
func (h *UploadsHandler) HandleUploads(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.HandlePostUpload(w, r)
	case http.MethodGet:
		h.HandleListUploads(w, r)
	default:
		http.NotFound(w, r)
	}
}

// HandlePostUpload handles POST /uploads requests.
func (h *UploadsHandler) HandlePostUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.postUpload"

	var req uploadRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_upload", WrapKind(op, ErrBadRequest, errors.New(validationMessage(err))))
		return
	}

	res, err := h.deps.Submit(r.Context(), req.record())
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	if res.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{ID: res.ID, Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{ID: res.ID, Status: "accepted"})
}

// HandleListUploads handles GET /uploads?teacher=&grade=&week= requests.
func (h *UploadsHandler) HandleListUploads(w http.ResponseWriter, r *http.Request) {
	const op = "api.listUploads"

	scope, err := scopeFromRequest(r)
	if err != nil {
		fail(w, err)
		return
	}
	q := r.URL.Query()
	f := repository.Filter{
		TeacherName: strings.TrimSpace(q.Get("teacher")),
		Grade:       strings.TrimSpace(q.Get("grade")),
	}
	if raw := q.Get("week"); raw != "" {
		week, err := strconv.Atoi(raw)
		if err != nil || week < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		f.Week = week
	}

	uploads, err := h.deps.Uploads(r.Context(), scope, f)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	if uploads == nil {
		uploads = []model.UploadRecord{}
	}
	writeJSON(w, http.StatusOK, uploads)
}

// HandleGetUpload handles GET /uploads/{id} requests.
func (h *UploadsHandler) HandleGetUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.getUpload"

	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/uploads/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	scope, err := scopeFromRequest(r)
	if err != nil {
		fail(w, err)
		return
	}
	u, err := h.deps.Upload(r.Context(), scope, id)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, u)
}
