// Package service wires the upload store, ingestion pipeline and
// aggregation core into the operations served by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	uploadqueue "github.com/okian/gradepulse/internal/adapters/mq/queue"
	workerpool "github.com/okian/gradepulse/internal/adapters/mq/worker"
	"github.com/okian/gradepulse/internal/adapters/repository"
	"github.com/okian/gradepulse/internal/domain/aggregate"
	"github.com/okian/gradepulse/internal/domain/dedupe"
	"github.com/okian/gradepulse/internal/domain/model"
	"github.com/okian/gradepulse/internal/domain/types"
	"github.com/okian/gradepulse/pkg/logger"
	"github.com/okian/gradepulse/pkg/metrics"
)

const (
	defaultQueueSize       = 10_000
	defaultDedupeSize      = 50_000
	defaultMaxStudentLimit = 1_000
	stateRefreshInterval   = 2 * time.Second
)

// UploadStore is the storage the service needs.
type UploadStore interface {
	repository.Store
	repository.TeacherDirectory
}

// Service implements the API dependencies for the dashboard.
type Service struct {
	mu sync.RWMutex

	store   UploadStore
	deduper dedupe.Deduper
	queue   *uploadqueue.InMemoryQueue
	pool    *workerpool.Pool

	workerCount     int
	queueSize       int
	dedupeSize      int
	maxStudentLimit int

	started bool
	dirty   atomic.Bool
	stopCh  chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of ingestion workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the ingestion queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many upload IDs are remembered for duplicate
// detection.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxStudentLimit caps the limit accepted by Students.
func WithMaxStudentLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxStudentLimit = limit
		}
	}
}

// WithStore replaces the default in-memory store, e.g. one seeded from
// fixtures.
func WithStore(store UploadStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Service. Call Start before submitting uploads.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU() * 2,
		queueSize:       defaultQueueSize,
		dedupeSize:      defaultDedupeSize,
		maxStudentLimit: defaultMaxStudentLimit,
		stopCh:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewInMemoryStore()
	}
	return s
}

// Start creates the deduper, queue and worker pool. Uploads already in the
// store are recorded as seen so re-posting them is reported as a duplicate.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting gradepulse service...")

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	existing, err := s.store.List(ctx, repository.Filter{})
	if err != nil {
		return fmt.Errorf("list stored uploads: %w", err)
	}
	for i := range existing {
		s.deduper.SeenAndRecord(ctx, existing[i].ID)
	}

	s.queue = uploadqueue.NewInMemoryQueue(uploadqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store,
		workerpool.WithStoredHook(func(workerpool.StoredUpload) { s.dirty.Store(true) }),
	)
	s.pool.Start(ctx)

	s.stopCh = make(chan struct{})
	s.dirty.Store(true)
	go s.refreshStateLoop(ctx, s.stopCh)

	s.started = true
	s.logger.Info(ctx, "gradepulse service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("seededUploads", len(existing)),
	)
	return nil
}

// Stop drains the ingestion queue and stops the workers.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping gradepulse service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	close(s.stopCh)

	s.started = false
	s.logger.Info(ctx, "gradepulse service stopped",
		logger.Int64("processed", s.pool.Processed()),
		logger.Int64("failed", s.pool.Failed()),
	)
}

// refreshStateLoop republishes the current-state gauges when uploads were
// stored since the last pass.
func (s *Service) refreshStateLoop(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(stateRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if s.dirty.Swap(false) {
				if _, err := s.Summary(ctx, All); err != nil {
					s.logger.Warn(ctx, "state refresh failed", logger.Error(err))
				}
			}
		}
	}
}

// SubmitResult acknowledges an accepted upload.
type SubmitResult struct {
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// Submit queues an upload for ingestion. An upload without an ID gets a
// random one. An ID that was already submitted is acknowledged as a
// duplicate and not queued again.
func (s *Service) Submit(ctx context.Context, u model.UploadRecord) (SubmitResult, error) { //nolint:gocritic // hugeParam: value semantics
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return SubmitResult{}, ErrNotStarted
	}
	metrics.RecordUploadReceived()

	u.ID = strings.TrimSpace(u.ID)
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	if s.deduper.SeenAndRecord(ctx, u.ID) {
		metrics.RecordUploadDuplicate()
		s.logger.Debug(ctx, "duplicate upload skipped", logger.String("uploadID", u.ID))
		return SubmitResult{ID: u.ID, Duplicate: true}, nil
	}

	err := s.queue.Enqueue(ctx, uploadqueue.Submission{Upload: u, ReceivedAt: time.Now().UTC()})
	if err != nil {
		s.deduper.Unrecord(ctx, u.ID)
		metrics.RecordUploadRejected("queue_full")
		s.logger.Warn(ctx, "upload rejected",
			logger.String("uploadID", u.ID),
			logger.Error(err),
		)
		return SubmitResult{}, fmt.Errorf("%w: %w", ErrQueueFull, err)
	}

	s.logger.Debug(ctx, "upload queued",
		logger.String("uploadID", u.ID),
		logger.String("teacher", u.TeacherName),
		logger.Int("week", u.WeekNumber),
	)
	return SubmitResult{ID: u.ID}, nil
}

// Uploads returns the stored uploads visible to scope that match f, in
// insertion order.
func (s *Service) Uploads(ctx context.Context, scope Scope, f repository.Filter) ([]model.UploadRecord, error) {
	f, visible, err := scope.Restrict(f)
	if err != nil {
		return nil, err
	}
	if !visible {
		return []model.UploadRecord{}, nil
	}
	return s.store.List(ctx, f)
}

// Upload returns one stored upload if scope may see it.
func (s *Service) Upload(ctx context.Context, scope Scope, id string) (model.UploadRecord, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return model.UploadRecord{}, err
	}
	if _, visible, err := scope.Restrict(repository.Filter{TeacherName: u.TeacherName}); err != nil {
		return model.UploadRecord{}, err
	} else if !visible {
		return model.UploadRecord{}, fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	}
	return u, nil
}

// timed records how long an aggregation took.
func timed(operation string, start time.Time) {
	metrics.RecordAggregationLatency(operation, float64(time.Since(start).Microseconds())/1000)
}

// Summary returns the current-state summary built from each visible
// teacher's latest upload. An unrestricted summary also refreshes the
// current-state gauges.
func (s *Service) Summary(ctx context.Context, scope Scope) (aggregate.Summary, error) {
	defer timed("summary", time.Now())

	uploads, err := s.Uploads(ctx, scope, repository.Filter{})
	if err != nil {
		return aggregate.Summary{}, err
	}
	summary := aggregate.CurrentSummary(uploads)
	if scope.Unrestricted() {
		metrics.UpdateCurrentState(summary.SchoolAverage, summary.TotalStudents, summary.Distribution.Map())
	}
	return summary, nil
}

// Trend compares two weeks across every visible upload. A latest week of
// zero or less selects the two most recent weeks present; a previous week
// of zero or less means the week before latest.
func (s *Service) Trend(ctx context.Context, scope Scope, latest, previous int) (aggregate.Trend, error) {
	defer timed("trend", time.Now())

	uploads, err := s.Uploads(ctx, scope, repository.Filter{})
	if err != nil {
		return aggregate.Trend{}, err
	}
	if latest <= 0 {
		return aggregate.LatestTrend(uploads), nil
	}
	if previous <= 0 {
		previous = latest - 1
	}
	return aggregate.ComputeTrend(uploads, latest, previous), nil
}

// Aggregate runs the view selected by mode over the visible uploads.
func (s *Service) Aggregate(ctx context.Context, scope Scope, mode aggregate.Mode) (aggregate.Report, error) {
	defer timed("aggregate", time.Now())

	uploads, err := s.Uploads(ctx, scope, repository.Filter{})
	if err != nil {
		return aggregate.Report{}, err
	}
	return aggregate.Aggregate(mode, uploads)
}

// Grades rolls up every visible upload by grade.
func (s *Service) Grades(ctx context.Context, scope Scope) ([]aggregate.GradeSummary, error) {
	defer timed("grades", time.Now())

	uploads, err := s.Uploads(ctx, scope, repository.Filter{})
	if err != nil {
		return nil, err
	}
	return aggregate.RollupByGrade(uploads), nil
}

// TeacherView combines a roster entry with the teacher's latest upload and
// weekly trend. Latest and Trend are nil for teachers with no uploads.
type TeacherView struct {
	model.Teacher
	Latest *aggregate.TeacherSummary `json:"latest,omitempty"`
	Trend  *aggregate.Trend          `json:"trend,omitempty"`
}

// Teachers lists the visible teachers of the directory.
func (s *Service) Teachers(ctx context.Context, scope Scope) ([]TeacherView, error) {
	defer timed("teachers", time.Now())

	uploads, err := s.Uploads(ctx, scope, repository.Filter{})
	if err != nil {
		return nil, err
	}
	latest := make(map[string]aggregate.TeacherSummary)
	for _, ts := range aggregate.TeacherSummaries(uploads) {
		latest[ts.TeacherName] = ts
	}
	trends := make(map[string]aggregate.Trend)
	for _, tt := range aggregate.TeacherTrends(uploads) {
		trends[tt.TeacherName] = tt.Trend
	}

	out := make([]TeacherView, 0)
	for _, t := range s.store.ListTeachers(ctx) {
		if !scope.Unrestricted() && t.Name != strings.TrimSpace(scope.Teacher) {
			continue
		}
		v := TeacherView{Teacher: t}
		if ts, ok := latest[t.Name]; ok {
			v.Latest = &ts
		}
		if tr, ok := trends[t.Name]; ok {
			v.Trend = &tr
		}
		out = append(out, v)
	}
	return out, nil
}

// StudentView selects the uploads students are resolved from.
type StudentView string

// Student views.
const (
	// StudentsLatest resolves students from each teacher's latest upload.
	StudentsLatest StudentView = "latest"
	// StudentsAll resolves students from every upload; later subjects
	// override earlier ones.
	StudentsAll StudentView = "all"
)

// ParseStudentView accepts "latest", "all" or an empty string (latest).
func ParseStudentView(s string) (StudentView, error) {
	switch StudentView(strings.ToLower(strings.TrimSpace(s))) {
	case StudentsLatest, "":
		return StudentsLatest, nil
	case StudentsAll:
		return StudentsAll, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
	}
}

func (s *Service) resolvedStudents(ctx context.Context, scope Scope, view StudentView) ([]model.AggregatedStudent, error) {
	uploads, err := s.Uploads(ctx, scope, repository.Filter{})
	if err != nil {
		return nil, err
	}
	if view == StudentsLatest {
		uploads = dedupe.Latest(uploads)
	}
	return aggregate.ResolveStudents(uploads), nil
}

// Students ranks the visible students by overall score. A limit of zero
// returns every student.
func (s *Service) Students(ctx context.Context, scope Scope, view StudentView, limit int) ([]types.RankedStudent, error) {
	defer timed("students", time.Now())

	if limit < 0 || limit > s.maxStudentLimit {
		metrics.RecordErrorByComponent("service", "invalid_limit")
		return nil, fmt.Errorf("%w: %d (max %d)", ErrInvalidLimit, limit, s.maxStudentLimit)
	}
	students, err := s.resolvedStudents(ctx, scope, view)
	if err != nil {
		return nil, err
	}
	ranked := aggregate.RankStudents(students)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// StudentDetail is one resolved student with their rank and tier.
type StudentDetail struct {
	model.AggregatedStudent
	Rank  int    `json:"rank"`
	Tier  string `json:"tier"`
	Color string `json:"color"`
}

// Student returns one resolved student from the latest uploads.
func (s *Service) Student(ctx context.Context, scope Scope, id string) (StudentDetail, error) {
	defer timed("student", time.Now())

	students, err := s.resolvedStudents(ctx, scope, StudentsLatest)
	if err != nil {
		return StudentDetail{}, err
	}
	ranked := aggregate.RankStudents(students)
	for i := range students {
		if students[i].StudentID != id {
			continue
		}
		detail := StudentDetail{AggregatedStudent: students[i]}
		for _, r := range ranked {
			if r.StudentID == id {
				detail.Rank, detail.Tier, detail.Color = r.Rank, r.Tier, r.Color
				break
			}
		}
		return detail, nil
	}
	metrics.RecordErrorByComponent("service", "student_not_found")
	return StudentDetail{}, fmt.Errorf("%w: %s", ErrStudentNotFound, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"maxStudentLimit": s.maxStudentLimit,
		"storedUploads":   s.store.Count(ctx),
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["seenUploads"] = s.deduper.Size()
		stats["processedUploads"] = s.pool.Processed()
		stats["failedUploads"] = s.pool.Failed()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStoredUploads(s.store.Count(ctx))
	}
	return stats
}

// Size returns the number of upload IDs held by the deduper.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
