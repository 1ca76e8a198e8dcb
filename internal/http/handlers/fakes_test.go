package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	"brandforge/internal/domain"
	"brandforge/internal/infra"
	"brandforge/internal/middleware"
	"brandforge/internal/notify"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fakeJobs struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: make(map[string]*domain.Job)}
}

func (f *fakeJobs) Create(_ context.Context, job *domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
	clone := *job
	f.jobs[job.ID] = &clone
	return nil
}

func (f *fakeJobs) ClaimNextPending(context.Context) (*domain.Job, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeJobs) ClaimRetryEligible(context.Context, int) ([]*domain.Job, error) {
	return nil, nil
}

func (f *fakeJobs) UpdateStatus(_ context.Context, jobID string, status domain.JobStatus, progress int, patch domain.JobPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = status
	job.Progress = progress
	if patch.AnalysisOutput != nil {
		job.AnalysisOutput = patch.AnalysisOutput
	}
	if patch.ContentOutput != nil {
		job.ContentOutput = patch.ContentOutput
	}
	if patch.ErrorMessage != nil {
		job.ErrorMessage = *patch.ErrorMessage
	}
	if patch.ErrorStage != nil {
		job.ErrorStage = *patch.ErrorStage
	}
	if status == domain.JobStatusComplete {
		job.ErrorMessage = ""
		job.ErrorStage = ""
	}
	job.UpdatedAt = time.Now()
	return nil
}

func (f *fakeJobs) GetByID(_ context.Context, jobID string) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok || job.DeletedAt != nil {
		return nil, domain.ErrNotFound
	}
	clone := *job
	return &clone, nil
}

func (f *fakeJobs) ListByUser(_ context.Context, userID string, limit, offset int) ([]*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var owned []*domain.Job
	for _, job := range f.jobs {
		if job.UserID == userID && job.DeletedAt == nil {
			clone := *job
			owned = append(owned, &clone)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })
	if offset >= len(owned) {
		return nil, nil
	}
	owned = owned[offset:]
	if len(owned) > limit {
		owned = owned[:limit]
	}
	return owned, nil
}

func (f *fakeJobs) MarkStaleRunning(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

func (f *fakeJobs) Cancel(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Status != domain.JobStatusPending {
		return fmt.Errorf("cancel %s job: %w", job.Status, domain.ErrInvalidTransition)
	}
	job.Status = domain.JobStatusCancelled
	job.UpdatedAt = time.Now()
	return nil
}

func (f *fakeJobs) Retry(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Status != domain.JobStatusError || job.RetryCount >= job.MaxRetries {
		return fmt.Errorf("retry %s job: %w", job.Status, domain.ErrInvalidTransition)
	}
	job.Status = domain.JobStatusPending
	job.Progress = domain.ProgressQueued
	job.ErrorMessage = ""
	job.ErrorStage = ""
	job.UpdatedAt = time.Now()
	return nil
}

func (f *fakeJobs) SoftDelete(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok || job.DeletedAt != nil {
		return domain.ErrNotFound
	}
	now := time.Now()
	job.DeletedAt = &now
	return nil
}

type fakeReports struct {
	mu      sync.Mutex
	reports map[string]*domain.BrandReport
}

func newFakeReports() *fakeReports {
	return &fakeReports{reports: make(map[string]*domain.BrandReport)}
}

func (f *fakeReports) Upsert(_ context.Context, report *domain.BrandReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reports[report.JobID]; ok {
		return nil
	}
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	report.CreatedAt = time.Now()
	clone := *report
	f.reports[report.JobID] = &clone
	return nil
}

func (f *fakeReports) GetByJobID(_ context.Context, jobID string) (*domain.BrandReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.reports[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *report
	return &clone, nil
}

func (f *fakeReports) SaveFeedback(_ context.Context, jobID string, rating *int, feedback string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.reports[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	report.Rating = rating
	report.Feedback = feedback
	return nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*domain.WatchSession
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]*domain.WatchSession)}
}

func (f *fakeSessions) Create(_ context.Context, session *domain.WatchSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	session.CreatedAt = time.Now()
	clone := *session
	f.sessions[session.ID] = &clone
	return nil
}

func (f *fakeSessions) Deactivate(ctx context.Context, sessionID string) error {
	// A real store call fails once the context is canceled.
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	session.Active = false
	return nil
}

func (f *fakeSessions) ActiveForJob(_ context.Context, jobID string) ([]*domain.WatchSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var active []*domain.WatchSession
	for _, session := range f.sessions {
		if session.JobID == jobID && session.Active {
			clone := *session
			active = append(active, &clone)
		}
	}
	return active, nil
}

func (f *fakeSessions) ExpireStale(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type testApp struct {
	*App
	jobs     *fakeJobs
	reports  *fakeReports
	sessions *fakeSessions
}

func newTestApp() *testApp {
	jobs := newFakeJobs()
	reports := newFakeReports()
	sessions := newFakeSessions()
	return &testApp{
		App: &App{
			Jobs:     jobs,
			Reports:  reports,
			Sessions: sessions,
			Hub:      notify.NewHub(),
			Config: &infra.Config{
				MaxRetries:     domain.DefaultMaxRetries,
				StorageBaseURL: "http://localhost:8080/static",
			},
			Log: zerolog.Nop(),
		},
		jobs:     jobs,
		reports:  reports,
		sessions: sessions,
	}
}

// routedRequest routes the request through a chi context so chi.URLParam
// resolves inside handlers.
func routedRequest(r *http.Request, jobID string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("job_id", jobID)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func asUser(r *http.Request, userID string) *http.Request {
	r.Header.Set("X-User-ID", userID)
	return r
}

// serve runs the handler behind the user-context middleware, mirroring the
// production router.
func serve(handler http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	middleware.UserContext(handler).ServeHTTP(rec, r)
	return rec
}
