package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"brandforge/internal/domain"
	"brandforge/internal/providers/content"
	"brandforge/internal/providers/vision"
)

// memJobs is an in-memory domain.JobRepository honoring the store
// contract: claim-once semantics, FIFO ordering, patch timestamping.
type memJobs struct {
	mu     sync.Mutex
	seq    int
	jobs   map[string]*domain.Job
	writes []write

	updateErr error
}

type write struct {
	jobID    string
	status   domain.JobStatus
	progress int
}

func newMemJobs() *memJobs {
	return &memJobs{jobs: make(map[string]*domain.Job)}
}

func (m *memJobs) Create(_ context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	job.ID = fmt.Sprintf("job-%d", m.seq)
	job.Status = domain.JobStatusPending
	job.Progress = domain.ProgressQueued
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	job.UpdatedAt = job.CreatedAt
	clone := *job
	m.jobs[job.ID] = &clone
	return nil
}

func (m *memJobs) ClaimNextPending(_ context.Context) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest *domain.Job
	for _, j := range m.jobs {
		if j.Status != domain.JobStatusPending || j.DeletedAt != nil {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, domain.ErrNotFound
	}
	oldest.Status = domain.JobStatusAnalyzing
	oldest.UpdatedAt = time.Now()
	clone := *oldest
	return &clone, nil
}

func (m *memJobs) ClaimRetryEligible(_ context.Context, limit int) ([]*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var eligible []*domain.Job
	for _, j := range m.jobs {
		if j.DeletedAt == nil && j.RetryEligible() {
			eligible = append(eligible, j)
		}
	}
	sort.Slice(eligible, func(a, b int) bool {
		return eligible[a].UpdatedAt.Before(eligible[b].UpdatedAt)
	})
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}
	out := make([]*domain.Job, 0, len(eligible))
	for _, j := range eligible {
		j.Status = domain.JobStatusAnalyzing
		j.UpdatedAt = time.Now()
		clone := *j
		out = append(out, &clone)
	}
	return out, nil
}

func (m *memJobs) UpdateStatus(_ context.Context, jobID string, status domain.JobStatus, progress int, patch domain.JobPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	j, ok := m.jobs[jobID]
	if !ok || j.DeletedAt != nil {
		return domain.ErrNotFound
	}
	now := time.Now()
	j.Status = status
	j.Progress = progress
	if patch.AnalysisOutput != nil {
		j.AnalysisOutput = patch.AnalysisOutput
		if j.AnalysisCompletedAt == nil {
			j.AnalysisCompletedAt = &now
		}
	}
	if patch.ContentOutput != nil {
		j.ContentOutput = patch.ContentOutput
		if j.ContentCompletedAt == nil {
			j.ContentCompletedAt = &now
		}
	}
	if patch.ErrorMessage != nil {
		j.ErrorMessage = *patch.ErrorMessage
	}
	if patch.ErrorStage != nil {
		j.ErrorStage = *patch.ErrorStage
	}
	if patch.RetryCount != nil {
		j.RetryCount = *patch.RetryCount
		if j.RetryCount > j.MaxRetries {
			j.RetryCount = j.MaxRetries
		}
	}
	if status == domain.JobStatusComplete {
		j.ErrorMessage = ""
		j.ErrorStage = ""
		if j.CompletedAt == nil {
			j.CompletedAt = &now
		}
	}
	j.UpdatedAt = now
	m.writes = append(m.writes, write{jobID: jobID, status: status, progress: progress})
	return nil
}

func (m *memJobs) GetByID(_ context.Context, jobID string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok || j.DeletedAt != nil {
		return nil, domain.ErrNotFound
	}
	clone := *j
	return &clone, nil
}

func (m *memJobs) ListByUser(_ context.Context, userID string, limit, offset int) ([]*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Job
	for _, j := range m.jobs {
		if j.UserID == userID && j.DeletedAt == nil {
			clone := *j
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (m *memJobs) MarkStaleRunning(_ context.Context, olderThan time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var n int64
	for _, j := range m.jobs {
		if j.Running() && j.DeletedAt == nil && j.UpdatedAt.Before(cutoff) {
			j.Status = domain.JobStatusError
			j.ErrorStage = domain.StageTimeout
			j.ErrorMessage = "processing exceeded the job timeout"
			if j.RetryCount < j.MaxRetries {
				j.RetryCount++
			}
			j.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

func (m *memJobs) Cancel(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok || j.DeletedAt != nil {
		return domain.ErrNotFound
	}
	if j.Status != domain.JobStatusPending {
		return domain.ErrInvalidTransition
	}
	j.Status = domain.JobStatusCancelled
	j.UpdatedAt = time.Now()
	return nil
}

func (m *memJobs) Retry(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok || j.DeletedAt != nil {
		return domain.ErrNotFound
	}
	if !j.RetryEligible() {
		return domain.ErrInvalidTransition
	}
	j.Status = domain.JobStatusPending
	j.Progress = domain.ProgressQueued
	j.ErrorMessage = ""
	j.ErrorStage = ""
	j.UpdatedAt = time.Now()
	return nil
}

func (m *memJobs) SoftDelete(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok || j.DeletedAt != nil {
		return domain.ErrNotFound
	}
	now := time.Now()
	j.DeletedAt = &now
	return nil
}

func (m *memJobs) snapshot(jobID string) domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.jobs[jobID]
}

func (m *memJobs) statusTrail(jobID string) []write {
	m.mu.Lock()
	defer m.mu.Unlock()
	var trail []write
	for _, w := range m.writes {
		if w.jobID == jobID {
			trail = append(trail, w)
		}
	}
	return trail
}

func (m *memJobs) countByStatus(status domain.JobStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, j := range m.jobs {
		if j.Status == status {
			n++
		}
	}
	return n
}

var _ domain.JobRepository = (*memJobs)(nil)

// memReports mimics the insert-once-per-job upsert.
type memReports struct {
	mu      sync.Mutex
	byJob   map[string]*domain.BrandReport
	inserts int
}

func newMemReports() *memReports {
	return &memReports{byJob: make(map[string]*domain.BrandReport)}
}

func (m *memReports) Upsert(_ context.Context, report *domain.BrandReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byJob[report.JobID]; exists {
		return nil
	}
	clone := *report
	clone.CreatedAt = time.Now()
	m.byJob[report.JobID] = &clone
	m.inserts++
	return nil
}

func (m *memReports) GetByJobID(_ context.Context, jobID string) (*domain.BrandReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byJob[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *r
	return &clone, nil
}

func (m *memReports) SaveFeedback(_ context.Context, jobID string, rating *int, feedback string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byJob[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	r.Rating = rating
	r.Feedback = feedback
	return nil
}

var _ domain.ReportRepository = (*memReports)(nil)

// fakeAnalyzer scripts the analysis collaborator. A non-nil block channel
// makes every call hang until the channel is closed.
type fakeAnalyzer struct {
	mu       sync.Mutex
	calls    int
	failures int
	output   string
	block    chan struct{}
	lastReq  vision.AnalyzeRequest
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req vision.AnalyzeRequest) (string, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.lastReq = req
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if call <= f.failures {
		return "", fmt.Errorf("analysis backend unavailable (call %d)", call)
	}
	if f.output != "" {
		return f.output, nil
	}
	return `{"palette":["#102030"],"mood":"calm","style":"minimal","subjects":["logo"]}`, nil
}

func (f *fakeAnalyzer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var _ vision.Analyzer = (*fakeAnalyzer)(nil)

// fakeGenerator scripts the generation collaborator.
type fakeGenerator struct {
	mu       sync.Mutex
	calls    int
	failures int
	output   string
	block    chan struct{}
	lastReq  content.GenerateRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req content.GenerateRequest) (string, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.lastReq = req
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if call <= f.failures {
		return "", fmt.Errorf("generation backend unavailable (call %d)", call)
	}
	if f.output != "" {
		return f.output, nil
	}
	return `{"pieces":[{"headline":"Calm by design","body":"Meet the new look.","channel":"instagram"}]}`, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var _ content.Generator = (*fakeGenerator)(nil)
