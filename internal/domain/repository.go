package domain

import (
	"context"
	"time"
)

// JobRepository defines persistence for vision jobs. The pipeline core is
// written against this contract; the Postgres adapter implements it and
// tests substitute in-memory fakes.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error

	// ClaimNextPending returns the oldest pending job (created_at
	// ascending, FIFO) and atomically marks it analyzing so a concurrent
	// claimer cannot dispatch it twice. ErrNotFound when the queue is
	// empty.
	ClaimNextPending(ctx context.Context) (*Job, error)

	// ClaimRetryEligible claims up to limit failed jobs whose retry count
	// has not reached the cap, oldest failure first.
	ClaimRetryEligible(ctx context.Context, limit int) ([]*Job, error)

	// UpdateStatus applies an atomic partial update. Outputs present in
	// the patch stamp their stage completion timestamps; a transition to
	// complete stamps completed_at; updated_at is bumped on every write.
	UpdateStatus(ctx context.Context, jobID string, status JobStatus, progress int, patch JobPatch) error

	GetByID(ctx context.Context, jobID string) (*Job, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Job, error)

	// MarkStaleRunning fails running jobs untouched for longer than
	// olderThan with the timeout stage, so a crashed attempt cannot pin a
	// job in an intermediate status forever.
	MarkStaleRunning(ctx context.Context, olderThan time.Duration) (int64, error)

	// Cancel is valid only from pending. Retry is valid only from error
	// and respects the retry cap; it does not reset the counter.
	Cancel(ctx context.Context, jobID string) error
	Retry(ctx context.Context, jobID string) error
	SoftDelete(ctx context.Context, jobID string) error
}

// ReportRepository persists structured projections of completed jobs.
type ReportRepository interface {
	// Upsert is idempotent per job: re-processing a job never yields a
	// second report.
	Upsert(ctx context.Context, report *BrandReport) error
	GetByJobID(ctx context.Context, jobID string) (*BrandReport, error)
	SaveFeedback(ctx context.Context, jobID string, rating *int, feedback string) error
}

// SessionRepository tracks observers watching a job's progress.
type SessionRepository interface {
	Create(ctx context.Context, session *WatchSession) error
	Deactivate(ctx context.Context, sessionID string) error
	ActiveForJob(ctx context.Context, jobID string) ([]*WatchSession, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}
