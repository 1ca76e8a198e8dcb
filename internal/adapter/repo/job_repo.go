package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"brandforge/internal/domain"
	"brandforge/internal/infra"
	"brandforge/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository on PostgreSQL. The claim
// queries rely on FOR UPDATE SKIP LOCKED so concurrent claimers never hand
// out the same job twice.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// Create inserts a new job record with status pending.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	if job.UserID == "" || job.SourceURL == "" {
		return fmt.Errorf("job requires user and source url: %w", domain.ErrInvalidInput)
	}
	if !domain.ValidCreativity(job.CreativityLevel) {
		return fmt.Errorf("creativity level %v out of range: %w", job.CreativityLevel, domain.ErrInvalidInput)
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertJob,
		job.UserID,
		job.SourceURL,
		job.Context,
		job.Purpose,
		job.OutputFormat,
		job.CreativityLevel,
		job.AdditionalInstructions,
		job.Locale,
		job.MaxRetries,
	)
	if err := row.Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	job.Status = domain.JobStatusPending
	job.Progress = domain.ProgressQueued
	return nil
}

// ClaimNextPending claims the oldest pending job, FIFO by creation time.
func (r *JobRepositoryPG) ClaimNextPending(ctx context.Context) (*domain.Job, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QClaimNextPendingJob)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("claim pending job: %w", err)
	}
	return job, nil
}

// ClaimRetryEligible claims up to limit failed jobs below the retry cap,
// oldest failure first.
func (r *JobRepositoryPG) ClaimRetryEligible(ctx context.Context, limit int) ([]*domain.Job, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.sql.Query(ctx, sqlinline.QClaimRetryEligibleJobs, limit)
	if err != nil {
		return nil, fmt.Errorf("claim retry-eligible jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan retry-eligible job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// UpdateStatus applies an atomic partial update to one job row.
func (r *JobRepositoryPG) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, progress int, patch domain.JobPatch) error {
	var stage *string
	if patch.ErrorStage != nil {
		s := string(*patch.ErrorStage)
		stage = &s
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateJobStatus,
		jobID,
		status,
		progress,
		patch.AnalysisOutput,
		patch.ContentOutput,
		patch.ErrorMessage,
		stage,
		patch.RetryCount,
	)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID fetches a job by its identifier. Soft-deleted jobs are invisible.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QGetJobByID, jobID)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListByUser returns a user's jobs, newest first.
func (r *JobRepositoryPG) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Job, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListJobsByUser, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// MarkStaleRunning fails running jobs untouched for longer than olderThan.
func (r *JobRepositoryPG) MarkStaleRunning(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkStaleRunningJobs, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("mark stale running jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Cancel moves a pending job to cancelled.
func (r *JobRepositoryPG) Cancel(ctx context.Context, jobID string) error {
	return r.guardedMutation(ctx, sqlinline.QCancelJob, jobID)
}

// Retry re-queues a failed job while it is still below the retry cap. The
// retry counter is not reset; manual retries count against the same cap as
// automatic ones.
func (r *JobRepositoryPG) Retry(ctx context.Context, jobID string) error {
	return r.guardedMutation(ctx, sqlinline.QRetryJob, jobID)
}

// SoftDelete hides a job from reads and from the scheduler.
func (r *JobRepositoryPG) SoftDelete(ctx context.Context, jobID string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QSoftDeleteJob, jobID)
	if err != nil {
		return fmt.Errorf("soft delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// guardedMutation runs a conditional status update and distinguishes a
// missing job from one in the wrong state.
func (r *JobRepositoryPG) guardedMutation(ctx context.Context, query, jobID string) error {
	tag, err := r.sql.Exec(ctx, query, jobID)
	if err != nil {
		return fmt.Errorf("job mutation: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, jobID); err != nil {
		return err
	}
	return domain.ErrInvalidTransition
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.SourceURL,
		&job.Context,
		&job.Purpose,
		&job.OutputFormat,
		&job.CreativityLevel,
		&job.AdditionalInstructions,
		&job.Locale,
		&job.Status,
		&job.Progress,
		&job.AnalysisOutput,
		&job.ContentOutput,
		&job.ErrorMessage,
		&job.ErrorStage,
		&job.RetryCount,
		&job.MaxRetries,
		&job.CreatedAt,
		&job.AnalysisCompletedAt,
		&job.ContentCompletedAt,
		&job.CompletedAt,
		&job.UpdatedAt,
		&job.DeletedAt,
	); err != nil {
		return nil, err
	}
	return &job, nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
