package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"brandforge/internal/domain"
	"brandforge/internal/infra"
	"brandforge/internal/sqlinline"
)

// ReportRepositoryPG implements domain.ReportRepository on PostgreSQL.
// Palette, subjects and pieces are stored as JSONB blobs; the report is a
// denormalized projection, not a query surface for individual pieces.
type ReportRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewReportRepository(sql infra.SQLExecutor) *ReportRepositoryPG {
	return &ReportRepositoryPG{sql: sql}
}

// Upsert inserts the report once per job; conflicting inserts are no-ops so
// a re-processed job can never produce a duplicate.
func (r *ReportRepositoryPG) Upsert(ctx context.Context, report *domain.BrandReport) error {
	palette, err := json.Marshal(report.Palette)
	if err != nil {
		return fmt.Errorf("encode palette: %w", err)
	}
	subjects, err := json.Marshal(report.Subjects)
	if err != nil {
		return fmt.Errorf("encode subjects: %w", err)
	}
	pieces, err := json.Marshal(report.Pieces)
	if err != nil {
		return fmt.Errorf("encode pieces: %w", err)
	}
	_, err = r.sql.Exec(ctx, sqlinline.QUpsertReport,
		report.JobID, palette, report.Mood, report.Style, subjects, pieces)
	if err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}
	return nil
}

func (r *ReportRepositoryPG) GetByJobID(ctx context.Context, jobID string) (*domain.BrandReport, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QGetReportByJobID, jobID)
	var (
		report   domain.BrandReport
		palette  []byte
		subjects []byte
		pieces   []byte
	)
	if err := row.Scan(
		&report.ID,
		&report.JobID,
		&palette,
		&report.Mood,
		&report.Style,
		&subjects,
		&pieces,
		&report.Rating,
		&report.Feedback,
		&report.CreatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	if len(palette) > 0 {
		_ = json.Unmarshal(palette, &report.Palette)
	}
	if len(subjects) > 0 {
		_ = json.Unmarshal(subjects, &report.Subjects)
	}
	if len(pieces) > 0 {
		_ = json.Unmarshal(pieces, &report.Pieces)
	}
	return &report, nil
}

func (r *ReportRepositoryPG) SaveFeedback(ctx context.Context, jobID string, rating *int, feedback string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QSaveReportFeedback, jobID, rating, feedback)
	if err != nil {
		return fmt.Errorf("save report feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.ReportRepository = (*ReportRepositoryPG)(nil)
