package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"brandforge/internal/domain"
	"brandforge/internal/infra"
	"brandforge/internal/sqlinline"
)

// SessionRepositoryPG implements domain.SessionRepository on PostgreSQL.
type SessionRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewSessionRepository(sql infra.SQLExecutor) *SessionRepositoryPG {
	return &SessionRepositoryPG{sql: sql}
}

func (r *SessionRepositoryPG) Create(ctx context.Context, session *domain.WatchSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.ExpiresAt.IsZero() {
		session.ExpiresAt = time.Now().Add(time.Hour)
	}
	_, err := r.sql.Exec(ctx, sqlinline.QInsertSession,
		session.ID, session.JobID, session.ObserverID, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	session.Active = true
	return nil
}

func (r *SessionRepositoryPG) Deactivate(ctx context.Context, sessionID string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QDeactivateSession, sessionID)
	if err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	return nil
}

func (r *SessionRepositoryPG) ActiveForJob(ctx context.Context, jobID string) ([]*domain.WatchSession, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QActiveSessionsForJob, jobID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.WatchSession
	for rows.Next() {
		var s domain.WatchSession
		if err := rows.Scan(&s.ID, &s.JobID, &s.ObserverID, &s.Active, &s.ExpiresAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

func (r *SessionRepositoryPG) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QExpireSessions, now)
	if err != nil {
		return 0, fmt.Errorf("expire sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ domain.SessionRepository = (*SessionRepositoryPG)(nil)
