package domain

import "time"

// WatchSession maps an external observer to a job so completions can be
// pushed to it. Purely a fan-out routing aid, never authoritative state.
type WatchSession struct {
	ID         string
	JobID      string
	ObserverID string
	Active     bool
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// Expired reports whether the session has passed its expiry.
func (s *WatchSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
