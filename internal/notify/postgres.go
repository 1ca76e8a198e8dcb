package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"brandforge/internal/infra"
	"brandforge/internal/sqlinline"
)

// jobEventsChannel is the Postgres NOTIFY channel that carries job events
// from the worker process to the API process. The worker publishes through
// PGPublisher; the API runs a PGListener that relays into its in-process
// hub for the SSE subscribers.
const jobEventsChannel = "job_events"

const (
	publishTimeout = 5 * time.Second
	reconnectDelay = time.Second
)

// PGPublisher pushes job events through Postgres NOTIFY so observers in
// other processes receive them. Publishing is best effort like the hub:
// a failed notify costs observers one update, the job record stays correct.
type PGPublisher struct {
	sql    infra.SQLExecutor
	logger infra.Logger
}

func NewPGPublisher(sql infra.SQLExecutor, logger infra.Logger) *PGPublisher {
	return &PGPublisher{sql: sql, logger: logger}
}

func (p *PGPublisher) Publish(event JobEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Str("job_id", event.JobID).Msg("notify: encode event failed")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if _, err := p.sql.Exec(ctx, sqlinline.QNotifyJobEvent, jobEventsChannel, string(payload)); err != nil {
		p.logger.Warn().Err(err).Str("job_id", event.JobID).Msg("notify: publish failed")
	}
}

// PGListener holds one dedicated connection on LISTEN and relays every
// received payload into the hub.
type PGListener struct {
	pool   *pgxpool.Pool
	hub    *Hub
	logger infra.Logger
}

func NewPGListener(pool *pgxpool.Pool, hub *Hub, logger infra.Logger) *PGListener {
	return &PGListener{pool: pool, hub: hub, logger: logger}
}

// Run blocks relaying notifications until ctx is done, re-acquiring the
// connection after failures. Missed notifications during a reconnect are
// not replayed; the SSE stream's snapshot covers the gap on reconnect.
func (l *PGListener) Run(ctx context.Context) {
	for {
		if err := l.listen(ctx); err != nil && ctx.Err() == nil {
			l.logger.Error().Err(err).Msg("notify: listener connection lost")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (l *PGListener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("notify: acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "listen "+jobEventsChannel); err != nil {
		return fmt.Errorf("notify: listen %s: %w", jobEventsChannel, err)
	}
	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.dispatch([]byte(notification.Payload))
	}
}

// dispatch decodes one relayed payload and fans it out to subscribers.
func (l *PGListener) dispatch(payload []byte) {
	var event JobEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		l.logger.Warn().Err(err).Msg("notify: drop undecodable event payload")
		return
	}
	l.hub.Publish(event)
}
