package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"brandforge/internal/domain"
)

const sessionReleaseTimeout = 5 * time.Second

// JobEvents streams job progress to the client as server-sent events. The
// stream opens with a snapshot of the current state, then forwards pipeline
// events until the job reaches a terminal state or the client disconnects.
func (a *App) JobEvents(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJobForUser(w, r)
	if !ok {
		return
	}
	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		a.error(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}

	events, cancel := a.Hub.Subscribe(job.ID)
	defer cancel()

	session := &domain.WatchSession{
		JobID:      job.ID,
		ObserverID: a.currentUserID(r),
		Active:     true,
		ExpiresAt:  time.Now().Add(time.Hour),
	}
	if err := a.Sessions.Create(r.Context(), session); err != nil {
		a.Log.Warn().Err(err).Str("job_id", job.ID).Msg("watch session not recorded")
	} else {
		defer func() {
			// The request context is already canceled when the client
			// disconnected, so the release runs on a detached context.
			ctx, release := context.WithTimeout(context.WithoutCancel(r.Context()), sessionReleaseTimeout)
			defer release()
			if err := a.Sessions.Deactivate(ctx, session.ID); err != nil {
				a.Log.Warn().Err(err).Str("session_id", session.ID).Msg("watch session not released")
			}
		}()
	}

	// Lift the server write deadline so the stream can outlive the
	// configured response timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent := func(status string, progress int, stage, message string) {
		payload, _ := json.Marshal(map[string]any{
			"job_id":   job.ID,
			"status":   status,
			"progress": progress,
			"stage":    stage,
			"message":  message,
		})
		fmt.Fprintf(w, "event: job\ndata: %s\n\n", payload)
		flusher.Flush()
	}

	writeEvent(string(job.Status), job.Progress, string(job.ErrorStage), job.ErrorMessage)
	if job.Terminal() {
		return
	}

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				return
			}
			writeEvent(string(ev.Status), ev.Progress, ev.Stage, ev.Message)
			switch ev.Status {
			case domain.JobStatusComplete, domain.JobStatusCancelled:
				return
			case domain.JobStatusError:
				// terminal only once retries are spent; keep streaming
				// while the scheduler may still pick the job back up
				if current, err := a.Jobs.GetByID(r.Context(), job.ID); err == nil && current.Terminal() {
					return
				}
			}
		}
	}
}
