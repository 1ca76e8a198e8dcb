package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"brandforge/internal/domain"
	"brandforge/internal/infra"
	"brandforge/internal/middleware"
	"brandforge/internal/notify"
	"brandforge/internal/storage"
)

type App struct {
	Jobs     domain.JobRepository
	Reports  domain.ReportRepository
	Sessions domain.SessionRepository
	Hub      *notify.Hub
	Files    *storage.FileStore
	Config   *infra.Config
	Log      infra.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// domainError maps repository sentinels onto HTTP responses so every handler
// reports the same status for the same failure.
func (a *App) domainError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", notFoundMsg)
	case errors.Is(err, domain.ErrInvalidTransition):
		a.error(w, http.StatusConflict, "conflict", "job state does not allow this operation")
	case errors.Is(err, domain.ErrRetryExhausted):
		a.error(w, http.StatusConflict, "retry_exhausted", "job has no retries left")
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		a.error(w, http.StatusInternalServerError, "internal", "unexpected failure")
	}
}
