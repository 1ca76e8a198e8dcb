package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"brandforge/internal/domain"
	"brandforge/internal/middleware"

	"github.com/go-chi/chi/v5"
)

type createJobRequest struct {
	SourceURL              string   `json:"source_url"`
	Context                string   `json:"context"`
	Purpose                string   `json:"purpose"`
	OutputFormat           string   `json:"output_format"`
	CreativityLevel        *float64 `json:"creativity_level"`
	AdditionalInstructions string   `json:"additional_instructions"`
	Locale                 string   `json:"locale"`
}

type jobResponse struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	SourceURL       string  `json:"source_url"`
	Context         string  `json:"context,omitempty"`
	Purpose         string  `json:"purpose"`
	OutputFormat    string  `json:"output_format,omitempty"`
	CreativityLevel float64 `json:"creativity_level"`
	Locale          string  `json:"locale,omitempty"`

	Status   string `json:"status"`
	Progress int    `json:"progress"`

	AnalysisOutput *string `json:"analysis_output,omitempty"`
	ContentOutput  *string `json:"content_output,omitempty"`

	ErrorMessage string `json:"error_message,omitempty"`
	ErrorStage   string `json:"error_stage,omitempty"`
	RetryCount   int    `json:"retry_count"`
	MaxRetries   int    `json:"max_retries"`

	CreatedAt           time.Time  `json:"created_at"`
	AnalysisCompletedAt *time.Time `json:"analysis_completed_at,omitempty"`
	ContentCompletedAt  *time.Time `json:"content_completed_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func toJobResponse(job *domain.Job) jobResponse {
	return jobResponse{
		ID:                  job.ID,
		UserID:              job.UserID,
		SourceURL:           job.SourceURL,
		Context:             job.Context,
		Purpose:             job.Purpose,
		OutputFormat:        job.OutputFormat,
		CreativityLevel:     job.CreativityLevel,
		Locale:              job.Locale,
		Status:              string(job.Status),
		Progress:            job.Progress,
		AnalysisOutput:      job.AnalysisOutput,
		ContentOutput:       job.ContentOutput,
		ErrorMessage:        job.ErrorMessage,
		ErrorStage:          string(job.ErrorStage),
		RetryCount:          job.RetryCount,
		MaxRetries:          job.MaxRetries,
		CreatedAt:           job.CreatedAt,
		AnalysisCompletedAt: job.AnalysisCompletedAt,
		ContentCompletedAt:  job.ContentCompletedAt,
		CompletedAt:         job.CompletedAt,
		UpdatedAt:           job.UpdatedAt,
	}
}

func (a *App) CreateJob(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.SourceURL = strings.TrimSpace(req.SourceURL)
	req.Purpose = strings.TrimSpace(req.Purpose)
	if req.SourceURL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "source_url required")
		return
	}
	if u, err := url.Parse(req.SourceURL); err != nil || u.Scheme == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "source_url must be an absolute URL")
		return
	}
	if req.Purpose == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "purpose required")
		return
	}
	creativity := 1.0
	if req.CreativityLevel != nil {
		creativity = *req.CreativityLevel
	}
	if !domain.ValidCreativity(creativity) {
		a.error(w, http.StatusBadRequest, "bad_request", "creativity_level must be between 0 and 2")
		return
	}
	locale := strings.TrimSpace(req.Locale)
	if locale == "" {
		locale = middleware.LocaleFromContext(r.Context())
	}

	job := &domain.Job{
		UserID:                 userID,
		SourceURL:              req.SourceURL,
		Context:                strings.TrimSpace(req.Context),
		Purpose:                req.Purpose,
		OutputFormat:           strings.TrimSpace(req.OutputFormat),
		CreativityLevel:        creativity,
		AdditionalInstructions: strings.TrimSpace(req.AdditionalInstructions),
		Locale:                 locale,
		Status:                 domain.JobStatusPending,
		Progress:               domain.ProgressQueued,
		MaxRetries:             a.Config.MaxRetries,
	}
	if err := a.Jobs.Create(r.Context(), job); err != nil {
		a.Log.Error().Err(err).Str("user_id", userID).Msg("enqueue job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue job")
		return
	}
	a.json(w, http.StatusAccepted, toJobResponse(job))
}

func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJobForUser(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, toJobResponse(job))
}

func (a *App) ListJobs(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	jobs, err := a.Jobs.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load jobs")
		return
	}
	items := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, toJobResponse(job))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items, "limit": limit, "offset": offset})
}

func (a *App) CancelJob(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJobForUser(w, r)
	if !ok {
		return
	}
	if err := a.Jobs.Cancel(r.Context(), job.ID); err != nil {
		a.domainError(w, err, "job not found")
		return
	}
	updated, err := a.Jobs.GetByID(r.Context(), job.ID)
	if err != nil {
		a.domainError(w, err, "job not found")
		return
	}
	a.json(w, http.StatusOK, toJobResponse(updated))
}

func (a *App) RetryJob(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJobForUser(w, r)
	if !ok {
		return
	}
	if job.Status == domain.JobStatusError && !job.RetryEligible() {
		a.domainError(w, domain.ErrRetryExhausted, "job not found")
		return
	}
	if err := a.Jobs.Retry(r.Context(), job.ID); err != nil {
		a.domainError(w, err, "job not found")
		return
	}
	updated, err := a.Jobs.GetByID(r.Context(), job.ID)
	if err != nil {
		a.domainError(w, err, "job not found")
		return
	}
	a.json(w, http.StatusAccepted, toJobResponse(updated))
}

func (a *App) DeleteJob(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJobForUser(w, r)
	if !ok {
		return
	}
	if err := a.Jobs.SoftDelete(r.Context(), job.ID); err != nil {
		a.domainError(w, err, "job not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadJobForUser fetches the routed job and enforces ownership. Jobs owned by
// other users read as not found rather than forbidden.
func (a *App) loadJobForUser(w http.ResponseWriter, r *http.Request) (*domain.Job, bool) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return nil, false
	}
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return nil, false
	}
	job, err := a.Jobs.GetByID(r.Context(), jobID)
	if err != nil {
		a.domainError(w, err, "job not found")
		return nil, false
	}
	if job.UserID != userID {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return nil, false
	}
	return job, true
}
