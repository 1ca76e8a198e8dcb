package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"brandforge/internal/domain"
)

type reportResponse struct {
	ID        string                `json:"id"`
	JobID     string                `json:"job_id"`
	Palette   []string              `json:"palette"`
	Mood      string                `json:"mood,omitempty"`
	Style     string                `json:"style,omitempty"`
	Subjects  []string              `json:"subjects"`
	Pieces    []domain.ContentPiece `json:"pieces"`
	Rating    *int                  `json:"rating,omitempty"`
	Feedback  string                `json:"feedback,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

func (a *App) GetReport(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJobForUser(w, r)
	if !ok {
		return
	}
	report, err := a.Reports.GetByJobID(r.Context(), job.ID)
	if err != nil {
		a.domainError(w, err, "no report for this job")
		return
	}
	a.json(w, http.StatusOK, reportResponse{
		ID:        report.ID,
		JobID:     report.JobID,
		Palette:   report.Palette,
		Mood:      report.Mood,
		Style:     report.Style,
		Subjects:  report.Subjects,
		Pieces:    report.Pieces,
		Rating:    report.Rating,
		Feedback:  report.Feedback,
		CreatedAt: report.CreatedAt,
	})
}

type feedbackRequest struct {
	Rating   *int   `json:"rating"`
	Feedback string `json:"feedback"`
}

func (a *App) SaveReportFeedback(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJobForUser(w, r)
	if !ok {
		return
	}
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		a.error(w, http.StatusBadRequest, "bad_request", "rating must be between 1 and 5")
		return
	}
	if req.Rating == nil && strings.TrimSpace(req.Feedback) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "rating or feedback required")
		return
	}
	if err := a.Reports.SaveFeedback(r.Context(), job.ID, req.Rating, strings.TrimSpace(req.Feedback)); err != nil {
		a.domainError(w, err, "no report for this job")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
