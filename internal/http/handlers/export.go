package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"brandforge/pkg/zip"
)

// ExportJob bundles a completed job's raw model outputs and its structured
// report into a downloadable zip archive.
func (a *App) ExportJob(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJobForUser(w, r)
	if !ok {
		return
	}
	if job.AnalysisOutput == nil && job.ContentOutput == nil {
		a.error(w, http.StatusConflict, "conflict", "job has no outputs to export yet")
		return
	}

	var assets []zip.Asset
	if job.AnalysisOutput != nil {
		assets = append(assets, zip.Asset{
			Filename: "analysis.json",
			MIME:     "application/json",
			Data:     []byte(*job.AnalysisOutput),
		})
	}
	if job.ContentOutput != nil {
		assets = append(assets, zip.Asset{
			Filename: "content.json",
			MIME:     "application/json",
			Data:     []byte(*job.ContentOutput),
		})
	}
	if report, err := a.Reports.GetByJobID(r.Context(), job.ID); err == nil {
		if data, err := json.MarshalIndent(report, "", "  "); err == nil {
			assets = append(assets, zip.Asset{Filename: "report.json", MIME: "application/json", Data: data})
		}
	}
	if key := sourceStorageKey(job.SourceURL, a.Config.StorageBaseURL); key != "" {
		if data, err := a.Files.Read(r.Context(), key); err == nil {
			assets = append(assets, zip.Asset{Filename: "source" + extensionFor(key), Data: data})
		}
	}

	archive := zip.ArchiveAssets(assets)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=job-%s.zip", job.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// sourceStorageKey maps a source URL back onto a local storage key when the
// image was uploaded through this service, "" otherwise.
func sourceStorageKey(sourceURL, baseURL string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" || !strings.HasPrefix(sourceURL, baseURL+"/") {
		return ""
	}
	return strings.TrimPrefix(sourceURL, baseURL+"/")
}

func extensionFor(key string) string {
	if idx := strings.LastIndex(key, "."); idx >= 0 {
		return key[idx:]
	}
	return ""
}
