package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxUploadBytes = 10 << 20

var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// UploadImage stores a brand image and returns the URL jobs can reference as
// their source.
func (a *App) UploadImage(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	if a.Files == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "uploads not configured")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "image file required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to read upload")
		return
	}
	if len(data) > maxUploadBytes {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "image exceeds 10MB limit")
		return
	}

	mime := header.Header.Get("Content-Type")
	ext, ok := allowedImageTypes[mime]
	if !ok {
		mime = http.DetectContentType(data)
		if ext, ok = allowedImageTypes[mime]; !ok {
			a.error(w, http.StatusUnsupportedMediaType, "unsupported_type", "only png, jpeg and webp images are accepted")
			return
		}
	}

	key := path.Join("uploads", userID, fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.NewString()[:8], ext))
	storedKey, err := a.Files.Write(r.Context(), key, data)
	if err != nil {
		a.Log.Error().Err(err).Str("user_id", userID).Msg("upload write failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store upload")
		return
	}

	a.json(w, http.StatusCreated, map[string]any{
		"storage_key": storedKey,
		"url":         strings.TrimRight(a.Config.StorageBaseURL, "/") + "/" + storedKey,
		"mime":        mime,
		"bytes":       len(data),
	})
}
