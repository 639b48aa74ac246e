package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"tubefetch/internal/youtube"
	"tubefetch/pkg/models"
)

const maxDisplayTitleLength = 50

// handleInfo handles the /api/info endpoint
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	var req models.InfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL required")
		return
	}

	videoID, err := youtube.ExtractVideoID(req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid YouTube URL")
		return
	}

	meta, err := s.resolver.ExtractInfo(r.Context(), req.URL)
	if err != nil {
		s.logger.Printf("info: resolution failed for %s: %v", videoID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The canonical ID comes from the URL, not the engine
	meta.ID = videoID

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    meta,
	})
}

// handleDownload handles the /api/download endpoint
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	// Best-effort garbage collection of stale artifacts
	ttl := time.Duration(s.config.CacheTTLSeconds) * time.Second
	if err := s.store.Sweep(ttl); err != nil {
		s.logger.Printf("download: cache sweep failed: %v", err)
	}

	var req models.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL required")
		return
	}

	videoID, err := youtube.ExtractVideoID(req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid YouTube URL")
		return
	}

	format := models.ParseFormat(req.Format)
	quality := models.ParseQuality(req.Quality)

	// Resolve metadata first: validates the video is reachable and
	// provides the display title for delivery
	meta, err := s.resolver.ExtractInfo(r.Context(), req.URL)
	if err != nil {
		s.logger.Printf("download: resolution failed for %s: %v", videoID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx := r.Context()
	if s.config.DownloadTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.config.DownloadTimeoutSeconds)*time.Second)
		defer cancel()
	}

	artifact, err := s.orchestrator.Run(ctx, videoID, req.URL, format, quality)
	if err != nil {
		s.logger.Printf("download: failed for %s: %v", videoID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.deliver(w, r, artifact, meta.Title, format)
}

// deliver streams an artifact to the caller and deletes it once the
// transfer finishes. Removal happens whether the copy completed or
// the client disconnected; failures are logged only, the response is
// already underway.
func (s *Server) deliver(w http.ResponseWriter, r *http.Request, artifact, title string, format models.DownloadFormat) {
	f, err := os.Open(artifact)
	if err != nil {
		s.logger.Printf("deliver: failed to open artifact: %v", err)
		writeError(w, http.StatusInternalServerError, "Download failed")
		return
	}
	defer s.store.Remove(artifact)
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.logger.Printf("deliver: failed to stat artifact: %v", err)
		writeError(w, http.StatusInternalServerError, "Download failed")
		return
	}

	downloadName := fmt.Sprintf("%s.%s", SanitizeTitle(title), format)

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))

	if _, err := io.Copy(w, f); err != nil {
		// Client went away mid-stream; nothing to send back
		s.logger.Printf("deliver: transfer aborted: %v", err)
	}
}

// SanitizeTitle reduces a video title to a safe display filename:
// only ASCII alphanumerics, spaces, hyphens and underscores survive,
// trailing whitespace is trimmed and the result is capped at 50
// characters
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, c := range title {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == ' ', c == '-', c == '_':
			b.WriteRune(c)
		}
	}

	safe := strings.TrimRight(b.String(), " ")
	if len(safe) > maxDisplayTitleLength {
		safe = strings.TrimRight(safe[:maxDisplayTitleLength], " ")
	}

	if safe == "" {
		return "video"
	}

	return safe
}
