package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tubefetch/internal/cache"
	"tubefetch/internal/download"
	"tubefetch/internal/ytdlp"
	"tubefetch/pkg/models"
)

// fakeResolver returns canned metadata
type fakeResolver struct {
	meta *models.VideoMetadata
	err  error
	hits int
}

func (f *fakeResolver) ExtractInfo(ctx context.Context, url string) (*models.VideoMetadata, error) {
	f.hits++
	if f.err != nil {
		return nil, f.err
	}
	meta := *f.meta
	return &meta, nil
}

// fakeEngine creates artifacts the way a real engine would
type fakeEngine struct {
	produceExt string
	err        error
	hits       int
}

func (f *fakeEngine) Download(ctx context.Context, opts ytdlp.DownloadOptions) error {
	f.hits++
	if f.err != nil {
		return f.err
	}
	stem := strings.TrimSuffix(opts.OutputTemplate, ".%(ext)s")
	return os.WriteFile(stem+"."+f.produceExt, []byte("media bytes"), 0644)
}

func newTestServer(t *testing.T, resolver *fakeResolver, engine *fakeEngine) (*Server, *cache.Store) {
	t.Helper()

	logger := log.New(io.Discard, "", 0)
	store, err := cache.NewStore(t.TempDir(), logger)
	require.NoError(t, err)

	cfg := models.DefaultConfig()
	orch := download.NewOrchestrator(engine, store, logger)

	return NewServer(cfg, store, resolver, orch, logger), store
}

func testMetadata() *models.VideoMetadata {
	thumb := "https://i.ytimg.com/vi/dQw4w9WgXcQ/hq720.jpg"
	duration := 212.0
	channel := "Rick Astley"
	return &models.VideoMetadata{
		ID:              "dQw4w9WgXcQ",
		Title:           "Never Gonna Give You Up",
		Thumbnail:       &thumb,
		DurationSeconds: &duration,
		Channel:         &channel,
	}
}

func postJSON(t *testing.T, server *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	return w
}

func TestHandleInfo(t *testing.T) {
	tests := []struct {
		name             string
		body             string
		resolverErr      error
		wantStatusCode   int
		wantResolverHits int
		check            func(t *testing.T, body map[string]interface{})
	}{
		{
			name:             "valid URL",
			body:             `{"url":"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}`,
			wantStatusCode:   http.StatusOK,
			wantResolverHits: 1,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, true, body["success"])
				data := body["data"].(map[string]interface{})
				assert.Equal(t, "dQw4w9WgXcQ", data["id"])
				assert.Equal(t, "Never Gonna Give You Up", data["title"])
				assert.Equal(t, "Rick Astley", data["channel"])
			},
		},
		{
			name:             "missing URL",
			body:             `{}`,
			wantStatusCode:   http.StatusBadRequest,
			wantResolverHits: 0,
		},
		{
			name:             "malformed body",
			body:             `{not json`,
			wantStatusCode:   http.StatusBadRequest,
			wantResolverHits: 0,
		},
		{
			name:             "non-YouTube URL",
			body:             `{"url":"https://example.com/video"}`,
			wantStatusCode:   http.StatusBadRequest,
			wantResolverHits: 0,
		},
		{
			name:             "resolution failure",
			body:             `{"url":"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}`,
			resolverErr:      errors.New("Video unavailable"),
			wantStatusCode:   http.StatusInternalServerError,
			wantResolverHits: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &fakeResolver{meta: testMetadata(), err: tt.resolverErr}
			server, _ := newTestServer(t, resolver, &fakeEngine{produceExt: "mp4"})

			w := postJSON(t, server, "/api/info", tt.body)
			assert.Equal(t, tt.wantStatusCode, w.Code)
			assert.Equal(t, tt.wantResolverHits, resolver.hits, "resolver must not be hit on invalid requests")

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

			if tt.wantStatusCode != http.StatusOK {
				assert.Equal(t, false, body["success"])
				assert.NotEmpty(t, body["error"])
				return
			}
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func TestHandleInfoNullOptionalFields(t *testing.T) {
	resolver := &fakeResolver{meta: &models.VideoMetadata{ID: "abc", Title: "Bare"}}
	server, _ := newTestServer(t, resolver, &fakeEngine{produceExt: "mp4"})

	w := postJSON(t, server, "/api/info", `{"url":"https://youtu.be/abc"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `"thumbnail":null`)
	assert.Contains(t, body, `"duration":null`)
	assert.Contains(t, body, `"channel":null`)
}

func TestHandleDownloadInvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing url", `{}`},
		{"not a url", `{"url":"not a url"}`},
		{"non-YouTube url", `{"url":"https://example.com/clip.mp4"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &fakeResolver{meta: testMetadata()}
			engine := &fakeEngine{produceExt: "mp4"}
			server, _ := newTestServer(t, resolver, engine)

			w := postJSON(t, server, "/api/download", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"success":false`)
			assert.Equal(t, 0, resolver.hits)
			assert.Equal(t, 0, engine.hits, "no engine call for rejected requests")
		})
	}
}

func TestHandleDownloadAudio(t *testing.T) {
	resolver := &fakeResolver{meta: testMetadata()}
	engine := &fakeEngine{produceExt: "mp3"}
	server, store := newTestServer(t, resolver, engine)

	w := postJSON(t, server, "/api/download", `{"url":"https://www.youtube.com/watch?v=dQw4w9WgXcQ","format":"mp3"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Never Gonna Give You Up.mp3"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "media bytes", w.Body.String())

	// Artifact is removed once delivered
	assert.Equal(t, 0, store.Count())
}

func TestHandleDownloadVideo(t *testing.T) {
	resolver := &fakeResolver{meta: testMetadata()}
	engine := &fakeEngine{produceExt: "mp4"}
	server, store := newTestServer(t, resolver, engine)

	w := postJSON(t, server, "/api/download", `{"url":"https://youtu.be/dQw4w9WgXcQ","quality":"480"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasSuffix(w.Header().Get("Content-Disposition"), `.mp4"`))
	assert.Equal(t, 0, store.Count())
}

func TestHandleDownloadResolutionFailure(t *testing.T) {
	resolver := &fakeResolver{meta: testMetadata(), err: errors.New("network unreachable")}
	engine := &fakeEngine{produceExt: "mp4"}
	server, _ := newTestServer(t, resolver, engine)

	w := postJSON(t, server, "/api/download", `{"url":"https://youtu.be/dQw4w9WgXcQ"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "network unreachable")
	assert.Equal(t, 0, engine.hits, "no download after failed resolution")
}

func TestHandleDownloadEngineFailure(t *testing.T) {
	resolver := &fakeResolver{meta: testMetadata()}
	engine := &fakeEngine{err: errors.New("no formats found")}
	server, _ := newTestServer(t, resolver, engine)

	w := postJSON(t, server, "/api/download", `{"url":"https://youtu.be/dQw4w9WgXcQ"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestHandleDownloadSweepsStaleFiles(t *testing.T) {
	resolver := &fakeResolver{meta: testMetadata()}
	engine := &fakeEngine{produceExt: "mp4"}
	server, store := newTestServer(t, resolver, engine)

	// Plant a stale artifact from a crashed request
	stale := filepath.Join(store.Path(), "deadbeef.mp4")
	require.NoError(t, os.WriteFile(stale, []byte("orphan"), 0644))
	old := timeHourAgo(t, 2)
	require.NoError(t, os.Chtimes(stale, old, old))

	w := postJSON(t, server, "/api/download", `{"url":"https://youtu.be/dQw4w9WgXcQ"}`)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale artifact should be swept before downloading")
}

func timeHourAgo(t *testing.T, hours int) time.Time {
	t.Helper()
	return time.Now().Add(-time.Duration(hours) * time.Hour)
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			name:  "clean title untouched",
			title: "Never Gonna Give You Up",
			want:  "Never Gonna Give You Up",
		},
		{
			name:  "special characters stripped",
			title: `Video: "Official" <HD> [2024] / \ | ? *`,
			want:  "Video Official HD 2024",
		},
		{
			name:  "unicode stripped",
			title: "日本語タイトル mixed Title",
			want:  "mixed Title",
		},
		{
			name:  "trailing whitespace trimmed",
			title: "Title!!!   ",
			want:  "Title",
		},
		{
			name:  "long title truncated to 50",
			title: strings.Repeat("a", 80),
			want:  strings.Repeat("a", 50),
		},
		{
			name:  "empty falls back",
			title: "",
			want:  "video",
		},
		{
			name:  "only special characters falls back",
			title: "!!!???",
			want:  "video",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeTitle(tt.title)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), 50)
			assert.Regexp(t, `^[A-Za-z0-9 _-]+$`, got)
		})
	}
}
