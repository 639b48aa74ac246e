package download

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tubefetch/internal/cache"
	"tubefetch/internal/ytdlp"
	"tubefetch/pkg/models"
)

// artifactExtensions is the probe order for locating the file the
// engine actually produced. The output extension is only known after
// the fact, so discovery is by candidate probing.
var artifactExtensions = []string{"mp3", "mp4", "m4a", "webm", "mkv"}

// Engine is the capability the orchestrator needs from the external
// extraction/transcode engine
type Engine interface {
	Download(ctx context.Context, opts ytdlp.DownloadOptions) error
}

// ArtifactMissingError reports a download where the engine returned
// success but no artifact could be located. This indicates a naming
// or probing bug rather than a source-content problem, so it carries
// the expected stem and a directory snapshot for diagnosis.
type ArtifactMissingError struct {
	Stem     string
	Dir      string
	Snapshot []string
}

func (e *ArtifactMissingError) Error() string {
	return fmt.Sprintf("artifact missing after successful extraction: stem %q in %s (directory: [%s])",
		e.Stem, e.Dir, strings.Join(e.Snapshot, ", "))
}

// Job describes one in-flight download
type Job struct {
	ID        uuid.UUID `json:"id"`
	VideoID   string    `json:"videoId"`
	Format    string    `json:"format"`
	Quality   string    `json:"quality"`
	StartedAt time.Time `json:"startedAt"`
}

// Orchestrator runs download/transcode jobs against the engine and
// locates the produced artifact in the cache directory
type Orchestrator struct {
	engine Engine
	store  *cache.Store
	logger *log.Logger

	mu     sync.RWMutex
	active map[uuid.UUID]*Job
}

// NewOrchestrator creates a new download orchestrator
func NewOrchestrator(engine Engine, store *cache.Store, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		engine: engine,
		store:  store,
		logger: logger,
		active: make(map[uuid.UUID]*Job),
	}
}

// FormatSelector returns the engine format specification for the
// requested format and quality. Video selectors carry a three-level
// fallback chain: height-capped mp4+m4a, then best at or below the
// cap, then best regardless of height. Strict height caps frequently
// match nothing for a given source, so the unconditional tail is
// required for the request to still produce a result.
func FormatSelector(format models.DownloadFormat, quality models.Quality) string {
	if format.IsAudio() {
		return "bestaudio/best"
	}

	h := quality.Height()
	return fmt.Sprintf("bestvideo[height<=%d][ext=mp4]+bestaudio[ext=m4a]/best[height<=%d]/best", h, h)
}

// Run downloads and transcodes one video, returning the artifact path.
// The engine call performs real network I/O and transcoding and may
// take seconds to minutes; callers bound it via ctx.
func (o *Orchestrator) Run(ctx context.Context, videoID, videoURL string, format models.DownloadFormat, quality models.Quality) (string, error) {
	stem := NewJobName(videoID, format, quality, time.Now())

	job := o.register(videoID, format, quality)
	defer o.deregister(job.ID)

	opts := ytdlp.DownloadOptions{
		URL:            videoURL,
		FormatSelector: FormatSelector(format, quality),
		OutputTemplate: filepath.Join(o.store.Path(), stem+".%(ext)s"),
	}

	if format.IsAudio() {
		opts.ExtractAudio = true
		opts.AudioQuality = quality.String()
	} else {
		opts.MergeContainer = "mp4"
	}

	if err := o.engine.Download(ctx, opts); err != nil {
		return "", err
	}

	path, err := o.locateArtifact(stem)
	if err != nil {
		return "", err
	}

	o.logger.Printf("download completed for %s (%s)", videoID, filepath.Base(path))

	return path, nil
}

// locateArtifact probes the candidate extensions in priority order to
// find which file the engine produced
func (o *Orchestrator) locateArtifact(stem string) (string, error) {
	for _, ext := range artifactExtensions {
		candidate := filepath.Join(o.store.Path(), stem+"."+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	// Output templates without a placeholder leave the bare stem
	bare := filepath.Join(o.store.Path(), stem)
	if info, err := os.Stat(bare); err == nil && !info.IsDir() {
		return bare, nil
	}

	return "", &ArtifactMissingError{
		Stem:     stem,
		Dir:      o.store.Path(),
		Snapshot: o.snapshotDir(),
	}
}

// snapshotDir lists the cache directory for diagnostics
func (o *Orchestrator) snapshotDir() []string {
	entries, err := os.ReadDir(o.store.Path())
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	return names
}

// register adds an in-flight job to the registry
func (o *Orchestrator) register(videoID string, format models.DownloadFormat, quality models.Quality) *Job {
	o.mu.Lock()
	defer o.mu.Unlock()

	job := &Job{
		ID:        uuid.Must(uuid.NewV7()),
		VideoID:   videoID,
		Format:    format.String(),
		Quality:   quality.String(),
		StartedAt: time.Now(),
	}
	o.active[job.ID] = job

	return job
}

// deregister removes a finished job from the registry
func (o *Orchestrator) deregister(id uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, id)
}

// Active returns a snapshot of in-flight jobs
func (o *Orchestrator) Active() []Job {
	o.mu.RLock()
	defer o.mu.RUnlock()

	jobs := make([]Job, 0, len(o.active))
	for _, job := range o.active {
		jobs = append(jobs, *job)
	}

	return jobs
}
