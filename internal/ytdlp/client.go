package ytdlp

import (
	"context"
	"encoding/json"
	"log"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"tubefetch/pkg/models"
)

var (
	ErrExtractionFailed = errors.New("extraction failed")
	ErrNoTitle          = errors.New("engine returned no title")
)

// DownloadOptions describes one engine download invocation
type DownloadOptions struct {
	URL            string
	FormatSelector string
	OutputTemplate string
	ExtractAudio   bool
	AudioQuality   string
	MergeContainer string
}

// Client invokes the yt-dlp binary
type Client struct {
	binPath        string
	additionalArgs string
	logger         *log.Logger
}

// NewClient creates a client for the given yt-dlp binary
func NewClient(binPath, additionalArgs string, logger *log.Logger) *Client {
	return &Client{
		binPath:        binPath,
		additionalArgs: additionalArgs,
		logger:         logger,
	}
}

// infoJSON matches the subset of yt-dlp -J output we project
type infoJSON struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Thumbnail string   `json:"thumbnail"`
	Duration  *float64 `json:"duration"`
	Uploader  string   `json:"uploader"`
}

// ExtractInfo fetches metadata for a URL without downloading anything.
// A response without a title is treated as a failure, never as an
// empty-string success; other absent fields project to nil.
func (c *Client) ExtractInfo(ctx context.Context, videoURL string) (*models.VideoMetadata, error) {
	args := []string{
		"-J",
		"--no-playlist",
		"--no-warnings",
		videoURL,
	}

	cmd := exec.CommandContext(ctx, c.binPath, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrapf(ErrExtractionFailed, "%s", commandError(err))
	}

	var data infoJSON
	if err := json.Unmarshal(output, &data); err != nil {
		return nil, errors.Wrap(err, "failed to parse engine metadata")
	}

	if data.Title == "" {
		return nil, ErrNoTitle
	}

	meta := &models.VideoMetadata{
		ID:              data.ID,
		Title:           data.Title,
		DurationSeconds: data.Duration,
	}
	if data.Thumbnail != "" {
		meta.Thumbnail = &data.Thumbnail
	}
	if data.Uploader != "" {
		meta.Channel = &data.Uploader
	}

	return meta, nil
}

// Download fetches and transcodes a video per the given options.
// The engine appends the output extension itself, so the template
// should carry a %(ext)s placeholder.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) error {
	args := []string{
		"--no-playlist",
		"--no-warnings",
		"--quiet",
		"-f", opts.FormatSelector,
		"-o", opts.OutputTemplate,
	}

	if opts.ExtractAudio {
		args = append(args, "-x", "--audio-format", "mp3")
		if opts.AudioQuality != "" {
			args = append(args, "--audio-quality", opts.AudioQuality)
		}
	} else if opts.MergeContainer != "" {
		args = append(args, "--merge-output-format", opts.MergeContainer)
	}

	if c.additionalArgs != "" {
		args = append(args, strings.Fields(c.additionalArgs)...)
	}

	args = append(args, opts.URL)

	cmd := exec.CommandContext(ctx, c.binPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "yt-dlp failed: %s", strings.TrimSpace(string(output)))
	}

	return nil
}

// commandError extracts stderr from an exec error when available
func commandError(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return strings.TrimSpace(string(exitErr.Stderr))
	}
	return err.Error()
}
