package youtube

import (
	"errors"
	"net/url"
	"strings"
)

var ErrVideoIDNotFound = errors.New("video ID not found")

// ExtractVideoID extracts the canonical video ID from any supported
// YouTube URL shape. URL shapes are tried in order: youtu.be short
// links, watch pages, embed paths, /v/ paths. Parsing is structural,
// so trailing query parameters and fragments never leak into the ID.
// Scheme-less URLs ("youtube.com/watch?v=...") are accepted.
func ExtractVideoID(urlStr string) (string, error) {
	parsedURL, err := parseURL(urlStr)
	if err != nil {
		return "", ErrVideoIDNotFound
	}

	host := parsedURL.Hostname()

	// youtu.be short links
	if host == "youtu.be" {
		// Path is /VIDEO_ID
		videoID := strings.TrimPrefix(parsedURL.Path, "/")
		if i := strings.Index(videoID, "/"); i >= 0 {
			videoID = videoID[:i]
		}
		if videoID != "" {
			return videoID, nil
		}
		return "", ErrVideoIDNotFound
	}

	// youtube.com URLs
	if strings.Contains(host, "youtube.com") {
		// Check for /watch?v=VIDEO_ID
		if parsedURL.Path == "/watch" {
			videoID := parsedURL.Query().Get("v")
			if videoID != "" {
				return videoID, nil
			}
		}

		// Check for /embed/VIDEO_ID
		if strings.HasPrefix(parsedURL.Path, "/embed/") {
			videoID := strings.TrimPrefix(parsedURL.Path, "/embed/")
			if videoID != "" {
				return videoID, nil
			}
		}

		// Check for /v/VIDEO_ID
		if strings.HasPrefix(parsedURL.Path, "/v/") {
			videoID := strings.TrimPrefix(parsedURL.Path, "/v/")
			if videoID != "" {
				return videoID, nil
			}
		}
	}

	return "", ErrVideoIDNotFound
}

// IsYouTubeURL checks if URL is a YouTube URL
func IsYouTubeURL(urlStr string) bool {
	if urlStr == "" {
		return false
	}

	parsedURL, err := parseURL(urlStr)
	if err != nil {
		return false
	}

	host := parsedURL.Hostname()
	return strings.Contains(host, "youtube.com") || host == "youtu.be"
}

// parseURL parses urlStr, retrying with an https prefix when no scheme
// was given so that "youtube.com/..." parses with a real host.
func parseURL(urlStr string) (*url.URL, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	if parsedURL.Hostname() == "" {
		return url.Parse("https://" + urlStr)
	}

	return parsedURL, nil
}
