package models

// DownloadFormat represents the requested output format
type DownloadFormat int

const (
	FormatMP4 DownloadFormat = iota
	FormatMP3
)

func (f DownloadFormat) String() string {
	switch f {
	case FormatMP3:
		return "mp3"
	case FormatMP4:
		return "mp4"
	default:
		return "unknown"
	}
}

// ContentType returns the MIME type to serve the artifact with
func (f DownloadFormat) ContentType() string {
	if f == FormatMP3 {
		return "audio/mpeg"
	}
	return "video/mp4"
}

// IsAudio reports whether the format is audio-only
func (f DownloadFormat) IsAudio() bool {
	return f == FormatMP3
}

// ParseFormat parses a wire format value, defaulting to mp4
func ParseFormat(s string) DownloadFormat {
	if s == "mp3" {
		return FormatMP3
	}
	return FormatMP4
}

// Quality represents the requested video height cap (or audio quality tier)
type Quality int

const (
	Quality360 Quality = 360
	Quality480 Quality = 480
	Quality720 Quality = 720
)

func (q Quality) String() string {
	switch q {
	case Quality360:
		return "360"
	case Quality480:
		return "480"
	default:
		return "720"
	}
}

// Height returns the maximum stream height for video selection
func (q Quality) Height() int {
	return int(q)
}

// ParseQuality parses a wire quality value. An absent value defaults
// to 720; any unrecognized value lands on the lowest tier.
func ParseQuality(s string) Quality {
	switch s {
	case "", "720":
		return Quality720
	case "480":
		return Quality480
	default:
		return Quality360
	}
}

// VideoMetadata is the normalized projection of what the extraction
// engine reports for a video. Optional fields are pointers so absent
// values serialize as null instead of being fabricated.
type VideoMetadata struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Thumbnail       *string  `json:"thumbnail"`
	DurationSeconds *float64 `json:"duration"`
	Channel         *string  `json:"channel"`
}

// DownloadRequest is the wire body of a download request
type DownloadRequest struct {
	URL     string `json:"url"`
	Format  string `json:"format"`
	Quality string `json:"quality"`
}

// InfoRequest is the wire body of a metadata request
type InfoRequest struct {
	URL string `json:"url"`
}
