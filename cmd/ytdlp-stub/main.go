// Command ytdlp-stub is a stand-in for the yt-dlp binary used when
// exercising tubefetch without network access. It honors the flags the
// service passes: -J prints canned metadata JSON, download invocations
// create the output file the template describes.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrNoURL = errors.New("no URL found in arguments")

func main() {
	os.Exit(run(os.Args[1:]))
}

// stubInvocation is the subset of yt-dlp flags the stub understands
type stubInvocation struct {
	URL            string
	InfoOnly       bool
	OutputTemplate string
	ExtractAudio   bool
}

// run executes the stub logic and returns exit code
func run(args []string) int {
	inv, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}

	if inv.InfoOnly {
		fmt.Println(metadataJSON(inv.URL))
		return 0
	}

	if inv.OutputTemplate == "" {
		fmt.Fprintln(os.Stderr, "ERROR: no output template")
		return 1
	}

	if err := writeArtifact(inv); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}

	return 0
}

// parseArgs parses the yt-dlp style command line
func parseArgs(args []string) (*stubInvocation, error) {
	inv := &stubInvocation{}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-J":
			inv.InfoOnly = true
		case "-x":
			inv.ExtractAudio = true
		case "-o", "-f", "--audio-format", "--audio-quality", "--merge-output-format":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("flag %s missing value", arg)
			}
			if arg == "-o" {
				inv.OutputTemplate = args[i+1]
			}
			i++
		default:
			if strings.HasPrefix(strings.ToLower(arg), "http") {
				inv.URL = arg
			}
		}
	}

	if inv.URL == "" {
		return nil, ErrNoURL
	}

	return inv, nil
}

// writeArtifact creates the file a real download would have produced
func writeArtifact(inv *stubInvocation) error {
	ext := "mp4"
	if inv.ExtractAudio {
		ext = "mp3"
	}

	path := strings.ReplaceAll(inv.OutputTemplate, "%(ext)s", ext)
	return os.WriteFile(path, []byte("stub media"), 0644)
}

// metadataJSON returns canned metadata for a URL
func metadataJSON(videoURL string) string {
	return fmt.Sprintf(`{"id":"stub","title":"Stub Video","thumbnail":"https://example.com/thumb.jpg","duration":42,"uploader":"Stub Channel","webpage_url":%q}`, videoURL)
}
