package download

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"tubefetch/pkg/models"
)

// jobNameLength keeps filenames short while making same-instant
// collisions between distinct requests negligible
const jobNameLength = 8

// NewJobName derives the filename stem for one download job from the
// video ID, format, quality and a time salt. The salt ensures two
// requests for the same video get distinct stems. Known limitation:
// the truncated hash admits a theoretical collision between two
// near-simultaneous identical requests, which results in a silent
// file overwrite. This is a naming convenience, not a security
// boundary.
func NewJobName(videoID string, format models.DownloadFormat, quality models.Quality, salt time.Time) string {
	input := fmt.Sprintf("%s%s%s%d", videoID, format, quality, salt.UnixNano())
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])[:jobNameLength]
}
