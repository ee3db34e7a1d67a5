package progress

import (
	"strconv"
	"strings"
	"time"

	"github.com/sprucehealth/mediaindexer/libs/errors"
)

const jobNamePrefix = "transcribe-"

// ErrBadJobName is returned when a job name doesn't follow the naming convention.
var ErrBadJobName = errors.New("progress: bad job name")

// JobName returns the name of a transcription job for the media submitted at t. Including the
// time lets the same media be submitted again without colliding with an earlier job.
func JobName(mediaID string, t time.Time) string {
	return jobNamePrefix + mediaID + "-" + strconv.FormatInt(t.Unix(), 10)
}

// ParseJobName is the inverse of JobName. The media ID may contain hyphens since the
// timestamp is always the last segment.
func ParseJobName(name string) (mediaID string, submittedAt time.Time, err error) {
	if !strings.HasPrefix(name, jobNamePrefix) {
		return "", time.Time{}, errors.Annotatef(ErrBadJobName, "name=%q", name)
	}
	rest := name[len(jobNamePrefix):]
	i := strings.LastIndexByte(rest, '-')
	if i <= 0 {
		return "", time.Time{}, errors.Annotatef(ErrBadJobName, "name=%q", name)
	}
	ts := rest[i+1:]
	if ts == "" || strings.TrimLeft(ts, "0123456789") != "" {
		return "", time.Time{}, errors.Annotatef(ErrBadJobName, "name=%q", name)
	}
	secs, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", time.Time{}, errors.Annotatef(ErrBadJobName, "name=%q", name)
	}
	return rest[:i], time.Unix(secs, 0), nil
}

// SanitizeMediaID turns a content derived value such as an S3 ETag into a media ID that is
// safe to embed in job names and object keys.
func SanitizeMediaID(s string) string {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '.', r == '_', r == '-':
			return r
		}
		return '_'
	}, s)
}
