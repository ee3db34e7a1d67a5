// Package transcription defines the contract of an external speech to text service. Jobs are
// long running and only observable by querying their status.
package transcription

import (
	"context"
	"time"

	"github.com/sprucehealth/mediaindexer/libs/errors"
)

// Status is the state of a transcription job as reported by a provider.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Terminal returns true for statuses after which a job no longer changes.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ErrJobNotFound is returned when the provider has no job with the requested ID.
var ErrJobNotFound = errors.New("transcription: job not found")

// StartJobRequest describes a transcription job to start.
type StartJobRequest struct {
	JobName      string
	MediaURI     string
	MediaFormat  string
	LanguageCode string
	// OutputBucket is where the provider writes the transcript. Optional.
	OutputBucket string
}

// Job is a provider's view of a transcription job.
type Job struct {
	// ID is the handle used to query the job. For some providers it equals Name.
	ID            string
	Name          string
	Status        Status
	TranscriptURI string
	FailureReason string
	CreatedAt     time.Time
}

// Service is implemented by transcription providers.
type Service interface {
	StartJob(ctx context.Context, req *StartJobRequest) (*Job, error)
	Job(ctx context.Context, id string) (*Job, error)
}
