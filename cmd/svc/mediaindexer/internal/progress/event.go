// Package progress defines the events the pipeline stages exchange through the progress queue.
package progress

import (
	"encoding/json"
	"time"

	"github.com/sprucehealth/mediaindexer/libs/errors"
)

// Kind identifies the payload type of an Event.
type Kind string

const (
	// KindJobStarted is emitted after a transcription job was accepted by the provider.
	KindJobStarted Kind = "JOB_STARTED"
)

var (
	// ErrUnknownKind is returned when asking for a payload of a kind this package doesn't know.
	ErrUnknownKind = errors.New("progress: unknown event kind")
	// ErrBadPayload is returned when the payload doesn't match its kind.
	ErrBadPayload = errors.New("progress: bad payload")
	// ErrMissingKind is returned when decoding an envelope without a kind.
	ErrMissingKind = errors.New("progress: missing event kind")
)

// Event is the envelope published on the progress queue.
type Event struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JobDescriptor identifies a submitted transcription job and the media it belongs to.
type JobDescriptor struct {
	JobName string `json:"jobName"`
	// JobID is the provider's handle for the job. Empty means the same as JobName.
	JobID       string    `json:"jobId,omitempty"`
	MediaID     string    `json:"mediaId,omitempty"`
	MediaURI    string    `json:"mediaUri,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// JobStarted is the payload of a KindJobStarted event.
type JobStarted struct {
	Job JobDescriptor `json:"jobDescriptor"`
}

// NewJobStarted returns a KindJobStarted event for the job.
func NewJobStarted(job JobDescriptor) (*Event, error) {
	b, err := json.Marshal(&JobStarted{Job: job})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Event{Kind: KindJobStarted, Payload: b}, nil
}

// Decode parses a serialized event. Events of unknown kinds decode successfully but an
// envelope must name its kind.
func Decode(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, errors.Wrap(err, "failed to decode progress event")
	}
	if ev.Kind == "" {
		return nil, errors.Trace(ErrMissingKind)
	}
	return &ev, nil
}

// Encode serializes the event.
func (e *Event) Encode() ([]byte, error) {
	b, err := json.Marshal(e)
	return b, errors.Trace(err)
}

// JobStarted returns the payload of a KindJobStarted event with JobID and MediaID filled in.
// Descriptors from producers that only set the job name get their media ID from the name.
func (e *Event) JobStarted() (*JobStarted, error) {
	if e.Kind != KindJobStarted {
		return nil, errors.Annotatef(ErrUnknownKind, "kind=%s", e.Kind)
	}
	var js JobStarted
	if err := json.Unmarshal(e.Payload, &js); err != nil {
		return nil, errors.Annotate(ErrBadPayload, err.Error())
	}
	if js.Job.JobName == "" && js.Job.JobID == "" {
		return nil, errors.Annotate(ErrBadPayload, "missing job name")
	}
	if js.Job.JobID == "" {
		js.Job.JobID = js.Job.JobName
	}
	if js.Job.MediaID == "" {
		mediaID, submittedAt, err := ParseJobName(js.Job.JobName)
		if err != nil {
			return nil, errors.Annotatef(ErrBadPayload, "no media id and %s", err)
		}
		js.Job.MediaID = mediaID
		if js.Job.SubmittedAt.IsZero() {
			js.Job.SubmittedAt = submittedAt
		}
	}
	return &js, nil
}
