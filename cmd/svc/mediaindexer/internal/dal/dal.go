// Package dal persists the per media indexing status. Every write is a partial upsert keyed
// by media ID so stages can record their results independently and repeatedly.
package dal

import (
	"context"

	"github.com/sprucehealth/mediaindexer/libs/errors"
)

// ErrNotFound represents when an object cannot be found at the data layer
var ErrNotFound = errors.New("mediaindexer/dal: object not found")

// IndexingStatus is the state of indexing one media item.
type IndexingStatus struct {
	MediaID          string `dynamodbav:"media_id"`
	SourceMediaKey   string `dynamodbav:"source_media_key,omitempty"`
	AudioKey         string `dynamodbav:"audio_key,omitempty"`
	TranscriptKey    string `dynamodbav:"transcript_key,omitempty"`
	TranscriptionJob string `dynamodbav:"transcription_job,omitempty"`
}

// IndexingStatusUpdate holds the fields to set. Nil fields are left untouched.
type IndexingStatusUpdate struct {
	SourceMediaKey   *string
	AudioKey         *string
	TranscriptKey    *string
	TranscriptionJob *string
}

// DAL represents the methods required to provide data access layer functionality
type DAL interface {
	// UpsertIndexingStatus creates the row for the media if missing and sets the non nil fields
	// of the update. Applying the same update again leaves the row unchanged.
	UpsertIndexingStatus(ctx context.Context, mediaID string, update *IndexingStatusUpdate) error
	// IndexingStatus returns ErrNotFound when there's no row for the media.
	IndexingStatus(ctx context.Context, mediaID string) (*IndexingStatus, error)
}

type field struct {
	name  string
	value string
}

// fields returns the set fields in a fixed order using the storage names shared by all backends.
func (u *IndexingStatusUpdate) fields() []field {
	var fs []field
	if u == nil {
		return fs
	}
	if u.SourceMediaKey != nil {
		fs = append(fs, field{"source_media_key", *u.SourceMediaKey})
	}
	if u.AudioKey != nil {
		fs = append(fs, field{"audio_key", *u.AudioKey})
	}
	if u.TranscriptKey != nil {
		fs = append(fs, field{"transcript_key", *u.TranscriptKey})
	}
	if u.TranscriptionJob != nil {
		fs = append(fs, field{"transcription_job", *u.TranscriptionJob})
	}
	return fs
}

// apply sets the update's fields on the status.
func (u *IndexingStatusUpdate) apply(s *IndexingStatus) {
	for _, f := range u.fields() {
		s.set(f.name, f.value)
	}
}

func (s *IndexingStatus) set(name, value string) {
	switch name {
	case "source_media_key":
		s.SourceMediaKey = value
	case "audio_key":
		s.AudioKey = value
	case "transcript_key":
		s.TranscriptKey = value
	case "transcription_job":
		s.TranscriptionJob = value
	}
}

func validateMediaID(mediaID string) error {
	if mediaID == "" {
		return errors.New("mediaindexer/dal: media id required")
	}
	return nil
}
