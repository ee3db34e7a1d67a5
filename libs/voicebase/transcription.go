package voicebase

import (
	"context"
	"strings"

	"github.com/sprucehealth/mediaindexer/libs/errors"
	"github.com/sprucehealth/mediaindexer/libs/golog"
	"github.com/sprucehealth/mediaindexer/libs/storage"
	"github.com/sprucehealth/mediaindexer/libs/transcription"
)

type transcriber struct {
	media  MediaClient
	store  storage.Store
	prefix string
}

// NewTranscriptionService adapts the media API to transcription.Service. Voicebase returns
// transcripts inline so finished transcripts are written to store and the stored object's ID
// is reported as the transcript location.
func NewTranscriptionService(media MediaClient, store storage.Store) transcription.Service {
	return &transcriber{media: media, store: store, prefix: "voicebase/"}
}

func (t *transcriber) StartJob(ctx context.Context, req *transcription.StartJobRequest) (*transcription.Job, error) {
	id, err := t.media.Upload(ctx, req.MediaURI, transcriptOnlyConfiguration(req.LanguageCode))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to upload %s to voicebase", req.MediaURI)
	}
	return &transcription.Job{
		ID:     id,
		Name:   req.JobName,
		Status: transcription.StatusInProgress,
	}, nil
}

func (t *transcriber) Job(ctx context.Context, id string) (*transcription.Job, error) {
	m, err := t.media.Get(ctx, id)
	if IsNotFound(err) {
		return nil, errors.Annotatef(transcription.ErrJobNotFound, "voicebase_media_id=%s", id)
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to get voicebase media %s", id)
	}
	job := &transcription.Job{
		ID:     id,
		Status: status(m.Status),
	}
	if job.Status != transcription.StatusCompleted {
		return job, nil
	}
	text := m.TranscriptionText()
	name := t.prefix + id + ".txt"
	// The name is derived from the media ID so repeated polls rewrite the same object.
	tid, err := t.store.Put(ctx, name, strings.NewReader(text), int64(len(text)), "text/plain; charset=utf-8")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to store transcript for voicebase media %s", id)
	}
	golog.FromContext(ctx).Debugf("Stored voicebase transcript %s (%d bytes)", tid, len(text))
	job.TranscriptURI = tid
	return job, nil
}

func status(s string) transcription.Status {
	switch strings.ToLower(s) {
	case MediaStatusFinished:
		return transcription.StatusCompleted
	case MediaStatusFailed:
		return transcription.StatusFailed
	case MediaStatusAccepted, MediaStatusRunning, MediaStatusPending:
		return transcription.StatusInProgress
	}
	return transcription.Status(s)
}
