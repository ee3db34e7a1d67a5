// Package submitter starts transcription jobs for extracted audio and announces them on the
// progress queue.
package submitter

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/sprucehealth/mediaindexer/cmd/svc/mediaindexer/internal/dal"
	"github.com/sprucehealth/mediaindexer/cmd/svc/mediaindexer/internal/progress"
	"github.com/sprucehealth/mediaindexer/cmd/svc/mediaindexer/internal/queue"
	"github.com/sprucehealth/mediaindexer/libs/awsutil"
	"github.com/sprucehealth/mediaindexer/libs/clock"
	"github.com/sprucehealth/mediaindexer/libs/errors"
	"github.com/sprucehealth/mediaindexer/libs/golog"
	"github.com/sprucehealth/mediaindexer/libs/ptr"
	"github.com/sprucehealth/mediaindexer/libs/transcription"
	"github.com/sprucehealth/mediaindexer/libs/worker"
)

// Config holds the job parameters that are the same for every submission.
type Config struct {
	// Provider names the transcription service in published descriptors.
	Provider     string
	MediaFormat  string
	LanguageCode string
	OutputBucket string
	// Region is used for media URIs when a notification record doesn't carry one.
	Region string
}

// Submitter starts one transcription job per call.
type Submitter struct {
	svc       transcription.Service
	publisher queue.Publisher
	dal       dal.DAL
	clk       clock.Clock
	cfg       Config
}

// New returns a Submitter. dal may be nil in which case the job isn't recorded on the status row.
func New(svc transcription.Service, publisher queue.Publisher, dl dal.DAL, clk clock.Clock, cfg Config) *Submitter {
	if cfg.MediaFormat == "" {
		cfg.MediaFormat = "mp3"
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	return &Submitter{svc: svc, publisher: publisher, dal: dl, clk: clk, cfg: cfg}
}

// Submit starts a transcription job for the media and publishes a JOB_STARTED event for it.
// Nothing is retried. When publishing fails the event is returned along with the error.
func (s *Submitter) Submit(ctx context.Context, mediaID, mediaURI string) (*progress.Event, error) {
	now := s.clk.Now()
	name := progress.JobName(mediaID, now)
	log := golog.FromContext(ctx).Context("media_id", mediaID, "job_name", name)

	job, err := s.svc.StartJob(ctx, &transcription.StartJobRequest{
		JobName:      name,
		MediaURI:     mediaURI,
		MediaFormat:  s.cfg.MediaFormat,
		LanguageCode: s.cfg.LanguageCode,
		OutputBucket: s.cfg.OutputBucket,
	})
	if err != nil {
		log.Errorf("Failed to start transcription job for %s: %s", mediaURI, err)
		return nil, errors.Trace(err)
	}
	jobID := job.ID
	if jobID == "" {
		jobID = name
	}
	ev, err := progress.NewJobStarted(progress.JobDescriptor{
		JobName:     name,
		JobID:       jobID,
		MediaID:     mediaID,
		MediaURI:    mediaURI,
		Provider:    s.cfg.Provider,
		SubmittedAt: now,
	})
	if err != nil {
		log.Errorf("Failed to build progress event: %s", err)
		return nil, err
	}

	if s.dal != nil {
		if err := s.dal.UpsertIndexingStatus(ctx, mediaID, &dal.IndexingStatusUpdate{
			TranscriptionJob: ptr.String(jobID),
		}); err != nil {
			log.Errorf("Failed to record transcription job: %s", err)
		}
	}

	if err := s.publisher.Publish(ctx, ev); err != nil {
		log.Errorf("Failed to publish progress event, job %s continues untracked: %s", jobID, err)
		return ev, errors.Trace(err)
	}
	log.Infof("Started transcription job %s", jobID)
	return ev, nil
}

// HandleAudioUploaded submits a job for every object in an S3 notification. Submission
// failures are not retried so the message is always acknowledged.
func (s *Submitter) HandleAudioUploaded(ctx context.Context, body string) worker.Outcome {
	ev, err := awsutil.ParseS3Event([]byte(body))
	if err != nil {
		golog.FromContext(ctx).Errorf("Dropping undecodable audio upload notification: %s", err)
		return worker.Ack
	}
	for _, rec := range ev.Records {
		key := rec.Key()
		mediaID := MediaIDFromKey(key)
		if mediaID == "" {
			golog.FromContext(ctx).Warningf("Skipping object %s/%s without a media id", rec.Bucket(), key)
			continue
		}
		region := rec.AWSRegion
		if region == "" {
			region = s.cfg.Region
		}
		// Failures are logged by Submit.
		s.Submit(ctx, mediaID, MediaURI(region, rec.Bucket(), key))
	}
	return worker.Ack
}

// MediaIDFromKey returns the file name of the key without its extension.
func MediaIDFromKey(key string) string {
	base := path.Base(key)
	if base == "." || base == "/" {
		return ""
	}
	return progress.SanitizeMediaID(strings.TrimSuffix(base, path.Ext(base)))
}

// MediaURI returns the regional path style URL of an S3 object.
func MediaURI(region, bucket, key string) string {
	return fmt.Sprintf("https://s3-%s.amazonaws.com/%s/%s", region, bucket, key)
}
