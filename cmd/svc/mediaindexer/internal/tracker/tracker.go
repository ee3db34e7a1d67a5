// Package tracker follows transcription jobs to completion. It keeps no state between
// deliveries: each delivery of a JOB_STARTED event queries the provider and either finalizes
// the job or asks the queue to deliver the event again later.
package tracker

import (
	"context"

	"github.com/samuel/go-metrics/metrics"
	"github.com/sprucehealth/mediaindexer/cmd/svc/mediaindexer/internal/dal"
	"github.com/sprucehealth/mediaindexer/cmd/svc/mediaindexer/internal/progress"
	"github.com/sprucehealth/mediaindexer/libs/errors"
	"github.com/sprucehealth/mediaindexer/libs/golog"
	"github.com/sprucehealth/mediaindexer/libs/ptr"
	"github.com/sprucehealth/mediaindexer/libs/transcription"
	"github.com/sprucehealth/mediaindexer/libs/worker"
)

// Tracker handles progress events.
type Tracker struct {
	svc transcription.Service
	dal dal.DAL

	statCompleted   *metrics.Counter
	statFailed      *metrics.Counter
	statInProgress  *metrics.Counter
	statEscalated   *metrics.Counter
	statQueryErrors *metrics.Counter
	statStoreErrors *metrics.Counter
}

// New returns a Tracker that queries svc and records results in dl.
func New(svc transcription.Service, dl dal.DAL, metricsRegistry metrics.Registry) *Tracker {
	t := &Tracker{
		svc:             svc,
		dal:             dl,
		statCompleted:   metrics.NewCounter(),
		statFailed:      metrics.NewCounter(),
		statInProgress:  metrics.NewCounter(),
		statEscalated:   metrics.NewCounter(),
		statQueryErrors: metrics.NewCounter(),
		statStoreErrors: metrics.NewCounter(),
	}
	metricsRegistry.Add("completed", t.statCompleted)
	metricsRegistry.Add("failed", t.statFailed)
	metricsRegistry.Add("in_progress", t.statInProgress)
	metricsRegistry.Add("escalated", t.statEscalated)
	metricsRegistry.Add("query_errors", t.statQueryErrors)
	metricsRegistry.Add("store_errors", t.statStoreErrors)
	return t
}

// HandleMessage decodes a queued progress event and handles it. A body that isn't an event
// can never succeed so it's escalated.
func (t *Tracker) HandleMessage(ctx context.Context, body string) worker.Outcome {
	ev, err := progress.Decode([]byte(body))
	if err != nil {
		golog.FromContext(ctx).Criticalf("Undecodable progress event %q: %s", body, err)
		t.statEscalated.Inc(1)
		return worker.Escalate
	}
	return t.OnMessage(ctx, ev)
}

// OnMessage handles one delivery of a progress event.
func (t *Tracker) OnMessage(ctx context.Context, ev *progress.Event) worker.Outcome {
	log := golog.FromContext(ctx)
	js, err := ev.JobStarted()
	switch errors.Cause(err) {
	case nil:
	case progress.ErrUnknownKind:
		log.Infof("Ignoring progress event of kind %q", ev.Kind)
		return worker.Ack
	default:
		log.Criticalf("Bad %s payload: %s", ev.Kind, err)
		t.statEscalated.Inc(1)
		return worker.Escalate
	}

	job := js.Job
	log = log.Context("media_id", job.MediaID, "job_name", job.JobName)
	ctx = golog.WithLogger(ctx, log)

	status, err := t.svc.Job(ctx, job.JobID)
	if errors.Cause(err) == transcription.ErrJobNotFound {
		log.Criticalf("Transcription job %s does not exist", job.JobID)
		t.statEscalated.Inc(1)
		return worker.Escalate
	} else if err != nil {
		log.Errorf("Failed to query transcription job %s: %s", job.JobID, err)
		t.statQueryErrors.Inc(1)
		return worker.RetryLater
	}

	switch status.Status {
	case transcription.StatusCompleted:
		return t.completed(ctx, job, status)
	case transcription.StatusFailed:
		log.Warningf("Transcription job %s failed: %s", job.JobID, status.FailureReason)
		t.statFailed.Inc(1)
		return worker.Ack
	case transcription.StatusInProgress:
		log.Debugf("Transcription job %s still in progress", job.JobID)
		t.statInProgress.Inc(1)
		return worker.RetryLater
	}
	log.Criticalf("Transcription job %s has unknown status %q", job.JobID, status.Status)
	t.statEscalated.Inc(1)
	return worker.Escalate
}

func (t *Tracker) completed(ctx context.Context, job progress.JobDescriptor, status *transcription.Job) worker.Outcome {
	log := golog.FromContext(ctx)
	if status.TranscriptURI == "" {
		log.Criticalf("Transcription job %s completed without a transcript location", job.JobID)
		t.statEscalated.Inc(1)
		return worker.Escalate
	}
	if err := t.dal.UpsertIndexingStatus(ctx, job.MediaID, &dal.IndexingStatusUpdate{
		TranscriptKey: ptr.String(status.TranscriptURI),
	}); err != nil {
		log.Errorf("Failed to record transcript %s: %s", status.TranscriptURI, err)
		t.statStoreErrors.Inc(1)
		return worker.RetryLater
	}
	log.Infof("Transcription job %s completed with transcript %s", job.JobID, status.TranscriptURI)
	t.statCompleted.Inc(1)
	return worker.Ack
}
