// Package awstranscribe implements transcription.Service on top of AWS Transcribe.
package awstranscribe

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/transcribeservice"
	"github.com/aws/aws-sdk-go/service/transcribeservice/transcribeserviceiface"
	"github.com/sprucehealth/mediaindexer/libs/errors"
	"github.com/sprucehealth/mediaindexer/libs/transcription"
)

type service struct {
	api transcribeserviceiface.TranscribeServiceAPI
}

// New returns a transcription service backed by AWS Transcribe. Jobs are identified by name.
func New(api transcribeserviceiface.TranscribeServiceAPI) transcription.Service {
	return &service{api: api}
}

func (s *service) StartJob(ctx context.Context, req *transcription.StartJobRequest) (*transcription.Job, error) {
	in := &transcribeservice.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(req.JobName),
		LanguageCode:         aws.String(req.LanguageCode),
		MediaFormat:          aws.String(req.MediaFormat),
		Media:                &transcribeservice.Media{MediaFileUri: aws.String(req.MediaURI)},
	}
	if req.OutputBucket != "" {
		in.OutputBucketName = aws.String(req.OutputBucket)
	}
	res, err := s.api.StartTranscriptionJobWithContext(ctx, in)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to start transcription job %s", req.JobName)
	}
	if res.TranscriptionJob == nil {
		return &transcription.Job{ID: req.JobName, Name: req.JobName, Status: transcription.StatusInProgress}, nil
	}
	return jobFromAWS(res.TranscriptionJob), nil
}

func (s *service) Job(ctx context.Context, id string) (*transcription.Job, error) {
	res, err := s.api.GetTranscriptionJobWithContext(ctx, &transcribeservice.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(id),
	})
	if isNotFound(err) {
		return nil, errors.Annotatef(transcription.ErrJobNotFound, "job_name=%s", id)
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to get transcription job %s", id)
	}
	if res.TranscriptionJob == nil {
		return nil, errors.Errorf("empty response for transcription job %s", id)
	}
	return jobFromAWS(res.TranscriptionJob), nil
}

func jobFromAWS(tj *transcribeservice.TranscriptionJob) *transcription.Job {
	j := &transcription.Job{
		ID:            aws.StringValue(tj.TranscriptionJobName),
		Name:          aws.StringValue(tj.TranscriptionJobName),
		Status:        status(aws.StringValue(tj.TranscriptionJobStatus)),
		FailureReason: aws.StringValue(tj.FailureReason),
		CreatedAt:     aws.TimeValue(tj.CreationTime),
	}
	if tj.Transcript != nil {
		j.TranscriptURI = aws.StringValue(tj.Transcript.TranscriptFileUri)
	}
	return j
}

func status(s string) transcription.Status {
	switch s {
	case transcribeservice.TranscriptionJobStatusQueued, transcribeservice.TranscriptionJobStatusInProgress:
		return transcription.StatusInProgress
	case transcribeservice.TranscriptionJobStatusCompleted:
		return transcription.StatusCompleted
	case transcribeservice.TranscriptionJobStatusFailed:
		return transcription.StatusFailed
	}
	return transcription.Status(s)
}

func isNotFound(err error) bool {
	e, ok := err.(awserr.Error)
	if !ok {
		return false
	}
	switch e.Code() {
	case transcribeservice.ErrCodeNotFoundException:
		return true
	case transcribeservice.ErrCodeBadRequestException:
		// Unknown job names are reported as a bad request.
		return strings.Contains(e.Message(), "couldn't be found")
	}
	return false
}
