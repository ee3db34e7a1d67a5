package progress

import (
	"testing"
	"time"

	"github.com/sprucehealth/mediaindexer/libs/errors"
	"github.com/sprucehealth/mediaindexer/libs/test"
)

func TestJobNameRoundTrip(t *testing.T) {
	at := time.Unix(1700000000, 0)
	for _, id := range []string{"abc123", "a-b-c", "d41d8cd98f00b204e9800998ecf8427e-2", "x.y_z", "1"} {
		name := JobName(id, at)
		mediaID, ts, err := ParseJobName(name)
		test.OK(t, err)
		test.Equals(t, id, mediaID)
		test.Equals(t, at.Unix(), ts.Unix())
	}
	test.Equals(t, "transcribe-abc123-1700000000", JobName("abc123", at))
}

func TestParseJobNameInvalid(t *testing.T) {
	for _, name := range []string{
		"",
		"abc123-1700000000",
		"transcribe-",
		"transcribe-1700000000",
		"transcribe-abc123-",
		"transcribe-abc123-17000x",
		"transcribe-abc123-+17",
	} {
		_, _, err := ParseJobName(name)
		test.Equals(t, ErrBadJobName, errors.Cause(err))
	}
}

func TestSanitizeMediaID(t *testing.T) {
	test.Equals(t, "d41d8cd98f00b204e9800998ecf8427e", SanitizeMediaID(`"d41d8cd98f00b204e9800998ecf8427e"`))
	test.Equals(t, "abc-2", SanitizeMediaID("abc-2"))
	test.Equals(t, "my_talk_1_", SanitizeMediaID("my talk(1)"))
	// Sanitized IDs always survive a round trip through the job name.
	id := SanitizeMediaID(`"e/t+a g"`)
	mediaID, _, err := ParseJobName(JobName(id, time.Unix(1, 0)))
	test.OK(t, err)
	test.Equals(t, id, mediaID)
}

func TestJobStartedEvent(t *testing.T) {
	job := JobDescriptor{
		JobName:     "transcribe-abc123-1700000000",
		JobID:       "vb-1",
		MediaID:     "abc123",
		MediaURI:    "https://s3-us-east-1.amazonaws.com/audio/abc123.mp3",
		Provider:    "voicebase",
		SubmittedAt: time.Unix(1700000000, 0).UTC(),
	}
	ev, err := NewJobStarted(job)
	test.OK(t, err)
	b, err := ev.Encode()
	test.OK(t, err)

	ev, err = Decode(b)
	test.OK(t, err)
	test.Equals(t, KindJobStarted, ev.Kind)
	js, err := ev.JobStarted()
	test.OK(t, err)
	test.Equals(t, job, js.Job)
}

func TestJobStartedFallbacks(t *testing.T) {
	// Producers that only send the job name.
	ev, err := Decode([]byte(`{"kind":"JOB_STARTED","payload":{"jobDescriptor":{"jobName":"transcribe-abc-123-1700000000"}}}`))
	test.OK(t, err)
	js, err := ev.JobStarted()
	test.OK(t, err)
	test.Equals(t, "abc-123", js.Job.MediaID)
	test.Equals(t, "transcribe-abc-123-1700000000", js.Job.JobID)
	test.Equals(t, int64(1700000000), js.Job.SubmittedAt.Unix())
}

func TestJobStartedErrors(t *testing.T) {
	ev, err := Decode([]byte(`{"kind":"UNKNOWN","payload":{}}`))
	test.OK(t, err)
	test.Equals(t, Kind("UNKNOWN"), ev.Kind)
	_, err = ev.JobStarted()
	test.Equals(t, ErrUnknownKind, errors.Cause(err))

	for _, body := range []string{
		`{"kind":"JOB_STARTED"}`,
		`{"kind":"JOB_STARTED","payload":[1,2]}`,
		`{"kind":"JOB_STARTED","payload":{"jobDescriptor":{}}}`,
		`{"kind":"JOB_STARTED","payload":{"jobDescriptor":{"jobName":"no-convention"}}}`,
	} {
		ev, err := Decode([]byte(body))
		test.OK(t, err)
		_, err = ev.JobStarted()
		test.Equals(t, ErrBadPayload, errors.Cause(err))
	}

	_, err = Decode([]byte(`{"kind":`))
	test.Assert(t, err != nil, "Expected decode error")

	for _, body := range []string{`null`, `{}`, `{"kind":""}`, `{"payload":{}}`} {
		_, err := Decode([]byte(body))
		test.Equals(t, ErrMissingKind, errors.Cause(err))
	}
}
