package voicebase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sprucehealth/mediaindexer/libs/errors"
	"github.com/sprucehealth/mediaindexer/libs/storage"
	"github.com/sprucehealth/mediaindexer/libs/test"
	"github.com/sprucehealth/mediaindexer/libs/transcription"
)

type fakeAPI struct {
	mu     sync.Mutex
	media  map[string]*Media
	upload uploadRequest
}

type uploadRequest struct {
	media         string
	configuration string
	auth          string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.Method == "POST" && r.URL.Path == "/media":
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.upload = uploadRequest{
			media:         r.FormValue("media"),
			configuration: r.FormValue("configuration"),
			auth:          r.Header.Get("Authorization"),
		}
		json.NewEncoder(w).Encode(&Media{ID: "vb-1", Status: MediaStatusAccepted})
	case r.Method == "GET" && len(r.URL.Path) > len("/media/"):
		m := f.media[r.URL.Path[len("/media/"):]]
		if m == nil {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(&Error{Errors: ErrorItem{Error: "media not found"}, Reference: "ref-1", Status: http.StatusNotFound})
			return
		}
		json.NewEncoder(w).Encode(&mediaResponse{Media: m})
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) set(m *Media) {
	f.mu.Lock()
	f.media[m.ID] = m
	f.mu.Unlock()
}

func newTestService(t *testing.T) (*fakeAPI, *storage.TestStore, transcription.Service, func()) {
	api := &fakeAPI{media: make(map[string]*Media)}
	srv := httptest.NewServer(api)
	store := storage.NewTestStore("transcripts")
	client := NewClient(ClientConfig{BearerToken: "token", BaseURL: srv.URL})
	return api, store, NewTranscriptionService(client, store), srv.Close
}

func TestTranscriptionText(t *testing.T) {
	m := &Media{Transcripts: map[string]*transcript{
		"latest": {Words: []*word{
			{Word: "Hello"}, {Word: ",", M: "punc"}, {Word: "world"}, {Word: ".", M: "punc"},
		}},
	}}
	test.Equals(t, "Hello, world.", m.TranscriptionText())
	test.Equals(t, "", (&Media{}).TranscriptionText())
}

func TestStartJob(t *testing.T) {
	api, _, svc, done := newTestService(t)
	defer done()

	job, err := svc.StartJob(context.Background(), &transcription.StartJobRequest{
		JobName:      "transcribe-abc123-1700000000",
		MediaURI:     "https://s3-us-east-1.amazonaws.com/audio/abc123.mp3",
		LanguageCode: "en-US",
	})
	test.OK(t, err)
	test.Equals(t, &transcription.Job{ID: "vb-1", Name: "transcribe-abc123-1700000000", Status: transcription.StatusInProgress}, job)
	test.Equals(t, "https://s3-us-east-1.amazonaws.com/audio/abc123.mp3", api.upload.media)
	test.Equals(t, "Bearer token", api.upload.auth)

	var cfg ConfigurationContainer
	test.OK(t, json.Unmarshal([]byte(api.upload.configuration), &cfg))
	test.Equals(t, "en-US", cfg.Configuration.SpeechModel.Language)
}

func TestJobStatus(t *testing.T) {
	api, store, svc, done := newTestService(t)
	defer done()
	ctx := context.Background()

	for status, exp := range map[string]transcription.Status{
		"accepted": transcription.StatusInProgress,
		"running":  transcription.StatusInProgress,
		"pending":  transcription.StatusInProgress,
		"failed":   transcription.StatusFailed,
		"archived": transcription.Status("archived"),
	} {
		api.set(&Media{ID: "vb-" + status, Status: status})
		job, err := svc.Job(ctx, "vb-"+status)
		test.OK(t, err)
		test.Equals(t, exp, job.Status)
		test.Equals(t, "", job.TranscriptURI)
	}
	test.Equals(t, 0, len(store.IDs()))

	_, err := svc.Job(ctx, "vb-missing")
	test.Equals(t, transcription.ErrJobNotFound, errors.Cause(err))
}

func TestJobCompletedStoresTranscript(t *testing.T) {
	api, store, svc, done := newTestService(t)
	defer done()
	ctx := context.Background()

	api.set(&Media{ID: "vb-1", Status: "finished", Transcripts: map[string]*transcript{
		"latest": {Words: []*word{{Word: "hi"}, {Word: "there"}}},
	}})
	for i := 0; i < 2; i++ {
		job, err := svc.Job(ctx, "vb-1")
		test.OK(t, err)
		test.Equals(t, transcription.StatusCompleted, job.Status)
		test.Equals(t, "s3://transcripts/voicebase/vb-1.txt", job.TranscriptURI)
	}
	test.Equals(t, []string{"s3://transcripts/voicebase/vb-1.txt"}, store.IDs())
	test.Equals(t, "hi there", string(store.Object("s3://transcripts/voicebase/vb-1.txt").Data))
}

func TestErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()
	_, err := NewClient(ClientConfig{BaseURL: srv.URL}).Get(context.Background(), "x")
	e, ok := err.(*Error)
	test.Assert(t, ok, "Expected *Error got %T", err)
	test.Equals(t, http.StatusInternalServerError, e.Status)
	test.Equals(t, "boom", e.Errors.Error)
	test.Assert(t, !IsNotFound(err), "500 is not a not found")
}
