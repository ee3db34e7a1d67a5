package voicebase

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"strings"

	"github.com/sprucehealth/mediaindexer/libs/errors"
)

// Media processing states.
const (
	MediaStatusAccepted = "accepted"
	MediaStatusPending  = "pending"
	MediaStatusRunning  = "running"
	MediaStatusFinished = "finished"
	MediaStatusFailed   = "failed"
)

type word struct {
	Position   int     `json:"p"`
	Confidence float64 `json:"c"`
	Word       string  `json:"w"`
	M          string  `json:"m"`
}

type transcript struct {
	ID    string  `json:"transcriptId"`
	Words []*word `json:"words"`
}

type Media struct {
	ID          string                 `json:"mediaId"`
	Status      string                 `json:"status"`
	Transcripts map[string]*transcript `json:"transcripts"`
}

// TranscriptionText joins the words of the latest transcript attaching punctuation to the
// preceding word.
func (m *Media) TranscriptionText() string {
	latest := m.Transcripts["latest"]
	if latest == nil || len(latest.Words) == 0 {
		return ""
	}
	var b strings.Builder
	for _, w := range latest.Words {
		if w.M != "punc" && b.Len() != 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w.Word)
	}
	return b.String()
}

type mediaResponse struct {
	Media *Media `json:"media"`
}

type MediaClient interface {
	Upload(ctx context.Context, url string, cfg *Configuration) (string, error)
	Get(ctx context.Context, id string) (*Media, error)
	Delete(ctx context.Context, id string) error
}

type mediaClient struct {
	b           Backend
	bearerToken string
}

func NewMediaClient(backend Backend, bearerToken string) MediaClient {
	return &mediaClient{
		b:           backend,
		bearerToken: bearerToken,
	}
}

func (m mediaClient) Upload(ctx context.Context, url string, cfg *Configuration) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("media", url); err != nil {
		return "", errors.Trace(err)
	}
	if cfg != nil {
		configurationData, err := json.Marshal(&ConfigurationContainer{Configuration: cfg})
		if err != nil {
			return "", errors.Trace(err)
		}
		if err := writer.WriteField("configuration", string(configurationData)); err != nil {
			return "", errors.Trace(err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", errors.Trace(err)
	}

	var media Media
	if err := m.b.CallMultipart(ctx, "POST", "media", m.bearerToken, writer.Boundary(), body, &media); err != nil {
		return "", err
	}
	return media.ID, nil
}

func (m mediaClient) Get(ctx context.Context, id string) (*Media, error) {
	var mediaResponse mediaResponse
	if err := m.b.Call(ctx, "GET", "media/"+id, m.bearerToken, &mediaResponse); err != nil {
		return nil, err
	}
	if mediaResponse.Media == nil {
		return nil, errors.Errorf("voicebase: empty media response for %s", id)
	}
	return mediaResponse.Media, nil
}

func (m mediaClient) Delete(ctx context.Context, id string) error {
	return m.b.Call(ctx, "DELETE", "media/"+id, m.bearerToken, nil)
}
