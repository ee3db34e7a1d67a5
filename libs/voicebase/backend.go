package voicebase

import (
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/sprucehealth/mediaindexer/libs/errors"
)

const (
	prodAPIURL = "https://apis.voicebase.com/v2-beta"
)

// Backend is an interface for making calls against the Voicebase service.
// This interface exists to enable mocking during testing if needed.
type Backend interface {
	Call(ctx context.Context, method, path, key string, v interface{}) error
	CallMultipart(ctx context.Context, method, path, key, boundary string, body io.Reader, v interface{}) error
}

// BackendConfiguration is the internal implementation for making HTTP calls to Voicebase.
type BackendConfiguration struct {
	HTTPClient *http.Client
	// BaseURL defaults to the production API.
	BaseURL string
}

var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// NewBackend returns a backend talking to baseURL, or the production API when it's empty.
func NewBackend(httpClient *http.Client, baseURL string) Backend {
	if httpClient == nil {
		httpClient = defaultHTTPClient
	}
	if baseURL == "" {
		baseURL = prodAPIURL
	}
	return BackendConfiguration{
		HTTPClient: httpClient,
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

func (s BackendConfiguration) CallMultipart(ctx context.Context, method, path, key, boundary string, body io.Reader, v interface{}) error {
	contentType := "multipart/form-data; boundary=" + boundary

	req, err := s.NewRequest(ctx, method, path, key, contentType, body)
	if err != nil {
		return err
	}

	return s.Do(req, v)
}

func (s BackendConfiguration) Call(ctx context.Context, method, path, key string, v interface{}) error {
	req, err := s.NewRequest(ctx, method, path, key, "", nil)
	if err != nil {
		return err
	}

	return s.Do(req, v)
}

// NewRequest is used by Call to generate an http.Request.
func (s BackendConfiguration) NewRequest(ctx context.Context, method, path, key, contentType string, body io.Reader) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, body)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if contentType != "" {
		req.Header.Add("Content-Type", contentType)
	}
	req.Header.Add("Authorization", "Bearer "+key)
	return req, nil
}

// Do is used by Call to execute an API request and parse the response. It uses
// the backend's HTTP client to execute the request and unmarshals the response
// into v. It also handles unmarshaling errors returned by the API.
func (s BackendConfiguration) Do(req *http.Request, v interface{}) error {
	res, err := s.HTTPClient.Do(req)
	if err != nil {
		return errors.Trace(err)
	}
	defer res.Body.Close()

	resBody, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return errors.Trace(err)
	}

	if res.StatusCode >= 400 {
		var vErr Error
		if err := json.Unmarshal(resBody, &vErr); err != nil {
			vErr.Errors.Error = string(resBody)
		}
		vErr.Status = res.StatusCode
		return &vErr
	}

	if v != nil {
		return errors.Trace(json.Unmarshal(resBody, v))
	}
	return nil
}
