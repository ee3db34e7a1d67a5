package voicebase

import (
	"net/http"
)

type ClientConfig struct {
	BearerToken string
	// HTTPClient is optional and defaults to a client with a 30 second timeout
	HTTPClient *http.Client
	// BaseURL is optional and defaults to the production API
	BaseURL string
}

// NewClient returns a media client for the API described by cfg.
func NewClient(cfg ClientConfig) MediaClient {
	return NewMediaClient(NewBackend(cfg.HTTPClient, cfg.BaseURL), cfg.BearerToken)
}
