// Package ai talks to the OpenAI-compatible chat endpoint (Groq by default)
// for the bill reader and the financial assistant.
package ai

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ai-financer/internal/config"

	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrNotConfigured      = errors.New("api key not configured")
	ErrInvalidCredentials = errors.New("invalid api key")
	ErrInvalidImage       = errors.New("invalid image")
	ErrModelNotFound      = errors.New("model not found")
	ErrService            = errors.New("ai service error")
	ErrUnreachable        = errors.New("ai service unreachable")
	ErrEmptyResponse      = errors.New("empty ai response")
	ErrUnparseable        = errors.New("unparseable ai response")
	ErrEmptyQuestion      = errors.New("empty question")
)

// cleanKey strips surrounding quotes and whitespace. Empty and template
// values ("your_...") count as missing.
func cleanKey(key string) (string, bool) {
	key = strings.TrimSpace(strings.Trim(strings.TrimSpace(key), `"'`))
	if key == "" || strings.HasPrefix(key, "your_") {
		return "", false
	}
	return key, true
}

// newClient returns nil when key is not usable.
func newClient(key string, cfg config.AIConfig) *openai.Client {
	key, ok := cleanKey(key)
	if !ok {
		return nil
	}
	c := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		c.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	c.HTTPClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	return openai.NewClientWithConfig(c)
}

// classify maps a client error onto the package errors. badRequest is the
// error used for HTTP 400.
func classify(err error, badRequest error) error {
	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
		urlErr *url.Error
		status int
		msg    string
	)
	switch {
	case errors.As(err, &apiErr):
		status, msg = apiErr.HTTPStatusCode, apiErr.Message
	case errors.As(err, &reqErr):
		status, msg = reqErr.HTTPStatusCode, reqErr.Error()
	case errors.As(err, &urlErr):
		return fmt.Errorf("%w: %v", ErrUnreachable, urlErr.Err)
	default:
		return fmt.Errorf("%w: %v", ErrService, err)
	}

	switch status {
	case http.StatusUnauthorized:
		return ErrInvalidCredentials
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", badRequest, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrModelNotFound, msg)
	}
	return fmt.Errorf("%w (%d): %s", ErrService, status, msg)
}
