package songprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"videogen/internal/services"
)

const (
	defaultHTTPTimeout           = 30 * time.Second
	defaultBaseURL               = "https://api.sunoapi.org"
	defaultRecordPath            = "/api/v1/generate/record-info"
	defaultTimestampedLyricsPath = "/api/v1/generate/get-timestamped-lyrics"
	maxErrorBody                 = 512
)

// Config captures the settings required to talk to the song provider.
type Config struct {
	BaseURL               string
	APIKey                string
	RecordPath            string
	TimestampedLyricsPath string
	TimeoutSeconds        int
}

// HTTPDoer is the subset of *http.Client used by Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client performs single-attempt lookups against the provider API.
type Client struct {
	cfg        Config
	httpClient HTTPDoer
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a provider client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:               strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			APIKey:                strings.TrimSpace(cfg.APIKey),
			RecordPath:            strings.TrimSpace(cfg.RecordPath),
			TimestampedLyricsPath: strings.TrimSpace(cfg.TimestampedLyricsPath),
			TimeoutSeconds:        cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.RecordPath == "" {
		client.cfg.RecordPath = defaultRecordPath
	}
	if client.cfg.TimestampedLyricsPath == "" {
		client.cfg.TimestampedLyricsPath = defaultTimestampedLyricsPath
	}
	return client
}

// StatusError reports a non-success HTTP status or an application-level
// error code inside a 200 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// FetchRecord returns the generation record for taskID as a generic JSON tree.
func (c *Client) FetchRecord(ctx context.Context, taskID string) (map[string]any, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, services.Wrap(services.ErrValidation, "captions", "fetch record", "task id required", nil)
	}
	endpoint := c.cfg.BaseURL + c.cfg.RecordPath + "?taskId=" + url.QueryEscape(taskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "captions", "fetch record", "build request", err)
	}
	return c.do(req, "fetch record")
}

// FetchTimestampedLyrics asks the provider for word alignment of one track.
func (c *Client) FetchTimestampedLyrics(ctx context.Context, taskID, audioID string) (map[string]any, error) {
	payload := map[string]string{"taskId": strings.TrimSpace(taskID)}
	if audioID = strings.TrimSpace(audioID); audioID != "" {
		payload["audioId"] = audioID
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "captions", "fetch timestamped lyrics", "encode payload", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+c.cfg.TimestampedLyricsPath, bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "captions", "fetch timestamped lyrics", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, "fetch timestamped lyrics")
}

func (c *Client) do(req *http.Request, op string) (map[string]any, error) {
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "captions", op, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, services.Wrap(services.ErrUpstream, "captions", op, "unexpected status", &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)})
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	var payload map[string]any
	if err := decoder.Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrUpstream, "captions", op, "decode response", fmt.Errorf("%w: %w", ErrMalformedResponse, err))
	}
	if code, ok := numberAt(payload, "code"); ok && code != http.StatusOK {
		msg, _ := payload["msg"].(string)
		return nil, services.Wrap(services.ErrUpstream, "captions", op, "provider error code", &StatusError{StatusCode: int(code), Body: msg})
	}
	return payload, nil
}

// ErrMalformedResponse marks a provider reply that is not a JSON object.
var ErrMalformedResponse = errors.New("malformed provider response")

// IsStatusError reports whether err carries a provider status failure.
func IsStatusError(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr)
}
