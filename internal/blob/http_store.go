package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"videogen/internal/fileutil"
	"videogen/internal/services"
)

// HTTPDoer describes the HTTP client used by the object storage backend.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPStore talks to an object storage REST API addressed as
// {base}/object/{bucket}/{key}, authenticated with a service key.
type HTTPStore struct {
	baseURL    string
	bucket     string
	serviceKey string
	client     HTTPDoer
}

// NewHTTPStore constructs an HTTP-backed store. A nil client uses http.DefaultClient.
func NewHTTPStore(baseURL, bucket, serviceKey string, client HTTPDoer) *HTTPStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPStore{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		bucket:     strings.Trim(strings.TrimSpace(bucket), "/"),
		serviceKey: strings.TrimSpace(serviceKey),
		client:     client,
	}
}

func (s *HTTPStore) objectURL(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return fmt.Sprintf("%s/object/%s/%s", s.baseURL, url.PathEscape(s.bucket), strings.Join(segments, "/"))
}

func (s *HTTPStore) newRequest(ctx context.Context, method, key string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.objectURL(key), body)
	if err != nil {
		return nil, err
	}
	if s.serviceKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.serviceKey)
		req.Header.Set("apikey", s.serviceKey)
	}
	return req, nil
}

// Download streams the object into localPath.
func (s *HTTPStore) Download(ctx context.Context, remotePath, localPath string) error {
	key, err := cleanKey("download", remotePath)
	if err != nil {
		return err
	}
	req, err := s.newRequest(ctx, http.MethodGet, key, nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "blob", "download", "build request", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUpstream, "blob", "download", key, err)
	}
	defer resp.Body.Close()
	if err := statusError("download", key, resp); err != nil {
		return err
	}
	if _, err := fileutil.WriteAtomic(localPath, resp.Body, 0o644); err != nil {
		return services.Wrap(services.ErrUpstream, "blob", "download", "write "+key, err)
	}
	return nil
}

// Upload posts the file with upsert semantics so re-running a job overwrites its output.
func (s *HTTPStore) Upload(ctx context.Context, localPath, remotePath, contentType string) error {
	key, err := cleanKey("upload", remotePath)
	if err != nil {
		return err
	}
	file, err := os.Open(localPath)
	if err != nil {
		return services.Wrap(services.ErrTransient, "blob", "upload", "open local file", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return services.Wrap(services.ErrTransient, "blob", "upload", "stat local file", err)
	}

	req, err := s.newRequest(ctx, http.MethodPost, key, file)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "blob", "upload", "build request", err)
	}
	req.ContentLength = info.Size()
	if contentType == "" {
		contentType = ContentTypeFor(key)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")
	req.Header.Set("cache-control", "max-age=3600")

	resp, err := s.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUpstream, "blob", "upload", key, err)
	}
	defer resp.Body.Close()
	return statusError("upload", key, resp)
}

// Exists issues a HEAD request for the object.
func (s *HTTPStore) Exists(ctx context.Context, remotePath string) (bool, error) {
	key, err := cleanKey("exists", remotePath)
	if err != nil {
		return false, err
	}
	req, err := s.newRequest(ctx, http.MethodHead, key, nil)
	if err != nil {
		return false, services.Wrap(services.ErrConfiguration, "blob", "exists", "build request", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false, services.Wrap(services.ErrUpstream, "blob", "exists", key, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	switch {
	case resp.StatusCode < http.StatusMultipleChoices:
		return true, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		return false, nil
	default:
		return false, services.Wrap(services.ErrUpstream, "blob", "exists", fmt.Sprintf("%s returned %d", key, resp.StatusCode), nil)
	}
}

// statusError classifies a non-success response. Some storage gateways report
// missing objects as 400 with a not_found body, so both shapes map to ErrNotFound.
func statusError(operation, key string, resp *http.Response) error {
	if resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	snippet := strings.TrimSpace(string(body))
	if resp.StatusCode == http.StatusNotFound || (resp.StatusCode == http.StatusBadRequest && looksNotFound(snippet)) {
		return services.Wrap(services.ErrNotFound, "blob", operation, fmt.Sprintf("object %s not found", key), nil)
	}
	msg := fmt.Sprintf("%s returned %d", key, resp.StatusCode)
	if snippet != "" {
		msg += ": " + snippet
	}
	return services.Wrap(services.ErrUpstream, "blob", operation, msg, nil)
}

func looksNotFound(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "not_found") || strings.Contains(lower, "not found") || strings.Contains(lower, `"404"`)
}
