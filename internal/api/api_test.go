package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"videogen/internal/captions"
	"videogen/internal/logging"
	"videogen/internal/metrics"
	"videogen/internal/pipeline"
	"videogen/internal/services"
)

type stubJobs struct {
	preview    pipeline.PreviewResult
	video      pipeline.VideoResult
	err        error
	videoReq   pipeline.VideoRequest
	previewReq pipeline.PreviewRequest
	calls      int
}

func (s *stubJobs) GeneratePreviewAudio(_ context.Context, req pipeline.PreviewRequest) (pipeline.PreviewResult, error) {
	s.calls++
	s.previewReq = req
	return s.preview, s.err
}

func (s *stubJobs) GenerateFullVideo(_ context.Context, req pipeline.VideoRequest) (pipeline.VideoResult, error) {
	s.calls++
	s.videoReq = req
	return s.video, s.err
}

func newTestServer(t *testing.T, jobs Jobs, opts Options) http.Handler {
	t.Helper()
	opts.Logger = logging.NewNop()
	srv, err := New(jobs, opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var payload map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, payload
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, &stubJobs{}, Options{APIToken: "secret"})
	rec, payload := do(t, h, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if payload["status"] != "ok" || payload["service"] != "video-generator" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected generated request id header")
	}
}

func TestPreviewSuccess(t *testing.T) {
	jobs := &stubJobs{preview: pipeline.PreviewResult{OutputPath: "p/a.mp3", DurationSeconds: 15}}
	h := newTestServer(t, jobs, Options{})
	rec, payload := do(t, h, http.MethodPost, "/generate-preview-audio",
		`{"sourceAudioPath":" songs/a.mp3 ","outputPath":"p/a.mp3"}`, map[string]string{requestIDHeader: "req-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if payload["success"] != true || payload["outputPath"] != "p/a.mp3" || payload["durationSeconds"] != 15.0 {
		t.Fatalf("unexpected payload %v", payload)
	}
	if jobs.previewReq.SourceAudioPath != "songs/a.mp3" {
		t.Fatalf("source path = %q, want trimmed", jobs.previewReq.SourceAudioPath)
	}
	if rec.Header().Get(requestIDHeader) != "req-1" {
		t.Fatalf("request id not echoed: %q", rec.Header().Get(requestIDHeader))
	}
}

func TestPreviewValidation(t *testing.T) {
	jobs := &stubJobs{}
	h := newTestServer(t, jobs, Options{})
	tests := []struct {
		body string
		want string
	}{
		{`{"outputPath":"p.mp3"}`, "sourceAudioPath is required"},
		{`{"sourceAudioPath":"../x.mp3","outputPath":"p.mp3"}`, "sourceAudioPath is not a valid object path"},
		{`not json`, "invalid request body"},
	}
	for _, tt := range tests {
		rec, payload := do(t, h, http.MethodPost, "/generate-preview-audio", tt.body, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d, want 400", tt.body, rec.Code)
		}
		msg, _ := payload["error"].(string)
		if payload["success"] != false || !strings.Contains(msg, tt.want) {
			t.Fatalf("body %s: payload %v, want error containing %q", tt.body, payload, tt.want)
		}
	}
	if jobs.calls != 0 {
		t.Fatalf("invalid requests must not reach the pipeline, got %d calls", jobs.calls)
	}
}

func TestPreviewJobFailure(t *testing.T) {
	jobs := &stubJobs{err: services.Wrap(services.ErrNotFound, "blob", "download", "object songs/a.mp3 not found", nil)}
	h := newTestServer(t, jobs, Options{})
	rec, payload := do(t, h, http.MethodPost, "/generate-preview-audio", `{"sourceAudioPath":"songs/a.mp3","outputPath":"p.mp3"}`, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	msg, _ := payload["error"].(string)
	if payload["success"] != false || !strings.Contains(msg, "songs/a.mp3 not found") {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestFullVideoSubtitleMode(t *testing.T) {
	tests := []struct {
		mode captions.Mode
		want any
	}{
		{captions.ModeTimed, "v2"},
		{captions.ModeFixedInterval, "v1"},
		{captions.ModeNone, nil},
	}
	for _, tt := range tests {
		jobs := &stubJobs{video: pipeline.VideoResult{
			OutputPath:           "v.mp4",
			AudioDurationSeconds: 30,
			VideoDurationSeconds: 30.04,
			SubtitleMode:         tt.mode,
			TemplateSource:       pipeline.TemplateFallback,
		}}
		h := newTestServer(t, jobs, Options{})
		rec, payload := do(t, h, http.MethodPost, "/generate-full-video",
			`{"sourceAudioPath":"a.mp3","outputPath":"v.mp4","backgroundTemplateId":"t9","lyricsText":"la\n","sunoTaskId":"task","selectedSongUrl":"https://x/a.mp3"}`, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		got, present := payload["subtitleMode"]
		if !present || got != tt.want {
			t.Fatalf("subtitleMode = %v (present %v), want %v", got, present, tt.want)
		}
		if payload["templateSource"] != "fallback" || payload["videoDurationSeconds"] != 30.04 {
			t.Fatalf("unexpected payload %v", payload)
		}
		if jobs.videoReq.LyricsText != "la\n" || jobs.videoReq.BackgroundTemplateID != "t9" || jobs.videoReq.SunoTaskID != "task" {
			t.Fatalf("request not forwarded: %+v", jobs.videoReq)
		}
	}
}

func TestBearerTokenGuardsGeneration(t *testing.T) {
	jobs := &stubJobs{}
	h := newTestServer(t, jobs, Options{APIToken: "secret"})
	body := `{"sourceAudioPath":"a.mp3","outputPath":"p.mp3"}`

	rec, _ := do(t, h, http.MethodPost, "/generate-preview-audio", body, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	rec, _ = do(t, h, http.MethodPost, "/generate-preview-audio", body, map[string]string{"Authorization": "Bearer wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	rec, _ = do(t, h, http.MethodPost, "/generate-preview-audio", body, map[string]string{"Authorization": "Bearer secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, &stubJobs{}, Options{RateLimitPerSecond: 0.001, RateLimitBurst: 1})
	body := `{"sourceAudioPath":"a.mp3","outputPath":"p.mp3"}`
	if rec, _ := do(t, h, http.MethodPost, "/generate-preview-audio", body, nil); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}
	rec, payload := do(t, h, http.MethodPost, "/generate-preview-audio", body, nil)
	if rec.Code != http.StatusTooManyRequests || payload["success"] != false {
		t.Fatalf("second request status = %d payload %v, want 429", rec.Code, payload)
	}
	if rec, _ := do(t, h, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health must bypass the limiter, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	h := newTestServer(t, &stubJobs{}, Options{Metrics: m})
	do(t, h, http.MethodGet, "/health", "", nil)
	rec, _ := do(t, h, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `videogen_http_requests_total{code="200",route="/health"} 1`) {
		t.Fatalf("expected request counter in:\n%s", rec.Body.String())
	}
}

func TestNewRequiresJobs(t *testing.T) {
	if _, err := New(nil, Options{}); err == nil {
		t.Fatal("expected error without jobs")
	}
}
