package songprovider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"videogen/internal/logging"
	"videogen/internal/services"
)

func TestFetchRecordSendsTaskAndBearer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != defaultRecordPath {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("taskId"); got != "task 1" {
			t.Fatalf("taskId = %q, want %q", got, "task 1")
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`{"code":200,"msg":"success","data":{"taskId":"task 1"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "secret"})
	record, err := client.FetchRecord(context.Background(), "task 1")
	if err != nil {
		t.Fatalf("FetchRecord returned error: %v", err)
	}
	if got, _ := lookup(record, "data.taskId"); got != "task 1" {
		t.Fatalf("data.taskId = %v", got)
	}
}

func TestFetchRecordStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http status", http.StatusUnauthorized, `{"error":"bad key"}`},
		{"application code", http.StatusOK, `{"code":429,"msg":"insufficient credits"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(Config{BaseURL: server.URL}).FetchRecord(context.Background(), "t")
			if !IsStatusError(err) {
				t.Fatalf("expected status error, got %v", err)
			}
			if !errors.Is(err, services.ErrUpstream) {
				t.Fatalf("expected ErrUpstream marker, got %v", err)
			}
		})
	}
}

func TestFetchRecordRequiresTaskID(t *testing.T) {
	_, err := NewClient(Config{}).FetchRecord(context.Background(), "  ")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFetchTimestampedLyricsPostsPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/custom" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["taskId"] != "t1" || payload["audioId"] != "a1" {
			t.Fatalf("unexpected payload %v", payload)
		}
		_, _ = w.Write([]byte(`{"code":200,"data":{"alignedWords":[{"word":"hi","startS":"0.5","endS":1}]}}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, TimestampedLyricsPath: "/custom"})
	resp, err := client.FetchTimestampedLyrics(context.Background(), "t1", "a1")
	if err != nil {
		t.Fatalf("FetchTimestampedLyrics returned error: %v", err)
	}
	raw, path := firstArray(resp, alignmentPaths)
	if path != "data.alignedWords" {
		t.Fatalf("path = %q, want data.alignedWords", path)
	}
	words := NormalizeWords(raw)
	if len(words) != 1 || words[0].Start != 0.5 || words[0].End != 1 || !words[0].HasEnd {
		t.Fatalf("unexpected words %+v", words)
	}
}

func TestUnreachableProviderIsNotStatusError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(Config{BaseURL: url}).FetchRecord(context.Background(), "t")
	if err == nil {
		t.Fatal("expected error")
	}
	if IsStatusError(err) {
		t.Fatalf("transport failure classified as status error: %v", err)
	}
}

func TestMalformedResponseHasOwnReason(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "secret"})
	_, err := client.FetchRecord(context.Background(), "t")
	if !errors.Is(err, ErrMalformedResponse) || !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("err = %v, want malformed upstream response", err)
	}
	result := NewResolver(client, logging.NewNop()).Resolve(context.Background(), "t", selected)
	if result.Reason != ReasonMalformedResponse {
		t.Fatalf("reason = %q, want %q", result.Reason, ReasonMalformedResponse)
	}
}
