package daemonrun

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"videogen/internal/config"
	"videogen/internal/logging"
	"videogen/internal/staging"
	"videogen/internal/testsupport"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return testsupport.NewConfig(t, testsupport.WithMediaStubs("42.0"))
}

func startRun(t *testing.T, cfg *config.Config) (string, func()) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, cfg, Options{Listener: listener, Logger: logging.NewNop()})
	}()

	base := "http://" + listener.Addr().String()
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(base + "/health")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("server never became ready: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	stop := func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("Run returned %v", err)
			}
		case <-time.After(10 * time.Second):
			t.Fatal("Run did not stop after cancel")
		}
	}
	return base, stop
}

func postJSON(t *testing.T, url, body string) (int, map[string]any) {
	t.Helper()
	return postJSONWithToken(t, url, "", body)
}

func postJSONWithToken(t *testing.T, url, token, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func TestBuildWiresComponents(t *testing.T) {
	rt, err := Build(testConfig(t), logging.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rt.Service == nil || rt.Server == nil || rt.Metrics == nil || rt.Tools == nil || rt.Resolver == nil {
		t.Fatalf("incomplete runtime: %+v", rt)
	}
	if got := rt.Tools.Settings().Width; got != 1080 {
		t.Fatalf("render width = %d, want 1080", got)
	}
}

func TestBuildRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "ftp"
	if _, err := Build(cfg, nil); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}

func TestBuildRejectsBadCaptionOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Captions.EscalationFactors = []float64{0.5}
	if _, err := Build(cfg, nil); err == nil {
		t.Fatal("expected error for non-increasing escalation factor")
	}
}

func TestRunServesUntilCancelled(t *testing.T) {
	base, stop := startRun(t, testConfig(t))
	resp, err := http.Get(base + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(data), `"status":"ok"`) {
		t.Fatalf("health body = %q", data)
	}
	stop()
}

func TestRunEndToEndWithLocalStore(t *testing.T) {
	cfg := testConfig(t)
	testsupport.SeedObject(t, cfg, "songs/track.mp3", 1024)
	base, stop := startRun(t, cfg)
	defer stop()

	status, body := postJSON(t, base+"/generate-preview-audio",
		`{"sourceAudioPath":"songs/track.mp3","outputPath":"previews/track.mp3"}`)
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("preview: status %d body %v", status, body)
	}
	if got := string(testsupport.ReadObject(t, cfg, "previews/track.mp3")); got != "stub" {
		t.Fatalf("preview object = %q, want stub output", got)
	}

	status, body = postJSON(t, base+"/generate-full-video",
		`{"sourceAudioPath":"songs/track.mp3","outputPath":"videos/track.mp4","lyricsText":"first line\nsecond line"}`)
	if status != http.StatusOK {
		t.Fatalf("video: status %d body %v", status, body)
	}
	if body["subtitleMode"] != "v1" {
		t.Fatalf("subtitleMode = %v, want v1 without provider timings", body["subtitleMode"])
	}
	if body["templateSource"] != "static" {
		t.Fatalf("templateSource = %v, want static when no templates are stored", body["templateSource"])
	}
	if got := body["audioDurationSeconds"]; got != 42.0 {
		t.Fatalf("audioDurationSeconds = %v, want 42", got)
	}
	testsupport.ReadObject(t, cfg, "videos/track.mp4")

	entries, err := os.ReadDir(cfg.Paths.WorkDir)
	if err != nil {
		t.Fatalf("read work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("work dir not cleaned: %d entries", len(entries))
	}

	status, body = postJSON(t, base+"/generate-preview-audio",
		`{"sourceAudioPath":"songs/missing.mp3","outputPath":"previews/missing.mp3"}`)
	if status != http.StatusInternalServerError || body["success"] != false {
		t.Fatalf("missing source: status %d body %v", status, body)
	}
}

func TestRunTimedCaptionsBehindToken(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			// startup reachability check
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-song" {
			t.Errorf("provider auth = %q, want bearer key", got)
		}
		if r.URL.Query().Get("taskId") != "task-7" {
			t.Errorf("task id = %q, want task-7", r.URL.Query().Get("taskId"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"code":200,"data":{"response":{"sunoData":[
			{"id":"b","audioUrl":"https://cdn.example/b.mp3","alignedWords":[
				{"word":"[Verse]","startS":0,"endS":0.5},
				{"word":"hello","startS":1,"endS":1.4},
				{"word":"world","startS":1.5,"endS":2}
			]}
		]}}}`)
	}))
	defer provider.Close()

	cfg := testsupport.NewConfig(t,
		testsupport.WithMediaStubs("42.0"),
		testsupport.WithProvider(provider.URL, "sk-song"),
		testsupport.WithAPIToken("local-token"),
	)
	testsupport.SeedObject(t, cfg, "songs/track.mp3", 1024)
	base, stop := startRun(t, cfg)
	defer stop()

	body := `{"sourceAudioPath":"songs/track.mp3","outputPath":"videos/track.mp4","lyricsText":"hello world",` +
		`"sunoTaskId":"task-7","selectedSongUrl":"https://cdn.example/b.mp3"}`

	resp, err := http.Post(base+"/generate-full-video", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST without token: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", resp.StatusCode)
	}

	status, decoded := postJSONWithToken(t, base+"/generate-full-video", "local-token", body)
	if status != http.StatusOK {
		t.Fatalf("video: status %d body %v", status, decoded)
	}
	if decoded["subtitleMode"] != "v2" {
		t.Fatalf("subtitleMode = %v, want v2 from provider timings", decoded["subtitleMode"])
	}
	testsupport.ReadObject(t, cfg, "videos/track.mp4")
}

func TestSweepOnceSkipsLiveWorkspace(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.StaleWorkspaceHours = 1

	ws, err := staging.Open(cfg.Paths.WorkDir, nil)
	if err != nil {
		t.Fatalf("open workspace: %v", err)
	}
	t.Cleanup(func() { ws.Release() })

	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(ws.Root(), old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	result := sweepOnce(context.Background(), logging.NewNop(), cfg)
	if len(result.Removed) != 0 {
		t.Fatalf("removed = %v, want none while locked", result.Removed)
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("skipped = %v, want the live workspace", result.Skipped)
	}
	if _, err := os.Stat(ws.Root()); err != nil {
		t.Fatalf("live workspace removed: %v", err)
	}
}
