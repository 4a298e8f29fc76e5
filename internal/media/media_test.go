package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"videogen/internal/captions"
	"videogen/internal/logging"
	"videogen/internal/services"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls       []call
	probeOutput string
	probeErr    error
	ffmpegErr   error
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: append([]string(nil), args...)})
	if name == "ffprobe" {
		return []byte(f.probeOutput), f.probeErr
	}
	return nil, f.ffmpegErr
}

func newTestTools(f *fakeRunner) *Tools {
	return New(Settings{}, logging.NewNop(), WithCommandRunner(f.run))
}

func argValue(t *testing.T, args []string, flag string) string {
	t.Helper()
	idx := slices.Index(args, flag)
	if idx < 0 || idx+1 >= len(args) {
		t.Fatalf("flag %s missing from %v", flag, args)
	}
	return args[idx+1]
}

func TestClipReportsMeasuredDuration(t *testing.T) {
	f := &fakeRunner{probeOutput: `{"format":{"duration":"9.874"}}`}
	tools := newTestTools(f)

	got, err := tools.Clip(context.Background(), "/work/src.mp3", "/work/preview.mp3")
	if err != nil {
		t.Fatalf("Clip returned error: %v", err)
	}
	if got != 9.874 {
		t.Fatalf("duration = %v, want 9.874", got)
	}
	if len(f.calls) != 2 || f.calls[0].name != "ffmpeg" || f.calls[1].name != "ffprobe" {
		t.Fatalf("unexpected calls %+v", f.calls)
	}
	args := f.calls[0].args
	if argValue(t, args, "-t") != "15.000" || argValue(t, args, "-b:a") != "128k" || argValue(t, args, "-c:a") != "libmp3lame" {
		t.Fatalf("unexpected clip args %v", args)
	}
	if !slices.Contains(args, "-vn") || args[len(args)-1] != "/work/preview.mp3" {
		t.Fatalf("unexpected clip args %v", args)
	}
}

func TestClipFallsBackToNominalDuration(t *testing.T) {
	f := &fakeRunner{probeErr: errors.New("boom")}
	got, err := newTestTools(f).Clip(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("Clip returned error: %v", err)
	}
	if got != 15 {
		t.Fatalf("duration = %v, want 15", got)
	}
}

func TestClipEncodingFailureIsExternalToolError(t *testing.T) {
	f := &fakeRunner{ffmpegErr: errors.New("ffmpeg: exit status 1: Invalid data")}
	_, err := newTestTools(f).Clip(context.Background(), "a", "b")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data") {
		t.Fatalf("expected toolkit message in %q", err)
	}
}

func TestRenderTemplateArgs(t *testing.T) {
	f := &fakeRunner{probeOutput: `{"format":{"duration":"N/A"},"streams":[{"codec_type":"video","duration":"120.5"}]}`}
	tools := newTestTools(f)
	got, err := tools.RenderTemplate(context.Background(), RenderInput{
		AudioPath:     "/w/audio.mp3",
		OutputPath:    "/w/out.mp4",
		TemplatePath:  "/w/template.mp4",
		CaptionPath:   "/w/job:1/captions.ass",
		AudioDuration: 120.5,
	})
	if err != nil {
		t.Fatalf("RenderTemplate returned error: %v", err)
	}
	if got != 120.5 {
		t.Fatalf("video duration = %v, want 120.5", got)
	}
	args := f.calls[0].args
	if argValue(t, args, "-stream_loop") != "-1" || argValue(t, args, "-t") != "120.500" {
		t.Fatalf("unexpected template args %v", args)
	}
	vf := argValue(t, args, "-vf")
	for _, want := range []string{"scale=1080:1920:force_original_aspect_ratio=increase", "crop=1080:1920", `ass=/w/job\\:1/captions.ass`} {
		if !strings.Contains(vf, want) {
			t.Fatalf("expected %q in filter %q", want, vf)
		}
	}
	if argValue(t, args, "-c:v") != "libx264" || argValue(t, args, "-crf") != "23" || argValue(t, args, "-b:a") != "192k" {
		t.Fatalf("unexpected encode args %v", args)
	}
}

func TestRenderStaticUsesColourSourceWithoutImage(t *testing.T) {
	f := &fakeRunner{probeErr: errors.New("no probe")}
	got, err := newTestTools(f).RenderStatic(context.Background(), RenderInput{
		AudioPath:     "/w/audio.mp3",
		OutputPath:    "/w/out.mp4",
		AudioDuration: 42,
	})
	if err != nil {
		t.Fatalf("RenderStatic returned error: %v", err)
	}
	if got != 42 {
		t.Fatalf("video duration = %v, want audio duration 42", got)
	}
	args := f.calls[0].args
	if argValue(t, args, "-f") != "lavfi" || !strings.HasPrefix(argValue(t, args, "-i"), "color=c=black:s=1080x1920") {
		t.Fatalf("unexpected static args %v", args)
	}
	if !slices.Contains(args, "-shortest") || argValue(t, args, "-tune") != "stillimage" {
		t.Fatalf("static render must force audio length: %v", args)
	}
	if strings.Contains(argValue(t, args, "-vf"), "ass=") {
		t.Fatalf("unexpected caption filter without captions: %v", args)
	}
}

func TestRenderStaticLoopsImage(t *testing.T) {
	f := &fakeRunner{probeOutput: `{"format":{"duration":"42.0"}}`}
	_, err := newTestTools(f).RenderStatic(context.Background(), RenderInput{
		AudioPath:     "/w/audio.mp3",
		OutputPath:    "/w/out.mp4",
		ImagePath:     "/w/bg.jpg",
		AudioDuration: 42,
	})
	if err != nil {
		t.Fatalf("RenderStatic returned error: %v", err)
	}
	args := f.calls[0].args
	if argValue(t, args, "-loop") != "1" || argValue(t, args, "-i") != "/w/bg.jpg" {
		t.Fatalf("unexpected static image args %v", args)
	}
}

func TestRenderValidatesInput(t *testing.T) {
	tools := newTestTools(&fakeRunner{})
	_, err := tools.RenderTemplate(context.Background(), RenderInput{AudioPath: "a", OutputPath: "b", AudioDuration: 1})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error without template, got %v", err)
	}
	_, err = tools.RenderStatic(context.Background(), RenderInput{AudioPath: "a", OutputPath: "b"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for zero duration, got %v", err)
	}
}

func TestProbeRejectsMissingDuration(t *testing.T) {
	f := &fakeRunner{probeOutput: `{"format":{}}`}
	if _, err := newTestTools(f).Probe(context.Background(), "x"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestEscapeFilterPath(t *testing.T) {
	got := EscapeFilterPath(`/tmp/it's [a],b.ass`)
	want := `/tmp/it\\\'s \[a\]\,b.ass`
	if got != want {
		t.Fatalf("EscapeFilterPath = %q, want %q", got, want)
	}
}

func TestWriteCaptionFiles(t *testing.T) {
	dir := t.TempDir()
	tools := newTestTools(&fakeRunner{})
	style := tools.StyleFor("", 0, 0)

	timed := filepath.Join(dir, "timed.ass")
	if err := WriteTimedCaptions(timed, []captions.Line{{Start: 0, End: 1, Text: "hi"}}, style); err != nil {
		t.Fatalf("WriteTimedCaptions returned error: %v", err)
	}
	data, err := os.ReadFile(timed)
	if err != nil {
		t.Fatalf("read captions: %v", err)
	}
	if !strings.Contains(string(data), "Dialogue: 0,0:00:00.00,0:00:01.00,Default,,0,0,0,,hi") {
		t.Fatalf("unexpected captions:\n%s", data)
	}

	fixed := filepath.Join(dir, "fixed.ass")
	if err := WriteFixedCaptions(fixed, "a\nb", 10, 6, style); err != nil {
		t.Fatalf("WriteFixedCaptions returned error: %v", err)
	}
	if err := WriteFixedCaptions(filepath.Join(dir, "none.ass"), "[Intro]", 10, 6, style); !errors.Is(err, captions.ErrNoLyrics) {
		t.Fatalf("expected ErrNoLyrics, got %v", err)
	}
	if err := WriteTimedCaptions(filepath.Join(dir, "empty.ass"), nil, style); err == nil {
		t.Fatal("expected error for empty lines")
	}
}
