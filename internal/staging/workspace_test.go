package staging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"videogen/internal/logging"
)

func TestOpenCreatesUniqueLockedWorkspaces(t *testing.T) {
	base := t.TempDir()
	first, err := Open(base, logging.NewNop())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer first.Release()
	second, err := Open(base, logging.NewNop())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer second.Release()

	if first.Token() == second.Token() {
		t.Fatalf("expected unique tokens, got %q twice", first.Token())
	}
	if !strings.HasPrefix(first.Token(), "job-") {
		t.Fatalf("unexpected token %q", first.Token())
	}
	if _, err := os.Stat(filepath.Join(first.Root(), lockFileName)); err != nil {
		t.Fatalf("expected lock file: %v", err)
	}
}

func TestReleaseRemovesTrackedFilesAndDirectory(t *testing.T) {
	base := t.TempDir()
	ws, err := Open(base, logging.NewNop())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	audio := ws.File("source.mp3")
	if err := os.WriteFile(audio, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	ws.File("never-created.ass")
	if got := len(ws.Tracked()); got != 2 {
		t.Fatalf("expected 2 tracked paths, got %d", got)
	}

	result := ws.Release()
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected cleanup errors: %v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != audio {
		t.Fatalf("unexpected removed list: %v", result.Removed)
	}
	if _, err := os.Stat(ws.Root()); !os.IsNotExist(err) {
		t.Fatalf("expected workspace directory removed, stat err=%v", err)
	}
	if again := ws.Release(); len(again.Removed) != 0 || len(again.Errors) != 0 {
		t.Fatalf("expected second Release to be a no-op, got %+v", again)
	}
}

func TestFileStripsDirectoryComponents(t *testing.T) {
	ws, err := Open(t.TempDir(), logging.NewNop())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer ws.Release()

	path := ws.File("../../escape.mp3")
	if filepath.Dir(path) != ws.Root() {
		t.Fatalf("expected path inside workspace, got %q", path)
	}
}

func TestOpenRejectsEmptyBase(t *testing.T) {
	if _, err := Open("  ", nil); err == nil {
		t.Fatal("expected error for empty base dir")
	}
}
