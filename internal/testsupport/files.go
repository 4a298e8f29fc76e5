package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// mediaHeaders are the leading bytes of the fixture formats the pipeline
// downloads, so seeded objects pass content sniffing.
var mediaHeaders = map[string][]byte{
	".mp3": append([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"), 0xFF, 0xFB, 0x90, 0x64),
	".mp4": {0x00, 0x00, 0x00, 0x10, 'f', 't', 'y', 'p', 'm', 'p', '4', '2', 0x00, 0x00, 0x00, 0x00},
	".jpg": {0xFF, 0xD8, 0xFF, 0xE0},
}

// WriteFile writes a size-byte fixture at path, creating parent directories.
// Known media extensions start with their format header; the rest of the file
// repeats an MPEG frame-sync filler. A size <= 0 writes just the header, or a
// single byte when the extension is unknown.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	header := mediaHeaders[strings.ToLower(filepath.Ext(path))]
	if size < int64(len(header)) {
		size = int64(len(header))
	}
	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}

	content := make([]byte, 0, size)
	content = append(content, header...)
	filler := bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x64, 0x00, 0x00}, int(size)/6+1)
	content = append(content, filler[:size-int64(len(header))]...)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
