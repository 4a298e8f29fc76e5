package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"videogen/internal/config"
)

// SeedObject places a size-byte object at key in the local blob root and
// returns its path on disk.
func SeedObject(t testing.TB, cfg *config.Config, key string, size int64) string {
	t.Helper()

	path := filepath.Join(cfg.Storage.LocalRoot, filepath.FromSlash(key))
	WriteFile(t, path, size)
	return path
}

// ReadObject returns the content stored at key in the local blob root.
func ReadObject(t testing.TB, cfg *config.Config, key string) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(cfg.Storage.LocalRoot, filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("read object %s: %v", key, err)
	}
	return data
}
