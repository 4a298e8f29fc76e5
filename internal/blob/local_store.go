package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"videogen/internal/fileutil"
	"videogen/internal/services"
)

// LocalStore treats a directory as the bucket. It backs development setups,
// the CLI, and tests.
type LocalStore struct {
	root string
}

// NewLocalStore returns a store rooted at dir, creating it when missing.
func NewLocalStore(dir string) (*LocalStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "blob", "init", "local root not configured", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "blob", "init", "create local root", err)
	}
	return &LocalStore{root: dir}, nil
}

func (s *LocalStore) resolve(operation, remotePath string) (string, string, error) {
	key, err := cleanKey(operation, remotePath)
	if err != nil {
		return "", "", err
	}
	return key, filepath.Join(s.root, filepath.FromSlash(key)), nil
}

// Download copies the object file into localPath.
func (s *LocalStore) Download(ctx context.Context, remotePath, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, src, err := s.resolve("download", remotePath)
	if err != nil {
		return err
	}
	if err := fileutil.CopyFile(src, localPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrNotFound, "blob", "download", fmt.Sprintf("object %s not found", key), nil)
		}
		return services.Wrap(services.ErrUpstream, "blob", "download", key, err)
	}
	return nil
}

// Upload copies localPath into the bucket directory, replacing any existing object.
func (s *LocalStore) Upload(ctx context.Context, localPath, remotePath, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, dst, err := s.resolve("upload", remotePath)
	if err != nil {
		return err
	}
	if err := fileutil.CopyFile(localPath, dst); err != nil {
		return services.Wrap(services.ErrUpstream, "blob", "upload", key, err)
	}
	return nil
}

// Exists reports whether the object file is present.
func (s *LocalStore) Exists(ctx context.Context, remotePath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key, target, err := s.resolve("exists", remotePath)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(target)
	switch {
	case err == nil:
		return !info.IsDir(), nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, services.Wrap(services.ErrUpstream, "blob", "exists", key, err)
	}
}
