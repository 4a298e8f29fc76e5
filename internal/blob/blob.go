package blob

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"videogen/internal/config"
	"videogen/internal/services"
	"videogen/internal/textutil"
)

// Store is a path-addressed object store. Remote paths are slash-separated
// keys relative to the configured bucket.
type Store interface {
	// Download copies the object at remotePath to localPath. A missing object
	// yields an error matching services.ErrNotFound; no partial file is left.
	Download(ctx context.Context, remotePath, localPath string) error
	// Upload stores localPath at remotePath, overwriting any existing object.
	Upload(ctx context.Context, localPath, remotePath, contentType string) error
	// Exists reports whether an object is present at remotePath.
	Exists(ctx context.Context, remotePath string) (bool, error)
}

// NewFromConfig builds the store selected by storage.backend.
func NewFromConfig(cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "blob", "init", "config is nil", nil)
	}
	switch cfg.Storage.Backend {
	case config.StorageBackendLocal:
		return NewLocalStore(cfg.Storage.LocalRoot)
	case config.StorageBackendHTTP:
		client := &http.Client{Timeout: cfg.StorageTimeout()}
		return NewHTTPStore(cfg.Storage.BaseURL, cfg.Storage.Bucket, cfg.Storage.ServiceKey, client), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "blob", "init", fmt.Sprintf("unsupported backend %q", cfg.Storage.Backend), nil)
	}
}

// TemplatePath returns the object key of a background template clip.
func TemplatePath(prefix, templateID, extension string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	name := textutil.SanitizeToken(templateID) + extension
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// ContentTypeFor guesses the upload content type from the object key.
func ContentTypeFor(remotePath string) string {
	switch strings.ToLower(path.Ext(remotePath)) {
	case ".mp3":
		return "audio/mpeg"
	case ".m4a", ".aac":
		return "audio/mp4"
	case ".wav":
		return "audio/wav"
	case ".mp4":
		return "video/mp4"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".ass":
		return "text/x-ssa"
	case ".srt":
		return "application/x-subrip"
	default:
		return "application/octet-stream"
	}
}

func cleanKey(operation, remotePath string) (string, error) {
	key, ok := textutil.CleanObjectPath(remotePath)
	if !ok {
		return "", services.Wrap(services.ErrValidation, "blob", operation, fmt.Sprintf("invalid object path %q", remotePath), nil)
	}
	return key, nil
}
