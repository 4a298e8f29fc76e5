package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"videogen/internal/blob"
	"videogen/internal/config"
	"videogen/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minBytes available.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s free", formatBytes(free))
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (need %s)", detail, formatBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates the external binaries the clip and render stages use.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.MediaRequirements(cfg.Render.FFmpegBinary, cfg.Render.FFprobeBinary))
}

// CheckStorage verifies the blob store backend is fully configured.
func CheckStorage(cfg *config.Config) Result {
	const name = "Blob storage"

	switch cfg.Storage.Backend {
	case config.StorageBackendLocal:
		check := CheckDirectoryAccess(name, cfg.Storage.LocalRoot)
		if check.Passed {
			check.Detail = "local " + check.Detail
		}
		return check
	case config.StorageBackendHTTP:
		var missing []string
		if strings.TrimSpace(cfg.Storage.BaseURL) == "" {
			missing = append(missing, "base_url")
		}
		if strings.TrimSpace(cfg.Storage.Bucket) == "" {
			missing = append(missing, "bucket")
		}
		if strings.TrimSpace(cfg.Storage.ServiceKey) == "" {
			missing = append(missing, "service_key")
		}
		if len(missing) > 0 {
			return Result{Name: name, Detail: "missing " + strings.Join(missing, ", ")}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s bucket %q", cfg.Storage.BaseURL, cfg.Storage.Bucket)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unsupported backend %q", cfg.Storage.Backend)}
	}
}

// CheckProvider reports whether timed captions can be looked up. A missing key
// only disables timed captions, so the result is optional.
func CheckProvider(ctx context.Context, cfg *config.Config) Result {
	const name = "Song provider"

	if strings.TrimSpace(cfg.Provider.APIKey) == "" {
		return Result{Name: name, Optional: true, Detail: "API key missing (timed captions disabled)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, cfg.Provider.BaseURL, nil)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("invalid base url (%v)", err)}
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: summarizeNetError(err)}
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("reachability check failed (%d)", resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Optional: true, Detail: "API key present, reachable"}
}

// CheckFallbackTemplate looks for the fallback background clip in the blob
// store. Without it renders use the static background, so the result is
// optional.
func CheckFallbackTemplate(ctx context.Context, cfg *config.Config) Result {
	const name = "Fallback template"

	if cfg.Render.FallbackTemplateID == "" {
		return Result{Name: name, Passed: true, Optional: true, Detail: "not configured"}
	}
	store, err := blob.NewFromConfig(cfg)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("store unavailable (%v)", err)}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	key := blob.TemplatePath(cfg.Storage.TemplatePrefix, cfg.Render.FallbackTemplateID, cfg.Storage.TemplateExtension)
	found, err := store.Exists(checkCtx, key)
	switch {
	case err != nil:
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (error: %v)", key, err)}
	case !found:
		return Result{Name: name, Optional: true, Detail: key + " not found (static background used)"}
	}
	return Result{Name: name, Passed: true, Optional: true, Detail: key}
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "reachability check timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "reachability check timed out"
	}
	return fmt.Sprintf("unreachable (%v)", err)
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
