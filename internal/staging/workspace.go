package staging

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"videogen/internal/logging"
)

const (
	jobDirPrefix = "job-"
	lockFileName = ".lock"
)

// Workspace is a per-job scratch directory. Every file created for a job is
// tracked and removed by Release, which callers defer right after Open so all
// exit paths clean up. The directory holds an exclusive lock while the job is
// live so the stale sweeper never touches it.
type Workspace struct {
	root   string
	token  string
	lock   *flock.Flock
	logger *slog.Logger

	mu       sync.Mutex
	tracked  []string
	released bool
}

// Open creates and locks a fresh job workspace under baseDir. The directory
// name embeds a UTC timestamp and a short random suffix so concurrent jobs on
// one instance never collide.
func Open(baseDir string, logger *slog.Logger) (*Workspace, error) {
	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		return nil, errors.New("workspace base directory not configured")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	token := newToken(time.Now())
	root := filepath.Join(baseDir, token)
	if err := os.Mkdir(root, 0o755); err != nil {
		return nil, fmt.Errorf("create job workspace: %w", err)
	}

	lock := flock.New(filepath.Join(root, lockFileName))
	ok, err := lock.TryLock()
	if err != nil || !ok {
		_ = os.RemoveAll(root)
		if err == nil {
			err = errors.New("lock already held")
		}
		return nil, fmt.Errorf("lock job workspace: %w", err)
	}

	if logger == nil {
		logger = logging.NewNop()
	}
	return &Workspace{root: root, token: token, lock: lock, logger: logger}, nil
}

func newToken(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return jobDirPrefix + now.UTC().Format("20060102T150405.000Z") + "-" + suffix
}

// Token returns the unique job token, which doubles as the job ID in logs.
func (w *Workspace) Token() string { return w.token }

// Root returns the workspace directory.
func (w *Workspace) Root() string { return w.root }

// File returns a tracked path inside the workspace for the given base name.
func (w *Workspace) File(name string) string {
	path := filepath.Join(w.root, filepath.Base(name))
	w.Track(path)
	return path
}

// Track registers an additional path for removal on Release.
func (w *Workspace) Track(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tracked = append(w.tracked, path)
}

// Tracked returns a copy of the registered paths.
func (w *Workspace) Tracked() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.tracked...)
}

// ReleaseResult reports what Release removed and what it could not.
type ReleaseResult struct {
	Removed []string
	Errors  []CleanupError
}

// Release removes every tracked file independently, then the directory itself.
// A failure on one file never prevents removal of the others. Calling Release
// more than once is a no-op.
func (w *Workspace) Release() ReleaseResult {
	w.mu.Lock()
	if w.released {
		w.mu.Unlock()
		return ReleaseResult{}
	}
	w.released = true
	tracked := append([]string(nil), w.tracked...)
	w.mu.Unlock()

	var result ReleaseResult
	for _, path := range tracked {
		err := os.Remove(path)
		switch {
		case err == nil:
			result.Removed = append(result.Removed, path)
		case errors.Is(err, os.ErrNotExist):
		default:
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
		}
	}

	if err := w.lock.Unlock(); err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: w.lock.Path(), Error: err})
	}
	if err := os.RemoveAll(w.root); err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: w.root, Error: err})
	}

	for _, failure := range result.Errors {
		logging.WarnWithContext(w.logger, "failed to remove job file",
			"workspace_cleanup_failed",
			logging.String("path", failure.Path),
			logging.Error(failure.Error),
			logging.String(logging.FieldErrorHint, "check work_dir permissions; the stale sweeper retries later"),
			logging.String(logging.FieldImpact, "disk space not reclaimed"),
		)
	}
	w.logger.Debug("job workspace released",
		logging.String("workspace", w.root),
		logging.Int("removed", len(result.Removed)),
		logging.String(logging.FieldEventType, "workspace_released"),
	)
	return result
}
