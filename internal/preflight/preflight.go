package preflight

import (
	"context"

	"videogen/internal/config"
)

// MinFreeBytes is the free space a work directory needs for a full render.
const MinFreeBytes uint64 = 2 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckFreeSpace("Work directory space", cfg.Paths.WorkDir, MinFreeBytes),
	}
	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Optional: status.Optional,
			Detail:   binaryDetail(status.Path, status.Detail),
		})
	}
	results = append(results, CheckStorage(cfg))
	results = append(results, CheckFallbackTemplate(ctx, cfg))
	results = append(results, CheckProvider(ctx, cfg))
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

func binaryDetail(path, detail string) string {
	if path != "" {
		return path
	}
	return detail
}
