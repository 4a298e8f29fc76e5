// Package logging assembles structured slog loggers and formatting helpers used
// across the video generator.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so pipeline code tags log lines with job
// IDs, stages and request IDs without threading them by hand. A no-op logger
// is provided for tests and wiring code that cannot fail.
package logging
