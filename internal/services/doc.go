// Package services defines shared utilities consumed by the pipeline and its
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, operations, stage names, and request
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into API status codes and metric labels.
//
// Use these helpers when wiring new pipeline stages so error handling and
// observability stay uniform.
package services
