// Package pipeline orchestrates preview and full video jobs.
//
// A job opens a locked workspace, downloads its inputs, runs the clipper or
// the assembler and uploads the result, releasing every temporary file on all
// exit paths. Full video jobs degrade instead of failing when the template or
// the caption data is unavailable: the requested template falls back to the
// configured one and then to a static background, and captions fall back from
// provider timings to fixed intervals and then to none.
package pipeline
