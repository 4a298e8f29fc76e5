// Package preflight provides readiness checks for the filesystem paths,
// external binaries and remote services the video generator depends on.
//
// The CLI "videogen preflight" command renders every result; the server runtime
// runs the same checks at startup and logs failures without refusing to start.
// Optional checks (such as the provider key, which only enables timed captions)
// never fail the run as a whole.
package preflight
