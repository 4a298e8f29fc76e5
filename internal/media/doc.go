// Package media wraps ffmpeg and ffprobe for the preview clipper and the
// video assembler.
//
// Tools holds the encoder settings and a CommandRunner. Tests inject a fake
// runner and assert on argument lists; ffmpeg is never executed there.
// Caption files are written as ASS next to the job's other temporary files
// and burned in through the ass filter.
package media
