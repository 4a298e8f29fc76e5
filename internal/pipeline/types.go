package pipeline

import (
	"context"
	"time"

	"videogen/internal/captions"
	"videogen/internal/media"
	"videogen/internal/services/songprovider"
)

// BlobStore is the object storage used for inputs and outputs.
type BlobStore interface {
	Download(ctx context.Context, remotePath, localPath string) error
	Upload(ctx context.Context, localPath, remotePath, contentType string) error
}

// CaptionSource resolves provider word timings. It must not fail; problems
// are reported through the result's reason.
type CaptionSource interface {
	Resolve(ctx context.Context, taskID, selectedURL string) songprovider.Result
}

// LineComposer groups word timings into caption lines.
type LineComposer interface {
	Compose(words []captions.Word, audioDuration float64) ([]captions.Line, error)
}

// Clipper extracts the preview clip and returns its duration.
type Clipper interface {
	Clip(ctx context.Context, src, dst string) (float64, error)
}

// Assembler probes media and renders the final video. Render methods return
// the duration of the produced video.
type Assembler interface {
	Probe(ctx context.Context, path string) (float64, error)
	RenderTemplate(ctx context.Context, in media.RenderInput) (float64, error)
	RenderStatic(ctx context.Context, in media.RenderInput) (float64, error)
}

// Recorder receives job and stage outcomes.
type Recorder interface {
	ObserveStage(operation, stage string, elapsed time.Duration, err error)
	ObserveJob(operation string, elapsed time.Duration, err error)
	CaptionMode(mode string)
	CaptionSource(reason string)
	TemplateSource(source, reason string)
}

// NopRecorder discards every observation.
type NopRecorder struct{}

func (NopRecorder) ObserveStage(string, string, time.Duration, error) {}
func (NopRecorder) ObserveJob(string, time.Duration, error)           {}
func (NopRecorder) CaptionMode(string)                                {}
func (NopRecorder) CaptionSource(string)                              {}
func (NopRecorder) TemplateSource(string, string)                     {}

// PreviewRequest asks for a preview clip of a stored track.
type PreviewRequest struct {
	SourceAudioPath string
	OutputPath      string
}

// PreviewResult describes the uploaded preview.
type PreviewResult struct {
	OutputPath      string
	DurationSeconds float64
}

// VideoRequest asks for the full lyric video of a stored track.
type VideoRequest struct {
	SourceAudioPath      string
	OutputPath           string
	BackgroundImagePath  string
	BackgroundTemplateID string
	LyricsText           string
	SunoTaskID           string
	SelectedSongURL      string
}

// VideoResult describes the uploaded video and how it was produced.
type VideoResult struct {
	OutputPath           string
	AudioDurationSeconds float64
	VideoDurationSeconds float64
	// SubtitleMode is ModeNone when the video has no captions.
	SubtitleMode   captions.Mode
	TemplateSource TemplateSource
	TemplateReason string
}

// TemplateSource records which background the render used.
type TemplateSource string

const (
	// TemplateRequested means the caller's template was used.
	TemplateRequested TemplateSource = "requested"
	// TemplateFallback means the configured fallback template was used.
	TemplateFallback TemplateSource = "fallback"
	// TemplateStatic means no template was available and a still was looped.
	TemplateStatic TemplateSource = "static"
)

// Template resolution reasons.
const (
	ReasonTemplateFound       = "found"
	ReasonNoTemplateRequested = "no_template_requested"
	ReasonTemplateNotFound    = "template_not_found"
	ReasonTemplateUnavailable = "template_unavailable"
	ReasonFallbackNotFound    = "fallback_not_found"
	ReasonFallbackUnavailable = "fallback_unavailable"
	ReasonNoFallback          = "no_fallback_configured"
)
