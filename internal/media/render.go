package media

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"videogen/internal/logging"
	"videogen/internal/services"
)

// RenderInput describes one video render.
type RenderInput struct {
	AudioPath  string
	OutputPath string
	// TemplatePath is the background clip for template mode.
	TemplatePath string
	// ImagePath is the still for static mode; empty renders a solid colour.
	ImagePath string
	// CaptionPath is an optional ASS file burned into the video.
	CaptionPath   string
	AudioDuration float64
}

func (in RenderInput) validate(needTemplate bool) error {
	switch {
	case strings.TrimSpace(in.AudioPath) == "":
		return services.Wrap(services.ErrValidation, "render", "input", "audio path required", nil)
	case strings.TrimSpace(in.OutputPath) == "":
		return services.Wrap(services.ErrValidation, "render", "input", "output path required", nil)
	case needTemplate && strings.TrimSpace(in.TemplatePath) == "":
		return services.Wrap(services.ErrValidation, "render", "input", "template path required", nil)
	case math.IsNaN(in.AudioDuration) || math.IsInf(in.AudioDuration, 0) || in.AudioDuration <= 0:
		return services.Wrap(services.ErrValidation, "render", "input", fmt.Sprintf("invalid audio duration %v", in.AudioDuration), nil)
	}
	return nil
}

// RenderTemplate loops or trims the template clip to the audio length, scales
// and crops it to the output canvas, burns in captions and muxes the audio.
func (t *Tools) RenderTemplate(ctx context.Context, in RenderInput) (float64, error) {
	if err := in.validate(true); err != nil {
		return 0, err
	}
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-stream_loop", "-1", "-i", in.TemplatePath,
		"-i", in.AudioPath,
		"-map", "0:v:0", "-map", "1:a:0",
		"-vf", t.videoFilter(in.CaptionPath, true),
	}
	args = append(args, t.encodeArgs(in.AudioDuration)...)
	args = append(args, in.OutputPath)
	return t.render(ctx, "template", in, args)
}

// RenderStatic loops a still image, or a solid colour when no image is given,
// for exactly the audio length.
func (t *Tools) RenderStatic(ctx context.Context, in RenderInput) (float64, error) {
	if err := in.validate(false); err != nil {
		return 0, err
	}
	s := t.settings
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	scale := false
	if strings.TrimSpace(in.ImagePath) != "" {
		args = append(args, "-loop", "1", "-framerate", strconv.Itoa(s.FPS), "-i", in.ImagePath)
		scale = true
	} else {
		args = append(args, "-f", "lavfi", "-i", fmt.Sprintf("color=c=%s:s=%dx%d:r=%d", s.BackgroundColor, s.Width, s.Height, s.FPS))
	}
	args = append(args,
		"-i", in.AudioPath,
		"-map", "0:v:0", "-map", "1:a:0",
		"-vf", t.videoFilter(in.CaptionPath, scale),
		"-tune", "stillimage",
	)
	args = append(args, t.encodeArgs(in.AudioDuration)...)
	args = append(args, "-shortest", in.OutputPath)
	return t.render(ctx, "static", in, args)
}

func (t *Tools) videoFilter(captionPath string, scale bool) string {
	s := t.settings
	var filters []string
	if scale {
		filters = append(filters,
			fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase", s.Width, s.Height),
			fmt.Sprintf("crop=%d:%d", s.Width, s.Height),
			fmt.Sprintf("fps=%d", s.FPS),
		)
	}
	if strings.TrimSpace(captionPath) != "" {
		filters = append(filters, "ass="+EscapeFilterPath(captionPath))
	}
	filters = append(filters, "format=yuv420p")
	return strings.Join(filters, ",")
}

func (t *Tools) encodeArgs(audioDuration float64) []string {
	s := t.settings
	return []string{
		"-c:v", "libx264",
		"-preset", s.Preset,
		"-crf", strconv.Itoa(s.VideoCRF),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", s.AudioBitrate,
		"-t", seconds(audioDuration),
		"-movflags", "+faststart",
	}
}

func (t *Tools) render(ctx context.Context, mode string, in RenderInput, args []string) (float64, error) {
	logger := logging.WithContext(ctx, t.logger)
	logger.Info("render started",
		logging.String("mode", mode),
		logging.Seconds("audio_seconds", in.AudioDuration),
		logging.Bool("captions", in.CaptionPath != ""),
	)
	if _, err := t.run(ctx, t.settings.FFmpeg, args...); err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "render", "ffmpeg", mode+" render", err)
	}
	duration, err := t.Probe(ctx, in.OutputPath)
	if err != nil {
		logging.WarnWithContext(logger, "rendered video probe failed", "render_probe_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "audio duration reported as video duration"),
		)
		return in.AudioDuration, nil
	}
	return duration, nil
}

// filterValueEscaper escapes a value for an ffmpeg filter option.
var filterValueEscaper = strings.NewReplacer(`\`, `\\`, `:`, `\:`, `'`, `\'`)

// filterGraphEscaper escapes the already escaped value for the filtergraph.
var filterGraphEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)

// EscapeFilterPath makes a filesystem path safe to embed as a filter argument
// inside an -vf chain.
func EscapeFilterPath(path string) string {
	return filterGraphEscaper.Replace(filterValueEscaper.Replace(path))
}
