package media

import (
	"log/slog"
	"strconv"
	"strings"

	"videogen/internal/config"
	"videogen/internal/logging"
)

// Settings are the encoder parameters shared by the clipper and assembler.
type Settings struct {
	FFmpeg          string
	FFprobe         string
	Width           int
	Height          int
	FPS             int
	VideoCRF        int
	Preset          string
	AudioBitrate    string
	PreviewSeconds  float64
	PreviewBitrate  string
	BackgroundColor string
}

// SettingsFromConfig maps the render section of the configuration.
func SettingsFromConfig(r config.Render) Settings {
	return Settings{
		FFmpeg:          r.FFmpegBinary,
		FFprobe:         r.FFprobeBinary,
		Width:           r.Width,
		Height:          r.Height,
		FPS:             r.FPS,
		VideoCRF:        r.VideoCRF,
		Preset:          r.Preset,
		AudioBitrate:    r.AudioBitrate,
		PreviewSeconds:  r.PreviewSeconds,
		PreviewBitrate:  r.PreviewBitrate,
		BackgroundColor: r.BackgroundColor,
	}
}

func (s Settings) withDefaults() Settings {
	if strings.TrimSpace(s.FFmpeg) == "" {
		s.FFmpeg = "ffmpeg"
	}
	if strings.TrimSpace(s.FFprobe) == "" {
		s.FFprobe = "ffprobe"
	}
	if s.Width <= 0 {
		s.Width = 1080
	}
	if s.Height <= 0 {
		s.Height = 1920
	}
	if s.FPS <= 0 {
		s.FPS = 30
	}
	if s.VideoCRF <= 0 {
		s.VideoCRF = 23
	}
	if s.Preset == "" {
		s.Preset = "veryfast"
	}
	if s.AudioBitrate == "" {
		s.AudioBitrate = "192k"
	}
	if s.PreviewSeconds <= 0 {
		s.PreviewSeconds = 15
	}
	if s.PreviewBitrate == "" {
		s.PreviewBitrate = "128k"
	}
	if s.BackgroundColor == "" {
		s.BackgroundColor = "black"
	}
	return s
}

// Tools wraps ffmpeg and ffprobe for the preview clipper and video assembler.
type Tools struct {
	settings Settings
	run      CommandRunner
	logger   *slog.Logger
}

// Option customizes Tools.
type Option func(*Tools)

// WithCommandRunner allows injecting a custom command runner for tests.
func WithCommandRunner(r CommandRunner) Option {
	return func(t *Tools) {
		if r != nil {
			t.run = r
		}
	}
}

// New constructs media tools.
func New(settings Settings, logger *slog.Logger, opts ...Option) *Tools {
	t := &Tools{
		settings: settings.withDefaults(),
		run:      defaultCommandRunner,
		logger:   logging.NewComponentLogger(logger, "media"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Settings returns the effective encoder settings.
func (t *Tools) Settings() Settings { return t.settings }

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
