package config

const (
	defaultConfigPath            = "~/.config/videogen/config.toml"
	defaultWorkDir               = "~/.local/share/videogen/work"
	defaultLogDir                = "~/.local/share/videogen/logs"
	defaultAPIBind               = "0.0.0.0:8080"
	defaultLocalRoot             = "~/.local/share/videogen/blobs"
	defaultStorageBucket         = "media"
	defaultTemplatePrefix        = "templates"
	defaultTemplateExtension     = ".mp4"
	defaultStorageTimeoutSeconds = 120
	defaultProviderBaseURL       = "https://api.sunoapi.org"
	defaultProviderRecordPath    = "/api/v1/generate/record-info"
	defaultProviderLyricsPath    = "/api/v1/generate/get-timestamped-lyrics"
	defaultGapThreshold          = 0.6
	defaultMaxWeightedChars      = 24
	defaultMaxLines              = 60
	defaultMinLineDuration       = 1.0
	defaultWordDuration          = 0.5
	defaultFixedIntervalBlocks   = 6
	defaultFontName              = "Noto Sans CJK JP"
	defaultFontSize              = 64
	defaultMarginV               = 320
	defaultWidth                 = 1080
	defaultHeight                = 1920
	defaultFPS                   = 30
	defaultVideoCRF              = 23
	defaultPreset                = "veryfast"
	defaultAudioBitrate          = "192k"
	defaultPreviewSeconds        = 15
	defaultPreviewBitrate        = "128k"
	defaultFallbackTemplateID    = "default"
	defaultBackgroundColor       = "black"
	defaultStaleWorkspaceHours   = 6
	defaultSweepIntervalMinutes  = 30
	defaultShutdownTimeout       = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"

	// StorageBackendHTTP selects the object storage REST backend.
	StorageBackendHTTP = "http"
	// StorageBackendLocal selects a local directory as the bucket.
	StorageBackendLocal = "local"
)

func defaultEscalationFactors() []float64 {
	return []float64{1.25, 1.5}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Storage: Storage{
			Backend:           StorageBackendHTTP,
			Bucket:            defaultStorageBucket,
			LocalRoot:         defaultLocalRoot,
			TemplatePrefix:    defaultTemplatePrefix,
			TemplateExtension: defaultTemplateExtension,
			TimeoutSeconds:    defaultStorageTimeoutSeconds,
		},
		Provider: Provider{
			BaseURL:               defaultProviderBaseURL,
			RecordPath:            defaultProviderRecordPath,
			TimestampedLyricsPath: defaultProviderLyricsPath,
		},
		Captions: Captions{
			GapThreshold:        defaultGapThreshold,
			MaxWeightedChars:    defaultMaxWeightedChars,
			MaxLines:            defaultMaxLines,
			EscalationFactors:   defaultEscalationFactors(),
			MinLineDuration:     defaultMinLineDuration,
			DefaultWordDuration: defaultWordDuration,
			FixedIntervalBlocks: defaultFixedIntervalBlocks,
			FontName:            defaultFontName,
			FontSize:            defaultFontSize,
			MarginV:             defaultMarginV,
		},
		Render: Render{
			Width:              defaultWidth,
			Height:             defaultHeight,
			FPS:                defaultFPS,
			VideoCRF:           defaultVideoCRF,
			Preset:             defaultPreset,
			AudioBitrate:       defaultAudioBitrate,
			PreviewSeconds:     defaultPreviewSeconds,
			PreviewBitrate:     defaultPreviewBitrate,
			FallbackTemplateID: defaultFallbackTemplateID,
			BackgroundColor:    defaultBackgroundColor,
			FFmpegBinary:       "ffmpeg",
			FFprobeBinary:      "ffprobe",
		},
		Server: Server{
			StaleWorkspaceHours:    defaultStaleWorkspaceHours,
			SweepIntervalMinutes:   defaultSweepIntervalMinutes,
			ShutdownTimeoutSeconds: defaultShutdownTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
