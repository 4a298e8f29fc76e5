package config

import (
	"fmt"
	"net"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeProvider()
	c.normalizeCaptions()
	if err := c.normalizeRender(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	if port, ok := os.LookupEnv("PORT"); ok && strings.TrimSpace(port) != "" {
		host, _, splitErr := net.SplitHostPort(c.Paths.APIBind)
		if splitErr != nil {
			host = "0.0.0.0"
		}
		c.Paths.APIBind = net.JoinHostPort(host, strings.TrimSpace(port))
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("VIDEOGEN_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = StorageBackendHTTP
	}
	c.Storage.BaseURL = strings.TrimSpace(c.Storage.BaseURL)
	if c.Storage.BaseURL == "" {
		if value, ok := os.LookupEnv("VIDEOGEN_STORAGE_URL"); ok {
			c.Storage.BaseURL = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("SUPABASE_URL"); ok && strings.TrimSpace(value) != "" {
			c.Storage.BaseURL = strings.TrimRight(strings.TrimSpace(value), "/") + "/storage/v1"
		}
	}
	c.Storage.BaseURL = strings.TrimRight(c.Storage.BaseURL, "/")
	c.Storage.ServiceKey = strings.TrimSpace(c.Storage.ServiceKey)
	if c.Storage.ServiceKey == "" {
		if value, ok := os.LookupEnv("VIDEOGEN_STORAGE_KEY"); ok {
			c.Storage.ServiceKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("SUPABASE_SERVICE_ROLE_KEY"); ok {
			c.Storage.ServiceKey = strings.TrimSpace(value)
		}
	}
	c.Storage.Bucket = strings.Trim(strings.TrimSpace(c.Storage.Bucket), "/")
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = defaultStorageBucket
	}
	var err error
	if strings.TrimSpace(c.Storage.LocalRoot) == "" {
		c.Storage.LocalRoot = defaultLocalRoot
	}
	if c.Storage.LocalRoot, err = expandPath(c.Storage.LocalRoot); err != nil {
		return fmt.Errorf("storage.local_root: %w", err)
	}
	c.Storage.TemplatePrefix = strings.Trim(strings.TrimSpace(c.Storage.TemplatePrefix), "/")
	if c.Storage.TemplatePrefix == "" {
		c.Storage.TemplatePrefix = defaultTemplatePrefix
	}
	c.Storage.TemplateExtension = strings.TrimSpace(c.Storage.TemplateExtension)
	if c.Storage.TemplateExtension == "" {
		c.Storage.TemplateExtension = defaultTemplateExtension
	}
	if !strings.HasPrefix(c.Storage.TemplateExtension, ".") {
		c.Storage.TemplateExtension = "." + c.Storage.TemplateExtension
	}
	if c.Storage.TimeoutSeconds <= 0 {
		c.Storage.TimeoutSeconds = defaultStorageTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeProvider() {
	c.Provider.BaseURL = strings.TrimRight(strings.TrimSpace(c.Provider.BaseURL), "/")
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = defaultProviderBaseURL
	}
	c.Provider.APIKey = strings.TrimSpace(c.Provider.APIKey)
	if c.Provider.APIKey == "" {
		if value, ok := os.LookupEnv("VIDEOGEN_PROVIDER_API_KEY"); ok {
			c.Provider.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("SUNO_API_KEY"); ok {
			c.Provider.APIKey = strings.TrimSpace(value)
		}
	}
	c.Provider.RecordPath = normalizeURLPath(c.Provider.RecordPath, defaultProviderRecordPath)
	c.Provider.TimestampedLyricsPath = normalizeURLPath(c.Provider.TimestampedLyricsPath, defaultProviderLyricsPath)
	if c.Provider.TimeoutSeconds < 0 {
		c.Provider.TimeoutSeconds = 0
	}
}

func (c *Config) normalizeCaptions() {
	if c.Captions.GapThreshold <= 0 {
		c.Captions.GapThreshold = defaultGapThreshold
	}
	if c.Captions.MaxWeightedChars <= 0 {
		c.Captions.MaxWeightedChars = defaultMaxWeightedChars
	}
	if c.Captions.MaxLines <= 0 {
		c.Captions.MaxLines = defaultMaxLines
	}
	if len(c.Captions.EscalationFactors) == 0 {
		c.Captions.EscalationFactors = defaultEscalationFactors()
	}
	if c.Captions.MinLineDuration <= 0 {
		c.Captions.MinLineDuration = defaultMinLineDuration
	}
	if c.Captions.DefaultWordDuration <= 0 {
		c.Captions.DefaultWordDuration = defaultWordDuration
	}
	if c.Captions.FixedIntervalBlocks <= 0 {
		c.Captions.FixedIntervalBlocks = defaultFixedIntervalBlocks
	}
	c.Captions.FontName = strings.TrimSpace(c.Captions.FontName)
	if c.Captions.FontName == "" {
		c.Captions.FontName = defaultFontName
	}
	if c.Captions.FontSize <= 0 {
		c.Captions.FontSize = defaultFontSize
	}
	if c.Captions.MarginV < 0 {
		c.Captions.MarginV = defaultMarginV
	}
}

func (c *Config) normalizeRender() error {
	c.Render.Preset = strings.TrimSpace(c.Render.Preset)
	if c.Render.Preset == "" {
		c.Render.Preset = defaultPreset
	}
	c.Render.AudioBitrate = strings.TrimSpace(c.Render.AudioBitrate)
	if c.Render.AudioBitrate == "" {
		c.Render.AudioBitrate = defaultAudioBitrate
	}
	c.Render.PreviewBitrate = strings.TrimSpace(c.Render.PreviewBitrate)
	if c.Render.PreviewBitrate == "" {
		c.Render.PreviewBitrate = defaultPreviewBitrate
	}
	if c.Render.PreviewSeconds <= 0 {
		c.Render.PreviewSeconds = defaultPreviewSeconds
	}
	c.Render.FallbackTemplateID = strings.TrimSpace(c.Render.FallbackTemplateID)
	c.Render.BackgroundColor = strings.TrimSpace(c.Render.BackgroundColor)
	if c.Render.BackgroundColor == "" {
		c.Render.BackgroundColor = defaultBackgroundColor
	}
	c.Render.StaticImagePath = strings.TrimSpace(c.Render.StaticImagePath)
	if c.Render.StaticImagePath != "" {
		var err error
		if c.Render.StaticImagePath, err = expandPath(c.Render.StaticImagePath); err != nil {
			return fmt.Errorf("render.static_image_path: %w", err)
		}
	}
	c.Render.FFmpegBinary = strings.TrimSpace(c.Render.FFmpegBinary)
	if c.Render.FFmpegBinary == "" {
		c.Render.FFmpegBinary = "ffmpeg"
	}
	c.Render.FFprobeBinary = strings.TrimSpace(c.Render.FFprobeBinary)
	if c.Render.FFprobeBinary == "" {
		c.Render.FFprobeBinary = "ffprobe"
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func normalizeURLPath(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if !strings.HasPrefix(value, "/") {
		value = "/" + value
	}
	return value
}
