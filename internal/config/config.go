package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkDir  string `toml:"work_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Storage configures the blob store holding source audio, templates and outputs.
type Storage struct {
	Backend           string `toml:"backend"`
	BaseURL           string `toml:"base_url"`
	Bucket            string `toml:"bucket"`
	ServiceKey        string `toml:"service_key"`
	LocalRoot         string `toml:"local_root"`
	TemplatePrefix    string `toml:"template_prefix"`
	TemplateExtension string `toml:"template_extension"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
}

// Provider configures the song-generation provider used for word timings.
type Provider struct {
	BaseURL               string `toml:"base_url"`
	APIKey                string `toml:"api_key"`
	RecordPath            string `toml:"record_path"`
	TimestampedLyricsPath string `toml:"timestamped_lyrics_path"`
	// TimeoutSeconds bounds a single provider call. Zero selects the client default (30s).
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Captions holds the caption composition thresholds and subtitle styling.
type Captions struct {
	GapThreshold        float64   `toml:"gap_threshold"`
	MaxWeightedChars    float64   `toml:"max_weighted_chars"`
	MaxLines            int       `toml:"max_lines"`
	EscalationFactors   []float64 `toml:"escalation_factors"`
	MinLineDuration     float64   `toml:"min_line_duration"`
	DefaultWordDuration float64   `toml:"default_word_duration"`
	FixedIntervalBlocks int       `toml:"fixed_interval_blocks"`
	FontName            string    `toml:"font_name"`
	FontSize            int       `toml:"font_size"`
	MarginV             int       `toml:"margin_v"`
}

// Render configures ffmpeg output and the template fallback chain.
type Render struct {
	Width              int     `toml:"width"`
	Height             int     `toml:"height"`
	FPS                int     `toml:"fps"`
	VideoCRF           int     `toml:"video_crf"`
	Preset             string  `toml:"preset"`
	AudioBitrate       string  `toml:"audio_bitrate"`
	PreviewSeconds     float64 `toml:"preview_seconds"`
	PreviewBitrate     string  `toml:"preview_bitrate"`
	FallbackTemplateID string  `toml:"fallback_template_id"`
	StaticImagePath    string  `toml:"static_image_path"`
	BackgroundColor    string  `toml:"background_color"`
	FFmpegBinary       string  `toml:"ffmpeg_binary"`
	FFprobeBinary      string  `toml:"ffprobe_binary"`
}

// Server contains HTTP and housekeeping settings.
type Server struct {
	RateLimitPerSecond     float64 `toml:"rate_limit_per_second"`
	RateLimitBurst         int     `toml:"rate_limit_burst"`
	StaleWorkspaceHours    int     `toml:"stale_workspace_hours"`
	SweepIntervalMinutes   int     `toml:"sweep_interval_minutes"`
	ShutdownTimeoutSeconds int     `toml:"shutdown_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the video generator.
//
// Configuration sections by subsystem:
//   - Paths: job workspace root, logs, API bind address and token
//   - Storage: blob store backend and template layout
//   - Provider: song-generation provider used for word timing lookups
//   - Captions: lyric line composition thresholds and subtitle style
//   - Render: ffmpeg output parameters and template fallback
//   - Server: rate limiting, workspace sweeping, shutdown
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Storage  Storage  `toml:"storage"`
	Provider Provider `toml:"provider"`
	Captions Captions `toml:"captions"`
	Render   Render   `toml:"render"`
	Server   Server   `toml:"server"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("videogen.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the server writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.WorkDir, c.Paths.LogDir}
	if c.Storage.Backend == StorageBackendLocal {
		dirs = append(dirs, c.Storage.LocalRoot)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StorageTimeout returns the per-request blob store timeout.
func (c *Config) StorageTimeout() time.Duration {
	return time.Duration(c.Storage.TimeoutSeconds) * time.Second
}

// StaleWorkspaceAge returns the age after which an unlocked job workspace is swept.
func (c *Config) StaleWorkspaceAge() time.Duration {
	return time.Duration(c.Server.StaleWorkspaceHours) * time.Hour
}

// SweepInterval returns how often the stale workspace sweeper runs.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Server.SweepIntervalMinutes) * time.Minute
}

// ShutdownTimeout bounds graceful HTTP shutdown.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML with secrets masked.
func (c *Config) Encode() ([]byte, error) {
	masked := *c
	masked.Paths.APIToken = maskSecret(masked.Paths.APIToken)
	masked.Storage.ServiceKey = maskSecret(masked.Storage.ServiceKey)
	masked.Provider.APIKey = maskSecret(masked.Provider.APIKey)
	data, err := toml.Marshal(masked)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

func maskSecret(value string) string {
	if value == "" {
		return ""
	}
	return "********"
}
