package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateCaptions(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageBackendHTTP:
		if c.Storage.BaseURL == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = defaultConfigPath
			}
			return fmt.Errorf("storage.base_url is required for the http backend. Set SUPABASE_URL or edit %s (create with 'videogen config init')", defaultPath)
		}
		if !strings.HasPrefix(c.Storage.BaseURL, "http://") && !strings.HasPrefix(c.Storage.BaseURL, "https://") {
			return errors.New("storage.base_url must start with http:// or https://")
		}
	case StorageBackendLocal:
		if c.Storage.LocalRoot == "" {
			return errors.New("storage.local_root must be set when storage.backend is local")
		}
	default:
		return fmt.Errorf("storage.backend: unsupported value %q (want http or local)", c.Storage.Backend)
	}
	return nil
}

func (c *Config) validateCaptions() error {
	if c.Captions.MaxWeightedChars < 1 {
		return errors.New("captions.max_weighted_chars must be at least 1")
	}
	previous := 1.0
	for i, factor := range c.Captions.EscalationFactors {
		if factor <= previous {
			return fmt.Errorf("captions.escalation_factors[%d] must be greater than %.2f", i, previous)
		}
		previous = factor
	}
	if c.Captions.MinLineDuration > 10 {
		return errors.New("captions.min_line_duration must not exceed 10 seconds")
	}
	return nil
}

func (c *Config) validateRender() error {
	if err := ensurePositiveMap(map[string]int{
		"render.width":  c.Render.Width,
		"render.height": c.Render.Height,
		"render.fps":    c.Render.FPS,
	}); err != nil {
		return err
	}
	if c.Render.Width%2 != 0 || c.Render.Height%2 != 0 {
		return errors.New("render.width and render.height must be even for yuv420p output")
	}
	if c.Render.VideoCRF < 1 || c.Render.VideoCRF > 51 {
		return errors.New("render.video_crf must be between 1 and 51")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.RateLimitPerSecond < 0 {
		return errors.New("server.rate_limit_per_second must not be negative")
	}
	if c.Server.RateLimitPerSecond > 0 && c.Server.RateLimitBurst <= 0 {
		return errors.New("server.rate_limit_burst must be positive when rate limiting is enabled")
	}
	return ensurePositiveMap(map[string]int{
		"server.stale_workspace_hours":    c.Server.StaleWorkspaceHours,
		"server.sweep_interval_minutes":   c.Server.SweepIntervalMinutes,
		"server.shutdown_timeout_seconds": c.Server.ShutdownTimeoutSeconds,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
