package media

import (
	"context"
	"strings"

	"videogen/internal/logging"
	"videogen/internal/services"
)

// Clip encodes the leading preview window of src into an MP3 at dst and
// returns the measured duration of the clip. When the clip cannot be probed
// the nominal preview length is reported.
func (t *Tools) Clip(ctx context.Context, src, dst string) (float64, error) {
	if strings.TrimSpace(src) == "" || strings.TrimSpace(dst) == "" {
		return 0, services.Wrap(services.ErrValidation, "clip", "preview", "source and destination required", nil)
	}
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", src,
		"-t", seconds(t.settings.PreviewSeconds),
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", t.settings.PreviewBitrate,
		dst,
	}
	if _, err := t.run(ctx, t.settings.FFmpeg, args...); err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "clip", "ffmpeg", "encode preview", err)
	}

	logger := logging.WithContext(ctx, t.logger)
	duration, err := t.Probe(ctx, dst)
	if err != nil {
		logging.WarnWithContext(logger, "preview duration probe failed", "preview_probe_failed",
			logging.Error(err),
			logging.Seconds("reported_seconds", t.settings.PreviewSeconds),
			logging.String(logging.FieldImpact, "nominal preview length reported"),
		)
		return t.settings.PreviewSeconds, nil
	}
	if duration < t.settings.PreviewSeconds {
		logger.Info("preview shorter than window",
			logging.Seconds("duration_seconds", duration),
			logging.Seconds("window_seconds", t.settings.PreviewSeconds),
		)
	}
	return duration, nil
}
