package pipeline

import (
	"context"
	"strings"

	"videogen/internal/captions"
	"videogen/internal/logging"
	"videogen/internal/media"
)

// captionInput is what every caption strategy sees.
type captionInput struct {
	lyrics        string
	taskID        string
	selectedURL   string
	audioDuration float64
}

// captionStrategy produces a caption file or reports that it could not.
type captionStrategy struct {
	mode captions.Mode
	run  func(ctx context.Context, j *job, in captionInput) (string, bool)
}

// defaultStrategies lists caption strategies in order of preference.
func (s *Service) defaultStrategies() []captionStrategy {
	return []captionStrategy{
		{mode: captions.ModeTimed, run: s.timedCaptions},
		{mode: captions.ModeFixedInterval, run: s.fixedCaptions},
	}
}

// resolveCaptions returns the caption file of the first strategy that
// succeeds. Captioning never fails the job.
func (s *Service) resolveCaptions(ctx context.Context, j *job, in captionInput) (string, captions.Mode) {
	if strings.TrimSpace(in.lyrics) == "" {
		j.logger.Info("no lyrics supplied, rendering without captions")
		return "", captions.ModeNone
	}
	for _, strategy := range s.strategies {
		path, ok := strategy.run(ctx, j, in)
		if ok {
			j.logger.Info("captions prepared", logging.String("subtitle_mode", string(strategy.mode)))
			return path, strategy.mode
		}
	}
	logging.WarnWithContext(j.logger, "all caption strategies failed", "captions_unavailable",
		logging.String(logging.FieldImpact, "video rendered without captions"),
	)
	return "", captions.ModeNone
}

func (s *Service) timedCaptions(ctx context.Context, j *job, in captionInput) (string, bool) {
	if strings.TrimSpace(in.taskID) == "" || strings.TrimSpace(in.selectedURL) == "" || s.deps.Captions == nil || s.deps.Composer == nil {
		return "", false
	}
	result := s.deps.Captions.Resolve(ctx, in.taskID, in.selectedURL)
	s.deps.Recorder.CaptionSource(string(result.Reason))
	if !result.OK() {
		return "", false
	}
	lines, err := s.deps.Composer.Compose(result.Words, in.audioDuration)
	if err != nil || len(lines) == 0 {
		logging.WarnWithContext(j.logger, "timed captions unavailable", "captions_degraded",
			logging.Int("words", len(result.Words)),
			logging.Int("lines", len(lines)),
			logging.Any("error", err),
			logging.String(logging.FieldImpact, "fixed interval captions used"),
		)
		return "", false
	}
	path := j.ws.File("captions-v2.ass")
	if err := media.WriteTimedCaptions(path, lines, s.cfg.CaptionStyle); err != nil {
		logging.WarnWithContext(j.logger, "timed caption file failed", "captions_degraded", logging.Error(err))
		return "", false
	}
	return path, true
}

func (s *Service) fixedCaptions(_ context.Context, j *job, in captionInput) (string, bool) {
	path := j.ws.File("captions-v1.ass")
	if err := media.WriteFixedCaptions(path, in.lyrics, in.audioDuration, s.cfg.FixedIntervalBlocks, s.cfg.CaptionStyle); err != nil {
		logging.WarnWithContext(j.logger, "fixed interval captions failed", "captions_degraded", logging.Error(err))
		return "", false
	}
	return path, true
}
