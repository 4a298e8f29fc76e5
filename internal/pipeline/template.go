package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"

	"videogen/internal/blob"
	"videogen/internal/logging"
	"videogen/internal/services"
)

// TemplateResolution is the outcome of the background lookup.
type TemplateResolution struct {
	Source TemplateSource
	// Reason explains why the requested template was not used, or "found".
	Reason string
	// TemplatePath is the local template clip for template mode.
	TemplatePath string
	// ImagePath is the local still for static mode; empty means solid colour.
	ImagePath string
}

// resolveTemplate tries the requested template, then the fallback template
// once, then degrades to static mode. A missing object and an unreachable
// store produce different reasons but degrade the same way.
func (s *Service) resolveTemplate(ctx context.Context, j *job, req VideoRequest) TemplateResolution {
	requested := strings.TrimSpace(req.BackgroundTemplateID)
	fallback := strings.TrimSpace(s.cfg.FallbackTemplateID)

	reason := ReasonNoTemplateRequested
	if requested != "" {
		path, err := s.downloadTemplate(ctx, j, requested, "template")
		if err == nil {
			return TemplateResolution{Source: TemplateRequested, Reason: ReasonTemplateFound, TemplatePath: path}
		}
		reason = missReason(err, ReasonTemplateNotFound, ReasonTemplateUnavailable)
		logging.WarnWithContext(j.logger, "requested template unavailable", "template_fallback",
			logging.String("template_id", requested),
			logging.String("reason", reason),
			logging.Error(err),
			logging.String(logging.FieldImpact, "fallback template used"),
		)
	}

	if fallback != "" && fallback != requested {
		path, err := s.downloadTemplate(ctx, j, fallback, "fallback-template")
		if err == nil {
			return TemplateResolution{Source: TemplateFallback, Reason: reason, TemplatePath: path}
		}
		reason = missReason(err, ReasonFallbackNotFound, ReasonFallbackUnavailable)
		logging.WarnWithContext(j.logger, "fallback template unavailable", "template_static",
			logging.String("template_id", fallback),
			logging.String("reason", reason),
			logging.Error(err),
			logging.String(logging.FieldImpact, "static background rendered"),
		)
	} else if requested == "" {
		reason = ReasonNoFallback
	}

	return TemplateResolution{Source: TemplateStatic, Reason: reason, ImagePath: s.staticImage(ctx, j, req)}
}

func (s *Service) downloadTemplate(ctx context.Context, j *job, templateID, base string) (string, error) {
	key := blob.TemplatePath(s.cfg.TemplatePrefix, templateID, s.cfg.TemplateExtension)
	local := j.ws.File(localName(base, key))
	if err := s.deps.Store.Download(ctx, key, local); err != nil {
		return "", err
	}
	return local, nil
}

// staticImage picks the still for static mode: the caller's background image,
// then the configured image, then none.
func (s *Service) staticImage(ctx context.Context, j *job, req VideoRequest) string {
	if remote := strings.TrimSpace(req.BackgroundImagePath); remote != "" {
		if key, err := requireObjectPath("backgroundImagePath", remote); err == nil {
			local := j.ws.File(localName("background", key))
			err := s.deps.Store.Download(ctx, key, local)
			if err == nil {
				return local
			}
			logging.WarnWithContext(j.logger, "background image unavailable", "background_image_missing",
				logging.String("image_path", key),
				logging.Error(err),
			)
		}
	}
	if configured := strings.TrimSpace(s.cfg.StaticImagePath); configured != "" {
		if info, err := os.Stat(configured); err == nil && !info.IsDir() {
			return configured
		}
		logging.WarnWithContext(j.logger, "configured static image missing", "static_image_missing",
			logging.String("image_path", configured),
			logging.String(logging.FieldErrorHint, "check render.static_image_path"),
		)
	}
	return ""
}

func missReason(err error, notFound, unavailable string) string {
	if errors.Is(err, services.ErrNotFound) {
		return notFound
	}
	return unavailable
}
