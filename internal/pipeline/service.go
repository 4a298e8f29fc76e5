package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"videogen/internal/captions"
	"videogen/internal/config"
	"videogen/internal/logging"
	"videogen/internal/services"
	"videogen/internal/staging"
	"videogen/internal/textutil"
)

const (
	OperationPreviewAudio = "preview_audio"
	OperationFullVideo    = "full_video"
)

// Config holds the orchestrator settings.
type Config struct {
	WorkDir             string
	TemplatePrefix      string
	TemplateExtension   string
	FallbackTemplateID  string
	StaticImagePath     string
	FixedIntervalBlocks int
	CaptionStyle        captions.Style
}

// ConfigFrom maps the application configuration; style comes from the
// assembler so it matches the output canvas.
func ConfigFrom(cfg *config.Config, style captions.Style) Config {
	return Config{
		WorkDir:             cfg.Paths.WorkDir,
		TemplatePrefix:      cfg.Storage.TemplatePrefix,
		TemplateExtension:   cfg.Storage.TemplateExtension,
		FallbackTemplateID:  cfg.Render.FallbackTemplateID,
		StaticImagePath:     cfg.Render.StaticImagePath,
		FixedIntervalBlocks: cfg.Captions.FixedIntervalBlocks,
		CaptionStyle:        style,
	}
}

// Dependencies are the collaborators of the orchestrator.
type Dependencies struct {
	Store     BlobStore
	Captions  CaptionSource
	Composer  LineComposer
	Clipper   Clipper
	Assembler Assembler
	Recorder  Recorder
}

// Service runs preview and full video jobs. Each job is sequential and owns
// a private workspace; a Service may run many jobs concurrently.
type Service struct {
	cfg        Config
	deps       Dependencies
	logger     *slog.Logger
	strategies []captionStrategy
}

// NewService validates the dependencies and constructs a Service.
func NewService(cfg Config, deps Dependencies, logger *slog.Logger) (*Service, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("pipeline: blob store required")
	case deps.Clipper == nil:
		return nil, errors.New("pipeline: clipper required")
	case deps.Assembler == nil:
		return nil, errors.New("pipeline: assembler required")
	case strings.TrimSpace(cfg.WorkDir) == "":
		return nil, errors.New("pipeline: work dir required")
	}
	if deps.Recorder == nil {
		deps.Recorder = NopRecorder{}
	}
	if cfg.FixedIntervalBlocks <= 0 {
		cfg.FixedIntervalBlocks = 6
	}
	if cfg.CaptionStyle == (captions.Style{}) {
		cfg.CaptionStyle = captions.DefaultStyle()
	}
	s := &Service{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
	s.strategies = s.defaultStrategies()
	return s, nil
}

// job is the per-request state shared by the stages.
type job struct {
	operation string
	ws        *staging.Workspace
	logger    *slog.Logger
}

// begin opens the job workspace and derives the job context. A started job is
// never cancelled by the caller; it runs to completion or failure.
func (s *Service) begin(ctx context.Context, operation string) (context.Context, *job, error) {
	ctx = services.WithOperation(context.WithoutCancel(ctx), operation)
	ws, err := staging.Open(s.cfg.WorkDir, s.logger)
	if err != nil {
		return ctx, nil, services.Wrap(services.ErrConfiguration, "workspace", "open", "create job workspace", err)
	}
	ctx = services.WithJobID(ctx, ws.Token())
	j := &job{operation: operation, ws: ws, logger: logging.WithContext(ctx, s.logger)}
	j.logger.Info("job started", logging.String(logging.FieldEventType, "job_start"))
	return ctx, j, nil
}

func (s *Service) finish(j *job, started time.Time, err error) {
	result := j.ws.Release()
	elapsed := time.Since(started)
	s.deps.Recorder.ObserveJob(j.operation, elapsed, err)
	attrs := []logging.Attr{
		logging.Duration("elapsed", elapsed),
		logging.Int("removed_files", len(result.Removed)),
		logging.Int("cleanup_errors", len(result.Errors)),
	}
	if err != nil {
		attrs = append(attrs, logging.String("error_kind", services.Kind(err)), logging.Error(err))
		logging.ErrorWithContext(j.logger, "job failed", "job_failure", attrs...)
		return
	}
	attrs = append(attrs, logging.String(logging.FieldEventType, "job_complete"))
	j.logger.Info("job completed", logging.Args(attrs...)...)
}

// stage runs fn with the stage tagged on its context and records its outcome.
func (s *Service) stage(ctx context.Context, j *job, name string, fn func(context.Context) error) error {
	stageCtx := services.WithStage(ctx, name)
	started := time.Now()
	err := fn(stageCtx)
	elapsed := time.Since(started)
	s.deps.Recorder.ObserveStage(j.operation, name, elapsed, err)
	logger := logging.WithContext(stageCtx, s.logger)
	if err != nil {
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Duration("elapsed", elapsed),
			logging.Error(err),
		)
		return err
	}
	logger.Debug("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", elapsed),
	)
	return nil
}

func requireObjectPath(field, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", services.Wrap(services.ErrValidation, "request", "validate", field+" is required", nil)
	}
	key, ok := textutil.CleanObjectPath(value)
	if !ok {
		return "", services.Wrap(services.ErrValidation, "request", "validate", field+" is not a valid object path", nil)
	}
	return key, nil
}

// localName keeps the remote extension so ffmpeg can sniff the container.
func localName(base, remotePath string) string {
	return base + strings.ToLower(path.Ext(remotePath))
}
