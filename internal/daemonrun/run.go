package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"videogen/internal/api"
	"videogen/internal/blob"
	"videogen/internal/captions"
	"videogen/internal/config"
	"videogen/internal/deps"
	"videogen/internal/logging"
	"videogen/internal/media"
	"videogen/internal/metrics"
	"videogen/internal/pipeline"
	"videogen/internal/preflight"
	"videogen/internal/services/songprovider"
	"videogen/internal/staging"
)

// Options configures server process runtime behavior.
type Options struct {
	// LogLevel overrides the configured level when set.
	LogLevel string
	// Listener replaces binding paths.api_bind, mostly for tests.
	Listener net.Listener
	// Logger replaces the config-derived logger.
	Logger *slog.Logger
}

// Runtime holds the wired components of a running server.
type Runtime struct {
	Config   *config.Config
	Logger   *slog.Logger
	Service  *pipeline.Service
	Metrics  *metrics.Metrics
	Server   *api.Server
	Tools    *media.Tools
	Resolver *songprovider.Resolver
}

// Build constructs every component from cfg without starting anything.
func Build(cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	store, err := blob.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init blob store: %w", err)
	}

	composer, err := captions.NewComposer(captions.OptionsFromConfig(cfg.Captions))
	if err != nil {
		return nil, fmt.Errorf("init caption composer: %w", err)
	}

	provider := songprovider.NewClient(songprovider.Config{
		BaseURL:               cfg.Provider.BaseURL,
		APIKey:                cfg.Provider.APIKey,
		RecordPath:            cfg.Provider.RecordPath,
		TimestampedLyricsPath: cfg.Provider.TimestampedLyricsPath,
		TimeoutSeconds:        cfg.Provider.TimeoutSeconds,
	})
	resolver := songprovider.NewResolver(provider, logger)

	tools := media.New(media.SettingsFromConfig(cfg.Render), logger)
	style := tools.StyleFor(cfg.Captions.FontName, cfg.Captions.FontSize, cfg.Captions.MarginV)
	recorder := metrics.New()

	service, err := pipeline.NewService(pipeline.ConfigFrom(cfg, style), pipeline.Dependencies{
		Store:     store,
		Captions:  resolver,
		Composer:  composer,
		Clipper:   tools,
		Assembler: tools,
		Recorder:  recorder,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init pipeline: %w", err)
	}

	server, err := api.New(service, api.Options{
		Bind:               cfg.Paths.APIBind,
		APIToken:           cfg.Paths.APIToken,
		RateLimitPerSecond: cfg.Server.RateLimitPerSecond,
		RateLimitBurst:     cfg.Server.RateLimitBurst,
		Metrics:            recorder,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init api server: %w", err)
	}

	return &Runtime{
		Config:   cfg,
		Logger:   logger,
		Service:  service,
		Metrics:  recorder,
		Server:   server,
		Tools:    tools,
		Resolver: resolver,
	}, nil
}

// Run starts the video generator server and blocks until SIGINT/SIGTERM or
// cmdCtx is cancelled.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		if level := strings.TrimSpace(opts.LogLevel); level != "" {
			cfg.Logging.Level = level
		}
		var err error
		logger, err = logging.NewFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}

	logDependencySnapshot(logger, cfg)
	logPreflight(signalCtx, logger, cfg)

	rt, err := Build(cfg, logger)
	if err != nil {
		logger.Error("build runtime", logging.Error(err))
		return err
	}

	group, groupCtx := errgroup.WithContext(signalCtx)
	group.Go(func() error {
		if opts.Listener != nil {
			return rt.Server.ServeListener(opts.Listener)
		}
		return rt.Server.Serve()
	})
	group.Go(func() error {
		sweepStale(groupCtx, logger, cfg)
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("video generator shutting down",
			logging.String(logging.FieldEventType, "shutdown_started"),
		)
		shutdownCtx, done := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer done()
		if err := rt.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("api shutdown: %w", err)
		}
		return nil
	})

	err = group.Wait()
	if err != nil {
		logger.Error("video generator stopped with error", logging.Error(err))
		return err
	}
	logger.Info("video generator stopped", logging.String(logging.FieldEventType, "shutdown_complete"))
	return nil
}

// sweepStale removes leaked job workspaces at startup and on every interval.
func sweepStale(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	interval := cfg.SweepInterval()
	if interval <= 0 {
		return
	}
	sweepOnce(ctx, logger, cfg)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepOnce(ctx, logger, cfg)
		}
	}
}

func sweepOnce(ctx context.Context, logger *slog.Logger, cfg *config.Config) staging.CleanStaleResult {
	result := staging.CleanStale(ctx, cfg.Paths.WorkDir, cfg.StaleWorkspaceAge(), logger)
	if len(result.Removed) > 0 || len(result.Errors) > 0 {
		logger.Info("stale workspace sweep",
			logging.String(logging.FieldEventType, "workspace_sweep"),
			logging.Int("removed", len(result.Removed)),
			logging.Int("skipped", len(result.Skipped)),
			logging.Int("errors", len(result.Errors)),
		)
	}
	for _, failure := range result.Errors {
		logging.WarnWithContext(logger, "stale workspace removal failed", "workspace_sweep_failed",
			logging.String("path", failure.Path),
			logging.Error(failure.Error),
			logging.String(logging.FieldImpact, "disk space is not reclaimed until the next sweep"),
		)
	}
	return result
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	statuses := deps.CheckBinaries(deps.MediaRequirements(cfg.Render.FFmpegBinary, cfg.Render.FFprobeBinary))
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("storage_backend", cfg.Storage.Backend),
		logging.Bool("storage_key_present", strings.TrimSpace(cfg.Storage.ServiceKey) != ""),
		logging.Bool("provider_key_present", strings.TrimSpace(cfg.Provider.APIKey) != ""),
		logging.Bool("api_token_set", strings.TrimSpace(cfg.Paths.APIToken) != ""),
		logging.String("fallback_template_id", cfg.Render.FallbackTemplateID),
	}
	for _, status := range statuses {
		key := strings.ToLower(status.Name)
		attrs = append(attrs,
			logging.Bool(key+"_available", status.Available),
			logging.String(key+"_binary", status.Command),
		)
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			continue
		}
		impact := "jobs are likely to fail"
		if result.Optional {
			impact = "feature degraded"
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, impact),
		)
	}
}
