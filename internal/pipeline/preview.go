package pipeline

import (
	"context"
	"time"

	"videogen/internal/blob"
	"videogen/internal/logging"
	"videogen/internal/services"
)

// GeneratePreviewAudio downloads the source track, clips the preview window
// and uploads it to the requested output path.
func (s *Service) GeneratePreviewAudio(ctx context.Context, req PreviewRequest) (result PreviewResult, err error) {
	source, err := requireObjectPath("sourceAudioPath", req.SourceAudioPath)
	if err != nil {
		return PreviewResult{}, err
	}
	output, err := requireObjectPath("outputPath", req.OutputPath)
	if err != nil {
		return PreviewResult{}, err
	}

	started := time.Now()
	ctx, j, err := s.begin(ctx, OperationPreviewAudio)
	if err != nil {
		s.deps.Recorder.ObserveJob(OperationPreviewAudio, time.Since(started), err)
		return PreviewResult{}, err
	}
	defer func() { s.finish(j, started, err) }()

	sourceFile := j.ws.File(localName("source", source))
	if err := s.stage(ctx, j, "download", func(ctx context.Context) error {
		if err := s.deps.Store.Download(ctx, source, sourceFile); err != nil {
			return services.Wrap(services.ErrUpstream, "download", "source audio", source, err)
		}
		return nil
	}); err != nil {
		return PreviewResult{}, err
	}

	previewFile := j.ws.File("preview.mp3")
	var duration float64
	if err := s.stage(ctx, j, "clip", func(ctx context.Context) error {
		d, err := s.deps.Clipper.Clip(ctx, sourceFile, previewFile)
		duration = d
		return err
	}); err != nil {
		return PreviewResult{}, err
	}

	if err := s.stage(ctx, j, "upload", func(ctx context.Context) error {
		return s.deps.Store.Upload(ctx, previewFile, output, blob.ContentTypeFor(output))
	}); err != nil {
		return PreviewResult{}, err
	}

	j.logger.Info("preview uploaded",
		logging.String("output_path", output),
		logging.Seconds("duration_seconds", duration),
	)
	return PreviewResult{OutputPath: output, DurationSeconds: duration}, nil
}
