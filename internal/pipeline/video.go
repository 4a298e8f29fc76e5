package pipeline

import (
	"context"
	"time"

	"videogen/internal/blob"
	"videogen/internal/captions"
	"videogen/internal/logging"
	"videogen/internal/media"
	"videogen/internal/services"
)

// GenerateFullVideo renders the lyric video. Template lookup and captions
// degrade to narrower paths; source download, render and upload failures
// are fatal. Nothing is uploaded unless the render succeeded.
func (s *Service) GenerateFullVideo(ctx context.Context, req VideoRequest) (result VideoResult, err error) {
	source, err := requireObjectPath("sourceAudioPath", req.SourceAudioPath)
	if err != nil {
		return VideoResult{}, err
	}
	output, err := requireObjectPath("outputPath", req.OutputPath)
	if err != nil {
		return VideoResult{}, err
	}

	started := time.Now()
	ctx, j, err := s.begin(ctx, OperationFullVideo)
	if err != nil {
		s.deps.Recorder.ObserveJob(OperationFullVideo, time.Since(started), err)
		return VideoResult{}, err
	}
	defer func() { s.finish(j, started, err) }()

	audioFile := j.ws.File(localName("source", source))
	if err := s.stage(ctx, j, "download", func(ctx context.Context) error {
		if err := s.deps.Store.Download(ctx, source, audioFile); err != nil {
			return services.Wrap(services.ErrUpstream, "download", "source audio", source, err)
		}
		return nil
	}); err != nil {
		return VideoResult{}, err
	}

	var audioDuration float64
	if err := s.stage(ctx, j, "probe", func(ctx context.Context) error {
		d, err := s.deps.Assembler.Probe(ctx, audioFile)
		audioDuration = d
		return err
	}); err != nil {
		return VideoResult{}, err
	}

	var template TemplateResolution
	_ = s.stage(ctx, j, "template", func(ctx context.Context) error {
		template = s.resolveTemplate(ctx, j, req)
		return nil
	})
	s.deps.Recorder.TemplateSource(string(template.Source), template.Reason)

	var captionPath string
	mode := captions.ModeNone
	_ = s.stage(ctx, j, "captions", func(ctx context.Context) error {
		captionPath, mode = s.resolveCaptions(ctx, j, captionInput{
			lyrics:        req.LyricsText,
			taskID:        req.SunoTaskID,
			selectedURL:   req.SelectedSongURL,
			audioDuration: audioDuration,
		})
		return nil
	})
	s.deps.Recorder.CaptionMode(modeLabel(mode))

	videoFile := j.ws.File("video.mp4")
	input := media.RenderInput{
		AudioPath:     audioFile,
		OutputPath:    videoFile,
		TemplatePath:  template.TemplatePath,
		ImagePath:     template.ImagePath,
		CaptionPath:   captionPath,
		AudioDuration: audioDuration,
	}
	var videoDuration float64
	if err := s.stage(ctx, j, "render", func(ctx context.Context) error {
		var err error
		if template.Source == TemplateStatic {
			videoDuration, err = s.deps.Assembler.RenderStatic(ctx, input)
		} else {
			videoDuration, err = s.deps.Assembler.RenderTemplate(ctx, input)
		}
		return err
	}); err != nil {
		return VideoResult{}, err
	}

	if err := s.stage(ctx, j, "upload", func(ctx context.Context) error {
		return s.deps.Store.Upload(ctx, videoFile, output, blob.ContentTypeFor(output))
	}); err != nil {
		return VideoResult{}, err
	}

	j.logger.Info("video uploaded",
		logging.String("output_path", output),
		logging.String("template_source", string(template.Source)),
		logging.String("subtitle_mode", modeLabel(mode)),
		logging.Seconds("audio_seconds", audioDuration),
		logging.Seconds("video_seconds", videoDuration),
	)
	return VideoResult{
		OutputPath:           output,
		AudioDurationSeconds: audioDuration,
		VideoDurationSeconds: videoDuration,
		SubtitleMode:         mode,
		TemplateSource:       template.Source,
		TemplateReason:       template.Reason,
	}, nil
}

func modeLabel(mode captions.Mode) string {
	if mode == captions.ModeNone {
		return "none"
	}
	return string(mode)
}
