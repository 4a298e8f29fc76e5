package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"videogen/internal/captions"
	"videogen/internal/logging"
	"videogen/internal/pipeline"
	"videogen/internal/services"
)

// Jobs is the orchestrator surface served over HTTP.
type Jobs interface {
	GeneratePreviewAudio(ctx context.Context, req pipeline.PreviewRequest) (pipeline.PreviewResult, error)
	GenerateFullVideo(ctx context.Context, req pipeline.VideoRequest) (pipeline.VideoResult, error)
}

// PreviewRequest is the body of POST /generate-preview-audio.
type PreviewRequest struct {
	SourceAudioPath string `json:"sourceAudioPath" binding:"required,blobpath"`
	OutputPath      string `json:"outputPath" binding:"required,blobpath"`
}

// PreviewResponse is the success body of POST /generate-preview-audio.
type PreviewResponse struct {
	Success         bool    `json:"success"`
	OutputPath      string  `json:"outputPath"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// VideoRequest is the body of POST /generate-full-video.
type VideoRequest struct {
	SourceAudioPath      string `json:"sourceAudioPath" binding:"required,blobpath"`
	OutputPath           string `json:"outputPath" binding:"required,blobpath"`
	BackgroundImagePath  string `json:"backgroundImagePath" binding:"omitempty,blobpath"`
	BackgroundTemplateID string `json:"backgroundTemplateId"`
	LyricsText           string `json:"lyricsText"`
	SunoTaskID           string `json:"sunoTaskId"`
	SelectedSongURL      string `json:"selectedSongUrl"`
}

// VideoResponse is the success body of POST /generate-full-video.
// SubtitleMode is null when the video has no captions.
type VideoResponse struct {
	Success              bool    `json:"success"`
	OutputPath           string  `json:"outputPath"`
	AudioDurationSeconds float64 `json:"audioDurationSeconds"`
	VideoDurationSeconds float64 `json:"videoDurationSeconds"`
	SubtitleMode         *string `json:"subtitleMode"`
	TemplateSource       string  `json:"templateSource"`
}

// ErrorResponse is the failure body of every generation endpoint.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

const serviceName = "video-generator"

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Service: serviceName})
}

func (s *Server) handlePreview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}
	result, err := s.jobs.GeneratePreviewAudio(c.Request.Context(), pipeline.PreviewRequest{
		SourceAudioPath: strings.TrimSpace(req.SourceAudioPath),
		OutputPath:      strings.TrimSpace(req.OutputPath),
	})
	if err != nil {
		s.writeJobError(c, err)
		return
	}
	c.JSON(http.StatusOK, PreviewResponse{
		Success:         true,
		OutputPath:      result.OutputPath,
		DurationSeconds: result.DurationSeconds,
	})
}

func (s *Server) handleVideo(c *gin.Context) {
	var req VideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}
	result, err := s.jobs.GenerateFullVideo(c.Request.Context(), pipeline.VideoRequest{
		SourceAudioPath:      strings.TrimSpace(req.SourceAudioPath),
		OutputPath:           strings.TrimSpace(req.OutputPath),
		BackgroundImagePath:  strings.TrimSpace(req.BackgroundImagePath),
		BackgroundTemplateID: strings.TrimSpace(req.BackgroundTemplateID),
		LyricsText:           req.LyricsText,
		SunoTaskID:           strings.TrimSpace(req.SunoTaskID),
		SelectedSongURL:      strings.TrimSpace(req.SelectedSongURL),
	})
	if err != nil {
		s.writeJobError(c, err)
		return
	}
	var mode *string
	if result.SubtitleMode != captions.ModeNone {
		value := string(result.SubtitleMode)
		mode = &value
	}
	c.JSON(http.StatusOK, VideoResponse{
		Success:              true,
		OutputPath:           result.OutputPath,
		AudioDurationSeconds: result.AudioDurationSeconds,
		VideoDurationSeconds: result.VideoDurationSeconds,
		SubtitleMode:         mode,
		TemplateSource:       string(result.TemplateSource),
	})
}

func (s *Server) writeJobError(c *gin.Context, err error) {
	status := services.HTTPStatus(err)
	logging.WithContext(c.Request.Context(), s.logger).Warn("request failed",
		logging.String(logging.FieldEventType, "request_failed"),
		logging.Int("status", status),
		logging.String("error_kind", services.Kind(err)),
		logging.Error(err),
	)
	s.writeError(c, status, err.Error())
}

func (s *Server) writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Success: false, Error: message})
}
