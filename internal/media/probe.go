package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"videogen/internal/services"
)

// ProbeResult is the subset of ffprobe JSON output the renderer needs.
type ProbeResult struct {
	Streams []ProbeStream `json:"streams"`
	Format  ProbeFormat   `json:"format"`
}

// ProbeStream describes a single stream in the container.
type ProbeStream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// ProbeFormat captures container-level metadata.
type ProbeFormat struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// HasVideo reports whether any video stream is present.
func (r ProbeResult) HasVideo() bool { return r.countType("video") > 0 }

// HasAudio reports whether any audio stream is present.
func (r ProbeResult) HasAudio() bool { return r.countType("audio") > 0 }

func (r ProbeResult) countType(kind string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, kind) {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration, falling back to the longest
// stream duration. It returns NaN when nothing parses.
func (r ProbeResult) DurationSeconds() float64 {
	if d := parseSeconds(r.Format.Duration); !math.IsNaN(d) {
		return d
	}
	best := math.NaN()
	for _, stream := range r.Streams {
		d := parseSeconds(stream.Duration)
		if math.IsNaN(d) {
			continue
		}
		if math.IsNaN(best) || d > best {
			best = d
		}
	}
	return best
}

func parseSeconds(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return math.NaN()
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(parsed, 0) {
		return math.NaN()
	}
	return parsed
}

// Inspect runs ffprobe against path and decodes its JSON report.
func (t *Tools) Inspect(ctx context.Context, path string) (ProbeResult, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return ProbeResult{}, services.Wrap(services.ErrValidation, "probe", "inspect", "empty path", nil)
	}
	output, err := t.run(ctx, t.settings.FFprobe, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return ProbeResult{}, services.Wrap(services.ErrExternalTool, "probe", "ffprobe", path, err)
	}
	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return ProbeResult{}, services.Wrap(services.ErrExternalTool, "probe", "parse", path, err)
	}
	return result, nil
}

// errNoDuration reports a probe that succeeded without a usable duration.
var errNoDuration = errors.New("no duration reported")

// Probe returns the duration of the media file at path in seconds.
func (t *Tools) Probe(ctx context.Context, path string) (float64, error) {
	result, err := t.Inspect(ctx, path)
	if err != nil {
		return 0, err
	}
	d := result.DurationSeconds()
	if math.IsNaN(d) || d <= 0 {
		return 0, services.Wrap(services.ErrExternalTool, "probe", "duration", fmt.Sprintf("%s reported %v", path, d), errNoDuration)
	}
	return d, nil
}
