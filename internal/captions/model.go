package captions

import "errors"

// Mode names the captioning strategy actually used for a render.
type Mode string

const (
	// ModeTimed captions are derived from provider word timings.
	ModeTimed Mode = "v2"
	// ModeFixedInterval captions spread the raw lyrics evenly over the track.
	ModeFixedInterval Mode = "v1"
	// ModeNone means the video was rendered without captions.
	ModeNone Mode = ""
)

// Word is a provider-reported word with its offsets in seconds. HasEnd is
// false when the provider omitted the end or reported one before Start.
type Word struct {
	Text   string  `json:"text"`
	Start  float64 `json:"start"`
	End    float64 `json:"end,omitempty"`
	HasEnd bool    `json:"hasEnd"`
}

// Line is one on-screen caption event.
type Line struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns End minus Start.
func (l Line) Duration() float64 { return l.End - l.Start }

var (
	// ErrInvalidDuration reports a negative or non-finite audio duration.
	ErrInvalidDuration = errors.New("invalid audio duration")
	// ErrNoLyrics reports lyrics that are empty once section markers are removed.
	ErrNoLyrics = errors.New("no lyric lines")
)
