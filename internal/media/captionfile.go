package media

import (
	"bytes"
	"fmt"

	"videogen/internal/captions"
	"videogen/internal/fileutil"
)

// StyleFor sizes the caption style to the output canvas.
func (t *Tools) StyleFor(fontName string, fontSize, marginV int) captions.Style {
	style := captions.DefaultStyle()
	style.PlayResX = t.settings.Width
	style.PlayResY = t.settings.Height
	if fontName != "" {
		style.FontName = fontName
	}
	if fontSize > 0 {
		style.FontSize = fontSize
	}
	if marginV > 0 {
		style.MarginV = marginV
	}
	return style
}

// WriteTimedCaptions writes timing-derived caption lines to path as ASS.
func WriteTimedCaptions(path string, lines []captions.Line, style captions.Style) error {
	if len(lines) == 0 {
		return fmt.Errorf("write captions: no lines")
	}
	return writeASS(path, lines, style)
}

// WriteFixedCaptions spreads lyrics over duration in blocks and writes them
// to path as ASS.
func WriteFixedCaptions(path, lyrics string, duration float64, blocks int, style captions.Style) error {
	lines, err := captions.FixedIntervalLines(lyrics, duration, blocks)
	if err != nil {
		return fmt.Errorf("fixed interval captions: %w", err)
	}
	return writeASS(path, lines, style)
}

func writeASS(path string, lines []captions.Line, style captions.Style) error {
	var buf bytes.Buffer
	if err := captions.WriteASS(&buf, lines, style); err != nil {
		return fmt.Errorf("render captions: %w", err)
	}
	if _, err := fileutil.WriteAtomic(path, &buf, 0o644); err != nil {
		return fmt.Errorf("write captions: %w", err)
	}
	return nil
}
