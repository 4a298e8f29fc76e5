package captions

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"
)

// Style controls the subtitle look on the rendered canvas.
type Style struct {
	PlayResX int
	PlayResY int
	FontName string
	FontSize int
	MarginV  int
	Outline  int
	Shadow   int
}

// DefaultStyle suits a 1080x1920 vertical video with captions in the lower third.
func DefaultStyle() Style {
	return Style{
		PlayResX: 1080,
		PlayResY: 1920,
		FontName: "Noto Sans CJK JP",
		FontSize: 64,
		MarginV:  320,
		Outline:  4,
		Shadow:   2,
	}
}

const (
	assColorWhite     = "&H00FFFFFF"
	assColorBlack     = "&H00000000"
	assColorSemiBlack = "&H80000000"
)

// WriteASS renders lines as an Advanced SubStation Alpha script for ffmpeg's
// ass filter.
func WriteASS(w io.Writer, lines []Line, style Style) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "[Script Info]\n")
	fmt.Fprintf(bw, "ScriptType: v4.00+\n")
	fmt.Fprintf(bw, "PlayResX: %d\n", style.PlayResX)
	fmt.Fprintf(bw, "PlayResY: %d\n", style.PlayResY)
	fmt.Fprintf(bw, "WrapStyle: 0\n")
	fmt.Fprintf(bw, "ScaledBorderAndShadow: yes\n\n")

	fmt.Fprintf(bw, "[V4+ Styles]\n")
	fmt.Fprintf(bw, "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(bw, "Style: Default,%s,%d,%s,%s,%s,%s,-1,0,0,0,100,100,0,0,1,%d,%d,2,60,60,%d,1\n\n",
		style.FontName, style.FontSize,
		assColorWhite, assColorWhite, assColorBlack, assColorSemiBlack,
		style.Outline, style.Shadow, style.MarginV,
	)

	fmt.Fprintf(bw, "[Events]\n")
	fmt.Fprintf(bw, "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, line := range lines {
		fmt.Fprintf(bw, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			FormatASSTime(line.Start), FormatASSTime(line.End), escapeASS(line.Text))
	}
	return bw.Flush()
}

// FormatASSTime renders seconds as H:MM:SS.CC, rounding to the nearest centisecond.
func FormatASSTime(seconds float64) string {
	if !finite(seconds) || seconds < 0 {
		seconds = 0
	}
	cs := int64(math.Round(seconds * 100))
	return fmt.Sprintf("%d:%02d:%02d.%02d", cs/360000, (cs/6000)%60, (cs/100)%60, cs%100)
}

var assEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"{", "(",
	"}", ")",
	"\r\n", "\\N",
	"\n", "\\N",
)

func escapeASS(text string) string {
	return assEscaper.Replace(strings.TrimSpace(text))
}
