package captions

import (
	"fmt"
	"strings"
)

// LyricLines splits raw lyrics into display lines with section markers and
// blank lines removed.
func LyricLines(lyrics string) []string {
	var out []string
	for _, raw := range strings.Split(strings.ReplaceAll(lyrics, "\r\n", "\n"), "\n") {
		if line := cleanText(StripSectionMarkers(raw)); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// FixedIntervalLines spreads the lyric lines over audioDuration in at most
// blocks equal time slices. It is used when no word timings exist.
func FixedIntervalLines(lyrics string, audioDuration float64, blocks int) ([]Line, error) {
	if !finite(audioDuration) || audioDuration <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDuration, audioDuration)
	}
	if blocks <= 0 {
		return nil, fmt.Errorf("fixed interval blocks must be positive, got %d", blocks)
	}
	lyricLines := LyricLines(lyrics)
	if len(lyricLines) == 0 {
		return nil, ErrNoLyrics
	}
	if blocks > len(lyricLines) {
		blocks = len(lyricLines)
	}

	slice := audioDuration / float64(blocks)
	base, extra := len(lyricLines)/blocks, len(lyricLines)%blocks
	out := make([]Line, 0, blocks)
	next := 0
	for i := 0; i < blocks; i++ {
		count := base
		if i < extra {
			count++
		}
		end := float64(i+1) * slice
		if i == blocks-1 {
			end = audioDuration
		}
		out = append(out, Line{
			Start: float64(i) * slice,
			End:   end,
			Text:  strings.Join(lyricLines[next:next+count], "\n"),
		})
		next += count
	}
	return out, nil
}
