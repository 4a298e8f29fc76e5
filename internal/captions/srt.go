package captions

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// WriteSRT renders lines as SubRip cues.
func WriteSRT(w io.Writer, lines []Line) error {
	bw := bufio.NewWriter(w)
	for i, line := range lines {
		fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n", i+1, FormatSRTTime(line.Start), FormatSRTTime(line.End), strings.TrimSpace(line.Text))
	}
	return bw.Flush()
}

// FormatSRTTime renders seconds as HH:MM:SS,mmm.
func FormatSRTTime(seconds float64) string {
	if !finite(seconds) || seconds < 0 {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	return fmt.Sprintf("%02d:%02d:%02d,%03d", ms/3600000, (ms/60000)%60, (ms/1000)%60, ms%1000)
}

// ParseSRT reads SubRip cues back into lines.
func ParseSRT(r io.Reader) ([]Line, error) {
	scanner := bufio.NewScanner(r)
	var (
		lines   []Line
		current *Line
		text    []string
		lineNo  int
	)
	flush := func() {
		if current != nil {
			current.Text = strings.Join(text, "\n")
			lines = append(lines, *current)
		}
		current = nil
		text = nil
	}
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(strings.TrimPrefix(raw, "\uFEFF"))
		switch {
		case trimmed == "":
			flush()
		case current == nil && strings.Contains(trimmed, "-->"):
			start, end, err := parseSRTRange(trimmed)
			if err != nil {
				return nil, fmt.Errorf("srt line %d: %w", lineNo, err)
			}
			current = &Line{Start: start, End: end}
		case current == nil:
			// cue index
		default:
			text = append(text, trimmed)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return lines, nil
}

func parseSRTRange(value string) (float64, float64, error) {
	parts := strings.SplitN(value, "-->", 2)
	start, err := parseSRTTime(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	end, err := parseSRTTime(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseSRTTime(value string) (float64, error) {
	if fields := strings.Fields(value); len(fields) > 0 {
		value = fields[0]
	}
	value = strings.Replace(value, ",", ".", 1)
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in %q", value)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in %q", value)
	}
	return float64(hours)*3600 + float64(minutes)*60 + seconds, nil
}
