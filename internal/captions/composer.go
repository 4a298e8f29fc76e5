package captions

import (
	"fmt"
	"math"
	"sort"
)

// DefaultSentenceTerminators ends a caption line after a word ending in any of
// these runes, including ideographic and fullwidth punctuation.
const DefaultSentenceTerminators = ".!?…。！？"

// Options are the composer thresholds. A Composer copies them at construction
// and never mutates them, so one Composer may serve concurrent jobs.
type Options struct {
	// GapThreshold is the longest silence in seconds tolerated inside a line.
	GapThreshold float64
	// MaxWeightedChars is the per-line visual weight ceiling.
	MaxWeightedChars float64
	// MaxLines triggers ceiling escalation when exceeded.
	MaxLines int
	// EscalationFactors multiply MaxWeightedChars on each escalation step.
	EscalationFactors []float64
	// MinLineDuration is the shortest time a line stays on screen.
	MinLineDuration float64
	// DefaultWordDuration fills a missing word end.
	DefaultWordDuration float64
	// SentenceTerminators lists runes that close a line.
	SentenceTerminators string
}

// DefaultOptions returns the production thresholds.
func DefaultOptions() Options {
	return Options{
		GapThreshold:        0.6,
		MaxWeightedChars:    24,
		MaxLines:            60,
		EscalationFactors:   []float64{1.25, 1.5},
		MinLineDuration:     1.0,
		DefaultWordDuration: 0.5,
		SentenceTerminators: DefaultSentenceTerminators,
	}
}

func (o Options) validate() error {
	switch {
	case !finite(o.GapThreshold) || o.GapThreshold < 0:
		return fmt.Errorf("gap threshold must be a non-negative number, got %v", o.GapThreshold)
	case !finite(o.MaxWeightedChars) || o.MaxWeightedChars <= 0:
		return fmt.Errorf("max weighted chars must be positive, got %v", o.MaxWeightedChars)
	case o.MaxLines <= 0:
		return fmt.Errorf("max lines must be positive, got %d", o.MaxLines)
	case !finite(o.MinLineDuration) || o.MinLineDuration < 0:
		return fmt.Errorf("min line duration must be non-negative, got %v", o.MinLineDuration)
	case !finite(o.DefaultWordDuration) || o.DefaultWordDuration <= 0:
		return fmt.Errorf("default word duration must be positive, got %v", o.DefaultWordDuration)
	}
	previous := 1.0
	for i, factor := range o.EscalationFactors {
		if !finite(factor) || factor <= previous {
			return fmt.Errorf("escalation factor %d must exceed %v, got %v", i, previous, factor)
		}
		previous = factor
	}
	return nil
}

// Composer groups word timings into caption lines.
type Composer struct {
	opts Options
}

// NewComposer validates opts and returns a Composer bound to a private copy.
func NewComposer(opts Options) (*Composer, error) {
	if opts.SentenceTerminators == "" {
		opts.SentenceTerminators = DefaultSentenceTerminators
	}
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("caption options: %w", err)
	}
	opts.EscalationFactors = append([]float64(nil), opts.EscalationFactors...)
	return &Composer{opts: opts}, nil
}

// Options returns a copy of the composer thresholds.
func (c *Composer) Options() Options {
	out := c.opts
	out.EscalationFactors = append([]float64(nil), c.opts.EscalationFactors...)
	return out
}

// Ceilings returns the per-line weight ceiling for each split attempt, the
// base ceiling first.
func (c *Composer) Ceilings() []float64 {
	out := make([]float64, 0, len(c.opts.EscalationFactors)+1)
	out = append(out, c.opts.MaxWeightedChars)
	for _, factor := range c.opts.EscalationFactors {
		out = append(out, c.opts.MaxWeightedChars*factor)
	}
	return out
}

// Compose turns word timings into ordered, non-overlapping caption lines
// bounded by [0, audioDuration]. Empty input yields no lines and no error.
func (c *Composer) Compose(words []Word, audioDuration float64) ([]Line, error) {
	if !finite(audioDuration) || audioDuration < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDuration, audioDuration)
	}
	prepared := c.prepare(words, audioDuration)
	if len(prepared) == 0 {
		return nil, nil
	}

	var lines []Line
	var used float64
	for _, ceiling := range c.Ceilings() {
		candidate := c.split(prepared, ceiling)
		if lines == nil || len(candidate) <= len(lines) {
			lines, used = candidate, ceiling
		}
		if len(lines) <= c.opts.MaxLines {
			break
		}
	}
	return c.finish(c.spreadCollisions(lines, audioDuration), used, audioDuration), nil
}

// timedWord is a cleaned word with a resolved end.
type timedWord struct {
	text  string
	start float64
	end   float64
}

func (c *Composer) prepare(words []Word, audioDuration float64) []timedWord {
	type pending struct {
		text   string
		start  float64
		end    float64
		hasEnd bool
	}
	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Text
	}
	texts = stripMarkers(texts, maxMarkerWords)
	cleaned := make([]pending, 0, len(words))
	for i, w := range words {
		text := cleanText(texts[i])
		if text == "" || !finite(w.Start) || w.Start < 0 {
			continue
		}
		hasEnd := w.HasEnd && finite(w.End)
		cleaned = append(cleaned, pending{text: text, start: w.Start, end: w.End, hasEnd: hasEnd})
	}
	sort.SliceStable(cleaned, func(i, j int) bool { return cleaned[i].start < cleaned[j].start })

	out := make([]timedWord, 0, len(cleaned))
	for i, w := range cleaned {
		end := w.end
		if !w.hasEnd {
			end = w.start + c.opts.DefaultWordDuration
			if i+1 < len(cleaned) {
				end = math.Min(end, cleaned[i+1].start)
			}
		}
		if w.start > end || w.start > audioDuration {
			continue
		}
		out = append(out, timedWord{text: w.text, start: w.start, end: math.Min(end, audioDuration)})
	}
	return out
}

func (c *Composer) split(words []timedWord, ceiling float64) []Line {
	var lines []Line
	var current Line
	open := false
	var prev timedWord

	for _, w := range words {
		if open {
			breakLine := w.start-prev.end > c.opts.GapThreshold ||
				endsSentence(prev.text, c.opts.SentenceTerminators) ||
				WeightedLength(joinWord(current.Text, w.text)) > ceiling
			if breakLine {
				lines = append(lines, current)
				open = false
			}
		}
		if !open {
			current = Line{Start: w.start, End: w.end, Text: w.text}
			open = true
		} else {
			current.Text = joinWord(current.Text, w.text)
			current.End = math.Max(current.End, w.end)
		}
		prev = w
	}
	if open {
		lines = append(lines, current)
	}
	return lines
}

// spreadCollisions gives lines that share a start instant consecutive slices
// of the time before the next line. A run at the very end of the track is
// spread backwards over MinLineDuration per line instead.
func (c *Composer) spreadCollisions(lines []Line, audioDuration float64) []Line {
	for i := 0; i < len(lines); {
		j := i + 1
		for j < len(lines) && lines[j].Start == lines[i].Start {
			j++
		}
		n := j - i
		if n == 1 {
			i = j
			continue
		}
		lo, hi := lines[i].Start, audioDuration
		if j < len(lines) {
			hi = lines[j].Start
		}
		if hi <= lo {
			floor := 0.0
			if i > 0 {
				floor = lines[i-1].Start
			}
			lo = math.Max(hi-float64(n)*c.opts.MinLineDuration, floor)
		}
		if hi > lo {
			slice := (hi - lo) / float64(n)
			for k := 0; k < n; k++ {
				line := &lines[i+k]
				line.Start = lo + float64(k)*slice
				line.End = math.Max(line.End, line.Start+slice)
			}
		}
		i = j
	}
	return lines
}

// finish enforces the display invariants: lines never overlap, each lasts at
// least MinLineDuration where the neighbouring lines and the track allow it,
// and everything stays inside [0, audioDuration].
func (c *Composer) finish(lines []Line, ceiling, audioDuration float64) []Line {
	out := make([]Line, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		prevEnd := 0.0
		if len(out) > 0 {
			prevEnd = out[len(out)-1].End
		}
		limit := audioDuration
		if i+1 < len(lines) {
			limit = math.Min(limit, lines[i+1].Start)
		}

		line.Start = math.Max(line.Start, prevEnd)
		if line.End > limit {
			line.End = limit
		}
		if line.Duration() < c.opts.MinLineDuration {
			line.End = math.Min(line.Start+c.opts.MinLineDuration, limit)
		}
		if line.End >= audioDuration && line.Duration() < c.opts.MinLineDuration {
			line.End = audioDuration
			line.Start = math.Max(math.Max(audioDuration-c.opts.MinLineDuration, prevEnd), 0)
		}
		if line.End < line.Start {
			line.End = line.Start
		}

		if line.End == line.Start && i+1 < len(lines) {
			// No room left before the next line: fold into it if the result
			// still fits the ceiling.
			if joined := joinWord(line.Text, lines[i+1].Text); WeightedLength(joined) <= ceiling {
				lines[i+1].Text = joined
				lines[i+1].Start = line.Start
				continue
			}
		}
		out = append(out, line)
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
