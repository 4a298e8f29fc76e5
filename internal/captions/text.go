package captions

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// markerPairs are the bracket pairs that enclose structural section labels
// such as [Verse 1] or 【サビ】.
var markerPairs = map[rune]rune{
	'[': ']',
	'【': '】',
	'［': '］',
}

// maxMarkerWords bounds how many provider words one section marker may span,
// so "[Chorus" "2]" is removed as a whole while a stray "[" in sung text only
// loses the bracket.
const maxMarkerWords = 4

type fragmentRune struct {
	fragment int
	r        rune
}

// stripMarkers removes bracketed section markers from a sequence of text
// fragments. A marker may continue into at most maxSpan fragments and never
// past a line break. An opener whose closer does not appear in that window is
// dropped on its own and the text after it is kept.
func stripMarkers(fragments []string, maxSpan int) []string {
	var flat []fragmentRune
	for i, text := range fragments {
		for _, r := range text {
			flat = append(flat, fragmentRune{fragment: i, r: r})
		}
	}
	kept := make([]strings.Builder, len(fragments))
	for p := 0; p < len(flat); p++ {
		closer, ok := markerPairs[flat[p].r]
		if !ok {
			kept[flat[p].fragment].WriteRune(flat[p].r)
			continue
		}
		if end := markerEnd(flat, p, closer, maxSpan); end > p {
			p = end
		}
	}
	out := make([]string, len(fragments))
	for i := range kept {
		out[i] = kept[i].String()
	}
	return out
}

// markerEnd returns the index of the closer matching the opener at p, or -1.
func markerEnd(flat []fragmentRune, p int, closer rune, maxSpan int) int {
	last := flat[p].fragment + maxSpan - 1
	for q := p + 1; q < len(flat) && flat[q].fragment <= last; q++ {
		switch flat[q].r {
		case closer:
			return q
		case '\n':
			return -1
		}
	}
	return -1
}

// StripSectionMarkers removes bracketed markers from a single string. An
// unclosed opener is dropped and the text after it is kept.
func StripSectionMarkers(text string) string {
	return stripMarkers([]string{text}, 1)[0]
}

// cleanText normalizes to NFC and collapses all whitespace runs, including
// the line breaks providers embed in word text, to single spaces.
func cleanText(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}

// RuneWeight returns the visual weight of r: wide and fullwidth characters
// count 1.0, everything else 0.5.
func RuneWeight(r rune) float64 {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 1.0
	default:
		return 0.5
	}
}

// WeightedLength sums RuneWeight over text.
func WeightedLength(text string) float64 {
	total := 0.0
	for _, r := range text {
		total += RuneWeight(r)
	}
	return total
}

func isASCIIVisible(r rune) bool {
	return r > ' ' && r < unicode.MaxASCII
}

// joinWord appends word to line, inserting a single space only when both
// neighbouring characters are ASCII.
func joinWord(line, word string) string {
	if line == "" {
		return word
	}
	if word == "" {
		return line
	}
	last := lastRune(line)
	first := []rune(word)[0]
	if isASCIIVisible(last) && isASCIIVisible(first) {
		return line + " " + word
	}
	return line + word
}

func lastRune(s string) rune {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	return runes[len(runes)-1]
}

// trailingClosers are skipped when looking for sentence-ending punctuation so
// `"Stop!"` and 「終わり。」 still end a sentence.
const trailingClosers = "\"'”’」』)）"

func endsSentence(text, terminators string) bool {
	trimmed := strings.TrimRightFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(trailingClosers, r)
	})
	if trimmed == "" {
		return false
	}
	return strings.ContainsRune(terminators, lastRune(trimmed))
}
