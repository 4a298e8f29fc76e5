package songprovider

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"videogen/internal/captions"
)

// candidatePaths locate the list of generated tracks inside a record.
var candidatePaths = []string{
	"data.response.sunoData",
	"data.response.suno_data",
	"data.response.data",
	"data.response.clips",
	"data.sunoData",
	"data.suno_data",
	"data.data",
	"data.clips",
	"response.sunoData",
	"response.suno_data",
	"sunoData",
	"suno_data",
	"clips",
	"data",
}

// candidateURLFields are compared verbatim with the selected track URL.
var candidateURLFields = []string{
	"audioUrl",
	"audio_url",
	"sourceAudioUrl",
	"source_audio_url",
	"streamAudioUrl",
	"stream_audio_url",
	"sourceStreamAudioUrl",
	"source_stream_audio_url",
}

var candidateIDFields = []string{"id", "audioId", "audio_id", "clipId", "clip_id"}

// alignmentPaths locate word alignment arrays, relative to a candidate, a
// timestamped lyrics response or a whole record.
var alignmentPaths = []string{
	"alignedWords",
	"aligned_words",
	"data.alignedWords",
	"data.aligned_words",
	"data.data.alignedWords",
	"data.data.aligned_words",
	"timestampedLyrics.alignedWords",
	"timestamped_lyrics.aligned_words",
	"data.timestampedLyrics.alignedWords",
	"metadata.alignedWords",
	"metadata.aligned_words",
	"alignment.words",
	"alignment",
	"words",
	"data.words",
}

var (
	textAliases  = []string{"word", "text", "w", "token"}
	startAliases = []string{"startS", "start_s", "start", "startTime", "start_time", "begin"}
	endAliases   = []string{"endS", "end_s", "end", "endTime", "end_time", "stop"}
)

func lookup(root any, path string) (any, bool) {
	current := root
	for _, key := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// firstArray returns the first non-empty array found at paths, with the path
// that produced it.
func firstArray(root any, paths []string) ([]any, string) {
	for _, path := range paths {
		value, ok := lookup(root, path)
		if !ok {
			continue
		}
		if arr, ok := value.([]any); ok && len(arr) > 0 {
			return arr, path
		}
	}
	return nil, ""
}

// findCandidate returns the track whose URL equals selectedURL exactly.
func findCandidate(record map[string]any, selectedURL string) (map[string]any, bool) {
	for _, path := range candidatePaths {
		value, ok := lookup(record, path)
		if !ok {
			continue
		}
		list, ok := value.([]any)
		if !ok {
			continue
		}
		for _, item := range list {
			candidate, ok := item.(map[string]any)
			if !ok {
				continue
			}
			for _, field := range candidateURLFields {
				if u, ok := candidate[field].(string); ok && u == selectedURL {
					return candidate, true
				}
			}
		}
	}
	return nil, false
}

func candidateID(candidate map[string]any) string {
	for _, field := range candidateIDFields {
		if id, ok := candidate[field].(string); ok && strings.TrimSpace(id) != "" {
			return strings.TrimSpace(id)
		}
	}
	return ""
}

// NormalizeWords converts raw alignment entries into word timings. Entries
// without text or a usable start are dropped; an end that is missing or
// earlier than the start is reported as absent.
func NormalizeWords(raw []any) []captions.Word {
	words := make([]captions.Word, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		text := firstString(entry, textAliases)
		if strings.TrimSpace(text) == "" {
			continue
		}
		start, ok := firstNumber(entry, startAliases)
		if !ok || start < 0 {
			continue
		}
		word := captions.Word{Text: norm.NFC.String(text), Start: start}
		if end, ok := firstNumber(entry, endAliases); ok && end >= start {
			word.End = end
			word.HasEnd = true
		}
		words = append(words, word)
	}
	return words
}

func firstString(entry map[string]any, aliases []string) string {
	for _, key := range aliases {
		if s, ok := entry[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstNumber(entry map[string]any, aliases []string) (float64, bool) {
	for _, key := range aliases {
		if v, ok := numberAt(entry, key); ok {
			return v, true
		}
	}
	return 0, false
}

func numberAt(entry map[string]any, key string) (float64, bool) {
	value, ok := entry[key]
	if !ok || value == nil {
		return 0, false
	}
	var (
		f   float64
		err error
	)
	switch v := value.(type) {
	case json.Number:
		f, err = v.Float64()
	case float64:
		f = v
	case int:
		f = float64(v)
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// WordsFromJSON decodes a saved alignment: either a bare array of word entries
// or any provider response that carries one at a known alignment path.
func WordsFromJSON(data []byte) ([]captions.Word, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var root any
	if err := decoder.Decode(&root); err != nil {
		return nil, fmt.Errorf("decode word timings: %w", err)
	}
	raw, ok := root.([]any)
	if !ok {
		raw, _ = firstArray(root, alignmentPaths)
	}
	if len(raw) == 0 {
		return nil, errors.New("no word alignment found")
	}
	words := NormalizeWords(raw)
	if len(words) == 0 {
		return nil, errors.New("alignment has no usable words")
	}
	return words, nil
}
