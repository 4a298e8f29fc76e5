package songprovider

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"videogen/internal/logging"
)

type fakeFetcher struct {
	record      map[string]any
	recordErr   error
	timestamped map[string]any
	tsErr       error
	tsCalls     int
	tsAudioID   string
}

func (f *fakeFetcher) FetchRecord(context.Context, string) (map[string]any, error) {
	return f.record, f.recordErr
}

func (f *fakeFetcher) FetchTimestampedLyrics(_ context.Context, _ string, audioID string) (map[string]any, error) {
	f.tsCalls++
	f.tsAudioID = audioID
	return f.timestamped, f.tsErr
}

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return out
}

const selected = "https://cdn.example/b.mp3"

func TestResolveMatchesCandidateByExactURL(t *testing.T) {
	fetcher := &fakeFetcher{record: decode(t, `{"data":{"response":{"sunoData":[
		{"id":"a","audioUrl":"https://cdn.example/a.mp3","alignedWords":[{"word":"wrong","startS":0}]},
		{"id":"b","audioUrl":"https://cdn.example/b.mp3","alignedWords":[
			{"word":"hello","startS":0,"endS":0.4},
			{"text":"world","start_s":"2.0","end_s":1.0},
			{"word":"","startS":3},
			{"word":"skip","startS":-1}
		]}
	]}}}`)}
	result := NewResolver(fetcher, logging.NewNop()).Resolve(context.Background(), "task", selected)
	if !result.OK() {
		t.Fatalf("expected ok result, got %+v", result)
	}
	if result.Source != "candidate:alignedWords" {
		t.Fatalf("source = %q", result.Source)
	}
	if len(result.Words) != 2 {
		t.Fatalf("got %d words, want 2: %+v", len(result.Words), result.Words)
	}
	if result.Words[0].Text != "hello" || !result.Words[0].HasEnd {
		t.Fatalf("first word = %+v", result.Words[0])
	}
	if result.Words[1].Start != 2 || result.Words[1].HasEnd {
		t.Fatalf("inconsistent end should be absent: %+v", result.Words[1])
	}
	if fetcher.tsCalls != 0 {
		t.Fatalf("timestamped lyrics fetched %d times, want 0", fetcher.tsCalls)
	}
}

func TestResolveFallsBackToTimestampedLyrics(t *testing.T) {
	fetcher := &fakeFetcher{
		record:      decode(t, `{"data":{"suno_data":[{"audio_id":"clip-9","stream_audio_url":"https://cdn.example/b.mp3"}]}}`),
		timestamped: decode(t, `{"data":{"aligned_words":[{"token":"歌","begin":1,"stop":1.5}]}}`),
	}
	result := NewResolver(fetcher, logging.NewNop()).Resolve(context.Background(), "task", selected)
	if !result.OK() || result.Source != "timestamped:data.aligned_words" {
		t.Fatalf("unexpected result %+v", result)
	}
	if fetcher.tsAudioID != "clip-9" {
		t.Fatalf("audio id = %q, want clip-9", fetcher.tsAudioID)
	}
}

func TestResolveReasons(t *testing.T) {
	tests := []struct {
		name    string
		taskID  string
		fetcher *fakeFetcher
		want    Reason
	}{
		{
			name:    "missing task id",
			fetcher: &fakeFetcher{},
			want:    ReasonMissingInput,
		},
		{
			name:    "unreachable",
			taskID:  "t",
			fetcher: &fakeFetcher{recordErr: errors.New("dial tcp: refused")},
			want:    ReasonProviderUnreachable,
		},
		{
			name:    "status",
			taskID:  "t",
			fetcher: &fakeFetcher{recordErr: &StatusError{StatusCode: 500}},
			want:    ReasonProviderStatus,
		},
		{
			name:    "candidate missing",
			taskID:  "t",
			fetcher: &fakeFetcher{record: map[string]any{"data": map[string]any{"data": []any{map[string]any{"audioUrl": selected + "?x=1"}}}}},
			want:    ReasonCandidateNotFound,
		},
		{
			name:   "no alignment anywhere",
			taskID: "t",
			fetcher: &fakeFetcher{
				record: map[string]any{"clips": []any{map[string]any{"audioUrl": selected}}},
				tsErr:  errors.New("timeout"),
			},
			want: ReasonNoAlignment,
		},
		{
			name:   "unusable words",
			taskID: "t",
			fetcher: &fakeFetcher{record: map[string]any{"clips": []any{map[string]any{
				"audioUrl": selected,
				"words":    []any{map[string]any{"word": " "}, "junk"},
			}}}},
			want: ReasonNoUsableWords,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewResolver(tt.fetcher, logging.NewNop()).Resolve(context.Background(), tt.taskID, selected)
			if result.Reason != tt.want {
				t.Fatalf("reason = %q, want %q", result.Reason, tt.want)
			}
			if len(result.Words) != 0 {
				t.Fatalf("expected no words, got %+v", result.Words)
			}
		})
	}
}

func TestResolveUsesRecordLevelAlignment(t *testing.T) {
	fetcher := &fakeFetcher{
		record: decode(t, `{"data":{"data":[{"audioUrl":"https://cdn.example/b.mp3"}],"alignedWords":[{"w":"la","startTime":0.1,"endTime":0.2}]}}`),
		tsErr:  &StatusError{StatusCode: 404},
	}
	result := NewResolver(fetcher, logging.NewNop()).Resolve(context.Background(), "t", selected)
	if !result.OK() || result.Source != "record:data.alignedWords" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestWordsFromJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "bare array", input: `[{"word":"la","startS":0.5,"endS":1},{"word":"li","startS":1.2}]`, want: 2},
		{name: "provider response", input: `{"data":{"alignedWords":[{"text":"hey","start":"2.5","end":"3"}]}}`, want: 1},
		{name: "no alignment", input: `{"data":{}}`, wantErr: true},
		{name: "no usable words", input: `[{"word":"","startS":1}]`, wantErr: true},
		{name: "malformed", input: `{`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			words, err := WordsFromJSON([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", words)
				}
				return
			}
			if err != nil {
				t.Fatalf("WordsFromJSON: %v", err)
			}
			if len(words) != tt.want {
				t.Fatalf("got %d words, want %d", len(words), tt.want)
			}
		})
	}
}
