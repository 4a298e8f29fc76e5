package songprovider

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"videogen/internal/captions"
	"videogen/internal/logging"
)

// Reason explains the outcome of a caption source lookup.
type Reason string

const (
	ReasonOK                  Reason = "ok"
	ReasonMissingInput        Reason = "missing_input"
	ReasonProviderUnreachable Reason = "provider_unreachable"
	ReasonProviderStatus      Reason = "provider_status"
	ReasonMalformedResponse   Reason = "malformed_response"
	ReasonCandidateNotFound   Reason = "candidate_not_found"
	ReasonNoAlignment         Reason = "no_alignment"
	ReasonNoUsableWords       Reason = "no_usable_words"
)

// Result is the outcome of Resolve. Words is empty unless Reason is ReasonOK.
type Result struct {
	Words  []captions.Word
	Reason Reason
	// Source names where the alignment was found, e.g. "candidate:alignedWords".
	Source string
}

// OK reports whether usable word timings were found.
func (r Result) OK() bool { return r.Reason == ReasonOK && len(r.Words) > 0 }

// Fetcher is the provider API used by the Resolver.
type Fetcher interface {
	FetchRecord(ctx context.Context, taskID string) (map[string]any, error)
	FetchTimestampedLyrics(ctx context.Context, taskID, audioID string) (map[string]any, error)
}

// Resolver finds word timings for a generated track. It never fails: every
// problem becomes an empty Result with a Reason so callers can degrade.
type Resolver struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewResolver constructs a resolver over fetcher.
func NewResolver(fetcher Fetcher, logger *slog.Logger) *Resolver {
	return &Resolver{fetcher: fetcher, logger: logging.NewComponentLogger(logger, "caption-source")}
}

// Resolve looks up the record for taskID, picks the track whose URL equals
// selectedURL and extracts its word alignment.
func (r *Resolver) Resolve(ctx context.Context, taskID, selectedURL string) Result {
	logger := logging.WithContext(ctx, r.logger)
	result := r.resolve(ctx, logger, strings.TrimSpace(taskID), strings.TrimSpace(selectedURL))
	if result.OK() {
		logger.Info("word timings resolved",
			logging.String("source", result.Source),
			logging.Int("words", len(result.Words)),
		)
	} else {
		logging.WarnWithContext(logger, "word timings unavailable", "caption_source_unavailable",
			logging.String("reason", string(result.Reason)),
			logging.String(logging.FieldImpact, "captions fall back to fixed intervals"),
		)
	}
	return result
}

func (r *Resolver) resolve(ctx context.Context, logger *slog.Logger, taskID, selectedURL string) Result {
	if taskID == "" || selectedURL == "" || r.fetcher == nil {
		return Result{Reason: ReasonMissingInput}
	}

	record, err := r.fetcher.FetchRecord(ctx, taskID)
	if err != nil {
		logger.Debug("record lookup failed", logging.Error(err))
		return Result{Reason: failureReason(err)}
	}

	candidate, ok := findCandidate(record, selectedURL)
	if !ok {
		return Result{Reason: ReasonCandidateNotFound}
	}

	if raw, path := firstArray(candidate, alignmentPaths); raw != nil {
		return normalized(raw, "candidate:"+path)
	}

	timestamped, err := r.fetcher.FetchTimestampedLyrics(ctx, taskID, candidateID(candidate))
	if err != nil {
		logger.Debug("timestamped lyrics lookup failed", logging.Error(err))
	} else if raw, path := firstArray(timestamped, alignmentPaths); raw != nil {
		return normalized(raw, "timestamped:"+path)
	}

	if raw, path := firstArray(record, alignmentPaths); raw != nil {
		return normalized(raw, "record:"+path)
	}
	return Result{Reason: ReasonNoAlignment}
}

func normalized(raw []any, source string) Result {
	words := NormalizeWords(raw)
	if len(words) == 0 {
		return Result{Reason: ReasonNoUsableWords, Source: source}
	}
	return Result{Words: words, Reason: ReasonOK, Source: source}
}

func failureReason(err error) Reason {
	switch {
	case IsStatusError(err):
		return ReasonProviderStatus
	case errors.Is(err, ErrMalformedResponse):
		return ReasonMalformedResponse
	}
	return ReasonProviderUnreachable
}
