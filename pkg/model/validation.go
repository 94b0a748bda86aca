package model

import "time"

// MaxProofLength is the hard cap on ValidationResult.proof (spec.md
// Invariant 2).
const MaxProofLength = 700

// MaxSources is the hard cap on ValidationResult.sources (spec.md
// Invariant 3).
const MaxSources = 2

// SearchResult is one organic result returned by the Search Adapter.
type SearchResult struct {
	URL     string
	Title   string
	Excerpt string
	PubDate *time.Time
}

// Source is a SearchResult promoted to a cited source: its URL is
// guaranteed well-formed.
type Source struct {
	URL     string
	Title   string
	Excerpt string
	PubDate *time.Time
}

// Judgment is the Result Judge's reconciled verdict.
type Judgment struct {
	Decision            Decision
	Score               int
	Summary              string
	Evidence             string
	Reasoning            string
	Sufficient           bool
	NextQuerySuggestion  string
	InputTokens          int
	OutputTokens         int
}

// ValidationResult is the engine's single output row per prediction.
type ValidationResult struct {
	ID           string
	PredictionID string
	Outcome      Outcome
	Proof        string
	Sources      []Source
	CreatedAt    time.Time
}

// TruncateProof enforces Invariant 2: truncate to MaxProofLength with a
// 3-char ellipsis replacing the tail. Idempotent: truncating an
// already-short string is a no-op (spec.md §8 property 8).
func TruncateProof(proof string) string {
	runes := []rune(proof)
	if len(runes) <= MaxProofLength {
		return proof
	}
	return string(runes[:MaxProofLength-3]) + "..."
}
