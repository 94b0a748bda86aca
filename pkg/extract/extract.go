// Package extract implements Goal-Text Extraction (spec.md §4.3): turning
// a leased prediction into a single text string fed to the rest of the
// pipeline.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/predictval/predictval/pkg/model"
)

// ErrEmptyText is returned when extraction yields the empty string; the
// Pipeline maps this to outcome Invalid (spec.md §4.3).
var ErrEmptyText = errors.New("extract: prediction text is empty")

// PostFetcher resolves a post ID to its text, used when a goal slice
// references a post other than the leased prediction's own.
type PostFetcher interface {
	FetchPost(ctx context.Context, id string) (model.Post, error)
}

// Text implements the §4.3 preference order: details.prediction_context
// verbatim when non-empty, else the concatenation of text[start:end] for
// each goal slice. Slice bounds are half-open ranges over []rune (Unicode
// code points) — see DESIGN.md's Open Question resolution. Posts
// referenced by a slice's source_post_id are fetched on demand and cached
// for the remainder of this call.
func Text(ctx context.Context, fetcher PostFetcher, lp *model.LeasedPrediction) (string, error) {
	if lp.Details.PredictionContext != nil {
		if trimmed := strings.TrimSpace(*lp.Details.PredictionContext); trimmed != "" {
			return *lp.Details.PredictionContext, nil
		}
	}

	cache := map[string][]rune{lp.Post.ID: []rune(lp.Post.Text)}

	var b strings.Builder
	for _, slice := range lp.Prediction.GoalSlices {
		postID := lp.Post.ID
		if slice.SourcePostID != nil {
			postID = *slice.SourcePostID
		}

		runes, ok := cache[postID]
		if !ok {
			post, err := fetcher.FetchPost(ctx, postID)
			if err != nil {
				return "", fmt.Errorf("fetch post %s for goal slice: %w", postID, err)
			}
			runes = []rune(post.Text)
			cache[postID] = runes
		}

		start, end := slice.Start, slice.End
		if start < 0 {
			start = 0
		}
		if end > len(runes) {
			end = len(runes)
		}
		if start >= end {
			continue
		}
		b.WriteString(string(runes[start:end]))
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	return text, nil
}
