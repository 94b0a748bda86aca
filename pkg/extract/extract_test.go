package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/predictval/predictval/pkg/model"
)

type fakeFetcher struct {
	posts map[string]model.Post
	calls int
}

func (f *fakeFetcher) FetchPost(ctx context.Context, id string) (model.Post, error) {
	f.calls++
	post, ok := f.posts[id]
	if !ok {
		return model.Post{}, errors.New("not found")
	}
	return post, nil
}

func strPtr(s string) *string { return &s }

func TestTextPrefersPredictionContext(t *testing.T) {
	lp := &model.LeasedPrediction{
		Details: model.PredictionDetails{PredictionContext: strPtr("verbatim context")},
	}
	got, err := Text(context.Background(), &fakeFetcher{}, lp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "verbatim context" {
		t.Errorf("Text = %q, want %q", got, "verbatim context")
	}
}

func TestTextBlankPredictionContextFallsThrough(t *testing.T) {
	lp := &model.LeasedPrediction{
		Post: model.Post{ID: "p1", Text: "the sky will turn green tomorrow"},
		Details: model.PredictionDetails{
			PredictionContext: strPtr("   "),
		},
		Prediction: model.Prediction{
			GoalSlices: []model.GoalSlice{{Start: 4, End: 33}},
		},
	}
	got, err := Text(context.Background(), &fakeFetcher{}, lp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "sky will turn green tomorrow" {
		t.Errorf("Text = %q, want %q", got, "sky will turn green tomorrow")
	}
}

func TestTextSingleSliceFromOwnPost(t *testing.T) {
	lp := &model.LeasedPrediction{
		Post: model.Post{ID: "p1", Text: "the economy will grow by 3% next year"},
		Prediction: model.Prediction{
			GoalSlices: []model.GoalSlice{{Start: 4, End: 38}},
		},
	}
	got, err := Text(context.Background(), &fakeFetcher{}, lp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "economy will grow by 3% next year" {
		t.Errorf("Text = %q, want %q", got, "economy will grow by 3% next year")
	}
}

func TestTextMultiSliceFetchesOtherPost(t *testing.T) {
	other := "p2"
	lp := &model.LeasedPrediction{
		Post: model.Post{ID: "p1", Text: "first part here"},
		Prediction: model.Prediction{
			GoalSlices: []model.GoalSlice{
				{Start: 0, End: 5},
				{Start: 0, End: 6, SourcePostID: &other},
			},
		},
	}
	fetcher := &fakeFetcher{posts: map[string]model.Post{
		"p2": {ID: "p2", Text: "second part"},
	}}
	got, err := Text(context.Background(), fetcher, lp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "firstsecond"
	if got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
	if fetcher.calls != 1 {
		t.Errorf("expected exactly 1 fetch call, got %d", fetcher.calls)
	}
}

func TestTextCachesRepeatedFetch(t *testing.T) {
	other := "p2"
	lp := &model.LeasedPrediction{
		Post: model.Post{ID: "p1", Text: "x"},
		Prediction: model.Prediction{
			GoalSlices: []model.GoalSlice{
				{Start: 0, End: 5, SourcePostID: &other},
				{Start: 5, End: 14, SourcePostID: &other},
			},
		},
	}
	fetcher := &fakeFetcher{posts: map[string]model.Post{
		"p2": {ID: "p2", Text: "wordsremaining"},
	}}
	got, err := Text(context.Background(), fetcher, lp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "wordsremaining" {
		t.Errorf("Text = %q, want %q", got, "wordsremaining")
	}
	if fetcher.calls != 1 {
		t.Errorf("expected fetch to be cached after first call, got %d calls", fetcher.calls)
	}
}

func TestTextEmptyResultReturnsErrEmptyText(t *testing.T) {
	lp := &model.LeasedPrediction{
		Post:       model.Post{ID: "p1", Text: ""},
		Prediction: model.Prediction{},
	}
	_, err := Text(context.Background(), &fakeFetcher{}, lp)
	if !errors.Is(err, ErrEmptyText) {
		t.Errorf("err = %v, want ErrEmptyText", err)
	}
}

func TestTextOutOfBoundsSliceIsClamped(t *testing.T) {
	lp := &model.LeasedPrediction{
		Post: model.Post{ID: "p1", Text: "short"},
		Prediction: model.Prediction{
			GoalSlices: []model.GoalSlice{{Start: -5, End: 1000}},
		},
	}
	got, err := Text(context.Background(), &fakeFetcher{}, lp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "short" {
		t.Errorf("Text = %q, want %q", got, "short")
	}
}

func TestTextFetchErrorPropagates(t *testing.T) {
	missing := "missing"
	lp := &model.LeasedPrediction{
		Post: model.Post{ID: "p1", Text: "x"},
		Prediction: model.Prediction{
			GoalSlices: []model.GoalSlice{{Start: 0, End: 1, SourcePostID: &missing}},
		},
	}
	_, err := Text(context.Background(), &fakeFetcher{}, lp)
	if err == nil {
		t.Fatal("expected error when referenced post cannot be fetched")
	}
}
