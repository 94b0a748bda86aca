package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/predictval/predictval/pkg/model"
)

// ErrPostNotFound is returned when a referenced scraped_post row does
// not exist.
var ErrPostNotFound = errors.New("store: post not found")

// PostFetcher resolves a goal slice's source_post_id to the referenced
// Post, used by pkg/extract when a slice points outside the leased
// prediction's own post (spec.md §4.3).
type PostFetcher struct {
	pool *pgxpool.Pool
}

// NewPostFetcher builds a PostFetcher over the given pool.
func NewPostFetcher(pool *pgxpool.Pool) *PostFetcher {
	return &PostFetcher{pool: pool}
}

// FetchPost loads one Post by ID.
func (f *PostFetcher) FetchPost(ctx context.Context, id string) (model.Post, error) {
	var text string
	err := f.pool.QueryRow(ctx, `SELECT text FROM scraped_post WHERE id = $1`, id).Scan(&text)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Post{}, ErrPostNotFound
		}
		return model.Post{}, fmt.Errorf("fetch post %s: %w", id, err)
	}
	return model.Post{ID: id, Text: text}, nil
}
