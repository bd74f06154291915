// Package pagination implements fetch-one-extra paging over keyset queries
// together with the opaque continuation tokens handed to API clients.
package pagination

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-registration/internal/apperr"
)

const (
	// DefaultLimit is the page size for general listings.
	DefaultLimit = 20
	// FeaturedLimit is the page size for featured listings.
	FeaturedLimit = 10
	// MaxLimit caps client-supplied page sizes.
	MaxLimit = 100
)

// Cursor is the position after which the next page starts. Listings are
// ordered by (After, ID), so the pair is unique.
type Cursor struct {
	After time.Time `json:"after"`
	ID    string    `json:"id"`
}

// Page is one page of results.
type Page[T any] struct {
	Items       []T     `json:"items"`
	HasNextPage bool    `json:"hasNextPage"`
	NextToken   *string `json:"nextToken"`
}

// FetchFunc loads up to limit items strictly after the cursor. A nil cursor
// means the beginning of the listing.
type FetchFunc[T any] func(ctx context.Context, limit int, after *Cursor) ([]T, error)

// KeyFunc returns the cursor that identifies an item's position.
type KeyFunc[T any] func(T) Cursor

// EncodeCursor encodes c as an opaque URL-safe token.
func EncodeCursor(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeCursor parses a token produced by EncodeCursor. An empty token
// yields a nil cursor.
func DecodeCursor(token string) (*Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, apperr.BadRequest("invalid pagination token").WithCause(err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, apperr.BadRequest("invalid pagination token").WithCause(err)
	}
	if c.ID == "" {
		return nil, apperr.BadRequest("invalid pagination token")
	}
	return &c, nil
}

// Paginate fetches limit+1 items after the position encoded in token and
// trims the result to one page.
func Paginate[T any](ctx context.Context, limit int, token string, fetch FetchFunc[T], key KeyFunc[T]) (Page[T], error) {
	if limit < 0 {
		return Page[T]{}, apperr.BadRequest("limit must not be negative")
	}
	after, err := DecodeCursor(token)
	if err != nil {
		return Page[T]{}, err
	}
	items, err := fetch(ctx, limit+1, after)
	if err != nil {
		return Page[T]{}, err
	}
	return Apply(items, limit, key)
}

// Apply turns the result of a limit+1 fetch into a page. When more than
// limit items are present the page is truncated and points at its last item.
func Apply[T any](items []T, limit int, key KeyFunc[T]) (Page[T], error) {
	if limit < 0 {
		limit = 0
	}
	if len(items) <= limit {
		out := make([]T, len(items))
		copy(out, items)
		return Page[T]{Items: out}, nil
	}

	out := make([]T, limit)
	copy(out, items[:limit])
	page := Page[T]{Items: out, HasNextPage: true}
	if limit == 0 {
		return page, nil
	}

	token, err := EncodeCursor(key(out[limit-1]))
	if err != nil {
		return Page[T]{}, err
	}
	page.NextToken = &token
	return page, nil
}

// ParseLimit reads a page size from a query string value. Empty values use
// def; values above max are clamped.
func ParseLimit(raw string, def, max int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.BadRequest("limit must be an integer")
	}
	if n < 0 {
		return 0, apperr.BadRequest("limit must not be negative")
	}
	if n > max {
		return max, nil
	}
	return n, nil
}
