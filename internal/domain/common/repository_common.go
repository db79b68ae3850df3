package common

import (
	"fmt"
	"strings"
	"time"
)

// CursorPage is a cursor paging request.
// After is the opaque token returned by the previous page (empty = first page).
type CursorPage struct {
	After string
	Limit int
}

// CursorPageResult is a cursor paging result.
type CursorPageResult[T any] struct {
	Items      []T
	NextCursor *string // nil when there is no next page
	Limit      int
}

// EncodeTimeCursor builds the opaque cursor token for listings ordered by
// (createdAt DESC, id DESC). Both adapters share the format so a token stays
// valid across backends.
func EncodeTimeCursor(t time.Time, id string) string {
	return t.UTC().Format(time.RFC3339Nano) + "|" + strings.TrimSpace(id)
}

// DecodeTimeCursor parses a token produced by EncodeTimeCursor.
func DecodeTimeCursor(cursor string) (time.Time, string, error) {
	cursor = strings.TrimSpace(cursor)
	if cursor == "" {
		return time.Time{}, "", fmt.Errorf("cursor: empty token")
	}
	// The timestamp part never contains '|'; split at the first separator so
	// ids containing one still round-trip.
	i := strings.Index(cursor, "|")
	if i <= 0 || i == len(cursor)-1 {
		return time.Time{}, "", fmt.Errorf("cursor: malformed token")
	}
	t, err := time.Parse(time.RFC3339Nano, cursor[:i])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("cursor: bad timestamp: %w", err)
	}
	return t.UTC(), cursor[i+1:], nil
}

// NormalizeLimit clamps a cursor-page limit into [1, max] with a default.
func NormalizeLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
