package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any cursor query can request.
	MaxLimit = 100
)

// Params holds cursor pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points at the last row of the previous page.
type Cursor struct {
	ID string
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// EncodeCursor builds an opaque cursor string from the provided values.
func EncodeCursor(cursor Cursor) string {
	return base64.RawURLEncoding.EncodeToString([]byte("id|" + cursor.ID))
}

// ParseCursor decodes the cursor string back into its components.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	id, ok := strings.CutPrefix(string(decoded), "id|")
	if !ok || id == "" {
		return nil, fmt.Errorf("invalid cursor format")
	}
	return &Cursor{ID: id}, nil
}

// Page slices an ordered result set after the cursor row and returns the cursor
// for the following page, empty when there is none.
func Page[T any](rows []T, idOf func(T) string, params Params) ([]T, string, error) {
	cursor, err := ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	start := 0
	if cursor != nil {
		start = -1
		for i, row := range rows {
			if idOf(row) == cursor.ID {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return nil, "", fmt.Errorf("cursor row %q not found", cursor.ID)
		}
	}

	limit := NormalizeLimit(params.Limit)
	end := start + limit
	if end >= len(rows) {
		return rows[start:], "", nil
	}
	page := rows[start:end]
	return page, EncodeCursor(Cursor{ID: idOf(page[len(page)-1])}), nil
}
