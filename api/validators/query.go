package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/packfinderz-cart/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter bounded by [min, max].
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, queryError("query parameter must be numeric", map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, queryError("query parameter out of range", map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryToken reads an optional opaque token such as a pagination cursor.
func ParseQueryToken(r *http.Request, key string, maxLen int) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return "", nil
	}
	if !IsToken(raw, maxLen) {
		return "", queryError("query parameter is malformed", map[string]any{"field": key, "max_length": maxLen})
	}
	return raw, nil
}

func queryError(message string, details map[string]any) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(details)
}
