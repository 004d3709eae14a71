package helpers

import (
	"net/http"
	"strconv"
)

// List query parameter defaults and limits.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ParseLimit reads limit from the request query string and clamps it to the
// valid range. Invalid or missing values fall back to DefaultLimit.
func ParseLimit(r *http.Request) int {
	limit := DefaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 1 {
			limit = v
			if limit > MaxLimit {
				limit = MaxLimit
			}
		}
	}
	return limit
}
