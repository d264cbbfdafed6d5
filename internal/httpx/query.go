package httpx

import (
	"net/http"
	"strconv"
)

// Page returns the page query param, defaulting to 1.
func Page(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Limit returns the limit query param clamped to 1..50, or def.
func Limit(r *http.Request, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 1 {
		return def
	}
	if n > 50 {
		return 50
	}
	return n
}

// TotalPages is ceil(count/limit).
func TotalPages(count int64, limit int) int {
	return int((count + int64(limit) - 1) / int64(limit))
}
