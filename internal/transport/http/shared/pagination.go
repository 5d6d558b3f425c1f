package shared

import (
	"net/http"
	"strconv"
	"strings"
)

// MaxOffset bounds how deep a list may be paged.
const MaxOffset = 100_000

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit and offset from the query. Unparseable or
// non-positive limits fall back to defaultLimit; limits above maxLimit and
// offsets above MaxOffset are clamped.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	query := r.URL.Query()
	page := Pagination{Limit: defaultLimit}
	if v, ok := queryInt(query.Get("limit")); ok && v > 0 {
		page.Limit = v
	}
	if maxLimit > 0 && page.Limit > maxLimit {
		page.Limit = maxLimit
	}
	if v, ok := queryInt(query.Get("offset")); ok && v > 0 {
		page.Offset = min(v, MaxOffset)
	}
	return page
}

func queryInt(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	return v, err == nil
}
