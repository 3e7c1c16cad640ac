package shared

import (
	"math"
	"net/http"
	"strconv"

	"github.com/tradepost-erp/tradepost/internal/platform/httpx"
)

// PageRequest carries paging parameters parsed from a list request.
type PageRequest struct {
	Page  int
	Limit int
}

// ParsePageRequest reads page/limit query parameters with sane defaults.
func ParsePageRequest(r *http.Request) PageRequest {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return PageRequest{Page: page, Limit: limit}
}

// Offset converts the page request into a query offset.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta computes pagination metadata for the response envelope.
func (p PageRequest) Meta(total int) httpx.Pagination {
	pages := int(math.Ceil(float64(total) / float64(p.Limit)))
	return httpx.Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}
