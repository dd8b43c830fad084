package api

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// Paginator reads page and limit query parameters and builds list envelopes.
type Paginator struct {
	DefaultSize int
	MaxSize     int
}

// NewPaginator creates a Paginator with the given default and maximum page sizes.
func NewPaginator(defaultSize, maxSize int) Paginator {
	return Paginator{DefaultSize: defaultSize, MaxSize: maxSize}
}

// Page returns the requested page. Invalid values fall back to defaults.
func (p Paginator) Page(c *gin.Context) service.Page {
	page := service.Page{Number: 1, Size: p.DefaultSize}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		page.Number = n
	}
	if size, err := strconv.Atoi(c.Query("limit")); err == nil && size > 0 {
		page.Size = size
	}
	if p.MaxSize > 0 && page.Size > p.MaxSize {
		page.Size = p.MaxSize
	}
	return page
}

// paginate wraps results in the list envelope with absolute next and
// previous links.
func paginate[T any](c *gin.Context, page service.Page, total int64, results []T) types.Page[T] {
	if results == nil {
		results = []T{}
	}
	out := types.Page[T]{Count: total, Results: results}

	if int64(page.Number*page.Size) < total {
		next := pageURL(c, page.Number+1)
		out.Next = &next
	}
	if page.Number > 1 {
		prev := pageURL(c, page.Number-1)
		out.Previous = &prev
	}
	return out
}

func pageURL(c *gin.Context, number int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	query := c.Request.URL.Query()
	if number == 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(number))
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: query.Encode(),
	}
	return u.String()
}
