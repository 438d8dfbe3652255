package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/intraverse/tx-indexer/presenter/http/render"
)

type ctxKey int

const (
	dateRangeCtxKey ctxKey = iota
	paginationCtxKey
)

const (
	dateFormat       = "2006-01-02"
	maxDateRangeDays = 365
	defaultPageLimit = 10
	maxPageLimit     = 100
)

type DateRange struct {
	From time.Time
	To   time.Time
}

type Pagination struct {
	Limit  uint
	Offset uint
}

// GetDateRangeMiddleware requires from and to query parameters in YYYY-MM-DD format.
func GetDateRangeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		var details []string
		from, err := time.Parse(dateFormat, query.Get("from"))
		if err != nil {
			details = append(details, "from: date must be YYYY-MM-DD")
		}
		to, err := time.Parse(dateFormat, query.Get("to"))
		if err != nil {
			details = append(details, "to: date must be YYYY-MM-DD")
		}
		if len(details) == 0 {
			if from.After(to) {
				details = append(details, "from must be <= to")
			} else if to.Sub(from) > maxDateRangeDays*24*time.Hour {
				details = append(details, "date range must not exceed 365 days")
			}
		}
		if len(details) > 0 {
			render.ValidationError(w, r, details...)
			return
		}

		ctx := context.WithValue(r.Context(), dateRangeCtxKey, &DateRange{From: from, To: to})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetDateRange(ctx context.Context) *DateRange {
	if dr, ok := ctx.Value(dateRangeCtxKey).(*DateRange); ok {
		return dr
	}
	return new(DateRange)
}

// GetPaginationMiddleware parses limit (1..100, default 10) and offset (default 0) query parameters.
func GetPaginationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		p := &Pagination{Limit: defaultPageLimit}
		var details []string
		if s := query.Get("limit"); s != "" {
			limit, err := strconv.ParseUint(s, 10, 32)
			if err != nil || limit < 1 || limit > maxPageLimit {
				details = append(details, "limit: must be an integer between 1 and 100")
			} else {
				p.Limit = uint(limit)
			}
		}
		if s := query.Get("offset"); s != "" {
			offset, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				details = append(details, "offset: must be a non-negative integer")
			} else {
				p.Offset = uint(offset)
			}
		}
		if len(details) > 0 {
			render.ValidationError(w, r, details...)
			return
		}

		ctx := context.WithValue(r.Context(), paginationCtxKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetPagination(ctx context.Context) *Pagination {
	if p, ok := ctx.Value(paginationCtxKey).(*Pagination); ok {
		return p
	}
	return &Pagination{Limit: defaultPageLimit}
}
