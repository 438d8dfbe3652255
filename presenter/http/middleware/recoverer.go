package middleware

import (
	"fmt"
	"net/http"

	"github.com/intraverse/tx-indexer/presenter/http/render"
)

func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("recovered: %v", rec)
				}
				render.Error(w, r, fmt.Errorf("panic in http handler: %w", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
