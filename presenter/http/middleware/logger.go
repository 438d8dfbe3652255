package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/intraverse/tx-indexer/logging"
)

func NewLoggerMiddleware(logger logging.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reqLogger := logger.WithFields(logrus.Fields{
				"request_id":  middleware.GetReqID(ctx),
				"http_method": r.Method,
				"http_path":   r.RequestURI,
			})
			ctx = logging.WithLogger(ctx, reqLogger)

			reqLogger.Debug("handling http request")
			ts := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))
			reqLogger.WithFields(logrus.Fields{
				"duration": time.Since(ts),
				"status":   ww.Status(),
			}).Info("http request completed")
		})
	}
}
