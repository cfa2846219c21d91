package middlewares

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/faucetdrops/backend/pkg/metrics"
)

// WithMetrics counts handled requests, labeled by route and status code.
func WithMetrics(route string) mux.MiddlewareFunc {
	counter, err := metrics.RequestCounter()
	if err != nil {
		log.Error().Err(err).Msg("creating request counter, requests will not be counted")
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			counted := &responseWriterLogger{ResponseWriter: rw}
			next.ServeHTTP(counted, r)

			status := counted.statusCode
			if status == 0 {
				status = http.StatusOK
			}
			attrs := append([]attribute.KeyValue{
				attribute.String("route", route),
				attribute.Int("status", status),
			}, metrics.BaseAttrs...)
			counter.Add(r.Context(), 1, attrs...)
		})
	}
}
