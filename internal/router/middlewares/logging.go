package middlewares

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// WithLogging logs non-200 responses with the request route.
func WithLogging(h http.Handler) http.Handler {
	handler := func(rw http.ResponseWriter, req *http.Request) {
		loggedRW := &responseWriterLogger{
			ResponseWriter: rw,
		}
		h.ServeHTTP(loggedRW, req)

		if loggedRW.statusCode != http.StatusOK {
			log.Warn().
				Int("statusCode", loggedRW.statusCode).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Msg("non-200 status code response")
		}
	}
	return http.HandlerFunc(handler)
}

type responseWriterLogger struct {
	http.ResponseWriter
	statusCode int
}

func (r *responseWriterLogger) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	r.statusCode = statusCode
}
