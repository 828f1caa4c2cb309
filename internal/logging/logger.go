// Package logging arma el logger estructurado de la app y el middleware de access log.
package logging

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// New crea un logger zerolog. format "console" es para desarrollo local;
// cualquier otro valor emite JSON. Un level inválido cae a info.
func New(out io.Writer, level, format string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}

	if format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).Level(parsed).With().Timestamp().Logger()
}

// RequestLogger reemplaza a middleware.Logger de chi: una línea por request,
// con el request id y el logger disponible en el contexto (zerolog.Ctx).
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestLogger := logger.With().
				Str("request_id", middleware.GetReqID(r.Context())).
				Logger()

			wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(wrapped, r.WithContext(requestLogger.WithContext(r.Context())))

			status := wrapped.Status()
			if status == 0 {
				status = http.StatusOK
			}

			event := requestLogger.Info()
			if status >= http.StatusInternalServerError {
				event = requestLogger.Error()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", wrapped.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		})
	}
}
