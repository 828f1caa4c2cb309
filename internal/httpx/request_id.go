package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// RequestIDHeader es el header donde se recibe y se devuelve el request id.
const RequestIDHeader = "X-Request-Id"

// newRequestID se deja como variable para poder fijarla en tests.
var newRequestID = uuid.NewString

// RequestID respeta el X-Request-Id entrante o genera un UUID nuevo.
// Lo guarda en el contexto con la misma key que usa chi, así middleware.GetReqID sigue funcionando.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requestID := strings.TrimSpace(request.Header.Get(RequestIDHeader))
		if requestID == "" {
			requestID = newRequestID()
		}

		writer.Header().Set(RequestIDHeader, requestID)
		ctx := context.WithValue(request.Context(), middleware.RequestIDKey, requestID)
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// RequestIDFrom lee el request id para incluirlo en las respuestas.
// Prioriza el del contexto (middleware) y cae al header si no hay.
func RequestIDFrom(request *http.Request) string {
	if request == nil {
		return ""
	}
	if requestID := middleware.GetReqID(request.Context()); requestID != "" {
		return requestID
	}
	return request.Header.Get(RequestIDHeader)
}
