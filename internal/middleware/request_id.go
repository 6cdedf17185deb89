package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	requestIDHeader    = "X-Request-Id"
	requestIDKey       = contextKey("requestID")
	maxRequestIDLength = 128
)

// RequestID tags every request with an id, reusing a well-formed inbound
// X-Request-Id or X-Correlation-Id. The id is echoed in the response header
// and kept in the request context for logging.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := inboundRequestID(r)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)
			next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), requestID)))
		})
	}
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFrom returns the id RequestID stored, or "" outside that middleware.
func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

func inboundRequestID(r *http.Request) string {
	for _, key := range []string{requestIDHeader, "X-Correlation-Id"} {
		value := strings.TrimSpace(r.Header.Get(key))
		if value != "" && validRequestID(value) {
			return value
		}
	}
	return ""
}

// validRequestID accepts printable ASCII without spaces, so ids are safe to
// echo into headers and logs.
func validRequestID(value string) bool {
	if len(value) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] <= ' ' || value[i] > '~' {
			return false
		}
	}
	return true
}
