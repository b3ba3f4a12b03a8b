package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id back to the caller.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// GinMiddleware logs every HTTP request with a fresh request id. The id is
// echoed in RequestIDHeader and stored in the request context so handlers
// can tag their own logs with it.
func GinMiddleware(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), id))

		logEntry := log.With(
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		logEntry.DebugContext(c.Request.Context(), "Processing request")

		c.Next()

		attrs := []any{"status", c.Writer.Status(), "duration", time.Since(startTime)}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}
		logEntry.InfoContext(c.Request.Context(), "Finished processing request", attrs...)
	}
}
