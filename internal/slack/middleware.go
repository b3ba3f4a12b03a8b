package slack

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
)

// maxBodySize bounds inbound Slack request bodies.
const maxBodySize = 1 << 20

// Recovery turns a panicking handler into a 500.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.ErrorContext(c.Request.Context(), "panic recovered",
					"error", err,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// VerifySignature rejects requests not signed with secret. The body is read
// once and restored for the next handler. An empty secret disables the check.
func VerifySignature(secret string, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize))
		if err != nil {
			log.WarnContext(c.Request.Context(), "Failed to read request body", "error", err)
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		sv, err := slack.NewSecretsVerifier(c.Request.Header, secret)
		if err != nil {
			log.WarnContext(c.Request.Context(), "Rejected unsigned request", "error", err)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if _, err := sv.Write(body); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		if err := sv.Ensure(); err != nil {
			log.WarnContext(c.Request.Context(), "Rejected request with bad signature", "error", err)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
