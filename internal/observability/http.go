package observability

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GinMiddleware records request metrics and logs one line per request.
// Routes are labeled by their registered pattern to keep cardinality bounded.
func GinMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		elapsed := time.Since(start)
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDurationSeconds.WithLabelValues(c.Request.Method, path, status).Observe(elapsed.Seconds())

		if logger != nil {
			logger.InfoContext(c.Request.Context(), "http_request",
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("remote_addr", c.ClientIP()),
				slog.Int("status", c.Writer.Status()),
				slog.String("duration", elapsed.String()),
				slog.Int("bytes", c.Writer.Size()),
			)
		}
	}
}
