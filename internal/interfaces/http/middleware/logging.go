package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tradepulse/tradepulse/internal/infrastructure/monitoring/logging"
)

// slowRequestThreshold promotes a request's log entry to Warn.
const slowRequestThreshold = 3 * time.Second

// RequestLogging logs one line per request: method, route, status, duration,
// and request ID.  Status picks the level (5xx error, 4xx warn), and paths in
// skip are not logged at all to keep probe noise out.
func RequestLogging(log logging.Logger, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("duration", elapsed),
			logging.String("request_id", GetRequestID(c)),
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Error("request failed", fields...)
		case c.Writer.Status() >= 400 || elapsed > slowRequestThreshold:
			log.Warn("request completed", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}
