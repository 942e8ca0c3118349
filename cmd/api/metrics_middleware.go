package main

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mzurek/cardsmith/internal/metrics"
)

// metricsMiddleware records request counts and latency per route pattern
// so path parameters do not explode the label cardinality.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		metrics.RecordHTTPRequest(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start).Seconds(),
		)
	}
}
