package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hostdeck/panel/backend/internal/metrics"
)

// RequestRecorder counts requests and server errors.
type RequestRecorder interface {
	RecordRequest()
	RecordError()
}

// ResourceTracking feeds every request into rec and the prometheus counters.
// Responses with status >= 500 are counted as errors.
func ResourceTracking(rec RequestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec.RecordRequest()
		c.Next()

		status := c.Writer.Status()
		metrics.IncHTTPRequest(c.Request.Method, strconv.Itoa(status/100)+"xx")
		if status >= 500 {
			rec.RecordError()
			metrics.IncHTTPError()
		}
	}
}
