package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type countingRecorder struct {
	requests atomic.Int64
	errors   atomic.Int64
}

func (c *countingRecorder) RecordRequest() { c.requests.Add(1) }
func (c *countingRecorder) RecordError()   { c.errors.Add(1) }

func TestResourceTracking(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := &countingRecorder{}
	r := gin.New()
	r.Use(ResourceTracking(rec))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	for _, path := range []string{"/ok", "/missing", "/boom", "/ok"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, int64(4), rec.requests.Load())
	assert.Equal(t, int64(1), rec.errors.Load())
}
