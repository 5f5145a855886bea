package mw

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver records served requests, see metrics.Collector.
type RequestObserver interface {
	ObserveRequest(method, route string, code int, elapsed time.Duration)
}

// Metrics reports every request to obs, labelled with the matched route
// pattern so that ids in paths don't blow up label cardinality.
func Metrics(obs RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		obs.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
