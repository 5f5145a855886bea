package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ServiceName is reported by GET /.
const ServiceName = "unit-telemetry-backend"

// Root handles GET /.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": ServiceName})
}

// Health handles GET /healthz by pinging the store.
func (h *Handler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
