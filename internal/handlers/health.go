package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	db *sql.DB
}

// NewHealthHandlers creates probe handlers over the database handle.
func NewHealthHandlers(db *sql.DB) *HealthHandlers {
	return &HealthHandlers{db: db}
}

// Health reports process liveness.
func (h *HealthHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "storefront",
	})
}

// Ready reports whether the service can reach its database.
func (h *HealthHandlers) Ready(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
