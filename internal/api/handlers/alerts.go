package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ListAlerts handles GET /api/v1/alerts. ?active=true narrows to unresolved
// alerts.
func (h *Handlers) ListAlerts(c *gin.Context) {
	if c.Query("active") == "true" {
		c.JSON(http.StatusOK, gin.H{"alerts": h.alerts.Active()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": h.alerts.All()})
}

// ResolveAlert handles POST /api/v1/alerts/:id/resolve.
func (h *Handlers) ResolveAlert(c *gin.Context) {
	if err := h.alerts.Resolve(c.Param("id"), time.Now()); err != nil {
		respondNotFound(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": "resolved"})
}
