package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/verdant-ops/facility-backend-go/pkg/errors"
)

// AutomationReport handles GET /api/v1/reports/automation?hours=N.
// Defaults to the last 24 hours.
func (h *Handlers) AutomationReport(c *gin.Context) {
	hours := 24
	if raw := c.Query("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondAppError(c, apperrors.New(http.StatusBadRequest, "hours must be a positive integer"))
			return
		}
		hours = parsed
	}

	report := h.reports.Generate(time.Duration(hours)*time.Hour, time.Now())
	c.JSON(http.StatusOK, report)
}
