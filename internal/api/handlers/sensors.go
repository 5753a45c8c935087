package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verdant-ops/facility-backend-go/internal/core/sensors"
	apperrors "github.com/verdant-ops/facility-backend-go/pkg/errors"
)

// RegisterSensorRequest is the wire form of a sensor registration.
type RegisterSensorRequest struct {
	ID              string   `json:"id" binding:"required"`
	Name            string   `json:"name" binding:"required"`
	Zone            string   `json:"zone" binding:"required"`
	Kind            string   `json:"kind" binding:"required"`
	IntervalSeconds float64  `json:"interval_seconds"`
	Accuracy        float64  `json:"accuracy"`
	Active          *bool    `json:"active"`
	EnableAlarms    bool     `json:"enable_alarms"`
	Low             *float64 `json:"low"`
	High            *float64 `json:"high"`
	CriticalLow     *float64 `json:"critical_low"`
	CriticalHigh    *float64 `json:"critical_high"`
	Priority        int      `json:"priority"`
}

// RegisterSensor handles POST /api/v1/sensors.
func (h *Handlers) RegisterSensor(c *gin.Context) {
	var req RegisterSensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	cfg := sensors.Config{
		ID:           req.ID,
		Name:         req.Name,
		Zone:         req.Zone,
		Kind:         sensors.Kind(strings.ToLower(req.Kind)),
		Interval:     time.Duration(req.IntervalSeconds * float64(time.Second)),
		Accuracy:     req.Accuracy,
		Active:       active,
		EnableAlarms: req.EnableAlarms,
		Thresholds: sensors.Thresholds{
			Low:          req.Low,
			High:         req.High,
			CriticalLow:  req.CriticalLow,
			CriticalHigh: req.CriticalHigh,
			Priority:     req.Priority,
		},
	}

	if err := h.sensors.Register(cfg, time.Now()); err != nil {
		respondConflict(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": cfg.ID})
}

// ListSensors handles GET /api/v1/sensors.
func (h *Handlers) ListSensors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sensors": h.sensors.All()})
}

// SetSensorActive handles POST /api/v1/sensors/:id/active.
func (h *Handlers) SetSensorActive(c *gin.Context) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := h.sensors.SetActive(c.Param("id"), req.Active); err != nil {
		respondNotFound(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "active": req.Active})
}

// LatestReading handles GET /api/v1/readings/:sensorId/latest.
func (h *Handlers) LatestReading(c *gin.Context) {
	reading, ok := h.readings.Latest(c.Param("sensorId"))
	if !ok {
		respondAppError(c, apperrors.WithDetails(apperrors.ErrNotFound, "no readings for sensor"))
		return
	}
	c.JSON(http.StatusOK, reading)
}
