package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verdant-ops/facility-backend-go/internal/core/devices"
)

// ConnectDeviceRequest is the wire form of a device connection.
type ConnectDeviceRequest struct {
	ID        string `json:"id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Type      string `json:"type" binding:"required"`
	Battery   bool   `json:"battery"`
	Telemetry bool   `json:"telemetry"`
}

// ConnectDevice handles POST /api/v1/devices.
func (h *Handlers) ConnectDevice(c *gin.Context) {
	var req ConnectDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	d := devices.Device{
		ID:   req.ID,
		Name: req.Name,
		Type: devices.Type(req.Type),
		Caps: devices.Capabilities{
			Battery:   req.Battery,
			Telemetry: req.Telemetry,
		},
	}

	connected, err := h.devices.Connect(d, time.Now())
	if err != nil {
		respondConflict(c, err)
		return
	}
	c.JSON(http.StatusCreated, connected)
}

// ListDevices handles GET /api/v1/devices.
func (h *Handlers) ListDevices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"devices": h.devices.All(),
		"online":  h.devices.OnlineCount(),
	})
}

// DisconnectDevice handles DELETE /api/v1/devices/:id.
func (h *Handlers) DisconnectDevice(c *gin.Context) {
	h.devices.Disconnect(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// DeviceHeartbeat handles POST /api/v1/devices/:id/heartbeat.
func (h *Handlers) DeviceHeartbeat(c *gin.Context) {
	var req struct {
		Battery float64 `json:"battery"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := h.devices.Heartbeat(c.Param("id"), req.Battery, time.Now()); err != nil {
		respondNotFound(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
}
