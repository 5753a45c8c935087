package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/verdant-ops/facility-backend-go/internal/config"
	"github.com/verdant-ops/facility-backend-go/internal/core/alerts"
	"github.com/verdant-ops/facility-backend-go/internal/core/analytics"
	"github.com/verdant-ops/facility-backend-go/internal/core/automation"
	"github.com/verdant-ops/facility-backend-go/internal/core/devices"
	"github.com/verdant-ops/facility-backend-go/internal/core/predictive"
	"github.com/verdant-ops/facility-backend-go/internal/core/sensors"
	"github.com/verdant-ops/facility-backend-go/internal/websocket"
	apperrors "github.com/verdant-ops/facility-backend-go/pkg/errors"
)

// Handlers bundles the engine services the HTTP surface exposes.
type Handlers struct {
	cfg        *config.Config
	sensors    *sensors.Registry
	readings   *sensors.ReadingStore
	engine     *automation.Engine
	alerts     *alerts.Store
	devices    *devices.Registry
	predictive *predictive.Engine
	reports    *analytics.Generator
	hub        *websocket.Hub
	logger     *logrus.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(
	cfg *config.Config,
	sensorRegistry *sensors.Registry,
	readings *sensors.ReadingStore,
	engine *automation.Engine,
	alertStore *alerts.Store,
	deviceRegistry *devices.Registry,
	predictiveEngine *predictive.Engine,
	reports *analytics.Generator,
	hub *websocket.Hub,
	logger *logrus.Logger,
) *Handlers {
	return &Handlers{
		cfg:        cfg,
		sensors:    sensorRegistry,
		readings:   readings,
		engine:     engine,
		alerts:     alertStore,
		devices:    deviceRegistry,
		predictive: predictiveEngine,
		reports:    reports,
		hub:        hub,
		logger:     logger,
	}
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// WebSocketHandler upgrades the connection into a notification client.
func (h *Handlers) WebSocketHandler(c *gin.Context) {
	websocket.HandleWebSocket(h.hub, c.Writer, c.Request)
}

func respondAppError(c *gin.Context, err error) {
	status := apperrors.GetStatusCode(err)
	if appErr, ok := err.(*apperrors.AppError); ok {
		c.JSON(status, gin.H{"error": appErr})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func respondBadRequest(c *gin.Context, err error) {
	respondAppError(c, apperrors.WithDetails(apperrors.ErrBadRequest, err.Error()))
}

func respondConflict(c *gin.Context, err error) {
	respondAppError(c, apperrors.WithDetails(apperrors.ErrConflict, err.Error()))
}

func respondNotFound(c *gin.Context, err error) {
	respondAppError(c, apperrors.WithDetails(apperrors.ErrNotFound, err.Error()))
}
