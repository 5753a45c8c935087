// Package api wires the HTTP surface: middleware, REST routes, websocket
// upgrade, and the Prometheus scrape endpoint.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/verdant-ops/facility-backend-go/internal/api/handlers"
	"github.com/verdant-ops/facility-backend-go/internal/api/middleware"
	"github.com/verdant-ops/facility-backend-go/internal/config"
	"github.com/verdant-ops/facility-backend-go/internal/metrics"
)

// NewRouter builds the gin engine with all routes registered.
func NewRouter(cfg *config.Config, h *handlers.Handlers, m *metrics.Metrics, logger *logrus.Logger) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.CORSMiddleware())

	r.GET("/health", h.Health)
	r.GET("/ws", h.WebSocketHandler)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/sensors", h.RegisterSensor)
		v1.GET("/sensors", h.ListSensors)
		v1.POST("/sensors/:id/active", h.SetSensorActive)
		v1.GET("/readings/:sensorId/latest", h.LatestReading)

		v1.POST("/rules", h.CreateRule)
		v1.GET("/rules", h.ListRules)
		v1.POST("/rules/:id/enable", h.EnableRule)
		v1.POST("/rules/:id/disable", h.DisableRule)
		v1.DELETE("/rules/:id", h.DeleteRule)

		v1.POST("/devices", h.ConnectDevice)
		v1.GET("/devices", h.ListDevices)
		v1.DELETE("/devices/:id", h.DisconnectDevice)
		v1.POST("/devices/:id/heartbeat", h.DeviceHeartbeat)

		v1.GET("/alerts", h.ListAlerts)
		v1.POST("/alerts/:id/resolve", h.ResolveAlert)

		v1.POST("/models", h.RegisterModel)
		v1.GET("/models", h.ListModels)

		v1.GET("/reports/automation", h.AutomationReport)
	}

	return r
}
