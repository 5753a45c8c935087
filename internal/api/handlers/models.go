package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verdant-ops/facility-backend-go/internal/core/predictive"
)

// RegisterModelRequest is the wire form of a predictive model registration.
type RegisterModelRequest struct {
	Name           string   `json:"name" binding:"required"`
	Kind           string   `json:"kind" binding:"required"`
	InputSensors   []string `json:"input_sensors"`
	TargetVariable string   `json:"target_variable"`
	HorizonMinutes int      `json:"horizon_minutes"`
	Active         *bool    `json:"active"`
}

// RegisterModel handles POST /api/v1/models.
func (h *Handlers) RegisterModel(c *gin.Context) {
	var req RegisterModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	id, err := h.predictive.RegisterModel(predictive.Model{
		Name:           req.Name,
		Kind:           predictive.ModelKind(req.Kind),
		InputSensors:   req.InputSensors,
		TargetVariable: req.TargetVariable,
		Horizon:        time.Duration(req.HorizonMinutes) * time.Minute,
		Active:         active,
	})
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ListModels handles GET /api/v1/models.
func (h *Handlers) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"models":      h.predictive.Models(),
		"queue_depth": h.predictive.QueueDepth(),
	})
}
