package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/verdant-ops/facility-backend-go/internal/core/automation"
)

// CreateRule handles POST /api/v1/rules. Trigger, condition, and action
// parameters are decoded into typed structures here, at creation time.
func (h *Handlers) CreateRule(c *gin.Context) {
	var req automation.RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	rule, err := automation.ParseRule(req)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	id, err := h.engine.AddRule(rule)
	if err != nil {
		respondConflict(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ListRules handles GET /api/v1/rules.
func (h *Handlers) ListRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rules": h.engine.Rules()})
}

// EnableRule handles POST /api/v1/rules/:id/enable.
func (h *Handlers) EnableRule(c *gin.Context) {
	h.setRuleEnabled(c, true)
}

// DisableRule handles POST /api/v1/rules/:id/disable.
func (h *Handlers) DisableRule(c *gin.Context) {
	h.setRuleEnabled(c, false)
}

func (h *Handlers) setRuleEnabled(c *gin.Context, enabled bool) {
	if err := h.engine.SetEnabled(c.Param("id"), enabled); err != nil {
		respondNotFound(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "enabled": enabled})
}

// DeleteRule handles DELETE /api/v1/rules/:id.
func (h *Handlers) DeleteRule(c *gin.Context) {
	if err := h.engine.RemoveRule(c.Param("id")); err != nil {
		respondNotFound(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
