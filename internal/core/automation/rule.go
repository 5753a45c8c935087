package automation

import (
	"fmt"
	"time"
)

// Rule is one automation rule: a trigger, an optional condition, and an
// ordered action list, gated by a cooldown between firings.
type Rule struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Enabled     bool          `json:"enabled"`
	Trigger     Trigger       `json:"trigger"`
	Condition   Condition     `json:"condition"`
	Actions     []Action      `json:"actions"`
	Priority    int           `json:"priority"`
	Cooldown    time.Duration `json:"cooldown"`

	// LastTriggered and TriggerCount are mutated only by the engine during
	// execution.
	LastTriggered time.Time `json:"last_triggered"`
	TriggerCount  int64     `json:"trigger_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by,omitempty"`
}

// Validate performs rule-creation validation.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if err := r.Trigger.Validate(); err != nil {
		return fmt.Errorf("trigger: %w", err)
	}
	if err := r.Condition.Validate(); err != nil {
		return fmt.Errorf("condition: %w", err)
	}
	if len(r.Actions) == 0 {
		return fmt.Errorf("at least one action is required")
	}
	for i, a := range r.Actions {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	if r.Cooldown < 0 {
		return fmt.Errorf("cooldown must not be negative")
	}
	return nil
}

// InCooldown reports whether the cooldown since the last firing has not yet
// elapsed. A rule that has never fired is not in cooldown.
func (r *Rule) InCooldown(now time.Time) bool {
	if r.LastTriggered.IsZero() {
		return false
	}
	return now.Sub(r.LastTriggered) < r.Cooldown
}
