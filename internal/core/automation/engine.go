package automation

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/verdant-ops/facility-backend-go/internal/core/sensors"
)

// FiredRule describes one rule execution for observers.
type FiredRule struct {
	Rule    Rule           `json:"rule"`
	Results []ActionResult `json:"results"`
	At      time.Time      `json:"at"`
}

// Engine owns the automation rules and evaluates them each tick. Rules move
// Idle → Eligible → Executing → Idle inside a single EvaluateTick call;
// disabled rules never leave Idle.
type Engine struct {
	mu         sync.RWMutex
	rules      map[string]*Rule
	readings   *sensors.ReadingStore
	dispatcher *Dispatcher
	log        *Log
	logger     *logrus.Logger
	onFired    func(FiredRule)
}

// NewEngine creates a rule engine bound to the reading store it evaluates
// triggers against.
func NewEngine(readings *sensors.ReadingStore, dispatcher *Dispatcher, autoLog *Log, logger *logrus.Logger) *Engine {
	return &Engine{
		rules:      make(map[string]*Rule),
		readings:   readings,
		dispatcher: dispatcher,
		log:        autoLog,
		logger:     logger,
	}
}

// OnFired registers a single observer invoked synchronously after each rule
// execution.
func (e *Engine) OnFired(fn func(FiredRule)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onFired = fn
}

// AddRule validates and stores a rule, generating an id when absent, and
// returns the rule id.
func (e *Engine) AddRule(r *Rule) (string, error) {
	if r == nil {
		return "", fmt.Errorf("rule cannot be nil")
	}
	if err := r.Validate(); err != nil {
		return "", fmt.Errorf("rule validation failed: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if _, exists := e.rules[r.ID]; exists {
		return "", fmt.Errorf("rule %s already exists", r.ID)
	}
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	e.rules[r.ID] = r

	e.logger.WithFields(logrus.Fields{
		"rule_id":   r.ID,
		"rule_name": r.Name,
	}).Info("Automation rule added")

	return r.ID, nil
}

// GetRule returns a copy of a rule.
func (e *Engine) GetRule(id string) (Rule, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.rules[id]
	if !ok {
		return Rule{}, false
	}
	return *r, true
}

// Rules returns copies of every rule, by descending priority then name.
func (e *Engine) Rules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sortedLocked()
}

func (e *Engine) sortedLocked() []Rule {
	out := make([]Rule, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// SetEnabled enables or disables a rule.
func (e *Engine) SetEnabled(id string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.rules[id]
	if !ok {
		return fmt.Errorf("rule %s not found", id)
	}
	r.Enabled = enabled
	r.UpdatedAt = time.Now()
	return nil
}

// RemoveRule deletes a rule. Rules are never removed automatically.
func (e *Engine) RemoveRule(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.rules[id]; !ok {
		return fmt.Errorf("rule %s not found", id)
	}
	delete(e.rules, id)
	return nil
}

// EvaluateTick evaluates every enabled rule against the shared clock and
// executes those whose trigger and condition hold outside their cooldown.
// Returns the executions performed this tick.
func (e *Engine) EvaluateTick(now time.Time) []FiredRule {
	e.mu.Lock()
	ordered := e.sortedLocked()
	eligible := make([]*Rule, 0)
	for _, snapshot := range ordered {
		r := e.rules[snapshot.ID]
		if !r.Enabled || r.InCooldown(now) {
			continue
		}
		if !EvaluateTrigger(e.readings, r.Trigger, now) {
			continue
		}
		if len(r.Condition.Rules) > 0 && !r.Condition.Evaluate(e.readings, now) {
			continue
		}
		// Eligible: stamp inside the lock so a re-entrant evaluation in the
		// same tick cannot double-fire.
		r.LastTriggered = now
		r.TriggerCount++
		eligible = append(eligible, r)
	}
	onFired := e.onFired
	e.mu.Unlock()

	fired := make([]FiredRule, 0, len(eligible))
	for _, r := range eligible {
		results := e.dispatcher.Execute(r, now)
		failures := 0
		for _, res := range results {
			if !res.Success {
				failures++
			}
		}

		e.log.Append(LogEntry{
			Timestamp: now,
			Level:     LogLevelInfo,
			Component: "engine",
			Message:   fmt.Sprintf("rule %q fired: %d actions, %d failed", r.Name, len(results), failures),
			RuleID:    r.ID,
		})
		e.logger.WithFields(logrus.Fields{
			"rule_id":   r.ID,
			"rule_name": r.Name,
			"actions":   len(results),
			"failed":    failures,
		}).Info("Automation rule fired")

		f := FiredRule{Rule: *r, Results: results, At: now}
		fired = append(fired, f)
		if onFired != nil {
			onFired(f)
		}
	}
	return fired
}

// Clear drops every rule. Part of system shutdown.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = make(map[string]*Rule)
}
