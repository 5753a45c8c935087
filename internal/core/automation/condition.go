package automation

import (
	"fmt"
	"time"

	"github.com/verdant-ops/facility-backend-go/internal/core/sensors"
)

// Combinator joins the results of a condition's sub-rules.
type Combinator string

const (
	CombinatorAnd Combinator = "and"
	CombinatorOr  Combinator = "or"
	CombinatorXor Combinator = "xor"
	CombinatorNot Combinator = "not"
)

// ConditionRule is one boolean sub-check: a sensor comparison optionally
// gated by a time-of-day window and an active-weekday set.
type ConditionRule struct {
	SensorID string   `json:"sensor_id"`
	Value    float64  `json:"value"`
	Operator Operator `json:"operator"`

	// After/Before bound the time-of-day window in "15:04" form. Both empty
	// means the window check is disabled.
	After  string `json:"after,omitempty"`
	Before string `json:"before,omitempty"`

	// Weekdays restricts the rule to the listed days. Empty means every day.
	Weekdays []time.Weekday `json:"weekdays,omitempty"`
}

// Condition is the secondary gate on a rule: an ordered list of sub-rules
// joined by a combinator, with an optional final inversion. An empty rule
// list is vacuously true.
type Condition struct {
	Rules      []ConditionRule `json:"rules,omitempty"`
	Combinator Combinator      `json:"combinator,omitempty"`
	Invert     bool            `json:"invert,omitempty"`
}

// Validate checks condition invariants at rule-creation time.
func (c Condition) Validate() error {
	if len(c.Rules) == 0 {
		return nil
	}
	switch c.Combinator {
	case CombinatorAnd, CombinatorOr, CombinatorXor, CombinatorNot:
	default:
		return fmt.Errorf("unknown condition combinator: %s", c.Combinator)
	}
	for i, r := range c.Rules {
		if r.SensorID == "" {
			return fmt.Errorf("condition rule %d: sensor id is required", i)
		}
		if r.Operator == "" {
			return fmt.Errorf("condition rule %d: operator is required", i)
		}
	}
	return nil
}

// Evaluate computes the condition against the latest readings. A sub-rule
// whose sensor has no reading, or whose time/weekday gate rejects now, is
// false — data absence is not an error.
func (c Condition) Evaluate(readings *sensors.ReadingStore, now time.Time) bool {
	result := true
	if len(c.Rules) > 0 {
		results := make([]bool, len(c.Rules))
		for i, r := range c.Rules {
			results[i] = evalConditionRule(readings, r, now)
		}
		result = combine(c.Combinator, results)
	}
	if c.Invert {
		result = !result
	}
	return result
}

func evalConditionRule(readings *sensors.ReadingStore, r ConditionRule, now time.Time) bool {
	if !inTimeWindow(r.After, r.Before, now) {
		return false
	}
	if len(r.Weekdays) > 0 && !containsWeekday(r.Weekdays, now.Weekday()) {
		return false
	}
	latest, ok := readings.Latest(r.SensorID)
	if !ok {
		return false
	}
	return Compare(latest.Value, r.Operator, r.Value)
}

// combine folds sub-rule results per the combinator. Not negates only the
// first result; Xor requires exactly one true.
func combine(op Combinator, results []bool) bool {
	switch op {
	case CombinatorAnd:
		for _, r := range results {
			if !r {
				return false
			}
		}
		return true
	case CombinatorOr:
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	case CombinatorXor:
		trues := 0
		for _, r := range results {
			if r {
				trues++
			}
		}
		return trues == 1
	case CombinatorNot:
		return !results[0]
	default:
		return false
	}
}

// inTimeWindow checks the HH:MM window. Lexicographic comparison works for
// the fixed "15:04" layout; a window spanning midnight wraps.
func inTimeWindow(after, before string, now time.Time) bool {
	if after == "" && before == "" {
		return true
	}
	current := now.Format("15:04")
	if after != "" && before != "" && after > before {
		return current >= after || current <= before
	}
	if after != "" && current < after {
		return false
	}
	if before != "" && current > before {
		return false
	}
	return true
}

func containsWeekday(days []time.Weekday, d time.Weekday) bool {
	for _, day := range days {
		if day == d {
			return true
		}
	}
	return false
}
