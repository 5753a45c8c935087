package automation

import (
	"fmt"
	"time"

	"github.com/verdant-ops/facility-backend-go/internal/core/sensors"
)

// TriggerKind identifies how a rule becomes eligible to fire.
type TriggerKind string

const (
	TriggerThresholdExceeded TriggerKind = "threshold_exceeded"
	TriggerThresholdBelow    TriggerKind = "threshold_below"
	TriggerTimeBased         TriggerKind = "time_based"
)

// Trigger is the primary firing condition of a rule, evaluated against the
// latest reading of its source sensor or against wall-clock time.
type Trigger struct {
	Kind     TriggerKind `json:"kind"`
	SensorID string      `json:"sensor_id,omitempty"`
	Value    float64     `json:"value"`
	Operator Operator    `json:"operator,omitempty"`

	// MinDuration, when positive, requires the comparison to hold for every
	// reading in the trailing window of that length (sustained trigger).
	MinDuration time.Duration `json:"min_duration,omitempty"`
}

// Validate checks trigger invariants at rule-creation time.
func (t Trigger) Validate() error {
	switch t.Kind {
	case TriggerThresholdExceeded:
		if t.SensorID == "" {
			return fmt.Errorf("threshold trigger requires a source sensor")
		}
		if t.Operator == "" {
			return fmt.Errorf("threshold_exceeded trigger requires an operator")
		}
	case TriggerThresholdBelow:
		if t.SensorID == "" {
			return fmt.Errorf("threshold trigger requires a source sensor")
		}
	case TriggerTimeBased:
		if t.Value < 0 || t.Value >= 24 {
			return fmt.Errorf("time trigger value must be an hour of day (0-23)")
		}
	default:
		return fmt.Errorf("unknown trigger kind: %s", t.Kind)
	}
	return nil
}

// triggerEvaluator evaluates one trigger kind. The table keeps the trigger
// vocabulary closed: adding a kind means adding exactly one entry here.
type triggerEvaluator func(readings *sensors.ReadingStore, t Trigger, now time.Time) bool

var triggerEvaluators = map[TriggerKind]triggerEvaluator{
	TriggerThresholdExceeded: evalThresholdExceeded,
	TriggerThresholdBelow:    evalThresholdBelow,
	TriggerTimeBased:         evalTimeBased,
}

// EvaluateTrigger reports whether the trigger is satisfied right now.
// A trigger whose source sensor has no readings never fires.
func EvaluateTrigger(readings *sensors.ReadingStore, t Trigger, now time.Time) bool {
	eval, ok := triggerEvaluators[t.Kind]
	if !ok {
		return false
	}
	return eval(readings, t, now)
}

func evalThresholdExceeded(readings *sensors.ReadingStore, t Trigger, now time.Time) bool {
	return evalThreshold(readings, t, now, t.Operator)
}

// evalThresholdBelow ignores the configured operator: threshold_below is
// always a strict less-than.
func evalThresholdBelow(readings *sensors.ReadingStore, t Trigger, now time.Time) bool {
	return evalThreshold(readings, t, now, OpLessThan)
}

func evalThreshold(readings *sensors.ReadingStore, t Trigger, now time.Time, op Operator) bool {
	if t.MinDuration > 0 {
		window := readings.Window(t.SensorID, now.Add(-t.MinDuration))
		if len(window) == 0 {
			return false
		}
		for _, r := range window {
			if !Compare(r.Value, op, t.Value) {
				return false
			}
		}
		return true
	}

	latest, ok := readings.Latest(t.SensorID)
	if !ok {
		return false
	}
	return Compare(latest.Value, op, t.Value)
}

// evalTimeBased fires when the current hour of day equals the truncated
// trigger value. The source sensor, if any, is ignored.
func evalTimeBased(_ *sensors.ReadingStore, t Trigger, now time.Time) bool {
	return now.Hour() == int(t.Value)
}
