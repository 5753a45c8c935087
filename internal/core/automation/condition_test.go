package automation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/verdant-ops/facility-backend-go/internal/core/sensors"
)

// 2026-08-25 is a Tuesday.
var conditionNow = time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC)

func conditionStore(t *testing.T) *sensors.ReadingStore {
	t.Helper()
	store := sensors.NewReadingStore(24 * time.Hour)
	store.Append(sensors.Reading{SensorID: "temp-1", Timestamp: conditionNow.Add(-time.Minute), Value: 30, Valid: true})
	store.Append(sensors.Reading{SensorID: "hum-1", Timestamp: conditionNow.Add(-time.Minute), Value: 40, Valid: true})
	return store
}

func TestConditionEvaluate(t *testing.T) {
	store := conditionStore(t)

	tempHigh := ConditionRule{SensorID: "temp-1", Value: 28, Operator: OpGreaterThan}  // true
	humLow := ConditionRule{SensorID: "hum-1", Value: 45, Operator: OpLessThan}        // true
	tempVeryHigh := ConditionRule{SensorID: "temp-1", Value: 40, Operator: OpGreaterThan} // false
	noData := ConditionRule{SensorID: "ghost", Value: 0, Operator: OpGreaterThan}      // false

	tests := []struct {
		name      string
		condition Condition
		expected  bool
	}{
		{"empty rule list is vacuously true", Condition{}, true},
		{"empty rule list inverted", Condition{Invert: true}, false},
		{"and all true", Condition{Rules: []ConditionRule{tempHigh, humLow}, Combinator: CombinatorAnd}, true},
		{"and one false", Condition{Rules: []ConditionRule{tempHigh, tempVeryHigh}, Combinator: CombinatorAnd}, false},
		{"or one true", Condition{Rules: []ConditionRule{tempVeryHigh, humLow}, Combinator: CombinatorOr}, true},
		{"or none true", Condition{Rules: []ConditionRule{tempVeryHigh, noData}, Combinator: CombinatorOr}, false},
		{"xor exactly one true", Condition{Rules: []ConditionRule{tempHigh, tempVeryHigh}, Combinator: CombinatorXor}, true},
		{"xor both true", Condition{Rules: []ConditionRule{tempHigh, humLow}, Combinator: CombinatorXor}, false},
		{"not negates first", Condition{Rules: []ConditionRule{tempVeryHigh}, Combinator: CombinatorNot}, true},
		{"invert flips the combined result", Condition{Rules: []ConditionRule{tempHigh, humLow}, Combinator: CombinatorAnd, Invert: true}, false},
		{"missing data is false not an error", Condition{Rules: []ConditionRule{noData}, Combinator: CombinatorAnd}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.condition.Evaluate(store, conditionNow))
		})
	}
}

func TestConditionTimeWindow(t *testing.T) {
	store := conditionStore(t)
	base := ConditionRule{SensorID: "temp-1", Value: 28, Operator: OpGreaterThan}

	tests := []struct {
		name     string
		after    string
		before   string
		expected bool
	}{
		{"no window always passes", "", "", true},
		{"inside window", "09:00", "18:00", true},
		{"before window opens", "15:00", "18:00", false},
		{"after window closes", "09:00", "12:00", false},
		{"midnight wrap inside", "22:00", "16:00", true},
		{"midnight wrap outside", "22:00", "06:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			r.After = tt.after
			r.Before = tt.before
			c := Condition{Rules: []ConditionRule{r}, Combinator: CombinatorAnd}
			assert.Equal(t, tt.expected, c.Evaluate(store, conditionNow))
		})
	}
}

func TestConditionWeekdays(t *testing.T) {
	store := conditionStore(t)
	base := ConditionRule{SensorID: "temp-1", Value: 28, Operator: OpGreaterThan}

	t.Run("matching weekday passes", func(t *testing.T) {
		r := base
		r.Weekdays = []time.Weekday{time.Tuesday}
		c := Condition{Rules: []ConditionRule{r}, Combinator: CombinatorAnd}
		assert.True(t, c.Evaluate(store, conditionNow))
	})

	t.Run("non-matching weekday rejects", func(t *testing.T) {
		r := base
		r.Weekdays = []time.Weekday{time.Saturday, time.Sunday}
		c := Condition{Rules: []ConditionRule{r}, Combinator: CombinatorAnd}
		assert.False(t, c.Evaluate(store, conditionNow))
	})
}

func TestConditionValidate(t *testing.T) {
	tests := []struct {
		name      string
		condition Condition
		wantErr   bool
	}{
		{"empty is valid", Condition{}, false},
		{"valid and", Condition{Rules: []ConditionRule{{SensorID: "s", Operator: OpGreaterThan}}, Combinator: CombinatorAnd}, false},
		{"unknown combinator", Condition{Rules: []ConditionRule{{SensorID: "s", Operator: OpGreaterThan}}, Combinator: "nand"}, true},
		{"missing sensor id", Condition{Rules: []ConditionRule{{Operator: OpGreaterThan}}, Combinator: CombinatorAnd}, true},
		{"missing operator", Condition{Rules: []ConditionRule{{SensorID: "s"}}, Combinator: CombinatorAnd}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.condition.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
