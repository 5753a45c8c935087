package automation

import (
	"fmt"
	"math"
	"strings"
)

// Operator is a comparison between a reading value and a configured value.
type Operator string

const (
	OpGreaterThan    Operator = "gt"
	OpLessThan       Operator = "lt"
	OpEquals         Operator = "eq"
	OpGreaterOrEqual Operator = "gte"
	OpLessOrEqual    Operator = "lte"
	OpNotEquals      Operator = "neq"
)

// floatEqualityEpsilon bounds the approximate equality used by eq/neq.
// Sensor values are synthesized floats; exact comparison would never match.
const floatEqualityEpsilon = 1e-6

// Compare applies the operator between a reading value and a target.
func Compare(value float64, op Operator, target float64) bool {
	switch op {
	case OpGreaterThan:
		return value > target
	case OpLessThan:
		return value < target
	case OpEquals:
		return math.Abs(value-target) < floatEqualityEpsilon
	case OpGreaterOrEqual:
		return value >= target
	case OpLessOrEqual:
		return value <= target
	case OpNotEquals:
		return math.Abs(value-target) >= floatEqualityEpsilon
	default:
		return false
	}
}

// ParseOperator accepts both the short form ("gt") and the spelled-out form
// ("greater_than") used by older rule definitions.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(s) {
	case "gt", "greater_than", ">":
		return OpGreaterThan, nil
	case "lt", "less_than", "<":
		return OpLessThan, nil
	case "eq", "equals", "==":
		return OpEquals, nil
	case "gte", "greater_or_equal", ">=":
		return OpGreaterOrEqual, nil
	case "lte", "less_or_equal", "<=":
		return OpLessOrEqual, nil
	case "neq", "not_equals", "!=":
		return OpNotEquals, nil
	default:
		return "", fmt.Errorf("unknown comparison operator: %s", s)
	}
}
