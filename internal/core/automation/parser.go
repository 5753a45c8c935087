package automation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verdant-ops/facility-backend-go/internal/core/alerts"
)

// RuleRequest is the wire form of a rule-creation call. Free-form parameter
// maps are decoded into typed actions here, once, so dispatch never touches
// untyped values.
type RuleRequest struct {
	Name            string            `json:"name" binding:"required"`
	Description     string            `json:"description"`
	Enabled         *bool             `json:"enabled"`
	Priority        int               `json:"priority"`
	CooldownSeconds float64           `json:"cooldown_seconds"`
	Trigger         TriggerRequest    `json:"trigger"`
	Condition       *ConditionRequest `json:"condition"`
	Actions         []ActionRequest   `json:"actions"`
	CreatedBy       string            `json:"created_by"`
}

type TriggerRequest struct {
	Kind               string  `json:"kind"`
	SensorID           string  `json:"sensor_id"`
	Value              float64 `json:"value"`
	Operator           string  `json:"operator"`
	MinDurationSeconds float64 `json:"min_duration_seconds"`
}

type ConditionRequest struct {
	Combinator string                 `json:"combinator"`
	Invert     bool                   `json:"invert"`
	Rules      []ConditionRuleRequest `json:"rules"`
}

type ConditionRuleRequest struct {
	SensorID string   `json:"sensor_id"`
	Value    float64  `json:"value"`
	Operator string   `json:"operator"`
	After    string   `json:"after"`
	Before   string   `json:"before"`
	Weekdays []string `json:"weekdays"`
}

type ActionRequest struct {
	Kind                 string         `json:"kind"`
	Zone                 string         `json:"zone"`
	Params               map[string]any `json:"params"`
	RequiresConfirmation bool           `json:"requires_confirmation"`
}

// ParseRule decodes a rule request into a validated Rule.
func ParseRule(req RuleRequest) (*Rule, error) {
	trigger, err := parseTrigger(req.Trigger)
	if err != nil {
		return nil, err
	}

	condition := Condition{}
	if req.Condition != nil {
		condition, err = parseCondition(*req.Condition)
		if err != nil {
			return nil, err
		}
	}

	actions := make([]Action, 0, len(req.Actions))
	for i, ar := range req.Actions {
		act, err := DecodeAction(ar)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, act)
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	rule := &Rule{
		Name:        req.Name,
		Description: req.Description,
		Enabled:     enabled,
		Trigger:     trigger,
		Condition:   condition,
		Actions:     actions,
		Priority:    req.Priority,
		Cooldown:    time.Duration(req.CooldownSeconds * float64(time.Second)),
		CreatedBy:   req.CreatedBy,
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return rule, nil
}

func parseTrigger(req TriggerRequest) (Trigger, error) {
	t := Trigger{
		Kind:        TriggerKind(strings.ToLower(req.Kind)),
		SensorID:    req.SensorID,
		Value:       req.Value,
		MinDuration: time.Duration(req.MinDurationSeconds * float64(time.Second)),
	}
	if req.Operator != "" {
		op, err := ParseOperator(req.Operator)
		if err != nil {
			return Trigger{}, fmt.Errorf("trigger: %w", err)
		}
		t.Operator = op
	}
	return t, t.Validate()
}

func parseCondition(req ConditionRequest) (Condition, error) {
	c := Condition{
		Combinator: Combinator(strings.ToLower(req.Combinator)),
		Invert:     req.Invert,
	}
	for i, rr := range req.Rules {
		op, err := ParseOperator(rr.Operator)
		if err != nil {
			return Condition{}, fmt.Errorf("condition rule %d: %w", i, err)
		}
		weekdays, err := parseWeekdays(rr.Weekdays)
		if err != nil {
			return Condition{}, fmt.Errorf("condition rule %d: %w", i, err)
		}
		c.Rules = append(c.Rules, ConditionRule{
			SensorID: rr.SensorID,
			Value:    rr.Value,
			Operator: op,
			After:    rr.After,
			Before:   rr.Before,
			Weekdays: weekdays,
		})
	}
	return c, c.Validate()
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func parseWeekdays(names []string) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		key := strings.ToLower(n)
		if len(key) > 3 {
			key = key[:3]
		}
		d, ok := weekdayNames[key]
		if !ok {
			return nil, fmt.Errorf("unknown weekday: %s", n)
		}
		out = append(out, d)
	}
	return out, nil
}

// DecodeAction turns one wire action into its typed form. Numeric parameters
// are coerced here; a missing or non-numeric required parameter fails the
// whole rule creation rather than surfacing later at dispatch.
func DecodeAction(req ActionRequest) (Action, error) {
	base := BaseAction{
		ID:                   uuid.New().String(),
		Zone:                 req.Zone,
		RequiresConfirmation: req.RequiresConfirmation,
	}

	switch ActionKind(strings.ToLower(req.Kind)) {
	case ActionSetTemperature:
		target, err := floatParam(req.Params, "target")
		if err != nil {
			return nil, err
		}
		return SetTemperatureAction{BaseAction: base, Target: target}, nil

	case ActionSetHumidity:
		target, err := floatParam(req.Params, "target")
		if err != nil {
			return nil, err
		}
		return SetHumidityAction{BaseAction: base, Target: target}, nil

	case ActionLightOn:
		return TurnOnLightAction{BaseAction: base}, nil

	case ActionLightOff:
		return TurnOffLightAction{BaseAction: base}, nil

	case ActionSetLightIntensity:
		intensity, err := floatParam(req.Params, "intensity")
		if err != nil {
			return nil, err
		}
		return SetLightIntensityAction{BaseAction: base, Intensity: intensity}, nil

	case ActionSendAlert:
		severity := alerts.SeverityWarning
		if raw, ok := req.Params["severity"].(string); ok {
			severity = alerts.ParseSeverity(raw)
		}
		message, _ := req.Params["message"].(string)
		return SendAlertAction{BaseAction: base, Severity: severity, Message: message}, nil

	case ActionEmergencyShutdown:
		reason, _ := req.Params["reason"].(string)
		return EmergencyShutdownAction{BaseAction: base, Reason: reason}, nil

	case ActionLogEvent:
		message, ok := req.Params["message"].(string)
		if !ok || message == "" {
			return nil, fmt.Errorf("log_event requires a message parameter")
		}
		return LogEventAction{BaseAction: base, Message: message}, nil

	default:
		return UnknownAction{BaseAction: base, RawKind: strings.ToLower(req.Kind)}, nil
	}
}

func floatParam(params map[string]any, key string) (float64, error) {
	raw, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("missing %q parameter", key)
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("parameter %q must be numeric", key)
	}
}
