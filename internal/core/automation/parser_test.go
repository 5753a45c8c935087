package automation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-ops/facility-backend-go/internal/core/alerts"
)

func TestParseRule(t *testing.T) {
	req := RuleRequest{
		Name:            "hot zone",
		Description:     "cool the veg room",
		Priority:        5,
		CooldownSeconds: 120,
		Trigger: TriggerRequest{
			Kind:     "threshold_exceeded",
			SensorID: "temp-1",
			Value:    28,
			Operator: "greater_than",
		},
		Condition: &ConditionRequest{
			Combinator: "AND",
			Rules: []ConditionRuleRequest{
				{SensorID: "hum-1", Value: 60, Operator: "lt", After: "08:00", Before: "20:00", Weekdays: []string{"Mon", "tuesday"}},
			},
		},
		Actions: []ActionRequest{
			{Kind: "set_temperature", Zone: "veg", Params: map[string]any{"target": 23.0}},
			{Kind: "send_alert", Zone: "veg", Params: map[string]any{"severity": "critical", "message": "too hot"}},
		},
	}

	rule, err := ParseRule(req)
	require.NoError(t, err)

	assert.Equal(t, "hot zone", rule.Name)
	assert.True(t, rule.Enabled)
	assert.Equal(t, 2*time.Minute, rule.Cooldown)
	assert.Equal(t, TriggerThresholdExceeded, rule.Trigger.Kind)
	assert.Equal(t, OpGreaterThan, rule.Trigger.Operator)

	require.Len(t, rule.Condition.Rules, 1)
	assert.Equal(t, CombinatorAnd, rule.Condition.Combinator)
	assert.Equal(t, []time.Weekday{time.Monday, time.Tuesday}, rule.Condition.Rules[0].Weekdays)

	require.Len(t, rule.Actions, 2)
	temp, ok := rule.Actions[0].(SetTemperatureAction)
	require.True(t, ok)
	assert.Equal(t, 23.0, temp.Target)
	assert.NotEmpty(t, temp.ID)

	alert, ok := rule.Actions[1].(SendAlertAction)
	require.True(t, ok)
	assert.Equal(t, alerts.SeverityCritical, alert.Severity)
	assert.Equal(t, "too hot", alert.Message)
}

func TestParseRuleErrors(t *testing.T) {
	valid := func() RuleRequest {
		return RuleRequest{
			Name:    "r",
			Trigger: TriggerRequest{Kind: "threshold_exceeded", SensorID: "s", Operator: "gt"},
			Actions: []ActionRequest{{Kind: "light_on", Zone: "veg"}},
		}
	}

	t.Run("bad trigger operator", func(t *testing.T) {
		req := valid()
		req.Trigger.Operator = "sideways"
		_, err := ParseRule(req)
		assert.Error(t, err)
	})

	t.Run("bad weekday", func(t *testing.T) {
		req := valid()
		req.Condition = &ConditionRequest{
			Combinator: "and",
			Rules:      []ConditionRuleRequest{{SensorID: "s", Operator: "gt", Weekdays: []string{"someday"}}},
		}
		_, err := ParseRule(req)
		assert.Error(t, err)
	})

	t.Run("no actions", func(t *testing.T) {
		req := valid()
		req.Actions = nil
		_, err := ParseRule(req)
		assert.Error(t, err)
	})

	t.Run("explicit disabled", func(t *testing.T) {
		req := valid()
		disabled := false
		req.Enabled = &disabled
		rule, err := ParseRule(req)
		require.NoError(t, err)
		assert.False(t, rule.Enabled)
	})
}

func TestDecodeAction(t *testing.T) {
	tests := []struct {
		name    string
		req     ActionRequest
		check   func(t *testing.T, act Action)
		wantErr bool
	}{
		{
			name: "set_temperature coerces int",
			req:  ActionRequest{Kind: "set_temperature", Zone: "veg", Params: map[string]any{"target": 22}},
			check: func(t *testing.T, act Action) {
				a := act.(SetTemperatureAction)
				assert.Equal(t, 22.0, a.Target)
			},
		},
		{
			name:    "set_temperature missing target",
			req:     ActionRequest{Kind: "set_temperature", Zone: "veg", Params: map[string]any{}},
			wantErr: true,
		},
		{
			name:    "set_light_intensity non-numeric",
			req:     ActionRequest{Kind: "set_light_intensity", Zone: "veg", Params: map[string]any{"intensity": "high"}},
			wantErr: true,
		},
		{
			name: "send_alert defaults to warning",
			req:  ActionRequest{Kind: "send_alert", Params: map[string]any{"severity": "catastrophic"}},
			check: func(t *testing.T, act Action) {
				a := act.(SendAlertAction)
				assert.Equal(t, alerts.SeverityWarning, a.Severity)
			},
		},
		{
			name:    "log_event requires message",
			req:     ActionRequest{Kind: "log_event", Params: map[string]any{}},
			wantErr: true,
		},
		{
			name: "unknown kind preserved",
			req:  ActionRequest{Kind: "Water_Plants", Zone: "veg"},
			check: func(t *testing.T, act Action) {
				a := act.(UnknownAction)
				assert.Equal(t, "water_plants", a.RawKind)
				assert.Equal(t, ActionKind("water_plants"), a.Kind())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act, err := DecodeAction(tt.req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, act.GetID())
			tt.check(t, act)
		})
	}
}
