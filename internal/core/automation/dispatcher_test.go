package automation

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-ops/facility-backend-go/internal/core/alerts"
	"github.com/verdant-ops/facility-backend-go/pkg/logger"
)

type stubPublisher struct {
	intents []Intent
	err     error
}

func (p *stubPublisher) PublishIntent(intent Intent) error {
	if p.err != nil {
		return p.err
	}
	p.intents = append(p.intents, intent)
	return nil
}

func newTestDispatcher(t *testing.T, pub IntentPublisher) (*Dispatcher, *alerts.Store, *Log) {
	t.Helper()
	alertStore := alerts.NewStore(24*time.Hour, logger.NewNop())
	autoLog := NewLog(24 * time.Hour)
	return NewDispatcher(alertStore, autoLog, pub, logger.NewNop()), alertStore, autoLog
}

func TestDispatcherFireAndContinue(t *testing.T) {
	now := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)
	pub := &stubPublisher{}
	d, alertStore, autoLog := newTestDispatcher(t, pub)

	rule := &Rule{
		ID:   "r1",
		Name: "mixed actions",
		Actions: []Action{
			SetTemperatureAction{BaseAction: BaseAction{ID: "a1", Zone: "veg"}, Target: math.NaN()},
			SendAlertAction{BaseAction: BaseAction{ID: "a2", Zone: "veg"}, Severity: alerts.SeverityWarning, Message: "heads up"},
			TurnOffLightAction{BaseAction: BaseAction{ID: "a3", Zone: "veg"}},
		},
	}

	results := d.Execute(rule, now)
	require.Len(t, results, 3)

	assert.False(t, results[0].Success)
	assert.Equal(t, "a1", results[0].ActionID)
	assert.True(t, results[1].Success)
	assert.True(t, results[2].Success)

	// The NaN setpoint produced no intent; light_off produced one.
	require.Len(t, pub.intents, 1)
	assert.Equal(t, "light_off", pub.intents[0].Kind)
	assert.Equal(t, "veg", pub.intents[0].Zone)

	// One alert from send_alert.
	all := alertStore.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Automation Alert: mixed actions", all[0].Title)
	assert.Equal(t, "heads up", all[0].Description)
	assert.False(t, all[0].RequiresImmediateAttention)

	// Every action left a log entry, the failure at error level.
	entries := autoLog.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, LogLevelError, entries[0].Level)
	assert.Contains(t, entries[0].Message, "a1")
	assert.Equal(t, LogLevelInfo, entries[1].Level)
	assert.Equal(t, LogLevelInfo, entries[2].Level)
	for _, e := range entries {
		assert.Equal(t, "r1", e.RuleID)
	}
}

func TestDispatcherCriticalAlertAttention(t *testing.T) {
	now := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)
	d, alertStore, _ := newTestDispatcher(t, &stubPublisher{})

	rule := &Rule{
		ID:   "r1",
		Name: "critical",
		Actions: []Action{
			SendAlertAction{BaseAction: BaseAction{ID: "a1"}, Severity: alerts.SeverityCritical},
		},
	}
	results := d.Execute(rule, now)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)

	all := alertStore.All()
	require.Len(t, all, 1)
	assert.True(t, all[0].RequiresImmediateAttention)
	assert.Equal(t, `Rule "critical" fired`, all[0].Description)
}

func TestDispatcherEmergencyShutdown(t *testing.T) {
	now := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)

	t.Run("publishes intent and raises emergency alert", func(t *testing.T) {
		pub := &stubPublisher{}
		d, alertStore, _ := newTestDispatcher(t, pub)
		rule := &Rule{ID: "r1", Name: "panic", Actions: []Action{
			EmergencyShutdownAction{BaseAction: BaseAction{ID: "a1", Zone: "flower"}, Reason: "co2 runaway"},
		}}

		results := d.Execute(rule, now)
		require.Len(t, results, 1)
		assert.True(t, results[0].Success)

		require.Len(t, pub.intents, 1)
		assert.Equal(t, "emergency_shutdown", pub.intents[0].Kind)

		all := alertStore.All()
		require.Len(t, all, 1)
		assert.Equal(t, alerts.SeverityEmergency, all[0].Severity)
		assert.True(t, all[0].RequiresImmediateAttention)
		assert.Equal(t, "co2 runaway", all[0].Description)
	})

	t.Run("alert is raised even when the intent fails", func(t *testing.T) {
		pub := &stubPublisher{err: fmt.Errorf("broker unreachable")}
		d, alertStore, _ := newTestDispatcher(t, pub)
		rule := &Rule{ID: "r1", Name: "panic", Actions: []Action{
			EmergencyShutdownAction{BaseAction: BaseAction{ID: "a1", Zone: "flower"}},
		}}

		results := d.Execute(rule, now)
		require.Len(t, results, 1)
		assert.False(t, results[0].Success)

		all := alertStore.All()
		require.Len(t, all, 1)
		assert.Equal(t, alerts.SeverityEmergency, all[0].Severity)
	})
}

func TestDispatcherUnknownKindIsNoOp(t *testing.T) {
	now := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)
	pub := &stubPublisher{}
	d, alertStore, autoLog := newTestDispatcher(t, pub)

	rule := &Rule{ID: "r1", Name: "imported", Actions: []Action{
		UnknownAction{BaseAction: BaseAction{ID: "a1"}, RawKind: "water_plants"},
	}}

	results := d.Execute(rule, now)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "unsupported action kind ignored", results[0].Detail)
	assert.Empty(t, pub.intents)
	assert.Empty(t, alertStore.All())
	assert.Empty(t, autoLog.Entries())
}

func TestDispatcherIntents(t *testing.T) {
	now := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)
	pub := &stubPublisher{}
	d, _, _ := newTestDispatcher(t, pub)

	rule := &Rule{ID: "r1", Name: "climate", Actions: []Action{
		SetTemperatureAction{BaseAction: BaseAction{ID: "a1", Zone: "veg"}, Target: 23.5},
		SetHumidityAction{BaseAction: BaseAction{ID: "a2", Zone: "veg"}, Target: 60},
		SetLightIntensityAction{BaseAction: BaseAction{ID: "a3", Zone: "veg"}, Intensity: 80},
		TurnOnLightAction{BaseAction: BaseAction{ID: "a4", Zone: "veg"}},
	}}

	results := d.Execute(rule, now)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.True(t, r.Success, r.ActionID)
	}

	require.Len(t, pub.intents, 4)
	assert.Equal(t, "set_temperature", pub.intents[0].Kind)
	assert.Equal(t, 23.5, pub.intents[0].Params["target"])
	assert.Equal(t, "set_humidity", pub.intents[1].Kind)
	assert.Equal(t, "set_light_intensity", pub.intents[2].Kind)
	assert.Equal(t, 80.0, pub.intents[2].Params["intensity"])
	assert.Equal(t, "light_on", pub.intents[3].Kind)
}

func TestDispatcherSetLightIntensityBounds(t *testing.T) {
	now := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)
	pub := &stubPublisher{}
	d, _, _ := newTestDispatcher(t, pub)

	rule := &Rule{ID: "r1", Name: "lights", Actions: []Action{
		SetLightIntensityAction{BaseAction: BaseAction{ID: "a1", Zone: "veg"}, Intensity: 140},
	}}

	results := d.Execute(rule, now)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Empty(t, pub.intents)
}
