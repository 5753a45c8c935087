package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-ops/facility-backend-go/internal/core/alerts"
	"github.com/verdant-ops/facility-backend-go/internal/core/automation"
	"github.com/verdant-ops/facility-backend-go/internal/core/sensors"
	"github.com/verdant-ops/facility-backend-go/pkg/logger"
)

type fixture struct {
	readings   *sensors.ReadingStore
	autoLog    *automation.Log
	alertStore *alerts.Store
	engine     *automation.Engine
	generator  *Generator
}

type nopPublisher struct{}

func (nopPublisher) PublishIntent(automation.Intent) error { return nil }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	readings := sensors.NewReadingStore(24 * time.Hour)
	autoLog := automation.NewLog(24 * time.Hour)
	alertStore := alerts.NewStore(24*time.Hour, logger.NewNop())
	dispatcher := automation.NewDispatcher(alertStore, autoLog, nopPublisher{}, logger.NewNop())
	engine := automation.NewEngine(readings, dispatcher, autoLog, logger.NewNop())
	return &fixture{
		readings:   readings,
		autoLog:    autoLog,
		alertStore: alertStore,
		engine:     engine,
		generator:  NewGenerator(readings, autoLog, alertStore, engine, 10),
	}
}

func TestGenerateCounts(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)

	f.readings.Append(sensors.Reading{SensorID: "s1", Timestamp: now.Add(-30 * time.Minute), Confidence: 0.9})
	f.readings.Append(sensors.Reading{SensorID: "s1", Timestamp: now.Add(-2 * time.Hour), Confidence: 0.9})
	f.autoLog.Append(automation.LogEntry{Timestamp: now.Add(-30 * time.Minute), Level: automation.LogLevelInfo})
	f.alertStore.Raise(alerts.Alert{Timestamp: now.Add(-30 * time.Minute)})
	f.alertStore.Raise(alerts.Alert{Timestamp: now.Add(-3 * time.Hour)})

	r := f.generator.Generate(time.Hour, now)
	assert.Equal(t, time.Hour, r.Period)
	assert.Equal(t, now, r.GeneratedAt)
	assert.Equal(t, 1, r.ReadingCount)
	assert.Equal(t, 1, r.LogEntryCount)
	assert.Equal(t, 1, r.AlertCount)
	assert.Equal(t, 2, r.ActiveAlertCount)
}

func TestGenerateUptime(t *testing.T) {
	now := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)

	t.Run("no entries means full uptime", func(t *testing.T) {
		f := newFixture(t)
		r := f.generator.Generate(time.Hour, now)
		assert.Equal(t, 100.0, r.UptimePercent)
	})

	t.Run("error share lowers uptime", func(t *testing.T) {
		f := newFixture(t)
		for i := 0; i < 3; i++ {
			f.autoLog.Append(automation.LogEntry{Timestamp: now.Add(-time.Minute), Level: automation.LogLevelInfo})
		}
		f.autoLog.Append(automation.LogEntry{Timestamp: now.Add(-time.Minute), Level: automation.LogLevelError})

		r := f.generator.Generate(time.Hour, now)
		assert.Equal(t, 75.0, r.UptimePercent)
	})
}

func TestGenerateEnergySavings(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)

	entry := func(component, message string, level automation.LogLevel) {
		f.autoLog.Append(automation.LogEntry{
			Timestamp: now.Add(-time.Minute), Level: level, Component: component, Message: message,
		})
	}

	entry("dispatcher", "action a1 (light_off) executed: turned off lights for zone veg", automation.LogLevelInfo)
	entry("dispatcher", "action a2 (set_light_intensity) executed: set light intensity to 40% for zone veg", automation.LogLevelInfo)
	// Counts neither: wrong component, wrong level, unrelated action.
	entry("engine", "rule fired with light_off", automation.LogLevelInfo)
	entry("dispatcher", "action a3 (light_off) failed: broker down", automation.LogLevelError)
	entry("dispatcher", "action a4 (set_temperature) executed", automation.LogLevelInfo)

	r := f.generator.Generate(time.Hour, now)
	assert.InDelta(t, 0.70, r.EnergySavingsKWh, 0.001)
}

func TestGenerateAlertBudget(t *testing.T) {
	now := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)

	t.Run("utilization against the hourly budget", func(t *testing.T) {
		f := newFixture(t)
		for i := 0; i < 5; i++ {
			f.alertStore.Raise(alerts.Alert{Timestamp: now.Add(-time.Minute)})
		}
		// Budget is 10/hour over 1 hour.
		r := f.generator.Generate(time.Hour, now)
		assert.InDelta(t, 0.5, r.AlertBudgetUtilization, 0.001)
	})

	t.Run("no budget configured", func(t *testing.T) {
		f := newFixture(t)
		f.generator = NewGenerator(f.readings, f.autoLog, f.alertStore, f.engine, 0)
		f.alertStore.Raise(alerts.Alert{Timestamp: now.Add(-time.Minute)})
		r := f.generator.Generate(time.Hour, now)
		assert.Equal(t, 0.0, r.AlertBudgetUtilization)
	})
}

func TestGenerateTopSensors(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		id := string(rune('a' + i))
		f.readings.Append(sensors.Reading{SensorID: id, Timestamp: now.Add(-time.Minute), Confidence: 0.5 + float64(i)*0.05})
	}

	r := f.generator.Generate(time.Hour, now)
	require.Len(t, r.TopSensors, 5)
	// Highest confidence first.
	assert.Equal(t, "g", r.TopSensors[0].SensorID)
	assert.InDelta(t, 0.8, r.TopSensors[0].AvgConfidence, 0.001)
	assert.Equal(t, 1, r.TopSensors[0].ReadingCount)
}

func TestGenerateMostTriggeredRules(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)
	f.readings.Append(sensors.Reading{SensorID: "temp-1", Timestamp: now.Add(-time.Second), Value: 30, Valid: true})

	rule := &automation.Rule{
		Name:    "hot",
		Enabled: true,
		Trigger: automation.Trigger{Kind: automation.TriggerThresholdExceeded, SensorID: "temp-1", Value: 28, Operator: automation.OpGreaterThan},
		Actions: []automation.Action{
			automation.LogEventAction{BaseAction: automation.BaseAction{ID: "a1"}, Message: "fired"},
		},
	}
	id, err := f.engine.AddRule(rule)
	require.NoError(t, err)

	// Never-fired rules are excluded.
	idle := &automation.Rule{
		Name:    "idle",
		Enabled: true,
		Trigger: automation.Trigger{Kind: automation.TriggerThresholdExceeded, SensorID: "temp-1", Value: 99, Operator: automation.OpGreaterThan},
		Actions: []automation.Action{
			automation.LogEventAction{BaseAction: automation.BaseAction{ID: "a2"}, Message: "never"},
		},
	}
	_, err = f.engine.AddRule(idle)
	require.NoError(t, err)

	f.engine.EvaluateTick(now)
	f.engine.EvaluateTick(now.Add(time.Second))

	r := f.generator.Generate(time.Hour, now.Add(2*time.Second))
	require.Len(t, r.MostTriggeredRules, 1)
	assert.Equal(t, id, r.MostTriggeredRules[0].RuleID)
	assert.Equal(t, int64(2), r.MostTriggeredRules[0].TriggerCount)
}
