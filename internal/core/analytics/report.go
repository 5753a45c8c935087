package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/verdant-ops/facility-backend-go/internal/core/alerts"
	"github.com/verdant-ops/facility-backend-go/internal/core/automation"
	"github.com/verdant-ops/facility-backend-go/internal/core/sensors"
)

// SensorConfidence ranks a sensor by the mean confidence of its readings in
// the report period.
type SensorConfidence struct {
	SensorID      string  `json:"sensor_id"`
	AvgConfidence float64 `json:"avg_confidence"`
	ReadingCount  int     `json:"reading_count"`
}

// RuleActivity ranks a rule by lifetime trigger count.
type RuleActivity struct {
	RuleID       string `json:"rule_id"`
	Name         string `json:"name"`
	TriggerCount int64  `json:"trigger_count"`
}

// Report aggregates automation activity over a period.
type Report struct {
	Period      time.Duration `json:"period"`
	GeneratedAt time.Time     `json:"generated_at"`

	ReadingCount     int `json:"reading_count"`
	LogEntryCount    int `json:"log_entry_count"`
	AlertCount       int `json:"alert_count"`
	ActiveAlertCount int `json:"active_alert_count"`

	UptimePercent    float64 `json:"uptime_percent"`
	EnergySavingsKWh float64 `json:"energy_savings_kwh"`

	// AlertBudgetUtilization compares the period's alert rate against the
	// advisory max-alerts-per-hour setting. The cap itself is never enforced.
	AlertBudgetUtilization float64 `json:"alert_budget_utilization"`

	TopSensors         []SensorConfidence `json:"top_sensors"`
	MostTriggeredRules []RuleActivity     `json:"most_triggered_rules"`
}

// Generator builds automation reports from the in-memory stores.
type Generator struct {
	readings         *sensors.ReadingStore
	autoLog          *automation.Log
	alertStore       *alerts.Store
	engine           *automation.Engine
	maxAlertsPerHour int
}

// NewGenerator creates a report generator.
func NewGenerator(readings *sensors.ReadingStore, autoLog *automation.Log, alertStore *alerts.Store, engine *automation.Engine, maxAlertsPerHour int) *Generator {
	return &Generator{
		readings:         readings,
		autoLog:          autoLog,
		alertStore:       alertStore,
		engine:           engine,
		maxAlertsPerHour: maxAlertsPerHour,
	}
}

// Generate aggregates activity over the trailing period ending at now.
func (g *Generator) Generate(period time.Duration, now time.Time) Report {
	since := now.Add(-period)

	r := Report{
		Period:           period,
		GeneratedAt:      now,
		ReadingCount:     g.readings.CountSince(since),
		LogEntryCount:    g.autoLog.CountSince(since, ""),
		AlertCount:       g.alertStore.CountSince(since),
		ActiveAlertCount: len(g.alertStore.Active()),
	}

	// Uptime is derived from the automation log: the share of entries that
	// are not error-level.
	errorEntries := g.autoLog.CountSince(since, automation.LogLevelError)
	if r.LogEntryCount > 0 {
		r.UptimePercent = 100 * float64(r.LogEntryCount-errorEntries) / float64(r.LogEntryCount)
	} else {
		r.UptimePercent = 100
	}

	r.EnergySavingsKWh = g.energySavings(since)
	r.AlertBudgetUtilization = g.alertUtilization(period, r.AlertCount)
	r.TopSensors = g.topSensors(since, 5)
	r.MostTriggeredRules = g.mostTriggered(5)

	return r
}

// energySavings estimates kWh saved from lighting actions executed in the
// period. Each light-off or intensity adjustment counts a fixed per-firing
// saving; a coarse figure, but comparable across reports.
func (g *Generator) energySavings(since time.Time) float64 {
	const perLightingAction = 0.35 // kWh

	saved := 0.0
	for _, e := range g.autoLog.EntriesSince(since) {
		if e.Component != "dispatcher" || e.Level != automation.LogLevelInfo {
			continue
		}
		if strings.Contains(e.Message, "light_off") || strings.Contains(e.Message, "set_light_intensity") {
			saved += perLightingAction
		}
	}
	return saved
}

func (g *Generator) alertUtilization(period time.Duration, alertCount int) float64 {
	if g.maxAlertsPerHour <= 0 || period <= 0 {
		return 0
	}
	hours := period.Hours()
	if hours < 1 {
		hours = 1
	}
	return float64(alertCount) / (float64(g.maxAlertsPerHour) * hours)
}

func (g *Generator) topSensors(since time.Time, limit int) []SensorConfidence {
	out := make([]SensorConfidence, 0)
	for _, id := range g.readings.SensorIDs() {
		window := g.readings.Window(id, since)
		if len(window) == 0 {
			continue
		}
		sum := 0.0
		for _, r := range window {
			sum += r.Confidence
		}
		out = append(out, SensorConfidence{
			SensorID:      id,
			AvgConfidence: sum / float64(len(window)),
			ReadingCount:  len(window),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgConfidence != out[j].AvgConfidence {
			return out[i].AvgConfidence > out[j].AvgConfidence
		}
		return out[i].SensorID < out[j].SensorID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (g *Generator) mostTriggered(limit int) []RuleActivity {
	rules := g.engine.Rules()
	out := make([]RuleActivity, 0, len(rules))
	for _, r := range rules {
		if r.TriggerCount == 0 {
			continue
		}
		out = append(out, RuleActivity{RuleID: r.ID, Name: r.Name, TriggerCount: r.TriggerCount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TriggerCount != out[j].TriggerCount {
			return out[i].TriggerCount > out[j].TriggerCount
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
