package sensors

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/verdant-ops/facility-backend-go/internal/core/alerts"
)

// Thresholds holds the alarm limits for a sensor. Nil fields are unset.
// Critical limits take precedence over the warning limits when both are
// crossed by the same reading.
type Thresholds struct {
	Low          *float64 `json:"low,omitempty"`
	High         *float64 `json:"high,omitempty"`
	CriticalLow  *float64 `json:"critical_low,omitempty"`
	CriticalHigh *float64 `json:"critical_high,omitempty"`
	Priority     int      `json:"priority"`
}

// Config describes a registered sensor. Only the Active flag mutates after
// registration.
type Config struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Zone         string        `json:"zone"`
	Kind         Kind          `json:"kind"`
	Interval     time.Duration `json:"interval"`
	Accuracy     float64       `json:"accuracy"`
	Active       bool          `json:"active"`
	EnableAlarms bool          `json:"enable_alarms"`
	Thresholds   Thresholds    `json:"thresholds"`
	RegisteredAt time.Time     `json:"registered_at"`
}

// Validate checks the registration invariants: non-empty identity, positive
// interval, accuracy in (0, 1].
func (c Config) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("sensor id is required")
	}
	if c.Name == "" {
		return fmt.Errorf("sensor name is required")
	}
	if c.Zone == "" {
		return fmt.Errorf("sensor zone is required")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("sensor interval must be positive")
	}
	if c.Accuracy <= 0 || c.Accuracy > 1 {
		return fmt.Errorf("sensor accuracy must be in (0, 1]")
	}
	return nil
}

// Registry owns sensor configurations, synthesizes readings, and runs alarm
// checks. All state lives on the instance; callers receive it by handle.
type Registry struct {
	mu         sync.RWMutex
	sensors    map[string]*Config
	readings   *ReadingStore
	alerts     *alerts.Store
	logger     *logrus.Logger
	rng        *rand.Rand
	maxPerZone int
}

// NewRegistry creates a sensor registry. maxPerZone caps registrations per
// zone; zero or negative disables the cap. seed fixes the synthetic-reading
// randomness for tests.
func NewRegistry(readings *ReadingStore, alertStore *alerts.Store, maxPerZone int, seed int64, logger *logrus.Logger) *Registry {
	return &Registry{
		sensors:    make(map[string]*Config),
		readings:   readings,
		alerts:     alertStore,
		logger:     logger,
		rng:        rand.New(rand.NewSource(seed)),
		maxPerZone: maxPerZone,
	}
}

// Register validates and stores a sensor configuration, then synthesizes one
// initial reading at the kind's baseline. No state mutates on failure.
func (r *Registry) Register(c Config, now time.Time) error {
	if err := c.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sensors[c.ID]; exists {
		return fmt.Errorf("sensor %s already registered", c.ID)
	}
	if r.maxPerZone > 0 {
		inZone := 0
		for _, s := range r.sensors {
			if s.Zone == c.Zone {
				inZone++
			}
		}
		if inZone >= r.maxPerZone {
			return fmt.Errorf("zone %s is at capacity (%d sensors)", c.Zone, r.maxPerZone)
		}
	}

	c.RegisteredAt = now
	stored := c
	r.sensors[c.ID] = &stored

	value, unit := Baseline(c.Kind)
	r.readings.Append(Reading{
		SensorID:   c.ID,
		Timestamp:  now,
		Value:      value,
		Unit:       unit,
		Valid:      true,
		Confidence: c.Accuracy,
	})

	r.logger.WithFields(logrus.Fields{
		"sensor_id": c.ID,
		"zone":      c.Zone,
		"kind":      string(c.Kind),
	}).Info("Sensor registered")

	return nil
}

// SetActive flips the only mutable field on a sensor configuration.
func (r *Registry) SetActive(id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sensors[id]
	if !ok {
		return fmt.Errorf("sensor %s not found", id)
	}
	s.Active = active
	return nil
}

// Get returns a copy of a sensor configuration.
func (r *Registry) Get(id string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sensors[id]
	if !ok {
		return Config{}, false
	}
	return *s, true
}

// All returns every sensor configuration, ordered by id.
func (r *Registry) All() []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Config, 0, len(r.sensors))
	for _, s := range r.sensors {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ActiveCount returns how many sensors are currently active.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, s := range r.sensors {
		if s.Active {
			n++
		}
	}
	return n
}

// Refresh synthesizes a new reading for every active sensor whose interval
// has elapsed since its last reading, runs the alarm check on each, and
// returns the readings generated this tick.
func (r *Registry) Refresh(now time.Time) []Reading {
	r.mu.Lock()
	due := make([]Config, 0)
	for _, s := range r.sensors {
		if !s.Active {
			continue
		}
		last, ok := r.readings.Latest(s.ID)
		if ok && now.Sub(last.Timestamp) < s.Interval {
			continue
		}
		due = append(due, *s)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })

	generated := make([]Reading, 0, len(due))
	for _, s := range due {
		generated = append(generated, r.synthesize(s, now))
	}
	r.mu.Unlock()

	for i, s := range due {
		r.readings.Append(generated[i])
		r.checkAlarms(s, generated[i])
	}
	return generated
}

// Ingest appends an externally supplied reading for a registered sensor and
// runs the alarm check on it.
func (r *Registry) Ingest(reading Reading) error {
	r.mu.RLock()
	s, ok := r.sensors[reading.SensorID]
	if !ok {
		r.mu.RUnlock()
		return fmt.Errorf("sensor %s not found", reading.SensorID)
	}
	cfg := *s
	r.mu.RUnlock()

	r.readings.Append(reading)
	r.checkAlarms(cfg, reading)
	return nil
}

// synthesize produces a baseline reading with up to ±10% variation and a
// confidence of accuracy × U(0.95, 1.0). Values never go below zero.
func (r *Registry) synthesize(s Config, now time.Time) Reading {
	value, unit := Baseline(s.Kind)
	value *= 1 + (r.rng.Float64()*2-1)*0.10
	if value < 0 {
		value = 0
	}
	return Reading{
		SensorID:   s.ID,
		Timestamp:  now,
		Value:      value,
		Unit:       unit,
		Valid:      true,
		Confidence: s.Accuracy * (0.95 + r.rng.Float64()*0.05),
	}
}

// checkAlarms compares a reading against the sensor's thresholds in strict
// precedence order: critical limits first, then warning limits. At most one
// alert is raised per reading.
func (r *Registry) checkAlarms(s Config, reading Reading) {
	if !s.EnableAlarms {
		return
	}

	t := s.Thresholds
	switch {
	case t.CriticalHigh != nil && reading.Value >= *t.CriticalHigh:
		r.raiseAlarm(s, reading, alerts.SeverityCritical, "above critical threshold", *t.CriticalHigh)
	case t.CriticalLow != nil && reading.Value <= *t.CriticalLow:
		r.raiseAlarm(s, reading, alerts.SeverityCritical, "below critical threshold", *t.CriticalLow)
	case t.High != nil && reading.Value >= *t.High:
		r.raiseAlarm(s, reading, alerts.SeverityWarning, "above threshold", *t.High)
	case t.Low != nil && reading.Value <= *t.Low:
		r.raiseAlarm(s, reading, alerts.SeverityWarning, "below threshold", *t.Low)
	}
}

func (r *Registry) raiseAlarm(s Config, reading Reading, severity alerts.Severity, direction string, limit float64) {
	r.alerts.Raise(alerts.Alert{
		Timestamp:                  reading.Timestamp,
		Severity:                   severity,
		Title:                      fmt.Sprintf("Sensor alarm: %s", s.Name),
		Description:                fmt.Sprintf("%s reading %.2f %s is %s %.2f", s.Name, reading.Value, reading.Unit, direction, limit),
		SensorID:                   s.ID,
		Zone:                       s.Zone,
		RequiresImmediateAttention: severity >= alerts.SeverityCritical,
	})
}

// Clear drops all sensor configurations. Part of system shutdown.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sensors = make(map[string]*Config)
}
