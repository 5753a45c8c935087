package alerts

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Severity classifies how urgent an alert is. Ordering is significant:
// comparisons like severity >= SeverityCritical gate immediate-attention
// handling.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
	SeverityEmergency
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	case SeverityEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// ParseSeverity maps a severity name to its level. Unknown names default to
// warning so a malformed action parameter still produces a visible alert.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(s) {
	case "info":
		return SeverityInfo
	case "warning":
		return SeverityWarning
	case "critical":
		return SeverityCritical
	case "emergency":
		return SeverityEmergency
	default:
		return SeverityWarning
	}
}

// Status represents the alert lifecycle state. There is no automatic
// transition from active to resolved; external collaborators resolve alerts.
type Status string

const (
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
)

// Alert is a raised facility alert.
type Alert struct {
	ID                         string     `json:"id"`
	Timestamp                  time.Time  `json:"timestamp"`
	Severity                   Severity   `json:"severity"`
	Title                      string     `json:"title"`
	Description                string     `json:"description"`
	SensorID                   string     `json:"sensor_id,omitempty"`
	Zone                       string     `json:"zone,omitempty"`
	Status                     Status     `json:"status"`
	RequiresImmediateAttention bool       `json:"requires_immediate_attention"`
	ResolvedAt                 *time.Time `json:"resolved_at,omitempty"`
}

// Store owns all alerts in memory. Alerts are append-only until resolved;
// Cleanup removes resolved alerts past the retention TTL.
type Store struct {
	mu          sync.RWMutex
	alerts      map[string]*Alert
	resolvedTTL time.Duration
	logger      *logrus.Logger
	onRaise     func(Alert)
}

// NewStore creates an alert store. resolvedTTL is how long a resolved alert
// is kept before the cleanup sweep removes it.
func NewStore(resolvedTTL time.Duration, logger *logrus.Logger) *Store {
	return &Store{
		alerts:      make(map[string]*Alert),
		resolvedTTL: resolvedTTL,
		logger:      logger,
	}
}

// OnRaise registers a single observer invoked synchronously for every raised
// alert. Used for websocket notification fan-out and metrics.
func (s *Store) OnRaise(fn func(Alert)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRaise = fn
}

// Raise stores a new alert. ID and timestamp are filled when unset so callers
// inside the tick loop can pass their shared clock.
func (s *Store) Raise(a Alert) Alert {
	s.mu.Lock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	a.Status = StatusActive
	stored := a
	s.alerts[a.ID] = &stored
	fn := s.onRaise
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"alert_id": a.ID,
		"severity": a.Severity.String(),
		"title":    a.Title,
		"zone":     a.Zone,
	}).Warn("Alert raised")

	if fn != nil {
		fn(a)
	}
	return a
}

// Resolve marks an alert resolved. Resolution comes from external
// collaborators (UI, operator action), never from the engine itself.
func (s *Store) Resolve(id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[id]
	if !ok {
		return fmt.Errorf("alert %s not found", id)
	}
	if a.Status == StatusResolved {
		return nil
	}
	a.Status = StatusResolved
	resolved := now
	a.ResolvedAt = &resolved

	s.logger.WithField("alert_id", id).Info("Alert resolved")
	return nil
}

// Get returns a copy of the alert with the given id.
func (s *Store) Get(id string) (Alert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.alerts[id]
	if !ok {
		return Alert{}, false
	}
	return *a, true
}

// All returns every alert, newest first.
func (s *Store) All() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

// Active returns alerts that have not been resolved, newest first.
func (s *Store) Active() []Alert {
	all := s.All()
	out := all[:0]
	for _, a := range all {
		if a.Status == StatusActive {
			out = append(out, a)
		}
	}
	return out
}

// CountSince counts alerts raised at or after the given time.
func (s *Store) CountSince(since time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, a := range s.alerts {
		if !a.Timestamp.Before(since) {
			n++
		}
	}
	return n
}

// Cleanup removes resolved alerts older than the retention TTL and returns
// how many were removed. Active alerts are never touched.
func (s *Store) Cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.resolvedTTL)
	removed := 0
	for id, a := range s.alerts {
		if a.Status == StatusResolved && a.Timestamp.Before(cutoff) {
			delete(s.alerts, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.WithField("removed", removed).Debug("Alert cleanup sweep completed")
	}
	return removed
}

// Clear drops every alert. Part of system shutdown.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = make(map[string]*Alert)
}
