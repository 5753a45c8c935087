package automation

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LogLevel classifies automation-log entries.
type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// LogEntry is one structural event: a rule firing, an action result, or an
// engine error. The log feeds uptime and energy analytics.
type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Component string    `json:"component"`
	Message   string    `json:"message"`
	RuleID    string    `json:"rule_id,omitempty"`
}

// Log is the append-only bounded automation log. Entries age out with the
// same retention sweep as readings.
type Log struct {
	mu        sync.RWMutex
	entries   []LogEntry
	retention time.Duration
}

// NewLog creates an automation log with the given retention window.
func NewLog(retention time.Duration) *Log {
	return &Log{retention: retention}
}

// Append adds an entry, filling ID and timestamp when unset.
func (l *Log) Append(e LogEntry) LogEntry {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	return e
}

// Entries returns a copy of all entries, oldest first.
func (l *Log) Entries() []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// EntriesSince returns entries at or after the given time, oldest first.
func (l *Log) EntriesSince(since time.Time) []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i := sort.Search(len(l.entries), func(i int) bool { return !l.entries[i].Timestamp.Before(since) })
	out := make([]LogEntry, len(l.entries)-i)
	copy(out, l.entries[i:])
	return out
}

// CountSince counts entries at or after the given time, optionally filtered
// by level. An empty level counts everything.
func (l *Log) CountSince(since time.Time, level LogLevel) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, e := range l.entries {
		if e.Timestamp.Before(since) {
			continue
		}
		if level == "" || e.Level == level {
			n++
		}
	}
	return n
}

// EvictOlderThan drops entries older than the retention window relative to
// now, returning how many were removed.
func (l *Log) EvictOlderThan(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.retention)
	i := sort.Search(len(l.entries), func(i int) bool { return !l.entries[i].Timestamp.Before(cutoff) })
	if i == 0 {
		return 0
	}
	kept := make([]LogEntry, len(l.entries)-i)
	copy(kept, l.entries[i:])
	l.entries = kept
	return i
}

// Clear drops all entries. Part of system shutdown.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
