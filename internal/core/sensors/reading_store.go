package sensors

import (
	"sort"
	"sync"
	"time"
)

// Reading is a single sensor measurement. Immutable once created.
type Reading struct {
	SensorID   string    `json:"sensor_id"`
	Timestamp  time.Time `json:"timestamp"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	Valid      bool      `json:"valid"`
	Confidence float64   `json:"confidence"`
}

// ReadingStore is a bounded, time-ordered buffer of readings per sensor id.
// Old readings are evicted by the retention sweep, never reported as errors.
type ReadingStore struct {
	mu        sync.RWMutex
	readings  map[string][]Reading
	retention time.Duration
}

// NewReadingStore creates a store that retains readings for the given window.
func NewReadingStore(retention time.Duration) *ReadingStore {
	return &ReadingStore{
		readings:  make(map[string][]Reading),
		retention: retention,
	}
}

// Append adds a reading, keeping the per-sensor slice ordered by timestamp.
func (rs *ReadingStore) Append(r Reading) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	buf := rs.readings[r.SensorID]
	if n := len(buf); n > 0 && buf[n-1].Timestamp.After(r.Timestamp) {
		i := sort.Search(n, func(i int) bool { return buf[i].Timestamp.After(r.Timestamp) })
		buf = append(buf, Reading{})
		copy(buf[i+1:], buf[i:])
		buf[i] = r
	} else {
		buf = append(buf, r)
	}
	rs.readings[r.SensorID] = buf
}

// Latest returns the most recent reading for a sensor. Absence of data is a
// normal condition, not an error.
func (rs *ReadingStore) Latest(sensorID string) (Reading, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	buf := rs.readings[sensorID]
	if len(buf) == 0 {
		return Reading{}, false
	}
	return buf[len(buf)-1], true
}

// Window returns readings for a sensor at or after the given time, oldest
// first.
func (rs *ReadingStore) Window(sensorID string, since time.Time) []Reading {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	buf := rs.readings[sensorID]
	i := sort.Search(len(buf), func(i int) bool { return !buf[i].Timestamp.Before(since) })
	out := make([]Reading, len(buf)-i)
	copy(out, buf[i:])
	return out
}

// SensorIDs returns the ids of every sensor with at least one stored reading.
func (rs *ReadingStore) SensorIDs() []string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	out := make([]string, 0, len(rs.readings))
	for id, buf := range rs.readings {
		if len(buf) > 0 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Count returns the total number of stored readings.
func (rs *ReadingStore) Count() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	n := 0
	for _, buf := range rs.readings {
		n += len(buf)
	}
	return n
}

// CountSince counts readings taken at or after the given time.
func (rs *ReadingStore) CountSince(since time.Time) int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	n := 0
	for _, buf := range rs.readings {
		i := sort.Search(len(buf), func(i int) bool { return !buf[i].Timestamp.Before(since) })
		n += len(buf) - i
	}
	return n
}

// EvictOlderThan drops readings older than the retention window relative to
// now, returning how many were removed.
func (rs *ReadingStore) EvictOlderThan(now time.Time) int {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	cutoff := now.Add(-rs.retention)
	removed := 0
	for id, buf := range rs.readings {
		i := sort.Search(len(buf), func(i int) bool { return !buf[i].Timestamp.Before(cutoff) })
		if i == 0 {
			continue
		}
		removed += i
		if i == len(buf) {
			delete(rs.readings, id)
			continue
		}
		kept := make([]Reading, len(buf)-i)
		copy(kept, buf[i:])
		rs.readings[id] = kept
	}
	return removed
}

// Clear drops all readings. Part of system shutdown.
func (rs *ReadingStore) Clear() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.readings = make(map[string][]Reading)
}
