package automation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogAppend(t *testing.T) {
	l := NewLog(24 * time.Hour)
	now := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)

	e := l.Append(LogEntry{Timestamp: now, Level: LogLevelInfo, Component: "engine", Message: "hello"})
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, now, e.Timestamp)

	entries := l.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Message)
}

func TestLogCountSince(t *testing.T) {
	l := NewLog(24 * time.Hour)
	now := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)

	l.Append(LogEntry{Timestamp: now.Add(-2 * time.Hour), Level: LogLevelInfo})
	l.Append(LogEntry{Timestamp: now.Add(-time.Hour), Level: LogLevelError})
	l.Append(LogEntry{Timestamp: now, Level: LogLevelError})

	assert.Equal(t, 3, l.CountSince(now.Add(-3*time.Hour), ""))
	assert.Equal(t, 2, l.CountSince(now.Add(-3*time.Hour), LogLevelError))
	assert.Equal(t, 1, l.CountSince(now.Add(-30*time.Minute), LogLevelError))
	assert.Equal(t, 0, l.CountSince(now.Add(-3*time.Hour), LogLevelWarning))
}

func TestLogEviction(t *testing.T) {
	l := NewLog(time.Hour)
	now := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)

	l.Append(LogEntry{Timestamp: now.Add(-2 * time.Hour), Message: "old"})
	l.Append(LogEntry{Timestamp: now.Add(-30 * time.Minute), Message: "recent"})

	removed := l.EvictOlderThan(now)
	assert.Equal(t, 1, removed)

	entries := l.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "recent", entries[0].Message)

	assert.Equal(t, 0, l.EvictOlderThan(now))
}

func TestLogEntriesSince(t *testing.T) {
	l := NewLog(24 * time.Hour)
	now := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)

	l.Append(LogEntry{Timestamp: now.Add(-2 * time.Hour), Message: "a"})
	l.Append(LogEntry{Timestamp: now.Add(-time.Hour), Message: "b"})
	l.Append(LogEntry{Timestamp: now, Message: "c"})

	since := l.EntriesSince(now.Add(-time.Hour))
	require.Len(t, since, 2)
	assert.Equal(t, "b", since[0].Message)
	assert.Equal(t, "c", since[1].Message)
}
