package store

import (
	"sync"
	"time"
)

type tombstone struct {
	jobID     string
	expiredAt time.Time
}

// tombstoneLog is a bounded, insertion-ordered log of removed job ids.
// Oldest entries drop first once the limit is hit, so sustained churn can
// never grow it without bound.
type tombstoneLog struct {
	mu      sync.Mutex
	entries []tombstone
	limit   int
}

func newTombstoneLog(limit int) *tombstoneLog {
	return &tombstoneLog{limit: limit}
}

func (l *tombstoneLog) record(jobID string, expiredAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, tombstone{jobID: jobID, expiredAt: expiredAt})
	if over := len(l.entries) - l.limit; over > 0 {
		l.entries = append(l.entries[:0:0], l.entries[over:]...)
	}
}

// recentlyExpired reports whether jobID was tombstoned within window of now.
// Entries older than the window are trimmed from the head on the way, which
// keeps the scan short under steady polling.
func (l *tombstoneLog) recentlyExpired(jobID string, now time.Time, window time.Duration) bool {
	cutoff := now.Add(-window)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.trimOlderLocked(cutoff)
	for _, t := range l.entries {
		if t.jobID == jobID {
			return true
		}
	}
	return false
}

// trimOlder drops head entries with expiredAt before cutoff.
func (l *tombstoneLog) trimOlder(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trimOlderLocked(cutoff)
}

func (l *tombstoneLog) trimOlderLocked(cutoff time.Time) {
	i := 0
	for i < len(l.entries) && l.entries[i].expiredAt.Before(cutoff) {
		i++
	}
	if i > 0 {
		l.entries = append(l.entries[:0:0], l.entries[i:]...)
	}
}

func (l *tombstoneLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
