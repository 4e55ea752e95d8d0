// Package store holds the live table of job records plus the tombstone log
// that lets callers tell "recently expired" apart from "never existed".
package store

import (
	"encoding/json"
	"time"

	"polling-job-service/internal/entity"
)

// Store is the job lifecycle contract. Two interchangeable implementations
// exist: CacheStore (lifetime-priority eviction) and SweepStore (periodic
// sweep of a concurrent table). All methods are safe for concurrent use.
//
// Transition calls against a missing or terminal record are silent no-ops so
// that late updates from a canceled background task never surface as errors.
type Store interface {
	// Create inserts a new pending record and returns a copy of it.
	Create() *entity.Job

	// Get returns a copy of the live record, or nil if there is none.
	// nil does not distinguish expired from never-existed; that is what
	// WasRecentlyExpired is for.
	Get(id string) *entity.Job

	// TryCancel moves a Pending or Processing record to Canceled, stamping
	// CompletedAt. Returns false if the record is missing or already terminal.
	TryCancel(id string) bool

	// SetProcessing moves Pending -> Processing. No-op otherwise.
	SetProcessing(id string)

	// SetCompleted moves any non-terminal record to Completed with its result.
	SetCompleted(id string, data json.RawMessage, message string)

	// SetFailed moves any non-terminal record to Failed with a reason.
	SetFailed(id string, message string)

	// WasRecentlyExpired reports whether a tombstone for id exists within
	// the retention window.
	WasRecentlyExpired(id string) bool

	// PurgeJob removes the record unconditionally, recording a tombstone.
	PurgeJob(id string)

	// Close stops any background maintenance owned by the store.
	Close()
}

// Options configures either store implementation.
type Options struct {
	// Lifetime is the absolute time a record may live; it doubles as the
	// tombstone retention window.
	Lifetime time.Duration

	// SlidingWindow extends a terminal record's life on each poll
	// (CacheStore only).
	SlidingWindow time.Duration

	// SweepInterval is the period of the cleanup pass (SweepStore only).
	SweepInterval time.Duration

	// TombstoneLimit caps the tombstone log; oldest entries drop first.
	TombstoneLimit int

	// Capacity bounds the number of live records (CacheStore only).
	// Zero means unbounded.
	Capacity uint64
}

// DefaultOptions mirrors the service defaults: ten minute lifetime, one
// minute sliding window and sweep interval, two hundred tombstones.
func DefaultOptions() Options {
	return Options{
		Lifetime:       10 * time.Minute,
		SlidingWindow:  time.Minute,
		SweepInterval:  time.Minute,
		TombstoneLimit: 200,
	}
}

func (o *Options) sanitize() {
	def := DefaultOptions()
	if o.Lifetime <= 0 {
		o.Lifetime = def.Lifetime
	}
	if o.SlidingWindow <= 0 {
		o.SlidingWindow = def.SlidingWindow
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = def.SweepInterval
	}
	if o.TombstoneLimit <= 0 {
		o.TombstoneLimit = def.TombstoneLimit
	}
}
