package store

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"polling-job-service/internal/entity"
)

// sweepEntry carries a per-record lock; the store-level RWMutex only guards
// map membership, so transitions on different ids never contend.
type sweepEntry struct {
	mu  sync.Mutex
	job *entity.Job
}

// SweepStore keeps records in a plain table and relies on a periodic sweep:
// any record that is terminal and older than the absolute lifetime (counting
// from CompletedAt, or CreatedAt if it never completed) is removed and
// tombstoned. A record that never reaches a terminal state stays put, which
// matches the eviction store pinning in-flight work.
type SweepStore struct {
	opts   Options
	logger *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*sweepEntry

	tombs *tombstoneLog

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var _ Store = (*SweepStore)(nil)

func NewSweepStore(opts Options, logger *slog.Logger) *SweepStore {
	opts.sanitize()

	s := &SweepStore{
		opts:   opts,
		logger: logger,
		jobs:   make(map[string]*sweepEntry),
		tombs:  newTombstoneLog(opts.TombstoneLimit),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	go s.sweepLoop()
	return s
}

func (s *SweepStore) Create() *entity.Job {
	job := entity.NewJob()

	s.mu.Lock()
	s.jobs[job.ID] = &sweepEntry{job: job}
	s.mu.Unlock()

	return job.Clone()
}

func (s *SweepStore) Get(id string) *entity.Job {
	e := s.lookup(id)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job.Clone()
}

func (s *SweepStore) TryCancel(id string) bool {
	e := s.lookup(id)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.job.Status.Terminal() {
		return false
	}
	now := time.Now().UTC()
	e.job.Status = entity.StatusCanceled
	e.job.CompletedAt = &now
	return true
}

func (s *SweepStore) SetProcessing(id string) {
	e := s.lookup(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.job.Status != entity.StatusPending {
		return
	}
	e.job.Status = entity.StatusProcessing
}

func (s *SweepStore) SetCompleted(id string, data json.RawMessage, message string) {
	e := s.lookup(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.job.Status.Terminal() {
		return
	}
	now := time.Now().UTC()
	e.job.Status = entity.StatusCompleted
	e.job.Data = data
	e.job.Message = message
	e.job.CompletedAt = &now
}

func (s *SweepStore) SetFailed(id string, message string) {
	e := s.lookup(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.job.Status.Terminal() {
		return
	}
	now := time.Now().UTC()
	e.job.Status = entity.StatusFailed
	e.job.Message = message
	e.job.CompletedAt = &now
}

func (s *SweepStore) WasRecentlyExpired(id string) bool {
	return s.tombs.recentlyExpired(id, time.Now().UTC(), s.opts.Lifetime)
}

func (s *SweepStore) PurgeJob(id string) {
	s.mu.Lock()
	_, ok := s.jobs[id]
	if ok {
		delete(s.jobs, id)
	}
	s.mu.Unlock()

	if !ok {
		return
	}
	s.tombs.record(id, time.Now().UTC())
	s.logger.Warn("purging job", slog.String("job_id", id))
}

func (s *SweepStore) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
	})
}

func (s *SweepStore) lookup(id string) *sweepEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobs[id]
}

func (s *SweepStore) sweepLoop() {
	defer close(s.done)

	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep(time.Now().UTC())
		}
	}
}

// sweep removes terminal records past the absolute lifetime and trims stale
// tombstones. Tombstone recording happens here, synchronously with removal,
// so the pair is never observed half-done.
func (s *SweepStore) sweep(now time.Time) {
	cutoff := now.Add(-s.opts.Lifetime)

	s.mu.RLock()
	candidates := make([]*sweepEntry, 0, len(s.jobs))
	for _, e := range s.jobs {
		candidates = append(candidates, e)
	}
	s.mu.RUnlock()

	for _, e := range candidates {
		e.mu.Lock()
		id := e.job.ID
		stamp := e.job.CreatedAt
		if e.job.CompletedAt != nil {
			stamp = *e.job.CompletedAt
		}
		expired := e.job.Status.Terminal() && !stamp.After(cutoff)
		e.mu.Unlock()

		if !expired {
			continue
		}

		s.mu.Lock()
		_, ok := s.jobs[id]
		if ok {
			delete(s.jobs, id)
		}
		s.mu.Unlock()

		if ok {
			s.tombs.record(id, now)
			s.logger.Info("job expired during sweep", slog.String("job_id", id))
		}
	}

	s.tombs.trimOlder(now.Add(-s.opts.Lifetime))
}
