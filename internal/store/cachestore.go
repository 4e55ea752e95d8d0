package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"polling-job-service/internal/entity"
)

// cacheEntry wraps a record with its own lock so status transitions on the
// same id apply atomically without a store-wide mutex.
type cacheEntry struct {
	mu  sync.Mutex
	job *entity.Job
}

// CacheStore keeps records in a TTL cache. A freshly created record carries
// the absolute lifetime; SetProcessing pins it so a long-running job is not
// evicted mid-flight; terminal transitions drop it to the sliding window,
// which each poll refreshes. Whatever removes an entry (expiry, capacity
// pressure, purge), the eviction hook records the tombstone.
type CacheStore struct {
	opts   Options
	cache  *ttlcache.Cache[string, *cacheEntry]
	tombs  *tombstoneLog
	logger *slog.Logger

	closeOnce sync.Once
}

var _ Store = (*CacheStore)(nil)

func NewCacheStore(opts Options, logger *slog.Logger) *CacheStore {
	opts.sanitize()

	cacheOpts := []ttlcache.Option[string, *cacheEntry]{
		ttlcache.WithTTL[string, *cacheEntry](opts.Lifetime),
	}
	if opts.Capacity > 0 {
		cacheOpts = append(cacheOpts, ttlcache.WithCapacity[string, *cacheEntry](opts.Capacity))
	}

	s := &CacheStore{
		opts:   opts,
		cache:  ttlcache.New(cacheOpts...),
		tombs:  newTombstoneLog(opts.TombstoneLimit),
		logger: logger,
	}

	s.cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *cacheEntry]) {
		s.tombs.record(item.Key(), time.Now().UTC())
		s.logger.Info("job evicted",
			slog.String("job_id", item.Key()),
			slog.String("reason", evictionReason(reason)),
		)
	})

	go s.cache.Start()
	return s
}

func (s *CacheStore) Create() *entity.Job {
	job := entity.NewJob()
	s.cache.Set(job.ID, &cacheEntry{job: job}, s.opts.Lifetime)
	return job.Clone()
}

func (s *CacheStore) Get(id string) *entity.Job {
	// Default Get touches the item, extending its current TTL: that is the
	// sliding window for terminal records and a lifetime refresh otherwise.
	item := s.cache.Get(id)
	if item == nil {
		return nil
	}
	e := item.Value()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job.Clone()
}

func (s *CacheStore) TryCancel(id string) bool {
	e := s.peek(id)
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
	s.cache.Set(id, e, s.opts.SlidingWindow)
	return true
}

func (s *CacheStore) SetProcessing(id string) {
	e := s.peek(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.job.Status != entity.StatusPending {
		return
	}
	e.job.Status = entity.StatusProcessing
	s.cache.Set(id, e, ttlcache.NoTTL)
}

func (s *CacheStore) SetCompleted(id string, data json.RawMessage, message string) {
	e := s.peek(id)
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
	s.cache.Set(id, e, s.opts.SlidingWindow)
}

func (s *CacheStore) SetFailed(id string, message string) {
	e := s.peek(id)
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
	s.cache.Set(id, e, s.opts.SlidingWindow)
}

func (s *CacheStore) WasRecentlyExpired(id string) bool {
	return s.tombs.recentlyExpired(id, time.Now().UTC(), s.opts.Lifetime)
}

func (s *CacheStore) PurgeJob(id string) {
	if !s.cache.Has(id) {
		return
	}
	s.logger.Warn("purging job", slog.String("job_id", id))
	// Delete runs the eviction hook, which records the tombstone.
	s.cache.Delete(id)
}

func (s *CacheStore) Close() {
	s.closeOnce.Do(s.cache.Stop)
}

// peek fetches an entry for a transition without sliding its TTL; the
// transition itself re-stamps the TTL it wants.
func (s *CacheStore) peek(id string) *cacheEntry {
	item := s.cache.Get(id, ttlcache.WithDisableTouchOnHit[string, *cacheEntry]())
	if item == nil {
		return nil
	}
	return item.Value()
}

func evictionReason(r ttlcache.EvictionReason) string {
	switch r {
	case ttlcache.EvictionReasonExpired:
		return "expired"
	case ttlcache.EvictionReasonCapacityReached:
		return "capacity"
	case ttlcache.EvictionReasonDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
