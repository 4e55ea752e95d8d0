package store_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polling-job-service/internal/entity"
	"polling-job-service/internal/store"
)

// Both strategies must satisfy the same contract, so every test here runs
// against both through this table.
var backends = []struct {
	name string
	open func(opts store.Options) store.Store
}{
	{"cache", func(opts store.Options) store.Store { return store.NewCacheStore(opts, discardLogger()) }},
	{"sweep", func(opts store.Options) store.Store { return store.NewSweepStore(opts, discardLogger()) }},
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() store.Options {
	// long timers so background maintenance stays out of the way
	return store.Options{
		Lifetime:       time.Hour,
		SlidingWindow:  time.Hour,
		SweepInterval:  time.Hour,
		TombstoneLimit: 200,
	}
}

func TestStore_CreateThenGetPending(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(testOptions())
			defer s.Close()

			job := s.Create()
			require.NotEmpty(t, job.ID)
			require.Equal(t, entity.StatusPending, job.Status)
			require.Nil(t, job.CompletedAt)
			require.False(t, job.CreatedAt.IsZero())

			got := s.Get(job.ID)
			require.NotNil(t, got)
			assert.Equal(t, job.ID, got.ID)
			assert.Equal(t, entity.StatusPending, got.Status)
			assert.Nil(t, got.CompletedAt)
		})
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(testOptions())
			defer s.Close()

			job := s.Create()
			got := s.Get(job.ID)
			got.Status = entity.StatusFailed
			got.Message = "mutated by caller"

			again := s.Get(job.ID)
			assert.Equal(t, entity.StatusPending, again.Status)
			assert.Empty(t, again.Message)
		})
	}
}

func TestStore_HappyPathTransitions(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(testOptions())
			defer s.Close()

			job := s.Create()

			s.SetProcessing(job.ID)
			require.Equal(t, entity.StatusProcessing, s.Get(job.ID).Status)

			data := json.RawMessage(`{"answer":42}`)
			s.SetCompleted(job.ID, data, "done")

			got := s.Get(job.ID)
			require.Equal(t, entity.StatusCompleted, got.Status)
			assert.JSONEq(t, `{"answer":42}`, string(got.Data))
			assert.Equal(t, "done", got.Message)
			require.NotNil(t, got.CompletedAt)
		})
	}
}

func TestStore_TerminalStatesAbsorbing(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(testOptions())
			defer s.Close()

			job := s.Create()
			s.SetCompleted(job.ID, json.RawMessage(`{"ok":true}`), "first")
			completedAt := s.Get(job.ID).CompletedAt

			s.SetFailed(job.ID, "late failure")
			s.SetProcessing(job.ID)
			assert.False(t, s.TryCancel(job.ID))
			s.SetCompleted(job.ID, json.RawMessage(`{"ok":false}`), "second")

			got := s.Get(job.ID)
			assert.Equal(t, entity.StatusCompleted, got.Status)
			assert.JSONEq(t, `{"ok":true}`, string(got.Data))
			assert.Equal(t, "first", got.Message)
			assert.Equal(t, completedAt, got.CompletedAt, "stamped exactly once")
		})
	}
}

func TestStore_SetProcessingOnlyFromPending(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(testOptions())
			defer s.Close()

			job := s.Create()
			require.True(t, s.TryCancel(job.ID))

			s.SetProcessing(job.ID)
			assert.Equal(t, entity.StatusCanceled, s.Get(job.ID).Status)
		})
	}
}

func TestStore_TryCancel(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(testOptions())
			defer s.Close()

			pending := s.Create()
			assert.True(t, s.TryCancel(pending.ID))
			got := s.Get(pending.ID)
			assert.Equal(t, entity.StatusCanceled, got.Status)
			assert.NotNil(t, got.CompletedAt)

			processing := s.Create()
			s.SetProcessing(processing.ID)
			assert.True(t, s.TryCancel(processing.ID))

			canceled := s.Create()
			require.True(t, s.TryCancel(canceled.ID))
			assert.False(t, s.TryCancel(canceled.ID), "already canceled")

			completed := s.Create()
			s.SetCompleted(completed.ID, nil, "")
			assert.False(t, s.TryCancel(completed.ID))

			assert.False(t, s.TryCancel("no-such-id"))
		})
	}
}

func TestStore_UnknownID(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(testOptions())
			defer s.Close()

			assert.Nil(t, s.Get("never-created"))
			assert.False(t, s.WasRecentlyExpired("never-created"))

			// transition calls against a missing record are silent no-ops
			s.SetProcessing("never-created")
			s.SetCompleted("never-created", nil, "")
			s.SetFailed("never-created", "boom")
			s.PurgeJob("never-created")

			assert.False(t, s.WasRecentlyExpired("never-created"),
				"no-op calls must not fabricate tombstones")
		})
	}
}

func TestStore_PurgeRecordsTombstone(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(testOptions())
			defer s.Close()

			job := s.Create()
			s.SetProcessing(job.ID)
			s.PurgeJob(job.ID)

			require.Eventually(t, func() bool {
				return s.Get(job.ID) == nil && s.WasRecentlyExpired(job.ID)
			}, time.Second, 5*time.Millisecond)
		})
	}
}

func TestStore_ConcurrentTerminalRace(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(testOptions())
			defer s.Close()

			for i := 0; i < 50; i++ {
				job := s.Create()
				s.SetProcessing(job.ID)

				var wg sync.WaitGroup
				wg.Add(3)
				go func() {
					defer wg.Done()
					s.SetCompleted(job.ID, json.RawMessage(`{"winner":"completed"}`), "completed wins")
				}()
				go func() {
					defer wg.Done()
					s.SetFailed(job.ID, "failed wins")
				}()
				go func() {
					defer wg.Done()
					s.TryCancel(job.ID)
				}()
				wg.Wait()

				got := s.Get(job.ID)
				require.NotNil(t, got)
				require.True(t, got.Status.Terminal())
				require.NotNil(t, got.CompletedAt)

				switch got.Status {
				case entity.StatusCompleted:
					require.JSONEq(t, `{"winner":"completed"}`, string(got.Data))
				case entity.StatusFailed:
					require.Equal(t, "failed wins", got.Message)
					require.Nil(t, got.Data)
				case entity.StatusCanceled:
					require.Nil(t, got.Data)
				}
			}
		})
	}
}

func TestStore_ProcessingSurvivesLifetime(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			opts := store.Options{
				Lifetime:       50 * time.Millisecond,
				SlidingWindow:  50 * time.Millisecond,
				SweepInterval:  10 * time.Millisecond,
				TombstoneLimit: 200,
			}
			s := b.open(opts)
			defer s.Close()

			job := s.Create()
			s.SetProcessing(job.ID)

			time.Sleep(200 * time.Millisecond)

			got := s.Get(job.ID)
			require.NotNil(t, got, "in-flight job must not be evicted")
			assert.Equal(t, entity.StatusProcessing, got.Status)
		})
	}
}

func TestStore_TerminalRecordExpires(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			opts := store.Options{
				Lifetime:       300 * time.Millisecond,
				SlidingWindow:  100 * time.Millisecond,
				SweepInterval:  50 * time.Millisecond,
				TombstoneLimit: 200,
			}
			s := b.open(opts)
			defer s.Close()

			job := s.Create()
			s.SetProcessing(job.ID)
			s.SetCompleted(job.ID, json.RawMessage(`{}`), "")

			// Removed -> Get says nothing, tombstone says recently expired.
			// The poll interval stays above the sliding window so polling
			// itself cannot keep the record alive.
			require.Eventually(t, func() bool {
				return s.Get(job.ID) == nil
			}, 5*time.Second, 200*time.Millisecond)

			require.Eventually(t, func() bool {
				return s.WasRecentlyExpired(job.ID)
			}, time.Second, 10*time.Millisecond)

			// and once the retention window passes, the tombstone goes quiet
			require.Eventually(t, func() bool {
				return !s.WasRecentlyExpired(job.ID)
			}, 3*time.Second, 50*time.Millisecond)
		})
	}
}
