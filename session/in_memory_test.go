package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/logging"
)

// Interface compliance (compile-time assertion)
var _ core.SessionStore = (*InMemoryStore)(nil)

func TestInMemoryStore_Lifecycle(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.Create("alice", map[string]any{"topic": "algebra"})
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, "alice", sess.OwnerID)
	assert.Equal(t, sess.CreatedAt, sess.LastActivityAt)

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.OwnerID)
	assert.Equal(t, "algebra", got.State["topic"])

	assert.True(t, store.Destroy(sess.ID))

	_, err = store.Get(sess.ID)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	_, err = store.Mutate(sess.ID, func(map[string]any) {})
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	assert.False(t, store.Destroy(sess.ID), "second destroy reports not found")
}

func TestInMemoryStore_CreateRequiresOwner(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Create("", nil)
	assert.Error(t, err)
}

func TestInMemoryStore_GetDoesNotTouch(t *testing.T) {
	now := time.Now()
	clock := now
	var mu sync.Mutex
	store := NewInMemoryStore(func(o *InMemoryStoreOptions) {
		o.Clock = func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return clock
		}
	})

	sess, err := store.Create("alice", nil)
	require.NoError(t, err)

	mu.Lock()
	clock = now.Add(time.Hour)
	mu.Unlock()

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, now.Unix(), got.LastActivityAt.Unix(), "Get must not bump activity")

	mutated, err := store.Mutate(sess.ID, func(state map[string]any) { state["x"] = 1 })
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour).Unix(), mutated.LastActivityAt.Unix())
}

func TestInMemoryStore_SnapshotsAreIsolated(t *testing.T) {
	store := NewInMemoryStore()
	sess, err := store.Create("alice", map[string]any{"n": 0})
	require.NoError(t, err)

	snap, err := store.Get(sess.ID)
	require.NoError(t, err)
	snap.State["n"] = 99

	fresh, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.State["n"], "mutating a snapshot must not leak into the store")
}

func TestInMemoryStore_ConcurrentMutateNoLostUpdates(t *testing.T) {
	store := NewInMemoryStore()
	sess, err := store.Create("alice", map[string]any{"counter": 0})
	require.NoError(t, err)

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := store.Mutate(sess.ID, func(state map[string]any) {
				state["counter"] = state["counter"].(int) + 1
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.State["counter"])
}

func TestInMemoryStore_MutateRacingDestroy(t *testing.T) {
	store := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		sess, err := store.Create("alice", map[string]any{"n": 0})
		require.NoError(t, err)

		wg.Add(2)
		go func() {
			defer wg.Done()
			// Either the mutation lands on a live session or the caller
			// sees NotFound; there is no third outcome.
			if _, err := store.Mutate(sess.ID, func(state map[string]any) {
				state["n"] = state["n"].(int) + 1
			}); err != nil {
				assert.ErrorIs(t, err, core.ErrSessionNotFound)
			}
		}()
		go func() {
			defer wg.Done()
			store.Destroy(sess.ID)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, store.Len())
}

func TestInMemoryStore_SlowUpdaterDoesNotBlockOtherIDs(t *testing.T) {
	store := NewInMemoryStore()

	blocked, err := store.Create("alice", nil)
	require.NoError(t, err)
	other, err := store.Create("bob", nil)
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	mutateDone := make(chan struct{})
	go func() {
		defer close(mutateDone)
		_, err := store.Mutate(blocked.ID, func(state map[string]any) {
			close(entered)
			<-release
		})
		assert.NoError(t, err)
	}()
	<-entered

	// Destroy on the held id must wait for the updater, but only on that
	// session's lock, never on the registry.
	destroyDone := make(chan struct{})
	go func() {
		defer close(destroyDone)
		store.Destroy(blocked.ID)
	}()

	unrelated := make(chan struct{})
	go func() {
		defer close(unrelated)
		_, err := store.Get(other.ID)
		assert.NoError(t, err)
		_, err = store.Create("carol", nil)
		assert.NoError(t, err)
		assert.NotEmpty(t, store.ListByOwner("bob"))
	}()

	select {
	case <-unrelated:
	case <-time.After(time.Second):
		t.Fatal("operations on unrelated ids blocked behind a slow updater")
	}

	close(release)
	<-mutateDone
	<-destroyDone

	_, err = store.Get(blocked.ID)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestInMemoryStore_ListByOwner(t *testing.T) {
	store := NewInMemoryStore()
	for i := 0; i < 3; i++ {
		_, err := store.Create("alice", nil)
		require.NoError(t, err)
	}
	bob, err := store.Create("bob", nil)
	require.NoError(t, err)

	sessions := store.ListByOwner("alice")
	require.Len(t, sessions, 3)
	for _, s := range sessions {
		assert.Equal(t, "alice", s.OwnerID)
	}

	assert.Len(t, store.ListByOwner("bob"), 1)
	assert.Empty(t, store.ListByOwner("carol"))

	store.Destroy(bob.ID)
	assert.Empty(t, store.ListByOwner("bob"))
}

func TestInMemoryStore_ExpireOlderThan(t *testing.T) {
	now := time.Now()
	clock := now
	var mu sync.Mutex
	store := NewInMemoryStore(func(o *InMemoryStoreOptions) {
		o.Clock = func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return clock
		}
	})

	const ttl = time.Minute

	stale, err := store.Create("alice", nil)
	require.NoError(t, err)

	// Second session stays active until half a TTL before the sweep.
	mu.Lock()
	clock = now.Add(ttl + ttl/2)
	mu.Unlock()
	active, err := store.Create("alice", nil)
	require.NoError(t, err)

	mu.Lock()
	clock = now.Add(2 * ttl)
	mu.Unlock()

	count := store.ExpireOlderThan(ttl)
	assert.Equal(t, 1, count)

	_, err = store.Get(stale.ID)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	_, err = store.Get(active.ID)
	assert.NoError(t, err)
}

func TestInMemoryStore_ExpireConcurrentWithTraffic(t *testing.T) {
	store := NewInMemoryStore()

	ids := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		sess, err := store.Create("alice", map[string]any{"n": 0})
		require.NoError(t, err)
		ids = append(ids, sess.ID)
	}

	var wg sync.WaitGroup
	wg.Add(len(ids) + 1)
	for _, id := range ids {
		go func(id string) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, _ = store.Mutate(id, func(state map[string]any) {
					state["n"] = state["n"].(int) + 1
				})
			}
		}(id)
	}
	go func() {
		defer wg.Done()
		for j := 0; j < 10; j++ {
			store.ExpireOlderThan(time.Hour)
		}
	}()
	wg.Wait()

	// Everything was touched recently, so nothing may have been swept.
	assert.Equal(t, 20, store.Len())
}

func TestRunJanitor_SweepsIdleSessions(t *testing.T) {
	base := time.Now()
	clock := base
	var mu sync.Mutex
	store := NewInMemoryStore(func(o *InMemoryStoreOptions) {
		o.Clock = func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return clock
		}
	})

	_, err := store.Create("alice", nil)
	require.NoError(t, err)

	mu.Lock()
	clock = base.Add(time.Hour)
	mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		RunJanitor(ctx, store, 5*time.Millisecond, time.Minute, logging.NoOpLogger{})
	}()

	require.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
