package profile

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a mutex-guarded manual time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(clock *fakeClock) *InMemoryStore {
	return NewInMemoryStore(func(o *InMemoryStoreOptions) {
		o.Clock = clock.Now
	})
}

func TestProfileLifecycle(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)

	p := New("alice", clock.Now())
	p.Name = "Alice"
	require.NoError(t, store.Save(p))

	// The stored copy is detached from the caller's value.
	p.Name = "changed"
	got, err := store.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, StyleMultimodal, got.Preferences.LearningStyle)
	assert.Equal(t, 0.8, got.Goals.TargetMasteryLevel)

	assert.True(t, store.Delete("alice"))
	assert.False(t, store.Delete("alice"))

	_, err = store.Get("alice")
	require.ErrorIs(t, err, ErrProfileNotFound)
}

func TestSaveRejectsInvalidProfiles(t *testing.T) {
	store := newTestStore(newFakeClock())
	require.Error(t, store.Save(nil))
	require.Error(t, store.Save(&StudentProfile{}))
}

func TestUpdateBumpsLastUpdated(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)
	require.NoError(t, store.Save(New("alice", clock.Now())))

	clock.Advance(time.Hour)
	updated, err := store.Update("alice", func(p *StudentProfile) {
		p.GradeLevel = "7"
		p.EngagementLevel = 0.9
	})
	require.NoError(t, err)
	assert.Equal(t, "7", updated.GradeLevel)
	assert.Equal(t, clock.Now(), updated.LastUpdated)

	_, err = store.Update("nobody", func(p *StudentProfile) {})
	require.ErrorIs(t, err, ErrProfileNotFound)
}

func TestListActiveOnly(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)

	require.NoError(t, store.Save(New("fresh", clock.Now())))
	require.NoError(t, store.Save(New("stale", clock.Now())))
	require.NoError(t, store.Save(New("never", clock.Now())))

	require.NoError(t, store.Touch("stale"))
	clock.Advance(40 * 24 * time.Hour)
	require.NoError(t, store.Touch("fresh"))

	all := store.List(false, 0)
	assert.Len(t, all, 3)

	active := store.List(true, 30*24*time.Hour)
	require.Len(t, active, 1)
	assert.Equal(t, "fresh", active[0].StudentID)
}

func TestRecordPerformance(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)
	require.NoError(t, store.Save(New("alice", clock.Now())))

	require.NoError(t, store.RecordPerformance("alice", "fractions", true, 0.9))
	require.NoError(t, store.RecordPerformance("alice", "fractions", false, 0.6))
	require.NoError(t, store.RecordPerformance("alice", "decimals", true, 0.85))

	rec, ok := store.Performance("alice", "fractions")
	require.True(t, ok)
	assert.Equal(t, 2, rec.Attempts)
	assert.Equal(t, 1, rec.Correct)
	assert.Equal(t, 0.6, rec.MasteryLevel)
	assert.Equal(t, 0.5, rec.Accuracy())

	p, err := store.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, 2, p.ConceptsAttempted)
	// Only decimals sits at or above the 0.8 mastery target now.
	assert.Equal(t, 1, p.ConceptsMastered)
	assert.InDelta(t, 0.75, p.AverageAccuracy, 0.001)
	assert.Contains(t, p.StrengthAreas, "fractions")
	assert.Contains(t, p.StrengthAreas, "decimals")
	assert.Equal(t, clock.Now(), p.LastActive)

	require.ErrorIs(t, store.RecordPerformance("nobody", "fractions", true, 0.9), ErrProfileNotFound)

	byStudent := store.PerformanceByStudent("alice")
	assert.Len(t, byStudent, 2)

	// Deleting a profile takes its performance records with it.
	require.True(t, store.Delete("alice"))
	_, ok = store.Performance("alice", "fractions")
	assert.False(t, ok)
}

func TestExportImportRoundTrip(t *testing.T) {
	clock := newFakeClock()
	src := newTestStore(clock)

	alice := New("alice", clock.Now())
	alice.Name = "Alice"
	alice.Preferences.LearningStyle = StyleVisual
	require.NoError(t, src.Save(alice))
	require.NoError(t, src.RecordPerformance("alice", "fractions", true, 0.9))

	data, err := src.ExportJSON()
	require.NoError(t, err)

	dst := newTestStore(clock)
	require.NoError(t, dst.Save(New("bob", clock.Now())))
	require.NoError(t, dst.ImportJSON(data))

	got, err := dst.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, StyleVisual, got.Preferences.LearningStyle)

	rec, ok := dst.Performance("alice", "fractions")
	require.True(t, ok)
	assert.Equal(t, 1, rec.Attempts)

	// Pre-existing entries survive the merge.
	_, err = dst.Get("bob")
	require.NoError(t, err)

	stats := dst.Stats()
	assert.Equal(t, 2, stats["student_profiles_count"])
	assert.Equal(t, 1, stats["total_performance_records"])

	require.Error(t, dst.ImportJSON([]byte("not json")))
}

func TestProfileHelpers(t *testing.T) {
	p := New("alice", time.Now())
	assert.Equal(t, 0.0, p.MasteryRate())
	assert.Equal(t, 0.0, p.LearningEfficiency())

	p.ConceptsAttempted = 10
	p.ConceptsMastered = 4
	p.LearningTimeMinutes = 120
	assert.Equal(t, 0.4, p.MasteryRate())
	assert.Equal(t, 2.0, p.LearningEfficiency())

	p.AddStrengthArea("fractions")
	p.AddStrengthArea("fractions")
	assert.Equal(t, []string{"fractions"}, p.StrengthAreas)
}

func TestConcurrentProfileAccess(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)
	require.NoError(t, store.Save(New("alice", clock.Now())))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update("alice", func(p *StudentProfile) {
				p.LearningTimeMinutes++
			})
			assert.NoError(t, err)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Get("alice")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := store.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, 50, p.LearningTimeMinutes)
}
