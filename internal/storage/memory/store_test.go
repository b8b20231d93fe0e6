package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// manualClock is a Clock that only moves when told to.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s := New(opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// ============================================================
// Get / Set Tests
// ============================================================

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)
	if v, ok := s.Get("nope"); ok || v != nil {
		t.Errorf("Get(missing) = %q, %v; want nil, false", v, ok)
	}
}

func TestStore_SetGet(t *testing.T) {
	s := newTestStore(t)
	s.Set("k", []byte("v"), 0)

	v, ok := s.Get("k")
	if !ok || string(v) != "v" {
		t.Errorf("Get = %q, %v; want \"v\", true", v, ok)
	}
}

func TestStore_SetCopiesValue(t *testing.T) {
	s := newTestStore(t)

	// A small value carved out of a large request buffer.
	buf := make([]byte, 1<<20)
	copy(buf, "value")
	s.Set("k", buf[:5:5], 0)
	copy(buf, "XXXXX")

	v, ok := s.Get("k")
	if !ok || string(v) != "value" {
		t.Fatalf("Get = %q, %v; want the value as it was at Set", v, ok)
	}
	if cap(v) >= len(buf) {
		t.Errorf("cap(stored) = %d, want a private copy instead of the caller's buffer", cap(v))
	}
	if &v[0] == &buf[0] {
		t.Error("stored value aliases the caller's slice")
	}
}

func TestStore_SetEmptyValue(t *testing.T) {
	s := newTestStore(t)
	s.Set("k", []byte{}, 0)

	if v, ok := s.Get("k"); !ok || len(v) != 0 {
		t.Errorf("Get = %q, %v; want empty value, true", v, ok)
	}
}

func TestStore_OverwriteReplacesValue(t *testing.T) {
	s := newTestStore(t)
	s.Set("k", []byte("v1"), 0)
	s.Set("k", []byte("v2"), 0)

	if v, _ := s.Get("k"); string(v) != "v2" {
		t.Errorf("Get = %q, want v2", v)
	}
	if n := s.Len(); n != 1 {
		t.Errorf("Len = %d, want 1", n)
	}
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	s.Set("k", []byte("v"), time.Hour)

	if !s.Delete("k") {
		t.Error("Delete(k) = false, want true")
	}
	if s.Delete("k") {
		t.Error("second Delete(k) = true, want false")
	}
	if _, ok := s.Get("k"); ok {
		t.Error("Get after Delete found the key")
	}
	if n := s.expirations.Len(); n != 0 {
		t.Errorf("expiry index holds %d items after Delete, want 0", n)
	}
}

// ============================================================
// Expiration Tests
// ============================================================

func TestStore_LazyExpiration(t *testing.T) {
	clock := newManualClock()
	s := newTestStore(t, WithClock(clock))

	s.Set("k", []byte("v"), 10*time.Second)
	if v, ok := s.Get("k"); !ok || string(v) != "v" {
		t.Fatalf("Get before deadline = %q, %v", v, ok)
	}

	clock.Advance(9 * time.Second)
	if _, ok := s.Get("k"); !ok {
		t.Fatal("Get one second before deadline missed")
	}

	// The reaper's timer runs on wall time, so only the lazy check can see
	// the manual clock move here.
	clock.Advance(time.Second)
	if v, ok := s.Get("k"); ok {
		t.Errorf("Get at deadline = %q, want absent", v)
	}
	if n := s.Len(); n != 0 {
		t.Errorf("Len = %d, want lazy read to remove the entry", n)
	}
}

func TestStore_OverwriteClearsExpiration(t *testing.T) {
	clock := newManualClock()
	s := newTestStore(t, WithClock(clock))

	s.Set("k", []byte("v"), time.Second)
	s.Set("k", []byte("v2"), 0)

	clock.Advance(time.Hour)
	if v, ok := s.Get("k"); !ok || string(v) != "v2" {
		t.Errorf("Get = %q, %v; want v2 with no residual expiration", v, ok)
	}
	if n := s.expirations.Len(); n != 0 {
		t.Errorf("expiry index holds %d items, want 0", n)
	}
}

func TestStore_OverwriteWithNewExpiration(t *testing.T) {
	clock := newManualClock()
	s := newTestStore(t, WithClock(clock))

	s.Set("k", []byte("v"), time.Second)
	s.Set("k", []byte("v2"), time.Minute)

	clock.Advance(2 * time.Second)
	if _, ok := s.Get("k"); !ok {
		t.Error("old deadline still applied after overwrite")
	}

	clock.Advance(time.Minute)
	if _, ok := s.Get("k"); ok {
		t.Error("new deadline not applied")
	}
}

func TestStore_PurgeExpired(t *testing.T) {
	clock := newManualClock()
	s := newTestStore(t, WithClock(clock))

	s.Set("a", []byte("1"), time.Second)
	s.Set("b", []byte("2"), 2*time.Second)
	s.Set("c", []byte("3"), time.Minute)
	s.Set("d", []byte("4"), 0)

	clock.Advance(2 * time.Second)
	next, ok := s.purgeExpired()
	if !ok {
		t.Fatal("purgeExpired reported no remaining deadline")
	}
	if want := clock.Now().Add(58 * time.Second); !next.Equal(want) {
		t.Errorf("next deadline = %v, want %v", next, want)
	}
	if n := s.Len(); n != 2 {
		t.Errorf("Len = %d, want 2 (c and d)", n)
	}

	clock.Advance(time.Minute)
	if _, ok := s.purgeExpired(); ok {
		t.Error("purgeExpired reported a deadline with only a persistent key left")
	}
	if _, ok := s.Get("d"); !ok {
		t.Error("persistent key was purged")
	}
}

func TestStore_ReaperRemovesWithoutReads(t *testing.T) {
	s := newTestStore(t)

	s.Set("slow", []byte("x"), time.Hour)
	// An earlier deadline must wake the reaper that is sleeping on "slow".
	s.Set("fast", []byte("x"), 20*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for s.Len() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("reaper did not remove expired key, Len = %d", s.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStore_ReaperWakesFromIdle(t *testing.T) {
	s := newTestStore(t)

	// Give the reaper time to go idle with no deadlines tracked.
	time.Sleep(10 * time.Millisecond)
	s.Set("k", []byte("v"), 10*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for s.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("reaper never woke for the first deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// ============================================================
// Close Tests
// ============================================================

func TestStore_CloseStopsReaper(t *testing.T) {
	s := New()
	s.Set("k", []byte("v"), time.Hour)

	done := make(chan struct{})
	go func() {
		_ = s.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	select {
	case <-s.stopped:
	default:
		t.Error("reaper still running after Close")
	}

	// Idempotent.
	if err := s.Close(); err != nil {
		t.Errorf("second Close error: %v", err)
	}
	if v, ok := s.Get("k"); !ok || string(v) != "v" {
		t.Errorf("Get after Close = %q, %v", v, ok)
	}
}

// ============================================================
// Concurrency Tests
// ============================================================

func TestStore_ConcurrentAccess(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("k%d", i%50)
				s.Set(key, []byte(fmt.Sprintf("%d-%d", g, i)), time.Duration(i%3)*time.Millisecond)
				s.Get(key)
			}
		}(g)
	}
	wg.Wait()

	// Every tracked deadline must belong to a live entry version.
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expirations.Ascend(func(item expiration) bool {
		e, ok := s.entries[item.key]
		if !ok || e.seq != item.seq {
			t.Errorf("stale expiry item for %q (seq %d)", item.key, item.seq)
		}
		return true
	})
}

// ============================================================
// Metrics Tests
// ============================================================

func TestStore_RegisterMetrics(t *testing.T) {
	clock := newManualClock()
	reg := prometheus.NewRegistry()
	// No reaper: every expiration below is driven by the test.
	s := newStore(WithClock(clock)).RegisterMetrics(reg)

	s.Set("a", []byte("1"), time.Second)
	s.Set("b", []byte("2"), time.Second)
	s.Set("c", []byte("3"), 0)

	clock.Advance(time.Second)
	s.Get("a")
	s.purgeExpired()

	if got := testutil.ToFloat64(s.expiredKeys.WithLabelValues(ExpiredLazy)); got != 1 {
		t.Errorf("lazy expirations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.expiredKeys.WithLabelValues(ExpiredActive)); got != 1 {
		t.Errorf("active expirations = %v, want 1", got)
	}

	count, err := testutil.GatherAndCount(reg, "respkv_store_keys")
	if err != nil {
		t.Fatalf("GatherAndCount error: %v", err)
	}
	if count != 1 {
		t.Errorf("respkv_store_keys series = %d, want 1", count)
	}
}
