package memory

import (
	"bytes"
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/prometheus/client_golang/prometheus"
)

// expiryTreeDegree is the B-tree node degree of the expiry index.
const expiryTreeDegree = 32

// Expiration paths reported by the expired-keys counter.
const (
	ExpiredLazy   = "lazy"
	ExpiredActive = "active"
)

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiration
	seq       uint64
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// expiration is one item of the expiry index. seq breaks ties between keys
// that share a deadline and identifies the entry version that scheduled it.
type expiration struct {
	at  time.Time
	seq uint64
	key string
}

func expirationLess(a, b expiration) bool {
	if !a.at.Equal(b.at) {
		return a.at.Before(b.at)
	}
	return a.seq < b.seq
}

// Store is a mutex-guarded map from key to value with optional expiration.
type Store struct {
	mu          sync.Mutex
	entries     map[string]entry
	expirations *btree.BTreeG[expiration]
	seq         uint64
	closed      bool
	expiredKeys *prometheus.CounterVec

	clock Clock

	// wake has capacity one so notifications coalesce.
	wake      chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// Option configures the Store.
type Option func(*Store)

// WithClock sets the clock used to compute and check deadlines.
func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// New creates a store and starts its reaper goroutine. Call Close to stop it.
func New(opts ...Option) *Store {
	s := newStore(opts...)
	go s.reap()
	return s
}

func newStore(opts ...Option) *Store {
	s := &Store{
		entries:     make(map[string]entry),
		expirations: btree.NewG[expiration](expiryTreeDegree, expirationLess),
		clock:       systemClock{},
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value stored under key.
//
// An entry whose deadline has passed is reported absent and removed, even if
// the reaper has not swept it yet.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(s.clock.Now()) {
		s.removeLocked(key, e)
		s.countExpiredLocked(ExpiredLazy, 1)
		return nil, false
	}
	return e.value, true
}

// Set stores a copy of value under key, replacing any previous entry and its
// deadline. A positive expire schedules removal after that duration;
// otherwise the entry never expires.
//
// The caller keeps ownership of value. Request payloads point into the
// connection read buffer, and keeping them would pin that whole buffer.
func (s *Store) Set(key string, value []byte, expire time.Duration) {
	value = bytes.Clone(value)

	s.mu.Lock()

	if prev, ok := s.entries[key]; ok && !prev.expiresAt.IsZero() {
		s.expirations.Delete(expiration{at: prev.expiresAt, seq: prev.seq, key: key})
	}

	s.seq++
	e := entry{value: value, seq: s.seq}

	notify := false
	if expire > 0 {
		e.expiresAt = s.clock.Now().Add(expire)

		// Wake the reaper only when this deadline becomes the earliest one.
		next, ok := s.expirations.Min()
		notify = !ok || e.expiresAt.Before(next.at)

		s.expirations.ReplaceOrInsert(expiration{at: e.expiresAt, seq: e.seq, key: key})
	}
	s.entries[key] = e

	s.mu.Unlock()

	if notify {
		s.notify()
	}
}

// Delete removes key and reports whether a live entry was present.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	s.removeLocked(key, e)
	return !e.expired(s.clock.Now())
}

// Len returns the number of physically stored entries, including expired
// entries that have not been swept yet.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the reaper and waits for it to exit. The map stays readable
// afterwards but expired entries are only removed lazily.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		close(s.done)
		<-s.stopped
	})
	return nil
}

// RegisterMetrics registers the store's key count and expiration metrics.
//
// Returns the store for method chaining.
func (s *Store) RegisterMetrics(registry prometheus.Registerer) *Store {
	keys := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "respkv",
		Subsystem: "store",
		Name:      "keys",
		Help:      "Number of entries held by the store, including expired entries not yet swept",
	}, func() float64 {
		return float64(s.Len())
	})

	expired := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "respkv",
		Subsystem: "store",
		Name:      "expired_keys_total",
		Help:      "Entries removed because their deadline passed, by removal path",
	}, []string{"path"})

	registry.MustRegister(keys, expired)

	s.mu.Lock()
	s.expiredKeys = expired
	s.mu.Unlock()

	return s
}

func (s *Store) removeLocked(key string, e entry) {
	delete(s.entries, key)
	if !e.expiresAt.IsZero() {
		s.expirations.Delete(expiration{at: e.expiresAt, seq: e.seq, key: key})
	}
}

func (s *Store) countExpiredLocked(path string, n int) {
	if s.expiredKeys == nil || n == 0 {
		return
	}
	s.expiredKeys.WithLabelValues(path).Add(float64(n))
}

func (s *Store) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// purgeExpired removes every entry whose deadline has passed and returns the
// next deadline still tracked, if any.
func (s *Store) purgeExpired() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return time.Time{}, false
	}

	now := s.clock.Now()
	removed := 0
	for {
		next, ok := s.expirations.Min()
		if !ok {
			break
		}
		if now.Before(next.at) {
			s.countExpiredLocked(ExpiredActive, removed)
			return next.at, true
		}

		s.expirations.DeleteMin()
		if e, ok := s.entries[next.key]; ok && e.seq == next.seq {
			delete(s.entries, next.key)
			removed++
		}
	}

	s.countExpiredLocked(ExpiredActive, removed)
	return time.Time{}, false
}

// reap is the background expiration loop. It sleeps until the earliest
// deadline, or until Set schedules an earlier one, and exits on Close.
func (s *Store) reap() {
	defer close(s.stopped)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		next, ok := s.purgeExpired()

		var fire <-chan time.Time
		if ok {
			timer.Reset(next.Sub(s.clock.Now()))
			fire = timer.C
		}

		select {
		case <-fire:
		case <-s.wake:
		case <-s.done:
			return
		}
		timer.Stop()
	}
}
