package memkv

import (
	"sync"
	"sync/atomic"
	"time"
)

// Options tunes a Store. The zero value is usable: safe copy semantics
// and a 30s expiry sweep.
type Options struct {
	// CopyOnSet copies the value slice on Set. Disabled only when the
	// caller hands over ownership of the slice.
	CopyOnSet bool
	// CopyOnGet copies the value slice on Get.
	CopyOnGet bool
	// SweepInterval is how often the background sweeper drops expired
	// entries that nobody read. 0 means the 30s default.
	SweepInterval time.Duration
}

func (o Options) withDefaults() Options {
	res := o
	if !res.CopyOnSet {
		res.CopyOnSet = true
	}
	if !res.CopyOnGet {
		res.CopyOnGet = true
	}
	if res.SweepInterval <= 0 {
		res.SweepInterval = 30 * time.Second
	}
	return res
}

// Metrics is a snapshot of store counters.
type Metrics struct {
	Keys    uint64
	Sets    uint64
	Gets    uint64
	Hits    uint64
	Misses  uint64
	Dels    uint64
	Expired uint64
}

type entry struct {
	val      []byte
	expireAt int64 // unix nano, 0 = no expiry
}

// Store is a mutex-guarded map with TTL support. Safe for concurrent use.
type Store struct {
	opts    Options
	mu      sync.RWMutex
	m       map[string]entry
	closeCh chan struct{}
	wg      sync.WaitGroup

	nowFn func() time.Time // swapped in tests

	mSets    atomic.Uint64
	mGets    atomic.Uint64
	mHits    atomic.Uint64
	mMisses  atomic.Uint64
	mDels    atomic.Uint64
	mExpired atomic.Uint64
}

func New(opts Options) *Store {
	s := &Store{
		opts:    opts.withDefaults(),
		m:       make(map[string]entry, 64),
		closeCh: make(chan struct{}),
		nowFn:   time.Now,
	}
	s.wg.Add(1)
	go s.sweeper()
	return s
}

// Close stops the background sweeper. The store stays readable.
func (s *Store) Close() {
	select {
	case <-s.closeCh:
	default:
		close(s.closeCh)
	}
	s.wg.Wait()
}

func (s *Store) copyIfNeeded(b []byte, doCopy bool) []byte {
	if !doCopy || b == nil {
		return b
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Set stores val under key with an optional TTL (0 = no expiry).
// Reports whether the key was created rather than overwritten.
func (s *Store) Set(key string, val []byte, ttl time.Duration) bool {
	s.mSets.Add(1)
	expAt := int64(0)
	if ttl > 0 {
		expAt = s.nowFn().Add(ttl).UnixNano()
	}
	v := s.copyIfNeeded(val, s.opts.CopyOnSet)

	s.mu.Lock()
	_, existed := s.m[key]
	s.m[key] = entry{val: v, expireAt: expAt}
	s.mu.Unlock()
	return !existed
}

// Get returns the value for key. Expired entries are dropped and
// reported as missing.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mGets.Add(1)
	now := s.nowFn().UnixNano()

	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()
	if !ok {
		s.mMisses.Add(1)
		return nil, false
	}
	if e.expireAt != 0 && e.expireAt <= now {
		s.dropExpired(key, e.expireAt)
		s.mMisses.Add(1)
		return nil, false
	}
	s.mHits.Add(1)
	return s.copyIfNeeded(e.val, s.opts.CopyOnGet), true
}

// GetDel returns the value for key and removes it in one step.
func (s *Store) GetDel(key string) ([]byte, bool) {
	now := s.nowFn().UnixNano()

	s.mu.Lock()
	e, ok := s.m[key]
	if ok {
		delete(s.m, key)
	}
	s.mu.Unlock()
	if !ok {
		s.mMisses.Add(1)
		return nil, false
	}
	s.mDels.Add(1)
	if e.expireAt != 0 && e.expireAt <= now {
		s.mExpired.Add(1)
		s.mMisses.Add(1)
		return nil, false
	}
	s.mHits.Add(1)
	return s.copyIfNeeded(e.val, s.opts.CopyOnGet), true
}

// Del removes key and reports whether it existed.
func (s *Store) Del(key string) bool {
	s.mu.Lock()
	_, ok := s.m[key]
	if ok {
		delete(s.m, key)
	}
	s.mu.Unlock()
	if ok {
		s.mDels.Add(1)
	}
	return ok
}

// TTL reports the remaining lifetime of key. ok is false when the key is
// missing or expired; d is 0 for keys without expiry.
func (s *Store) TTL(key string) (d time.Duration, ok bool) {
	now := s.nowFn()

	s.mu.RLock()
	e, exists := s.m[key]
	s.mu.RUnlock()
	if !exists {
		return 0, false
	}
	if e.expireAt == 0 {
		return 0, true
	}
	rem := time.Duration(e.expireAt - now.UnixNano())
	if rem <= 0 {
		s.dropExpired(key, e.expireAt)
		return 0, false
	}
	return rem, true
}

// Len returns the number of stored keys, including not-yet-swept
// expired ones.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// Range calls fn for every live entry until fn returns false. The value
// slice must not be retained.
func (s *Store) Range(fn func(key string, val []byte) bool) {
	now := s.nowFn().UnixNano()
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, e := range s.m {
		if e.expireAt != 0 && e.expireAt <= now {
			continue
		}
		if !fn(k, e.val) {
			return
		}
	}
}

// Metrics returns a snapshot of the store counters.
func (s *Store) Metrics() Metrics {
	s.mu.RLock()
	keys := uint64(len(s.m))
	s.mu.RUnlock()
	return Metrics{
		Keys:    keys,
		Sets:    s.mSets.Load(),
		Gets:    s.mGets.Load(),
		Hits:    s.mHits.Load(),
		Misses:  s.mMisses.Load(),
		Dels:    s.mDels.Load(),
		Expired: s.mExpired.Load(),
	}
}

// dropExpired removes key only if it still holds the same expired entry,
// so a concurrent Set is never clobbered.
func (s *Store) dropExpired(key string, expireAt int64) {
	s.mu.Lock()
	if e, ok := s.m[key]; ok && e.expireAt == expireAt {
		delete(s.m, key)
		s.mExpired.Add(1)
	}
	s.mu.Unlock()
}

func (s *Store) sweeper() {
	defer s.wg.Done()
	t := time.NewTicker(s.opts.SweepInterval)
	defer t.Stop()
	for {
		select {
		case <-s.closeCh:
			return
		case <-t.C:
			now := s.nowFn().UnixNano()
			s.mu.Lock()
			for k, e := range s.m {
				if e.expireAt != 0 && e.expireAt <= now {
					delete(s.m, k)
					s.mExpired.Add(1)
				}
			}
			s.mu.Unlock()
		}
	}
}
