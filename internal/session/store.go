// Package session keeps the most recent upload of each chat session in memory.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/windrose-service/internal/domain"
)

// EvictReason labels why an entry left the store.
type EvictReason string

const (
	EvictCapacity EvictReason = "capacity"
	EvictExpired  EvictReason = "expired"
)

// Store maps session IDs to their latest RecordSet. Entries are replaced
// whole on re-upload, bounded by an LRU capacity and expire ttl after the
// upload. Safe for concurrent use.
type Store struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock
	onEvict    func(EvictReason)
	onResize   func(int)

	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // most recently used
	tail    *entry // least recently used
}

type entry struct {
	key      string
	value    *domain.RecordSet
	storedAt time.Time
	prev     *entry
	next     *entry
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for expiry.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithEvictionHook is called, under the store lock, whenever an entry is dropped.
func WithEvictionHook(fn func(EvictReason)) Option {
	return func(s *Store) { s.onEvict = fn }
}

// WithSizeObserver is called, under the store lock, with the new entry count
// whenever it changes.
func WithSizeObserver(fn func(int)) Option {
	return func(s *Store) { s.onResize = fn }
}

// New creates a store holding at most maxEntries sessions. A ttl of zero
// keeps entries until they are evicted for capacity.
func New(maxEntries int, ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clockwork.NewRealClock(),
		entries:    make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores set under id, superseding any previous upload.
func (s *Store) Put(id string, set *domain.RecordSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if e, ok := s.entries[id]; ok {
		e.value = set
		e.storedAt = now
		s.moveToFront(e)
		return
	}

	e := &entry{key: id, value: set, storedAt: now}
	s.entries[id] = e
	s.addToFront(e)

	if s.maxEntries > 0 && len(s.entries) > s.maxEntries {
		s.evict(s.tail, EvictCapacity)
	}
	s.resized()
}

// Get returns the latest upload for id.
func (s *Store) Get(id string) (*domain.RecordSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	if s.expired(e) {
		s.evict(e, EvictExpired)
		return nil, false
	}
	s.moveToFront(e)
	return e.value, true
}

// Delete forgets id.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		delete(s.entries, e.key)
		s.remove(e)
		s.resized()
	}
}

// Len returns the number of stored sessions, including expired entries not
// yet swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops every expired entry and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for e := s.tail; e != nil; {
		prev := e.prev
		if s.expired(e) {
			s.evict(e, EvictExpired)
			n++
		}
		e = prev
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.Sweep()
		}
	}
}

func (s *Store) expired(e *entry) bool {
	return s.ttl > 0 && s.clock.Since(e.storedAt) >= s.ttl
}

func (s *Store) evict(e *entry, reason EvictReason) {
	if e == nil {
		return
	}
	delete(s.entries, e.key)
	s.remove(e)
	if s.onEvict != nil {
		s.onEvict(reason)
	}
	s.resized()
}

func (s *Store) resized() {
	if s.onResize != nil {
		s.onResize(len(s.entries))
	}
}

func (s *Store) moveToFront(e *entry) {
	if e == s.head {
		return
	}
	s.remove(e)
	s.addToFront(e)
}

func (s *Store) addToFront(e *entry) {
	e.next = s.head
	e.prev = nil
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *Store) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
	e.prev, e.next = nil, nil
}
