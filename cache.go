package mold

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/clockz"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/language"
)

// Key identifies a cached conversion result. Property is empty for
// whole-object entries.
type Key struct {
	ContentID int
	Type      reflect.Type
	Property  string
	Culture   language.Tag
}

// String returns a readable form of the key.
func (k Key) String() string {
	return fmt.Sprintf("%d|%s|%s|%s", k.ContentID, typeName(k.Type), k.Property, k.Culture.String())
}

// Fingerprint returns a fixed-length digest of the key, used as the store key.
func (k Key) Fingerprint() string {
	sum := blake2b.Sum256([]byte(k.String()))
	return hex.EncodeToString(sum[:16])
}

// CachePolicy configures whole-object caching for a model type.
type CachePolicy struct {
	TTL time.Duration // Zero means the cache default
}

// Cacheable is implemented by model types whose converted instances are cached
// by node, type and culture. The method is called on the zero value.
type Cacheable interface {
	CachePolicy() CachePolicy
}

// Entry is a stored cache value.
type Entry struct {
	Value   any
	Expires time.Time // Zero means no expiry
}

// Store persists cache entries by fingerprint. Implementations must be safe
// for concurrent use.
type Store interface {
	Load(key string) (Entry, bool)
	Store(key string, e Entry)
	Delete(key string)
	Clear()
	Len() int
}

// memoryStore is the default in-process Store.
type memoryStore struct {
	m sync.Map
	n atomic.Int64
}

// NewMemoryStore returns an in-process Store backed by sync.Map.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (s *memoryStore) Load(key string) (Entry, bool) {
	v, ok := s.m.Load(key)
	if !ok {
		return Entry{}, false
	}
	return v.(Entry), true
}

func (s *memoryStore) Store(key string, e Entry) {
	if _, loaded := s.m.Swap(key, e); !loaded {
		s.n.Add(1)
	}
}

func (s *memoryStore) Delete(key string) {
	if _, loaded := s.m.LoadAndDelete(key); loaded {
		s.n.Add(-1)
	}
}

func (s *memoryStore) Clear() {
	s.m.Range(func(k, _ any) bool {
		s.Delete(k.(string))
		return true
	})
}

func (s *memoryStore) Len() int {
	return int(s.n.Load())
}

// Cache memoizes conversion results. Concurrent misses on the same key may
// compute more than once; the last write wins.
type Cache struct {
	store      Store
	clock      clockz.Clock
	defaultTTL time.Duration
	disabled   bool
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithStore sets the backing store.
func WithStore(s Store) CacheOption {
	return func(c *Cache) { c.store = s }
}

// WithCacheClock sets the clock used for expiry.
func WithCacheClock(clock clockz.Clock) CacheOption {
	return func(c *Cache) { c.clock = clock }
}

// WithDefaultTTL sets the TTL used when a policy or tag does not specify one.
// Zero means entries never expire.
func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.defaultTTL = ttl }
}

// WithCacheDisabled turns the cache into a pass-through when disabled is true.
func WithCacheDisabled(disabled bool) CacheOption {
	return func(c *Cache) { c.disabled = disabled }
}

// NewCache returns a Cache with an in-memory store and the real clock.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		store: NewMemoryStore(),
		clock: clockz.RealClock,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute returns the cached value for key, or runs compute and stores
// its result. Errors are returned but never cached. hit reports whether
// compute was skipped.
func (c *Cache) GetOrCompute(key Key, ttl time.Duration, compute func() (any, error)) (value any, hit bool, err error) {
	if c.disabled {
		v, err := compute()
		return v, false, err
	}

	fp := key.Fingerprint()
	if e, ok := c.store.Load(fp); ok {
		if e.Expires.IsZero() || c.clock.Now().Before(e.Expires) {
			return e.Value, true, nil
		}
		c.store.Delete(fp)
	}

	v, err := compute()
	if err != nil {
		return nil, false, err
	}

	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	e := Entry{Value: v}
	if ttl > 0 {
		e.Expires = c.clock.Now().Add(ttl)
	}
	c.store.Store(fp, e)
	return v, false, nil
}

// Invalidate removes the entry for key.
func (c *Cache) Invalidate(key Key) {
	c.store.Delete(key.Fingerprint())
}

// Purge removes every entry.
func (c *Cache) Purge() {
	c.store.Clear()
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (c *Cache) Len() int {
	return c.store.Len()
}
