package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/schemascope/backend/internal/domain"
)

// entry is a single cached value with its key and optional expiration.
type entry struct {
	key       string
	value     any
	expiresAt time.Time
}

// LRU is a thread-safe bounded cache with least-recently-used eviction and
// optional TTL. It lives for the process lifetime; there is no persistence.
type LRU struct {
	capacity int
	ttl      time.Duration
	mutex    sync.Mutex
	items    map[string]*list.Element
	order    *list.List // front = most recently used

	// now is injectable for expiry tests.
	now func() time.Time
}

// DefaultCapacity bounds component caches unless configured otherwise.
const DefaultCapacity = 100

// NewLRU creates a cache holding at most capacity entries. A ttl of zero
// means entries never expire.
func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &LRU{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get retrieves a value and marks it as most recently used.
func (c *LRU) Get(key string) (any, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}

	ent := elem.Value.(*entry)
	if c.ttl > 0 && c.now().After(ent.expiresAt) {
		c.order.Remove(elem)
		delete(c.items, key)
		return nil, domain.ErrCacheMiss
	}

	c.order.MoveToFront(elem)
	return ent.value, nil
}

// Set stores a value, evicting the least recently used entry when the cache
// is full.
func (c *LRU) Set(key string, value any) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry)
		ent.value = value
		ent.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).key)
		}
	}

	c.items[key] = c.order.PushFront(&entry{key: key, value: value, expiresAt: expiresAt})
}

// Len returns the current number of cached entries.
func (c *LRU) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.order.Len()
}

// Clear removes all entries.
func (c *LRU) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// SetClock replaces the cache's time source. Test use only.
func (c *LRU) SetClock(now func() time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = now
}
