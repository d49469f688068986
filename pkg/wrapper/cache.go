package wrapper

import (
	"sync"

	"github.com/shimforge/shimforge/pkg/member"
)

// cache memoizes one wrapper per member identity. Concurrent requests
// for the same member are serialized so exactly one generation runs;
// failures are cached alongside successes, matching the loader's
// define-once discipline.
type cache[V any] struct {
	mu      sync.Mutex
	entries map[member.Key]*cacheEntry[V]
}

type cacheEntry[V any] struct {
	once sync.Once
	val  V
	err  error
}

func (c *cache[V]) get(k member.Key, build func() (V, error)) (V, error) {
	c.mu.Lock()
	if c.entries == nil {
		c.entries = make(map[member.Key]*cacheEntry[V])
	}
	e, ok := c.entries[k]
	if !ok {
		e = &cacheEntry[V]{}
		c.entries[k] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.val, e.err = build()
	})
	return e.val, e.err
}
