package cache

import "time"

// Layered puts a memory cache in front of a durable store, promoting
// durable hits into memory.
type Layered struct {
	fast    Cache
	durable Cache
}

// NewLayered wraps a durable cache with a memory layer.
func NewLayered(fast, durable Cache) *Layered {
	return &Layered{fast: fast, durable: durable}
}

// Get checks the memory layer first, then the durable store.
func (l *Layered) Get(key string) ([]byte, bool) {
	if val, found := l.fast.Get(key); found {
		return val, true
	}

	if val, found := l.durable.Get(key); found {
		_ = l.fast.Set(key, val, 0)
		return val, true
	}

	return nil, false
}

// Set stores in both layers.
func (l *Layered) Set(key string, value []byte, ttl time.Duration) error {
	if err := l.fast.Set(key, value, ttl); err != nil {
		return err
	}
	return l.durable.Set(key, value, ttl)
}

// Delete removes from both layers.
func (l *Layered) Delete(key string) error {
	_ = l.fast.Delete(key)
	return l.durable.Delete(key)
}

// Clear empties both layers.
func (l *Layered) Clear() error {
	_ = l.fast.Clear()
	return l.durable.Clear()
}
