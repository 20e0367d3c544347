package browse

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Status is the state of the desired key.
type Status int

const (
	StatusEmpty Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	}
	return "empty"
}

// Fetcher loads the value for a key.
type Fetcher[V any] func(ctx context.Context, k Key) (V, error)

// View is a snapshot of what a Cache renders.
type View[V any] struct {
	// Display is the key whose value is shown; nil until the first fetch
	// completes.
	Display Key
	Value   V
	// Desired is the most recently requested key.
	Desired Key
	Status  Status
	// Err is the last failure for Desired. The display is unchanged.
	Err error
}

// Cache is a read-through result cache. Fetches for the same key are
// shared, and the display only moves when the fetch for the currently
// desired key completes. Entries are never evicted.
type Cache[V any] struct {
	fetch Fetcher[V]
	group singleflight.Group

	mu      sync.Mutex
	entries map[Key]V
	loading map[Key]bool
	display Key
	desired Key
	err     error
}

// NewCache creates a cache backed by fetch.
func NewCache[V any](fetch Fetcher[V]) *Cache[V] {
	return &Cache[V]{
		fetch:   fetch,
		entries: make(map[Key]V),
		loading: make(map[Key]bool),
	}
}

// Request makes k the desired key and returns its value. A Ready entry is
// displayed at once without a fetch. Otherwise the display stays where it
// is until the fetch resolves; if k is no longer desired by then the value
// is stored but not displayed. A failed fetch leaves the display and all
// entries untouched.
//
// The fetch is shared by every caller of k and is not cancelled by any one
// of them; a caller whose ctx ends returns ctx.Err() while the fetch goes on.
func (c *Cache[V]) Request(ctx context.Context, k Key) (V, error) {
	c.mu.Lock()
	c.desired = k
	c.err = nil
	if v, ok := c.entries[k]; ok {
		c.display = k
		c.mu.Unlock()
		return v, nil
	}
	c.loading[k] = true
	c.mu.Unlock()

	ch := c.group.DoChan(k.flightKey(), func() (interface{}, error) {
		return c.load(context.WithoutCancel(ctx), k)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		return res.Val.(V), nil
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// load runs inside the flight, so the entry is stored before the flight
// ends and a later Request for k finds it.
func (c *Cache[V]) load(ctx context.Context, k Key) (V, error) {
	c.mu.Lock()
	if v, ok := c.entries[k]; ok {
		delete(c.loading, k)
		if c.desired == k {
			c.display = k
		}
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err := c.fetch(ctx, k)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.loading, k)
	if err != nil {
		if c.desired == k {
			c.err = err
		}
		var zero V
		return zero, err
	}
	c.entries[k] = v
	if c.desired == k {
		c.display = k
	}
	return v, nil
}

// Peek returns the Ready entry of k, if any.
func (c *Cache[V]) Peek(k Key) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[k]
	return v, ok
}

// Status reports the state of the desired key.
func (c *Cache[V]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Cache[V]) statusLocked() Status {
	if c.desired == nil {
		return StatusEmpty
	}
	if _, ok := c.entries[c.desired]; ok {
		return StatusReady
	}
	if c.loading[c.desired] {
		return StatusLoading
	}
	if c.err != nil {
		return StatusFailed
	}
	return StatusEmpty
}

// View returns a snapshot of the display.
func (c *Cache[V]) View() View[V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View[V]{
		Display: c.display,
		Desired: c.desired,
		Status:  c.statusLocked(),
		Err:     c.err,
	}
	if c.display != nil {
		v.Value = c.entries[c.display]
	}
	return v
}
