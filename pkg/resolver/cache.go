// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

const (
	// NotLoaded is the state of a package nobody has started loading.
	NotLoaded State = iota
	// Loading is the state of a package whose loader is running.
	Loading
	// Loaded is the final state of a successfully loaded package.
	Loaded
)

type (
	// State is the load state of one package.
	State int

	// Handle is the opaque result of loading a package.
	Handle = any

	// LoadCache records the load state of every package. At most one caller
	// wins MarkLoading for a given key; the others Wait for the outcome.
	// A Loaded entry is never reset. A failed load returns its entry to
	// NotLoaded so that a later call can try again.
	LoadCache struct {
		mu      sync.Mutex
		entries map[PackageID]*cacheEntry
	}

	cacheEntry struct {
		state  State
		done   chan struct{}
		handle Handle
		err    error
	}
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case NotLoaded:
		return "not loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// NewLoadCache returns an empty cache.
func NewLoadCache() *LoadCache {
	return &LoadCache{entries: make(map[PackageID]*cacheEntry)}
}

// State returns the current state of id.
func (c *LoadCache) State(id PackageID) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok {
		return e.state
	}
	return NotLoaded
}

// Get returns the handle of a Loaded package.
func (c *LoadCache) Get(id PackageID) (Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok && e.state == Loaded {
		return e.handle, true
	}
	return nil, false
}

// MarkLoading moves id from NotLoaded to Loading and reports whether this
// call made the transition. Exactly one of several concurrent callers wins.
func (c *LoadCache) MarkLoading(id PackageID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; ok {
		return false
	}
	c.entries[id] = &cacheEntry{state: Loading, done: make(chan struct{})}
	return true
}

// Complete records handle for id and wakes every waiter.
// It panics unless id is Loading.
func (c *LoadCache) Complete(id PackageID, handle Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.loading(id, "Complete")
	e.state = Loaded
	e.handle = handle
	close(e.done)
}

// Fail delivers err to every waiter and returns id to NotLoaded.
// It panics unless id is Loading.
func (c *LoadCache) Fail(id PackageID, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.loading(id, "Fail")
	e.state = NotLoaded
	e.err = err
	delete(c.entries, id)
	close(e.done)
}

// Wait blocks until the in-flight load of id completes or fails, or ctx is
// done. A Loaded package returns at once. Waiting on a package nobody is
// loading returns an error wrapping errNotLoading.
func (c *LoadCache) Wait(ctx context.Context, id PackageID) (Handle, error) {
	c.mu.Lock()
	e, ok := c.entries[id]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("wait for %s: %w", id, errNotLoading)
	}

	select {
	case <-e.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	// Entries are immutable once done is closed.
	if e.err != nil {
		return nil, e.err
	}
	return e.handle, nil
}

// Loaded returns the keys of every Loaded package, ordered by their string form.
func (c *LoadCache) Loaded() []PackageID {
	c.mu.Lock()
	ids := make([]PackageID, 0, len(c.entries))
	for id, e := range c.entries {
		if e.state == Loaded {
			ids = append(ids, id)
		}
	}
	c.mu.Unlock()
	slices.SortFunc(ids, func(a, b PackageID) int {
		return strings.Compare(a.String(), b.String())
	})
	return ids
}

func (c *LoadCache) loading(id PackageID, op string) *cacheEntry {
	e, ok := c.entries[id]
	if !ok || e.state != Loading {
		panic(fmt.Sprintf("resolver: %s(%s) on a package that is not loading", op, id))
	}
	return e
}
