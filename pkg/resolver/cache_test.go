// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"

	"github.com/loadgraph/loadgraph/pkg/types"
)

var (
	keyA = NewPackageID(types.MustParseIdentity("00000000-0000-4000-8000-00000000000a"), "A")
	keyB = NewPackageID(types.NilIdentity, "B")
)

func TestNewPackageID(t *testing.T) {
	t.Parallel()

	id := types.MustParseIdentity("00000000-0000-4000-8000-00000000000a")
	if NewPackageID(id, "A") != NewPackageID(id, "Alias") {
		t.Error("keys of one identity differ by name")
	}
	if NewPackageID(types.NilIdentity, "A") == NewPackageID(types.NilIdentity, "B") {
		t.Error("keys without identity do not differ by name")
	}
	if got := keyB.String(); got != "B" {
		t.Errorf("String() = %q, want B", got)
	}
	if got := keyA.String(); got != id.String() {
		t.Errorf("String() = %q, want %s", got, id)
	}
}

func TestLoadCacheTransitions(t *testing.T) {
	t.Parallel()

	c := NewLoadCache()
	if s := c.State(keyA); s != NotLoaded {
		t.Fatalf("State() = %s, want %s", s, NotLoaded)
	}
	if !c.MarkLoading(keyA) {
		t.Fatal("first MarkLoading() = false")
	}
	if c.MarkLoading(keyA) {
		t.Fatal("second MarkLoading() = true")
	}
	if s := c.State(keyA); s != Loading {
		t.Fatalf("State() = %s, want %s", s, Loading)
	}
	if _, ok := c.Get(keyA); ok {
		t.Fatal("Get() found a loading package")
	}

	c.Complete(keyA, "handle")
	if s := c.State(keyA); s != Loaded {
		t.Fatalf("State() = %s, want %s", s, Loaded)
	}
	if h, ok := c.Get(keyA); !ok || h != "handle" {
		t.Fatalf("Get() = %v, %v", h, ok)
	}
	if c.MarkLoading(keyA) {
		t.Fatal("MarkLoading() reset a loaded package")
	}
	if h, err := c.Wait(context.Background(), keyA); err != nil || h != "handle" {
		t.Fatalf("Wait() = %v, %v", h, err)
	}
	if got := c.Loaded(); len(got) != 1 || got[0] != keyA {
		t.Errorf("Loaded() = %v", got)
	}
}

func TestLoadCacheFailResets(t *testing.T) {
	t.Parallel()

	c := NewLoadCache()
	errBoom := errors.New("boom")
	c.MarkLoading(keyB)
	c.Fail(keyB, errBoom)

	if s := c.State(keyB); s != NotLoaded {
		t.Fatalf("State() = %s, want %s", s, NotLoaded)
	}
	if _, err := c.Wait(context.Background(), keyB); !errors.Is(err, errNotLoading) {
		t.Errorf("Wait() error = %v, want errNotLoading", err)
	}
	if !c.MarkLoading(keyB) {
		t.Error("MarkLoading() after Fail = false")
	}
}

func TestLoadCacheContractViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(*LoadCache)
		op    func(*LoadCache)
	}{
		{"complete not loading", func(*LoadCache) {}, func(c *LoadCache) { c.Complete(keyA, nil) }},
		{"fail not loading", func(*LoadCache) {}, func(c *LoadCache) { c.Fail(keyA, errors.New("x")) }},
		{"complete twice", func(c *LoadCache) { c.MarkLoading(keyA); c.Complete(keyA, 1) }, func(c *LoadCache) { c.Complete(keyA, 2) }},
		{"fail after complete", func(c *LoadCache) { c.MarkLoading(keyA); c.Complete(keyA, 1) }, func(c *LoadCache) { c.Fail(keyA, errors.New("x")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := NewLoadCache()
			tt.setup(c)
			defer func() {
				if recover() == nil {
					t.Error("expected a panic")
				}
			}()
			tt.op(c)
		})
	}
}

func TestLoadCacheWaitersShareOutcome(t *testing.T) {
	t.Parallel()

	for _, fail := range []bool{false, true} {
		synctest.Test(t, func(t *testing.T) {
			c := NewLoadCache()
			errBoom := errors.New("boom")
			c.MarkLoading(keyA)

			const waiters = 8
			var wg sync.WaitGroup
			results := make([]error, waiters)
			handles := make([]Handle, waiters)
			for i := range waiters {
				wg.Go(func() {
					handles[i], results[i] = c.Wait(context.Background(), keyA)
				})
			}
			synctest.Wait()

			if fail {
				c.Fail(keyA, errBoom)
			} else {
				c.Complete(keyA, "ok")
			}
			wg.Wait()

			for i := range waiters {
				if fail && !errors.Is(results[i], errBoom) {
					t.Errorf("waiter %d error = %v, want %v", i, results[i], errBoom)
				}
				if !fail && (results[i] != nil || handles[i] != "ok") {
					t.Errorf("waiter %d = %v, %v", i, handles[i], results[i])
				}
			}
		})
	}
}

func TestLoadCacheWaitCancelled(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		c := NewLoadCache()
		c.MarkLoading(keyA)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			_, err := c.Wait(ctx, keyA)
			done <- err
		}()
		synctest.Wait()
		cancel()

		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("Wait() error = %v, want context.Canceled", err)
		}
		if s := c.State(keyA); s != Loading {
			t.Errorf("State() = %s; a cancelled waiter must not change it", s)
		}
	})
}
