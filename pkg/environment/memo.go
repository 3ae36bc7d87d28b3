// SPDX-License-Identifier: MPL-2.0

package environment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// memo caches one computed value per key. Concurrent misses for the same
// key share a single computation. Errors are returned but not cached, so a
// cancelled or failed lookup is retried by the next caller.
//
// A shared computation runs under the context of the caller that started
// it. When that context ends, the callers still waiting with a live context
// retry instead of inheriting its error.
type memo[K comparable, V any] struct {
	mu     sync.RWMutex
	values map[K]V
	group  singleflight.Group
}

func (m *memo[K, V]) get(ctx context.Context, key K, compute func(context.Context) (V, error)) (V, error) {
	m.mu.RLock()
	v, ok := m.values[key]
	m.mu.RUnlock()
	if ok {
		return v, nil
	}

	for {
		res, err, shared := m.group.Do(fmt.Sprint(key), func() (any, error) {
			m.mu.RLock()
			cached, ok := m.values[key]
			m.mu.RUnlock()
			if ok {
				return cached, nil
			}
			computed, err := compute(ctx)
			if err != nil {
				return computed, err
			}
			m.mu.Lock()
			if m.values == nil {
				m.values = make(map[K]V)
			}
			m.values[key] = computed
			m.mu.Unlock()
			return computed, nil
		})
		if err == nil {
			return res.(V), nil
		}
		if shared && isContextError(err) && ctx.Err() == nil {
			continue
		}
		var zero V
		return zero, err
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
