// Package mutation applies optimistic updates to cached server state.
package mutation

import (
	"context"

	"github.com/de-tools/report-scheduler/pkg/services/cache"
	"github.com/rs/zerolog"
)

// Optimistic describes a change of the value cached under Key, driven by vars of type V.
type Optimistic[T, V any] struct {
	Key cache.Key
	// Apply computes the speculative value from the cached one. The zero T is passed on a miss.
	Apply func(prev T, vars V) T
	// Request sends the change to the server.
	Request func(ctx context.Context, vars V) error
	// Reload fetches the server value after a successful request. When nil Key is only invalidated.
	Reload func(ctx context.Context) (T, error)
	// Related keys are invalidated after a successful request.
	Related []cache.Key
}

// Run snapshots the cached value, stores the speculative value and sends the request.
// On success the key is invalidated and reloaded; on failure the snapshot is restored
// and the request error returned.
func Run[T, V any](ctx context.Context, c *cache.Cache, m Optimistic[T, V], vars V) error {
	logger := zerolog.Ctx(ctx)

	snapshot, cached := cache.Lookup[T](c, m.Key)
	if m.Apply != nil {
		c.Set(m.Key, m.Apply(snapshot, vars))
	}

	if err := m.Request(ctx, vars); err != nil {
		if cached {
			c.Set(m.Key, snapshot)
		} else {
			c.Invalidate(m.Key)
		}
		logger.Debug().Err(err).Str("key", m.Key.String()).Msg("mutation rolled back")
		return err
	}

	c.Invalidate(m.Key)
	for _, k := range m.Related {
		c.Invalidate(k)
	}

	if m.Reload == nil {
		return nil
	}
	if _, err := cache.Refetch(ctx, c, m.Key, m.Reload); err != nil {
		// The change is persisted; the key stays invalidated and is loaded on next read.
		logger.Warn().Err(err).Str("key", m.Key.String()).Msg("failed to reload after mutation")
	}
	return nil
}
