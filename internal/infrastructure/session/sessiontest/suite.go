// Package sessiontest provides the test suite shared by the session store
// implementations.
package sessiontest

import (
	"context"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-vault/internal/core/ports"
	"github.com/tdex-network/tdex-vault/pkg/securestore"
)

// NewStoreFunc returns an empty store with the given ttl and clock.
type NewStoreFunc func(t *testing.T, ttl time.Duration, c clock.Clock) ports.SessionStore

// TestStore runs the shared suite against the store returned by newStore.
func TestStore(t *testing.T, newStore NewStoreFunc) {
	ctx := context.Background()
	key := securestore.SessionKey{1, 2, 3}
	start := time.Unix(1700000000, 0)

	t.Run("save load delete", func(t *testing.T) {
		s := newStore(t, time.Minute, clock.NewTestClock(start))

		loaded, err := s.Load(ctx)
		require.NoError(t, err)
		require.Nil(t, loaded)

		require.NoError(t, s.Save(ctx, key))
		loaded, err = s.Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		require.Equal(t, key, *loaded)

		require.NoError(t, s.Delete(ctx))
		loaded, err = s.Load(ctx)
		require.NoError(t, err)
		require.Nil(t, loaded)

		require.NoError(t, s.Delete(ctx))
	})

	t.Run("expiration", func(t *testing.T) {
		c := clock.NewTestClock(start)
		s := newStore(t, time.Minute, c)

		require.NoError(t, s.Save(ctx, key))
		c.SetTime(start.Add(59 * time.Second))
		loaded, err := s.Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, loaded)

		c.SetTime(start.Add(time.Minute))
		loaded, err = s.Load(ctx)
		require.NoError(t, err)
		require.Nil(t, loaded)
	})

	t.Run("no ttl", func(t *testing.T) {
		c := clock.NewTestClock(start)
		s := newStore(t, 0, c)

		require.NoError(t, s.Save(ctx, key))
		c.SetTime(start.Add(365 * 24 * time.Hour))
		loaded, err := s.Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, loaded)
	})

	t.Run("overwrite", func(t *testing.T) {
		s := newStore(t, time.Minute, clock.NewTestClock(start))
		other := securestore.SessionKey{4, 5, 6}

		require.NoError(t, s.Save(ctx, key))
		require.NoError(t, s.Save(ctx, other))
		loaded, err := s.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, other, *loaded)
	})
}
