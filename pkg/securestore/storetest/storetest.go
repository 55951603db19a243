// Package storetest holds the behavior every securestore.Storage backend is
// expected to share.
package storetest

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-vault/pkg/securestore"
)

// TestStorage runs the shared test suite against fresh storages returned by
// newStore.
func TestStorage(
	t *testing.T, newStore func(t *testing.T) securestore.Storage,
) {
	t.Run("set and get", func(t *testing.T) {
		store := newStore(t)

		err := store.Set(map[string][]byte{
			"vault_a": []byte("a"),
			"vault_b": []byte("b"),
		})
		require.NoError(t, err)

		values, err := store.Get("vault_a", "vault_b", "vault_c")
		require.NoError(t, err)
		require.Equal(t, map[string][]byte{
			"vault_a": []byte("a"),
			"vault_b": []byte("b"),
		}, values)

		err = store.Set(map[string][]byte{"vault_a": []byte("aa")})
		require.NoError(t, err)
		values, err = store.Get("vault_a")
		require.NoError(t, err)
		require.Equal(t, []byte("aa"), values["vault_a"])
	})

	t.Run("returned values are copies", func(t *testing.T) {
		store := newStore(t)

		value := []byte("value")
		require.NoError(t, store.Set(map[string][]byte{"key": value}))
		value[0] = 'X'

		values, err := store.Get("key")
		require.NoError(t, err)
		require.Equal(t, []byte("value"), values["key"])

		values["key"][0] = 'Y'
		values, err = store.Get("key")
		require.NoError(t, err)
		require.Equal(t, []byte("value"), values["key"])
	})

	t.Run("remove", func(t *testing.T) {
		store := newStore(t)

		err := store.Set(map[string][]byte{
			"vault_a": []byte("a"),
			"vault_b": []byte("b"),
		})
		require.NoError(t, err)

		require.NoError(t, store.Remove("vault_a", "vault_missing"))

		values, err := store.Get("vault_a", "vault_b")
		require.NoError(t, err)
		require.Equal(t, map[string][]byte{"vault_b": []byte("b")}, values)
	})

	t.Run("keys", func(t *testing.T) {
		store := newStore(t)

		err := store.Set(map[string][]byte{
			"vault_a":  []byte("a"),
			"vault_b":  []byte("b"),
			"legacy_a": []byte("a"),
			"plain_a":  []byte("a"),
		})
		require.NoError(t, err)

		keys, err := store.Keys("vault_")
		require.NoError(t, err)
		sort.Strings(keys)
		require.Equal(t, []string{"vault_a", "vault_b"}, keys)

		keys, err = store.Keys("missing_")
		require.NoError(t, err)
		require.Empty(t, keys)
	})

	t.Run("reset", func(t *testing.T) {
		store := newStore(t)

		err := store.Set(map[string][]byte{
			"vault_a":  []byte("a"),
			"legacy_a": []byte("a"),
		})
		require.NoError(t, err)

		require.NoError(t, store.Reset())

		keys, err := store.Keys("")
		require.NoError(t, err)
		require.Empty(t, keys)

		require.NoError(t, store.Set(map[string][]byte{"vault_a": []byte("a")}))
		values, err := store.Get("vault_a")
		require.NoError(t, err)
		require.Len(t, values, 1)
	})
}
