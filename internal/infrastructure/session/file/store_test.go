package filesession_test

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-vault/internal/core/ports"
	filesession "github.com/tdex-network/tdex-vault/internal/infrastructure/session/file"
	"github.com/tdex-network/tdex-vault/internal/infrastructure/session/sessiontest"
	"github.com/tdex-network/tdex-vault/pkg/securestore"
	inmemorysecurestore "github.com/tdex-network/tdex-vault/pkg/securestore/inmemory"
)

func TestStore(t *testing.T) {
	sessiontest.TestStore(t, func(
		t *testing.T, ttl time.Duration, c clock.Clock,
	) ports.SessionStore {
		s, err := filesession.NewStore(t.TempDir(), ttl, c)
		require.NoError(t, err)
		return s
	})
}

func TestStoreAcrossInstances(t *testing.T) {
	ctx := context.Background()
	datadir := t.TempDir()

	vaultStore, err := securestore.NewSecureStore(
		inmemorysecurestore.NewStorage(),
		securestore.WithKDFCost(securestore.KDFParams{Time: 1, Memory: 1024, Threads: 1}),
	)
	require.NoError(t, err)
	passKey, err := vaultStore.GenerateKey("password")
	require.NoError(t, err)
	key := passKey.Export()

	s, err := filesession.NewStore(datadir, time.Minute, nil)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, key))

	path := filepath.Join(datadir, filesession.Filename)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// The file must not hold anything a password guess can be checked
	// against without running the KDF.
	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	hash := securestore.GenerateHash("password")
	require.NotContains(t, string(buf), hex.EncodeToString(hash[:]))

	other, err := filesession.NewStore(datadir, time.Minute, nil)
	require.NoError(t, err)
	loaded, err := other.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, key, *loaded)
	require.True(t, passKey.Equal(securestore.ImportSessionKey(*loaded)))
}

func TestMalformedSessionFile(t *testing.T) {
	ctx := context.Background()
	datadir := t.TempDir()
	path := filepath.Join(datadir, filesession.Filename)
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	s, err := filesession.NewStore(datadir, time.Minute, nil)
	require.NoError(t, err)
	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, loaded)

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}
