package migration_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/decred/dcrwallet/errors/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-vault/internal/core/application/migration"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"github.com/tdex-network/tdex-vault/pkg/securestore"
	inmemorysecurestore "github.com/tdex-network/tdex-vault/pkg/securestore/inmemory"
	"github.com/tdex-network/tdex-vault/pkg/wallet"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon " +
		"abandon abandon abandon abandon abandon about"
	testPassword  = "legacy password"
	testKTAddress = "KT1PWx2mnDueood7fEmfbBDKx1D9BAnnXitn"
	testChainID   = "NetXdQprcVkpaWU"
	sandboxURL    = "http://localhost:8732"
	brokenURL     = "http://broken.example.com"
)

var (
	ctx      = context.Background()
	testCost = securestore.KDFParams{Time: 1, Memory: 1024, Threads: 1}
)

func TestLegacyMigration(t *testing.T) {
	env, db := newTestEnv(t)
	legacy := seedLegacyStore(t, env.Store)

	resolver := env.ChainIDs.(*mockChainIDResolver)
	err := migration.Run(ctx, env, testPassword)
	require.NoError(t, err)
	resolver.AssertExpectations(t)

	var level int
	found, err := env.Store.GetPlain(domain.MigrationLevelKey, &level)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, migration.Latest(), level)

	legacyKeys, err := env.Store.LegacyKeys()
	require.NoError(t, err)
	require.Empty(t, legacyKeys)

	key, err := env.Store.ImportExistingKey(securestore.GenerateHash(testPassword))
	require.NoError(t, err)

	var check, mnemonic string
	require.NoError(t, env.Store.FetchAndDecryptOne(domain.CheckKey, key, &check))
	require.NotEmpty(t, check)
	require.NoError(t, env.Store.FetchAndDecryptOne(domain.MnemonicKey, key, &mnemonic))
	require.Equal(t, testMnemonic, mnemonic)

	var accounts domain.Accounts
	require.NoError(t, env.Store.FetchAndDecryptOne(domain.AccountsKey, key, &accounts))
	require.Len(t, accounts, 5)

	for i, creds := range []*wallet.AccountCreds{legacy.hd0, legacy.hd1} {
		account, ok := accounts.ByAddress(creds.Address)
		require.True(t, ok)
		require.NotEmpty(t, account.ID)
		hd, ok := account.Kind.(domain.HDAccount)
		require.True(t, ok)
		require.Equal(t, i, hd.Index)

		evmCreds, err := wallet.MnemonicToEvmAccountCreds(testMnemonic, i)
		require.NoError(t, err)
		require.Equal(t, evmCreds.Address, hd.EvmAddress)

		var privateKey, publicKey string
		require.NoError(t, env.Store.FetchAndDecryptOne(
			domain.PrivateKeyKey(evmCreds.Address), key, &privateKey,
		))
		require.Equal(t, evmCreds.PrivateKey, privateKey)
		require.NoError(t, env.Store.FetchAndDecryptOne(
			domain.PublicKeyKey(creds.Address), key, &publicKey,
		))
		require.Equal(t, creds.PublicKey, publicKey)
	}

	account, ok := accounts.ByAddress(legacy.imported.Address)
	require.True(t, ok)
	require.Equal(t, domain.ImportedAccount{
		Chain: wallet.ChainTezos, Address: legacy.imported.Address,
	}, account.Kind)

	account, ok = accounts.ByAddress(testKTAddress)
	require.True(t, ok)
	require.Equal(t, domain.WatchOnlyAccount{
		Chain: wallet.ChainTezos, Address: testKTAddress, ChainID: testChainID,
	}, account.Kind)

	account, ok = accounts.ByAddress(legacy.ledger)
	require.True(t, ok)
	require.Equal(t, domain.AccountTypeLedger, account.Type())

	var settings domain.Settings
	require.NoError(t, env.Store.FetchAndDecryptOne(domain.SettingsKey, key, &settings))
	require.Equal(t, "https://lambda.example.com", settings.LambdaRPCBaseURL)
	require.Len(t, settings.Contacts, 1)
	require.Equal(t, "Alice", settings.Contacts[0].Name)

	var networks []domain.Network
	found, err = env.Store.GetPlain(domain.TezosNetworksKey, &networks)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, networks, 2)
	require.Equal(t, testChainID, networks[0].ChainID)
	require.Equal(t, wallet.ChainTezos, networks[0].Chain)
	require.Empty(t, networks[1].ChainID)

	var selected string
	found, err = env.Store.GetPlain(domain.TezosSelectedNetworkKey, &selected)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "mainnet", selected)

	for _, plainKey := range []string{
		domain.ContactsKey, domain.LegacyNetworksKey, domain.LegacyNetworkIDKey,
	} {
		stored, err := env.Store.IsStoredPlain(plainKey)
		require.NoError(t, err)
		require.False(t, stored, plainKey)
	}

	t.Run("idempotent", func(t *testing.T) {
		before := snapshot(t, db)

		require.NoError(t, migration.Run(ctx, env, testPassword))
		require.Equal(t, before, snapshot(t, db))

		for _, m := range migration.Pipeline {
			require.NoError(t, m.Apply(ctx, env, testPassword), m.Name())
		}
		require.Equal(t, before, snapshot(t, db))
	})
}

func TestMigrationWithInvalidPassword(t *testing.T) {
	env, db := newTestEnv(t)
	seedLegacyStore(t, env.Store)
	before := snapshot(t, db)

	err := migration.Run(ctx, env, "wrong password")
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrInvalidPassword))
	require.Equal(t, before, snapshot(t, db))
}

func TestFailingMigrationAdvancesLevel(t *testing.T) {
	env, db := newTestEnv(t)

	legacyKey := securestore.NewLegacyKey(testPassword)
	err := env.Store.EncryptAndSaveManyLegacy([]securestore.Entry{
		{Key: domain.MnemonicKey, Value: testMnemonic},
	}, legacyKey)
	require.NoError(t, err)
	require.NoError(t, db.Set(map[string][]byte{
		"legacy_" + domain.AccountsKey: []byte("not a legacy record"),
	}))

	require.NoError(t, migration.Run(ctx, env, testPassword))

	var level int
	found, err := env.Store.GetPlain(domain.MigrationLevelKey, &level)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, migration.Latest(), level)

	stored, err := env.Store.IsStoredLegacy(domain.MnemonicKey)
	require.NoError(t, err)
	require.True(t, stored)

	level, err = migration.EffectiveLevel(env, testPassword)
	require.NoError(t, err)
	require.Equal(t, migration.CryptoUpgradeLevel, level)
	require.NoError(t, migration.ValidatePassword(env, testPassword))
}

func TestUnreadableLegacyKeyIsSkipped(t *testing.T) {
	env, _ := newTestEnv(t)
	legacy := seedLegacyStore(t, env.Store)

	unreadableKey := domain.PrivateKeyKey(legacy.imported.Address)
	err := env.Store.EncryptAndSaveManyLegacy([]securestore.Entry{
		{Key: unreadableKey, Value: legacy.imported.PrivateKey},
	}, securestore.NewLegacyKey("another password"))
	require.NoError(t, err)

	require.NoError(t, migration.Run(ctx, env, testPassword))
	require.NoError(t, migration.ValidatePassword(env, testPassword))

	level, err := migration.EffectiveLevel(env, testPassword)
	require.NoError(t, err)
	require.Equal(t, migration.Latest(), level)

	key, err := env.Store.ImportExistingKey(securestore.GenerateHash(testPassword))
	require.NoError(t, err)

	var mnemonic string
	require.NoError(t, env.Store.FetchAndDecryptOne(domain.MnemonicKey, key, &mnemonic))
	require.Equal(t, testMnemonic, mnemonic)

	var accounts domain.Accounts
	require.NoError(t, env.Store.FetchAndDecryptOne(domain.AccountsKey, key, &accounts))
	require.Len(t, accounts, 5)

	var privateKey string
	require.NoError(t, env.Store.FetchAndDecryptOne(
		domain.PrivateKeyKey(legacy.hd0.Address), key, &privateKey,
	))
	require.Equal(t, legacy.hd0.PrivateKey, privateKey)

	var publicKey string
	require.NoError(t, env.Store.FetchAndDecryptOne(
		domain.PublicKeyKey(legacy.hd1.Address), key, &publicKey,
	))
	require.Equal(t, legacy.hd1.PublicKey, publicKey)

	stored, err := env.Store.IsStored(unreadableKey)
	require.NoError(t, err)
	require.False(t, stored)

	legacyKeys, err := env.Store.LegacyKeys()
	require.NoError(t, err)
	require.Equal(t, []string{unreadableKey}, legacyKeys)
}

func TestEffectiveLevel(t *testing.T) {
	t.Run("fresh store", func(t *testing.T) {
		env, _ := newTestEnv(t)
		level, err := migration.EffectiveLevel(env, testPassword)
		require.NoError(t, err)
		require.Zero(t, level)
	})

	t.Run("legacy counter takes precedence", func(t *testing.T) {
		env, _ := newTestEnv(t)
		require.NoError(t, env.Store.SavePlain(domain.MigrationLevelKey, 0))
		require.NoError(t, env.Store.EncryptAndSaveManyLegacy([]securestore.Entry{
			{Key: domain.MigrationLevelKey, Value: 1},
		}, securestore.NewLegacyKey(testPassword)))

		level, err := migration.EffectiveLevel(env, testPassword)
		require.NoError(t, err)
		require.Equal(t, 1, level)

		other := newTestEnvWithStore(t, env.Store)
		_, err = migration.EffectiveLevel(other, "wrong password")
		require.True(t, errors.Is(err, domain.ErrInvalidPassword))
	})

	t.Run("legacy check forces checkpoint", func(t *testing.T) {
		env, _ := newTestEnv(t)
		require.NoError(t, env.Store.SavePlain(domain.MigrationLevelKey, migration.Latest()))
		require.NoError(t, env.Store.EncryptAndSaveManyLegacy([]securestore.Entry{
			{Key: domain.CheckKey, Value: "check"},
		}, securestore.NewLegacyKey(testPassword)))

		level, err := migration.EffectiveLevel(env, testPassword)
		require.NoError(t, err)
		require.Equal(t, migration.CryptoUpgradeLevel, level)
	})

	t.Run("legacy records without check force checkpoint", func(t *testing.T) {
		env, _ := newTestEnv(t)
		require.NoError(t, env.Store.SavePlain(domain.MigrationLevelKey, migration.Latest()))
		require.NoError(t, env.Store.EncryptAndSaveManyLegacy([]securestore.Entry{
			{Key: domain.MnemonicKey, Value: testMnemonic},
		}, securestore.NewLegacyKey(testPassword)))

		level, err := migration.EffectiveLevel(env, testPassword)
		require.NoError(t, err)
		require.Equal(t, migration.CryptoUpgradeLevel, level)
	})

	t.Run("up to date", func(t *testing.T) {
		env, _ := newTestEnv(t)
		require.NoError(t, env.Store.SavePlain(domain.MigrationLevelKey, migration.Latest()))

		level, err := migration.EffectiveLevel(env, testPassword)
		require.NoError(t, err)
		require.Equal(t, migration.Latest(), level)
	})
}

func TestValidatePassword(t *testing.T) {
	env, _ := newTestEnv(t)
	err := migration.ValidatePassword(env, testPassword)
	require.True(t, errors.Is(err, domain.ErrVaultNotFound))

	key, err := env.Store.GenerateKey(testPassword)
	require.NoError(t, err)
	require.NoError(t, env.Store.EncryptAndSaveMany([]securestore.Entry{
		{Key: domain.CheckKey, Value: domain.NewCheckValue()},
	}, key))

	require.NoError(t, migration.ValidatePassword(env, testPassword))
	err = migration.ValidatePassword(env, "wrong password")
	require.True(t, errors.Is(err, domain.ErrInvalidPassword))
}

type legacyFixture struct {
	hd0      *wallet.AccountCreds
	hd1      *wallet.AccountCreds
	imported *wallet.AccountCreds
	ledger   string
}

// seedLegacyStore writes a store as left by the oldest supported version:
// legacy records only, no check value, HD accounts without index, one
// missing public key and the plain contacts and network keys.
func seedLegacyStore(t *testing.T, store *securestore.SecureStore) legacyFixture {
	hd0, err := wallet.MnemonicToTezosAccountCreds(testMnemonic, 0)
	require.NoError(t, err)
	hd1, err := wallet.MnemonicToTezosAccountCreds(testMnemonic, 1)
	require.NoError(t, err)
	imported, err := wallet.MnemonicToTezosAccountCreds(testMnemonic, 7)
	require.NoError(t, err)
	ledger, err := wallet.MnemonicToTezosAccountCreds(testMnemonic, 9)
	require.NoError(t, err)

	derivationType := domain.DerivationTypeED25519
	accounts := []domain.AccountRecord{
		{Type: domain.AccountTypeHD, Name: "Account 1", PublicKeyHash: hd0.Address},
		{Type: domain.AccountTypeImported, Name: "Imported", PublicKeyHash: imported.Address},
		{Type: domain.AccountTypeHD, Name: "Account 2", PublicKeyHash: hd1.Address},
		{
			Type: domain.AccountTypeLedger, Name: "Ledger 1",
			PublicKeyHash:  ledger.Address,
			DerivationPath: "m/44'/1729'/0'/0'",
			DerivationType: &derivationType,
		},
		{
			Type: domain.AccountTypeWatchOnly, Name: "Watched",
			PublicKeyHash: testKTAddress, ChainID: testChainID,
		},
	}

	err = store.EncryptAndSaveManyLegacy([]securestore.Entry{
		{Key: domain.MnemonicKey, Value: testMnemonic},
		{Key: domain.AccountsKey, Value: accounts},
		{Key: domain.SettingsKey, Value: map[string]interface{}{
			"lambdaRpcBaseURL": "https://lambda.example.com",
		}},
		{Key: domain.PrivateKeyKey(hd0.Address), Value: hd0.PrivateKey},
		{Key: domain.PublicKeyKey(hd0.Address), Value: hd0.PublicKey},
		{Key: domain.PrivateKeyKey(hd1.Address), Value: hd1.PrivateKey},
		{Key: domain.PrivateKeyKey(imported.Address), Value: imported.PrivateKey},
		{Key: domain.PublicKeyKey(ledger.Address), Value: ledger.PublicKey},
	}, securestore.NewLegacyKey(testPassword))
	require.NoError(t, err)

	err = store.SavePlainMany([]securestore.Entry{
		{Key: domain.ContactsKey, Value: []domain.Contact{
			{Address: hd1.Address, Name: "Alice"},
		}},
		{Key: domain.LegacyNetworksKey, Value: []domain.Network{
			{ID: "sandbox", Name: "Sandbox", RPCBaseURL: sandboxURL},
			{ID: "broken", Name: "Broken", RPCBaseURL: brokenURL},
		}},
		{Key: domain.LegacyNetworkIDKey, Value: "mainnet"},
	})
	require.NoError(t, err)

	return legacyFixture{hd0, hd1, imported, ledger.Address}
}

func newTestEnv(t *testing.T) (*migration.Env, securestore.Storage) {
	db := inmemorysecurestore.NewStorage()
	store, err := securestore.NewSecureStore(db, securestore.WithKDFCost(testCost))
	require.NoError(t, err)
	return newTestEnvWithStore(t, store), db
}

func newTestEnvWithStore(
	t *testing.T, store *securestore.SecureStore,
) *migration.Env {
	resolver := &mockChainIDResolver{}
	resolver.On("TezosChainID", mock.Anything, sandboxURL).Return(testChainID, nil)
	resolver.On("TezosChainID", mock.Anything, brokenURL).
		Return("", fmt.Errorf("connection refused"))
	return &migration.Env{Store: store, ChainIDs: resolver}
}

func snapshot(t *testing.T, db securestore.Storage) map[string][]byte {
	keys, err := db.Keys("")
	require.NoError(t, err)
	values, err := db.Get(keys...)
	require.NoError(t, err)
	return values
}

type mockChainIDResolver struct {
	mock.Mock
}

func (m *mockChainIDResolver) TezosChainID(
	ctx context.Context, rpcURL string,
) (string, error) {
	args := m.Called(ctx, rpcURL)
	return args.String(0), args.Error(1)
}

func (m *mockChainIDResolver) EvmChainID(
	ctx context.Context, rpcURL string,
) (string, error) {
	args := m.Called(ctx, rpcURL)
	return args.String(0), args.Error(1)
}
