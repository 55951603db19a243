package vault_test

import (
	"testing"

	"github.com/decred/dcrwallet/errors/v2"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"github.com/tdex-network/tdex-vault/pkg/wallet"
)

const (
	testKTAddress = "KT1PWx2mnDueood7fEmfbBDKx1D9BAnnXitn"
	testChainID   = "NetXdQprcVkpaWU"
)

func TestCreateHDAccount(t *testing.T) {
	v := newUnlockedVault(t)

	for i := 1; i < 4; i++ {
		accounts, err := v.CreateHDAccount(ctx, "", nil)
		require.NoError(t, err)
		require.Len(t, accounts, i+1)
	}

	accounts, err := v.FetchAccounts(ctx)
	require.NoError(t, err)
	for i, account := range accounts {
		hd, ok := account.Kind.(domain.HDAccount)
		require.True(t, ok)
		require.Equal(t, i, hd.Index)
		require.Equal(t, tezosCreds(t, i).Address, hd.TezosAddress)
		require.Equal(t, evmCreds(t, i).Address, hd.EvmAddress)
		require.NotEmpty(t, account.ID)

		tezos, evm, err := v.DeriveHDAddresses(ctx, i)
		require.NoError(t, err)
		require.Equal(t, hd.TezosAddress, tezos)
		require.Equal(t, hd.EvmAddress, evm)
	}
	require.Equal(t, "Account 4", accounts[3].Name)

	_, err = v.RemoveAccount(ctx, accounts[1].ID, testPassword)
	require.True(t, errors.Is(err, domain.ErrRemoveHDAccount))
}

func TestCreateHDAccountWithIndex(t *testing.T) {
	v := newUnlockedVault(t)

	index := 5
	accounts, err := v.CreateHDAccount(ctx, "Savings", &index)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.Equal(t, "Savings", accounts[1].Name)
	require.Equal(t, domain.HDAccount{
		Index:        5,
		TezosAddress: tezosCreds(t, 5).Address,
		EvmAddress:   evmCreds(t, 5).Address,
	}, accounts[1].Kind)

	index = -1
	_, err = v.CreateHDAccount(ctx, "", &index)
	require.True(t, errors.Is(err, domain.ErrInvalidDerivationPath))
}

func TestCreateHDAccountSkipsUsedAddress(t *testing.T) {
	v := newUnlockedVault(t)

	_, err := v.ImportAccount(ctx, wallet.ChainTezos, tezosCreds(t, 1).PrivateKey, "")
	require.NoError(t, err)

	accounts, err := v.CreateHDAccount(ctx, "", nil)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	hd, ok := accounts[2].Kind.(domain.HDAccount)
	require.True(t, ok)
	require.Equal(t, 2, hd.Index)
}

func TestAccountNames(t *testing.T) {
	v := newUnlockedVault(t)

	_, err := v.CreateHDAccount(ctx, "Account 1", nil)
	require.True(t, errors.Is(err, domain.ErrAccountNameExists))

	accounts, err := v.CreateHDAccount(ctx, "  Trading  ", nil)
	require.NoError(t, err)
	require.Equal(t, "Trading", accounts[1].Name)

	id := accounts[1].ID
	_, err = v.EditAccountName(ctx, id, "Account 1")
	require.True(t, errors.Is(err, domain.ErrAccountNameExists))
	_, err = v.EditAccountName(ctx, id, " ")
	require.True(t, errors.Is(err, domain.ErrEmptyAccountName))
	_, err = v.EditAccountName(ctx, "unknown", "Name")
	require.True(t, errors.Is(err, domain.ErrAccountNotFound))

	accounts, err = v.EditAccountName(ctx, id, "Trading")
	require.NoError(t, err)
	require.Equal(t, "Trading", accounts[1].Name)

	accounts, err = v.EditAccountName(ctx, id, "Spending")
	require.NoError(t, err)
	require.Equal(t, "Spending", accounts[1].Name)

	accounts, err = v.FetchAccounts(ctx)
	require.NoError(t, err)
	require.Equal(t, "Spending", accounts[1].Name)
}

func TestImportAccount(t *testing.T) {
	v := newUnlockedVault(t)
	tezos := tezosCreds(t, 7)
	evm := evmCreds(t, 7)

	accounts, err := v.ImportAccount(ctx, wallet.ChainTezos, tezos.PrivateKey, "")
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.Equal(t, "Imported Account 1", accounts[1].Name)
	require.Equal(t, domain.ImportedAccount{
		Chain: wallet.ChainTezos, Address: tezos.Address,
	}, accounts[1].Kind)

	_, err = v.ImportAccount(ctx, wallet.ChainTezos, tezos.PrivateKey, "")
	require.True(t, errors.Is(err, domain.ErrAccountExists))

	accounts, err = v.ImportAccount(ctx, wallet.ChainEvm, evm.PrivateKey, "")
	require.NoError(t, err)
	require.Equal(t, domain.ImportedAccount{
		Chain: wallet.ChainEvm, Address: evm.Address,
	}, accounts[2].Kind)

	_, err = v.ImportAccount(ctx, wallet.ChainTezos, "edskInvalid", "")
	require.True(t, errors.Is(err, domain.ErrInvalidPrivateKey))
	_, err = v.ImportAccount(ctx, "bitcoin", tezos.PrivateKey, "")
	require.True(t, errors.Is(err, domain.ErrInvalidChain))

	privateKey, err := v.RevealPrivateKey(ctx, evm.Address, testPassword)
	require.NoError(t, err)
	require.Equal(t, evm.PrivateKey, privateKey)
}

func TestImportMnemonicAccount(t *testing.T) {
	v := newUnlockedVault(t)

	accounts, err := v.ImportMnemonicAccount(
		ctx, wallet.ChainTezos, testMnemonic, "", "m/44'/1729'/3'/0'",
	)
	require.NoError(t, err)
	require.Equal(t, tezosCreds(t, 3).Address, accounts[1].Address(wallet.ChainTezos))

	accounts, err = v.ImportMnemonicAccount(
		ctx, wallet.ChainEvm, testMnemonic, "", "m/44'/60'/0'/0/3",
	)
	require.NoError(t, err)
	require.Equal(t, evmCreds(t, 3).Address, accounts[2].Address(wallet.ChainEvm))

	_, err = v.ImportMnemonicAccount(
		ctx, wallet.ChainTezos, "not a mnemonic", "", "m/44'/1729'/3'/0'",
	)
	require.True(t, errors.Is(err, domain.ErrInvalidMnemonicOrPassword))
	_, err = v.ImportMnemonicAccount(
		ctx, wallet.ChainTezos, testMnemonic, "", "m/44'/1729'/3'/0",
	)
	require.True(t, errors.Is(err, domain.ErrInvalidDerivationPath))
}

func TestImportKeyOfHDAccount(t *testing.T) {
	v := newUnlockedVault(t)
	hd0 := tezosCreds(t, 0)

	accounts, err := v.ImportAccount(ctx, wallet.ChainTezos, hd0.PrivateKey, "")
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	accounts, err = v.RemoveAccount(ctx, accounts[1].ID, testPassword)
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	// The key record is still referenced by the HD account.
	privateKey, err := v.RevealPrivateKey(ctx, hd0.Address, testPassword)
	require.NoError(t, err)
	require.Equal(t, hd0.PrivateKey, privateKey)
	_, err = v.Sign(ctx, hd0.Address, "00", nil)
	require.NoError(t, err)
}

func TestRemoveAccount(t *testing.T) {
	deps := newSpawnedDeps(t)
	v := newUnlockedVaultWithDeps(t, deps)
	imported := tezosCreds(t, 7)

	accounts, err := v.ImportAccount(ctx, wallet.ChainTezos, imported.PrivateKey, "")
	require.NoError(t, err)
	id := accounts[1].ID

	_, err = v.RemoveAccount(ctx, id, "wrong password")
	require.True(t, errors.Is(err, domain.ErrInvalidPassword))
	_, err = v.RemoveAccount(ctx, "unknown", testPassword)
	require.True(t, errors.Is(err, domain.ErrAccountNotFound))

	accounts, err = v.RemoveAccount(ctx, id, testPassword)
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	for _, key := range []string{
		domain.PrivateKeyKey(imported.Address), domain.PublicKeyKey(imported.Address),
	} {
		stored, err := deps.Store.IsStored(key)
		require.NoError(t, err)
		require.False(t, stored)
	}

	_, err = v.RevealPrivateKey(ctx, imported.Address, testPassword)
	require.True(t, errors.Is(err, domain.ErrAccountNotFound))
}

func TestImportWatchOnlyAccount(t *testing.T) {
	v := newUnlockedVault(t)
	watched := tezosCreds(t, 4).Address

	accounts, err := v.ImportWatchOnlyAccount(ctx, wallet.ChainTezos, watched, testChainID)
	require.NoError(t, err)
	require.Equal(t, "Watch-only Account 1", accounts[1].Name)
	require.Equal(t, domain.WatchOnlyAccount{
		Chain: wallet.ChainTezos, Address: watched, ChainID: testChainID,
	}, accounts[1].Kind)

	_, err = v.ImportWatchOnlyAccount(ctx, wallet.ChainTezos, watched, "")
	require.True(t, errors.Is(err, domain.ErrAccountExists))
	_, err = v.ImportWatchOnlyAccount(ctx, wallet.ChainTezos, "tz1invalid", "")
	require.True(t, errors.Is(err, domain.ErrInvalidAddress))
	_, err = v.ImportWatchOnlyAccount(
		ctx, wallet.ChainTezos, tezosCreds(t, 5).Address, "invalid",
	)
	require.True(t, errors.Is(err, domain.ErrInvalidChainID))

	evm := evmCreds(t, 4).Address
	accounts, err = v.ImportWatchOnlyAccount(ctx, wallet.ChainEvm, evm, "")
	require.NoError(t, err)
	require.Equal(t, evm, accounts[2].Address(wallet.ChainEvm))

	_, err = v.Sign(ctx, watched, "00", nil)
	require.True(t, errors.Is(err, domain.ErrWatchOnlySign))
	_, err = v.RevealPrivateKey(ctx, watched, testPassword)
	require.True(t, errors.Is(err, domain.ErrPrivateKeyNotStored))
}

func TestImportManagedKTAccount(t *testing.T) {
	v := newUnlockedVault(t)
	hd0 := tezosCreds(t, 0)

	_, err := v.ImportManagedKTAccount(ctx, hd0.Address, testChainID, hd0.Address)
	require.True(t, errors.Is(err, domain.ErrInvalidAddress))
	_, err = v.ImportManagedKTAccount(ctx, testKTAddress, "invalid", hd0.Address)
	require.True(t, errors.Is(err, domain.ErrInvalidChainID))
	_, err = v.ImportManagedKTAccount(
		ctx, testKTAddress, testChainID, tezosCreds(t, 6).Address,
	)
	require.True(t, errors.Is(err, domain.ErrManagedKTOwnerNotFound))

	accounts, err := v.ImportManagedKTAccount(ctx, testKTAddress, testChainID, hd0.Address)
	require.NoError(t, err)
	require.Equal(t, domain.ManagedKTAccount{
		Address: testKTAddress, ChainID: testChainID, Owner: hd0.Address,
	}, accounts[1].Kind)

	_, err = v.ImportManagedKTAccount(ctx, testKTAddress, testChainID, hd0.Address)
	require.True(t, errors.Is(err, domain.ErrAccountExists))

	signature, err := v.Sign(ctx, testKTAddress, "0a0b", wallet.WatermarkGenericOp)
	require.NoError(t, err)
	require.True(t, wallet.VerifyTezos(
		hd0.PublicKey, "0a0b", signature.PrefixSig, wallet.WatermarkGenericOp,
	))

	accounts, err = v.RemoveAccount(ctx, accounts[1].ID, testPassword)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
}
