package vault

import (
	"context"

	"github.com/decred/dcrwallet/errors/v2"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"github.com/tdex-network/tdex-vault/pkg/securestore"
)

// RevealMnemonic returns the mnemonic after validating password.
func (v *Vault) RevealMnemonic(ctx context.Context, password string) (string, error) {
	const op errors.Op = "vault.RevealMnemonic"

	var mnemonic string
	err := withError(op, "Failed to reveal mnemonic", func() error {
		key, err := v.passKey(password)
		if err != nil {
			return err
		}
		defer key.Zero()

		return v.deps.Store.FetchAndDecryptOne(domain.MnemonicKey, key, &mnemonic)
	})
	return mnemonic, err
}

// RevealPrivateKey returns the private key of address after validating
// password. Accounts that do not hold their key fail with
// domain.ErrPrivateKeyNotStored.
func (v *Vault) RevealPrivateKey(
	ctx context.Context, address, password string,
) (string, error) {
	const op errors.Op = "vault.RevealPrivateKey"

	var privateKey string
	err := withError(op, "Failed to reveal private key", func() error {
		key, err := v.passKey(password)
		if err != nil {
			return err
		}
		defer key.Zero()

		accounts, err := v.fetchAccounts()
		if err != nil {
			return err
		}
		account, ok := accounts.SignerByAddress(address)
		if !ok {
			return domain.ErrAccountNotFound
		}
		if !account.StoresPrivateKey() {
			return domain.ErrPrivateKeyNotStored
		}
		return v.deps.Store.FetchAndDecryptOne(
			domain.PrivateKeyKey(address), key, &privateKey,
		)
	})
	return privateKey, err
}

// GenerateSyncPayload exports the mnemonic and the number of HD accounts,
// sealed with a key derived from password, for another device to import.
func (v *Vault) GenerateSyncPayload(
	ctx context.Context, password string,
) (string, error) {
	const op errors.Op = "vault.GenerateSyncPayload"

	var payload string
	err := withError(op, "Failed to generate sync payload", func() error {
		key, err := v.passKey(password)
		if err != nil {
			return err
		}
		defer key.Zero()

		var mnemonic string
		if err := v.deps.Store.FetchAndDecryptOne(
			domain.MnemonicKey, key, &mnemonic,
		); err != nil {
			return err
		}
		accounts, err := v.fetchAccounts()
		if err != nil {
			return err
		}
		payload, err = EncodeSyncPayload(SyncData{
			Mnemonic: mnemonic,
			HDCount:  accounts.HDCount(),
		}, password)
		return err
	})
	return payload, err
}

// ChangePassword re-encrypts every record with a key derived from
// newPassword. The session is forgotten since it holds the old key.
func (v *Vault) ChangePassword(
	ctx context.Context, oldPassword, newPassword string,
) error {
	const op errors.Op = "vault.ChangePassword"

	return withError(op, "Failed to change password", func() error {
		oldKey, err := v.passKey(oldPassword)
		if err != nil {
			return err
		}
		defer oldKey.Zero()

		newKey, err := v.deps.Store.Rekey(oldKey, newPassword)
		if err != nil {
			return err
		}
		v.swapKey(newKey)

		if v.deps.Sessions != nil {
			return v.deps.Sessions.Delete(ctx)
		}
		return nil
	})
}

func (v *Vault) swapKey(key *securestore.PassKey) {
	if v.key != nil {
		v.key.Zero()
	}
	v.key = key
}
