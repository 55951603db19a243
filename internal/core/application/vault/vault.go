// Package vault holds the encrypted secrets of a wallet: the mnemonic, the
// accounts and their keys, and the settings.
//
// A Vault value is an unlocked vault. It owns the key derived from the user
// password and never exposes it. Vaults are created by Spawn and Setup, or
// restored from a session with RecoverFromSession, and must be locked when
// no longer needed.
//
// Vault methods are not safe for concurrent use. Read-modify-write
// sequences on the account list must be serialized by the caller.
package vault

import (
	"context"

	"github.com/decred/dcrwallet/errors/v2"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-vault/internal/core/application/migration"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"github.com/tdex-network/tdex-vault/internal/core/ports"
	"github.com/tdex-network/tdex-vault/internal/metrics"
	"github.com/tdex-network/tdex-vault/pkg/securestore"
	"github.com/tdex-network/tdex-vault/pkg/wallet"
)

// Deps are the collaborators of a vault. Only Store is required.
type Deps struct {
	Store    *securestore.SecureStore
	Sessions ports.SessionStore
	Signers  ports.HardwareSignerFactory
	RPC      ports.TezosRPCFactory
	ChainIDs ports.ChainIDResolver
}

// Vault is an unlocked vault.
type Vault struct {
	deps Deps
	key  *securestore.PassKey
}

// IsExist returns whether a vault is stored, in the current or in the legacy
// format.
func IsExist(deps Deps) (bool, error) {
	const op errors.Op = "vault.IsExist"

	stored, err := deps.Store.IsStored(domain.CheckKey)
	if err != nil {
		return false, errors.E(op, errors.IO, err)
	}
	if stored {
		return true, nil
	}
	for _, key := range []string{domain.CheckKey, domain.MnemonicKey} {
		stored, err := deps.Store.IsStoredLegacy(key)
		if err != nil {
			return false, errors.E(op, errors.IO, err)
		}
		if stored {
			return true, nil
		}
	}
	return false, nil
}

// Spawn creates a new vault protected by password, replacing any data found
// in the store. A mnemonic is generated if none is given. It returns the
// Tezos address of the first HD account.
func Spawn(
	ctx context.Context, deps Deps, password, mnemonic string,
) (string, error) {
	const op errors.Op = "vault.Spawn"

	var address string
	err := withError(op, "Failed to create wallet", func() error {
		if mnemonic == "" {
			m, err := wallet.NewMnemonic(wallet.NewMnemonicOpts{})
			if err != nil {
				return err
			}
			mnemonic = m
		}
		mnemonic = wallet.NormalizeMnemonic(mnemonic)
		if !wallet.IsMnemonicValid(mnemonic) {
			return domain.ErrInvalidMnemonicOrPassword
		}

		tezos, evm, err := deriveHDCreds(mnemonic, 0)
		if err != nil {
			return err
		}

		// Leftovers of a previous install must not leak into the new vault.
		if err := deps.Store.Reset(); err != nil {
			return err
		}
		if deps.Sessions != nil {
			if err := deps.Sessions.Delete(ctx); err != nil {
				return err
			}
		}

		key, err := deps.Store.GenerateKey(password)
		if err != nil {
			return err
		}
		defer key.Zero()

		accounts := domain.Accounts{{
			ID:   domain.NewAccountID(),
			Name: domain.NewAccountName(nil, domain.AccountTypeHD),
			Kind: domain.HDAccount{
				Index:        0,
				TezosAddress: tezos.Address,
				EvmAddress:   evm.Address,
			},
		}}
		entries := []securestore.Entry{
			{Key: domain.CheckKey, Value: domain.NewCheckValue()},
			{Key: domain.MnemonicKey, Value: mnemonic},
			{Key: domain.SettingsKey, Value: domain.DefaultSettings()},
			{Key: domain.AccountsKey, Value: accounts},
		}
		entries = append(entries, credsEntries(tezos, evm)...)
		if err := deps.Store.EncryptAndSaveMany(entries, key); err != nil {
			return err
		}
		if err := deps.Store.SavePlain(
			domain.MigrationLevelKey, migration.Latest(),
		); err != nil {
			return err
		}

		address = tezos.Address
		return nil
	})
	return address, err
}

// Setup unlocks the vault with password. Due migrations are run first, with
// the password, and only then the key of the current records is derived. If
// saveSession is set the derived key is kept in the session store.
func Setup(
	ctx context.Context, deps Deps, password string, saveSession bool,
) (*Vault, error) {
	const op errors.Op = "vault.Setup"

	var v *Vault
	err := withError(op, "Failed to unlock wallet", func() error {
		if err := migration.Run(ctx, migrationEnv(deps), password); err != nil {
			return err
		}

		hash := securestore.GenerateHash(password)
		key, err := unlock(deps.Store, hash)
		if err != nil {
			return err
		}
		if saveSession && deps.Sessions != nil {
			if err := deps.Sessions.Save(ctx, key.Export()); err != nil {
				key.Zero()
				return err
			}
		}

		v = &Vault{deps: deps, key: key}
		return nil
	})
	metrics.ObserveUnlock(err)
	return v, err
}

// RecoverFromSession unlocks the vault with the key kept in the session
// store. It returns a nil Vault if there is no valid session.
func RecoverFromSession(ctx context.Context, deps Deps) (*Vault, error) {
	const op errors.Op = "vault.RecoverFromSession"

	if deps.Sessions == nil {
		return nil, nil
	}

	var v *Vault
	err := withError(op, "Failed to restore session", func() error {
		sessionKey, err := deps.Sessions.Load(ctx)
		if err != nil || sessionKey == nil {
			return err
		}

		key := securestore.ImportSessionKey(*sessionKey)
		if err := checkKey(deps.Store, key); err != nil {
			if !errors.Is(err, errors.Passphrase) {
				return err
			}
			// The password changed since the session was saved.
			log.Warn("stale session found, forgetting it")
			return deps.Sessions.Delete(ctx)
		}

		v = &Vault{deps: deps, key: key}
		return nil
	})
	return v, err
}

// ForgetSession deletes the session, if any.
func ForgetSession(ctx context.Context, deps Deps) error {
	const op errors.Op = "vault.ForgetSession"

	if deps.Sessions == nil {
		return nil
	}
	return withError(op, "Failed to forget session", func() error {
		return deps.Sessions.Delete(ctx)
	})
}

// RunMigrations runs the due migrations without unlocking the vault.
func RunMigrations(ctx context.Context, deps Deps, password string) error {
	const op errors.Op = "vault.RunMigrations"

	return withError(op, "Failed to migrate wallet", func() error {
		return migration.Run(ctx, migrationEnv(deps), password)
	})
}

// Lock zeroes the key of the vault. Any later call fails with
// domain.ErrVaultLocked.
func (v *Vault) Lock() {
	v.key.Zero()
	v.key = nil
}

// IsLocked returns whether Lock was called.
func (v *Vault) IsLocked() bool {
	return v.key == nil
}

// sessionKey returns the key derived at unlock.
func (v *Vault) sessionKey() (*securestore.PassKey, error) {
	if v.key == nil {
		return nil, domain.ErrVaultLocked
	}
	return v.key, nil
}

// passKey derives a fresh key from password and validates it against the
// check value. Reveals and other sensitive operations never trust the
// session key. The caller must zero the returned key.
func (v *Vault) passKey(password string) (*securestore.PassKey, error) {
	if v.key == nil {
		return nil, domain.ErrVaultLocked
	}
	return unlock(v.deps.Store, securestore.GenerateHash(password))
}

// unlock derives the key of a password hash and checks it opens the check
// value.
func unlock(
	store *securestore.SecureStore, hash securestore.PasswordHash,
) (*securestore.PassKey, error) {
	stored, err := store.IsStored(domain.CheckKey)
	if err != nil {
		return nil, err
	}
	if !stored {
		return nil, domain.ErrVaultNotFound
	}

	key, err := store.ImportExistingKey(hash)
	if err != nil {
		if err == securestore.ErrMissingKDFParams {
			return nil, domain.ErrInvalidPassword
		}
		return nil, err
	}
	if err := checkKey(store, key); err != nil {
		return nil, err
	}
	return key, nil
}

// checkKey returns domain.ErrInvalidPassword and zeroes the key if it does
// not open the check value.
func checkKey(store *securestore.SecureStore, key *securestore.PassKey) error {
	var check string
	if err := store.FetchAndDecryptOne(domain.CheckKey, key, &check); err != nil {
		key.Zero()
		return domain.ErrInvalidPassword
	}
	return nil
}

func migrationEnv(deps Deps) *migration.Env {
	return &migration.Env{Store: deps.Store, ChainIDs: deps.ChainIDs}
}

// withError runs fn and normalizes the error it returns. Public domain
// errors are returned unchanged, any other error is logged and replaced by
// message.
func withError(op errors.Op, message string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	if err = fromWalletError(err); domain.IsPublic(err) {
		return err
	}
	log.WithError(err).Error(message)
	return errors.E(op, message)
}

// fromWalletError maps the errors of the wallet package that are caused by
// user input to their domain counterpart.
func fromWalletError(err error) error {
	switch err {
	case wallet.ErrInvalidMnemonic, wallet.ErrNullMnemonic,
		wallet.ErrInvalidMnemonicOrPassword:
		return domain.ErrInvalidMnemonicOrPassword
	case wallet.ErrInvalidPrivateKey, wallet.ErrNullPrivateKey:
		return domain.ErrInvalidPrivateKey
	case wallet.ErrMissingEncryptionPassword, wallet.ErrInvalidEncryptionPassword:
		return domain.ErrInvalidEncryptionPassword
	case wallet.ErrUnsupportedPrivateKey:
		return domain.ErrUnsupportedPrivateKey
	case wallet.ErrInvalidAddress, wallet.ErrInvalidChecksum:
		return domain.ErrInvalidAddress
	case wallet.ErrInvalidPayload:
		return domain.ErrInvalidPayload
	case wallet.ErrNullDerivationPath, wallet.ErrInvalidDerivationPath,
		wallet.ErrMalformedDerivationPath, wallet.ErrNonHardenedDerivationPath:
		return domain.ErrInvalidDerivationPath
	default:
		return err
	}
}

func deriveHDCreds(
	mnemonic string, index int,
) (tezos, evm *wallet.AccountCreds, err error) {
	if tezos, err = wallet.MnemonicToTezosAccountCreds(mnemonic, index); err != nil {
		return nil, nil, err
	}
	if evm, err = wallet.MnemonicToEvmAccountCreds(mnemonic, index); err != nil {
		return nil, nil, err
	}
	return tezos, evm, nil
}

// credsEntries returns the private and public key records of the given
// credentials.
func credsEntries(creds ...*wallet.AccountCreds) []securestore.Entry {
	entries := make([]securestore.Entry, 0, 2*len(creds))
	for _, c := range creds {
		entries = append(
			entries,
			securestore.Entry{Key: domain.PrivateKeyKey(c.Address), Value: c.PrivateKey},
			securestore.Entry{Key: domain.PublicKeyKey(c.Address), Value: c.PublicKey},
		)
	}
	return entries
}
