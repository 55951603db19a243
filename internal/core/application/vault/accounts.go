package vault

import (
	"context"
	"strings"

	"github.com/decred/dcrwallet/errors/v2"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"github.com/tdex-network/tdex-vault/internal/core/ports"
	"github.com/tdex-network/tdex-vault/pkg/securestore"
	"github.com/tdex-network/tdex-vault/pkg/wallet"
)

// FetchAccounts returns the ordered list of accounts.
func (v *Vault) FetchAccounts(ctx context.Context) (domain.Accounts, error) {
	const op errors.Op = "vault.FetchAccounts"

	var accounts domain.Accounts
	err := withError(op, "Failed to fetch accounts", func() (err error) {
		accounts, err = v.fetchAccounts()
		return
	})
	return accounts, err
}

// CreateHDAccount derives a new HD account. Without hdIndex the next index
// is the number of HD accounts. If the derived address already belongs to an
// account the following index is tried, until a free one is found.
func (v *Vault) CreateHDAccount(
	ctx context.Context, name string, hdIndex *int,
) (domain.Accounts, error) {
	const op errors.Op = "vault.CreateHDAccount"

	var accounts domain.Accounts
	err := withError(op, "Failed to create account", func() error {
		key, err := v.sessionKey()
		if err != nil {
			return err
		}
		if accounts, err = v.fetchAccounts(); err != nil {
			return err
		}
		if hdIndex != nil && *hdIndex < 0 {
			return domain.ErrInvalidDerivationPath
		}
		if name, err = accountName(accounts, name, domain.AccountTypeHD); err != nil {
			return err
		}

		var mnemonic string
		if err := v.deps.Store.FetchAndDecryptOne(
			domain.MnemonicKey, key, &mnemonic,
		); err != nil {
			return err
		}

		index := accounts.HDCount()
		if hdIndex != nil {
			index = *hdIndex
		}
		var tezos, evm *wallet.AccountCreds
		for {
			if tezos, evm, err = deriveHDCreds(mnemonic, index); err != nil {
				return err
			}
			if _, exists := accounts.ByAddress(tezos.Address); !exists {
				break
			}
			index++
		}

		accounts = append(accounts, domain.Account{
			ID:   domain.NewAccountID(),
			Name: name,
			Kind: domain.HDAccount{
				Index:        index,
				TezosAddress: tezos.Address,
				EvmAddress:   evm.Address,
			},
		})
		return v.saveAccounts(key, accounts, credsEntries(tezos, evm)...)
	})
	return accounts, err
}

// DeriveHDAddresses returns the Tezos and EVM addresses of the HD account at
// the given index, without storing anything.
func (v *Vault) DeriveHDAddresses(
	ctx context.Context, index int,
) (tezosAddress, evmAddress string, err error) {
	const op errors.Op = "vault.DeriveHDAddresses"

	err = withError(op, "Failed to derive account", func() error {
		key, err := v.sessionKey()
		if err != nil {
			return err
		}
		var mnemonic string
		if err := v.deps.Store.FetchAndDecryptOne(
			domain.MnemonicKey, key, &mnemonic,
		); err != nil {
			return err
		}
		tezos, evm, err := deriveHDCreds(mnemonic, index)
		if err != nil {
			return err
		}
		tezosAddress, evmAddress = tezos.Address, evm.Address
		return nil
	})
	return
}

// ImportAccount imports a raw private key of the given chain. Tezos keys may
// be encrypted (edesk), in which case encPassword opens them.
func (v *Vault) ImportAccount(
	ctx context.Context, chain wallet.Chain, privateKey, encPassword string,
) (domain.Accounts, error) {
	const op errors.Op = "vault.ImportAccount"

	var accounts domain.Accounts
	err := withError(op, "Failed to import account", func() (err error) {
		var creds *wallet.AccountCreds
		switch chain {
		case wallet.ChainTezos:
			creds, err = wallet.PrivateKeyToTezosAccountCreds(privateKey, encPassword)
		case wallet.ChainEvm:
			creds, err = wallet.PrivateKeyToEvmAccountCreds(privateKey)
		default:
			return domain.ErrInvalidChain
		}
		if err != nil {
			return err
		}
		accounts, err = v.importCreds(chain, creds)
		return
	})
	return accounts, err
}

// ImportMnemonicAccount imports the key derived from a foreign mnemonic, an
// optional BIP-39 passphrase and an optional derivation path.
func (v *Vault) ImportMnemonicAccount(
	ctx context.Context,
	chain wallet.Chain, mnemonic, passphrase, derivationPath string,
) (domain.Accounts, error) {
	const op errors.Op = "vault.ImportMnemonicAccount"

	var accounts domain.Accounts
	err := withError(op, "Failed to import account", func() (err error) {
		var creds *wallet.AccountCreds
		switch chain {
		case wallet.ChainTezos:
			creds, err = wallet.TezosMnemonicWithPathToAccountCreds(
				mnemonic, passphrase, derivationPath,
			)
		case wallet.ChainEvm:
			creds, err = wallet.EvmMnemonicWithPathToAccountCreds(
				mnemonic, passphrase, derivationPath,
			)
		default:
			return domain.ErrInvalidChain
		}
		if err != nil {
			return err
		}
		accounts, err = v.importCreds(chain, creds)
		return
	})
	return accounts, err
}

// ImportFundraiserAccount imports a Tezos fundraiser account.
func (v *Vault) ImportFundraiserAccount(
	ctx context.Context, email, password, mnemonic string,
) (domain.Accounts, error) {
	const op errors.Op = "vault.ImportFundraiserAccount"

	var accounts domain.Accounts
	err := withError(op, "Failed to import fundraiser account", func() error {
		creds, err := wallet.FundraiserToTezosAccountCreds(mnemonic, email, password)
		if err != nil {
			return err
		}
		accounts, err = v.importCreds(wallet.ChainTezos, creds)
		return err
	})
	return accounts, err
}

// importCreds stores the keys of an imported account. Importing twice the
// same address on the same chain fails with domain.ErrAccountExists, while
// an address shared with an HD account is allowed.
func (v *Vault) importCreds(
	chain wallet.Chain, creds *wallet.AccountCreds,
) (domain.Accounts, error) {
	key, err := v.sessionKey()
	if err != nil {
		return nil, err
	}
	accounts, err := v.fetchAccounts()
	if err != nil {
		return nil, err
	}

	for _, a := range accounts.OfType(domain.AccountTypeImported) {
		if a.Address(chain) == creds.Address {
			return nil, domain.ErrAccountExists
		}
	}

	accounts = append(accounts, domain.Account{
		ID:   domain.NewAccountID(),
		Name: domain.NewAccountName(accounts, domain.AccountTypeImported),
		Kind: domain.ImportedAccount{Chain: chain, Address: creds.Address},
	})
	if err := v.saveAccounts(key, accounts, credsEntries(creds)...); err != nil {
		return nil, err
	}
	return accounts, nil
}

// ImportManagedKTAccount adds an originated contract managed by one of the
// accounts of the vault.
func (v *Vault) ImportManagedKTAccount(
	ctx context.Context, address, chainID, owner string,
) (domain.Accounts, error) {
	const op errors.Op = "vault.ImportManagedKTAccount"

	var accounts domain.Accounts
	err := withError(op, "Failed to import managed contract", func() error {
		if !wallet.IsKTAddress(address) {
			return domain.ErrInvalidAddress
		}
		if err := wallet.ValidateTezosChainID(chainID); err != nil {
			return domain.ErrInvalidChainID
		}

		key, err := v.sessionKey()
		if err != nil {
			return err
		}
		if accounts, err = v.fetchAccounts(); err != nil {
			return err
		}
		ownerAccount, ok := accounts.ByAddress(owner)
		if !ok || ownerAccount.Address(wallet.ChainTezos) != owner {
			return domain.ErrManagedKTOwnerNotFound
		}
		if _, exists := accounts.ByAddress(address); exists {
			return domain.ErrAccountExists
		}

		accounts = append(accounts, domain.Account{
			ID:   domain.NewAccountID(),
			Name: domain.NewAccountName(accounts, domain.AccountTypeManagedKT),
			Kind: domain.ManagedKTAccount{
				Address: address, ChainID: chainID, Owner: owner,
			},
		})
		return v.saveAccounts(key, accounts)
	})
	return accounts, err
}

// ImportWatchOnlyAccount adds an address that can only be observed. Tezos
// accounts can be bound to a chain id.
func (v *Vault) ImportWatchOnlyAccount(
	ctx context.Context, chain wallet.Chain, address, chainID string,
) (domain.Accounts, error) {
	const op errors.Op = "vault.ImportWatchOnlyAccount"

	var accounts domain.Accounts
	err := withError(op, "Failed to import watch-only account", func() error {
		address = strings.TrimSpace(address)
		switch chain {
		case wallet.ChainTezos:
			if err := wallet.ValidateTezosAddress(address); err != nil {
				return domain.ErrInvalidAddress
			}
			if chainID != "" {
				if err := wallet.ValidateTezosChainID(chainID); err != nil {
					return domain.ErrInvalidChainID
				}
			}
		case wallet.ChainEvm:
			if err := wallet.ValidateEvmAddress(address); err != nil {
				return domain.ErrInvalidAddress
			}
			address = wallet.ChecksumEvmAddress(address)
		default:
			return domain.ErrInvalidChain
		}

		key, err := v.sessionKey()
		if err != nil {
			return err
		}
		if accounts, err = v.fetchAccounts(); err != nil {
			return err
		}
		if _, exists := accounts.ByAddress(address); exists {
			return domain.ErrAccountExists
		}

		accounts = append(accounts, domain.Account{
			ID:   domain.NewAccountID(),
			Name: domain.NewAccountName(accounts, domain.AccountTypeWatchOnly),
			Kind: domain.WatchOnlyAccount{
				Chain: chain, Address: address, ChainID: chainID,
			},
		})
		return v.saveAccounts(key, accounts)
	})
	return accounts, err
}

// CreateLedgerAccount adds an account whose key is held by a hardware
// device. Only its public key is stored.
func (v *Vault) CreateLedgerAccount(
	ctx context.Context, name string, chain wallet.Chain,
	derivationPath string, derivationType domain.DerivationType,
) (domain.Accounts, error) {
	const op errors.Op = "vault.CreateLedgerAccount"

	var accounts domain.Accounts
	err := withError(op, "Failed to connect Ledger account", func() error {
		if !chain.Valid() {
			return domain.ErrInvalidChain
		}
		if _, err := wallet.ParseDerivationPath(derivationPath); err != nil {
			return domain.ErrInvalidDerivationPath
		}
		if v.deps.Signers == nil {
			return errors.E(errors.Invalid, "hardware signers are not supported")
		}

		key, err := v.sessionKey()
		if err != nil {
			return err
		}
		if accounts, err = v.fetchAccounts(); err != nil {
			return err
		}
		if name, err = accountName(accounts, name, domain.AccountTypeLedger); err != nil {
			return err
		}

		publicKey, err := v.hardwarePublicKey(ctx, ports.HardwareSignerOpts{
			Chain:          chain,
			DerivationPath: derivationPath,
			DerivationType: derivationType,
		})
		if err != nil {
			return err
		}
		var address string
		if chain == wallet.ChainTezos {
			address, err = wallet.TezosPublicKeyToAddress(publicKey)
		} else {
			address, err = wallet.EvmPublicKeyToAddress(publicKey)
		}
		if err != nil {
			return err
		}
		if _, exists := accounts.ByAddress(address); exists {
			return domain.ErrAccountExists
		}

		accounts = append(accounts, domain.Account{
			ID:   domain.NewAccountID(),
			Name: name,
			Kind: domain.LedgerAccount{
				Chain:          chain,
				Address:        address,
				DerivationPath: derivationPath,
				DerivationType: derivationType,
			},
		})
		return v.saveAccounts(key, accounts, securestore.Entry{
			Key: domain.PublicKeyKey(address), Value: publicKey,
		})
	})
	return accounts, err
}

func (v *Vault) hardwarePublicKey(
	ctx context.Context, opts ports.HardwareSignerOpts,
) (string, error) {
	signer, cleanup, err := v.deps.Signers.Create(ctx, opts)
	if err != nil {
		return "", err
	}
	defer cleanup()

	return signer.PublicKey(ctx)
}

// EditAccountName renames an account. Renaming an account to its own name
// is allowed.
func (v *Vault) EditAccountName(
	ctx context.Context, id, name string,
) (domain.Accounts, error) {
	const op errors.Op = "vault.EditAccountName"

	var accounts domain.Accounts
	err := withError(op, "Failed to edit account name", func() error {
		key, err := v.sessionKey()
		if err != nil {
			return err
		}
		if accounts, err = v.fetchAccounts(); err != nil {
			return err
		}
		account, ok := accounts.ByID(id)
		if !ok {
			return domain.ErrAccountNotFound
		}
		if name, err = domain.ValidateAccountName(accounts, name, id); err != nil {
			return err
		}
		account.Name = name
		return v.saveAccounts(key, accounts)
	})
	return accounts, err
}

// RemoveAccount removes a non HD account after validating password. The key
// records of its addresses are deleted unless another account still refers
// to them.
func (v *Vault) RemoveAccount(
	ctx context.Context, id, password string,
) (domain.Accounts, error) {
	const op errors.Op = "vault.RemoveAccount"

	var accounts domain.Accounts
	err := withError(op, "Failed to remove account", func() error {
		key, err := v.passKey(password)
		if err != nil {
			return err
		}
		defer key.Zero()

		if accounts, err = v.fetchAccounts(); err != nil {
			return err
		}
		account, ok := accounts.ByID(id)
		if !ok {
			return domain.ErrAccountNotFound
		}
		if account.Type() == domain.AccountTypeHD {
			return domain.ErrRemoveHDAccount
		}

		removed := *account
		remaining := make(domain.Accounts, 0, len(accounts)-1)
		for _, a := range accounts {
			if a.ID != id {
				remaining = append(remaining, a)
			}
		}

		// The list is written first so that no account is ever left without
		// its keys.
		if err := v.saveAccounts(key, remaining); err != nil {
			return err
		}
		accounts = remaining

		orphans := make([]string, 0, 2)
		for _, address := range removed.Addresses() {
			if remaining.IsAddressReferenced(address) {
				continue
			}
			orphans = append(
				orphans, domain.PrivateKeyKey(address), domain.PublicKeyKey(address),
			)
		}
		return v.deps.Store.RemoveMany(orphans...)
	})
	return accounts, err
}

func (v *Vault) fetchAccounts() (domain.Accounts, error) {
	key, err := v.sessionKey()
	if err != nil {
		return nil, err
	}
	var accounts domain.Accounts
	if err := v.deps.Store.FetchAndDecryptOne(
		domain.AccountsKey, key, &accounts,
	); err != nil {
		return nil, err
	}
	return accounts, nil
}

// saveAccounts writes the account list together with the given key records
// in a single batch.
func (v *Vault) saveAccounts(
	key *securestore.PassKey, accounts domain.Accounts,
	entries ...securestore.Entry,
) error {
	entries = append(entries, securestore.Entry{
		Key: domain.AccountsKey, Value: accounts,
	})
	return v.deps.Store.EncryptAndSaveMany(entries, key)
}

// accountName returns the trimmed name if given, or the default name of the
// next account of the given type.
func accountName(
	accounts domain.Accounts, name string, t domain.AccountType,
) (string, error) {
	if strings.TrimSpace(name) == "" {
		return domain.NewAccountName(accounts, t), nil
	}
	return domain.ValidateAccountName(accounts, name, "")
}
