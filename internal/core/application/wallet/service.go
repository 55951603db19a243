package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/tdex-network/tdex-vault/internal/core/application/vault"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"github.com/tdex-network/tdex-vault/pkg/wallet"
)

// Service holds the unlocked vault, if any, and serializes every call made
// on it.
type Service struct {
	deps vault.Deps

	lock  *sync.Mutex
	vault *vault.Vault
}

func NewService(deps vault.Deps) (*Service, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("missing secure store")
	}
	return &Service{deps: deps, lock: &sync.Mutex{}}, nil
}

func (s *Service) Deps() vault.Deps {
	return s.deps
}

// IsUnlocked returns whether a vault is held.
func (s *Service) IsUnlocked() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.vault != nil
}

// SetVault replaces the held vault, locking the previous one. A nil vault
// locks the service.
func (s *Service) SetVault(v *vault.Vault) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.setVault(v)
}

func (s *Service) setVault(v *vault.Vault) {
	if s.vault != nil && s.vault != v {
		s.vault.Lock()
	}
	s.vault = v
}

// WithLock runs fn while holding the lock of the service. fn receives the
// held vault, which may be nil.
func (s *Service) WithLock(fn func(v *vault.Vault) (*vault.Vault, error)) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	v, err := fn(s.vault)
	if err != nil {
		return err
	}
	s.setVault(v)
	return nil
}

func (s *Service) withVault(fn func(v *vault.Vault) error) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.vault == nil {
		return domain.ErrVaultLocked
	}
	return fn(s.vault)
}

func (s *Service) Accounts(ctx context.Context) (accounts domain.Accounts, err error) {
	err = s.withVault(func(v *vault.Vault) error {
		accounts, err = v.FetchAccounts(ctx)
		return err
	})
	return
}

func (s *Service) CreateHDAccount(
	ctx context.Context, name string, hdIndex *int,
) (accounts domain.Accounts, err error) {
	err = s.withVault(func(v *vault.Vault) error {
		accounts, err = v.CreateHDAccount(ctx, name, hdIndex)
		return err
	})
	return
}

// FindFreeHDIndex returns the first HD index, starting from the number of HD
// accounts, whose Tezos address is not owned by any account. If indexes are
// skipped because another kind of account owns their address, the first of
// those accounts is returned too. Indexes held by HD accounts created out of
// order are skipped silently.
func (s *Service) FindFreeHDIndex(
	ctx context.Context,
) (index int, skipped *domain.Account, err error) {
	err = s.withVault(func(v *vault.Vault) error {
		accounts, err := v.FetchAccounts(ctx)
		if err != nil {
			return err
		}
		for index = accounts.HDCount(); ; index++ {
			address, _, err := v.DeriveHDAddresses(ctx, index)
			if err != nil {
				return err
			}
			owner, used := accounts.ByAddress(address)
			if !used {
				return nil
			}
			if skipped == nil && owner.Type() != domain.AccountTypeHD {
				skipped = owner
			}
		}
	})
	return
}

func (s *Service) ImportAccount(
	ctx context.Context, chain wallet.Chain, privateKey, encPassword string,
) (accounts domain.Accounts, err error) {
	err = s.withVault(func(v *vault.Vault) error {
		accounts, err = v.ImportAccount(ctx, chain, privateKey, encPassword)
		return err
	})
	return
}

func (s *Service) ImportMnemonicAccount(
	ctx context.Context,
	chain wallet.Chain, mnemonic, passphrase, derivationPath string,
) (accounts domain.Accounts, err error) {
	err = s.withVault(func(v *vault.Vault) error {
		accounts, err = v.ImportMnemonicAccount(
			ctx, chain, mnemonic, passphrase, derivationPath,
		)
		return err
	})
	return
}

func (s *Service) ImportFundraiserAccount(
	ctx context.Context, email, password, mnemonic string,
) (accounts domain.Accounts, err error) {
	err = s.withVault(func(v *vault.Vault) error {
		accounts, err = v.ImportFundraiserAccount(ctx, email, password, mnemonic)
		return err
	})
	return
}

func (s *Service) ImportManagedKTAccount(
	ctx context.Context, address, chainID, owner string,
) (accounts domain.Accounts, err error) {
	err = s.withVault(func(v *vault.Vault) error {
		accounts, err = v.ImportManagedKTAccount(ctx, address, chainID, owner)
		return err
	})
	return
}

func (s *Service) ImportWatchOnlyAccount(
	ctx context.Context, chain wallet.Chain, address, chainID string,
) (accounts domain.Accounts, err error) {
	err = s.withVault(func(v *vault.Vault) error {
		accounts, err = v.ImportWatchOnlyAccount(ctx, chain, address, chainID)
		return err
	})
	return
}

func (s *Service) CreateLedgerAccount(
	ctx context.Context, name string, chain wallet.Chain,
	derivationPath string, derivationType domain.DerivationType,
) (accounts domain.Accounts, err error) {
	err = s.withVault(func(v *vault.Vault) error {
		accounts, err = v.CreateLedgerAccount(
			ctx, name, chain, derivationPath, derivationType,
		)
		return err
	})
	return
}

func (s *Service) EditAccountName(
	ctx context.Context, id, name string,
) (accounts domain.Accounts, err error) {
	err = s.withVault(func(v *vault.Vault) error {
		accounts, err = v.EditAccountName(ctx, id, name)
		return err
	})
	return
}

func (s *Service) RemoveAccount(
	ctx context.Context, id, password string,
) (accounts domain.Accounts, err error) {
	err = s.withVault(func(v *vault.Vault) error {
		accounts, err = v.RemoveAccount(ctx, id, password)
		return err
	})
	return
}

func (s *Service) RevealMnemonic(
	ctx context.Context, password string,
) (mnemonic string, err error) {
	err = s.withVault(func(v *vault.Vault) error {
		mnemonic, err = v.RevealMnemonic(ctx, password)
		return err
	})
	return
}

func (s *Service) RevealPrivateKey(
	ctx context.Context, address, password string,
) (privateKey string, err error) {
	err = s.withVault(func(v *vault.Vault) error {
		privateKey, err = v.RevealPrivateKey(ctx, address, password)
		return err
	})
	return
}

func (s *Service) GenerateSyncPayload(
	ctx context.Context, password string,
) (payload string, err error) {
	err = s.withVault(func(v *vault.Vault) error {
		payload, err = v.GenerateSyncPayload(ctx, password)
		return err
	})
	return
}

func (s *Service) Sign(
	ctx context.Context, address, bytesHex string, watermark []byte,
) (signature *domain.Signature, err error) {
	err = s.withVault(func(v *vault.Vault) error {
		signature, err = v.Sign(ctx, address, bytesHex, watermark)
		return err
	})
	return
}

func (s *Service) SendOperations(
	ctx context.Context, address, rpcURL string, ops []domain.OperationParams,
) (sent *domain.SentOperation, err error) {
	err = s.withVault(func(v *vault.Vault) error {
		sent, err = v.SendOperations(ctx, address, rpcURL, ops)
		return err
	})
	return
}
