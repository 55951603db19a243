package unlocker

import (
	"context"
	"fmt"

	"github.com/tdex-network/tdex-vault/internal/core/application/vault"
	"github.com/tdex-network/tdex-vault/internal/core/application/wallet"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
)

// Status tells whether a vault exists and whether it is unlocked.
type Status struct {
	Initialized bool
	Unlocked    bool
}

type service struct {
	wallet *wallet.Service
}

func NewService(walletSvc *wallet.Service) (*service, error) {
	if walletSvc == nil {
		return nil, fmt.Errorf("missing wallet service")
	}
	return &service{walletSvc}, nil
}

func (s *service) IsExist(ctx context.Context) (bool, error) {
	return vault.IsExist(s.wallet.Deps())
}

// Spawn creates a new vault, replacing any existing one, and leaves it
// locked.
func (s *service) Spawn(
	ctx context.Context, password, mnemonic string,
) (address string, err error) {
	err = s.wallet.WithLock(func(*vault.Vault) (*vault.Vault, error) {
		address, err = vault.Spawn(ctx, s.wallet.Deps(), password, mnemonic)
		return nil, err
	})
	return
}

func (s *service) Unlock(
	ctx context.Context, password string, saveSession bool,
) error {
	return s.wallet.WithLock(func(current *vault.Vault) (*vault.Vault, error) {
		if current != nil {
			return nil, domain.ErrVaultUnlocked
		}
		return vault.Setup(ctx, s.wallet.Deps(), password, saveSession)
	})
}

// RecoverSession unlocks the vault with the saved session, if any, and
// returns whether it succeeded.
func (s *service) RecoverSession(ctx context.Context) (recovered bool, err error) {
	err = s.wallet.WithLock(func(current *vault.Vault) (*vault.Vault, error) {
		if current != nil {
			recovered = true
			return current, nil
		}
		v, err := vault.RecoverFromSession(ctx, s.wallet.Deps())
		recovered = v != nil
		return v, err
	})
	return
}

// Lock locks the held vault and forgets the saved session.
func (s *service) Lock(ctx context.Context) error {
	s.wallet.SetVault(nil)
	return vault.ForgetSession(ctx, s.wallet.Deps())
}

func (s *service) ChangePassword(
	ctx context.Context, oldPassword, newPassword string,
) error {
	return s.wallet.WithLock(func(current *vault.Vault) (*vault.Vault, error) {
		if current == nil {
			return nil, domain.ErrVaultLocked
		}
		return current, current.ChangePassword(ctx, oldPassword, newPassword)
	})
}

func (s *service) RunMigrations(ctx context.Context, password string) error {
	return s.wallet.WithLock(func(current *vault.Vault) (*vault.Vault, error) {
		return current, vault.RunMigrations(ctx, s.wallet.Deps(), password)
	})
}

func (s *service) Status(ctx context.Context) (Status, error) {
	initialized, err := vault.IsExist(s.wallet.Deps())
	if err != nil {
		return Status{}, err
	}
	return Status{
		Initialized: initialized,
		Unlocked:    s.wallet.IsUnlocked(),
	}, nil
}
