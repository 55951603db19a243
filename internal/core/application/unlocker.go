package application

import (
	"context"
	"fmt"

	"github.com/tdex-network/tdex-vault/internal/core/application/unlocker"
	"github.com/tdex-network/tdex-vault/internal/core/application/wallet"
)

type VaultStatus = unlocker.Status

type UnlockerService interface {
	IsExist(ctx context.Context) (bool, error)
	Spawn(ctx context.Context, password, mnemonic string) (string, error)
	Unlock(ctx context.Context, password string, saveSession bool) error
	RecoverSession(ctx context.Context) (bool, error)
	Lock(ctx context.Context) error
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	RunMigrations(ctx context.Context, password string) error
	Status(ctx context.Context) (VaultStatus, error)
}

// NewUnlockerService returns the service unlocking the vault held by
// walletSvc, which must be the one returned by NewWalletService.
func NewUnlockerService(walletSvc WalletService) (UnlockerService, error) {
	w, ok := walletSvc.(*wallet.Service)
	if !ok {
		return nil, fmt.Errorf(
			"wallet service must be created with NewWalletService, got %T",
			walletSvc,
		)
	}
	svc, err := unlocker.NewService(w)
	if err != nil {
		return nil, err
	}
	return svc, nil
}
