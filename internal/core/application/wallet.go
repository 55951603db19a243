package application

import (
	"context"

	"github.com/tdex-network/tdex-vault/internal/core/application/vault"
	"github.com/tdex-network/tdex-vault/internal/core/application/wallet"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
	pkgwallet "github.com/tdex-network/tdex-vault/pkg/wallet"
)

type WalletService interface {
	Accounts(ctx context.Context) (domain.Accounts, error)
	CreateHDAccount(
		ctx context.Context, name string, hdIndex *int,
	) (domain.Accounts, error)
	FindFreeHDIndex(ctx context.Context) (int, *domain.Account, error)
	ImportAccount(
		ctx context.Context, chain pkgwallet.Chain, privateKey, encPassword string,
	) (domain.Accounts, error)
	ImportMnemonicAccount(
		ctx context.Context,
		chain pkgwallet.Chain, mnemonic, passphrase, derivationPath string,
	) (domain.Accounts, error)
	ImportFundraiserAccount(
		ctx context.Context, email, password, mnemonic string,
	) (domain.Accounts, error)
	ImportManagedKTAccount(
		ctx context.Context, address, chainID, owner string,
	) (domain.Accounts, error)
	ImportWatchOnlyAccount(
		ctx context.Context, chain pkgwallet.Chain, address, chainID string,
	) (domain.Accounts, error)
	CreateLedgerAccount(
		ctx context.Context, name string, chain pkgwallet.Chain,
		derivationPath string, derivationType domain.DerivationType,
	) (domain.Accounts, error)
	EditAccountName(ctx context.Context, id, name string) (domain.Accounts, error)
	RemoveAccount(ctx context.Context, id, password string) (domain.Accounts, error)
	RevealMnemonic(ctx context.Context, password string) (string, error)
	RevealPrivateKey(ctx context.Context, address, password string) (string, error)
	GenerateSyncPayload(ctx context.Context, password string) (string, error)
	Settings(ctx context.Context) (*domain.Settings, error)
	UpdateSettings(
		ctx context.Context, patch domain.SettingsPatch,
	) (*domain.Settings, error)
	AddNetwork(ctx context.Context, network domain.Network) (*domain.Settings, error)
	RemoveNetwork(ctx context.Context, id string) (*domain.Settings, error)
	Sign(
		ctx context.Context, address, bytesHex string, watermark []byte,
	) (*domain.Signature, error)
	SendOperations(
		ctx context.Context, address, rpcURL string, ops []domain.OperationParams,
	) (*domain.SentOperation, error)
}

func NewWalletService(deps vault.Deps) (WalletService, error) {
	svc, err := wallet.NewService(deps)
	if err != nil {
		return nil, err
	}
	return svc, nil
}
