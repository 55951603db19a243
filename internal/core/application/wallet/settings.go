package wallet

import (
	"context"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-vault/internal/core/application/vault"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"github.com/tdex-network/tdex-vault/pkg/wallet"
)

func (s *Service) Settings(ctx context.Context) (settings *domain.Settings, err error) {
	err = s.withVault(func(v *vault.Vault) error {
		settings, err = v.FetchSettings(ctx)
		return err
	})
	return
}

func (s *Service) UpdateSettings(
	ctx context.Context, patch domain.SettingsPatch,
) (settings *domain.Settings, err error) {
	err = s.withVault(func(v *vault.Vault) error {
		settings, err = v.UpdateSettings(ctx, patch)
		return err
	})
	return
}

// AddNetwork adds a custom network to the settings. Its chain id is fetched
// from the RPC endpoint when not given.
func (s *Service) AddNetwork(
	ctx context.Context, network domain.Network,
) (settings *domain.Settings, err error) {
	if !network.Chain.Valid() {
		return nil, domain.ErrInvalidChain
	}
	network.Name = strings.TrimSpace(network.Name)
	network.RPCBaseURL = strings.TrimSuffix(
		strings.TrimSpace(network.RPCBaseURL), "/",
	)
	if network.RPCBaseURL == "" {
		return nil, domain.ErrChainIDUnresolved
	}
	if network.ID == "" {
		network.ID = uuid.NewString()
	}

	if network.ChainID == "" {
		chainID, err := s.resolveChainID(ctx, network)
		if err != nil {
			return nil, err
		}
		network.ChainID = chainID
	} else if network.Chain == wallet.ChainTezos {
		if err := wallet.ValidateTezosChainID(network.ChainID); err != nil {
			return nil, domain.ErrInvalidChainID
		}
	}

	err = s.withVault(func(v *vault.Vault) error {
		current, err := v.FetchSettings(ctx)
		if err != nil {
			return err
		}
		networks := append(current.CustomNetworks, network)
		settings, err = v.UpdateSettings(ctx, domain.SettingsPatch{
			CustomNetworks: &networks,
		})
		return err
	})
	return
}

// RemoveNetwork removes the custom network with the given id.
func (s *Service) RemoveNetwork(
	ctx context.Context, id string,
) (settings *domain.Settings, err error) {
	err = s.withVault(func(v *vault.Vault) error {
		current, err := v.FetchSettings(ctx)
		if err != nil {
			return err
		}
		networks := make([]domain.Network, 0, len(current.CustomNetworks))
		for _, n := range current.CustomNetworks {
			if n.ID != id {
				networks = append(networks, n)
			}
		}
		if len(networks) == len(current.CustomNetworks) {
			return domain.ErrNetworkNotFound
		}
		settings, err = v.UpdateSettings(ctx, domain.SettingsPatch{
			CustomNetworks: &networks,
		})
		return err
	})
	return
}

func (s *Service) resolveChainID(
	ctx context.Context, network domain.Network,
) (string, error) {
	resolver := s.deps.ChainIDs
	if resolver == nil {
		return "", domain.ErrChainIDUnresolved
	}

	var (
		chainID string
		err     error
	)
	if network.Chain == wallet.ChainEvm {
		chainID, err = resolver.EvmChainID(ctx, network.RPCBaseURL)
	} else {
		chainID, err = resolver.TezosChainID(ctx, network.RPCBaseURL)
	}
	if err != nil {
		log.WithError(err).Warnf(
			"failed to fetch chain id of network %s", network.RPCBaseURL,
		)
		return "", domain.ErrChainIDUnresolved
	}
	return chainID, nil
}
