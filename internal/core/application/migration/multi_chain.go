package migration

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"github.com/tdex-network/tdex-vault/pkg/securestore"
	"github.com/tdex-network/tdex-vault/pkg/wallet"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentChainIDRequests = 4

// multiChainMigration derives the EVM keys of the HD accounts, converts the
// single-chain account records to the tagged form and moves the network
// selection to the Tezos specific plain keys.
type multiChainMigration struct{}

func (multiChainMigration) Name() string { return "multi-chain" }

func (multiChainMigration) Apply(
	ctx context.Context, env *Env, password string,
) error {
	if err := migrateAccounts(env, password); err != nil {
		return err
	}
	return migrateNetworks(ctx, env)
}

func migrateAccounts(env *Env, password string) error {
	store := env.Store

	stored, err := store.IsStored(domain.AccountsKey)
	if err != nil || !stored {
		return err
	}

	key, err := store.ImportExistingKey(securestore.GenerateHash(password))
	if err != nil {
		return err
	}
	defer key.Zero()

	var records []domain.AccountRecord
	if err := store.FetchAndDecryptOne(domain.AccountsKey, key, &records); err != nil {
		return err
	}

	var mnemonic string
	entries := make([]securestore.Entry, 0)
	changed := false
	hdIndex := 0
	for i, record := range records {
		if record.Type == domain.AccountTypeHD {
			if record.HDIndex == nil {
				index := hdIndex
				record.HDIndex = &index
			}
			hdIndex++
		}
		if !record.IsLegacy() {
			continue
		}
		changed = true

		normalized := normalizeRecord(record)
		if normalized.Type == domain.AccountTypeHD {
			if mnemonic == "" {
				if err := store.FetchAndDecryptOne(
					domain.MnemonicKey, key, &mnemonic,
				); err != nil {
					return fmt.Errorf("failed to read mnemonic: %w", err)
				}
			}
			creds, err := wallet.MnemonicToEvmAccountCreds(
				mnemonic, *normalized.HDIndex,
			)
			if err != nil {
				return err
			}
			normalized.EvmAddress = creds.Address
			entries = append(
				entries,
				securestore.Entry{
					Key: domain.PrivateKeyKey(creds.Address), Value: creds.PrivateKey,
				},
				securestore.Entry{
					Key: domain.PublicKeyKey(creds.Address), Value: creds.PublicKey,
				},
			)
		}
		records[i] = normalized
	}
	if !changed {
		return nil
	}

	entries = append(entries, securestore.Entry{
		Key: domain.AccountsKey, Value: records,
	})
	return store.EncryptAndSaveMany(entries, key)
}

// normalizeRecord converts a single-chain record into the current tagged
// form. Every legacy account is a Tezos account.
func normalizeRecord(r domain.AccountRecord) domain.AccountRecord {
	n := domain.AccountRecord{
		ID:   domain.NewAccountID(),
		Type: r.Type,
		Name: r.Name,
	}
	address := legacyAddress(r)

	switch r.Type {
	case domain.AccountTypeHD:
		n.HDIndex = r.HDIndex
		n.TezosAddress = address
	case domain.AccountTypeImported:
		n.Chain = wallet.ChainTezos
		n.Address = address
	case domain.AccountTypeLedger:
		n.Chain = wallet.ChainTezos
		n.Address = address
		n.DerivationPath = r.DerivationPath
		n.DerivationType = r.DerivationType
	case domain.AccountTypeManagedKT:
		n.Chain = wallet.ChainTezos
		n.Address = address
		n.ChainID = r.ChainID
		n.Owner = r.Owner
	default:
		n.Type = domain.AccountTypeWatchOnly
		n.Chain = wallet.ChainTezos
		n.Address = address
		n.ChainID = r.ChainID
	}
	return n
}

// migrateNetworks moves the custom networks and the selected network to
// their Tezos specific keys. Chain ids of custom networks are resolved
// concurrently and best effort: a network whose chain id cannot be resolved
// is kept without it.
func migrateNetworks(ctx context.Context, env *Env) error {
	store := env.Store
	entries := make([]securestore.Entry, 0, 2)
	oldKeys := make([]string, 0, 2)

	var networks []domain.Network
	found, err := store.GetPlain(domain.LegacyNetworksKey, &networks)
	if err != nil {
		log.WithError(err).Warn("failed to read legacy custom networks, skipping")
	}
	if found {
		resolveChainIDs(ctx, env, networks)
		entries = append(entries, securestore.Entry{
			Key: domain.TezosNetworksKey, Value: networks,
		})
		oldKeys = append(oldKeys, domain.LegacyNetworksKey)
	}

	var selected string
	found, err = store.GetPlain(domain.LegacyNetworkIDKey, &selected)
	if err != nil {
		log.WithError(err).Warn("failed to read legacy selected network, skipping")
	}
	if found {
		entries = append(entries, securestore.Entry{
			Key: domain.TezosSelectedNetworkKey, Value: selected,
		})
		oldKeys = append(oldKeys, domain.LegacyNetworkIDKey)
	}

	if len(entries) <= 0 {
		return nil
	}
	if err := store.SavePlainMany(entries); err != nil {
		return err
	}
	return store.RemovePlain(oldKeys...)
}

func resolveChainIDs(ctx context.Context, env *Env, networks []domain.Network) {
	for i := range networks {
		networks[i].Chain = wallet.ChainTezos
	}
	if env.ChainIDs == nil {
		return
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentChainIDRequests)
	for i := range networks {
		network := &networks[i]
		if network.ChainID != "" {
			continue
		}
		eg.Go(func() error {
			chainID, err := env.ChainIDs.TezosChainID(ctx, network.RPCBaseURL)
			if err != nil {
				log.WithError(err).Warnf(
					"failed to resolve chain id of network %s, skipping", network.Name,
				)
				return nil
			}
			network.ChainID = chainID
			return nil
		})
	}
	// goroutines never fail
	_ = eg.Wait()
}
