package migration

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"github.com/tdex-network/tdex-vault/pkg/securestore"
	"github.com/tdex-network/tdex-vault/pkg/wallet"
)

// hdIndexMigration assigns an index to the legacy HD accounts that have
// none, following their order in the account list.
type hdIndexMigration struct{}

func (hdIndexMigration) Name() string { return "hd-index" }

func (hdIndexMigration) Apply(
	_ context.Context, env *Env, password string,
) error {
	var accounts []domain.AccountRecord
	found, err := fetchLegacy(env, domain.AccountsKey, password, &accounts)
	if err != nil || !found {
		return err
	}

	changed := false
	hdIndex := 0
	for i := range accounts {
		if accounts[i].Type != domain.AccountTypeHD {
			continue
		}
		if accounts[i].HDIndex == nil {
			index := hdIndex
			accounts[i].HDIndex = &index
			changed = true
		}
		hdIndex++
	}
	if !changed {
		return nil
	}

	return env.Store.EncryptAndSaveManyLegacy(
		[]securestore.Entry{{Key: domain.AccountsKey, Value: accounts}},
		env.legacy(password),
	)
}

// publicKeysMigration stores the public key of the legacy accounts holding a
// private key but no public key record.
type publicKeysMigration struct{}

func (publicKeysMigration) Name() string { return "public-keys" }

func (publicKeysMigration) Apply(
	_ context.Context, env *Env, password string,
) error {
	var accounts []domain.AccountRecord
	found, err := fetchLegacy(env, domain.AccountsKey, password, &accounts)
	if err != nil || !found {
		return err
	}

	entries := make([]securestore.Entry, 0)
	for _, account := range accounts {
		if account.Type != domain.AccountTypeHD &&
			account.Type != domain.AccountTypeImported {
			continue
		}
		address := account.PublicKeyHash
		if address == "" {
			continue
		}

		stored, err := env.Store.IsStoredLegacy(domain.PublicKeyKey(address))
		if err != nil {
			return err
		}
		if stored {
			continue
		}

		var privateKey string
		found, err := fetchLegacy(
			env, domain.PrivateKeyKey(address), password, &privateKey,
		)
		if err != nil {
			log.WithError(err).Warnf(
				"unreadable private key of legacy account %s, skipping", address,
			)
			continue
		}
		if !found {
			log.Warnf("missing private key of legacy account %s, skipping", address)
			continue
		}

		creds, err := wallet.PrivateKeyToTezosAccountCreds(privateKey, "")
		if err != nil {
			log.WithError(err).Warnf(
				"invalid private key of legacy account %s, skipping", address,
			)
			continue
		}
		entries = append(entries, securestore.Entry{
			Key: domain.PublicKeyKey(address), Value: creds.PublicKey,
		})
	}
	if len(entries) <= 0 {
		return nil
	}

	return env.Store.EncryptAndSaveManyLegacy(entries, env.legacy(password))
}
