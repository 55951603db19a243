package migration

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"github.com/tdex-network/tdex-vault/pkg/securestore"
)

// cryptoUpgradeMigration moves every legacy record to the current codec and
// writes the check value, which legacy stores never had. The plain contact
// list is folded into the settings. Legacy records are deleted only after the
// current ones are written. Key records of single accounts that cannot be
// read with the password are skipped and left in the legacy namespace.
type cryptoUpgradeMigration struct{}

func (cryptoUpgradeMigration) Name() string { return "crypto-upgrade" }

func (cryptoUpgradeMigration) Apply(
	_ context.Context, env *Env, password string,
) error {
	var mnemonic string
	found, err := fetchLegacy(env, domain.MnemonicKey, password, &mnemonic)
	if err != nil || !found {
		return err
	}

	accounts := make([]domain.AccountRecord, 0)
	if _, err := fetchLegacy(
		env, domain.AccountsKey, password, &accounts,
	); err != nil {
		return fmt.Errorf("failed to read legacy accounts: %w", err)
	}

	var rawSettings json.RawMessage
	if _, err := fetchLegacy(
		env, domain.SettingsKey, password, &rawSettings,
	); err != nil {
		return fmt.Errorf("failed to read legacy settings: %w", err)
	}
	settings, err := domain.MergeSettings(rawSettings)
	if err != nil {
		return fmt.Errorf("failed to decode legacy settings: %w", err)
	}

	var contacts []domain.Contact
	if _, err := env.Store.GetPlain(domain.ContactsKey, &contacts); err != nil {
		log.WithError(err).Warn("failed to read plain contacts, skipping")
	}
	settings.Contacts = mergeContacts(settings.Contacts, contacts)

	entries := []securestore.Entry{
		{Key: domain.CheckKey, Value: domain.NewCheckValue()},
		{Key: domain.MnemonicKey, Value: mnemonic},
		{Key: domain.AccountsKey, Value: accounts},
		{Key: domain.SettingsKey, Value: settings},
	}
	unreadable := make(map[string]bool)
	for _, account := range accounts {
		address := legacyAddress(account)
		if address == "" {
			continue
		}
		for _, key := range []string{
			domain.PrivateKeyKey(address), domain.PublicKeyKey(address),
		} {
			var value string
			found, err := fetchLegacy(env, key, password, &value)
			if err != nil {
				log.WithError(err).Warnf(
					"failed to read legacy record %s, leaving it in place", key,
				)
				unreadable[key] = true
				continue
			}
			if found {
				entries = append(entries, securestore.Entry{Key: key, Value: value})
			}
		}
	}

	key, err := env.Store.GenerateKey(password)
	if err != nil {
		return err
	}
	defer key.Zero()

	if err := env.Store.EncryptAndSaveMany(entries, key); err != nil {
		return err
	}

	legacyKeys, err := env.Store.LegacyKeys()
	if err != nil {
		return err
	}
	migrated := make([]string, 0, len(legacyKeys))
	for _, k := range legacyKeys {
		if !unreadable[k] {
			migrated = append(migrated, k)
		}
	}
	if err := env.Store.RemoveManyLegacy(migrated...); err != nil {
		return err
	}
	return env.Store.RemovePlain(domain.ContactsKey)
}

// legacyAddress returns the address the key records of an account are
// stored under, for both legacy and current records.
func legacyAddress(account domain.AccountRecord) string {
	if account.PublicKeyHash != "" {
		return account.PublicKeyHash
	}
	return account.Address
}

func mergeContacts(contacts, others []domain.Contact) []domain.Contact {
	known := make(map[string]bool, len(contacts))
	for _, c := range contacts {
		known[c.Address] = true
	}
	for _, c := range others {
		if known[c.Address] {
			continue
		}
		known[c.Address] = true
		contacts = append(contacts, c)
	}
	return contacts
}
