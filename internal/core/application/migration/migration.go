// Package migration upgrades the data persisted by older versions of the
// vault to the current layout.
//
// Migrations are kept in an append-only list whose positions are the levels
// persisted in the plain migrationLevel record. A migration runs only while
// the persisted level is not greater than its position, and once all the due
// migrations have been attempted the level is moved to the length of the
// list, even if one of them failed. A broken migration must never lock the
// user out of the vault.
package migration

import (
	"context"

	"github.com/decred/dcrwallet/errors/v2"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"github.com/tdex-network/tdex-vault/internal/core/ports"
	"github.com/tdex-network/tdex-vault/internal/metrics"
	"github.com/tdex-network/tdex-vault/pkg/securestore"
)

// Migration is a one shot upgrade of the persisted data. Apply must be a no-op
// when the data it upgrades is not there.
type Migration interface {
	Name() string
	Apply(ctx context.Context, env *Env, password string) error
}

// Pipeline is the ordered list of migrations. New migrations are only ever
// appended.
var Pipeline = []Migration{
	hdIndexMigration{},
	publicKeysMigration{},
	cryptoUpgradeMigration{},
	multiChainMigration{},
}

// CryptoUpgradeLevel is the level of the migration moving legacy records to
// the current codec. It is the checkpoint the level is forced back to when
// legacy and current data are found side by side.
const CryptoUpgradeLevel = 2

// Latest returns the level of a fully migrated store.
func Latest() int {
	return len(Pipeline)
}

// Env holds the collaborators of the migrations.
type Env struct {
	Store *securestore.SecureStore
	// ChainIDs is optional. Without it network chain ids are left empty.
	ChainIDs ports.ChainIDResolver

	legacyKey *securestore.LegacyKey
}

// legacy returns a legacy key for the password, shared by all the
// migrations of a run so that scrypt is not run again for the same salt.
func (e *Env) legacy(password string) *securestore.LegacyKey {
	if e.legacyKey == nil {
		e.legacyKey = securestore.NewLegacyKey(password)
	}
	return e.legacyKey
}

// Run applies the due migrations. The password is validated before any
// migration runs, and an invalid password aborts the run without touching
// the persisted level.
func Run(ctx context.Context, env *Env, password string) error {
	const op errors.Op = "migration.Run"

	level, err := EffectiveLevel(env, password)
	if err != nil {
		return errors.E(op, err)
	}
	if level >= Latest() {
		return nil
	}
	if err := ValidatePassword(env, password); err != nil {
		return errors.E(op, err)
	}

	for i := level; i < Latest(); i++ {
		m := Pipeline[i]
		log.Infof("applying migration %d (%s)", i, m.Name())

		err := m.Apply(ctx, env, password)
		metrics.ObserveMigration(m.Name(), err)
		if err != nil {
			log.WithError(err).Errorf("migration %d (%s) failed, skipping", i, m.Name())
			continue
		}
		log.Infof("migration %d (%s) applied", i, m.Name())
	}

	if err := env.Store.SavePlain(domain.MigrationLevelKey, Latest()); err != nil {
		return errors.E(op, errors.IO, err)
	}
	if err := env.Store.RemoveManyLegacy(domain.MigrationLevelKey); err != nil {
		return errors.E(op, errors.IO, err)
	}
	return nil
}

// EffectiveLevel returns the level migrations must start from. A legacy
// level counter takes precedence over the plain one. Legacy data next to a
// plain level past the crypto upgrade means that a previous crypto upgrade did
// not complete, and the level is forced back to CryptoUpgradeLevel.
func EffectiveLevel(env *Env, password string) (int, error) {
	store := env.Store

	legacyLevelStored, err := store.IsStoredLegacy(domain.MigrationLevelKey)
	if err != nil {
		return 0, errors.E(errors.IO, err)
	}
	if legacyLevelStored {
		var level int
		if err := store.FetchAndDecryptOneLegacy(
			domain.MigrationLevelKey, env.legacy(password), &level,
		); err != nil {
			return 0, domain.ErrInvalidPassword
		}
		return level, nil
	}

	var level int
	found, err := store.GetPlain(domain.MigrationLevelKey, &level)
	if err != nil {
		return 0, errors.E(errors.Encoding, err)
	}
	if !found {
		return 0, nil
	}

	if level <= CryptoUpgradeLevel {
		return level, nil
	}
	pending, err := cryptoUpgradePending(store)
	if err != nil {
		return 0, errors.E(errors.IO, err)
	}
	if pending {
		log.Warnf(
			"found legacy records at migration level %d, forcing level to %d",
			level, CryptoUpgradeLevel,
		)
		return CryptoUpgradeLevel, nil
	}
	return level, nil
}

// cryptoUpgradePending returns whether the store still holds data that only
// the crypto upgrade can move: a legacy check value, or legacy records of a
// store that has no current check value yet.
func cryptoUpgradePending(store *securestore.SecureStore) (bool, error) {
	legacyCheckStored, err := store.IsStoredLegacy(domain.CheckKey)
	if err != nil {
		return false, err
	}
	if legacyCheckStored {
		return true, nil
	}
	checkStored, err := store.IsStored(domain.CheckKey)
	if err != nil {
		return false, err
	}
	if checkStored {
		return false, nil
	}
	legacyKeys, err := store.LegacyKeys()
	if err != nil {
		return false, err
	}
	return len(legacyKeys) > 0, nil
}

// ValidatePassword checks the password against the current check value or,
// for stores that were not upgraded yet, against the legacy check value or
// the legacy mnemonic. It returns domain.ErrVaultNotFound if none of them is
// stored.
func ValidatePassword(env *Env, password string) error {
	store := env.Store

	checkStored, err := store.IsStored(domain.CheckKey)
	if err != nil {
		return errors.E(errors.IO, err)
	}
	if checkStored {
		key, err := store.ImportExistingKey(securestore.GenerateHash(password))
		if err != nil {
			return domain.ErrInvalidPassword
		}
		defer key.Zero()

		var check string
		if err := store.FetchAndDecryptOne(domain.CheckKey, key, &check); err != nil {
			return domain.ErrInvalidPassword
		}
		return nil
	}

	for _, key := range []string{domain.CheckKey, domain.MnemonicKey} {
		stored, err := store.IsStoredLegacy(key)
		if err != nil {
			return errors.E(errors.IO, err)
		}
		if !stored {
			continue
		}
		var value string
		if err := store.FetchAndDecryptOneLegacy(
			key, env.legacy(password), &value,
		); err != nil {
			return domain.ErrInvalidPassword
		}
		return nil
	}

	return domain.ErrVaultNotFound
}

// fetchLegacy is FetchAndDecryptOneLegacy reporting whether the record was
// found instead of failing with securestore.ErrNotFound.
func fetchLegacy(
	env *Env, key, password string, value interface{},
) (bool, error) {
	err := env.Store.FetchAndDecryptOneLegacy(key, env.legacy(password), value)
	if err == securestore.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
