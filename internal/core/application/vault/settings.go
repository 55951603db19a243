package vault

import (
	"context"
	"encoding/json"

	"github.com/decred/dcrwallet/errors/v2"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"github.com/tdex-network/tdex-vault/pkg/securestore"
)

// FetchSettings returns the settings, with defaults for the fields missing
// from the stored record.
func (v *Vault) FetchSettings(ctx context.Context) (*domain.Settings, error) {
	const op errors.Op = "vault.FetchSettings"

	var settings domain.Settings
	err := withError(op, "Failed to fetch settings", func() (err error) {
		settings, err = v.fetchSettings()
		return
	})
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings applies a shallow patch to the settings and returns the
// result.
func (v *Vault) UpdateSettings(
	ctx context.Context, patch domain.SettingsPatch,
) (*domain.Settings, error) {
	const op errors.Op = "vault.UpdateSettings"

	var settings domain.Settings
	err := withError(op, "Failed to update settings", func() error {
		key, err := v.sessionKey()
		if err != nil {
			return err
		}
		current, err := v.fetchSettings()
		if err != nil {
			return err
		}
		settings = patch.Apply(current)
		return v.deps.Store.EncryptAndSaveMany([]securestore.Entry{
			{Key: domain.SettingsKey, Value: settings},
		}, key)
	})
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (v *Vault) fetchSettings() (domain.Settings, error) {
	key, err := v.sessionKey()
	if err != nil {
		return domain.Settings{}, err
	}
	var raw json.RawMessage
	if err := v.deps.Store.FetchAndDecryptOne(
		domain.SettingsKey, key, &raw,
	); err != nil && err != securestore.ErrNotFound {
		return domain.Settings{}, err
	}
	return domain.MergeSettings(raw)
}
