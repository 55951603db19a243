package domain

import "github.com/google/uuid"

// Logical keys of the records persisted by the vault.
const (
	CheckKey    = "check"
	MnemonicKey = "mnemonic"
	AccountsKey = "accounts"
	SettingsKey = "settings"

	MigrationLevelKey = "migrationLevel"
	// ContactsKey holds the plain contact list of installs older than the
	// crypto upgrade.
	ContactsKey = "contacts"

	// Network selection before and after multi-chain support.
	LegacyNetworksKey       = "custom_networks_snapshot"
	LegacyNetworkIDKey      = "network_id"
	TezosNetworksKey        = "tezos_custom_networks"
	TezosSelectedNetworkKey = "tezos_selected_network"

	privateKeyPrefix = "accPrivKey_"
	publicKeyPrefix  = "accPubKey_"
)

// PrivateKeyKey returns the key of the private key record of an address.
// Tezos and EVM addresses never collide so the address alone is qualified
// enough.
func PrivateKeyKey(address string) string {
	return privateKeyPrefix + address
}

// PublicKeyKey returns the key of the public key record of an address.
func PublicKeyKey(address string) string {
	return publicKeyPrefix + address
}

// NewCheckValue returns the plaintext of a new check record. Its content is
// irrelevant, only the ability to open the record matters.
func NewCheckValue() string {
	return uuid.NewString()
}
