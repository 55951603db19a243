package domain

import (
	"encoding/json"

	"github.com/tdex-network/tdex-vault/pkg/wallet"
)

// Contact is an entry of the address book.
type Contact struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	AddedAt int64  `json:"addedAt,omitempty"`
}

// Network is a user defined RPC endpoint. Networks without chain predate
// multi-chain support and are Tezos networks.
type Network struct {
	ID         string       `json:"id"`
	Chain      wallet.Chain `json:"chain,omitempty"`
	Name       string       `json:"name"`
	RPCBaseURL string       `json:"rpcBaseURL"`
	ChainID    string       `json:"chainId,omitempty"`
	Color      string       `json:"color,omitempty"`
}

// Settings is the mutable, encrypted user configuration.
type Settings struct {
	Contacts         []Contact       `json:"contacts"`
	CustomNetworks   []Network       `json:"customNetworks"`
	LambdaRPCBaseURL string          `json:"lambdaRpcBaseURL,omitempty"`
	Flags            map[string]bool `json:"flags"`
}

// DefaultSettings returns the settings of a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Contacts:       []Contact{},
		CustomNetworks: []Network{},
		Flags:          map[string]bool{},
	}
}

// MergeSettings decodes a stored settings record over the defaults, so that
// fields missing from old records keep their default value.
func MergeSettings(stored json.RawMessage) (Settings, error) {
	settings := DefaultSettings()
	if len(stored) <= 0 {
		return settings, nil
	}
	if err := json.Unmarshal(stored, &settings); err != nil {
		return Settings{}, err
	}
	if settings.Contacts == nil {
		settings.Contacts = []Contact{}
	}
	if settings.CustomNetworks == nil {
		settings.CustomNetworks = []Network{}
	}
	if settings.Flags == nil {
		settings.Flags = map[string]bool{}
	}
	return settings, nil
}

// SettingsPatch is a shallow update of Settings. Nil fields are left
// untouched.
type SettingsPatch struct {
	Contacts         *[]Contact       `json:"contacts,omitempty"`
	CustomNetworks   *[]Network       `json:"customNetworks,omitempty"`
	LambdaRPCBaseURL *string          `json:"lambdaRpcBaseURL,omitempty"`
	Flags            *map[string]bool `json:"flags,omitempty"`
}

// Apply returns a copy of the settings with the patch applied.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Contacts != nil {
		s.Contacts = *p.Contacts
	}
	if p.CustomNetworks != nil {
		s.CustomNetworks = *p.CustomNetworks
	}
	if p.LambdaRPCBaseURL != nil {
		s.LambdaRPCBaseURL = *p.LambdaRPCBaseURL
	}
	if p.Flags != nil {
		s.Flags = *p.Flags
	}
	return s
}
