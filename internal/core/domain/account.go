package domain

import (
	"encoding/json"
	"fmt"

	"github.com/decred/dcrwallet/errors/v2"
	"github.com/google/uuid"
	"github.com/tdex-network/tdex-vault/pkg/wallet"
)

// AccountType is the tag of the account sum type. Its numeric values are
// part of the persisted format.
type AccountType int

const (
	AccountTypeHD AccountType = iota
	AccountTypeImported
	AccountTypeLedger
	AccountTypeManagedKT
	AccountTypeWatchOnly
)

func (t AccountType) String() string {
	switch t {
	case AccountTypeHD:
		return "HD"
	case AccountTypeImported:
		return "Imported"
	case AccountTypeLedger:
		return "Ledger"
	case AccountTypeManagedKT:
		return "ManagedKT"
	case AccountTypeWatchOnly:
		return "WatchOnly"
	default:
		return fmt.Sprintf("AccountType(%d)", int(t))
	}
}

// DerivationType is the curve and scheme a Ledger derives its keys with.
type DerivationType int

const (
	DerivationTypeED25519 DerivationType = iota
	DerivationTypeSECP256K1
	DerivationTypeP256
	DerivationTypeBIP32ED25519
)

// AccountKind holds the type specific data of an account. It is implemented
// only by the types of this package, one per AccountType.
type AccountKind interface {
	Type() AccountType
	isAccountKind()
}

// HDAccount is derived from the vault mnemonic at Index, on every chain.
type HDAccount struct {
	Index        int
	TezosAddress string
	EvmAddress   string
}

// ImportedAccount holds a private key imported for a single chain.
type ImportedAccount struct {
	Chain   wallet.Chain
	Address string
}

// LedgerAccount delegates signing to a hardware device. Only its public key
// is stored.
type LedgerAccount struct {
	Chain          wallet.Chain
	Address        string
	DerivationPath string
	DerivationType DerivationType
}

// ManagedKTAccount is an originated Tezos contract managed by Owner.
type ManagedKTAccount struct {
	Address string
	ChainID string
	Owner   string
}

// WatchOnlyAccount can only be observed, never signed for.
type WatchOnlyAccount struct {
	Chain   wallet.Chain
	Address string
	ChainID string
}

func (HDAccount) Type() AccountType        { return AccountTypeHD }
func (ImportedAccount) Type() AccountType  { return AccountTypeImported }
func (LedgerAccount) Type() AccountType    { return AccountTypeLedger }
func (ManagedKTAccount) Type() AccountType { return AccountTypeManagedKT }
func (WatchOnlyAccount) Type() AccountType { return AccountTypeWatchOnly }

func (HDAccount) isAccountKind()        {}
func (ImportedAccount) isAccountKind()  {}
func (LedgerAccount) isAccountKind()    {}
func (ManagedKTAccount) isAccountKind() {}
func (WatchOnlyAccount) isAccountKind() {}

// Account is a logical identity of the vault.
type Account struct {
	ID   string
	Name string
	Kind AccountKind
}

// NewAccountID returns a fresh opaque account id.
func NewAccountID() string {
	return uuid.NewString()
}

// Type returns the tag of the account.
func (a Account) Type() AccountType {
	return a.Kind.Type()
}

// Address returns the address of the account on the given chain, or an
// empty string if the account does not exist on that chain.
func (a Account) Address(chain wallet.Chain) string {
	switch k := a.Kind.(type) {
	case HDAccount:
		if chain == wallet.ChainEvm {
			return k.EvmAddress
		}
		return k.TezosAddress
	case ImportedAccount:
		return addressOnChain(k.Chain, chain, k.Address)
	case LedgerAccount:
		return addressOnChain(k.Chain, chain, k.Address)
	case ManagedKTAccount:
		return addressOnChain(wallet.ChainTezos, chain, k.Address)
	case WatchOnlyAccount:
		return addressOnChain(k.Chain, chain, k.Address)
	default:
		panic(fmt.Sprintf("unknown account kind %T", a.Kind))
	}
}

// Addresses returns the addresses of the account on every chain it exists.
func (a Account) Addresses() []string {
	addresses := make([]string, 0, 2)
	for _, chain := range []wallet.Chain{wallet.ChainTezos, wallet.ChainEvm} {
		if addr := a.Address(chain); addr != "" {
			addresses = append(addresses, addr)
		}
	}
	return addresses
}

// HasAddress returns whether the account owns the given address.
func (a Account) HasAddress(address string) bool {
	for _, addr := range a.Addresses() {
		if addr == address {
			return true
		}
	}
	return false
}

// StoresPrivateKey returns whether a private key record exists for the
// addresses of the account.
func (a Account) StoresPrivateKey() bool {
	switch a.Kind.(type) {
	case HDAccount, ImportedAccount:
		return true
	case LedgerAccount, ManagedKTAccount, WatchOnlyAccount:
		return false
	default:
		panic(fmt.Sprintf("unknown account kind %T", a.Kind))
	}
}

// StoresPublicKey returns whether a public key record exists for the
// addresses of the account.
func (a Account) StoresPublicKey() bool {
	switch a.Kind.(type) {
	case HDAccount, ImportedAccount, LedgerAccount:
		return true
	case ManagedKTAccount, WatchOnlyAccount:
		return false
	default:
		panic(fmt.Sprintf("unknown account kind %T", a.Kind))
	}
}

func addressOnChain(accountChain, chain wallet.Chain, address string) string {
	if accountChain != chain {
		return ""
	}
	return address
}

// MarshalJSON implements json.Marshaler.
func (a Account) MarshalJSON() ([]byte, error) {
	record, err := a.Record()
	if err != nil {
		return nil, err
	}
	return json.Marshal(record)
}

// UnmarshalJSON implements json.Unmarshaler. Legacy records, without id, are
// rejected since they must go through migration first.
func (a *Account) UnmarshalJSON(data []byte) error {
	var record AccountRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}
	account, err := record.Account()
	if err != nil {
		return err
	}
	*a = *account
	return nil
}

// AccountRecord is the persisted shape of an account. It is a superset of
// the current format, tagged by Type and identified by ID, and of the legacy
// single-chain format identified by PublicKeyHash.
type AccountRecord struct {
	ID   string      `json:"id,omitempty"`
	Type AccountType `json:"type"`
	Name string      `json:"name"`

	HDIndex      *int   `json:"hdIndex,omitempty"`
	TezosAddress string `json:"tezosAddress,omitempty"`
	EvmAddress   string `json:"evmAddress,omitempty"`

	Chain   wallet.Chain `json:"chain,omitempty"`
	Address string       `json:"address,omitempty"`

	DerivationPath string          `json:"derivationPath,omitempty"`
	DerivationType *DerivationType `json:"derivationType,omitempty"`

	ChainID string `json:"chainId,omitempty"`
	Owner   string `json:"owner,omitempty"`

	PublicKeyHash string `json:"publicKeyHash,omitempty"`
}

// IsLegacy returns whether the record predates multi-chain support.
func (r AccountRecord) IsLegacy() bool {
	return r.ID == ""
}

// Account converts a current record into an Account.
func (r AccountRecord) Account() (*Account, error) {
	const op errors.Op = "domain.AccountRecord"

	if r.IsLegacy() {
		return nil, errors.E(op, errors.Encoding, "account record has no id")
	}

	var kind AccountKind
	switch r.Type {
	case AccountTypeHD:
		if r.HDIndex == nil {
			return nil, errors.E(op, errors.Encoding, "HD account without index")
		}
		kind = HDAccount{
			Index:        *r.HDIndex,
			TezosAddress: r.TezosAddress,
			EvmAddress:   r.EvmAddress,
		}
	case AccountTypeImported:
		kind = ImportedAccount{Chain: r.Chain, Address: r.Address}
	case AccountTypeLedger:
		var derivationType DerivationType
		if r.DerivationType != nil {
			derivationType = *r.DerivationType
		}
		kind = LedgerAccount{
			Chain:          r.Chain,
			Address:        r.Address,
			DerivationPath: r.DerivationPath,
			DerivationType: derivationType,
		}
	case AccountTypeManagedKT:
		kind = ManagedKTAccount{
			Address: r.Address,
			ChainID: r.ChainID,
			Owner:   r.Owner,
		}
	case AccountTypeWatchOnly:
		kind = WatchOnlyAccount{
			Chain:   r.Chain,
			Address: r.Address,
			ChainID: r.ChainID,
		}
	default:
		return nil, errors.E(op, errors.Encoding, fmt.Sprintf("unknown account type %d", r.Type))
	}
	return &Account{ID: r.ID, Name: r.Name, Kind: kind}, nil
}

// Record converts an Account into its persisted shape.
func (a Account) Record() (*AccountRecord, error) {
	r := &AccountRecord{ID: a.ID, Name: a.Name}
	if a.Kind == nil {
		return nil, errors.E(errors.Bug, "account without kind")
	}
	r.Type = a.Kind.Type()

	switch k := a.Kind.(type) {
	case HDAccount:
		index := k.Index
		r.HDIndex = &index
		r.TezosAddress = k.TezosAddress
		r.EvmAddress = k.EvmAddress
	case ImportedAccount:
		r.Chain = k.Chain
		r.Address = k.Address
	case LedgerAccount:
		derivationType := k.DerivationType
		r.Chain = k.Chain
		r.Address = k.Address
		r.DerivationPath = k.DerivationPath
		r.DerivationType = &derivationType
	case ManagedKTAccount:
		r.Chain = wallet.ChainTezos
		r.Address = k.Address
		r.ChainID = k.ChainID
		r.Owner = k.Owner
	case WatchOnlyAccount:
		r.Chain = k.Chain
		r.Address = k.Address
		r.ChainID = k.ChainID
	default:
		return nil, errors.E(errors.Bug, fmt.Sprintf("unknown account kind %T", a.Kind))
	}
	return r, nil
}

// Accounts is the ordered list of the vault accounts.
type Accounts []Account

// ByID returns the account with the given id.
func (l Accounts) ByID(id string) (*Account, bool) {
	for i := range l {
		if l[i].ID == id {
			return &l[i], true
		}
	}
	return nil, false
}

// ByAddress returns the first account owning the given address.
func (l Accounts) ByAddress(address string) (*Account, bool) {
	for i := range l {
		if l[i].HasAddress(address) {
			return &l[i], true
		}
	}
	return nil, false
}

// SignerByAddress returns the account able to sign for the given address.
// HD and Imported accounts are preferred over other kinds when more than one
// account owns the address.
func (l Accounts) SignerByAddress(address string) (*Account, bool) {
	var found *Account
	for i := range l {
		if !l[i].HasAddress(address) {
			continue
		}
		if l[i].StoresPrivateKey() {
			return &l[i], true
		}
		if found == nil {
			found = &l[i]
		}
	}
	return found, found != nil
}

// NameExists returns whether an account other than exceptID has the given
// name.
func (l Accounts) NameExists(name, exceptID string) bool {
	for _, a := range l {
		if a.Name == name && a.ID != exceptID {
			return true
		}
	}
	return false
}

// OfType returns the accounts of the given type, in order.
func (l Accounts) OfType(t AccountType) Accounts {
	filtered := make(Accounts, 0, len(l))
	for _, a := range l {
		if a.Type() == t {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// HDCount returns the number of HD accounts.
func (l Accounts) HDCount() int {
	return len(l.OfType(AccountTypeHD))
}

// IsAddressReferenced returns whether any account owns the given address
// and stores key records for it.
func (l Accounts) IsAddressReferenced(address string) bool {
	for _, a := range l {
		if a.HasAddress(address) && (a.StoresPrivateKey() || a.StoresPublicKey()) {
			return true
		}
	}
	return false
}
