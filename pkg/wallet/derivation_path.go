package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

const (
	// PurposeBIP44 is the purpose element of every HD account path.
	PurposeBIP44 = 44
	// CoinTypeTezos is the SLIP-44 coin type of Tezos.
	CoinTypeTezos = 1729
	// CoinTypeEvm is the SLIP-44 coin type of Ethereum, shared by every EVM
	// network.
	CoinTypeEvm = 60
)

// DerivationPath is a BIP-32 path in binary form. Hardened elements carry
// the hdkeychain.HardenedKeyStart offset.
type DerivationPath []uint32

// HDDerivationPath returns the path of the HD account at the given index.
// Tezos accounts follow m/44'/1729'/index'/0', which SLIP-10 ed25519 can walk
// since every element is hardened. EVM accounts follow the BIP-44 path
// m/44'/60'/0'/0/index used by the common EVM wallets.
func HDDerivationPath(chain Chain, index int) (DerivationPath, error) {
	if index < 0 || uint64(index) >= hdkeychain.HardenedKeyStart {
		return nil, fmt.Errorf("account index must be in range [0, %d)", uint32(hdkeychain.HardenedKeyStart))
	}
	i := uint32(index)
	switch chain {
	case ChainTezos:
		return DerivationPath{
			hardened(PurposeBIP44), hardened(CoinTypeTezos), hardened(i), hardened(0),
		}, nil
	case ChainEvm:
		return DerivationPath{
			hardened(PurposeBIP44), hardened(CoinTypeEvm), hardened(0), 0, i,
		}, nil
	default:
		return nil, fmt.Errorf("unknown chain %q", chain)
	}
}

// HDPath is HDDerivationPath in string form.
func HDPath(chain Chain, index int) (string, error) {
	path, err := HDDerivationPath(chain, index)
	if err != nil {
		return "", err
	}
	return path.String(), nil
}

// ParseDerivationPath parses a path like m/44'/1729'/0'/0'. The m/ prefix is
// optional. Hardened elements are marked with a trailing ' or h, and every
// element is a decimal number below 2^31.
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	strPath = strings.TrimSpace(strPath)
	if strPath == "" {
		return nil, ErrNullDerivationPath
	}

	elems := strings.Split(strPath, "/")
	if elems[0] == "m" {
		elems = elems[1:]
	}
	if len(elems) == 0 {
		return nil, ErrMalformedDerivationPath
	}

	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		if elem == "" {
			return nil, ErrMalformedDerivationPath
		}
		index, err := parsePathElement(elem)
		if err != nil {
			return nil, err
		}
		path = append(path, index)
	}
	return path, nil
}

// ParseChainDerivationPath parses a path and checks it can be walked for the
// keys of the given chain. Tezos keys are ed25519 and only accept hardened
// elements.
func ParseChainDerivationPath(chain Chain, strPath string) (DerivationPath, error) {
	path, err := ParseDerivationPath(strPath)
	if err != nil {
		return nil, err
	}
	if chain == ChainTezos && !path.IsHardened() {
		return nil, ErrNonHardenedDerivationPath
	}
	return path, nil
}

func parsePathElement(elem string) (uint32, error) {
	var offset uint32
	if n := len(elem); elem[n-1] == '\'' || elem[n-1] == 'h' || elem[n-1] == 'H' {
		offset = hdkeychain.HardenedKeyStart
		elem = elem[:n-1]
	}
	// Base 10 and 31 bits: hex elements and raw hardened values are refused.
	index, err := strconv.ParseUint(elem, 10, 31)
	if err != nil {
		return 0, ErrInvalidDerivationPath
	}
	return uint32(index) + offset, nil
}

// String returns the canonical form of the path, with the m/ prefix and '
// marking hardened elements.
func (path DerivationPath) String() string {
	if len(path) <= 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("m")
	for _, index := range path {
		b.WriteByte('/')
		if index >= hdkeychain.HardenedKeyStart {
			b.WriteString(strconv.FormatUint(uint64(index-hdkeychain.HardenedKeyStart), 10))
			b.WriteByte('\'')
			continue
		}
		b.WriteString(strconv.FormatUint(uint64(index), 10))
	}
	return b.String()
}

// IsHardened returns whether every element of the path is hardened, as
// required by SLIP-10 ed25519 derivation.
func (path DerivationPath) IsHardened() bool {
	for _, index := range path {
		if index < hdkeychain.HardenedKeyStart {
			return false
		}
	}
	return true
}

// hardened returns the hardened form of a BIP-32 index.
func hardened(index uint32) uint32 {
	return index + hdkeychain.HardenedKeyStart
}
