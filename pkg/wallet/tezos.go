package wallet

import (
	"bytes"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/pbkdf2"
)

// Base58 prefixes of the Tezos encodings handled by the package.
var (
	prefixTz1   = []byte{6, 161, 159}
	prefixTz2   = []byte{6, 161, 161}
	prefixTz3   = []byte{6, 161, 164}
	prefixKT1   = []byte{2, 90, 121}
	prefixEdpk  = []byte{13, 15, 37, 217}
	prefixEdsk  = []byte{43, 246, 78, 7}
	prefixEdsk2 = []byte{13, 15, 58, 7}
	prefixEdesk = []byte{7, 90, 60, 179, 41}
	prefixEdsig = []byte{9, 245, 205, 134, 18}
	prefixNet   = []byte{87, 82, 0}
)

const (
	slip10Curve = "ed25519 seed"

	edeskSaltSize   = 8
	edeskIterations = 32768
)

type slip10Node struct {
	key       []byte
	chainCode []byte
}

func slip10Master(seed []byte) slip10Node {
	mac := hmac.New(sha512.New, []byte(slip10Curve))
	mac.Write(seed)
	sum := mac.Sum(nil)
	return slip10Node{key: sum[:32], chainCode: sum[32:]}
}

func (n slip10Node) child(index uint32) slip10Node {
	data := make([]byte, 0, 37)
	data = append(data, 0)
	data = append(data, n.key...)
	data = binary.BigEndian.AppendUint32(data, index)

	mac := hmac.New(sha512.New, n.chainCode)
	mac.Write(data)
	sum := mac.Sum(nil)
	return slip10Node{key: sum[:32], chainCode: sum[32:]}
}

// DeriveSeed applies a SLIP-10 ed25519 derivation path to a BIP-39 seed and
// returns the 32 byte ed25519 private seed found at the end of the path.
// Only hardened elements are allowed on this curve.
func DeriveSeed(seed []byte, path string) ([]byte, error) {
	if len(seed) <= 0 {
		return nil, ErrNullSeed
	}
	derivationPath, err := ParseChainDerivationPath(ChainTezos, path)
	if err != nil {
		return nil, err
	}

	node := slip10Master(seed)
	for _, index := range derivationPath {
		node = node.child(index)
	}
	return node.key, nil
}

// MnemonicToTezosAccountCreds derives the ed25519 key pair of the HD account
// at the given index.
func MnemonicToTezosAccountCreds(
	mnemonic string, index int,
) (*AccountCreds, error) {
	path, err := HDPath(ChainTezos, index)
	if err != nil {
		return nil, err
	}
	return TezosMnemonicWithPathToAccountCreds(mnemonic, "", path)
}

// TezosMnemonicWithPathToAccountCreds derives a Tezos key pair from a
// mnemonic, an optional BIP-39 passphrase and an optional derivation path.
// Without a path the first 32 bytes of the BIP-39 seed are used directly as
// ed25519 seed.
func TezosMnemonicWithPathToAccountCreds(
	mnemonic, passphrase, path string,
) (*AccountCreds, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, ErrInvalidMnemonicOrPassword
	}

	privateSeed := seed[:ed25519.SeedSize]
	if path != "" {
		if privateSeed, err = DeriveSeed(seed, path); err != nil {
			return nil, err
		}
	}
	return tezosCredsFromSeed(privateSeed), nil
}

// FundraiserToTezosAccountCreds restores an account of the Tezos fundraiser,
// whose BIP-39 passphrase is the concatenation of email and password.
func FundraiserToTezosAccountCreds(
	mnemonic, email, password string,
) (*AccountCreds, error) {
	seed, err := SeedFromMnemonic(mnemonic, email+password)
	if err != nil {
		return nil, ErrInvalidMnemonicOrPassword
	}
	return tezosCredsFromSeed(seed[:ed25519.SeedSize]), nil
}

// PrivateKeyToTezosAccountCreds parses an edsk secret key, either in its
// 32 byte seed form or 64 byte expanded form, or an edesk encrypted secret
// key that is opened with the given encryption password.
func PrivateKeyToTezosAccountCreds(
	privateKey, encPassword string,
) (*AccountCreds, error) {
	privateKey = strings.TrimSpace(privateKey)
	if privateKey == "" {
		return nil, ErrNullPrivateKey
	}

	switch {
	case strings.HasPrefix(privateKey, "edesk"):
		if encPassword == "" {
			return nil, ErrMissingEncryptionPassword
		}
		seed, err := decryptEdesk(privateKey, encPassword)
		if err != nil {
			return nil, err
		}
		return tezosCredsFromSeed(seed), nil

	case strings.HasPrefix(privateKey, "edsk"):
		if payload, err := b58CheckDecode(privateKey, prefixEdsk); err == nil &&
			len(payload) == ed25519.PrivateKeySize {
			seed := payload[:ed25519.SeedSize]
			creds := tezosCredsFromSeed(seed)
			// The expanded form embeds the public key, reject it if tampered.
			if !bytes.Equal(payload[ed25519.SeedSize:], ed25519.NewKeyFromSeed(seed)[ed25519.SeedSize:]) {
				return nil, ErrInvalidPrivateKey
			}
			return creds, nil
		}
		payload, err := b58CheckDecode(privateKey, prefixEdsk2)
		if err != nil || len(payload) != ed25519.SeedSize {
			return nil, ErrInvalidPrivateKey
		}
		return tezosCredsFromSeed(payload), nil

	case strings.HasPrefix(privateKey, "spsk"),
		strings.HasPrefix(privateKey, "p2sk"),
		strings.HasPrefix(privateKey, "spesk"),
		strings.HasPrefix(privateKey, "p2esk"):
		return nil, ErrUnsupportedPrivateKey

	default:
		return nil, ErrInvalidPrivateKey
	}
}

func decryptEdesk(privateKey, password string) ([]byte, error) {
	payload, err := b58CheckDecode(privateKey, prefixEdesk)
	if err != nil || len(payload) != edeskSaltSize+ed25519.SeedSize+secretbox.Overhead {
		return nil, ErrInvalidPrivateKey
	}
	salt, box := payload[:edeskSaltSize], payload[edeskSaltSize:]

	var key [32]byte
	copy(key[:], pbkdf2.Key(
		[]byte(password), salt, edeskIterations, len(key), sha512.New,
	))
	var nonce [24]byte
	seed, ok := secretbox.Open(nil, box, &nonce, &key)
	if !ok {
		return nil, ErrInvalidEncryptionPassword
	}
	return seed, nil
}

func tezosCredsFromSeed(seed []byte) *AccountCreds {
	sk := ed25519.NewKeyFromSeed(seed)
	pk := sk.Public().(ed25519.PublicKey)
	return &AccountCreds{
		Address:    tezosAddress(pk),
		PublicKey:  b58CheckEncode(prefixEdpk, pk),
		PrivateKey: b58CheckEncode(prefixEdsk, sk),
	}
}

func tezosAddress(pk ed25519.PublicKey) string {
	hash, _ := blake2b.New(20, nil)
	hash.Write(pk)
	return b58CheckEncode(prefixTz1, hash.Sum(nil))
}

// TezosPublicKeyToAddress returns the tz1 address of an edpk public key.
func TezosPublicKeyToAddress(publicKey string) (string, error) {
	pk, err := b58CheckDecode(publicKey, prefixEdpk)
	if err != nil || len(pk) != ed25519.PublicKeySize {
		return "", ErrInvalidAddress
	}
	return tezosAddress(pk), nil
}

// ValidateTezosAddress returns an error if the given string is not a valid
// implicit (tz1, tz2, tz3) or originated (KT1) Tezos address.
func ValidateTezosAddress(address string) error {
	for _, prefix := range [][]byte{prefixTz1, prefixTz2, prefixTz3, prefixKT1} {
		payload, err := b58CheckDecode(address, prefix)
		if err == nil && len(payload) == 20 {
			return nil
		}
	}
	return ErrInvalidAddress
}

// IsKTAddress returns whether the given address is an originated contract.
func IsKTAddress(address string) bool {
	payload, err := b58CheckDecode(address, prefixKT1)
	return err == nil && len(payload) == 20
}

// EncodeTezosChainID returns the Net... encoding of a raw 4 byte chain id.
func EncodeTezosChainID(chainID []byte) string {
	return b58CheckEncode(prefixNet, chainID)
}

// ValidateTezosChainID returns an error if the given string is not a valid
// base58 Tezos chain id.
func ValidateTezosChainID(chainID string) error {
	payload, err := b58CheckDecode(chainID, prefixNet)
	if err != nil || len(payload) != 4 {
		return ErrInvalidAddress
	}
	return nil
}

func b58CheckEncode(prefix, payload []byte) string {
	data := make([]byte, 0, len(prefix)+len(payload)+4)
	data = append(data, prefix...)
	data = append(data, payload...)
	checksum := chainhash.DoubleHashB(data)[:4]
	return base58.Encode(append(data, checksum...))
}

func b58CheckDecode(encoded string, prefix []byte) ([]byte, error) {
	data := base58.Decode(encoded)
	if len(data) < len(prefix)+4 {
		return nil, ErrInvalidChecksum
	}
	data, checksum := data[:len(data)-4], data[len(data)-4:]
	if !bytes.Equal(chainhash.DoubleHashB(data)[:4], checksum) {
		return nil, ErrInvalidChecksum
	}
	if !bytes.HasPrefix(data, prefix) {
		return nil, ErrInvalidAddress
	}
	return data[len(prefix):], nil
}
