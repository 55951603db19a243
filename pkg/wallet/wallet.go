package wallet

import (
	"errors"
)

var (
	// ErrNullMnemonic ...
	ErrNullMnemonic = errors.New("mnemonic must not be null")
	// ErrNullPassphrase ...
	ErrNullPassphrase = errors.New("passphrase must not be null")
	// ErrNullPlainText ...
	ErrNullPlainText = errors.New("text to encrypt must not be null")
	// ErrNullCypherText ...
	ErrNullCypherText = errors.New("cypher to decrypt must not be null")
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrNullPrivateKey ...
	ErrNullPrivateKey = errors.New("private key must not be null")
	// ErrNullSeed ...
	ErrNullSeed = errors.New("seed must not be null")

	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")
	// ErrInvalidMnemonicOrPassword is returned when a mnemonic, optionally
	// combined with a passphrase, cannot produce valid key material.
	ErrInvalidMnemonicOrPassword = errors.New("Invalid Mnemonic or Password")
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)
	// ErrInvalidCypherText ...
	ErrInvalidCypherText = errors.New("cypher must be in base64 format")
	// ErrInvalidDerivationPath ...
	ErrInvalidDerivationPath = errors.New("invalid derivation path")
	// ErrNonHardenedDerivationPath is returned when an ed25519 key is requested
	// for a path containing non-hardened elements.
	ErrNonHardenedDerivationPath = errors.New(
		"ed25519 derivation path must contain only hardened elements",
	)
	// ErrInvalidPrivateKey ...
	ErrInvalidPrivateKey = errors.New("invalid private key")
	// ErrInvalidEncryptionPassword is returned when an encrypted Tezos secret
	// key cannot be opened with the given password.
	ErrInvalidEncryptionPassword = errors.New("invalid encryption password")
	// ErrMissingEncryptionPassword ...
	ErrMissingEncryptionPassword = errors.New(
		"encrypted private key requires a password",
	)
	// ErrUnsupportedPrivateKey is returned for Tezos secret keys of curves
	// other than ed25519.
	ErrUnsupportedPrivateKey = errors.New("private key curve is not supported")
	// ErrInvalidAddress ...
	ErrInvalidAddress = errors.New("invalid address")
	// ErrInvalidChecksum ...
	ErrInvalidChecksum = errors.New("invalid base58 checksum")
	// ErrInvalidPayload ...
	ErrInvalidPayload = errors.New("payload must be hex encoded")
	// ErrInvalidSignature ...
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New(
		"path must not start or end with a '/' and " +
			"can optionally start with 'm/' for absolute paths",
	)
)

// AccountCreds is the key material of a single-chain account. HD derivation
// and raw private key import both produce this shape so that storage code
// does not depend on the provenance of the keys.
type AccountCreds struct {
	Address    string
	PublicKey  string
	PrivateKey string
}

// Chain identifies the family of blockchains a key belongs to.
type Chain string

const (
	// ChainTezos ...
	ChainTezos Chain = "tezos"
	// ChainEvm ...
	ChainEvm Chain = "evm"
)

// Valid returns whether the chain is one of the supported ones.
func (c Chain) Valid() bool {
	return c == ChainTezos || c == ChainEvm
}
