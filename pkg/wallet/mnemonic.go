package wallet

import (
	"strings"

	"github.com/vulpemventures/go-bip39"
)

// NewMnemonicOpts is the struct given to the NewMnemonic method
type NewMnemonicOpts struct {
	EntropySize int
}

func (o NewMnemonicOpts) validate() error {
	if o.EntropySize > 0 {
		if o.EntropySize < 128 || o.EntropySize > 256 || o.EntropySize%32 != 0 {
			return ErrInvalidEntropySize
		}
	}
	if o.EntropySize < 0 {
		return ErrInvalidEntropySize
	}
	return nil
}

// NewMnemonic returns a new BIP-39 mnemonic. The default entropy size of 128
// bits produces 12 words.
func NewMnemonic(opts NewMnemonicOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	if opts.EntropySize == 0 {
		opts.EntropySize = 128
	}

	entropy, err := bip39.NewEntropy(opts.EntropySize)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// IsMnemonicValid returns whether the given phrase is a valid BIP-39
// mnemonic, checksum included. Extra whitespace between words is tolerated.
func IsMnemonicValid(mnemonic string) bool {
	return isNormalizedMnemonicValid(NormalizeMnemonic(mnemonic))
}

// bip39.IsMnemonicValid only checks the word count and the word list.
func isNormalizedMnemonicValid(mnemonic string) bool {
	if !bip39.IsMnemonicValid(mnemonic) {
		return false
	}
	_, err := bip39.EntropyFromMnemonic(mnemonic)
	return err == nil
}

// NormalizeMnemonic lowercases the phrase and collapses any whitespace
// between words into single spaces.
func NormalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
}

// SeedFromMnemonic returns the 64 byte BIP-39 seed of the mnemonic,
// optionally salted with a passphrase.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if len(mnemonic) <= 0 {
		return nil, ErrNullMnemonic
	}
	m := NormalizeMnemonic(mnemonic)
	if !isNormalizedMnemonicValid(m) {
		return nil, ErrInvalidMnemonic
	}
	return bip39.NewSeed(m, passphrase), nil
}
