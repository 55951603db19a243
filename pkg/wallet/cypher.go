package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/scrypt"
)

const (
	legacySaltSize = 32
	// 2^14 is the cost the legacy record format was written with. It must not
	// change or previously stored records become unreadable.
	legacyScryptN = 16384
)

// EncryptOpts is the struct given to Encrypt method
type EncryptOpts struct {
	PlainText  string
	Passphrase string
}

func (o EncryptOpts) validate() error {
	if len(o.PlainText) <= 0 {
		return ErrNullPlainText
	}
	if len(o.Passphrase) <= 0 {
		return ErrNullPassphrase
	}
	return nil
}

// Encrypt seals a plaintext with AES-256-GCM under a key derived from the
// passphrase with a fresh random salt. The result is the base64 encoding of
// nonce || ciphertext || salt.
//
// This is the legacy record format. New records are written with the
// securestore codec and this function only exists to produce fixtures and to
// stay symmetric with Decrypt.
func Encrypt(opts EncryptOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	key, salt, err := DeriveKey([]byte(opts.Passphrase), nil)
	if err != nil {
		return "", err
	}
	return EncryptWithKey([]byte(opts.PlainText), key, salt)
}

// EncryptWithKey is like Encrypt but takes an already derived key together
// with the salt it was derived from. It lets callers sealing many records
// pay for the key derivation only once.
func EncryptWithKey(plaintext, key, salt []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err = rand.Read(nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	ciphertext = append(ciphertext, salt...)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptOpts is the struct given to Decrypt method
type DecryptOpts struct {
	CypherText string
	Passphrase string
}

func (o DecryptOpts) validate() error {
	if len(o.CypherText) <= 0 {
		return ErrNullCypherText
	}
	data, err := base64.StdEncoding.DecodeString(o.CypherText)
	if err != nil {
		return ErrInvalidCypherText
	}
	if len(data) <= legacySaltSize+12 {
		return ErrInvalidCypherText
	}
	if len(o.Passphrase) <= 0 {
		return ErrNullPassphrase
	}
	return nil
}

// Decrypt opens a legacy record sealed by Encrypt with the provided
// passphrase.
func Decrypt(opts DecryptOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	data, _ := base64.StdEncoding.DecodeString(opts.CypherText)
	salt := data[len(data)-legacySaltSize:]

	key, _, err := DeriveKey([]byte(opts.Passphrase), salt)
	if err != nil {
		return "", err
	}
	plaintext, err := decryptWithKey(data, key)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// DecryptWithKeyCache opens a legacy record, deriving the key only when the
// record's salt has not been seen before. The cache is keyed by salt and
// filled in place.
func DecryptWithKeyCache(
	cypherText, passphrase string, cache map[string][]byte,
) ([]byte, error) {
	opts := DecryptOpts{CypherText: cypherText, Passphrase: passphrase}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	data, _ := base64.StdEncoding.DecodeString(cypherText)
	salt := data[len(data)-legacySaltSize:]

	key, ok := cache[string(salt)]
	if !ok {
		k, _, err := DeriveKey([]byte(passphrase), salt)
		if err != nil {
			return nil, err
		}
		key = k
		if cache != nil {
			cache[string(salt)] = key
		}
	}
	return decryptWithKey(data, key)
}

func decryptWithKey(data, key []byte) ([]byte, error) {
	data = data[:len(data)-legacySaltSize]

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(data) < gcm.NonceSize() {
		return nil, ErrInvalidCypherText
	}
	nonce, text := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	return gcm.Open(nil, nonce, text, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	blockCipher, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(blockCipher)
}

// DeriveKey derives a 32 byte array key from a custom passhprase. A random
// salt is generated when none is given.
func DeriveKey(passphrase, salt []byte) ([]byte, []byte, error) {
	if salt == nil {
		salt = make([]byte, legacySaltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, nil, err
		}
	}
	key, err := scrypt.Key(passphrase, salt, legacyScryptN, 8, 1, 32)
	if err != nil {
		return nil, nil, err
	}
	return key, salt, nil
}
