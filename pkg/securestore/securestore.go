package securestore

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/tdex-network/tdex-vault/pkg/wallet"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	currentNamespace = "vault_"
	legacyNamespace  = "legacy_"
	plainNamespace   = "plain_"

	// KDFParamsKey is the plain key the Argon2id parameters are stored under.
	KDFParamsKey = "kdf"

	recordVersion byte = 0x01
)

var (
	// ErrNullStorage ...
	ErrNullStorage = errors.New("storage must not be null")
	// ErrNullKey ...
	ErrNullKey = errors.New("encryption key must not be null")
	// ErrNotFound is returned when fetching a record that is not stored.
	ErrNotFound = errors.New("record not found")
	// ErrDecryption is returned when a record cannot be opened. It does not
	// tell a wrong key apart from a corrupted or misplaced record.
	ErrDecryption = errors.New("failed to decrypt record")
	// ErrInvalidKDFParams ...
	ErrInvalidKDFParams = errors.New("kdf parameters must be positive")
	// ErrMissingKDFParams is returned when a key is imported for a store that
	// has no KDF parameters and is not allowed to create them.
	ErrMissingKDFParams = errors.New("kdf parameters not found")
)

// Entry is a logical key paired with a serializable value.
type Entry struct {
	Key   string
	Value interface{}
}

// SecureStore reads and writes JSON serializable values into a Storage
// under three namespaces: current records sealed with XChaCha20-Poly1305
// and bound to their storage key, legacy records sealed with the
// scrypt+AES-GCM format, and plain records.
type SecureStore struct {
	db   Storage
	cost KDFParams
	rand io.Reader
}

// Option customizes a SecureStore.
type Option func(*SecureStore)

// WithKDFCost sets the Argon2id cost used when the store creates its KDF
// parameters. Parameters already persisted are never changed by this.
func WithKDFCost(cost KDFParams) Option {
	return func(s *SecureStore) {
		s.cost = cost
	}
}

// WithRandReader sets the source of randomness for salts and nonces.
func WithRandReader(r io.Reader) Option {
	return func(s *SecureStore) {
		s.rand = r
	}
}

// NewSecureStore returns a SecureStore on top of the given storage.
func NewSecureStore(db Storage, opts ...Option) (*SecureStore, error) {
	if db == nil {
		return nil, ErrNullStorage
	}
	s := &SecureStore{
		db:   db,
		cost: DefaultKDFParams(),
		rand: rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := NewKDFParams(s.cost, s.rand); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying storage.
func (s *SecureStore) Close() error {
	return s.db.Close()
}

// Reset deletes every record of every namespace.
func (s *SecureStore) Reset() error {
	return s.db.Reset()
}

// GenerateKey derives the key of the password, creating and persisting the
// KDF parameters if the store has none yet.
func (s *SecureStore) GenerateKey(password string) (*PassKey, error) {
	return s.ImportKey(GenerateHash(password))
}

// ImportKey derives the key from a password hash, creating and persisting
// the KDF parameters if the store has none yet.
func (s *SecureStore) ImportKey(hash PasswordHash) (*PassKey, error) {
	params, err := s.kdfParams()
	if err != nil {
		return nil, err
	}
	if params == nil {
		if params, err = NewKDFParams(s.cost, s.rand); err != nil {
			return nil, err
		}
		buf, _ := params.MarshalBinary()
		if err := s.SavePlain(KDFParamsKey, buf); err != nil {
			return nil, err
		}
	}
	return deriveKey(hash, params), nil
}

// ImportExistingKey is like ImportKey but fails with ErrMissingKDFParams
// instead of creating new parameters.
func (s *SecureStore) ImportExistingKey(hash PasswordHash) (*PassKey, error) {
	params, err := s.kdfParams()
	if err != nil {
		return nil, err
	}
	if params == nil {
		return nil, ErrMissingKDFParams
	}
	return deriveKey(hash, params), nil
}

func (s *SecureStore) kdfParams() (*KDFParams, error) {
	var buf []byte
	found, err := s.GetPlain(KDFParamsKey, &buf)
	if err != nil || !found {
		return nil, err
	}
	params := &KDFParams{}
	if err := params.UnmarshalBinary(buf); err != nil {
		return nil, err
	}
	return params, nil
}

// EncryptAndSaveMany serializes and seals every entry with the given key and
// writes them all in a single storage transaction.
func (s *SecureStore) EncryptAndSaveMany(entries []Entry, key *PassKey) error {
	if key == nil {
		return ErrNullKey
	}
	values, err := s.sealEntries(entries, key)
	if err != nil {
		return err
	}
	return s.db.Set(values)
}

func (s *SecureStore) sealEntries(
	entries []Entry, key *PassKey,
) (map[string][]byte, error) {
	values := make(map[string][]byte, len(entries))
	for _, e := range entries {
		plaintext, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		storageKey := currentNamespace + e.Key
		sealed, err := s.seal(storageKey, plaintext, key)
		if err != nil {
			return nil, err
		}
		values[storageKey] = sealed
	}
	return values, nil
}

// FetchAndDecryptOne opens the record stored under the given key and
// unmarshals it into value.
func (s *SecureStore) FetchAndDecryptOne(
	key string, passKey *PassKey, value interface{},
) error {
	if passKey == nil {
		return ErrNullKey
	}
	storageKey := currentNamespace + key
	values, err := s.db.Get(storageKey)
	if err != nil {
		return err
	}
	sealed, ok := values[storageKey]
	if !ok {
		return ErrNotFound
	}
	plaintext, err := open(storageKey, sealed, passKey)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, value); err != nil {
		return ErrDecryption
	}
	return nil
}

// IsStored returns whether a current record exists for the given key.
func (s *SecureStore) IsStored(key string) (bool, error) {
	return s.isStored(currentNamespace + key)
}

// RemoveMany deletes the current records of the given keys.
func (s *SecureStore) RemoveMany(keys ...string) error {
	return s.db.Remove(withNamespace(currentNamespace, keys)...)
}

// Keys returns the logical keys of all the current records.
func (s *SecureStore) Keys() ([]string, error) {
	return s.keys(currentNamespace)
}

// Rekey re-seals every current record with a key derived from the new
// password and fresh KDF parameters. All records and the new parameters are
// written in a single storage transaction, so that either the old or the new
// password works in case of failure.
func (s *SecureStore) Rekey(oldKey *PassKey, newPassword string) (*PassKey, error) {
	if oldKey == nil {
		return nil, ErrNullKey
	}
	keys, err := s.Keys()
	if err != nil {
		return nil, err
	}
	storageKeys := withNamespace(currentNamespace, keys)
	values, err := s.db.Get(storageKeys...)
	if err != nil {
		return nil, err
	}

	params, err := NewKDFParams(s.cost, s.rand)
	if err != nil {
		return nil, err
	}
	newKey := deriveKey(GenerateHash(newPassword), params)

	batch := make(map[string][]byte, len(values)+1)
	for storageKey, sealed := range values {
		plaintext, err := open(storageKey, sealed, oldKey)
		if err != nil {
			return nil, err
		}
		resealed, err := s.seal(storageKey, plaintext, newKey)
		if err != nil {
			return nil, err
		}
		batch[storageKey] = resealed
	}
	buf, _ := params.MarshalBinary()
	rawParams, _ := json.Marshal(buf)
	batch[plainNamespace+KDFParamsKey] = rawParams

	if err := s.db.Set(batch); err != nil {
		return nil, err
	}
	return newKey, nil
}

// EncryptAndSaveManyLegacy writes records in the legacy format. All the
// records of a batch share the same salt.
func (s *SecureStore) EncryptAndSaveManyLegacy(
	entries []Entry, key *LegacyKey,
) error {
	if key == nil {
		return ErrNullKey
	}
	derived, salt, err := wallet.DeriveKey([]byte(key.passphrase), nil)
	if err != nil {
		return err
	}

	values := make(map[string][]byte, len(entries))
	for _, e := range entries {
		plaintext, err := json.Marshal(e.Value)
		if err != nil {
			return err
		}
		cypher, err := wallet.EncryptWithKey(plaintext, derived, salt)
		if err != nil {
			return err
		}
		values[legacyNamespace+e.Key] = []byte(cypher)
	}
	return s.db.Set(values)
}

// FetchAndDecryptOneLegacy opens the legacy record stored under the given key
// and unmarshals it into value.
func (s *SecureStore) FetchAndDecryptOneLegacy(
	key string, legacyKey *LegacyKey, value interface{},
) error {
	if legacyKey == nil {
		return ErrNullKey
	}
	storageKey := legacyNamespace + key
	values, err := s.db.Get(storageKey)
	if err != nil {
		return err
	}
	cypher, ok := values[storageKey]
	if !ok {
		return ErrNotFound
	}
	plaintext, err := wallet.DecryptWithKeyCache(
		string(cypher), legacyKey.passphrase, legacyKey.cache,
	)
	if err != nil {
		return ErrDecryption
	}
	if err := json.Unmarshal(plaintext, value); err != nil {
		return ErrDecryption
	}
	return nil
}

// IsStoredLegacy returns whether a legacy record exists for the given key.
func (s *SecureStore) IsStoredLegacy(key string) (bool, error) {
	return s.isStored(legacyNamespace + key)
}

// RemoveManyLegacy deletes the legacy records of the given keys.
func (s *SecureStore) RemoveManyLegacy(keys ...string) error {
	return s.db.Remove(withNamespace(legacyNamespace, keys)...)
}

// LegacyKeys returns the logical keys of all the legacy records.
func (s *SecureStore) LegacyKeys() ([]string, error) {
	return s.keys(legacyNamespace)
}

// GetPlain unmarshals the plain record of the given key into value and
// returns whether it was found.
func (s *SecureStore) GetPlain(key string, value interface{}) (bool, error) {
	storageKey := plainNamespace + key
	values, err := s.db.Get(storageKey)
	if err != nil {
		return false, err
	}
	raw, ok := values[storageKey]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, value); err != nil {
		return false, err
	}
	return true, nil
}

// SavePlain writes a plain record. It must never be used for secrets.
func (s *SecureStore) SavePlain(key string, value interface{}) error {
	return s.SavePlainMany([]Entry{{key, value}})
}

// SavePlainMany writes many plain records in a single transaction.
func (s *SecureStore) SavePlainMany(entries []Entry) error {
	values := make(map[string][]byte, len(entries))
	for _, e := range entries {
		raw, err := json.Marshal(e.Value)
		if err != nil {
			return err
		}
		values[plainNamespace+e.Key] = raw
	}
	return s.db.Set(values)
}

// IsStoredPlain returns whether a plain record exists for the given key.
func (s *SecureStore) IsStoredPlain(key string) (bool, error) {
	return s.isStored(plainNamespace + key)
}

// RemovePlain deletes the plain records of the given keys.
func (s *SecureStore) RemovePlain(keys ...string) error {
	return s.db.Remove(withNamespace(plainNamespace, keys)...)
}

func (s *SecureStore) isStored(storageKey string) (bool, error) {
	values, err := s.db.Get(storageKey)
	if err != nil {
		return false, err
	}
	_, ok := values[storageKey]
	return ok, nil
}

func (s *SecureStore) keys(namespace string) ([]string, error) {
	storageKeys, err := s.db.Keys(namespace)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(storageKeys))
	for _, k := range storageKeys {
		keys = append(keys, strings.TrimPrefix(k, namespace))
	}
	return keys, nil
}

func (s *SecureStore) seal(
	storageKey string, plaintext []byte, key *PassKey,
) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key.key[:])
	if err != nil {
		return nil, err
	}
	out := make([]byte, 1+aead.NonceSize(), 1+aead.NonceSize()+len(plaintext)+aead.Overhead())
	out[0] = recordVersion
	nonce := out[1:]
	if _, err := io.ReadFull(s.rand, nonce); err != nil {
		return nil, err
	}
	return aead.Seal(out, nonce, plaintext, []byte(storageKey)), nil
}

func open(storageKey string, sealed []byte, key *PassKey) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key.key[:])
	if err != nil {
		return nil, err
	}
	if len(sealed) < 1+aead.NonceSize()+aead.Overhead() || sealed[0] != recordVersion {
		return nil, ErrDecryption
	}
	nonce := sealed[1 : 1+aead.NonceSize()]
	plaintext, err := aead.Open(nil, nonce, sealed[1+aead.NonceSize():], []byte(storageKey))
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}

func withNamespace(namespace string, keys []string) []string {
	storageKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		storageKeys = append(storageKeys, namespace+k)
	}
	return storageKeys
}
