package securestore

import (
	"encoding/binary"
	"errors"
	"io"
	"runtime"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"
)

const (
	// KeySize is the size in bytes of the keys derived from passwords.
	KeySize = 32
	// HashSize is the size in bytes of a password hash.
	HashSize = 32

	kdfParamsLen = 25
)

// KDFParams describes the difficulty and parallelism requirements for the
// Argon2id KDF together with the per-install salt.
type KDFParams struct {
	Salt    [16]byte
	Time    uint32
	Memory  uint32
	Threads uint8
}

// DefaultKDFParams returns the minimum recommended parameters for the
// Argon2id KDF, without salt.
func DefaultKDFParams() KDFParams {
	ncpu := runtime.NumCPU()
	if ncpu > 255 {
		ncpu = 255
	}
	return KDFParams{
		Time:    1,
		Memory:  64 * 1024, // 64 MiB
		Threads: uint8(ncpu),
	}
}

// NewKDFParams returns a copy of the given cost parameters with a random
// salt read from rand.
func NewKDFParams(cost KDFParams, rand io.Reader) (*KDFParams, error) {
	if cost.Time == 0 || cost.Memory == 0 || cost.Threads == 0 {
		return nil, ErrInvalidKDFParams
	}
	p := &KDFParams{
		Time:    cost.Time,
		Memory:  cost.Memory,
		Threads: cost.Threads,
	}
	_, err := io.ReadFull(rand, p.Salt[:])
	return p, err
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (p *KDFParams) MarshalBinary() ([]byte, error) {
	b := make([]byte, kdfParamsLen)
	copy(b, p.Salt[:])
	binary.LittleEndian.PutUint32(b[16:16+4], p.Time)
	binary.LittleEndian.PutUint32(b[16+4:16+8], p.Memory)
	b[16+8] = p.Threads
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *KDFParams) UnmarshalBinary(data []byte) error {
	if len(data) != kdfParamsLen {
		return errors.New("invalid marshaled Argon2id parameters")
	}
	copy(p.Salt[:], data)
	p.Time = binary.LittleEndian.Uint32(data[16:])
	p.Memory = binary.LittleEndian.Uint32(data[16+4:])
	p.Threads = data[16+8]
	return nil
}

// PasswordHash is the unsalted digest of a password, the input of the KDF.
type PasswordHash [HashSize]byte

// PassKey is the symmetric key current records are sealed with. Its bytes are
// not exported so that only the codec can make use of them.
type PassKey struct {
	key [KeySize]byte
}

// Zero overwrites the key material.
func (k *PassKey) Zero() {
	if k == nil {
		return
	}
	for i := range k.key {
		k.key[i] = 0
	}
}

// Equal returns whether two keys hold the same material.
func (k *PassKey) Equal(other *PassKey) bool {
	if k == nil || other == nil {
		return k == other
	}
	return k.key == other.key
}

// SessionKey is the exported material of a PassKey. Unlike a PasswordHash it
// is bound to the salt of the store it was derived for, and guessing the
// password behind it costs a full KDF run per attempt.
type SessionKey [KeySize]byte

// Export returns a copy of the key material, to be kept by a session.
func (k *PassKey) Export() SessionKey {
	return SessionKey(k.key)
}

// ImportSessionKey returns the PassKey of exported key material. Whether the
// key opens the records of a store must be checked by the caller.
func ImportSessionKey(sk SessionKey) *PassKey {
	return &PassKey{key: sk}
}

// LegacyKey unlocks records written with the legacy scrypt+AES-GCM format,
// where each record carries its own salt. Keys derived for a salt are cached
// for the lifetime of the LegacyKey.
type LegacyKey struct {
	passphrase string
	cache      map[string][]byte
}

// NewLegacyKey returns a key for reading and writing legacy records.
func NewLegacyKey(password string) *LegacyKey {
	return &LegacyKey{passphrase: password, cache: make(map[string][]byte)}
}

// GenerateHash returns the blake2b-256 digest of the password.
func GenerateHash(password string) PasswordHash {
	return blake2b.Sum256([]byte(password))
}

func deriveKey(hash PasswordHash, p *KDFParams) *PassKey {
	defer runtime.GC()
	k := &PassKey{}
	copy(k.key[:], argon2.IDKey(
		hash[:], p.Salt[:], p.Time, p.Memory, p.Threads, KeySize,
	))
	return k
}
