package vault

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/pbkdf2"
)

// SyncPayloadMagic prefixes every sync payload.
const SyncPayloadMagic = "vaultsync"

const (
	syncSaltSize   = 16
	syncNonceSize  = 24
	syncKeySize    = 32
	syncIterations = 10000
)

// SyncData is the content of a sync payload. It is serialized as the JSON
// array [mnemonic, hdCount].
type SyncData struct {
	Mnemonic string
	HDCount  int
}

func (d SyncData) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{d.Mnemonic, d.HDCount})
}

func (d *SyncData) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) != 2 {
		return domain.ErrInvalidSyncPayload
	}
	if err := json.Unmarshal(tuple[0], &d.Mnemonic); err != nil {
		return err
	}
	return json.Unmarshal(tuple[1], &d.HDCount)
}

// EncodeSyncPayload seals data with a pbkdf2-sha512 key derived from
// password: magic || base64(salt || nonce || secretbox(json(data))).
func EncodeSyncPayload(data SyncData, password string) (string, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	buf := make([]byte, syncSaltSize+syncNonceSize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	salt := buf[:syncSaltSize]
	var nonce [syncNonceSize]byte
	copy(nonce[:], buf[syncSaltSize:])

	key := syncKey(password, salt)
	sealed := secretbox.Seal(buf, plaintext, &nonce, key)
	return SyncPayloadMagic + base64.StdEncoding.EncodeToString(sealed), nil
}

// DecodeSyncPayload opens a payload produced by EncodeSyncPayload.
func DecodeSyncPayload(payload, password string) (*SyncData, error) {
	if !strings.HasPrefix(payload, SyncPayloadMagic) {
		return nil, domain.ErrInvalidSyncPayload
	}
	raw, err := base64.StdEncoding.DecodeString(
		strings.TrimPrefix(payload, SyncPayloadMagic),
	)
	if err != nil || len(raw) < syncSaltSize+syncNonceSize+secretbox.Overhead {
		return nil, domain.ErrInvalidSyncPayload
	}

	salt := raw[:syncSaltSize]
	var nonce [syncNonceSize]byte
	copy(nonce[:], raw[syncSaltSize:syncSaltSize+syncNonceSize])

	plaintext, ok := secretbox.Open(
		nil, raw[syncSaltSize+syncNonceSize:], &nonce, syncKey(password, salt),
	)
	if !ok {
		return nil, domain.ErrInvalidPassword
	}
	data := &SyncData{}
	if err := json.Unmarshal(plaintext, data); err != nil {
		return nil, domain.ErrInvalidSyncPayload
	}
	return data, nil
}

func syncKey(password string, salt []byte) *[syncKeySize]byte {
	var key [syncKeySize]byte
	copy(key[:], pbkdf2.Key(
		[]byte(password), salt, syncIterations, syncKeySize, sha512.New,
	))
	return &key
}
