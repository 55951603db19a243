package filesession

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-vault/internal/core/ports"
	"github.com/tdex-network/tdex-vault/internal/infrastructure/session"
	"github.com/tdex-network/tdex-vault/pkg/securestore"
)

// Filename is the name of the session file inside the datadir.
const Filename = "session.json"

type record struct {
	Key       string `json:"key"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
}

type store struct {
	lock  *sync.Mutex
	path  string
	clock clock.Clock
	ttl   time.Duration
}

// NewStore returns a session store persisted to a file readable only by the
// current user, so that it survives across processes.
func NewStore(
	datadir string, ttl time.Duration, c clock.Clock,
) (ports.SessionStore, error) {
	if err := os.MkdirAll(datadir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}
	if c == nil {
		c = clock.NewDefaultClock()
	}
	return &store{
		lock:  &sync.Mutex{},
		path:  filepath.Join(datadir, Filename),
		clock: c,
		ttl:   ttl,
	}, nil
}

func (s *store) Save(_ context.Context, key securestore.SessionKey) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	r := record{Key: hex.EncodeToString(key[:])}
	if expiresAt := session.ExpiresAt(s.clock, s.ttl); !expiresAt.IsZero() {
		r.ExpiresAt = expiresAt.Unix()
	}
	buf, err := json.Marshal(r)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *store) Load(context.Context) (*securestore.SessionKey, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	buf, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var r record
	if err := json.Unmarshal(buf, &r); err != nil {
		log.WithError(err).Warn("malformed session file, removing it")
		return nil, s.remove()
	}
	var expiresAt time.Time
	if r.ExpiresAt > 0 {
		expiresAt = time.Unix(r.ExpiresAt, 0)
	}
	if session.IsExpired(s.clock, expiresAt) {
		return nil, s.remove()
	}

	raw, err := hex.DecodeString(r.Key)
	if err != nil || len(raw) != securestore.KeySize {
		log.Warn("malformed session key, removing session file")
		return nil, s.remove()
	}
	var key securestore.SessionKey
	copy(key[:], raw)
	return &key, nil
}

func (s *store) Delete(context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.remove()
}

func (s *store) remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
