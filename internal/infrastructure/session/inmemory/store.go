package inmemorysession

import (
	"context"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/tdex-network/tdex-vault/internal/core/ports"
	"github.com/tdex-network/tdex-vault/internal/infrastructure/session"
	"github.com/tdex-network/tdex-vault/pkg/securestore"
)

type store struct {
	lock  *sync.Mutex
	clock clock.Clock
	ttl   time.Duration

	key       *securestore.SessionKey
	expiresAt time.Time
}

// NewStore returns a session store that lives as long as the process.
func NewStore(ttl time.Duration, c clock.Clock) ports.SessionStore {
	if c == nil {
		c = clock.NewDefaultClock()
	}
	return &store{lock: &sync.Mutex{}, clock: c, ttl: ttl}
}

func (s *store) Save(_ context.Context, key securestore.SessionKey) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.key = &key
	s.expiresAt = session.ExpiresAt(s.clock, s.ttl)
	return nil
}

func (s *store) Load(context.Context) (*securestore.SessionKey, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.key == nil {
		return nil, nil
	}
	if session.IsExpired(s.clock, s.expiresAt) {
		s.key = nil
		return nil, nil
	}
	key := *s.key
	return &key, nil
}

func (s *store) Delete(context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.key = nil
	s.expiresAt = time.Time{}
	return nil
}
