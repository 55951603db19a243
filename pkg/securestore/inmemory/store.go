package inmemorysecurestore

import (
	"strings"
	"sync"

	"github.com/tdex-network/tdex-vault/pkg/securestore"
)

type inmemoryStorage struct {
	lock  *sync.RWMutex
	store map[string][]byte
}

// NewStorage returns an in-memory instance of the securestore.Storage
// interface. Its content is lost when the process exits.
func NewStorage() securestore.Storage {
	return &inmemoryStorage{
		lock:  &sync.RWMutex{},
		store: make(map[string][]byte),
	}
}

func (s *inmemoryStorage) Get(keys ...string) (map[string][]byte, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	values := make(map[string][]byte)
	for _, key := range keys {
		if v, ok := s.store[key]; ok {
			values[key] = append([]byte{}, v...)
		}
	}
	return values, nil
}

func (s *inmemoryStorage) Set(valuesByKey map[string][]byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for key, value := range valuesByKey {
		s.store[key] = append([]byte{}, value...)
	}
	return nil
}

func (s *inmemoryStorage) Remove(keys ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, key := range keys {
		delete(s.store, key)
	}
	return nil
}

func (s *inmemoryStorage) Keys(prefix string) ([]string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	keys := make([]string, 0)
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *inmemoryStorage) Reset() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.store = make(map[string][]byte)
	return nil
}

func (s *inmemoryStorage) Close() error {
	return nil
}
