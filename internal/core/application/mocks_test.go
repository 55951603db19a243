package application_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/tdex-vault/pkg/securestore"
)

type mockChainIDResolver struct {
	mock.Mock
}

func (m *mockChainIDResolver) TezosChainID(
	ctx context.Context, rpcURL string,
) (string, error) {
	args := m.Called(ctx, rpcURL)
	return args.String(0), args.Error(1)
}

func (m *mockChainIDResolver) EvmChainID(
	ctx context.Context, rpcURL string,
) (string, error) {
	args := m.Called(ctx, rpcURL)
	return args.String(0), args.Error(1)
}

type memorySessions struct {
	key *securestore.SessionKey
}

func (s *memorySessions) Save(_ context.Context, key securestore.SessionKey) error {
	s.key = &key
	return nil
}

func (s *memorySessions) Load(context.Context) (*securestore.SessionKey, error) {
	if s.key == nil {
		return nil, nil
	}
	key := *s.key
	return &key, nil
}

func (s *memorySessions) Delete(context.Context) error {
	s.key = nil
	return nil
}
