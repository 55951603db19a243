// Package chainrpc talks to the Tezos and EVM nodes the vault needs: chain
// id lookups and the forge and injection of Tezos operations. Every endpoint
// is protected by its own circuit breaker and all requests share a rate
// limiter.
package chainrpc

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/sony/gobreaker"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"github.com/tdex-network/tdex-vault/internal/core/ports"
	"github.com/tdex-network/tdex-vault/pkg/circuitbreaker"
	"go.uber.org/ratelimit"
)

// DefaultRequestsPerSecond is the rate limit used when none is configured.
const DefaultRequestsPerSecond = 10

// Service implements ports.TezosRPCFactory and ports.ChainIDResolver.
type Service struct {
	lock     *sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	limiter  ratelimit.Limiter
}

// NewService returns a service making at most requestsPerSecond requests.
func NewService(requestsPerSecond int) *Service {
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultRequestsPerSecond
	}
	return &Service{
		lock:     &sync.Mutex{},
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		limiter:  ratelimit.New(requestsPerSecond),
	}
}

var (
	_ ports.TezosRPCFactory = (*Service)(nil)
	_ ports.ChainIDResolver = (*Service)(nil)
)

// TezosRPC returns a client for the Tezos node at rpcURL.
func (s *Service) TezosRPC(rpcURL string) (ports.TezosRPC, error) {
	baseURL, err := normalizeURL(rpcURL)
	if err != nil {
		return nil, err
	}
	return &tezosClient{s, baseURL}, nil
}

// TezosChainID returns the chain id of the Tezos node at rpcURL.
func (s *Service) TezosChainID(ctx context.Context, rpcURL string) (string, error) {
	client, err := s.TezosRPC(rpcURL)
	if err != nil {
		return "", err
	}
	return client.ChainID(ctx)
}

// call makes a request to the endpoint at baseURL through its circuit
// breaker. Rejections of operations by the node are errors of the caller,
// not of the endpoint, and do not count as failures.
func (s *Service) call(baseURL string, fn func() error) error {
	s.limiter.Take()

	var rejection error
	_, err := s.breaker(baseURL).Execute(func() (interface{}, error) {
		err := fn()
		if _, ok := err.(*domain.OperationError); ok {
			rejection = err
			return nil, nil
		}
		return nil, err
	})
	if err != nil {
		return err
	}
	return rejection
}

func (s *Service) breaker(baseURL string) *gobreaker.CircuitBreaker {
	s.lock.Lock()
	defer s.lock.Unlock()

	cb, ok := s.breakers[baseURL]
	if !ok {
		cb = circuitbreaker.NewCircuitBreaker(baseURL)
		s.breakers[baseURL] = cb
	}
	return cb
}

func normalizeURL(rpcURL string) (string, error) {
	rpcURL = strings.TrimSuffix(strings.TrimSpace(rpcURL), "/")
	u, err := url.Parse(rpcURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid rpc url %q", rpcURL)
	}
	return rpcURL, nil
}
