package circuitbreaker_test

import (
	"fmt"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-vault/pkg/circuitbreaker"
)

func TestCircuitBreaker(t *testing.T) {
	cb := circuitbreaker.NewCircuitBreaker("test")
	require.Equal(t, "test", cb.Name())

	failing := func() (interface{}, error) {
		return nil, fmt.Errorf("unreachable")
	}
	for i := 0; i < circuitbreaker.MaxNumOfFailingRequests; i++ {
		_, err := cb.Execute(failing)
		require.Error(t, err)
		require.Equal(t, gobreaker.StateClosed, cb.State())
	}

	_, err := cb.Execute(failing)
	require.Error(t, err)
	require.Equal(t, gobreaker.StateOpen, cb.State())

	_, err = cb.Execute(func() (interface{}, error) { return nil, nil })
	require.Equal(t, gobreaker.ErrOpenState, err)
}
