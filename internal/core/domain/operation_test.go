package domain_test

import (
	"testing"

	"github.com/decred/dcrwallet/errors/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
)

func TestOperationParams(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		fee := int64(1420)
		tests := []struct {
			name          string
			params        domain.OperationParams
			expectedMutez string
		}{
			{
				name: "transaction",
				params: domain.OperationParams{
					Kind:   domain.OperationTransaction,
					To:     tzAddress1,
					Amount: decimal.RequireFromString("1.5"),
					Fee:    &fee,
				},
				expectedMutez: "1500000",
			},
			{
				name: "smallest unit",
				params: domain.OperationParams{
					Kind:   domain.OperationTransaction,
					To:     tzAddress1,
					Amount: decimal.RequireFromString("0.000001"),
				},
				expectedMutez: "1",
			},
			{
				name: "delegation",
				params: domain.OperationParams{
					Kind:     domain.OperationDelegation,
					Delegate: tzAddress1,
				},
				expectedMutez: "0",
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				require.NoError(t, tt.params.Validate())
				mutez, err := tt.params.AmountMutez()
				require.NoError(t, err)
				require.Equal(t, tt.expectedMutez, mutez)
			})
		}
	})

	t.Run("invalid", func(t *testing.T) {
		negative := int64(-1)
		tests := []struct {
			name   string
			params domain.OperationParams
		}{
			{
				name:   "unknown kind",
				params: domain.OperationParams{Kind: "origination"},
			},
			{
				name: "missing recipient",
				params: domain.OperationParams{
					Kind:   domain.OperationTransaction,
					Amount: decimal.NewFromInt(1),
				},
			},
			{
				name: "sub mutez amount",
				params: domain.OperationParams{
					Kind:   domain.OperationTransaction,
					To:     tzAddress1,
					Amount: decimal.RequireFromString("0.0000001"),
				},
			},
			{
				name: "negative amount",
				params: domain.OperationParams{
					Kind:   domain.OperationTransaction,
					To:     tzAddress1,
					Amount: decimal.NewFromInt(-1),
				},
			},
			{
				name: "negative fee",
				params: domain.OperationParams{
					Kind: domain.OperationDelegation,
					Fee:  &negative,
				},
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.params.Validate()
				require.True(t, errors.Is(err, domain.ErrInvalidOperation))
			})
		}
	})
}

func TestOperationError(t *testing.T) {
	err := &domain.OperationError{
		Message: "Operation failed",
		Errors: []domain.RPCError{
			{Kind: "temporary", ID: "proto.alpha.balance_too_low"},
			{Kind: "permanent", ID: "proto.alpha.tez.subtraction_underflow"},
		},
	}
	require.Equal(
		t,
		"Operation failed: proto.alpha.balance_too_low, proto.alpha.tez.subtraction_underflow",
		err.Error(),
	)
	require.True(t, domain.IsPublic(err))
}
