package domain_test

import (
	"fmt"
	"testing"

	"github.com/decred/dcrwallet/errors/v2"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
)

func TestPublicErrors(t *testing.T) {
	const op errors.Op = "vault.Sign"

	tests := []struct {
		name            string
		err             error
		expectedPublic  bool
		expectedMessage string
	}{
		{
			name:            "domain error",
			err:             domain.ErrInvalidPassword,
			expectedPublic:  true,
			expectedMessage: "Invalid password",
		},
		{
			name:            "wrapped domain error",
			err:             errors.E(op, domain.ErrWatchOnlySign),
			expectedPublic:  true,
			expectedMessage: "Cannot sign Watch-only account",
		},
		{
			name:            "wrapped twice",
			err:             errors.E(errors.Op("vault.withError"), errors.E(op, domain.ErrUserDeclined)),
			expectedPublic:  true,
			expectedMessage: "Declined",
		},
		{
			name:            "operation error",
			err:             &domain.OperationError{Message: "Operation failed"},
			expectedPublic:  true,
			expectedMessage: "Operation failed",
		},
		{
			name:            "io error",
			err:             errors.E(op, errors.IO, "disk full"),
			expectedPublic:  false,
			expectedMessage: "disk full",
		},
		{
			name:            "plain error",
			err:             fmt.Errorf("boom"),
			expectedPublic:  false,
			expectedMessage: "boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expectedPublic, domain.IsPublic(tt.err))
			require.Equal(t, tt.expectedMessage, domain.PublicMessage(tt.err))
		})
	}
}

func TestWrappedErrorsMatch(t *testing.T) {
	err := errors.E(errors.Op("vault.Setup"), domain.ErrInvalidPassword)

	require.True(t, errors.Is(err, domain.ErrInvalidPassword))
	require.True(t, errors.Is(err, errors.Passphrase))
	require.False(t, errors.Is(err, domain.ErrInvalidMnemonicOrPassword))
}
