package domain

import (
	"github.com/decred/dcrwallet/errors/v2"
)

var (
	// ErrInvalidPassword is returned for any failure to validate the check
	// value or to decrypt a record with a password derived key. It never
	// tells a wrong password apart from corrupted data.
	ErrInvalidPassword = errors.E(errors.Passphrase, "Invalid password")
	// ErrInvalidMnemonicOrPassword ...
	ErrInvalidMnemonicOrPassword = errors.E(
		errors.Seed, "Invalid Mnemonic or Password",
	)
	// ErrVaultNotFound ...
	ErrVaultNotFound = errors.E(errors.NotExist, "Vault not found")
	// ErrVaultLocked ...
	ErrVaultLocked = errors.E(errors.Locked, "Vault is locked")
	// ErrVaultUnlocked ...
	ErrVaultUnlocked = errors.E(errors.Invalid, "Vault is already unlocked")

	// ErrAccountNotFound ...
	ErrAccountNotFound = errors.E(errors.NotExist, "Account not found")
	// ErrAccountNameExists ...
	ErrAccountNameExists = errors.E(
		errors.Exist, "Account with same name already exists",
	)
	// ErrAccountExists ...
	ErrAccountExists = errors.E(errors.Exist, "Account already exists")
	// ErrEmptyAccountName ...
	ErrEmptyAccountName = errors.E(errors.Invalid, "Account name must not be empty")
	// ErrRemoveHDAccount is returned when trying to remove a single HD
	// account, which would desynchronize the next free HD index.
	ErrRemoveHDAccount = errors.E(errors.Invalid, "Cannot remove HD account")
	// ErrWatchOnlySign ...
	ErrWatchOnlySign = errors.E(
		errors.WatchingOnly, "Cannot sign Watch-only account",
	)
	// ErrManagedKTOwnerNotFound ...
	ErrManagedKTOwnerNotFound = errors.E(
		errors.NotExist, "Owner account of the contract not found",
	)

	// ErrInvalidAddress ...
	ErrInvalidAddress = errors.E(errors.Invalid, "Invalid address")
	// ErrInvalidPrivateKey ...
	ErrInvalidPrivateKey = errors.E(errors.Invalid, "Invalid private key")
	// ErrInvalidEncryptionPassword ...
	ErrInvalidEncryptionPassword = errors.E(
		errors.Invalid, "Invalid encryption password",
	)
	// ErrUnsupportedPrivateKey ...
	ErrUnsupportedPrivateKey = errors.E(
		errors.Invalid, "Private key curve is not supported",
	)
	// ErrInvalidDerivationPath ...
	ErrInvalidDerivationPath = errors.E(errors.Invalid, "Invalid derivation path")
	// ErrInvalidChain ...
	ErrInvalidChain = errors.E(errors.Invalid, "Unsupported chain")
	// ErrInvalidChainID ...
	ErrInvalidChainID = errors.E(errors.Invalid, "Invalid chain id")
	// ErrInvalidOperation ...
	ErrInvalidOperation = errors.E(errors.Invalid, "Invalid operation parameters")
	// ErrInvalidPayload ...
	ErrInvalidPayload = errors.E(errors.Invalid, "Payload must be hex encoded")
	// ErrPrivateKeyNotStored is returned when revealing the key of an account
	// that only references a key held elsewhere.
	ErrPrivateKeyNotStored = errors.E(
		errors.Invalid, "Account does not hold a private key",
	)
	// ErrChainIDUnresolved is returned when the chain id of a new network
	// cannot be fetched from its RPC endpoint.
	ErrChainIDUnresolved = errors.E(
		errors.Invalid, "Could not fetch chain id from RPC",
	)
	// ErrNetworkNotFound ...
	ErrNetworkNotFound = errors.E(errors.NotExist, "Network not found")
	// ErrInvalidSyncPayload ...
	ErrInvalidSyncPayload = errors.E(errors.Encoding, "Invalid sync payload")

	// ErrUserDeclined is returned when the user rejects a request on a
	// hardware signer.
	ErrUserDeclined = errors.E(errors.Permission, "Declined")
)

var publicKinds = map[errors.Kind]bool{
	errors.Passphrase:   true,
	errors.Seed:         true,
	errors.NotExist:     true,
	errors.Exist:        true,
	errors.Invalid:      true,
	errors.WatchingOnly: true,
	errors.Permission:   true,
	errors.Locked:       true,
}

// IsPublic returns whether the error is a domain error whose message can be
// displayed to the user verbatim.
func IsPublic(err error) bool {
	if _, ok := err.(*OperationError); ok {
		return true
	}
	e, ok := err.(*errors.Error)
	if !ok {
		return false
	}
	for e != nil {
		if e.Kind != errors.Other {
			return publicKinds[e.Kind]
		}
		e, _ = e.Err.(*errors.Error)
	}
	return false
}

// PublicMessage returns the innermost description of an error, stripped of
// operation and kind prefixes.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	e, ok := err.(*errors.Error)
	if !ok {
		return err.Error()
	}
	for {
		if e.Err == nil {
			return e.Kind.String()
		}
		inner, ok := e.Err.(*errors.Error)
		if !ok {
			return e.Err.Error()
		}
		e = inner
	}
}
