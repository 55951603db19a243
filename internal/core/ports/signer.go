package ports

import (
	"context"

	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"github.com/tdex-network/tdex-vault/pkg/wallet"
)

// HardwareSignerOpts identifies the key a hardware device must sign with.
// PublicKey and Address are optional and, when given, are checked against
// what the device derives.
type HardwareSignerOpts struct {
	Chain          wallet.Chain
	DerivationPath string
	DerivationType domain.DerivationType
	PublicKey      string
	Address        string
}

// HardwareSignerFactory opens a signer on a hardware device. The returned
// cleanup func releases the device and must be called on every exit path.
type HardwareSignerFactory interface {
	Create(
		ctx context.Context, opts HardwareSignerOpts,
	) (signer HardwareSigner, cleanup func(), err error)
}

// HardwareSigner signs with a key that never leaves the device.
// Implementations return domain.ErrUserDeclined when the user rejects a
// request on the device.
type HardwareSigner interface {
	// PublicKey returns the encoded public key of the derived key.
	PublicKey(ctx context.Context) (string, error)
	// Sign returns the raw signature of the payload. For Tezos the payload
	// is prefixed with the watermark, for EVM it is signed as a personal
	// message and the watermark is ignored.
	Sign(ctx context.Context, payload, watermark []byte) ([]byte, error)
}
