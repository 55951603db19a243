package ports

import (
	"context"

	"github.com/tdex-network/tdex-vault/pkg/securestore"
)

// SessionStore keeps the key of an unlocked vault so that it can be unlocked
// again without prompting for the password. Neither the password nor its
// hash is ever handed to a SessionStore.
type SessionStore interface {
	// Save stores the key, replacing any previous session.
	Save(ctx context.Context, key securestore.SessionKey) error
	// Load returns the stored key, or nil if there is no session or it
	// expired.
	Load(ctx context.Context) (*securestore.SessionKey, error)
	// Delete forgets the current session, if any.
	Delete(ctx context.Context) error
}
