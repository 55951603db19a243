// Package session holds the SessionStore implementations. A session is the
// exported key of an unlocked vault, kept until it expires so that later
// processes can unlock the vault without asking for the password again.
package session

import (
	"time"

	"github.com/lightningnetwork/lnd/clock"
)

// DefaultTTL is the lifetime of a session when none is configured.
const DefaultTTL = 15 * time.Minute

// ExpiresAt returns the expiration of a session saved now. A zero ttl never
// expires.
func ExpiresAt(c clock.Clock, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.Now().Add(ttl)
}

// IsExpired returns whether a session with the given expiration is expired.
func IsExpired(c clock.Clock, expiresAt time.Time) bool {
	return !expiresAt.IsZero() && !c.Now().Before(expiresAt)
}
