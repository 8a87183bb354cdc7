package credential

import (
	"context"
	"time"
)

// Kind distinguishes reusable application credentials from user-bound
// delegated credentials.
type Kind int

const (
	// KindApplication identifies a credential obtained without a user
	// assertion. Application credentials are safe to share across callers
	// and are cached.
	KindApplication Kind = iota

	// KindDelegated identifies a credential obtained on behalf of one user
	// assertion. Delegated credentials are never cached.
	KindDelegated
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindApplication:
		return "application"
	case KindDelegated:
		return "delegated"
	default:
		return "unknown"
	}
}

// Credential is an opaque, strategy-produced credential plus the metadata
// the Manager needs to cache and expire it.
type Credential struct {
	// Kind records how this credential was obtained.
	Kind Kind

	// Value is the strategy-defined credential payload (a token, a signed
	// assertion, a certificate handle — whatever the strategy produces).
	Value any

	// ExpiresAt is when the identity provider considers Value no longer
	// valid. A zero value means the strategy does not expose an expiry and
	// the Manager's configured default TTL governs caching instead.
	ExpiresAt time.Time

	// dispose releases any resource Value owns (e.g. staged certificate
	// material). Optional.
	dispose func(ctx context.Context) error
}

// WithDispose attaches a disposal callback to a Credential, returning the
// receiver for chaining in strategy implementations.
func (c *Credential) WithDispose(fn func(ctx context.Context) error) *Credential {
	c.dispose = fn
	return c
}

// Dispose implements ttlcache.Disposer. It is a no-op if no disposal
// callback was attached.
func (c *Credential) Dispose(ctx context.Context) error {
	if c.dispose == nil {
		return nil
	}
	return c.dispose(ctx)
}

// remainingTTL returns how long Value should be considered valid from now
// as a per-entry cap on top of the cache's own Sliding/AbsoluteTTL
// dimensions (ttlcache.Cache.GetOrCreateTTLFunc's ttl parameter). Zero means
// the strategy reported no ExpiresAt, so this credential carries no extra
// cap of its own. A negative result means the credential is already past
// its reported expiry and must not be cached at all.
func (c *Credential) remainingTTL(now time.Time) time.Duration {
	if c.ExpiresAt.IsZero() {
		return 0
	}
	ttl := c.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return -1
	}
	return ttl
}
