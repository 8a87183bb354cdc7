package authctx

import "time"

// AuthContext is the validated, normalized internal form of an AuthRequest.
// Downstream components (cachekey, credential, clientpool) only ever see an
// AuthContext, never a raw AuthRequest — this package is the only place a
// user assertion is accepted (spec §4.6).
type AuthContext struct {
	mode         Mode
	tenantID     string
	userObjectID string
	assertion    UserAssertion
	hasAssert    bool
}

// Mode returns the validated request's tag.
func (c AuthContext) Mode() Mode {
	return c.mode
}

// TenantID returns the tenant id. Empty for ModeApplication.
func (c AuthContext) TenantID() string {
	return c.tenantID
}

// UserObjectID returns the user object id. Empty for ModeApplication.
func (c AuthContext) UserObjectID() string {
	return c.userObjectID
}

// Assertion returns the validated user assertion and whether one is present
// (always false for ModeApplication).
func (c AuthContext) Assertion() (UserAssertion, bool) {
	return c.assertion, c.hasAssert
}

// IsTokenBound reports whether this context carries a user assertion whose
// lifetime should bound any derived cache TTL (spec §4.5).
func (c AuthContext) IsTokenBound() bool {
	return c.hasAssert
}

// Validate normalizes req into an AuthContext, applying the rules of spec
// §4.6:
//
//   - Application is always valid.
//   - Delegated/Composite require a non-empty tenant id and user object id,
//     and an assertion that has not yet expired at the moment of validation.
func Validate(req AuthRequest, now time.Time) (AuthContext, error) {
	if req.mode == ModeApplication {
		return AuthContext{mode: ModeApplication}, nil
	}

	assertion, ok := req.Assertion()
	if !ok {
		return AuthContext{}, ErrMissingUser
	}
	if assertion.TenantID == "" {
		return AuthContext{}, ErrMissingTenant
	}
	if assertion.UserObjectID == "" {
		return AuthContext{}, ErrMissingUser
	}
	if !assertion.ExpiresAt.After(now) {
		return AuthContext{}, ErrTokenExpired
	}

	return AuthContext{
		mode:         req.mode,
		tenantID:     assertion.TenantID,
		userObjectID: assertion.UserObjectID,
		assertion:    assertion,
		hasAssert:    true,
	}, nil
}
