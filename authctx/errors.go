package authctx

import "errors"

// Sentinel errors for auth-request validation.
var (
	// ErrMissingTenant is returned when a non-application request carries no tenant ID.
	ErrMissingTenant = errors.New("authctx: tenant id is required")

	// ErrMissingUser is returned when a non-application request carries no user object ID.
	ErrMissingUser = errors.New("authctx: user object id is required")

	// ErrTokenExpired is returned when the user assertion's expiry has already passed.
	ErrTokenExpired = errors.New("authctx: assertion has expired")

	// ErrUnknownMode is returned for an AuthRequest constructed outside this package.
	ErrUnknownMode = errors.New("authctx: unknown auth mode")
)

// Code returns the stable machine-readable error kind from spec §7, or "" if
// err does not match a known sentinel.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrMissingTenant):
		return "MissingTenant"
	case errors.Is(err, ErrMissingUser):
		return "MissingUser"
	case errors.Is(err, ErrTokenExpired):
		return "TokenExpired"
	default:
		return ""
	}
}
