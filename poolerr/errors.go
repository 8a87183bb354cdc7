// Package poolerr collects the sentinel errors shared by credential and
// clientpool, and the stable machine-readable error codes spec §7
// describes. Keeping them in one leaf package lets both callers and
// strategy implementations match with errors.Is without importing either
// package's full surface.
package poolerr

import (
	"errors"

	"github.com/jonwraymond/clientpool/authctx"
)

// Sentinel errors for credential acquisition and pool configuration.
var (
	// ErrAuthModeMismatch is returned when a caller requests a credential
	// kind the originating AuthRequest does not permit (a delegated
	// credential from an application-only request, or vice versa).
	ErrAuthModeMismatch = errors.New("poolerr: requested credential kind not permitted by auth request")

	// ErrConfigurationInvalid is returned by Config.Validate for a
	// structurally invalid configuration.
	ErrConfigurationInvalid = errors.New("poolerr: invalid configuration")

	// ErrFactoryFailure wraps an error returned by a caller-supplied
	// client factory.
	ErrFactoryFailure = errors.New("poolerr: client factory failed")

	// ErrCredentialFailure wraps an error returned by a credential
	// strategy.
	ErrCredentialFailure = errors.New("poolerr: credential acquisition failed")

	// ErrInternal marks a failure that indicates a bug rather than bad
	// input or a downstream failure (e.g. a cache invariant violated).
	ErrInternal = errors.New("poolerr: internal error")
)

// Code returns the stable machine-readable error kind from spec §7: one of
// MissingTenant, MissingUser, TokenExpired, AuthModeMismatch,
// ConfigurationInvalid, FactoryFailure, CredentialFailure, Internal, or ""
// if err does not match any known sentinel.
func Code(err error) string {
	if code := authctx.Code(err); code != "" {
		return code
	}

	switch {
	case errors.Is(err, ErrAuthModeMismatch):
		return "AuthModeMismatch"
	case errors.Is(err, ErrConfigurationInvalid):
		return "ConfigurationInvalid"
	case errors.Is(err, ErrFactoryFailure):
		return "FactoryFailure"
	case errors.Is(err, ErrCredentialFailure):
		return "CredentialFailure"
	case errors.Is(err, ErrInternal):
		return "Internal"
	default:
		return ""
	}
}
