package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonwraymond/clientpool/authctx"
)

// AssertionValidatorConfig configures an AssertionValidator.
type AssertionValidatorConfig struct {
	// Issuer is the expected token issuer (iss claim). Optional.
	Issuer string

	// TenantClaim is the claim holding the tenant ID. Default: "tid".
	TenantClaim string

	// UserClaim is the claim holding the user object ID. Default: "oid",
	// falling back to "sub" if "oid" is absent.
	UserClaim string
}

// AssertionValidator adapts the JWT/JWKS verification pipeline to
// authctx.TokenValidator, turning a raw bearer assertion string into an
// authctx.UserAssertion.
type AssertionValidator struct {
	config      AssertionValidatorConfig
	keyProvider KeyProvider
}

// NewAssertionValidator creates an AssertionValidator backed by
// keyProvider (typically a JWKSKeyProvider).
func NewAssertionValidator(config AssertionValidatorConfig, keyProvider KeyProvider) *AssertionValidator {
	if config.TenantClaim == "" {
		config.TenantClaim = "tid"
	}
	if config.UserClaim == "" {
		config.UserClaim = "oid"
	}
	return &AssertionValidator{config: config, keyProvider: keyProvider}
}

// Validate implements authctx.TokenValidator.
func (v *AssertionValidator) Validate(ctx context.Context, rawAssertion string) (authctx.UserAssertion, error) {
	rawAssertion = strings.TrimSpace(strings.TrimPrefix(rawAssertion, "Bearer "))
	if rawAssertion == "" {
		return authctx.UserAssertion{}, fmt.Errorf("auth: %w", ErrMissingCredentials)
	}

	token, err := jwt.Parse(rawAssertion, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		return v.keyProvider.GetKey(ctx, kid)
	})
	if err != nil {
		if strings.Contains(err.Error(), "expired") {
			return authctx.UserAssertion{}, fmt.Errorf("auth: %w", ErrTokenExpired)
		}
		return authctx.UserAssertion{}, fmt.Errorf("auth: %w", ErrTokenMalformed)
	}
	if !token.Valid {
		return authctx.UserAssertion{}, fmt.Errorf("auth: %w", ErrInvalidCredentials)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return authctx.UserAssertion{}, fmt.Errorf("auth: %w", ErrTokenMalformed)
	}

	if v.config.Issuer != "" {
		if iss, ok := claims["iss"].(string); !ok || iss != v.config.Issuer {
			return authctx.UserAssertion{}, fmt.Errorf("auth: %w", ErrInvalidCredentials)
		}
	}

	userID, _ := claims[v.config.UserClaim].(string)
	if userID == "" {
		userID, _ = claims["sub"].(string)
	}
	tenantID, _ := claims[v.config.TenantClaim].(string)

	expiresAt := time.Time{}
	if expClaim, err := claims.GetExpirationTime(); err == nil && expClaim != nil {
		expiresAt = expClaim.Time
	}

	return authctx.UserAssertion{
		RawToken:     rawAssertion,
		UserObjectID: userID,
		TenantID:     tenantID,
		ExpiresAt:    expiresAt,
	}, nil
}
