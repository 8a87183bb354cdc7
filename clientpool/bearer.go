package clientpool

import (
	"context"
	"fmt"

	"github.com/jonwraymond/clientpool/auth"
	"github.com/jonwraymond/clientpool/authctx"
)

// BearerAssertionExtractor is a ready-made Extractor[*auth.AuthRequest]: it
// reads a bearer token from the configured header, validates it via
// validator (typically an *auth.AssertionValidator backed by JWKS), and
// produces a delegated authctx.AuthRequest. A request with no bearer token
// produces an application AuthRequest instead, so the same extractor
// serves both service-to-service and on-behalf-of call sites.
type BearerAssertionExtractor struct {
	validator  authctx.TokenValidator
	headerName string
}

// NewBearerAssertionExtractor creates a BearerAssertionExtractor reading
// headerName (default "Authorization" if empty).
func NewBearerAssertionExtractor(validator authctx.TokenValidator, headerName string) *BearerAssertionExtractor {
	if headerName == "" {
		headerName = "Authorization"
	}
	return &BearerAssertionExtractor{validator: validator, headerName: headerName}
}

// Extract implements Extractor[*auth.AuthRequest].
func (e *BearerAssertionExtractor) Extract(ctx context.Context, req *auth.AuthRequest) (authctx.AuthRequest, error) {
	header := req.GetHeader(e.headerName)
	if header == "" {
		return authctx.ApplicationRequest(), nil
	}

	assertion, err := e.validator.Validate(ctx, header)
	if err != nil {
		return authctx.AuthRequest{}, fmt.Errorf("clientpool: extract bearer assertion: %w", err)
	}
	return authctx.DelegatedRequest(assertion), nil
}
