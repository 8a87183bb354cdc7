package authctx

import "context"

// TokenValidator is the external collaborator (spec §6) that verifies a raw
// bearer string and extracts the claims needed to build a UserAssertion. It
// is consumed only by callers building a Delegated/Composite AuthRequest
// from an incoming request; the pool and credential manager never see a raw
// token.
type TokenValidator interface {
	Validate(ctx context.Context, rawAssertion string) (UserAssertion, error)
}
