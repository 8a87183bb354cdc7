package credential

import (
	"context"

	"github.com/jonwraymond/clientpool/authctx"
)

// ApplicationStrategy acquires an application (non-user-bound) credential.
// Implementations typically exchange client credentials with an identity
// provider's token endpoint.
type ApplicationStrategy interface {
	AcquireApplication(ctx context.Context, authCtx authctx.AuthContext) (*Credential, error)
}

// DelegatedStrategy acquires a credential on behalf of one user assertion
// (delegated or composite auth modes). Implementations typically exchange
// the bound UserAssertion for a downstream token via an on-behalf-of flow.
type DelegatedStrategy interface {
	AcquireDelegated(ctx context.Context, authCtx authctx.AuthContext, assertion authctx.UserAssertion) (*Credential, error)
}

// ApplicationStrategyFunc adapts a function to an ApplicationStrategy.
type ApplicationStrategyFunc func(ctx context.Context, authCtx authctx.AuthContext) (*Credential, error)

// AcquireApplication calls f.
func (f ApplicationStrategyFunc) AcquireApplication(ctx context.Context, authCtx authctx.AuthContext) (*Credential, error) {
	return f(ctx, authCtx)
}

// DelegatedStrategyFunc adapts a function to a DelegatedStrategy.
type DelegatedStrategyFunc func(ctx context.Context, authCtx authctx.AuthContext, assertion authctx.UserAssertion) (*Credential, error)

// AcquireDelegated calls f.
func (f DelegatedStrategyFunc) AcquireDelegated(ctx context.Context, authCtx authctx.AuthContext, assertion authctx.UserAssertion) (*Credential, error) {
	return f(ctx, authCtx, assertion)
}
