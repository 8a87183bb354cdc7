package clientpool

import (
	"context"

	"github.com/jonwraymond/clientpool/authctx"
	"github.com/jonwraymond/clientpool/credential"
)

// ClientFactory constructs a client of type C from a validated auth
// context, the credential acquired for it, and caller-supplied options.
// Implementations are the one piece of this package that is specific to a
// downstream SDK; the pool owns everything else.
type ClientFactory[C any] interface {
	CreateClient(ctx context.Context, authCtx authctx.AuthContext, cred *credential.Credential, options any) (C, error)
}

// ClientFactoryFunc adapts a function to a ClientFactory.
type ClientFactoryFunc[C any] func(ctx context.Context, authCtx authctx.AuthContext, cred *credential.Credential, options any) (C, error)

// CreateClient calls f.
func (f ClientFactoryFunc[C]) CreateClient(ctx context.Context, authCtx authctx.AuthContext, cred *credential.Credential, options any) (C, error) {
	return f(ctx, authCtx, cred, options)
}

// CredentialProvider exposes the auth mode a ClientFactory is operating
// under, so a factory can decide whether to also request an application
// credential for a composite request (spec §9: Composite and Delegated are
// identical for caching/keying purposes, but a factory may still want to
// know which one it got).
type CredentialProvider interface {
	Mode() authctx.Mode
}

// authctx.AuthContext, the type every ClientFactory actually receives,
// satisfies CredentialProvider: a factory that only cares about the mode
// can narrow its parameter to this interface instead of depending on the
// full AuthContext surface.
var _ CredentialProvider = authctx.AuthContext{}
