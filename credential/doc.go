// Package credential implements the Credential Manager (spec §4.4): the
// component responsible for turning a validated authctx.AuthContext into a
// usable Credential, caching application credentials and never caching
// delegated ones.
//
// The actual mechanics of obtaining a credential from an identity provider
// are left to caller-supplied ApplicationStrategy and DelegatedStrategy
// implementations; Manager only owns caching, single-flight coalescing,
// and the auth-mode safety check that rejects a delegated credential
// request against an application-only AuthContext.
package credential
