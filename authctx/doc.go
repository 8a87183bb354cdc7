// Package authctx defines the auth request/context data model consumed by
// the credential and client-pool layers, and the adapter that validates a
// raw AuthRequest into a safe-to-use AuthContext.
//
// # Core Components
//
//   - [AuthRequest]: tagged variant (application/delegated/composite) supplied
//     by the caller.
//   - [AuthContext]: validated, normalized internal form.
//   - [UserAssertion]: verified claims carried by a delegated request.
//   - [TokenValidator]: external collaborator that turns a raw bearer string
//     into a [UserAssertion].
//   - [Validate]: the single place a user assertion is accepted.
//
// # Thread Safety
//
// All types in this package are immutable after construction and safe for
// concurrent use.
package authctx
