// Package cachekey builds deterministic, stable cache keys from an auth
// context plus an options value (spec §4.3).
//
// The raw key is the "::"-separated concatenation of a configured prefix,
// the auth mode, tenant/user identifiers for non-application modes, and
// either a factory-provided fingerprint or a canonicalized hash of the
// options value. The raw key is then digested with siphash-128 and
// URL-safe base64 encoded to produce the stored key; the raw form is
// retained only for log messages (truncated past 50 characters).
package cachekey
