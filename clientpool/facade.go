package clientpool

import (
	"context"
	"time"

	"github.com/jonwraymond/clientpool/authctx"
	"github.com/jonwraymond/clientpool/cachekey"
)

// Extractor turns an arbitrary incoming request of type R into the
// authctx.AuthRequest a Pool needs (spec §4.7's assertion-centric
// extraction surface — spec §9 fixes this as the canonical shape over an
// identity-centric alternative).
type Extractor[R any] interface {
	Extract(ctx context.Context, req R) (authctx.AuthRequest, error)
}

// ExtractorFunc adapts a function to an Extractor.
type ExtractorFunc[R any] func(ctx context.Context, req R) (authctx.AuthRequest, error)

// Extract calls f.
func (f ExtractorFunc[R]) Extract(ctx context.Context, req R) (authctx.AuthRequest, error) {
	return f(ctx, req)
}

// OptionsResolver derives the fingerprint and options a request maps to,
// alongside the AuthRequest an Extractor produces. Most callers pass fixed
// options per call site rather than deriving them from R; Facade accepts
// fingerprint/options directly for that reason, with OptionsResolver
// reserved for call sites where they genuinely depend on R.
type OptionsResolver[R any] interface {
	Resolve(ctx context.Context, req R) (fingerprint string, options any, err error)
}

// OptionsExtractor pulls the raw options value out of R, leaving a
// cachekey.Fingerprinter to turn it into the short string GetClient's
// fingerprint parameter expects.
type OptionsExtractor[R any] func(req R) any

// FingerprintResolver is an OptionsResolver that derives its fingerprint
// from req's options via a cachekey.Fingerprinter, rather than requiring
// the call site to compute one. This is the concrete home for
// cachekey.Fingerprinter/FingerprinterFunc: a caller who wants the Key
// Builder's fingerprint-over-options-hash precedence (spec §4.3) to apply
// from a raw request type R, instead of from an already-known options
// value, wires one of these into ClientWithResolver.
type FingerprintResolver[R any] struct {
	Fingerprinter    cachekey.Fingerprinter
	OptionsExtractor OptionsExtractor[R]
}

// Resolve implements OptionsResolver.
func (r FingerprintResolver[R]) Resolve(ctx context.Context, req R) (string, any, error) {
	options := r.OptionsExtractor(req)
	return r.Fingerprinter.Fingerprint(options), options, nil
}

// Facade composes an Extractor with a Pool, so call sites that only have a
// raw incoming request (an HTTP request, an RPC message) never construct
// an authctx.AuthRequest by hand (spec §4.7).
type Facade[R any, C any] struct {
	pool    *Pool[C]
	extract Extractor[R]
}

// NewFacade creates a Facade over pool using extract to derive each call's
// AuthRequest from R.
func NewFacade[R any, C any](pool *Pool[C], extract Extractor[R]) *Facade[R, C] {
	return &Facade[R, C]{pool: pool, extract: extract}
}

// Client extracts req's AuthRequest and delegates to Pool.GetClient.
func (f *Facade[R, C]) Client(ctx context.Context, req R, fingerprint string, options any, customTTL time.Duration) (C, error) {
	var zero C

	authReq, err := f.extract.Extract(ctx, req)
	if err != nil {
		return zero, err
	}
	return f.pool.GetClient(ctx, authReq, fingerprint, options, customTTL)
}

// ClientWithResolver behaves like Client, but derives fingerprint and
// options from req via resolver instead of accepting them directly.
func (f *Facade[R, C]) ClientWithResolver(ctx context.Context, req R, resolver OptionsResolver[R], customTTL time.Duration) (C, error) {
	var zero C

	authReq, err := f.extract.Extract(ctx, req)
	if err != nil {
		return zero, err
	}
	fingerprint, options, err := resolver.Resolve(ctx, req)
	if err != nil {
		return zero, err
	}
	return f.pool.GetClient(ctx, authReq, fingerprint, options, customTTL)
}

// InvalidateClientCache extracts req's AuthRequest and delegates to
// Pool.InvalidateClientCache, propagating whether a matching entry was
// actually present.
func (f *Facade[R, C]) InvalidateClientCache(ctx context.Context, req R, fingerprint string, options any) (bool, error) {
	authReq, err := f.extract.Extract(ctx, req)
	if err != nil {
		return false, err
	}
	return f.pool.InvalidateClientCache(authReq, fingerprint, options)
}
