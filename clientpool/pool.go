package clientpool

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/clientpool/authctx"
	"github.com/jonwraymond/clientpool/cachekey"
	"github.com/jonwraymond/clientpool/credential"
	"github.com/jonwraymond/clientpool/observe"
	"github.com/jonwraymond/clientpool/poolerr"
	"github.com/jonwraymond/clientpool/ttlcache"
)

// Config configures a Pool.
type Config struct {
	// KeyPrefix scopes this Pool's client cache keys.
	KeyPrefix string

	// ClientCacheSlidingTTL (clientCacheSlidingTtl) resets a cached
	// client's deadline to now+ClientCacheSlidingTTL on every successful
	// GetClient hit. It applies to every client regardless of auth mode;
	// for token-bound clients it combines with the token-derived cap
	// below via the minimum of the two (spec §3's Lifecycle: "Client
	// entries live up to the minimum of (a) the client sliding TTL and
	// (b) for token-bound modes, assertion.expiresAt − bufferMs").
	// Default: 15 minutes.
	ClientCacheSlidingTTL time.Duration

	// ClientCacheMaxSize (clientCacheMaxSize) bounds the number of
	// concurrently cached clients; once exceeded, the least-recently-used
	// client is evicted. Zero means unbounded.
	ClientCacheMaxSize uint64

	// ExpiryBuffer is subtracted from the remaining lifetime of the earlier
	// of the user assertion's and the delegated credential's expiry before it is used as the client's token-derived cap (spec
	// §4.5), so a cached client is evicted slightly before its backing
	// token would actually be rejected. Default: 30 seconds.
	ExpiryBuffer time.Duration

	// Credentials is the Credential Manager clients are built from.
	Credentials *credential.Manager

	// Logger receives structured diagnostics. Default:
	// observe.NewLogger("info"), which writes info-level JSON lines to stderr.
	Logger observe.Logger

	// Tracer traces each client construction call. Default:
	// observe.NewNoopTracer().
	Tracer observe.Tracer

	// Metrics records each client construction call's duration and
	// outcome. Default: observe.NewNoopMetrics().
	Metrics observe.Metrics
}

// Validate checks Config for structural errors.
func (c Config) Validate() error {
	if c.Credentials == nil {
		return fmt.Errorf("clientpool: %w: Credentials is required", poolerr.ErrConfigurationInvalid)
	}
	return nil
}

// Pool is the Client Pool (spec §4.5): it caches constructed clients keyed
// by auth context plus caller options, deriving each cached client's TTL
// from the user assertion and credential backing it.
type Pool[C any] struct {
	cfg     Config
	builder *cachekey.Builder
	cache   *ttlcache.Cache[C]
	factory ClientFactory[C]
}

// New creates a Pool of clients of type C built by factory. The returned
// Pool owns a background cache-expiry goroutine; call Close to stop it.
func New[C any](cfg Config, factory ClientFactory[C]) (*Pool[C], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ClientCacheSlidingTTL <= 0 {
		cfg.ClientCacheSlidingTTL = 15 * time.Minute
	}
	if cfg.ExpiryBuffer <= 0 {
		cfg.ExpiryBuffer = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NewLogger("info")
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observe.NewNoopTracer()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NewNoopMetrics()
	}
	if factory == nil {
		return nil, fmt.Errorf("clientpool: %w: factory is required", poolerr.ErrConfigurationInvalid)
	}

	builder, err := cachekey.NewBuilder(cfg.KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("clientpool: %w", err)
	}

	return &Pool[C]{
		cfg:     cfg,
		builder: builder,
		factory: factory,
		cache: ttlcache.New[C](ttlcache.Config{
			SlidingTTL: cfg.ClientCacheSlidingTTL,
			MaxSize:    cfg.ClientCacheMaxSize,
			Logger:     cfg.Logger,
		}),
	}, nil
}

// Close stops the Pool's background cache-expiry loop, disposing any
// cached clients that implement ttlcache.Disposer.
func (p *Pool[C]) Close() {
	p.cache.Clear()
	p.cache.Stop()
}

// credentialKind maps an auth mode to the credential kind the Credential
// Manager should acquire for it. Composite and Delegated both acquire a
// delegated credential (spec §9: identical for caching/keying purposes).
func credentialKind(mode authctx.Mode) credential.Kind {
	if mode == authctx.ModeApplication {
		return credential.KindApplication
	}
	return credential.KindDelegated
}

// GetClient implements the getClient algorithm of spec §4.5: validate req,
// acquire the credential it authorizes, build the client cache key from
// fingerprint/options, derive this call's TTL, and return the cached or
// newly constructed client.
//
// customTTL overrides the TTL this call uses: zero defers to the
// credential-derived/default TTL, and a negative value means "construct
// the client but do not cache it" (spec §8's reference behavior for
// customTtl <= 0).
func (p *Pool[C]) GetClient(ctx context.Context, req authctx.AuthRequest, fingerprint string, options any, customTTL time.Duration) (C, error) {
	var zero C

	authCtx, err := authctx.Validate(req, time.Now())
	if err != nil {
		return zero, err
	}

	cred, err := p.cfg.Credentials.GetCredential(ctx, authCtx, credentialKind(authCtx.Mode()))
	if err != nil {
		return zero, err
	}

	key, rawForLog, err := p.builder.Build(authCtx, fingerprint, options)
	if err != nil {
		return zero, fmt.Errorf("clientpool: %w: %w", poolerr.ErrInternal, err)
	}

	ttl := p.resolveTTL(customTTL, authCtx, cred)
	meta := observe.CacheOperationMeta(p.cfg.KeyPrefix, "build_client")

	client, err := p.cache.GetOrCreate(ctx, key, ttl, func(ctx context.Context) (C, error) {
		ctx, span := p.cfg.Tracer.StartSpan(ctx, meta)
		start := time.Now()
		c, err := p.factory.CreateClient(ctx, authCtx, cred, options)
		p.cfg.Tracer.EndSpan(span, err)
		p.cfg.Metrics.RecordExecution(ctx, meta, time.Since(start), err)
		if err != nil {
			return c, fmt.Errorf("clientpool: %w: %w", poolerr.ErrFactoryFailure, err)
		}
		return c, nil
	})
	if err != nil {
		p.cfg.Logger.Warn(ctx, "clientpool: client construction failed",
			observe.Field{Key: "key", Value: rawForLog},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return zero, err
	}

	return client, nil
}

// resolveTTL implements spec §4.5/§3's customTtl derivation: an explicit
// override always wins outright; otherwise this returns the entry's own
// absolute cap on top of the Pool's always-active ClientCacheSlidingTTL
// (ttlcache.Cache combines the two via the minimum). For a token-bound
// context that cap is the earlier of the user assertion's and the
// credential's expiry, minus ExpiryBuffer. A non-token-bound context, or one
// with neither expiry known, gets no extra cap of its own (0) — such a
// client lives purely by the sliding TTL, as long as it keeps being
// requested.
func (p *Pool[C]) resolveTTL(customTTL time.Duration, authCtx authctx.AuthContext, cred *credential.Credential) time.Duration {
	if customTTL != 0 {
		return customTTL
	}
	if !authCtx.IsTokenBound() {
		return 0
	}
	deadline := cred.ExpiresAt
	if assertion, ok := authCtx.Assertion(); ok && !assertion.ExpiresAt.IsZero() &&
		(deadline.IsZero() || assertion.ExpiresAt.Before(deadline)) {
		deadline = assertion.ExpiresAt
	}
	if deadline.IsZero() {
		return 0
	}

	remaining := time.Until(deadline) - p.cfg.ExpiryBuffer
	if remaining <= 0 {
		return -1
	}
	return remaining
}

// InvalidateClientCache removes the cached client built from the same
// req/fingerprint/options as a prior GetClient call, and reports whether a
// matching entry was actually present (spec §4.5).
func (p *Pool[C]) InvalidateClientCache(req authctx.AuthRequest, fingerprint string, options any) (bool, error) {
	authCtx, err := authctx.Validate(req, time.Now())
	if err != nil {
		return false, err
	}
	key, _, err := p.builder.Build(authCtx, fingerprint, options)
	if err != nil {
		return false, fmt.Errorf("clientpool: %w: %w", poolerr.ErrInternal, err)
	}
	return p.cache.Delete(key), nil
}

// Stats reports the client cache's current size and cumulative
// hit/miss/eviction counters.
func (p *Pool[C]) Stats() ttlcache.Stats {
	return p.cache.Stats()
}
