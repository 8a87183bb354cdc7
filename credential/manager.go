package credential

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/clientpool/authctx"
	"github.com/jonwraymond/clientpool/observe"
	"github.com/jonwraymond/clientpool/poolerr"
	"github.com/jonwraymond/clientpool/ttlcache"
)

// applicationCacheKey is the one slot an application credential occupies:
// application identity is process-wide, so no auth-context-derived key is
// needed the way the client cache needs one per tenant/user/options.
const applicationCacheKey = "::application"

// Config configures a Manager.
type Config struct {
	// KeyPrefix scopes this Manager's application credential cache key.
	KeyPrefix string

	// SlidingTTL (credentialCacheSlidingTtl) resets the cached application
	// credential's deadline to now+SlidingTTL on every successful
	// GetCredential hit. Default: 15 minutes.
	SlidingTTL time.Duration

	// AbsoluteTTL (credentialCacheAbsoluteTtl) is a hard cap on how long an
	// application credential is reused from cache, measured from when it
	// was acquired, regardless of how often it's hit. Zero disables the
	// cache-wide absolute cap; the credential's own reported ExpiresAt (if
	// any) still bounds reuse independently (a credential is never served
	// past the identity provider's own expiry).
	AbsoluteTTL time.Duration

	// MaxSize (credentialCacheMaxSize) bounds the number of cached
	// application credentials. The Manager currently ever occupies a
	// single slot per KeyPrefix, so this only matters once a deployment
	// runs multiple Managers sharing an underlying cache; kept here so the
	// config surface matches the Client Pool's symmetrically. Zero means
	// unbounded.
	MaxSize uint64

	// ApplicationStrategy acquires application credentials. Required if
	// any caller ever requests KindApplication.
	ApplicationStrategy ApplicationStrategy

	// DelegatedStrategy acquires delegated credentials. Required if any
	// caller ever requests KindDelegated.
	DelegatedStrategy DelegatedStrategy

	// Logger receives structured diagnostics. Default:
	// observe.NewLogger("info"), which writes info-level JSON lines to stderr.
	Logger observe.Logger

	// Tracer traces each acquisition call. Default: observe.NewNoopTracer().
	Tracer observe.Tracer

	// Metrics records each acquisition call's duration and outcome.
	// Default: observe.NewNoopMetrics().
	Metrics observe.Metrics
}

// Validate checks Config for structural errors.
func (c Config) Validate() error {
	if c.ApplicationStrategy == nil && c.DelegatedStrategy == nil {
		return fmt.Errorf("credential: %w: at least one of ApplicationStrategy or DelegatedStrategy must be set", poolerr.ErrConfigurationInvalid)
	}
	return nil
}

// Manager is the Credential Manager (spec §4.4): it acquires and, for
// application credentials only, caches credentials on behalf of an
// authctx.AuthContext.
type Manager struct {
	cfg   Config
	key   string
	cache *ttlcache.Cache[*Credential]
}

// NewManager creates a Manager. The returned Manager owns a background
// cache-expiry goroutine; call Close to stop it.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.SlidingTTL <= 0 {
		cfg.SlidingTTL = 15 * time.Minute
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

	return &Manager{
		cfg: cfg,
		key: cfg.KeyPrefix + applicationCacheKey,
		cache: ttlcache.New[*Credential](ttlcache.Config{
			SlidingTTL:  cfg.SlidingTTL,
			AbsoluteTTL: cfg.AbsoluteTTL,
			MaxSize:     cfg.MaxSize,
			Logger:      cfg.Logger,
		}),
	}, nil
}

// Close stops the Manager's background cache-expiry loop, disposing any
// cached application credentials.
func (m *Manager) Close() {
	m.cache.Clear()
	m.cache.Stop()
}

// GetCredential returns a credential of kind for authCtx (spec §4.4).
// Application credentials are served from the single-slot cache when
// present; delegated credentials always invoke DelegatedStrategy fresh.
//
// Requesting KindDelegated against an AuthContext whose mode is
// authctx.ModeApplication, or KindApplication against one that is not
// application-capable, fails with poolerr.ErrAuthModeMismatch.
func (m *Manager) GetCredential(ctx context.Context, authCtx authctx.AuthContext, kind Kind) (*Credential, error) {
	switch kind {
	case KindApplication:
		return m.acquireApplication(ctx, authCtx)
	case KindDelegated:
		return m.acquireDelegated(ctx, authCtx)
	default:
		return nil, fmt.Errorf("credential: %w: unknown kind %v", poolerr.ErrInternal, kind)
	}
}

func (m *Manager) acquireApplication(ctx context.Context, authCtx authctx.AuthContext) (*Credential, error) {
	if authCtx.Mode() != authctx.ModeApplication {
		return nil, fmt.Errorf("credential: %w: application credential requested for a %s auth context", poolerr.ErrAuthModeMismatch, authCtx.Mode())
	}
	if m.cfg.ApplicationStrategy == nil {
		return nil, fmt.Errorf("credential: %w: no ApplicationStrategy configured", poolerr.ErrConfigurationInvalid)
	}

	meta := observe.CacheOperationMeta(m.cfg.KeyPrefix, "acquire_application")
	cred, err := m.cache.GetOrCreateTTLFunc(ctx, m.key, func(ctx context.Context) (*Credential, time.Duration, error) {
		ctx, span := m.cfg.Tracer.StartSpan(ctx, meta)
		start := time.Now()
		cred, err := m.cfg.ApplicationStrategy.AcquireApplication(ctx, authCtx)
		m.cfg.Tracer.EndSpan(span, err)
		m.cfg.Metrics.RecordExecution(ctx, meta, time.Since(start), err)
		if err != nil {
			return nil, 0, fmt.Errorf("credential: %w: %w", poolerr.ErrCredentialFailure, err)
		}
		cred.Kind = KindApplication
		return cred, cred.remainingTTL(time.Now()), nil
	})
	if err != nil {
		m.cfg.Logger.Warn(ctx, "credential: application acquisition failed",
			observe.Field{Key: "error", Value: err.Error()},
		)
		return nil, err
	}

	return cred, nil
}

func (m *Manager) acquireDelegated(ctx context.Context, authCtx authctx.AuthContext) (*Credential, error) {
	if authCtx.Mode() == authctx.ModeApplication {
		return nil, fmt.Errorf("credential: %w: delegated credential requested for an application auth context", poolerr.ErrAuthModeMismatch)
	}
	if m.cfg.DelegatedStrategy == nil {
		return nil, fmt.Errorf("credential: %w: no DelegatedStrategy configured", poolerr.ErrConfigurationInvalid)
	}

	assertion, ok := authCtx.Assertion()
	if !ok {
		return nil, fmt.Errorf("credential: %w: auth context carries no user assertion", poolerr.ErrInternal)
	}

	meta := observe.CacheOperationMeta(m.cfg.KeyPrefix, "acquire_delegated")
	ctx, span := m.cfg.Tracer.StartSpan(ctx, meta)
	start := time.Now()
	cred, err := m.cfg.DelegatedStrategy.AcquireDelegated(ctx, authCtx, assertion)
	m.cfg.Tracer.EndSpan(span, err)
	m.cfg.Metrics.RecordExecution(ctx, meta, time.Since(start), err)
	if err != nil {
		wrapped := fmt.Errorf("credential: %w: %w", poolerr.ErrCredentialFailure, err)
		m.cfg.Logger.Warn(ctx, "credential: delegated acquisition failed",
			observe.Field{Key: "tenant", Value: authCtx.TenantID()},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return nil, wrapped
	}
	cred.Kind = KindDelegated
	return cred, nil
}

// Stats reports the application credential cache's current size and
// cumulative hit/miss/eviction counters.
func (m *Manager) Stats() ttlcache.Stats {
	return m.cache.Stats()
}
