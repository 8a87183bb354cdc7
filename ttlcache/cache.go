package ttlcache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lib "github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/clientpool/observe"
)

// Disposer is implemented by cached values that own a resource needing
// release when the entry leaves the cache, regardless of why (expiry,
// size eviction, explicit delete, or clear).
type Disposer interface {
	Dispose(ctx context.Context) error
}

// Factory constructs the value for a cache miss.
type Factory[T any] func(ctx context.Context) (T, error)

// Config configures a Cache. Both TTL dimensions below are always active
// simultaneously when set: an entry's effective deadline is the minimum of
// whichever dimensions apply (spec §4.1).
type Config struct {
	// SlidingTTL resets every entry's deadline to now+SlidingTTL on each
	// successful GetOrCreate/GetOrCreateTTLFunc hit. Zero disables the
	// sliding dimension cache-wide; an entry with no other active
	// dimension then never expires on its own.
	SlidingTTL time.Duration

	// AbsoluteTTL is a cache-wide hard cap measured from an entry's
	// creation time, independent of access. Zero disables the cache-wide
	// absolute cap. The per-call ttl argument to GetOrCreate (or the ttl
	// GetOrCreateTTLFunc's factory returns) supplies an additional,
	// per-entry cap on top of this one; both combine via the same minimum
	// rule.
	AbsoluteTTL time.Duration

	// MaxSize bounds the number of entries the cache holds. Once
	// exceeded, the least-recently-used entry is evicted. Zero means
	// unbounded.
	MaxSize uint64

	// Logger receives best-effort disposal failure reports and
	// population trace lines. If nil, observe.NewLogger("info") is used.
	Logger observe.Logger
}

type entry[T any] struct {
	value T

	// createdAt anchors both the cache-wide AbsoluteTTL and this entry's
	// own absoluteTTL; neither is extended by access.
	createdAt time.Time

	// absoluteTTL is this entry's own fixed cap from createdAt, supplied
	// per-call to GetOrCreate/GetOrCreateTTLFunc. Zero means this entry
	// carries no extra cap beyond the Cache's own dimensions.
	absoluteTTL time.Duration
}

// Cache is a generic, string-keyed TTL cache with single-flight-coordinated
// population and disposal-aware eviction.
type Cache[T any] struct {
	cfg    Config
	inner  *lib.Cache[string, entry[T]]
	flight singleflight.Group

	pending atomic.Int32
	hits    atomic.Uint64
	misses  atomic.Uint64
	inserts atomic.Uint64
	evicts  atomic.Uint64
}

// New creates a Cache and starts its background expiry loop. Call Stop when
// the Cache is no longer needed.
func New[T any](cfg Config) *Cache[T] {
	if cfg.Logger == nil {
		cfg.Logger = observe.NewLogger("info")
	}

	// Both TTL dimensions are recomputed and re-applied by this package on
	// every touch (see touch/expiry below), so the library's own
	// touch-on-hit renewal — which always resets to the original fixed
	// duration rather than a recomputed minimum — is disabled unconditionally.
	opts := []lib.Option[string, entry[T]]{
		lib.WithDisableTouchOnHit[string, entry[T]](),
	}
	if cfg.MaxSize > 0 {
		opts = append(opts, lib.WithCapacity[string, entry[T]](cfg.MaxSize))
	}

	c := &Cache[T]{
		cfg:   cfg,
		inner: lib.New(opts...),
	}

	c.inner.OnEviction(func(ctx context.Context, reason lib.EvictionReason, item *lib.Item[string, entry[T]]) {
		c.evicts.Add(1)
		c.dispose(ctx, item.Key(), item.Value().value)
	})

	go c.inner.Start()

	return c
}

// Stop halts the background expiry loop. Entries already stored remain
// addressable until explicitly deleted or cleared.
func (c *Cache[T]) Stop() {
	c.inner.Stop()
}

// GetOrCreate returns the cached value for key, invoking factory at most
// once across all concurrent callers on a miss (spec §4.1/§4.2's
// single-flight coalescing guarantee).
//
// ttl is this entry's own cap, measured from the moment it is populated,
// applied on top of the Cache's SlidingTTL/AbsoluteTTL (the effective
// deadline is always the minimum of whichever dimensions are active). Zero
// means this entry carries no extra cap of its own; a negative ttl means
// "construct but do not cache" — the factory still runs (coalesced with any
// concurrent callers), but the result is never stored.
func (c *Cache[T]) GetOrCreate(ctx context.Context, key string, ttl time.Duration, factory Factory[T]) (T, error) {
	return c.getOrCreate(ctx, key, func(ctx context.Context) (T, time.Duration, error) {
		value, err := factory(ctx)
		return value, ttl, err
	})
}

// GetOrCreateTTLFunc behaves like GetOrCreate, but the per-call cap is
// chosen by factory itself from the value it produced (e.g. a credential's
// own expiry) rather than fixed in advance. The same "zero means no extra
// cap, negative means don't cache" rule applies to the ttl factory returns.
func (c *Cache[T]) GetOrCreateTTLFunc(ctx context.Context, key string, factory func(ctx context.Context) (T, time.Duration, error)) (T, error) {
	return c.getOrCreate(ctx, key, factory)
}

func (c *Cache[T]) getOrCreate(ctx context.Context, key string, factory func(ctx context.Context) (T, time.Duration, error)) (T, error) {
	if item := c.inner.Get(key); item != nil {
		c.hits.Add(1)
		c.touch(key, item.Value())
		return item.Value().value, nil
	}

	result, err, _ := c.flight.Do(key, func() (any, error) {
		if item := c.inner.Get(key); item != nil {
			c.hits.Add(1)
			c.touch(key, item.Value())
			return item.Value().value, nil
		}

		c.misses.Add(1)
		c.pending.Add(1)
		defer c.pending.Add(-1)

		populationID := uuid.NewString()
		value, ttl, err := factory(ctx)
		if err != nil {
			c.cfg.Logger.Debug(ctx, "ttlcache: population failed",
				observe.Field{Key: "key", Value: key},
				observe.Field{Key: "population_id", Value: populationID},
				observe.Field{Key: "error", Value: err.Error()},
			)
			return value, err
		}

		if ttl < 0 {
			c.cfg.Logger.Debug(ctx, "ttlcache: populated without caching",
				observe.Field{Key: "key", Value: key},
				observe.Field{Key: "population_id", Value: populationID},
			)
			return value, nil
		}

		e := entry[T]{value: value, createdAt: time.Now(), absoluteTTL: ttl}
		if storeTTL, ok := c.expiry(e); ok {
			c.inner.Set(key, e, storeTTL)
			c.inserts.Add(1)
			c.cfg.Logger.Debug(ctx, "ttlcache: populated",
				observe.Field{Key: "key", Value: key},
				observe.Field{Key: "population_id", Value: populationID},
				observe.Field{Key: "ttl", Value: storeTTL.String()},
			)
		} else {
			c.cfg.Logger.Debug(ctx, "ttlcache: populated already past its deadline, not stored",
				observe.Field{Key: "key", Value: key},
				observe.Field{Key: "population_id", Value: populationID},
			)
		}
		return value, nil
	})

	typed, _ := result.(T)
	return typed, err
}

// expiry computes the duration to hand the underlying library's Set for e,
// combining the Cache's SlidingTTL/AbsoluteTTL with e's own per-entry
// absoluteTTL via the minimum of whichever dimensions are active. ok is
// false when a fixed (non-sliding) dimension has already elapsed, meaning e
// should not be stored (or should be dropped immediately if it already
// was).
func (c *Cache[T]) expiry(e entry[T]) (ttl time.Duration, ok bool) {
	var remaining time.Duration
	set := false
	consider := func(d time.Duration) {
		if d <= 0 {
			return
		}
		if !set || d < remaining {
			remaining = d
			set = true
		}
	}

	if c.cfg.SlidingTTL > 0 {
		consider(c.cfg.SlidingTTL)
	}
	if c.cfg.AbsoluteTTL > 0 {
		consider(time.Until(e.createdAt.Add(c.cfg.AbsoluteTTL)))
	}
	if e.absoluteTTL > 0 {
		consider(time.Until(e.createdAt.Add(e.absoluteTTL)))
	}

	if !set {
		return lib.NoTTL, true
	}
	if remaining <= 0 {
		return 0, false
	}
	return remaining, true
}

// touch re-applies the sliding dimension on a cache hit, recomputing the
// minimum of all active dimensions from e's unchanged createdAt. An entry
// whose fixed dimensions have already elapsed is deleted instead of
// re-stored.
func (c *Cache[T]) touch(key string, e entry[T]) {
	if ttl, ok := c.expiry(e); ok {
		c.inner.Set(key, e, ttl)
	} else {
		c.inner.Delete(key)
	}
}

// Peek returns the cached value for key without triggering construction or
// resetting its deadline.
func (c *Cache[T]) Peek(key string) (T, error) {
	var zero T
	item := c.inner.Get(key)
	if item == nil {
		return zero, ErrNotFound
	}
	return item.Value().value, nil
}

// Age returns how long ago key's current value was populated, and whether
// key is present at all. Useful for diagnostics (e.g. a health check that
// flags a credential cached longer than expected).
func (c *Cache[T]) Age(key string) (time.Duration, bool) {
	item := c.inner.Get(key)
	if item == nil {
		return 0, false
	}
	return time.Since(item.Value().createdAt), true
}

// Delete removes key, disposing its value if present, and reports whether a
// matching entry existed (spec §4.1's delete(key) -> bool).
func (c *Cache[T]) Delete(key string) bool {
	item := c.inner.Get(key)
	if item == nil {
		return false
	}
	c.inner.Delete(key)
	return true
}

// Clear removes all entries, disposing each value.
func (c *Cache[T]) Clear() {
	c.inner.DeleteAll()
}

// Len returns the number of entries currently stored.
func (c *Cache[T]) Len() int {
	return c.inner.Len()
}

// Stats summarizes a Cache's lifetime activity and current bounds, for
// health reporting (spec §4.1's stats() -> {size, maxSize, pendingCount}).
type Stats struct {
	Count        int
	MaxSize      uint64
	PendingCount int
	Insertions   uint64
	Hits         uint64
	Misses       uint64
	Evictions    uint64
}

// Stats returns the Cache's current size, configured bound, in-flight
// population count, and cumulative hit/miss/eviction counters.
func (c *Cache[T]) Stats() Stats {
	return Stats{
		Count:        c.inner.Len(),
		MaxSize:      c.cfg.MaxSize,
		PendingCount: int(c.pending.Load()),
		Insertions:   c.inserts.Load(),
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Evictions:    c.evicts.Load(),
	}
}

func (c *Cache[T]) dispose(ctx context.Context, key string, value T) {
	disposer, ok := any(value).(Disposer)
	if !ok {
		return
	}
	if err := disposer.Dispose(ctx); err != nil {
		c.cfg.Logger.Warn(ctx, "ttlcache: dispose failed",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
}
