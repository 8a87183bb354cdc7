package clientpool

import (
	"context"
	"fmt"

	"github.com/jonwraymond/clientpool/credential"
	"github.com/jonwraymond/clientpool/health"
)

// nearCapacityThreshold is the fraction of ClientCacheMaxSize at which
// HealthChecker reports Degraded instead of Healthy: an operator watching
// this check should notice the client cache is about to start evicting
// warm clients under MaxSize pressure before it actually happens.
const nearCapacityThreshold = 0.9

// HealthChecker reports Pool's client cache occupancy as a health.Checker.
// It degrades once the cache is within nearCapacityThreshold of its
// configured ClientCacheMaxSize, since LRU eviction at that point starts
// discarding clients callers are still actively using rather than ones that
// merely expired.
func (p *Pool[C]) HealthChecker(name string) health.Checker {
	return health.NewCheckerFunc(name, func(ctx context.Context) health.Result {
		stats := p.Stats()
		details := map[string]any{
			"count":         stats.Count,
			"max_size":      stats.MaxSize,
			"pending_count": stats.PendingCount,
			"insertions":    stats.Insertions,
			"hits":          stats.Hits,
			"misses":        stats.Misses,
			"evictions":     stats.Evictions,
		}

		if stats.MaxSize > 0 && float64(stats.Count) >= float64(stats.MaxSize)*nearCapacityThreshold {
			return health.Degraded(fmt.Sprintf("client cache at %d/%d entries, approaching MaxSize", stats.Count, stats.MaxSize)).WithDetails(details)
		}
		return health.Healthy(fmt.Sprintf("%d cached clients", stats.Count)).WithDetails(details)
	})
}

// NewHealthAggregator combines p's client cache health with mgr's
// application credential cache health into a single health.Aggregator,
// under the "client_cache"/"credential_cache" names health.NewCacheHealthAggregator
// expects. mgr may be nil if this Pool's credential.Manager is only ever
// used for delegated credentials, which this Pool does not cache.
func (p *Pool[C]) NewHealthAggregator(mgr *credential.Manager, name string, config ...health.AggregatorConfig) *health.Aggregator {
	var mgrChecker health.Checker
	if mgr != nil {
		mgrChecker = mgr.HealthChecker(name + ".credential_cache")
	}
	return health.NewCacheHealthAggregator(mgrChecker, p.HealthChecker(name+".client_cache"), config...)
}
