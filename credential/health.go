package credential

import (
	"context"
	"fmt"

	"github.com/jonwraymond/clientpool/health"
)

// HealthChecker reports the application credential cache's occupancy as a
// health.Checker (spec §9's preserved health-reporting surface).
func (m *Manager) HealthChecker(name string) health.Checker {
	return health.NewCheckerFunc(name, func(ctx context.Context) health.Result {
		stats := m.Stats()
		details := map[string]any{
			"count":         stats.Count,
			"max_size":      stats.MaxSize,
			"pending_count": stats.PendingCount,
			"insertions":    stats.Insertions,
			"hits":          stats.Hits,
			"misses":        stats.Misses,
			"evictions":     stats.Evictions,
		}
		if age, ok := m.cache.Age(m.key); ok {
			details["application_credential_age"] = age.String()
		}
		return health.Healthy(fmt.Sprintf("%d cached application credentials", stats.Count)).WithDetails(details)
	})
}
