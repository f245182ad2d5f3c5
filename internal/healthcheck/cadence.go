package healthcheck

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
	"verge-groups/internal/domain"
)

// Cadence spaces automatic probes of the same group. The first request for a
// group is always allowed; later ones at most once per interval, or never
// when the interval is zero.
type Cadence struct {
	limiters map[domain.GroupName]*rate.Limiter
	mu       sync.RWMutex
	limit    rate.Limit
}

func NewCadence(every time.Duration) *Cadence {
	limit := rate.Limit(0)
	if every > 0 {
		limit = rate.Every(every)
	}
	return &Cadence{
		limiters: make(map[domain.GroupName]*rate.Limiter),
		limit:    limit,
	}
}

func (c *Cadence) Allow(group domain.GroupName) bool {
	return c.limiter(group).Allow()
}

func (c *Cadence) limiter(group domain.GroupName) *rate.Limiter {
	c.mu.RLock()
	limiter, exists := c.limiters[group]
	c.mu.RUnlock()

	if exists {
		return limiter
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := c.limiters[group]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(c.limit, 1)
	c.limiters[group] = limiter
	return limiter
}

// Forget drops the limiters of groups not in live, so a group that
// reappears is probed again on first sight.
func (c *Cadence) Forget(live []domain.GroupName) {
	keep := make(map[domain.GroupName]struct{}, len(live))
	for _, name := range live {
		keep[name] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for name := range c.limiters {
		if _, ok := keep[name]; !ok {
			delete(c.limiters, name)
		}
	}
}
