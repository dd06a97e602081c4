package reputation

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Free-tier quota of the public service: 4 requests per minute, which
// the original tooling approximated with a flat 15-second spacing.
const (
	DefaultFreeQuota     = 4
	DefaultQueryInterval = 15 * time.Second
)

// Pacer gates successive reputation queries. It is an interface so
// tests can observe pacing without real delays.
type Pacer interface {
	Wait(ctx context.Context) error
}

type limiterPacer struct {
	limiter *rate.Limiter
}

func (p limiterPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// NewPacer returns the pacer for a query run over the given number of
// unique entities. At or under the quota every query proceeds
// immediately; above it, queries are spaced one interval apart with
// the first query unpaced, so N entities incur N-1 pauses.
func NewPacer(entityCount, quota int, interval time.Duration) Pacer {
	if quota <= 0 {
		quota = DefaultFreeQuota
	}
	if interval <= 0 {
		interval = DefaultQueryInterval
	}
	if entityCount <= quota {
		return limiterPacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	// Burst of one with a full initial bucket: the first Wait returns
	// immediately, each later Wait blocks a full interval.
	return limiterPacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}
