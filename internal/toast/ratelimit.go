package toast

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Endpoint classes share a rate budget on the vendor side. Limits apply
// per (endpoint class, restaurant) pair.
type Endpoint string

const (
	EndpointOrders Endpoint = "orders"
	EndpointCash   Endpoint = "cash"
	EndpointLabor  Endpoint = "labor"
	EndpointMenus  Endpoint = "menus"
	EndpointConfig Endpoint = "config"
)

type limiterKey struct {
	endpoint   Endpoint
	restaurant string
}

// rateLimiter enforces a minimum interval between requests for each
// (endpoint, restaurant) pair. The first request goes through immediately.
type rateLimiter struct {
	mu        sync.Mutex
	intervals map[Endpoint]time.Duration
	limiters  map[limiterKey]*rate.Limiter
}

func newRateLimiter(intervals map[Endpoint]time.Duration) *rateLimiter {
	return &rateLimiter{
		intervals: intervals,
		limiters:  make(map[limiterKey]*rate.Limiter),
	}
}

// Wait blocks until the pair's budget allows another request or the
// context is cancelled.
func (r *rateLimiter) Wait(ctx context.Context, endpoint Endpoint, restaurantGUID string) error {
	return r.limiter(endpoint, restaurantGUID).Wait(ctx)
}

func (r *rateLimiter) limiter(endpoint Endpoint, restaurantGUID string) *rate.Limiter {
	key := limiterKey{endpoint: endpoint, restaurant: restaurantGUID}

	r.mu.Lock()
	defer r.mu.Unlock()

	if lim, ok := r.limiters[key]; ok {
		return lim
	}

	interval, ok := r.intervals[endpoint]
	if !ok || interval <= 0 {
		interval = time.Second
	}
	lim := rate.NewLimiter(rate.Every(interval), 1)
	r.limiters[key] = lim
	return lim
}
