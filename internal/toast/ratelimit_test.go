package toast

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterSpacesRequests(t *testing.T) {
	limiter := newRateLimiter(map[Endpoint]time.Duration{
		EndpointCash: 50 * time.Millisecond,
	})

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(ctx, EndpointCash, "r1"); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	// First call is free, the next two each wait the interval.
	if elapsed < 100*time.Millisecond {
		t.Fatalf("expected at least 100ms of spacing, got %s", elapsed)
	}
}

func TestRateLimiterIsolatesRestaurants(t *testing.T) {
	limiter := newRateLimiter(map[Endpoint]time.Duration{
		EndpointOrders: time.Hour,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, EndpointOrders, "r1"); err != nil {
		t.Fatalf("first restaurant: %v", err)
	}
	// A different restaurant has its own budget and proceeds immediately.
	if err := limiter.Wait(ctx, EndpointOrders, "r2"); err != nil {
		t.Fatalf("second restaurant: %v", err)
	}
}

func TestRateLimiterWaitHonorsContext(t *testing.T) {
	limiter := newRateLimiter(map[Endpoint]time.Duration{
		EndpointMenus: time.Hour,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, EndpointMenus, "r1"); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	if err := limiter.Wait(ctx, EndpointMenus, "r1"); err == nil {
		t.Fatal("expected context deadline error on second wait")
	}
}
