package resilience

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures the token bucket.
type RateLimiterConfig struct {
	// Rate is the number of requests allowed per second.
	Rate float64
	// Burst is the maximum burst size.
	Burst int
}

// PerMinute builds a config from a requests-per-minute budget, the unit
// remote APIs usually quote their limits in. Burst stays at one so calls
// spread evenly over the minute instead of front-loading the quota.
func PerMinute(rpm int) RateLimiterConfig {
	return RateLimiterConfig{
		Rate:  float64(rpm) / 60.0,
		Burst: 1,
	}
}

// RateLimiter paces requests to an external service with a token bucket.
// Callers block in Wait until a token frees up.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 10.0
	}
	if config.Burst <= 0 {
		config.Burst = int(config.Rate)
		if config.Burst < 1 {
			config.Burst = 1
		}
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(config.Rate), config.Burst),
	}
}

// Wait blocks until a request is allowed or the context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}
