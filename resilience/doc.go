// Package resilience provides patterns for calling unreliable external
// services.
//
// This package includes:
//   - Retry: Retries failed operations with exponential backoff and jitter
//   - Bulkhead: Limits concurrent access to a shared resource
//   - RateLimiter: Controls request rate with a token bucket
//
// The patterns compose:
//
//	// Example: remote vision API with rate limiting and retry
//	rl := resilience.NewRateLimiter(resilience.PerMinute(30))
//
//	result, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) (*Result, error) {
//	    if err := rl.Wait(ctx); err != nil {
//	        return nil, err
//	    }
//	    return client.Describe(ctx, frame)
//	})
package resilience
