// Package resilience provides patterns for building fault-tolerant systems.
//
// This package includes:
//   - CircuitBreaker: Prevents cascading failures by failing fast
//   - Retry: Retries failed operations with exponential backoff
//   - Bulkhead: Limits concurrent access to isolate failures
//   - RateLimiter: Controls request rate with token bucket algorithm
//
// Retry and CircuitBreaker guard outbound calls (the remote stage's
// handshake, the HTTP client); RateLimiter and Bulkhead guard inbound
// admission on a serving endpoint:
//
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 100, Burst: 200})
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 64})
//
//	if !rl.Allow() {
//	    return errors.RateLimited()
//	}
//	err := bh.Execute(ctx, func() error {
//	    return handle(req)
//	})
package resilience
