// Package cache provides an optional redis-backed result cache for served
// pipelines.
//
// The serving endpoint keys each process call by a digest of the service
// name, input format and raw payload; a hit returns the previously computed
// result without running the pipeline. The backing connection is dialed
// lazily on first use and guarded by a circuit breaker, so a missing or
// failing redis never takes the endpoint down — calls simply miss.
package cache
