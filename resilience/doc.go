// Package resilience provides the failure-handling primitives that guard
// every cross-service call on the platform: a per-destination circuit
// breaker and a retry helper with exponential backoff and full jitter.
//
// The circuit breaker is driven purely by call outcomes. There is no
// background timer: an open circuit transitions to half-open lazily when
// the next call arrives after the reset timeout has elapsed.
package resilience
