// Package httpclient provides the resilient client that mediates every
// outbound call to one destination service. Each call carries a unique
// request ID, a timeout, and structured entry/completion logging, and is
// wrapped in retry-with-backoff and circuit-breaker gating.
//
// One Client is owned by exactly one logical destination. The health
// check path deliberately bypasses the circuit breaker so a tripped
// destination can still be probed for recovery.
package httpclient
