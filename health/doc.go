// Package health continuously answers "is the system healthy enough to
// serve traffic". A Manager owns one resilient client per registered
// service, polls every health endpoint, aggregates the results into a
// system-wide summary, and exposes a blocking wait used by startup and
// test orchestration to avoid racing not-yet-ready dependencies.
//
// A failed probe is never propagated: it becomes an unhealthy result so
// the monitoring loop cannot crash itself.
package health
