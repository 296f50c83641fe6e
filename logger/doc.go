// Package logger provides structured logging for the resilience layer
// built on zerolog. Loggers are plain values that can be tagged with a
// component name and enriched with per-call fields such as request IDs
// and call durations.
package logger
