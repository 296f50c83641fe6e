// Package registry maps logical service names to network locations.
//
// The deployment topology (development, docker, kubernetes) is detected
// once at construction and selects the host-resolution strategy used for
// every endpoint registered without an explicit host. The registry holds
// no network state; it is pure lookup and configuration.
package registry
