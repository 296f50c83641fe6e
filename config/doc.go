// Package config loads service configuration from YAML files and the
// environment. Files provide the base, .env files layer on top, and
// process environment variables win. Services embed ServiceConfig in
// their own config structs and load them with Load.
package config
