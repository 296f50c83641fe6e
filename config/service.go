package config

import (
	"fmt"

	"github.com/answerline/svckit/health"
	"github.com/answerline/svckit/logger"
	"github.com/answerline/svckit/registry"
)

// ServiceConfig contains the fields every service needs. Projects
// extend it by embedding:
//
//	type MyConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Queue queue.Config `yaml:"queue" mapstructure:"queue"`
//	}
type ServiceConfig struct {
	Name        string          `yaml:"name" mapstructure:"name"`
	Environment string          `yaml:"environment" mapstructure:"environment"`
	Version     string          `yaml:"version" mapstructure:"version"`
	Debug       bool            `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config   `yaml:"logging" mapstructure:"logging"`
	Registry    registry.Config `yaml:"registry" mapstructure:"registry"`
	Health      health.Config   `yaml:"health" mapstructure:"health"`
}

// GetServiceConfig returns the base ServiceConfig. When embedded in a
// larger struct, promotion lets the embedding struct satisfy the
// loader's expectations without extra code.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults fills zero-valued fields. Embedding structs override
// this and call c.ServiceConfig.ApplyDefaults() first.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	c.Logging.ApplyDefaults()
	if c.Debug && c.Logging.Level == "info" {
		c.Logging.Level = "debug"
	}
	if c.Health == (health.Config{}) {
		c.Health = health.DefaultConfig()
	}
}

// Validate checks the base configuration fields. Embedding structs
// override this and call c.ServiceConfig.Validate() first.
func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	switch c.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("config.environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if c.Registry.Environment != "" && !c.Registry.Environment.Valid() {
		return fmt.Errorf("config.registry.environment %q is not a known topology", c.Registry.Environment)
	}
	return nil
}
