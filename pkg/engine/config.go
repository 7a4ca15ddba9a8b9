// Package engine wires the DataSage catalog services together
package engine

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/ethpandaops/datasage/pkg/api"
	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/ethpandaops/datasage/pkg/events"
	"github.com/ethpandaops/datasage/pkg/redis"
	"github.com/ethpandaops/datasage/pkg/scheduler"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config represents the complete engine configuration
type Config struct {
	// Core settings
	Logging         string `yaml:"logging" default:"info" validate:"oneof=panic fatal warn info debug trace"`
	MetricsAddr     string `yaml:"metricsAddr" default:":9091"`
	HealthCheckAddr string `yaml:"healthCheckAddr"`
	PProfAddr       string `yaml:"pprofAddr"`

	// Fixture catalog
	Catalog catalog.Config `yaml:"catalog"`

	// Optional Redis backing for heat counters and change events
	Redis redis.Config `yaml:"redis"`

	Events    events.Config    `yaml:"events"`
	Scheduler scheduler.Config `yaml:"scheduler"`

	// API service configuration
	API api.Config `yaml:"api"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Logging); err != nil {
		return fmt.Errorf("invalid logging level: %w", err)
	}

	if err := c.Catalog.Validate(); err != nil {
		return err
	}

	if err := c.Redis.Validate(); err != nil {
		return err
	}

	if err := c.Events.Validate(); err != nil {
		return err
	}

	if err := c.Scheduler.Validate(); err != nil {
		return err
	}

	return c.API.Validate()
}

// LoadConfig reads a YAML config file on top of the struct defaults. A
// missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	yamlFile, err := os.ReadFile(path) //nolint:gosec // User-provided config file path
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}

		return nil, err
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return config, nil
}
