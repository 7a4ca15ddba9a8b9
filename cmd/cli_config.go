package cmd

import (
	"os"

	"github.com/creasty/defaults"
	"github.com/ethpandaops/datasage/pkg/catalog"
	"gopkg.in/yaml.v3"
)

// CLIConfig represents the part of the configuration the offline metric
// commands need
type CLIConfig struct {
	// Logging level
	Logging string `yaml:"logging" default:"error" validate:"oneof=panic fatal warn info debug trace"`

	// Fixture catalog
	Catalog catalog.Config `yaml:"catalog"`

	// Profile layout override, shared with the API
	API struct {
		ProfileTemplate string `yaml:"profileTemplate"`
	} `yaml:"api,omitempty"`
}

// Validate validates the CLI configuration
func (c *CLIConfig) Validate() error {
	return c.Catalog.Validate()
}

// LoadCLIConfig loads CLI configuration from a YAML file
func LoadCLIConfig(path string) (*CLIConfig, error) {
	if path == "" {
		path = "config.yaml"
	}

	config := &CLIConfig{}

	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	// Try to read the file, but allow it to not exist
	yamlFile, err := os.ReadFile(path) //nolint:gosec // User-provided config file path
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, err
	}

	return config, nil
}
