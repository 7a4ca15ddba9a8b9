package catalog

import "errors"

var (
	// ErrFixturesPathRequired is returned when no fixture directory is configured
	ErrFixturesPathRequired = errors.New("fixtures path is required")
)

// Config defines where the catalog fixtures are read from
type Config struct {
	Path string `yaml:"path" default:"fixtures"`
}

// SetDefaults fills the fixture path when it is empty
func (c *Config) SetDefaults() {
	if c.Path == "" {
		c.Path = "fixtures"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Path == "" {
		return ErrFixturesPathRequired
	}

	return nil
}
