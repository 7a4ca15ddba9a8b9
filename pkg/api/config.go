// Package api provides the REST API over the metric catalog
package api

import "errors"

var (
	// ErrAPIAddrRequired is returned when API is enabled but no address is configured
	ErrAPIAddrRequired = errors.New("api address is required when API is enabled")
	// ErrInvalidCORSOrigin is returned for blank entries in corsOrigins
	ErrInvalidCORSOrigin = errors.New("cors origin must not be empty")
)

// Config represents API service configuration
type Config struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Addr    string `yaml:"addr" default:":8080"`
	// CORSOrigins lists the browser origins allowed to call the API, all when empty
	CORSOrigins []string `yaml:"corsOrigins"`
	// AccessLog writes one line per request to stdout
	AccessLog bool `yaml:"accessLog" default:"true"`
	// ProfileTemplate optionally replaces the built-in metric profile layout
	ProfileTemplate string `yaml:"profileTemplate"`
}

// Validate validates the API configuration
func (c *Config) Validate() error {
	if c.Enabled && c.Addr == "" {
		return ErrAPIAddrRequired
	}

	for _, origin := range c.CORSOrigins {
		if origin == "" {
			return ErrInvalidCORSOrigin
		}
	}

	return nil
}

func (c *Config) allowedOrigins() []string {
	if len(c.CORSOrigins) == 0 {
		return []string{"*"}
	}

	return c.CORSOrigins
}
