package events

import (
	"errors"
)

var (
	// ErrInvalidConcurrency is returned when concurrency is not positive
	ErrInvalidConcurrency = errors.New("concurrency must be positive")
	// ErrQueueRequired is returned when no queue name is configured
	ErrQueueRequired = errors.New("queue name is required")
)

// Config contains change event settings. Events are only published when
// Redis is configured.
type Config struct {
	Enabled     bool   `yaml:"enabled" default:"true"`
	Queue       string `yaml:"queue" default:"events"`
	Concurrency int    `yaml:"concurrency" default:"2"`
	MaxRetry    int    `yaml:"maxRetry" default:"3"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Queue == "" {
		return ErrQueueRequired
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	return nil
}
