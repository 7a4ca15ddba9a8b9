// Package scheduler periodically restores the catalog from its fixtures
package scheduler

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

var (
	// ErrScheduleRequired is returned when the scheduler is enabled without a schedule
	ErrScheduleRequired = errors.New("reset schedule is required when the scheduler is enabled")
)

// Config defines the demo reset schedule
type Config struct {
	Enabled       bool   `yaml:"enabled" default:"false"`
	ResetSchedule string `yaml:"resetSchedule" default:"@every 24h"`
}

// Validate checks if the scheduler configuration is valid
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.ResetSchedule == "" {
		return ErrScheduleRequired
	}

	if _, err := cron.ParseStandard(c.ResetSchedule); err != nil {
		return fmt.Errorf("invalid reset schedule %q: %w", c.ResetSchedule, err)
	}

	return nil
}
