// Package worker runs background jobs for DataMatch: recomputing cached
// suggestions when profiles change and on a schedule.
package worker

import (
	"time"
)

// RefreshConfig holds configuration for the suggestion refresh job.
type RefreshConfig struct {
	// Concurrency is the number of profiles refreshed in parallel.
	// Default: 4
	Concurrency int

	// Timeout bounds the refresh of a single profile.
	// Default: 30 seconds
	Timeout time.Duration

	// Schedule is the cron expression for full refreshes. Empty disables
	// the scheduled run.
	// Default: every six hours
	Schedule string
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Concurrency: 4,
		Timeout:     30 * time.Second,
		Schedule:    "0 */6 * * *",
	}
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	def := DefaultRefreshConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
