package scheduler

import "time"

// Config controls scheduler intervals and retention windows.
type Config struct {
	RunInterval time.Duration
	// PollLeadTime widens the provider poll to records whose period end
	// is this close, so renewals are picked up before they lapse.
	PollLeadTime        time.Duration
	ExpiryWarningWindow time.Duration
	EventRetentionDays  int
	JobTimeout          time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval:         5 * time.Minute,
		PollLeadTime:        24 * time.Hour,
		ExpiryWarningWindow: 30 * 24 * time.Hour,
		EventRetentionDays:  90,
		JobTimeout:          30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.PollLeadTime <= 0 {
		c.PollLeadTime = defaults.PollLeadTime
	}
	if c.ExpiryWarningWindow <= 0 {
		c.ExpiryWarningWindow = defaults.ExpiryWarningWindow
	}
	if c.EventRetentionDays <= 0 {
		c.EventRetentionDays = defaults.EventRetentionDays
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}
