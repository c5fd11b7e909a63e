package sweeper

import "time"

// Config controls sweep cadence. RefreshInterval is the client-side throttle
// window; SweepTimeout bounds a single run; LockTTL covers the optional
// cross-instance lock.
type Config struct {
	RefreshInterval time.Duration
	SweepTimeout    time.Duration
	LockTTL         time.Duration
}

func (c Config) withDefaults() Config {
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 5 * time.Minute
	}
	if c.SweepTimeout <= 0 {
		c.SweepTimeout = 30 * time.Second
	}
	if c.LockTTL <= 0 {
		c.LockTTL = time.Minute
	}
	return c
}
