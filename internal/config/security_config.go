package config

import "time"

const (
	sessionMaxAgeVar        = "SESSION_MAX_AGE"
	sessionIdleTimeoutVar   = "SESSION_IDLE_TIMEOUT"
	sessionSweepIntervalVar = "SESSION_SWEEP_INTERVAL"
)

type SecurityConfig interface {
	GetMaxSessionAge() time.Duration
	GetSessionIdleTimeout() time.Duration
	GetSessionSweepInterval() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetMaxSessionAge() time.Duration {
	return GetEnvDuration(sessionMaxAgeVar, 24*time.Hour)
}

func (Security) GetSessionIdleTimeout() time.Duration {
	return GetEnvDuration(sessionIdleTimeoutVar, 2*time.Hour)
}

// GetSessionSweepInterval also drives the pending authorization sweep.
func (Security) GetSessionSweepInterval() time.Duration {
	return GetEnvDuration(sessionSweepIntervalVar, time.Minute)
}
