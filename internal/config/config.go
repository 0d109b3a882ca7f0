package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SecurityConfig
	SchoolConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetBaseURL() string
	GetFrontendURL() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Security
	School
}

func New() Config {
	return mainConfig{}
}

// Load reads an optional .env file into the process environment and checks
// that every duration variable parses.
func Load() (Config, error) {
	_ = godotenv.Load()

	for _, v := range durationVars {
		raw := GetEnv(v, "")
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", v, err)
		}
		if d < 0 || (d == 0 && !zeroDisables[v]) {
			return nil, fmt.Errorf("invalid %s: %s is not a positive duration", v, raw)
		}
	}
	if _, err := parseRegions(GetEnv(schoolRegionsVar, "")); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", schoolRegionsVar, err)
	}
	return New(), nil
}

var durationVars = []string{
	authStateTimeoutVar,
	sessionMaxAgeVar,
	sessionIdleTimeoutVar,
	sessionSweepIntervalVar,
	upstreamTimeoutVar,
}

// zeroDisables lists the durations for which 0 turns the limit off.
var zeroDisables = map[string]bool{
	sessionMaxAgeVar:      true,
	sessionIdleTimeoutVar: true,
}
