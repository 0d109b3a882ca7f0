package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	schoolDefaultURLVar = "SGO_DEFAULT_URL"
	schoolRegionsVar    = "SGO_REGIONS"
	upstreamTimeoutVar  = "UPSTREAM_TIMEOUT"
)

// SchoolConfig describes the school system instances the relay talks to.
type SchoolConfig interface {
	GetSchoolDefaultURL() string
	GetSchoolRegions() map[string]string
	GetUpstreamTimeout() time.Duration
}

type School struct{}

var _ SchoolConfig = School{}

var defaultRegions = map[string]string{
	"msk": "https://sgo.mos.ru",
	"spb": "https://sgo.spb.ru",
}

func (School) GetSchoolDefaultURL() string {
	return strings.TrimSuffix(GetEnv(schoolDefaultURLVar, "https://sgo.rso23.ru"), "/")
}

// GetSchoolRegions returns the region code to base URL map. SGO_REGIONS
// ("msk=https://sgo.mos.ru,spb=https://sgo.spb.ru") replaces the defaults.
func (School) GetSchoolRegions() map[string]string {
	regions, err := parseRegions(GetEnv(schoolRegionsVar, ""))
	if err != nil || len(regions) == 0 {
		out := make(map[string]string, len(defaultRegions))
		for k, v := range defaultRegions {
			out[k] = v
		}
		return out
	}
	return regions
}

func (School) GetUpstreamTimeout() time.Duration {
	return GetEnvDuration(upstreamTimeoutVar, 15*time.Second)
}

func parseRegions(raw string) (map[string]string, error) {
	regions := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, url, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(code) == "" || strings.TrimSpace(url) == "" {
			return nil, fmt.Errorf("region entry %q must look like code=url", pair)
		}
		regions[strings.TrimSpace(code)] = strings.TrimSuffix(strings.TrimSpace(url), "/")
	}
	return regions, nil
}
