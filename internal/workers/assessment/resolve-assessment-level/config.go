// internal/workers/assessment/resolve-assessment-level/config.go
package resolveassessmentlevel

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
