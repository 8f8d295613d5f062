// internal/workers/appraisal/compute-appraisal/config.go
package computeappraisal

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
