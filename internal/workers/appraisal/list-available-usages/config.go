// internal/workers/appraisal/list-available-usages/config.go
package listavailableusages

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
