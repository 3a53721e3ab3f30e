// internal/workers/planning/evaluate-fairness/config.go
package evaluatefairness

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
