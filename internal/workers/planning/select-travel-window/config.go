// internal/workers/planning/select-travel-window/config.go
package selecttravelwindow

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
