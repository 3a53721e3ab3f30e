// internal/workers/planning/normalize-preferences/config.go
package normalizepreferences

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
