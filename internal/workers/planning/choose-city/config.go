// internal/workers/planning/choose-city/config.go
package choosecity

import "time"

type Config struct {
	Timeout time.Duration

	// MinActivities is the sample gate: cities with fewer distinct catalog
	// entries are not scored.
	MinActivities int

	// TopCities caps the returned ranking.
	TopCities int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		MinActivities: 20,
		TopCities:     10,
	}
}
