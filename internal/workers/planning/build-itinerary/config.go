// internal/workers/planning/build-itinerary/config.go
package builditinerary

import "time"

type Config struct {
	Timeout time.Duration

	// Days and SlotsPerDay shape the schedule grid.
	Days        int
	SlotsPerDay int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     30 * time.Second,
		Days:        2,
		SlotsPerDay: 3,
	}
}
