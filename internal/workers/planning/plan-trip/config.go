// internal/workers/planning/plan-trip/config.go
package plantrip

import "time"

type Config struct {
	Timeout time.Duration

	// Fallback prices used when a live search fails or returns nothing.
	FallbackFlightPrice float64
	FallbackNightlyRate float64

	// Hotel search filters.
	MinHotelRating float64
	MaxNightlyRate float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:             120 * time.Second,
		FallbackFlightPrice: 350,
		FallbackNightlyRate: 150,
		MinHotelRating:      3.5,
	}
}
