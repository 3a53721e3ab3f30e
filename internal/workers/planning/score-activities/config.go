// internal/workers/planning/score-activities/config.go
package scoreactivities

import "time"

type Config struct {
	Timeout time.Duration

	// MinStars and MinReviews are the quality gates.
	MinStars   float64
	MinReviews int

	// TopK caps the returned list.
	TopK int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    30 * time.Second,
		MinStars:   3.5,
		MinReviews: 30,
		TopK:       15,
	}
}
