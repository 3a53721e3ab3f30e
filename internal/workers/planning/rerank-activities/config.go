// internal/workers/planning/rerank-activities/config.go
package rerankactivities

import "time"

type Config struct {
	GenAIBaseURL string
	Model        string
	Timeout      time.Duration

	// PerCallActivityCap bounds the payload sent per traveler.
	PerCallActivityCap int

	// PerTravelerCap and GlobalCap bound the merged result.
	PerTravelerCap int
	GlobalCap      int

	// Concurrency bounds how many traveler calls run at once.
	Concurrency int
}

func LoadConfig() *Config {
	return &Config{
		GenAIBaseURL:       "http://localhost:8090",
		Timeout:            60 * time.Second,
		PerCallActivityCap: 15,
		PerTravelerCap:     10,
		GlobalCap:          20,
		Concurrency:        8,
	}
}
