// internal/workers/planning/score-activities/models.go
package scoreactivities

import "fairtrip-workers/internal/models"

type Input struct {
	City string `json:"city"`

	// TravelerWeights maps traveler ID to a normalized weight vector.
	TravelerWeights map[string]map[string]float64 `json:"travelerWeights"`

	// TopK overrides the configured cap when positive.
	TopK int `json:"topK,omitempty"`
}

type Output struct {
	City       string                  `json:"city"`
	Activities []models.ScoredActivity `json:"activities"`
}
