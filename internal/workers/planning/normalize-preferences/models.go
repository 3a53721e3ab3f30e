// internal/workers/planning/normalize-preferences/models.go
package normalizepreferences

import "fairtrip-workers/internal/models"

type Input struct {
	Travelers []models.Traveler `json:"travelers"`
}

type Output struct {
	// NormalizedWeights maps traveler ID to a weight vector over the fixed
	// preference dimensions, each summing to 1.0.
	NormalizedWeights map[string]map[string]float64 `json:"normalizedWeights"`

	// GroupWeights is the unweighted mean of the normalized vectors.
	GroupWeights map[string]float64 `json:"groupWeights"`
}
