// internal/workers/planning/choose-city/models.go
package choosecity

import "fairtrip-workers/internal/models"

type Input struct {
	// GroupWeights is the normalized group preference vector.
	GroupWeights map[string]float64 `json:"groupWeights"`
}

type Output struct {
	SelectedCity string             `json:"selectedCity"`
	Explanation  string             `json:"explanation"`
	Ranking      []models.CityScore `json:"ranking"`
}
