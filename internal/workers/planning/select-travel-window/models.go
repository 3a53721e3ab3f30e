// internal/workers/planning/select-travel-window/models.go
package selecttravelwindow

import "fairtrip-workers/internal/models"

type Input struct {
	Travelers []models.Traveler `json:"travelers"`
}

type Output struct {
	Window models.TravelWindow `json:"window"`
}
