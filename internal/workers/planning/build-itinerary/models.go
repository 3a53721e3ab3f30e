// internal/workers/planning/build-itinerary/models.go
package builditinerary

import "fairtrip-workers/internal/models"

type Input struct {
	City string `json:"city"`

	// Reranked carries per-traveler adjusted scores from the re-rank stage.
	// May be empty when every traveler's call was skipped.
	Reranked []models.RerankedActivity `json:"reranked"`

	// Scored is the value-scored candidate list; activities without a
	// re-ranked row fall back to their group value ordering.
	Scored []models.ScoredActivity `json:"scored"`
}

type Output struct {
	City      string                `json:"city"`
	Itinerary []models.ItineraryDay `json:"itinerary"`

	// ScheduledCount is how many distinct activities got a slot.
	ScheduledCount int `json:"scheduledCount"`
}
