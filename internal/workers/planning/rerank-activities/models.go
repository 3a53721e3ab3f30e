// internal/workers/planning/rerank-activities/models.go
package rerankactivities

import "fairtrip-workers/internal/models"

type Input struct {
	City       string                  `json:"city"`
	Travelers  []models.Traveler       `json:"travelers"`
	Activities []models.ScoredActivity `json:"activities"`

	// Weights carries the per-traveler normalized preference vectors produced
	// upstream. Travelers missing from it get normalized locally.
	Weights map[string]map[string]float64 `json:"normalizedWeights,omitempty"`
}

type Output struct {
	Reranked []models.RerankedActivity `json:"reranked"`
	Summary  Summary                   `json:"summary"`

	// SkippedTravelers lists travelers whose re-rank call failed and whose
	// results were dropped.
	SkippedTravelers []string `json:"skippedTravelers,omitempty"`
}

type Summary struct {
	TotalActivities  int            `json:"totalActivities"`
	ScoreRange       ScoreRange     `json:"scoreRange"`
	TimeDistribution map[string]int `json:"timeDistribution"`
}

type ScoreRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}
