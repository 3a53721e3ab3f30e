// internal/workers/planning/evaluate-fairness/models.go
package evaluatefairness

import "fairtrip-workers/internal/models"

// TravelerCost is one traveler's budget and estimated trip cost components.
type TravelerCost struct {
	TravelerID      string  `json:"travelerId"`
	Budget          float64 `json:"budget"`
	FlightPrice     float64 `json:"flightPrice"`
	HotelShare      float64 `json:"hotelShare"`
	ActivitiesSpend float64 `json:"activitiesSpend"`
}

type Input struct {
	Costs []TravelerCost `json:"costs"`
}

type Output struct {
	Fairness models.FairnessReport `json:"fairness"`
}
