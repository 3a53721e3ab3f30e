// internal/workers/planning/plan-trip/models.go
package plantrip

import (
	"fairtrip-workers/internal/models"
	"fairtrip-workers/internal/pricing"
)

type Input struct {
	Travelers []models.Traveler `json:"travelers"`

	// TopK overrides the activity shortlist size when positive.
	TopK int `json:"topK,omitempty"`
}

// TravelerPricing is what one traveler is estimated to pay.
type TravelerPricing struct {
	TravelerID  string                 `json:"travelerId"`
	FlightPrice float64                `json:"flightPrice"`
	HotelShare  float64                `json:"hotelShare"`
	Flights     []pricing.FlightOption `json:"flights,omitempty"`

	// Estimated marks prices backed by a fallback rather than a live quote.
	Estimated bool `json:"estimated,omitempty"`
}

type Output struct {
	Plan    models.TripPlan      `json:"plan"`
	Pricing []TravelerPricing    `json:"pricing"`
	Hotel   *pricing.HotelOption `json:"hotel,omitempty"`
}
