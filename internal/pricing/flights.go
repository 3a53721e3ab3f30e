// internal/pricing/flights.go
package pricing

import (
	"context"
	"fmt"
	"sort"
	"strings"

	commonerrors "fairtrip-workers/internal/common/errors"
)

// FlightQuery describes a round trip for one traveler.
type FlightQuery struct {
	OriginCity      string
	DestinationCity string
	DepartureDate   string // YYYY-MM-DD
	ReturnDate      string // YYYY-MM-DD
}

// FlightOption is one priced round-trip candidate.
type FlightOption struct {
	Price         float64 `json:"price"`
	Airline       string  `json:"airline,omitempty"`
	TotalDuration int     `json:"totalDuration,omitempty"` // minutes
}

// FlightSearcher finds priced flight options for a query.
type FlightSearcher interface {
	SearchFlights(ctx context.Context, query FlightQuery) ([]FlightOption, error)
}

// originAirports maps supported origin cities to their primary airports.
var originAirports = map[string]string{
	"chicago":       "ORD",
	"new york":      "JFK",
	"los angeles":   "LAX",
	"san francisco": "SFO",
	"boston":        "BOS",
	"atlanta":       "ATL",
	"dallas":        "DFW",
	"seattle":       "SEA",
}

// destinationAirports maps catalog cities to their primary airports.
var destinationAirports = map[string]string{
	"philadelphia": "PHL",
	"tucson":       "TUS",
	"tampa":        "TPA",
	"boise":        "BOI",
	"new orleans":  "MSY",
}

// OriginAirport resolves a traveler origin city to an airport code.
func OriginAirport(city string) (string, bool) {
	code, ok := originAirports[strings.ToLower(strings.TrimSpace(city))]
	return code, ok
}

// DestinationAirport resolves a catalog city to an airport code.
func DestinationAirport(city string) (string, bool) {
	code, ok := destinationAirports[strings.ToLower(strings.TrimSpace(city))]
	return code, ok
}

// SerpAPIFlightSearcher queries the google_flights engine.
type SerpAPIFlightSearcher struct {
	client *SerpAPIClient
}

func NewSerpAPIFlightSearcher(client *SerpAPIClient) *SerpAPIFlightSearcher {
	return &SerpAPIFlightSearcher{client: client}
}

type flightsResponse struct {
	BestFlights  []flightEntry `json:"best_flights"`
	OtherFlights []flightEntry `json:"other_flights"`
}

type flightEntry struct {
	Price         float64 `json:"price"`
	TotalDuration int     `json:"total_duration"`
	Flights       []struct {
		Airline string `json:"airline"`
	} `json:"flights"`
}

// SearchFlights returns up to three options sorted by price ascending.
func (s *SerpAPIFlightSearcher) SearchFlights(ctx context.Context, query FlightQuery) ([]FlightOption, error) {
	origin, ok := OriginAirport(query.OriginCity)
	if !ok {
		return nil, fmt.Errorf("unsupported origin city: %s", query.OriginCity)
	}
	destination, ok := DestinationAirport(query.DestinationCity)
	if !ok {
		return nil, fmt.Errorf("unsupported destination city: %s", query.DestinationCity)
	}

	params := map[string]string{
		"departure_id":  origin,
		"arrival_id":    destination,
		"outbound_date": query.DepartureDate,
		"return_date":   query.ReturnDate,
	}

	var resp flightsResponse
	if err := s.client.search(ctx, "google_flights", params, &resp); err != nil {
		return nil, commonerrors.NewFlightSearchFailedError(origin, destination, err)
	}

	entries := append(resp.BestFlights, resp.OtherFlights...)
	options := make([]FlightOption, 0, len(entries))
	for _, entry := range entries {
		if entry.Price <= 0 {
			continue
		}
		option := FlightOption{
			Price:         entry.Price,
			TotalDuration: entry.TotalDuration,
		}
		if len(entry.Flights) > 0 {
			option.Airline = entry.Flights[0].Airline
		}
		options = append(options, option)
	}

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Price < options[j].Price
	})

	if len(options) > 3 {
		options = options[:3]
	}
	return options, nil
}
