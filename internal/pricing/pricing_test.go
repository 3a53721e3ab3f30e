package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Flight Search Tests
// ==========================

func newFlightServer(t *testing.T, payload string) (*httptest.Server, *http.Request) {
	t.Helper()
	var captured http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = *r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	return server, &captured
}

func TestSerpAPIFlightSearcher_SortsByPriceAndCapsAtThree(t *testing.T) {
	payload := `{
		"best_flights": [
			{"price": 420, "total_duration": 300, "flights": [{"airline": "Delta"}]},
			{"price": 380, "total_duration": 340, "flights": [{"airline": "United"}]}
		],
		"other_flights": [
			{"price": 350, "total_duration": 410, "flights": [{"airline": "Spirit"}]},
			{"price": 510, "total_duration": 280, "flights": [{"airline": "American"}]}
		]
	}`
	server, captured := newFlightServer(t, payload)
	defer server.Close()

	searcher := NewSerpAPIFlightSearcher(NewSerpAPIClient(server.URL, "test-key", 5*time.Second))
	options, err := searcher.SearchFlights(context.Background(), FlightQuery{
		OriginCity:      "Chicago",
		DestinationCity: "Tampa",
		DepartureDate:   "2026-10-01",
		ReturnDate:      "2026-10-03",
	})
	require.NoError(t, err)

	require.Len(t, options, 3)
	assert.Equal(t, 350.0, options[0].Price)
	assert.Equal(t, 380.0, options[1].Price)
	assert.Equal(t, 420.0, options[2].Price)
	assert.Equal(t, "Spirit", options[0].Airline)

	query := captured.URL.Query()
	assert.Equal(t, "google_flights", query.Get("engine"))
	assert.Equal(t, "ORD", query.Get("departure_id"))
	assert.Equal(t, "TPA", query.Get("arrival_id"))
	assert.Equal(t, "2026-10-01", query.Get("outbound_date"))
}

func TestSerpAPIFlightSearcher_UnsupportedCities(t *testing.T) {
	searcher := NewSerpAPIFlightSearcher(NewSerpAPIClient("http://unused", "k", time.Second))

	_, err := searcher.SearchFlights(context.Background(), FlightQuery{
		OriginCity: "Anchorage", DestinationCity: "Tampa",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "origin")

	_, err = searcher.SearchFlights(context.Background(), FlightQuery{
		OriginCity: "Chicago", DestinationCity: "Reykjavik",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "destination")
}

func TestSerpAPIFlightSearcher_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	searcher := NewSerpAPIFlightSearcher(NewSerpAPIClient(server.URL, "k", time.Second))
	_, err := searcher.SearchFlights(context.Background(), FlightQuery{
		OriginCity: "Boston", DestinationCity: "Boise",
		DepartureDate: "2026-10-01", ReturnDate: "2026-10-03",
	})
	assert.Error(t, err)
}

func TestAirportLookups(t *testing.T) {
	code, ok := OriginAirport("  New York ")
	assert.True(t, ok)
	assert.Equal(t, "JFK", code)

	code, ok = DestinationAirport("new orleans")
	assert.True(t, ok)
	assert.Equal(t, "MSY", code)

	_, ok = DestinationAirport("Chicago")
	assert.False(t, ok, "origins are not destinations")
}

// ==========================
// Hotel Search Tests
// ==========================

func TestSerpAPIHotelSearcher_FiltersAndCapsAtFive(t *testing.T) {
	payload := `{
		"properties": [
			{"name": "Grand Plaza", "overall_rating": 4.5, "location": "Downtown", "rate_per_night": {"extracted_lowest": 180}},
			{"name": "Budget Inn", "overall_rating": 3.1, "rate_per_night": {"extracted_lowest": 60}},
			{"name": "Luxury Tower", "overall_rating": 4.9, "rate_per_night": {"extracted_lowest": 620}},
			{"name": "No Rate Lodge", "overall_rating": 4.2, "rate_per_night": {}},
			{"name": "Hotel A", "overall_rating": 4.0, "rate_per_night": {"extracted_lowest": 120}},
			{"name": "Hotel B", "overall_rating": 4.1, "rate_per_night": {"extracted_lowest": 130}},
			{"name": "Hotel C", "overall_rating": 4.2, "rate_per_night": {"extracted_lowest": 140}},
			{"name": "Hotel D", "overall_rating": 4.3, "rate_per_night": {"extracted_lowest": 150}},
			{"name": "Hotel E", "overall_rating": 4.4, "rate_per_night": {"extracted_lowest": 160}}
		]
	}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "google_hotels", r.URL.Query().Get("engine"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	searcher := NewSerpAPIHotelSearcher(NewSerpAPIClient(server.URL, "k", time.Second))
	options, err := searcher.SearchHotels(context.Background(), HotelQuery{
		City:           "Tampa",
		CheckInDate:    "2026-10-01",
		CheckOutDate:   "2026-10-03",
		MinRating:      3.5,
		MaxNightlyRate: 500,
	})
	require.NoError(t, err)

	// Budget Inn (rating), Luxury Tower (price) and No Rate Lodge are dropped,
	// then the list caps at five in provider order.
	require.Len(t, options, 5)
	assert.Equal(t, "Grand Plaza", options[0].Name)
	assert.Equal(t, 180.0, options[0].NightlyRate)
	assert.Equal(t, "Hotel D", options[4].Name)
}

func TestSerpAPIHotelSearcher_EmptyProperties(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"properties": []}`))
	}))
	defer server.Close()

	searcher := NewSerpAPIHotelSearcher(NewSerpAPIClient(server.URL, "k", time.Second))
	options, err := searcher.SearchHotels(context.Background(), HotelQuery{City: "Boise"})
	require.NoError(t, err)
	assert.Empty(t, options)
}
