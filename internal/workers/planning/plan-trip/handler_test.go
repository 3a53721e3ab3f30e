package plantrip

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairtrip-workers/internal/common/logger"
	"fairtrip-workers/internal/models"
	"fairtrip-workers/internal/pricing"
	builditinerary "fairtrip-workers/internal/workers/planning/build-itinerary"
	choosecity "fairtrip-workers/internal/workers/planning/choose-city"
	evaluatefairness "fairtrip-workers/internal/workers/planning/evaluate-fairness"
	normalizepreferences "fairtrip-workers/internal/workers/planning/normalize-preferences"
	rerankactivities "fairtrip-workers/internal/workers/planning/rerank-activities"
	scoreactivities "fairtrip-workers/internal/workers/planning/score-activities"
	selecttravelwindow "fairtrip-workers/internal/workers/planning/select-travel-window"
)

// ==========================
// Test Fixtures
// ==========================

type stubCatalog struct {
	activities []models.Activity
}

func (s *stubCatalog) Name() string { return "stub" }

func (s *stubCatalog) AllActivities(ctx context.Context) ([]models.Activity, error) {
	return s.activities, nil
}

func (s *stubCatalog) ActivitiesByCity(ctx context.Context, city string) ([]models.Activity, error) {
	var out []models.Activity
	for _, a := range s.activities {
		if a.City == city {
			out = append(out, a)
		}
	}
	return out, nil
}

// stubReranker scores the first three candidates for every traveler.
type stubReranker struct{}

func (s *stubReranker) Rerank(ctx context.Context, req rerankactivities.RerankRequest) (*rerankactivities.RerankResponse, error) {
	resp := &rerankactivities.RerankResponse{TravelerID: req.TravelerID, City: req.City}
	for i, scored := range req.Activities {
		if i >= 3 {
			break
		}
		resp.Results = append(resp.Results, rerankactivities.RerankResult{
			BusinessID:    scored.Activity.BusinessID,
			AdjustedScore: float64(8 - i),
			TimeOfDay:     models.SlotEvening,
		})
	}
	return resp, nil
}

type stubFlightSearcher struct {
	price float64
	err   error
}

func (s *stubFlightSearcher) SearchFlights(ctx context.Context, query pricing.FlightQuery) ([]pricing.FlightOption, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []pricing.FlightOption{{Price: s.price, Airline: "Stub Air"}}, nil
}

type stubHotelSearcher struct {
	nightly float64
	err     error
}

func (s *stubHotelSearcher) SearchHotels(ctx context.Context, query pricing.HotelQuery) ([]pricing.HotelOption, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []pricing.HotelOption{{Name: "Stub Suites", Rating: 4.2, NightlyRate: s.nightly}}, nil
}

func tampaCatalog(n int) *stubCatalog {
	activities := make([]models.Activity, 0, n)
	for i := 0; i < n; i++ {
		activities = append(activities, models.Activity{
			BusinessID:  fmt.Sprintf("tampa-%d", i),
			City:        "Tampa",
			Name:        fmt.Sprintf("Tampa venue %d", i),
			Stars:       4.0,
			ReviewCount: 100,
			PriceLevel:  2,
			Tags:        map[string]float64{"nightlife": 0.8, "food": 0.2},
		})
	}
	return &stubCatalog{activities: activities}
}

func traveler(id string, budget float64) models.Traveler {
	return models.Traveler{
		ID:          id,
		OriginCity:  "Chicago",
		Budget:      budget,
		Preferences: map[string]float64{"nightlife": 4, "food": 1},
		Windows:     []models.DateWindow{{Start: "2026-10-01", End: "2026-10-03"}},
	}
}

func newTestHandler(t *testing.T, flights pricing.FlightSearcher, hotels pricing.HotelSearcher) *Handler {
	t.Helper()

	log := logger.NewTestLogger(t)
	source := tampaCatalog(25)
	stages := Stages{
		Normalize: normalizepreferences.NewHandler(normalizepreferences.LoadConfig(), log),
		Window:    selecttravelwindow.NewHandler(selecttravelwindow.LoadConfig(), log),
		City:      choosecity.NewHandler(choosecity.LoadConfig(), source, log),
		Score:     scoreactivities.NewHandler(scoreactivities.LoadConfig(), source, log),
		Rerank:    rerankactivities.NewHandler(rerankactivities.LoadConfig(), &stubReranker{}, log),
		Itinerary: builditinerary.NewHandler(builditinerary.LoadConfig(), log),
		Fairness:  evaluatefairness.NewHandler(evaluatefairness.LoadConfig(), log),
	}
	return NewHandler(LoadConfig(), stages, flights, hotels, log)
}

// ==========================
// Pipeline Tests
// ==========================

func TestExecute_FullPipeline(t *testing.T) {
	handler := newTestHandler(t, &stubFlightSearcher{price: 400}, &stubHotelSearcher{nightly: 200})

	output, err := handler.Execute(context.Background(), &Input{
		Travelers: []models.Traveler{traveler("u1", 2000), traveler("u2", 2000)},
	})
	require.NoError(t, err)

	plan := output.Plan
	assert.NotEmpty(t, plan.RequestID)
	assert.Equal(t, "Tampa", plan.City)
	assert.Equal(t, "2026-10-01", plan.Window.TripStart)
	assert.Equal(t, 2, plan.Window.MemberCount)
	assert.NotEmpty(t, plan.CityRanking)
	assert.NotEmpty(t, plan.Explanation)
	assert.NotEmpty(t, plan.Reranked)

	// 15 candidates fill both days completely.
	require.Len(t, plan.Itinerary, 2)
	assert.Len(t, plan.Itinerary[0].Slots, 3)
	assert.Len(t, plan.Itinerary[1].Slots, 3)

	require.Len(t, output.Pricing, 2)
	assert.Equal(t, 400.0, output.Pricing[0].FlightPrice)
	// Two nights at 200, split across two travelers.
	assert.Equal(t, 200.0, output.Pricing[0].HotelShare)
	assert.False(t, output.Pricing[0].Estimated)
	require.NotNil(t, output.Hotel)
	assert.Equal(t, "Stub Suites", output.Hotel.Name)

	require.Len(t, plan.Fairness.PerPerson, 2)
	// flight 400 + hotel 200 + six tier-2 activities at 30 = 780 per person.
	assert.Equal(t, 780.0, plan.Fairness.PerPerson[0].EstimatedCost)
	assert.Equal(t, "comfortable", plan.Fairness.PerPerson[0].Label)
	assert.Equal(t, 100.0, plan.Fairness.Score)
}

func TestExecute_HalvedBudgetLowersFairness(t *testing.T) {
	handler := newTestHandler(t, &stubFlightSearcher{price: 400}, &stubHotelSearcher{nightly: 200})

	equal, err := handler.Execute(context.Background(), &Input{
		Travelers: []models.Traveler{traveler("u1", 2000), traveler("u2", 2000)},
	})
	require.NoError(t, err)

	halved, err := handler.Execute(context.Background(), &Input{
		Travelers: []models.Traveler{traveler("u1", 2000), traveler("u2", 1000)},
	})
	require.NoError(t, err)

	assert.Greater(t, equal.Plan.Fairness.Score, halved.Plan.Fairness.Score)
}

func TestExecute_SearchFailuresFallBackToEstimates(t *testing.T) {
	handler := newTestHandler(t,
		&stubFlightSearcher{err: fmt.Errorf("quota exceeded")},
		&stubHotelSearcher{err: fmt.Errorf("quota exceeded")},
	)

	output, err := handler.Execute(context.Background(), &Input{
		Travelers: []models.Traveler{traveler("u1", 2000), traveler("u2", 2000)},
	})
	require.NoError(t, err)

	assert.Equal(t, 350.0, output.Pricing[0].FlightPrice)
	// Two nights at the 150 fallback, split two ways.
	assert.Equal(t, 150.0, output.Pricing[0].HotelShare)
	assert.True(t, output.Pricing[0].Estimated)
	assert.Nil(t, output.Hotel)
}

func TestExecute_NilSearchersUseFallbacks(t *testing.T) {
	handler := newTestHandler(t, nil, nil)

	output, err := handler.Execute(context.Background(), &Input{
		Travelers: []models.Traveler{traveler("u1", 2000)},
	})
	require.NoError(t, err)

	assert.Equal(t, 350.0, output.Pricing[0].FlightPrice)
	assert.True(t, output.Pricing[0].Estimated)
}

func TestExecute_NoTravelers(t *testing.T) {
	handler := newTestHandler(t, nil, nil)

	_, err := handler.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestExecute_DistinctRequestIDs(t *testing.T) {
	handler := newTestHandler(t, nil, nil)
	input := &Input{Travelers: []models.Traveler{traveler("u1", 2000)}}

	first, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	second, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.NotEqual(t, first.Plan.RequestID, second.Plan.RequestID)
}

// ==========================
// Helper Tests
// ==========================

func TestNightsBetween(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       int
	}{
		{"two nights", "2026-10-01", "2026-10-03", 2},
		{"one night", "2026-10-01", "2026-10-02", 1},
		{"same day floors to one", "2026-10-01", "2026-10-01", 1},
		{"inverted floors to one", "2026-10-03", "2026-10-01", 1},
		{"unparseable floors to one", "soon", "2026-10-03", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nightsBetween(tt.start, tt.end))
		})
	}
}
