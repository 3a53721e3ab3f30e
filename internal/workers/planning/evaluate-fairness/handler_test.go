package evaluatefairness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairtrip-workers/internal/common/logger"
)

// ==========================
// Test Fixtures
// ==========================

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	return NewHandler(LoadConfig(), logger.NewTestLogger(t))
}

// costWithRatio builds a traveler whose cost-to-budget ratio is exactly r.
func costWithRatio(id string, r float64) TravelerCost {
	return TravelerCost{
		TravelerID:  id,
		Budget:      1000,
		FlightPrice: r * 1000,
	}
}

// ==========================
// Label Tests
// ==========================

func TestAffordabilityLabel_Brackets(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
		want  string
	}{
		{"well under budget", 0.3, "comfortable"},
		{"exactly at comfortable boundary", 0.6, "comfortable"},
		{"just past comfortable boundary", 0.61, "stretch"},
		{"exactly at stretch boundary", 1.0, "stretch"},
		{"into risky", 1.15, "risky"},
		{"exactly at risky boundary", 1.3, "risky"},
		{"over budget", 1.31, "not_recommended"},
		{"far over budget", 3.0, "not_recommended"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, affordabilityLabel(tt.ratio))
		})
	}
}

// ==========================
// Evaluate Tests
// ==========================

func TestEvaluate_UniformHalfBudgetScoresHundred(t *testing.T) {
	// Every traveler at ratio 0.5 with zero variance maxes both components.
	report, err := Evaluate([]TravelerCost{
		costWithRatio("u1", 0.5),
		costWithRatio("u2", 0.5),
		costWithRatio("u3", 0.5),
	})
	require.NoError(t, err)

	assert.Equal(t, 100.0, report.Score)
	assert.Equal(t, 1.0, report.Affordability)
	assert.Equal(t, 1.0, report.Equality)
	assert.Equal(t, 0.5, report.MeanRatio)
	assert.Equal(t, 0.0, report.StdRatio)
}

func TestEvaluate_PerPersonBreakdown(t *testing.T) {
	report, err := Evaluate([]TravelerCost{
		{TravelerID: "u1", Budget: 2000, FlightPrice: 400, HotelShare: 300, ActivitiesSpend: 100},
	})
	require.NoError(t, err)

	require.Len(t, report.PerPerson, 1)
	person := report.PerPerson[0]
	assert.Equal(t, "u1", person.TravelerID)
	assert.Equal(t, 800.0, person.EstimatedCost)
	assert.Equal(t, 0.4, person.CostRatio)
	assert.Equal(t, "comfortable", person.Label)
}

func TestEvaluate_DisplayRatioUncappedAggregatesCapped(t *testing.T) {
	// Ratio 3.0 shows as 3.0 per person but counts as 2.0 in the mean.
	report, err := Evaluate([]TravelerCost{
		costWithRatio("u1", 3.0),
	})
	require.NoError(t, err)

	assert.Equal(t, 3.0, report.PerPerson[0].CostRatio)
	assert.Equal(t, "not_recommended", report.PerPerson[0].Label)
	assert.Equal(t, 2.0, report.MeanRatio)
	assert.Equal(t, 0.0, report.Affordability)
}

func TestEvaluate_AffordabilityInterpolation(t *testing.T) {
	// Mean ratio 1.0 sits halfway between the 0.6 and 1.4 anchors.
	report, err := Evaluate([]TravelerCost{
		costWithRatio("u1", 1.0),
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, report.Affordability, 1e-9)
	assert.Equal(t, 1.0, report.Equality)
	// 100 * (0.6*0.5 + 0.4*1.0) = 70.0
	assert.Equal(t, 70.0, report.Score)
}

func TestEvaluate_UnequalSpendLowersEquality(t *testing.T) {
	// Ratios 0.2 and 0.7 give population std 0.25, zeroing equality.
	report, err := Evaluate([]TravelerCost{
		costWithRatio("u1", 0.2),
		costWithRatio("u2", 0.7),
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, report.Equality)
	assert.Equal(t, 1.0, report.Affordability)
	assert.Equal(t, 60.0, report.Score)
}

func TestEvaluate_HalvingOneBudgetLowersScore(t *testing.T) {
	equal := []TravelerCost{
		{TravelerID: "u1", Budget: 1000, FlightPrice: 500},
		{TravelerID: "u2", Budget: 1000, FlightPrice: 500},
	}
	halved := []TravelerCost{
		{TravelerID: "u1", Budget: 1000, FlightPrice: 500},
		{TravelerID: "u2", Budget: 500, FlightPrice: 500},
	}

	equalReport, err := Evaluate(equal)
	require.NoError(t, err)
	halvedReport, err := Evaluate(halved)
	require.NoError(t, err)

	assert.Greater(t, equalReport.Score, halvedReport.Score)
}

func TestEvaluate_MissingBudget(t *testing.T) {
	_, err := Evaluate([]TravelerCost{
		{TravelerID: "u1", Budget: 0, FlightPrice: 500},
	})
	assert.ErrorIs(t, err, ErrMissingBudget)

	_, err = Evaluate([]TravelerCost{
		{TravelerID: "u1", Budget: -100, FlightPrice: 500},
	})
	assert.ErrorIs(t, err, ErrMissingBudget)
}

// ==========================
// Handler Tests
// ==========================

func TestExecute_EmptyGroup(t *testing.T) {
	handler := newTestHandler(t)

	_, err := handler.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrEmptyGroup)

	_, err = handler.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyGroup)
}

func TestExecute_ProducesReport(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Costs: []TravelerCost{
			costWithRatio("u1", 0.5),
			costWithRatio("u2", 0.5),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, output.Fairness.Score)
	assert.Len(t, output.Fairness.PerPerson, 2)
}
