package normalizepreferences

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairtrip-workers/internal/common/logger"
	"fairtrip-workers/internal/models"
)

// ==========================
// Weight Normalization Tests
// ==========================

func TestNormalizeWeights_SumsToOne(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]float64
	}{
		{
			name: "typical weights",
			raw:  map[string]float64{"nightlife": 3, "adventure": 1, "food": 6},
		},
		{
			name: "single dimension",
			raw:  map[string]float64{"urban": 10},
		},
		{
			name: "already fractional",
			raw:  map[string]float64{"nightlife": 0.2, "food": 0.8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weights := NormalizeWeights(tt.raw)

			sum := 0.0
			for _, dim := range models.PreferenceDimensions {
				sum += weights[dim]
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}
}

func TestNormalizeWeights_ProportionsPreserved(t *testing.T) {
	weights := NormalizeWeights(map[string]float64{"nightlife": 3, "food": 1})

	assert.InDelta(t, 0.75, weights["nightlife"], 1e-9)
	assert.InDelta(t, 0.25, weights["food"], 1e-9)
	assert.Zero(t, weights["adventure"])
}

func TestNormalizeWeights_AllZeroFallsBackToUniform(t *testing.T) {
	for _, raw := range []map[string]float64{
		nil,
		{},
		{"nightlife": 0, "food": 0},
		{"nightlife": -2, "food": -1},
	} {
		weights := NormalizeWeights(raw)
		for _, dim := range models.PreferenceDimensions {
			assert.InDelta(t, 0.2, weights[dim], 1e-9)
		}
	}
}

func TestNormalizeWeights_IgnoresUnknownDimensions(t *testing.T) {
	weights := NormalizeWeights(map[string]float64{"food": 1, "skydiving": 99})

	assert.InDelta(t, 1.0, weights["food"], 1e-9)
	_, exists := weights["skydiving"]
	assert.False(t, exists)
}

// ==========================
// Execute Tests
// ==========================

func TestExecute_GroupWeightsAreMeanOfNormalized(t *testing.T) {
	handler := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		Travelers: []models.Traveler{
			{ID: "u1", Preferences: map[string]float64{"nightlife": 1}},
			{ID: "u2", Preferences: map[string]float64{"food": 1}},
		},
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, output.NormalizedWeights["u1"]["nightlife"], 1e-9)
	assert.InDelta(t, 1.0, output.NormalizedWeights["u2"]["food"], 1e-9)
	assert.InDelta(t, 0.5, output.GroupWeights["nightlife"], 1e-9)
	assert.InDelta(t, 0.5, output.GroupWeights["food"], 1e-9)
	assert.Zero(t, output.GroupWeights["urban"])
}

func TestExecute_EmptyGroup(t *testing.T) {
	handler := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrEmptyGroup)

	_, err = handler.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyGroup)
}

// ==========================
// Benchmarks
// ==========================

func BenchmarkNormalizeWeights(b *testing.B) {
	raw := map[string]float64{"nightlife": 3, "adventure": 2, "shopping": 1, "food": 5, "urban": 4}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NormalizeWeights(raw)
	}
}
