package rerankactivities

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairtrip-workers/internal/common/logger"
	"fairtrip-workers/internal/models"
)

// ==========================
// Test Fixtures
// ==========================

// stubReranker returns canned responses keyed by traveler ID.
type stubReranker struct {
	mu        sync.Mutex
	responses map[string]*RerankResponse
	errs      map[string]error
	requests  []RerankRequest
}

func (s *stubReranker) Rerank(ctx context.Context, req RerankRequest) (*RerankResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if err, ok := s.errs[req.TravelerID]; ok {
		return nil, err
	}
	if resp, ok := s.responses[req.TravelerID]; ok {
		return resp, nil
	}
	return &RerankResponse{TravelerID: req.TravelerID, City: req.City}, nil
}

func scoredActivities(n int) []models.ScoredActivity {
	out := make([]models.ScoredActivity, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.ScoredActivity{
			Activity: models.Activity{
				BusinessID: fmt.Sprintf("b%d", i),
				City:       "Tampa",
				Name:       fmt.Sprintf("venue %d", i),
			},
			GroupValue: float64(n - i),
		})
	}
	return out
}

func result(id string, score float64, slot string) RerankResult {
	return RerankResult{BusinessID: id, AdjustedScore: score, TimeOfDay: slot}
}

func newTestHandler(t *testing.T, reranker Reranker) *Handler {
	t.Helper()
	return NewHandler(LoadConfig(), reranker, logger.NewTestLogger(t))
}

// ==========================
// Execute Tests
// ==========================

func TestExecute_MergesTravelerResults(t *testing.T) {
	reranker := &stubReranker{
		responses: map[string]*RerankResponse{
			"u1": {TravelerID: "u1", Results: []RerankResult{
				result("b0", 9.2, "evening"),
				result("b1", 7.0, "morning"),
			}},
			"u2": {TravelerID: "u2", Results: []RerankResult{
				result("b2", 8.1, "afternoon"),
			}},
		},
	}
	handler := newTestHandler(t, reranker)

	output, err := handler.Execute(context.Background(), &Input{
		City:       "Tampa",
		Travelers:  []models.Traveler{{ID: "u1"}, {ID: "u2"}},
		Activities: scoredActivities(5),
	})
	require.NoError(t, err)

	require.Len(t, output.Reranked, 3)
	assert.Equal(t, "b0", output.Reranked[0].BusinessID)
	assert.Equal(t, 9.2, output.Reranked[0].AdjustedScore)
	assert.Equal(t, "b2", output.Reranked[1].BusinessID)
	assert.Equal(t, "venue 0", output.Reranked[0].Name)
	assert.Empty(t, output.SkippedTravelers)

	assert.Equal(t, 3, output.Summary.TotalActivities)
	assert.Equal(t, 7.0, output.Summary.ScoreRange.Min)
	assert.Equal(t, 9.2, output.Summary.ScoreRange.Max)
	assert.Equal(t, 1, output.Summary.TimeDistribution["morning"])
	assert.Equal(t, 1, output.Summary.TimeDistribution["evening"])
}

func TestExecute_FailedTravelerSkippedOthersSurvive(t *testing.T) {
	reranker := &stubReranker{
		responses: map[string]*RerankResponse{
			"u2": {TravelerID: "u2", Results: []RerankResult{result("b0", 6.5, "morning")}},
		},
		errs: map[string]error{"u1": ErrRerankTimeout},
	}
	handler := newTestHandler(t, reranker)

	output, err := handler.Execute(context.Background(), &Input{
		City:       "Tampa",
		Travelers:  []models.Traveler{{ID: "u1"}, {ID: "u2"}},
		Activities: scoredActivities(3),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"u1"}, output.SkippedTravelers)
	require.Len(t, output.Reranked, 1)
	assert.Equal(t, "u2", output.Reranked[0].TravelerID)
}

func TestExecute_AllTravelersFailedYieldsEmptyResult(t *testing.T) {
	reranker := &stubReranker{
		errs: map[string]error{"u1": ErrRerankMalformed, "u2": ErrRerankFailed},
	}
	handler := newTestHandler(t, reranker)

	output, err := handler.Execute(context.Background(), &Input{
		City:       "Tampa",
		Travelers:  []models.Traveler{{ID: "u1"}, {ID: "u2"}},
		Activities: scoredActivities(3),
	})
	require.NoError(t, err)

	assert.Empty(t, output.Reranked)
	assert.Len(t, output.SkippedTravelers, 2)
	assert.Equal(t, 0, output.Summary.TotalActivities)
}

func TestExecute_PayloadCappedAtFifteen(t *testing.T) {
	reranker := &stubReranker{}
	handler := newTestHandler(t, reranker)

	_, err := handler.Execute(context.Background(), &Input{
		City:       "Tampa",
		Travelers:  []models.Traveler{{ID: "u1"}},
		Activities: scoredActivities(40),
	})
	require.NoError(t, err)

	require.Len(t, reranker.requests, 1)
	assert.Len(t, reranker.requests[0].Activities, 15)
}

func TestExecute_PerTravelerAndGlobalCaps(t *testing.T) {
	// One traveler returning 15 rows keeps 10; three travelers keep 20 total.
	manyResults := func() []RerankResult {
		rows := make([]RerankResult, 0, 15)
		for i := 0; i < 15; i++ {
			rows = append(rows, result(fmt.Sprintf("b%d", i), float64(i), "evening"))
		}
		return rows
	}

	reranker := &stubReranker{
		responses: map[string]*RerankResponse{
			"u1": {TravelerID: "u1", Results: manyResults()},
			"u2": {TravelerID: "u2", Results: manyResults()},
			"u3": {TravelerID: "u3", Results: manyResults()},
		},
	}
	handler := newTestHandler(t, reranker)

	output, err := handler.Execute(context.Background(), &Input{
		City:       "Tampa",
		Travelers:  []models.Traveler{{ID: "u1"}, {ID: "u2"}, {ID: "u3"}},
		Activities: scoredActivities(15),
	})
	require.NoError(t, err)

	assert.Len(t, output.Reranked, 20)

	perTraveler := make(map[string]int)
	for _, row := range output.Reranked {
		perTraveler[row.TravelerID]++
	}
	for id, count := range perTraveler {
		assert.LessOrEqual(t, count, 10, "traveler %s exceeds cap", id)
	}
}

func TestExecute_ScoresClampedAndHallucinationsDropped(t *testing.T) {
	reranker := &stubReranker{
		responses: map[string]*RerankResponse{
			"u1": {TravelerID: "u1", Results: []RerankResult{
				result("b0", 14.0, "evening"),   // above range
				result("b1", -3.0, "morning"),   // below range
				result("ghost", 9.9, "evening"), // not a candidate
				result("b0", 5.0, "morning"),    // duplicate
			}},
		},
	}
	handler := newTestHandler(t, reranker)

	output, err := handler.Execute(context.Background(), &Input{
		City:       "Tampa",
		Travelers:  []models.Traveler{{ID: "u1"}},
		Activities: scoredActivities(3),
	})
	require.NoError(t, err)

	require.Len(t, output.Reranked, 2)
	assert.Equal(t, 10.0, output.Reranked[0].AdjustedScore)
	assert.Equal(t, 0.0, output.Reranked[1].AdjustedScore)
}

func TestExecute_RequestCarriesTravelerProfile(t *testing.T) {
	reranker := &stubReranker{}
	handler := newTestHandler(t, reranker)

	_, err := handler.Execute(context.Background(), &Input{
		City: "Tampa",
		Travelers: []models.Traveler{{
			ID:          "u1",
			Budget:      900,
			Notes:       "vegetarian, wants rooftop views",
			Preferences: map[string]float64{"nightlife": 4, "food": 1},
		}},
		Activities: scoredActivities(3),
	})
	require.NoError(t, err)

	require.Len(t, reranker.requests, 1)
	req := reranker.requests[0]
	assert.Equal(t, 900.0, req.Budget)
	assert.Equal(t, "vegetarian, wants rooftop views", req.Notes)

	// Raw scores get normalized when no upstream vector is supplied.
	assert.InDelta(t, 0.8, req.Preferences["nightlife"], 1e-9)
	assert.InDelta(t, 0.2, req.Preferences["food"], 1e-9)
}

func TestExecute_UpstreamWeightsWinOverRawScores(t *testing.T) {
	reranker := &stubReranker{}
	handler := newTestHandler(t, reranker)

	_, err := handler.Execute(context.Background(), &Input{
		City:       "Tampa",
		Travelers:  []models.Traveler{{ID: "u1", Preferences: map[string]float64{"food": 9}}},
		Weights:    map[string]map[string]float64{"u1": {"nightlife": 0.7, "food": 0.3}},
		Activities: scoredActivities(2),
	})
	require.NoError(t, err)

	require.Len(t, reranker.requests, 1)
	assert.Equal(t, 0.7, reranker.requests[0].Preferences["nightlife"])
	assert.Equal(t, 0.3, reranker.requests[0].Preferences["food"])
}

func TestExecute_InvalidInput(t *testing.T) {
	handler := newTestHandler(t, &stubReranker{})

	_, err := handler.Execute(context.Background(), &Input{Activities: scoredActivities(2)})
	assert.Error(t, err)

	_, err = handler.Execute(context.Background(), &Input{Travelers: []models.Traveler{{ID: "u1"}}})
	assert.Error(t, err)
}

// ==========================
// Response Parsing Tests
// ==========================

func TestParseResponse_PlainJSON(t *testing.T) {
	resp, err := ParseResponse(`{"user_id": "u1", "city": "Tampa", "results": [
		{"business_id": "b1", "adjusted_enjoyment_score": 8.5, "recommended_time_of_day": "late night", "note": "great late vibe"}
	]}`)
	require.NoError(t, err)

	assert.Equal(t, "u1", resp.TravelerID)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "late night", resp.Results[0].TimeOfDay)
}

func TestParseResponse_MarkdownFenced(t *testing.T) {
	text := "```json\n{\"user_id\": \"u1\", \"city\": \"Tampa\", \"results\": []}\n```"
	resp, err := ParseResponse(text)
	require.NoError(t, err)
	assert.Equal(t, "Tampa", resp.City)
}

func TestParseResponse_InvalidSlotRejected(t *testing.T) {
	_, err := ParseResponse(`{"user_id": "u1", "city": "Tampa", "results": [
		{"business_id": "b1", "adjusted_enjoyment_score": 8.5, "recommended_time_of_day": "midnight"}
	]}`)
	assert.ErrorIs(t, err, ErrRerankMalformed)
}

func TestParseResponse_MissingRequiredFieldRejected(t *testing.T) {
	_, err := ParseResponse(`{"user_id": "u1", "results": []}`)
	assert.ErrorIs(t, err, ErrRerankMalformed)
}

func TestParseResponse_NotJSON(t *testing.T) {
	_, err := ParseResponse("Sorry, I can't help with that.")
	assert.ErrorIs(t, err, ErrRerankMalformed)
}

// ==========================
// Prompt Tests
// ==========================

func TestBuildPrompt_IncludesProfileAndCandidates(t *testing.T) {
	prompt := buildPrompt(RerankRequest{
		TravelerID:  "u1",
		City:        "Tampa",
		Budget:      900,
		Notes:       "no seafood",
		Preferences: map[string]float64{"nightlife": 0.8, "food": 0.2},
		Activities:  scoredActivities(2),
	})

	assert.Contains(t, prompt, "visiting Tampa")
	assert.Contains(t, prompt, `"budget":900`)
	assert.Contains(t, prompt, `"notes":"no seafood"`)
	assert.Contains(t, prompt, `"nightlife":0.8`)
	assert.Contains(t, prompt, `"business_id":"b0"`)
	assert.Contains(t, prompt, `"user_id": "u1"`)
}

func TestExtractJSONFromMarkdown(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"bare json", `{"a": 1}`, `{"a": 1}`},
		{"fenced with tag", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced without tag", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\": 1}\n```\n  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONFromMarkdown(tt.in))
		})
	}
}
