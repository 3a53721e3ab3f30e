// internal/workers/planning/rerank-activities/reranker.go
package rerankactivities

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	commonhttp "fairtrip-workers/internal/common/http"
	"fairtrip-workers/internal/models"
)

var (
	ErrRerankTimeout   = errors.New("RERANK_TIMEOUT")
	ErrRerankMalformed = errors.New("RERANK_MALFORMED")
	ErrRerankFailed    = errors.New("RERANK_REQUEST_FAILED")
)

// RerankRequest is one traveler's re-rank call. Preferences is the
// traveler's normalized weight vector, not the raw intake scores.
type RerankRequest struct {
	TravelerID  string
	City        string
	Budget      float64
	Notes       string
	Preferences map[string]float64
	Activities  []models.ScoredActivity
}

// RerankResult is one activity row of a validated response.
type RerankResult struct {
	BusinessID    string  `json:"business_id"`
	AdjustedScore float64 `json:"adjusted_enjoyment_score"`
	TimeOfDay     string  `json:"recommended_time_of_day"`
	Note          string  `json:"note"`
}

// RerankResponse is a validated per-traveler response.
type RerankResponse struct {
	TravelerID string         `json:"user_id"`
	City       string         `json:"city"`
	Results    []RerankResult `json:"results"`
}

// Reranker adjusts activity scores per traveler through an external model.
// Implementations must not retry internally; failure handling belongs to the
// caller, which skips the traveler and carries on.
type Reranker interface {
	Rerank(ctx context.Context, req RerankRequest) (*RerankResponse, error)
}

// responseSchema strictly validates what the model sends back.
const responseSchema = `{
	"type": "object",
	"required": ["user_id", "city", "results"],
	"properties": {
		"user_id": {"type": "string"},
		"city": {"type": "string"},
		"results": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["business_id", "adjusted_enjoyment_score", "recommended_time_of_day"],
				"properties": {
					"business_id": {"type": "string"},
					"adjusted_enjoyment_score": {"type": "number"},
					"recommended_time_of_day": {
						"type": "string",
						"enum": ["morning", "afternoon", "evening", "late night"]
					},
					"note": {"type": "string"}
				}
			}
		}
	}
}`

var compiledResponseSchema = gojsonschema.NewStringLoader(responseSchema)

// HTTPReranker calls a GenAI text endpoint and parses the JSON it returns.
type HTTPReranker struct {
	baseURL string
	model   string
	httpc   *commonhttp.Client
}

func NewHTTPReranker(config *Config) *HTTPReranker {
	return &HTTPReranker{
		baseURL: config.GenAIBaseURL,
		model:   config.Model,
		httpc:   commonhttp.NewClient(config.Timeout),
	}
}

func (r *HTTPReranker) Rerank(ctx context.Context, req RerankRequest) (*RerankResponse, error) {
	requestBody := map[string]interface{}{
		"prompt":      buildPrompt(req),
		"temperature": 0.2,
	}
	if r.model != "" {
		requestBody["model"] = r.model
	}

	body, _ := json.Marshal(requestBody)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/ai/generate", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRerankFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpc.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrRerankTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrRerankFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRerankFailed, resp.StatusCode)
	}

	var apiResponse struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", ErrRerankMalformed, err)
	}

	return ParseResponse(apiResponse.Text)
}

// ParseResponse extracts, validates and decodes a model response. The text
// may wrap the JSON in markdown code fences.
func ParseResponse(text string) (*RerankResponse, error) {
	payload := ExtractJSONFromMarkdown(text)
	if payload == "" {
		return nil, fmt.Errorf("%w: empty response", ErrRerankMalformed)
	}

	result, err := gojsonschema.Validate(compiledResponseSchema, gojsonschema.NewStringLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRerankMalformed, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrRerankMalformed, strings.Join(details, "; "))
	}

	var response RerankResponse
	if err := json.Unmarshal([]byte(payload), &response); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRerankMalformed, err)
	}
	return &response, nil
}

// ExtractJSONFromMarkdown strips ``` fences around a JSON body, tolerating a
// language tag after the opening fence.
func ExtractJSONFromMarkdown(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line ("json" etc.)
		firstLine := strings.TrimSpace(trimmed[:idx])
		if firstLine == "" || !strings.HasPrefix(firstLine, "{") {
			trimmed = trimmed[idx+1:]
		}
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

func buildPrompt(req RerankRequest) string {
	var sb strings.Builder

	sb.WriteString("You are a travel concierge. Re-rank the candidate activities below for one traveler visiting ")
	sb.WriteString(req.City)
	sb.WriteString(".\n\nTraveler profile (preference fractions sum to 1):\n")
	profile, _ := json.Marshal(map[string]interface{}{
		"budget":      req.Budget,
		"preferences": req.Preferences,
		"notes":       req.Notes,
	})
	sb.Write(profile)

	sb.WriteString("\n\nCandidate activities:\n")
	for _, scored := range req.Activities {
		a := scored.Activity
		row, _ := json.Marshal(map[string]interface{}{
			"business_id":  a.BusinessID,
			"name":         a.Name,
			"stars":        a.Stars,
			"review_count": a.ReviewCount,
			"price":        a.EffectivePrice(),
			"tags":         a.Tags,
			"group_value":  scored.GroupValue,
		})
		sb.Write(row)
		sb.WriteString("\n")
	}

	sb.WriteString("\nRespond with ONLY a JSON object of this shape:\n")
	sb.WriteString(`{"user_id": "` + req.TravelerID + `", "city": "` + req.City + `", "results": [`)
	sb.WriteString(`{"business_id": "...", "adjusted_enjoyment_score": 0.0, "recommended_time_of_day": "morning|afternoon|evening|late night", "note": "max 15 words"}]}`)
	sb.WriteString("\nScores are 0 to 10. Include every activity at most once.")

	return sb.String()
}
