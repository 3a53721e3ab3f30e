// Package pricing estimates per-traveler trip costs through external search
// providers. Providers are best-effort: callers degrade to configured
// fallback estimates when a search fails.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	commonhttp "fairtrip-workers/internal/common/http"
)

// SerpAPIClient issues search requests against a SerpAPI-compatible endpoint.
type SerpAPIClient struct {
	baseURL string
	apiKey  string
	httpc   *commonhttp.Client
}

func NewSerpAPIClient(baseURL, apiKey string, timeout time.Duration) *SerpAPIClient {
	return &SerpAPIClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   commonhttp.NewClient(timeout),
	}
}

// search performs a GET against the engine with the given params and decodes
// the JSON response into out.
func (c *SerpAPIClient) search(ctx context.Context, engine string, params map[string]string, out interface{}) error {
	query := url.Values{}
	query.Set("engine", engine)
	query.Set("api_key", c.apiKey)
	query.Set("currency", "USD")
	query.Set("hl", "en")
	for k, v := range params {
		query.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", engine, err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", engine, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s returned status %d: %s", engine, resp.StatusCode, string(raw))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", engine, err)
	}
	return nil
}
