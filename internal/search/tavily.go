package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// Tavily calls the Tavily search API.
type Tavily struct {
	apiKey   string
	defaultK int
	endpoint string
	client   *http.Client
}

// NewTavily constructs a Tavily provider with a 10 second request timeout.
func NewTavily(apiKey string, defaultK int) *Tavily {
	return &Tavily{
		apiKey:   apiKey,
		defaultK: defaultK,
		endpoint: tavilyEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Search posts the query to Tavily and normalizes the response. k values
// below 1 fall back to the configured default.
func (t *Tavily) Search(ctx context.Context, query string, k int) ([]Result, error) {
	if k < 1 {
		k = t.defaultK
	}

	body := map[string]any{
		"query":       query,
		"api_key":     t.apiKey,
		"max_results": k,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call tavily: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily returned status %d", resp.StatusCode)
	}

	var decoded struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode tavily response: %w", err)
	}

	results := make([]Result, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		results = append(results, Result{Title: r.Title, URL: r.URL, Snippet: r.Content})
		if len(results) >= k {
			break
		}
	}
	return results, nil
}
