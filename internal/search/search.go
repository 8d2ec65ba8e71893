// Package search wraps pluggable web-search providers behind one interface,
// normalizing hits to {title, url, snippet}.
package search

import (
	"context"
	"fmt"
)

// Result is a single provider-normalized search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Provider executes a query and returns up to k normalized results.
type Provider interface {
	Search(ctx context.Context, query string, k int) ([]Result, error)
}

// New constructs a provider by name. An unsupported name is a configuration
// error raised here, not at call time. Selecting tavily without an API key
// degrades to the noop provider, matching how an unconfigured deployment
// should still produce a report.
func New(name, apiKey string, defaultK int) (Provider, error) {
	switch name {
	case "tavily":
		if apiKey == "" {
			return &Noop{}, nil
		}
		return NewTavily(apiKey, defaultK), nil
	case "noop":
		return &Noop{}, nil
	default:
		return nil, fmt.Errorf("unsupported search provider: %s", name)
	}
}

// Noop stands in when no provider is configured. It returns a single
// sentinel result rather than an empty list or an error; downstream stages
// treat it as a regular low-value source.
type Noop struct{}

func (n *Noop) Search(_ context.Context, _ string, _ int) ([]Result, error) {
	return []Result{
		{
			Title: "Search provider not configured",
			URL:   "",
			Snippet: "No web search provider is configured. Configure TAVILY_API_KEY " +
				"or supply a custom search provider.",
		},
	}, nil
}
