package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nkarpov/claimsift/internal/model"
)

const (
	tavilyDefaultURL = "https://api.tavily.com/search"

	maxTitleLen   = 220
	maxSnippetLen = 700
)

// TavilyConfig configures the Tavily adapter.
type TavilyConfig struct {
	APIKey  string
	BaseURL string // Overridable for tests
	Timeout time.Duration
}

// Tavily adapts the Tavily search API to the Provider interface.
type Tavily struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type tavilyRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	MaxResults        int    `json:"max_results"`
	SearchDepth       string `json:"search_depth"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeImages     bool   `json:"include_images"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// NewTavily creates a Tavily provider. A missing API key is a
// construction error so the provider is simply not registered.
func NewTavily(config TavilyConfig) (*Tavily, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("tavily API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = tavilyDefaultURL
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 18 * time.Second
	}

	return &Tavily{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Name returns the provider name.
func (t *Tavily) Name() string {
	return "tavily"
}

// Search queries Tavily and normalizes the response. maxResults is
// clamped to the API's cap of 10.
func (t *Tavily) Search(ctx context.Context, query string, maxResults int) ([]model.SearchHit, error) {
	if maxResults <= 0 || maxResults > 10 {
		maxResults = 10
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:      t.apiKey,
		Query:       query,
		MaxResults:  maxResults,
		SearchDepth: "advanced",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 2_000_000))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	hits := make([]model.SearchHit, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		hits = append(hits, model.SearchHit{
			Title:   truncate(r.Title, maxTitleLen),
			URL:     r.URL,
			Snippet: truncate(r.Content, maxSnippetLen),
		})
	}
	return hits, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
