package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nkarpov/claimsift/internal/model"
)

const braveDefaultURL = "https://api.search.brave.com/res/v1/web/search"

// BraveConfig configures the Brave Search adapter.
type BraveConfig struct {
	APIKey  string
	BaseURL string // Overridable for tests
	Timeout time.Duration
}

// Brave adapts the Brave Search API to the Provider interface.
type Brave struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// NewBrave creates a Brave Search provider.
func NewBrave(config BraveConfig) (*Brave, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("brave API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = braveDefaultURL
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 18 * time.Second
	}

	return &Brave{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Name returns the provider name.
func (b *Brave) Name() string {
	return "brave"
}

// Search queries Brave and normalizes web.results into SearchHits.
func (b *Brave) Search(ctx context.Context, query string, maxResults int) ([]model.SearchHit, error) {
	if maxResults <= 0 || maxResults > 10 {
		maxResults = 10
	}

	endpoint := b.baseURL + "?q=" + url.QueryEscape(query) + "&count=" + strconv.Itoa(maxResults)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.httpClient.Do(req)
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

	var parsed braveResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	hits := make([]model.SearchHit, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		if r.URL == "" {
			continue
		}
		hits = append(hits, model.SearchHit{
			Title:   truncate(r.Title, maxTitleLen),
			URL:     r.URL,
			Snippet: truncate(r.Description, maxSnippetLen),
		})
		if len(hits) >= maxResults {
			break
		}
	}
	return hits, nil
}
