package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTavily_Search_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}

		var req tavilyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Decode request: %v", err)
		}
		if req.APIKey != "test-key" {
			t.Errorf("Expected api_key test-key, got %s", req.APIKey)
		}
		if req.MaxResults != 6 {
			t.Errorf("Expected max_results 6, got %d", req.MaxResults)
		}
		if req.SearchDepth != "advanced" {
			t.Errorf("Expected search_depth advanced, got %s", req.SearchDepth)
		}

		_, _ = w.Write([]byte(`{
			"results": [
				{"title": "CDC vaccine safety", "url": "https://www.cdc.gov/vaccinesafety", "content": "Vaccines are monitored..."},
				{"title": "No URL entry", "url": "", "content": "dropped"},
				{"title": "` + strings.Repeat("t", 300) + `", "url": "https://example.com/long", "content": "` + strings.Repeat("s", 800) + `"}
			]
		}`))
	}))
	defer server.Close()

	provider, err := NewTavily(TavilyConfig{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewTavily failed: %v", err)
	}

	hits, err := provider.Search(context.Background(), "vaccine safety", 6)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits (empty URL dropped), got %d", len(hits))
	}
	if hits[0].URL != "https://www.cdc.gov/vaccinesafety" {
		t.Errorf("Unexpected URL: %s", hits[0].URL)
	}
	if len(hits[1].Title) != maxTitleLen {
		t.Errorf("Title not capped: %d", len(hits[1].Title))
	}
	if len(hits[1].Snippet) != maxSnippetLen {
		t.Errorf("Snippet not capped: %d", len(hits[1].Snippet))
	}
}

func TestTavily_Search_ClampsMaxResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tavilyRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.MaxResults != 10 {
			t.Errorf("Expected max_results clamped to 10, got %d", req.MaxResults)
		}
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	provider, _ := NewTavily(TavilyConfig{APIKey: "k", BaseURL: server.URL})
	if _, err := provider.Search(context.Background(), "q", 50); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
}

func TestTavily_Search_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "invalid key"}`))
	}))
	defer server.Close()

	provider, _ := NewTavily(TavilyConfig{APIKey: "bad", BaseURL: server.URL})
	if _, err := provider.Search(context.Background(), "q", 5); err == nil {
		t.Fatal("Expected error on non-200 response")
	}
}

func TestNewTavily_RequiresKey(t *testing.T) {
	if _, err := NewTavily(TavilyConfig{}); err == nil {
		t.Fatal("Expected error for missing API key")
	}
}

func TestBrave_Search_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Subscription-Token") != "brave-key" {
			t.Errorf("Missing subscription token header")
		}
		if got := r.URL.Query().Get("q"); got != "vaccine safety" {
			t.Errorf("Unexpected query param: %s", got)
		}
		_, _ = w.Write([]byte(`{
			"web": {"results": [
				{"title": "Reuters fact check", "url": "https://reuters.com/factcheck", "description": "Claim examined..."}
			]}
		}`))
	}))
	defer server.Close()

	provider, err := NewBrave(BraveConfig{APIKey: "brave-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewBrave failed: %v", err)
	}

	hits, err := provider.Search(context.Background(), "vaccine safety", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Expected 1 hit, got %d", len(hits))
	}
	if hits[0].Snippet != "Claim examined..." {
		t.Errorf("Description not normalized to snippet: %s", hits[0].Snippet)
	}
}

func TestNewBrave_RequiresKey(t *testing.T) {
	if _, err := NewBrave(BraveConfig{}); err == nil {
		t.Fatal("Expected error for missing API key")
	}
}
