package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nkarpov/claimsift/internal/model"
)

// Provider is a web-search evidence source. Implementations normalize
// provider-specific field names into model.SearchHit at this boundary.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]model.SearchHit, error)
}

// Strategy selects how a Multi consults its providers.
type Strategy string

const (
	// StrategyFallback walks providers in order and returns the first
	// non-empty result set.
	StrategyFallback Strategy = "fallback"

	// StrategyMerge fans out to every provider and unions the results
	// by URL, preserving provider order.
	StrategyMerge Strategy = "merge"
)

// Multi consults a preference-ordered list of providers. Individual
// provider failures are logged and skipped; a Multi never returns an
// error, only a possibly-empty result set.
type Multi struct {
	providers []Provider
	strategy  Strategy
	logger    *slog.Logger
}

// NewMulti builds a multi-provider adapter. An empty provider list is
// legal and yields empty results for every query.
func NewMulti(providers []Provider, strategy Strategy, logger *slog.Logger) *Multi {
	if strategy == "" {
		strategy = StrategyFallback
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Multi{providers: providers, strategy: strategy, logger: logger}
}

// Name returns the composite provider name.
func (m *Multi) Name() string {
	names := make([]string, len(m.providers))
	for i, p := range m.providers {
		names[i] = p.Name()
	}
	return "multi(" + strings.Join(names, ",") + ")"
}

// Search runs the configured strategy. The returned error is always nil;
// it exists only to satisfy the Provider interface.
func (m *Multi) Search(ctx context.Context, query string, maxResults int) ([]model.SearchHit, error) {
	switch m.strategy {
	case StrategyMerge:
		return m.searchMerge(ctx, query, maxResults), nil
	default:
		return m.searchFallback(ctx, query, maxResults), nil
	}
}

func (m *Multi) searchFallback(ctx context.Context, query string, maxResults int) []model.SearchHit {
	for _, p := range m.providers {
		hits, err := p.Search(ctx, query, maxResults)
		if err != nil {
			m.logger.Debug("provider failed, trying next", "provider", p.Name(), "error", err)
			continue
		}
		if len(hits) > 0 {
			return hits
		}
	}
	return nil
}

func (m *Multi) searchMerge(ctx context.Context, query string, maxResults int) []model.SearchHit {
	seen := make(map[string]bool)
	var merged []model.SearchHit

	for _, p := range m.providers {
		hits, err := p.Search(ctx, query, maxResults)
		if err != nil {
			m.logger.Debug("provider failed, merging remainder", "provider", p.Name(), "error", err)
			continue
		}
		for _, h := range hits {
			if h.URL == "" || seen[h.URL] {
				continue
			}
			seen[h.URL] = true
			merged = append(merged, h)
		}
	}
	return merged
}

// Build assembles the configured provider stack: named providers in
// preference order, wrapped in a response cache when a TTL is set.
// Providers whose credentials are missing are skipped with a log line,
// never an error: a degraded adapter returns empty results.
func Build(cfg model.SearchConfig, store CacheStore, logger *slog.Logger) *Multi {
	if logger == nil {
		logger = slog.Default()
	}

	var providers []Provider
	for _, name := range cfg.Providers {
		var (
			p   Provider
			err error
		)
		switch strings.ToLower(name) {
		case "tavily":
			p, err = NewTavily(TavilyConfig{APIKey: cfg.TavilyAPIKey, Timeout: cfg.Timeout})
		case "brave":
			p, err = NewBrave(BraveConfig{APIKey: cfg.BraveAPIKey, Timeout: cfg.Timeout})
		default:
			err = fmt.Errorf("unknown provider: %s", name)
		}
		if err != nil {
			logger.Warn("evidence provider disabled", "provider", name, "reason", err)
			continue
		}
		if store != nil && cfg.CacheTTL > 0 {
			p = NewCached(p, store, cfg.CacheTTL)
		}
		providers = append(providers, p)
	}

	return NewMulti(providers, Strategy(cfg.Strategy), logger)
}
