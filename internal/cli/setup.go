package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/nkarpov/claimsift/internal/cache"
	"github.com/nkarpov/claimsift/internal/llm"
	"github.com/nkarpov/claimsift/internal/model"
	"github.com/nkarpov/claimsift/internal/search"
)

// loadConfig resolves the effective configuration: defaults, overlaid
// by the config file and CLAIMSIFT_* env vars, with API keys taken from
// their conventional environment variables.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg.LLM.APIKey = apiKeyFor(cfg.LLM.Provider)
	if base := os.Getenv("OLLAMA_BASE_URL"); base != "" && cfg.LLM.Provider == "ollama" {
		cfg.LLM.BaseURL = base
	}
	cfg.Search.TavilyAPIKey = os.Getenv("TAVILY_API_KEY")
	cfg.Search.BraveAPIKey = os.Getenv("BRAVE_API_KEY")

	return cfg, nil
}

func apiKeyFor(provider string) string {
	switch provider {
	case "anthropic", "claude":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "ollama":
		return ""
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}

// buildClient constructs the reasoning-service client, or nil when the
// provider is unconfigured. A nil client is legal everywhere: stages
// degrade to their documented fallbacks.
func buildClient(cfg *model.Config, logger *slog.Logger) llm.Client {
	if cfg.LLM.Provider != "ollama" && cfg.LLM.APIKey == "" {
		logger.Warn("reasoning service disabled: no API key", "provider", cfg.LLM.Provider)
		return nil
	}

	client, err := llm.New(llm.Config{
		Provider:   cfg.LLM.Provider,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    cfg.LLM.Timeout,
		MaxTokens:  cfg.LLM.MaxTokens,
		HTTPProxy:  cfg.LLM.HTTPProxy,
		HTTPSProxy: cfg.LLM.HTTPSProxy,
	})
	if err != nil {
		logger.Warn("reasoning service disabled", "error", err)
		return nil
	}
	return client
}

// buildStore constructs the response/record cache per configuration.
func buildStore(cfg *model.Config) cache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	if cfg.Cache.Dir != "" {
		return cache.NewLayeredCache(cfg.Search.CacheTTL, cfg.Cache.Dir, cfg.Reputation.TTL)
	}
	return cache.NewMemoryCache(cfg.Search.CacheTTL, 10*cfg.Search.CacheTTL)
}

// buildProvider assembles the evidence provider stack.
func buildProvider(cfg *model.Config, store cache.Cache, logger *slog.Logger) search.Provider {
	return search.Build(cfg.Search, store, logger)
}
