package model

import (
	"fmt"
	"time"
)

// Config enumerates every tunable of the pipeline. It is passed in at
// construction time; no component reads ambient process state mid-run.
type Config struct {
	Limits      LimitsConfig      `yaml:"limits" mapstructure:"limits"`
	Search      SearchConfig      `yaml:"search" mapstructure:"search"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Fetch       FetchConfig       `yaml:"fetch" mapstructure:"fetch"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Reputation  ReputationConfig  `yaml:"reputation" mapstructure:"reputation"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
}

// LimitsConfig bounds the fan-out of a single pipeline run.
type LimitsConfig struct {
	MaxClaims             int `yaml:"max_claims" mapstructure:"max_claims"`
	MaxQueriesPerClaim    int `yaml:"max_queries_per_claim" mapstructure:"max_queries_per_claim"`
	QueryMaxWords         int `yaml:"query_max_words" mapstructure:"query_max_words"`
	MaxResultsPerQuery    int `yaml:"max_results_per_query" mapstructure:"max_results_per_query"`
	MaxCandidatesPerClaim int `yaml:"max_candidates_per_claim" mapstructure:"max_candidates_per_claim"`
	MaxInputRunes         int `yaml:"max_input_runes" mapstructure:"max_input_runes"`
	FlatK                 int `yaml:"flat_k" mapstructure:"flat_k"`
}

// SearchConfig configures the evidence providers.
type SearchConfig struct {
	// Providers lists enabled providers in preference order.
	// Recognized names: tavily, brave.
	Providers []string `yaml:"providers" mapstructure:"providers"`

	// Strategy is "fallback" (first provider with results wins) or
	// "merge" (fan out to all and union by URL).
	Strategy string `yaml:"strategy" mapstructure:"strategy"`

	TavilyAPIKey string        `yaml:"-" mapstructure:"-"`
	BraveAPIKey  string        `yaml:"-" mapstructure:"-"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// CallInterval spaces consecutive provider calls to respect
	// external rate limits.
	CallInterval time.Duration `yaml:"call_interval" mapstructure:"call_interval"`

	// CacheTTL for the query-keyed response cache; zero disables caching.
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// LLMModels selects a model per pipeline role. Empty fields fall back
// to Default.
type LLMModels struct {
	Default       string `yaml:"default" mapstructure:"default"`
	Extractor     string `yaml:"extractor" mapstructure:"extractor"`
	Reviewer      string `yaml:"reviewer" mapstructure:"reviewer"`
	Framer        string `yaml:"framer" mapstructure:"framer"`
	QueryReviewer string `yaml:"query_reviewer" mapstructure:"query_reviewer"`
	Judge         string `yaml:"judge" mapstructure:"judge"`
	Verdict       string `yaml:"verdict" mapstructure:"verdict"`
	Reputation    string `yaml:"reputation" mapstructure:"reputation"`
}

// For returns the model configured for a role, or the default.
func (m LLMModels) For(role string) string {
	pick := func(s string) string {
		if s != "" {
			return s
		}
		return m.Default
	}
	switch role {
	case "extractor":
		return pick(m.Extractor)
	case "reviewer":
		return pick(m.Reviewer)
	case "framer":
		return pick(m.Framer)
	case "query_reviewer":
		return pick(m.QueryReviewer)
	case "judge":
		return pick(m.Judge)
	case "verdict":
		return pick(m.Verdict)
	case "reputation":
		return pick(m.Reputation)
	default:
		return m.Default
	}
}

// LLMConfig configures the reasoning-service client.
type LLMConfig struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string    `yaml:"provider" mapstructure:"provider"`
	Models   LLMModels `yaml:"models" mapstructure:"models"`

	APIKey  string `yaml:"-" mapstructure:"-"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`

	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
}

// FetchConfig configures the optional snippet enricher.
type FetchConfig struct {
	EnrichSnippets bool          `yaml:"enrich_snippets" mapstructure:"enrich_snippets"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent      string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// CacheConfig configures the layered TTL cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"` // Disk layer location
}

// ReputationConfig configures the optional reputation analyzer.
type ReputationConfig struct {
	TTL           time.Duration `yaml:"ttl" mapstructure:"ttl"`
	MaxSignals    int           `yaml:"max_signals" mapstructure:"max_signals"`
	BiasTablePath string        `yaml:"bias_table" mapstructure:"bias_table"`
}

// ConcurrencyConfig bounds the per-claim fan-out. ClaimWorkers of 1
// reproduces the sequential reference behavior.
type ConcurrencyConfig struct {
	ClaimWorkers int `yaml:"claim_workers" mapstructure:"claim_workers"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() *Config {
	return &Config{
		Limits: LimitsConfig{
			MaxClaims:             6,
			MaxQueriesPerClaim:    3,
			QueryMaxWords:         12,
			MaxResultsPerQuery:    6,
			MaxCandidatesPerClaim: 30,
			MaxInputRunes:         6000,
			FlatK:                 6,
		},
		Search: SearchConfig{
			Providers:    []string{"tavily", "brave"},
			Strategy:     "fallback",
			Timeout:      18 * time.Second,
			CallInterval: 200 * time.Millisecond,
			CacheTTL:     time.Hour,
		},
		LLM: LLMConfig{
			Provider: "openai",
			Models: LLMModels{
				Default:  "gpt-4o-mini",
				Reviewer: "gpt-4o",
				Judge:    "gpt-4o",
			},
			Timeout:   30 * time.Second,
			MaxTokens: 1500,
		},
		Fetch: FetchConfig{
			EnrichSnippets: false,
			Timeout:        10 * time.Second,
			UserAgent:      "Claimsift/0.1 (+https://github.com/nkarpov/claimsift)",
			MaxBodyBytes:   1_000_000,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Reputation: ReputationConfig{
			TTL:        30 * 24 * time.Hour,
			MaxSignals: 12,
		},
		Concurrency: ConcurrencyConfig{
			ClaimWorkers: 1,
		},
	}
}

// Mode is a named bundle of retrieval preferences.
type Mode struct {
	Name string

	// PreferOfficial steers judging toward official/data/fact-check tiers.
	PreferOfficial bool

	// IncludeOpposing asks judging to retain reputable sources across
	// the ideological spectrum.
	IncludeOpposing bool

	// Localize steers query framing toward the plan's jurisdiction.
	Localize bool

	// Cap overrides; zero means keep the config value.
	MaxResultsPerQuery int
	FlatK              int
}

var modes = map[string]Mode{
	"default": {Name: "default", PreferOfficial: true},
	"official": {
		Name:               "official",
		PreferOfficial:     true,
		MaxResultsPerQuery: 8,
	},
	"balanced": {
		Name:            "balanced",
		PreferOfficial:  true,
		IncludeOpposing: true,
		FlatK:           8,
	},
	"local": {
		Name:           "local",
		PreferOfficial: true,
		Localize:       true,
	},
}

// ModeByName resolves a named mode.
func ModeByName(name string) (Mode, error) {
	if name == "" {
		return modes["default"], nil
	}
	if m, ok := modes[name]; ok {
		return m, nil
	}
	return Mode{}, fmt.Errorf("unknown mode: %s (supported: default, official, balanced, local)", name)
}

// Apply overlays the mode's cap overrides onto a copy of the config.
func (m Mode) Apply(cfg *Config) *Config {
	out := *cfg
	if m.MaxResultsPerQuery > 0 {
		out.Limits.MaxResultsPerQuery = m.MaxResultsPerQuery
	}
	if m.FlatK > 0 {
		out.Limits.FlatK = m.FlatK
	}
	return &out
}
