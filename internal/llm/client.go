package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is the reasoning-service boundary. Every pipeline stage talks
// to the service through this interface; stage-level fallbacks handle
// its failures, so implementations report errors rather than degrade.
type Client interface {
	// Name returns the provider name.
	Name() string

	// Complete returns the model's plain-text response.
	Complete(ctx context.Context, req Request) (string, error)

	// CompleteJSON returns the model's response as a raw JSON object,
	// enforcing structured output where the provider supports it and
	// extracting the object from surrounding text where it does not.
	CompleteJSON(ctx context.Context, req Request) ([]byte, error)
}

// Request is a single chat turn: a fixed system instruction plus a user
// payload (raw text or a marshaled JSON document).
type Request struct {
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// Config holds provider-independent client configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// APIKey for OpenAI and Anthropic.
	APIKey string

	// BaseURL for custom endpoints (required for Ollama off-host).
	BaseURL string

	Timeout   time.Duration
	MaxTokens int

	// Proxy settings; empty values fall back to the environment.
	HTTPProxy  string
	HTTPSProxy string
}

// New builds a client from configuration. An empty provider name is an
// error here; callers that want the service disabled should not build
// a client at all.
func New(config Config) (Client, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAI(config)
	case "anthropic", "claude":
		return NewAnthropic(config)
	case "ollama":
		return NewOllama(config)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// newProxyFunc builds a proxy selector from explicit settings, falling
// back to the process environment.
func newProxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}
	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}
