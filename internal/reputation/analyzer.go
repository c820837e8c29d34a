package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nkarpov/claimsift/internal/cache"
	"github.com/nkarpov/claimsift/internal/llm"
	"github.com/nkarpov/claimsift/internal/model"
	"github.com/nkarpov/claimsift/internal/search"
	"github.com/nkarpov/claimsift/internal/trust"
)

const systemRater = `You are a cautious media reliability rater.
Given a news/publisher domain and a list of snippets/URLs from reputable sources, decide CREDIBILITY and (optionally) POLITICAL_LEANING.
Rules:
- Credibility reflects editorial standards: corrections policy, transparency, ownership, history, reputation in academia/libraries, Wikipedia reliability notes, IFCN affiliation, etc.
- Political_leaning must be inferred ONLY if supported by strong evidence (e.g., Wikipedia infobox, peer-reviewed/academic/industry analyses). Otherwise leave Unknown.
- NEVER use random blogs, forum opinions, or user comments as sole evidence.
- Use only the provided items as evidence; if insufficient, return Unknown.
Output STRICT JSON with keys: credibility (High|Medium|Low|Unknown), bias (Left|Centre-Left|Centre|Centre-Right|Right|Unknown), rationale (<=120 words), citations (array of up to 3 URLs used).`

const (
	noSignalsRationale = "Insufficient reputable evidence retrieved."

	signalsPerQuery = 5
	maxRationale    = 600
	maxCitations    = 3

	signalTitleLen   = 120
	signalSnippetLen = 240
)

// Analyzer rates a publisher domain's credibility and political leaning
// from a small bundle of reputation signals. Results are cached; 30 days
// is the default lifetime. Every failure degrades to an Unknown record,
// never an error.
type Analyzer struct {
	client   llm.Client
	provider search.Provider
	store    cache.Cache
	cfg      model.ReputationConfig
	modelID  string
	logger   *slog.Logger
}

// NewAnalyzer builds an analyzer. store may be nil (no caching); client
// and provider may be nil, in which case every lookup is Unknown.
func NewAnalyzer(client llm.Client, provider search.Provider, store cache.Cache, cfg model.ReputationConfig, modelID string, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * 24 * time.Hour
	}
	if cfg.MaxSignals <= 0 {
		cfg.MaxSignals = 12
	}
	return &Analyzer{
		client:   client,
		provider: provider,
		store:    store,
		cfg:      cfg,
		modelID:  modelID,
		logger:   logger,
	}
}

// Analyze rates the domain of the given URL or bare domain. The cache
// is consulted first; a fresh record is cached before returning.
func (a *Analyzer) Analyze(ctx context.Context, domainOrURL string) model.ReputationRecord {
	domain := trust.Domain(domainOrURL)
	if domain == "" {
		domain = strings.ToLower(strings.TrimSpace(domainOrURL))
	}

	if rec, ok := a.cached(domain); ok {
		return rec
	}

	rec := a.rate(ctx, domain)
	a.save(rec)
	return rec
}

func (a *Analyzer) cached(domain string) (model.ReputationRecord, bool) {
	if a.store == nil {
		return model.ReputationRecord{}, false
	}
	raw, ok := a.store.Get(cache.Key("reputation", domain))
	if !ok {
		return model.ReputationRecord{}, false
	}
	var rec model.ReputationRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.ReputationRecord{}, false
	}
	return rec, true
}

func (a *Analyzer) save(rec model.ReputationRecord) {
	if a.store == nil {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := a.store.Set(cache.Key("reputation", rec.Domain), raw, a.cfg.TTL); err != nil {
		a.logger.Warn("reputation cache write failed", "domain", rec.Domain, "error", err)
	}
}

func (a *Analyzer) rate(ctx context.Context, domain string) model.ReputationRecord {
	rec := model.ReputationRecord{
		Domain:      domain,
		Credibility: model.CredibilityUnknown,
		Bias:        model.BiasUnknown,
		AnalyzedAt:  time.Now().UTC(),
	}

	signals := a.fetchSignals(ctx, domain)
	if len(signals) == 0 {
		rec.Rationale = noSignalsRationale
		return rec
	}

	if a.client == nil {
		rec.Rationale = "Reputation model unavailable."
		return rec
	}

	var bullets strings.Builder
	for _, s := range signals {
		fmt.Fprintf(&bullets, "- %s — %s — %s\n", clip(s.Title, signalTitleLen), s.URL, clip(s.Snippet, signalSnippetLen))
	}

	user := fmt.Sprintf("Domain: %s\n\nCandidate evidence (title — url — snippet):\n%s\nTask: Decide credibility and possible political leaning following the rules.", domain, bullets.String())

	raw, err := a.client.CompleteJSON(ctx, llm.Request{
		Model:       a.modelID,
		System:      systemRater,
		User:        user,
		Temperature: 0.2,
	})
	if err != nil {
		a.logger.Warn("reputation rating failed", "domain", domain, "error", err)
		rec.Rationale = fmt.Sprintf("Reputation model error: %v", err)
		return rec
	}

	var verdict struct {
		Credibility string   `json:"credibility"`
		Bias        string   `json:"bias"`
		Rationale   string   `json:"rationale"`
		Citations   []string `json:"citations"`
	}
	if err := json.Unmarshal(raw, &verdict); err != nil {
		a.logger.Warn("reputation rating returned malformed JSON", "domain", domain, "error", err)
		rec.Rationale = fmt.Sprintf("Reputation model error: %v", err)
		return rec
	}

	rec.Credibility = normalizeCredibility(verdict.Credibility)
	rec.Bias = normalizeBias(verdict.Bias)
	rec.Rationale = clip(verdict.Rationale, maxRationale)
	if len(verdict.Citations) > maxCitations {
		verdict.Citations = verdict.Citations[:maxCitations]
	}
	rec.Citations = verdict.Citations
	return rec
}

// fetchSignals composes a small bundle of focused queries about the
// domain and collects up to MaxSignals url-deduped hits.
func (a *Analyzer) fetchSignals(ctx context.Context, domain string) []model.SearchHit {
	if a.provider == nil {
		return nil
	}

	queries := []string{
		domain + " site:wikipedia.org",
		domain + " ownership",
		domain + " about corrections policy",
		domain + " editorial standards",
		domain + " site:ifcncodeofprinciples.poynter.org",
		domain + " reliability site:edu OR site:ac.uk OR site:gov",
	}

	seen := make(map[string]bool)
	var hits []model.SearchHit

	for _, q := range queries {
		results, err := a.provider.Search(ctx, q, signalsPerQuery)
		if err != nil {
			a.logger.Debug("signal query failed", "query", q, "error", err)
			continue
		}
		for _, r := range results {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			hits = append(hits, r)
			if len(hits) >= a.cfg.MaxSignals {
				return hits
			}
		}
	}
	return hits
}

func normalizeCredibility(s string) model.Credibility {
	switch model.Credibility(strings.TrimSpace(s)) {
	case model.CredibilityHigh, model.CredibilityMedium, model.CredibilityLow:
		return model.Credibility(strings.TrimSpace(s))
	default:
		return model.CredibilityUnknown
	}
}

func normalizeBias(s string) model.Bias {
	switch model.Bias(strings.TrimSpace(s)) {
	case model.BiasLeft, model.BiasCentreLeft, model.BiasCentre, model.BiasCentreRight, model.BiasRight:
		return model.Bias(strings.TrimSpace(s))
	default:
		return model.BiasUnknown
	}
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
