package pipeline

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/nkarpov/claimsift/internal/fetch"
	"github.com/nkarpov/claimsift/internal/llm"
	"github.com/nkarpov/claimsift/internal/model"
	"github.com/nkarpov/claimsift/internal/search"
	"github.com/nkarpov/claimsift/internal/trust"
	"github.com/nkarpov/claimsift/internal/worker"
)

// Pipeline turns raw user text into a cited evidence bundle:
// plan (extract + review claims) -> frame queries -> retrieve & score ->
// judge -> merge. Every external failure degrades to a documented
// stage fallback; a run always ends with a bundle.
type Pipeline struct {
	cfg      *model.Config
	mode     model.Mode
	client   llm.Client
	provider search.Provider
	throttle *search.Throttle
	trust    *trust.Classifier
	fetcher  *fetch.Fetcher
	logger   *slog.Logger
}

// Option customizes a pipeline beyond its required dependencies.
type Option func(*Pipeline)

// WithMode applies a named retrieval mode.
func WithMode(mode model.Mode) Option {
	return func(p *Pipeline) {
		p.mode = mode
		p.cfg = mode.Apply(p.cfg)
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithClassifier replaces the default trust classifier.
func WithClassifier(classifier *trust.Classifier) Option {
	return func(p *Pipeline) { p.trust = classifier }
}

// WithThrottle replaces the config-derived provider throttle; tests use
// a disabled throttle to avoid wall-clock waits.
func WithThrottle(throttle *search.Throttle) Option {
	return func(p *Pipeline) { p.throttle = throttle }
}

// WithFetcher enables snippet enrichment.
func WithFetcher(fetcher *fetch.Fetcher) Option {
	return func(p *Pipeline) { p.fetcher = fetcher }
}

// NewPipeline creates a pipeline. client may be nil (the reasoning
// service is unavailable or unconfigured): every stage then takes its
// documented fallback and the result is a degenerate bundle rather
// than an error. provider may be nil for the same reason.
func NewPipeline(cfg *model.Config, client llm.Client, provider search.Provider, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	p := &Pipeline{
		cfg:      cfg,
		mode:     model.Mode{Name: "default", PreferOfficial: true},
		client:   client,
		provider: provider,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.provider == nil {
		p.provider = search.NewMulti(nil, search.StrategyFallback, p.logger)
	}
	if p.throttle == nil {
		p.throttle = search.NewThrottle(p.cfg.Search.CallInterval)
	}
	if p.trust == nil {
		p.trust = trust.NewClassifier(nil)
	}
	if p.fetcher == nil && p.cfg.Fetch.EnrichSnippets {
		p.fetcher = fetch.NewFetcher(p.cfg.Fetch.Timeout, p.cfg.Fetch.UserAgent, p.cfg.Fetch.MaxBodyBytes)
	}

	return p
}

// Plan extracts and reviews claims from raw text. It never fails: on
// total service outage the plan simply has no claims.
func (p *Pipeline) Plan(ctx context.Context, text string) *model.Plan {
	text = capRunes(text, p.cfg.Limits.MaxInputRunes)

	jurisdiction, claims := p.extractClaims(ctx, text)
	jurisdiction, claims = p.reviewClaims(ctx, jurisdiction, claims)
	claims = normalizeClaims(claims, p.cfg.Limits.MaxClaims)

	if jurisdiction == "" {
		jurisdiction = "Unknown"
	}

	p.logger.Info("plan ready", "jurisdiction", jurisdiction, "claims", len(claims))
	return &model.Plan{
		RunID:        uuid.NewString(),
		Jurisdiction: jurisdiction,
		Claims:       claims,
	}
}

// Retrieve runs framing, retrieval, scoring and judging for every claim
// in the plan and merges the kept sources. k caps the flat list; k <= 0
// uses the configured default. The bundle's per-claim order always
// matches the plan's claim order, and a failure inside one claim never
// poisons its siblings.
func (p *Pipeline) Retrieve(ctx context.Context, plan *model.Plan, k int) *model.EvidenceBundle {
	if k <= 0 {
		k = p.cfg.Limits.FlatK
	}

	bundle := &model.EvidenceBundle{
		RunID:    plan.RunID,
		PerClaim: []model.ClaimEvidence{},
		Flat:     []model.EvidenceHit{},
	}
	if len(plan.Claims) == 0 {
		return bundle
	}

	queriesByClaim := p.frameQueries(ctx, plan)

	perClaim := make([]model.ClaimEvidence, len(plan.Claims))
	workers := p.cfg.Concurrency.ClaimWorkers
	if workers <= 1 {
		for i, claim := range plan.Claims {
			perClaim[i] = p.processClaim(ctx, plan.Jurisdiction, claim, queriesByClaim[claim.ID])
		}
	} else {
		pool := worker.NewPool(ctx, workers)
		pool.Start()
		for i, claim := range plan.Claims {
			i, claim := i, claim
			pool.Submit(func(taskCtx context.Context) {
				perClaim[i] = p.processClaim(taskCtx, plan.Jurisdiction, claim, queriesByClaim[claim.ID])
			})
		}
		pool.Wait()
	}

	bundle.PerClaim = perClaim
	bundle.Flat = mergeFlat(perClaim, k)

	p.logger.Info("retrieval done", "run_id", plan.RunID, "claims", len(perClaim), "flat", len(bundle.Flat))
	return bundle
}

// Check is the full pipeline: plan then retrieve.
func (p *Pipeline) Check(ctx context.Context, text string, k int) (*model.Plan, *model.EvidenceBundle) {
	plan := p.Plan(ctx, text)
	return plan, p.Retrieve(ctx, plan, k)
}

// processClaim runs retrieval, scoring and judging for one claim.
func (p *Pipeline) processClaim(ctx context.Context, jurisdiction string, claim model.Claim, queries []string) model.ClaimEvidence {
	evidence := model.ClaimEvidence{
		ClaimID:   claim.ID,
		ClaimText: claim.Text,
	}

	if len(queries) == 0 {
		evidence.Note = "no queries could be framed for this claim"
		return evidence
	}

	candidates := p.retrieveCandidates(ctx, jurisdiction, queries)
	keep, note := p.judgeSources(ctx, claim.Text, candidates)

	for _, idx := range keep {
		evidence.Sources = append(evidence.Sources, candidates[idx])
	}

	evidence.Note = note
	if len(evidence.Sources) == 0 && evidence.Note == "" {
		evidence.Note = "no trustable source found"
	}
	return evidence
}

// mergeFlat builds the global flat list: union of kept sources across
// claims, deduplicated by URL with the first occurrence (in claim
// order) winning, sorted by descending trust tier then ascending
// domain, truncated to k. Running it twice over its own output yields
// the same list.
func mergeFlat(perClaim []model.ClaimEvidence, k int) []model.EvidenceHit {
	seen := make(map[string]bool)
	flat := []model.EvidenceHit{}

	for _, ce := range perClaim {
		for _, s := range ce.Sources {
			if s.URL == "" || seen[s.URL] {
				continue
			}
			seen[s.URL] = true
			flat = append(flat, s)
		}
	}

	sort.SliceStable(flat, func(i, j int) bool {
		if flat[i].TrustTier != flat[j].TrustTier {
			return flat[i].TrustTier > flat[j].TrustTier
		}
		return flat[i].Domain < flat[j].Domain
	})

	if k > 0 && len(flat) > k {
		flat = flat[:k]
	}
	return flat
}
