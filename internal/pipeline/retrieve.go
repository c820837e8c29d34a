package pipeline

import (
	"context"

	"github.com/nkarpov/claimsift/internal/model"
	"github.com/nkarpov/claimsift/internal/trust"
)

const enrichSnippetLen = 700

// retrieveCandidates fans a claim's queries out to the evidence
// provider, scores every hit with the trust classifier, and accumulates
// candidates up to the per-claim cap. Provider errors degrade to an
// empty result for that query; the tier and reason assigned here are
// final.
func (p *Pipeline) retrieveCandidates(ctx context.Context, jurisdiction string, queries []string) []model.EvidenceHit {
	var candidates []model.EvidenceHit
	limit := p.cfg.Limits.MaxCandidatesPerClaim

	for _, query := range queries {
		if err := p.throttle.Wait(ctx); err != nil {
			// Cancelled mid-claim: keep whatever we have.
			return candidates
		}

		hits, err := p.provider.Search(ctx, query, p.cfg.Limits.MaxResultsPerQuery)
		if err != nil {
			p.logger.Debug("provider search failed", "query", query, "error", err)
			continue
		}

		for _, h := range hits {
			if h.URL == "" {
				continue
			}

			domain := trust.Domain(h.URL)
			tier, reason := p.trust.Classify(domain, jurisdiction)

			snippet := h.Snippet
			if snippet == "" && p.fetcher != nil {
				if text, err := p.fetcher.Snippet(ctx, h.URL, enrichSnippetLen); err == nil {
					snippet = text
				}
			}

			candidates = append(candidates, model.EvidenceHit{
				Title:       h.Title,
				URL:         h.URL,
				Snippet:     snippet,
				Domain:      domain,
				TrustTier:   tier,
				TrustReason: reason,
			})
			if len(candidates) >= limit {
				return candidates
			}
		}
	}
	return candidates
}
