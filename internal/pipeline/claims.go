package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nkarpov/claimsift/internal/llm"
	"github.com/nkarpov/claimsift/internal/model"
)

const systemClaims = `You extract claims & polarising framings from user text for fact-checking.
Return STRICT JSON with fields: country, claims[]. Each claim has: id, claim, type(explicit|implied), polarising(bool), entities[], numbers[], time_refs[].
Max %d claims.`

const systemClaimReview = `Review extracted claims:
- Merge duplicates, split over-broad claims.
- Ensure implied claims exist where a reasonable reader would infer them.
- Keep at most %d claims.
Return SAME JSON.`

// planPayload is the wire shape shared by the extract and review passes.
type planPayload struct {
	Country string        `json:"country"`
	Claims  []model.Claim `json:"claims"`
}

// extractClaims runs the first pass over raw user text. Any service or
// parse failure yields no claims; the pipeline proceeds and reports
// "no claims found" downstream.
func (p *Pipeline) extractClaims(ctx context.Context, text string) (string, []model.Claim) {
	if p.client == nil {
		return "Unknown", nil
	}

	raw, err := p.client.CompleteJSON(ctx, llm.Request{
		Model:  p.cfg.LLM.Models.For("extractor"),
		System: fmt.Sprintf(systemClaims, p.cfg.Limits.MaxClaims),
		User:   text,
	})
	if err != nil {
		p.logger.Warn("claim extraction failed", "error", err)
		return "Unknown", nil
	}

	var payload planPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		p.logger.Warn("claim extraction returned malformed JSON", "error", err)
		return "Unknown", nil
	}

	country := strings.TrimSpace(payload.Country)
	if country == "" {
		country = "Unknown"
	}
	return country, payload.Claims
}

// reviewClaims runs the second pass. Review failure is non-fatal: the
// pre-review list is kept silently.
func (p *Pipeline) reviewClaims(ctx context.Context, country string, claims []model.Claim) (string, []model.Claim) {
	if p.client == nil || len(claims) == 0 {
		return country, claims
	}

	body, err := json.Marshal(planPayload{Country: country, Claims: claims})
	if err != nil {
		return country, claims
	}

	raw, err := p.client.CompleteJSON(ctx, llm.Request{
		Model:  p.cfg.LLM.Models.For("reviewer"),
		System: fmt.Sprintf(systemClaimReview, p.cfg.Limits.MaxClaims),
		User:   string(body),
	})
	if err != nil {
		p.logger.Warn("claim review failed, keeping extracted claims", "error", err)
		return country, claims
	}

	var payload planPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		p.logger.Warn("claim review returned malformed JSON, keeping extracted claims", "error", err)
		return country, claims
	}

	if c := strings.TrimSpace(payload.Country); c != "" {
		country = c
	}
	if len(payload.Claims) > 0 {
		claims = payload.Claims
	}
	return country, claims
}

// normalizeClaims enforces the data invariants the reasoning service is
// not trusted to uphold: non-empty text, unique ids, the claim cap, and
// a valid kind. Violations are corrected in place, never raised.
func normalizeClaims(claims []model.Claim, maxClaims int) []model.Claim {
	seen := make(map[string]bool)
	out := make([]model.Claim, 0, maxClaims)

	for _, c := range claims {
		if len(out) >= maxClaims {
			break
		}

		c.Text = strings.TrimSpace(c.Text)
		if c.Text == "" {
			continue
		}

		if c.Kind != model.ClaimImplied {
			c.Kind = model.ClaimExplicit
		}

		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" || seen[c.ID] {
			c.ID = nextSyntheticID(seen, len(out)+1)
		}
		seen[c.ID] = true

		out = append(out, c)
	}
	return out
}

// nextSyntheticID picks the first free C<n> starting from the claim's
// position, skipping ids the service already used.
func nextSyntheticID(seen map[string]bool, start int) string {
	for n := start; ; n++ {
		candidate := fmt.Sprintf("C%d", n)
		if !seen[candidate] {
			return candidate
		}
	}
}

// capRunes bounds untrusted input before it reaches any prompt.
func capRunes(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
