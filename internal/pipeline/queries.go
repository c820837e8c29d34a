package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/nkarpov/claimsift/internal/llm"
	"github.com/nkarpov/claimsift/internal/model"
)

const systemFrame = `You craft short, high-recall web search queries for each claim.
For each claim, propose up to %d queries, each at most %d words, grounded in entities/numbers/places/time.
Prefer neutral phrasing (no opinion words). If country provided, steer to that jurisdiction.
Return STRICT JSON: {claims:[{id, queries:[]}]}`

const systemQueryReview = `You review the proposed queries:
- Remove duplicates, remove opinionated phrasing, ensure at most %d words each.
- Ensure queries are sufficient to verify or falsify the claim.
Return SAME JSON.`

const localizeHint = "\nAlways include the jurisdiction in at least one query per claim."

type queryPayload struct {
	Country string       `json:"country"`
	Claims  []claimQuery `json:"claims"`
}

type claimQuery struct {
	ID      string   `json:"id"`
	Queries []string `json:"queries"`
}

var (
	whitespaceRE   = regexp.MustCompile(`\s+`)
	nonPrintableRE = regexp.MustCompile(`[^\x20-\x7E]+`)
)

// frameQueries proposes and reviews search queries for every claim in
// the plan. Frame failure leaves every claim with no queries — reported
// downstream through the claim's note, never fatal. Review failure
// keeps the framed queries.
func (p *Pipeline) frameQueries(ctx context.Context, plan *model.Plan) map[string][]string {
	out := make(map[string][]string, len(plan.Claims))
	for _, c := range plan.Claims {
		out[c.ID] = nil
	}
	if p.client == nil || len(plan.Claims) == 0 {
		return out
	}

	system := fmt.Sprintf(systemFrame, p.cfg.Limits.MaxQueriesPerClaim, p.cfg.Limits.QueryMaxWords)
	if p.mode.Localize && plan.Jurisdiction != "" && plan.Jurisdiction != "Unknown" {
		system += localizeHint
	}

	body, err := json.Marshal(planPayload{Country: plan.Jurisdiction, Claims: plan.Claims})
	if err != nil {
		return out
	}

	raw, err := p.client.CompleteJSON(ctx, llm.Request{
		Model:  p.cfg.LLM.Models.For("framer"),
		System: system,
		User:   string(body),
	})
	if err != nil {
		p.logger.Warn("query framing failed", "error", err)
		return out
	}

	var framed queryPayload
	if err := json.Unmarshal(raw, &framed); err != nil {
		p.logger.Warn("query framing returned malformed JSON", "error", err)
		return out
	}

	byClaim := make(map[string][]string, len(framed.Claims))
	for _, cq := range framed.Claims {
		byClaim[cq.ID] = cq.Queries
	}

	byClaim = p.reviewQueries(ctx, plan.Jurisdiction, byClaim)

	for _, c := range plan.Claims {
		out[c.ID] = normalizeQueries(byClaim[c.ID], p.cfg.Limits.QueryMaxWords, p.cfg.Limits.MaxQueriesPerClaim)
	}
	return out
}

// reviewQueries runs the second pass; failure keeps the framed set.
func (p *Pipeline) reviewQueries(ctx context.Context, country string, byClaim map[string][]string) map[string][]string {
	if len(byClaim) == 0 {
		return byClaim
	}

	payload := queryPayload{Country: country}
	for id, queries := range byClaim {
		payload.Claims = append(payload.Claims, claimQuery{ID: id, Queries: queries})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return byClaim
	}

	raw, err := p.client.CompleteJSON(ctx, llm.Request{
		Model:  p.cfg.LLM.Models.For("query_reviewer"),
		System: fmt.Sprintf(systemQueryReview, p.cfg.Limits.QueryMaxWords),
		User:   string(body),
	})
	if err != nil {
		p.logger.Warn("query review failed, keeping framed queries", "error", err)
		return byClaim
	}

	var reviewed queryPayload
	if err := json.Unmarshal(raw, &reviewed); err != nil {
		p.logger.Warn("query review returned malformed JSON, keeping framed queries", "error", err)
		return byClaim
	}

	out := make(map[string][]string, len(reviewed.Claims))
	for _, cq := range reviewed.Claims {
		out[cq.ID] = cq.Queries
	}
	return out
}

// normalizeQueries shortens, dedupes (case-insensitive) and caps a
// claim's query list.
func normalizeQueries(queries []string, maxWords, maxQueries int) []string {
	seen := make(map[string]bool)
	var out []string

	for _, q := range queries {
		q = shorten(q, maxWords)
		if q == "" {
			continue
		}
		key := strings.ToLower(q)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
		if len(out) >= maxQueries {
			break
		}
	}
	return out
}

// shorten collapses whitespace, strips non-printable characters and
// truncates to the word budget.
func shorten(text string, maxWords int) string {
	text = whitespaceRE.ReplaceAllString(text, " ")
	text = nonPrintableRE.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	words := strings.Fields(text)
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}
