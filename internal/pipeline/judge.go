package pipeline

import (
	"context"
	"encoding/json"

	"github.com/nkarpov/claimsift/internal/llm"
	"github.com/nkarpov/claimsift/internal/model"
	"github.com/nkarpov/claimsift/internal/trust"
)

const systemJudge = `You are a strict source judge.
Input: a single claim, a list of fetched results (title, url, snippet, domain, trust_tier, trust_reason).
Goal: choose ONLY trustworthy, directly relevant sources (ideally gov/official/data, major outlets, fact-checkers). Reject unvetted/weak domains unless nothing else exists.
Return STRICT JSON: {keep:[indices...], note:"why"}. If none are trustworthy, keep:[], add a brief note.`

const opposingHint = `
When reputable sources across the ideological spectrum address the claim, keep representatives of each rather than one side only.`

const officialHint = `
Strongly prefer official/government/statistical sources over media coverage whenever both address the claim.`

const (
	fallbackNote     = "fallback: kept highest trust"
	noCandidatesNote = "no candidates"
	fallbackKeepCap  = 3

	judgeTitleLen   = 160
	judgeSnippetLen = 600
)

// judgeCandidate is the compact projection sent to the judge; index
// positions identify candidates in the verdict.
type judgeCandidate struct {
	Index       int    `json:"i"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet"`
	Domain      string `json:"domain"`
	TrustTier   int    `json:"trust_tier"`
	TrustReason string `json:"trust_reason"`
}

type judgePayload struct {
	Claim      string           `json:"claim"`
	Candidates []judgeCandidate `json:"candidates"`
}

type judgeVerdict struct {
	Keep []int  `json:"keep"`
	Note string `json:"note"`
}

// judgeSources asks the reasoning service to select the trustworthy,
// relevant subset of scored candidates. On any service failure it falls
// back deterministically: all candidates with tier >= 1, in order,
// capped, with a fixed note.
func (p *Pipeline) judgeSources(ctx context.Context, claimText string, candidates []model.EvidenceHit) ([]int, string) {
	if len(candidates) == 0 {
		return nil, noCandidatesNote
	}
	if p.client == nil {
		return judgeFallback(candidates), fallbackNote
	}

	payload := judgePayload{Claim: claimText}
	for i, c := range candidates {
		payload.Candidates = append(payload.Candidates, judgeCandidate{
			Index:       i,
			Title:       clip(c.Title, judgeTitleLen),
			URL:         c.URL,
			Snippet:     clip(c.Snippet, judgeSnippetLen),
			Domain:      c.Domain,
			TrustTier:   c.TrustTier,
			TrustReason: c.TrustReason,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return judgeFallback(candidates), fallbackNote
	}

	system := systemJudge
	if p.mode.Name == "official" {
		system += officialHint
	}
	if p.mode.IncludeOpposing {
		system += opposingHint
	}

	raw, err := p.client.CompleteJSON(ctx, llm.Request{
		Model:  p.cfg.LLM.Models.For("judge"),
		System: system,
		User:   string(body),
	})
	if err != nil {
		p.logger.Warn("source judging failed, applying trust-tier fallback", "error", err)
		return judgeFallback(candidates), fallbackNote
	}

	var verdict judgeVerdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		p.logger.Warn("source judging returned malformed JSON, applying trust-tier fallback", "error", err)
		return judgeFallback(candidates), fallbackNote
	}

	return sanitizeIndices(verdict.Keep, len(candidates)), verdict.Note
}

// judgeFallback keeps the indices of candidates at or above the
// reputable tier, in candidate order, capped.
func judgeFallback(candidates []model.EvidenceHit) []int {
	var keep []int
	for i, c := range candidates {
		if c.TrustTier >= trust.TierReputable {
			keep = append(keep, i)
			if len(keep) >= fallbackKeepCap {
				break
			}
		}
	}
	return keep
}

// sanitizeIndices drops out-of-range and duplicate indices while
// preserving the judge's ordering.
func sanitizeIndices(indices []int, n int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, idx := range indices {
		if idx < 0 || idx >= n || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return out
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
