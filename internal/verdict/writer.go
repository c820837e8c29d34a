package verdict

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nkarpov/claimsift/internal/llm"
	"github.com/nkarpov/claimsift/internal/model"
)

const systemWriter = `You are a calm, empathetic misinformation checker.
TONE: kind, neutral, non-confrontational; acknowledge why message feels plausible.
METHOD: Given the parsed claims (explicit + implied + polarising flags) and per-claim trusted sources,
assess each claim with a label in {Verified, Partially supported, Unsubstantiated, Unsupported & polarising, Uncertain}.
Cite sources as [C{id}-S{n}]. If none for a claim, say so and suggest what evidence would help.
OUTPUT (Markdown):
### Calm review
1-2 gentle sentences acknowledging concerns.

**Claims in the message:**
1) <claim text>
   - **Status:** <label>
   - **Why:** 1-3 bullets citing [C{id}-S{n}] when possible.

**Overall:** 1 short integrative paragraph.
**What would settle it:** 1-3 specific data/doc pointers.`

const maxInputRunes = 6000

// Writer synthesizes a reader-facing markdown verdict from a plan and
// its evidence bundle. It is a collaborator of the pipeline, not a
// stage: callers that only want the bundle never construct one.
type Writer struct {
	client  llm.Client
	modelID string
	logger  *slog.Logger
}

// NewWriter builds a verdict writer. client must be non-nil.
func NewWriter(client llm.Client, modelID string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{client: client, modelID: modelID, logger: logger}
}

// claimRef is the compact claim projection included in the prompt.
type claimRef struct {
	ID         string `json:"id"`
	Claim      string `json:"claim"`
	HasSources bool   `json:"has_sources"`
}

// Write produces the verdict markdown. Failure yields an apologetic
// error string rather than an error: the bundle is still useful without
// a verdict and callers render whatever comes back.
func (w *Writer) Write(ctx context.Context, text string, plan *model.Plan, bundle *model.EvidenceBundle) string {
	if w.client == nil {
		return "Error verifying claim: reasoning service unavailable"
	}

	refs := make([]claimRef, 0, len(bundle.PerClaim))
	for _, ce := range bundle.PerClaim {
		refs = append(refs, claimRef{
			ID:         ce.ClaimID,
			Claim:      ce.ClaimText,
			HasSources: len(ce.Sources) > 0,
		})
	}
	refsJSON, err := json.Marshal(refs)
	if err != nil {
		return fmt.Sprintf("Error verifying claim: %v", err)
	}

	user := fmt.Sprintf(`User message:
"""%s"""

Parsed claims:
%s

Trusted sources (grouped by claim, cite as [C{id}-S{n}]):
%s
`, capRunes(text, maxInputRunes), refsJSON, sourcesMarkdown(bundle.PerClaim))

	out, err := w.client.Complete(ctx, llm.Request{
		Model:       w.modelID,
		System:      systemWriter,
		User:        user,
		Temperature: 0.2,
	})
	if err != nil {
		w.logger.Warn("verdict synthesis failed", "error", err)
		return fmt.Sprintf("Error verifying claim: %v", err)
	}
	return out
}

// sourcesMarkdown renders per-claim source blocks with stable
// [C{id}-S{n}] anchors the model cites back.
func sourcesMarkdown(perClaim []model.ClaimEvidence) string {
	var blocks []string

	for _, ce := range perClaim {
		if len(ce.Sources) == 0 {
			blocks = append(blocks, fmt.Sprintf("**Claim %s:** _no trustable source found_. Note: %s", ce.ClaimID, ce.Note))
			continue
		}

		lines := []string{fmt.Sprintf("**Claim %s:** %s", ce.ClaimID, ce.ClaimText)}
		for i, s := range ce.Sources {
			title := s.Title
			if title == "" {
				title = "(untitled)"
			}
			lines = append(lines, fmt.Sprintf("- [C%s-S%d] **[%s](%s)** — _tier %d: %s_\n  %s",
				ce.ClaimID, i+1, title, s.URL, s.TrustTier, s.TrustReason, s.Snippet))
		}
		if ce.Note != "" {
			lines = append(lines, fmt.Sprintf("_Note:_ %s", ce.Note))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	return strings.Join(blocks, "\n\n")
}

func capRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
