package model

import "time"

// SearchHit is a raw result from an evidence provider, normalized at the
// adapter boundary regardless of the provider's own field names.
type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// EvidenceHit is a search hit after trust scoring. Tier and reason are
// assigned once, at scoring time, and never recomputed.
type EvidenceHit struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet"`
	Domain      string `json:"domain"` // Registrable domain, lowercased
	TrustTier   int    `json:"trust_tier"`
	TrustReason string `json:"trust_reason"`
}

// ClaimEvidence holds the sources that survived judging for one claim.
// Note must explain the situation whenever Sources is empty.
type ClaimEvidence struct {
	ClaimID   string        `json:"claim_id"`
	ClaimText string        `json:"claim_text"`
	Sources   []EvidenceHit `json:"sources"`
	Note      string        `json:"note,omitempty"`
}

// EvidenceBundle is the final pipeline output: kept sources grouped per
// claim (in input claim order) plus a globally deduplicated, trust-ranked
// flat list truncated to the caller's cap.
type EvidenceBundle struct {
	RunID    string          `json:"run_id,omitempty"`
	PerClaim []ClaimEvidence `json:"per_claim"`
	Flat     []EvidenceHit   `json:"flat"`
}

// Credibility grades a publisher's editorial reliability
type Credibility string

const (
	CredibilityHigh    Credibility = "High"
	CredibilityMedium  Credibility = "Medium"
	CredibilityLow     Credibility = "Low"
	CredibilityUnknown Credibility = "Unknown"
)

// Bias grades a publisher's political leaning
type Bias string

const (
	BiasLeft        Bias = "Left"
	BiasCentreLeft  Bias = "Centre-Left"
	BiasCentre      Bias = "Centre"
	BiasCentreRight Bias = "Centre-Right"
	BiasRight       Bias = "Right"
	BiasUnknown     Bias = "Unknown"
)

// ReputationRecord is the cached result of domain reputation analysis.
type ReputationRecord struct {
	Domain      string      `json:"domain"`
	Credibility Credibility `json:"credibility"`
	Bias        Bias        `json:"bias"`
	Rationale   string      `json:"rationale"`
	Citations   []string    `json:"citations,omitempty"` // At most 3 supporting URLs
	AnalyzedAt  time.Time   `json:"analyzed_at"`
}
