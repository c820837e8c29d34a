package model

// ClaimKind categorizes how a claim appears in the source text
type ClaimKind string

const (
	ClaimExplicit ClaimKind = "explicit" // Stated outright in the text
	ClaimImplied  ClaimKind = "implied"  // A reasonable reader would infer it
)

// Claim represents a discrete, checkable assertion extracted from user text.
// The JSON tags match the reasoning-service wire format.
type Claim struct {
	ID         string    `json:"id"`                  // Unique within a plan (C1, C2, ...)
	Text       string    `json:"claim"`               // The assertion itself
	Kind       ClaimKind `json:"type"`                // explicit or implied
	Polarising bool      `json:"polarising"`          // Framed to provoke rather than inform
	Entities   []string  `json:"entities,omitempty"`  // Named entities grounding the claim
	Numbers    []string  `json:"numbers,omitempty"`   // Figures and quantities mentioned
	TimeRefs   []string  `json:"time_refs,omitempty"` // Dates, periods, "last year", etc.
}

// Plan is the reviewed output of claim extraction for one pipeline run.
type Plan struct {
	RunID        string  `json:"run_id,omitempty"`
	Jurisdiction string  `json:"country"` // "Unknown" when the text gives no hint
	Claims       []Claim `json:"claims"`
}
