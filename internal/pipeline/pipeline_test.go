package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nkarpov/claimsift/internal/llm"
	"github.com/nkarpov/claimsift/internal/model"
	"github.com/nkarpov/claimsift/internal/search"
)

// fakeClient routes every call through a single respond func so tests
// can script each stage by inspecting the system prompt.
type fakeClient struct {
	respond func(req llm.Request) ([]byte, error)
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) Complete(_ context.Context, req llm.Request) (string, error) {
	raw, err := f.respond(req)
	return string(raw), err
}

func (f *fakeClient) CompleteJSON(_ context.Context, req llm.Request) ([]byte, error) {
	return f.respond(req)
}

// fakeProvider serves canned hits per query.
type fakeProvider struct {
	byQuery map[string][]model.SearchHit
	err     error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Search(_ context.Context, query string, _ int) ([]model.SearchHit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byQuery[query], nil
}

// scriptedClient serves a fixed plan and queries and fails the judge,
// which is the shape most end-to-end cases want.
func scriptedClient(planJSON, queriesJSON string, judgeJSON string, judgeErr error) *fakeClient {
	return &fakeClient{respond: func(req llm.Request) ([]byte, error) {
		switch {
		case strings.HasPrefix(req.System, "You extract"):
			return []byte(planJSON), nil
		case strings.HasPrefix(req.System, "Review extracted"):
			return []byte(planJSON), nil
		case strings.HasPrefix(req.System, "You craft"):
			return []byte(queriesJSON), nil
		case strings.HasPrefix(req.System, "You review the proposed"):
			return []byte(queriesJSON), nil
		case strings.HasPrefix(req.System, "You are a strict source judge"):
			if judgeErr != nil {
				return nil, judgeErr
			}
			return []byte(judgeJSON), nil
		}
		return nil, errors.New("unexpected prompt")
	}}
}

func newTestPipeline(t *testing.T, client llm.Client, provider search.Provider) *Pipeline {
	t.Helper()
	return NewPipeline(model.DefaultConfig(), client, provider,
		WithThrottle(search.NewThrottle(0)))
}

func TestNormalizeClaims(t *testing.T) {
	in := []model.Claim{
		{ID: "C1", Text: "  first claim  "},
		{ID: "C1", Text: "duplicate id", Kind: model.ClaimImplied},
		{ID: "", Text: "missing id"},
		{ID: "C9", Text: "   "},
		{ID: "C5", Text: "fifth", Kind: "weird"},
	}

	out := normalizeClaims(in, 6)
	if len(out) != 4 {
		t.Fatalf("normalizeClaims kept %d claims, want 4", len(out))
	}

	if out[0].Text != "first claim" {
		t.Errorf("text not trimmed: %q", out[0].Text)
	}
	if out[0].Kind != model.ClaimExplicit {
		t.Errorf("missing kind not defaulted: %q", out[0].Kind)
	}
	if out[1].Kind != model.ClaimImplied {
		t.Errorf("implied kind not preserved: %q", out[1].Kind)
	}
	if out[3].Kind != model.ClaimExplicit {
		t.Errorf("invalid kind not corrected: %q", out[3].Kind)
	}

	seen := map[string]bool{}
	for _, c := range out {
		if c.ID == "" {
			t.Errorf("claim %q left without id", c.Text)
		}
		if seen[c.ID] {
			t.Errorf("duplicate id %q survived normalization", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestNormalizeClaims_Cap(t *testing.T) {
	var in []model.Claim
	for i := 0; i < 10; i++ {
		in = append(in, model.Claim{Text: "claim"})
	}
	if got := normalizeClaims(in, 6); len(got) != 6 {
		t.Fatalf("cap not enforced: got %d claims", len(got))
	}
}

func TestNormalizeQueries(t *testing.T) {
	in := []string{
		"GDP growth 2023 official data",
		"gdp growth 2023 OFFICIAL data",
		"one two three four five six seven eight nine ten eleven twelve thirteen",
		"   ",
		"crime statistics",
		"unemployment rate",
	}

	out := normalizeQueries(in, 12, 3)
	if len(out) != 3 {
		t.Fatalf("got %d queries, want 3: %v", len(out), out)
	}
	if out[0] != "GDP growth 2023 official data" {
		t.Errorf("first query mangled: %q", out[0])
	}
	if got := len(strings.Fields(out[1])); got != 12 {
		t.Errorf("long query not cut to 12 words, got %d", got)
	}
}

func TestShorten(t *testing.T) {
	cases := []struct {
		desc string
		in   string
		want string
	}{
		{"collapses whitespace", "a\t b\n  c", "a b c"},
		{"strips non-printable", "café data", "caf data"},
		{"word cap", "one two three four", "one two three"},
		{"empty", "   ", ""},
	}
	for _, tc := range cases {
		if got := shorten(tc.in, 3); got != tc.want {
			t.Errorf("%s: shorten(%q) = %q, want %q", tc.desc, tc.in, got, tc.want)
		}
	}
}

func TestJudgeFallback(t *testing.T) {
	candidates := []model.EvidenceHit{
		{URL: "a", TrustTier: 0},
		{URL: "b", TrustTier: 3},
		{URL: "c", TrustTier: 1},
		{URL: "d", TrustTier: 0},
		{URL: "e", TrustTier: 2},
		{URL: "f", TrustTier: 3},
	}

	keep := judgeFallback(candidates)
	want := []int{1, 2, 4}
	if len(keep) != len(want) {
		t.Fatalf("kept %v, want %v", keep, want)
	}
	for i := range want {
		if keep[i] != want[i] {
			t.Fatalf("kept %v, want %v", keep, want)
		}
	}
}

func TestSanitizeIndices(t *testing.T) {
	got := sanitizeIndices([]int{3, -1, 0, 3, 99, 1}, 4)
	want := []int{3, 0, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestMergeFlat(t *testing.T) {
	perClaim := []model.ClaimEvidence{
		{ClaimID: "C1", Sources: []model.EvidenceHit{
			{URL: "https://example.com/a", Domain: "example.com", TrustTier: 0},
			{URL: "https://who.int/x", Domain: "who.int", TrustTier: 1},
		}},
		{ClaimID: "C2", Sources: []model.EvidenceHit{
			{URL: "https://who.int/x", Domain: "who.int", TrustTier: 1},
			{URL: "https://cdc.gov/b", Domain: "cdc.gov", TrustTier: 3},
			{URL: "https://apnews.com/c", Domain: "apnews.com", TrustTier: 1},
		}},
	}

	flat := mergeFlat(perClaim, 6)

	wantURLs := []string{
		"https://cdc.gov/b",      // tier 3
		"https://apnews.com/c",   // tier 1, apnews.com < who.int
		"https://who.int/x",      // tier 1, first occurrence (C1's copy)
		"https://example.com/a",  // tier 0
	}
	if len(flat) != len(wantURLs) {
		t.Fatalf("got %d entries, want %d: %+v", len(flat), len(wantURLs), flat)
	}
	for i, u := range wantURLs {
		if flat[i].URL != u {
			t.Errorf("flat[%d] = %q, want %q", i, flat[i].URL, u)
		}
	}

	// Merging the merged output again yields the same list.
	again := mergeFlat([]model.ClaimEvidence{{Sources: flat}}, 6)
	if len(again) != len(flat) {
		t.Fatalf("merge not idempotent: %d vs %d", len(again), len(flat))
	}
	for i := range flat {
		if again[i].URL != flat[i].URL {
			t.Errorf("merge not idempotent at %d: %q vs %q", i, again[i].URL, flat[i].URL)
		}
	}
}

func TestMergeFlat_Truncates(t *testing.T) {
	perClaim := []model.ClaimEvidence{{Sources: []model.EvidenceHit{
		{URL: "u1", Domain: "a", TrustTier: 1},
		{URL: "u2", Domain: "b", TrustTier: 1},
		{URL: "u3", Domain: "c", TrustTier: 1},
	}}}
	if got := mergeFlat(perClaim, 2); len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
}

func TestPlan_ServiceOutage(t *testing.T) {
	client := &fakeClient{respond: func(llm.Request) ([]byte, error) {
		return nil, errors.New("service down")
	}}
	p := newTestPipeline(t, client, &fakeProvider{})

	plan := p.Plan(context.Background(), "The ministry slashed the budget by 40%.")
	if plan.RunID == "" {
		t.Error("plan missing run id")
	}
	if plan.Jurisdiction != "Unknown" {
		t.Errorf("jurisdiction = %q, want Unknown", plan.Jurisdiction)
	}
	if len(plan.Claims) != 0 {
		t.Errorf("got %d claims under outage, want 0", len(plan.Claims))
	}

	bundle := p.Retrieve(context.Background(), plan, 0)
	if bundle.RunID != plan.RunID {
		t.Errorf("bundle run id %q != plan run id %q", bundle.RunID, plan.RunID)
	}
	if len(bundle.PerClaim) != 0 || len(bundle.Flat) != 0 {
		t.Errorf("outage bundle not empty: %+v", bundle)
	}
}

func TestPlan_ReviewFailureKeepsExtracted(t *testing.T) {
	client := &fakeClient{respond: func(req llm.Request) ([]byte, error) {
		if strings.HasPrefix(req.System, "You extract") {
			return []byte(`{"country":"India","claims":[{"id":"C1","claim":"crime doubled","type":"explicit"}]}`), nil
		}
		return nil, errors.New("review down")
	}}
	p := newTestPipeline(t, client, &fakeProvider{})

	plan := p.Plan(context.Background(), "crime doubled this year")
	if plan.Jurisdiction != "India" {
		t.Errorf("jurisdiction = %q, want India", plan.Jurisdiction)
	}
	if len(plan.Claims) != 1 || plan.Claims[0].Text != "crime doubled" {
		t.Fatalf("extracted claims not kept: %+v", plan.Claims)
	}
}

func TestCheck_JudgeOutageFallsBackToTrust(t *testing.T) {
	planJSON := `{"country":"Unknown","claims":[{"id":"C1","claim":"the agency confirmed the outbreak","type":"explicit"}]}`
	queriesJSON := `{"claims":[{"id":"C1","queries":["agency outbreak confirmation"]}]}`
	client := scriptedClient(planJSON, queriesJSON, "", errors.New("judge down"))

	provider := &fakeProvider{byQuery: map[string][]model.SearchHit{
		"agency outbreak confirmation": {
			{Title: "Outbreak report", URL: "https://cdc.gov/report", Snippet: "official report"},
			{Title: "My hot take", URL: "https://example.com/post", Snippet: "blog post"},
		},
	}}

	p := newTestPipeline(t, client, provider)
	plan, bundle := p.Check(context.Background(), "the agency confirmed the outbreak", 6)

	if len(plan.Claims) != 1 {
		t.Fatalf("got %d claims, want 1", len(plan.Claims))
	}
	if len(bundle.PerClaim) != 1 {
		t.Fatalf("got %d per-claim entries, want 1", len(bundle.PerClaim))
	}

	ce := bundle.PerClaim[0]
	if ce.Note != "fallback: kept highest trust" {
		t.Errorf("note = %q, want fallback note", ce.Note)
	}
	if len(ce.Sources) != 1 || ce.Sources[0].Domain != "cdc.gov" {
		t.Fatalf("fallback kept %+v, want only cdc.gov", ce.Sources)
	}
	if ce.Sources[0].TrustTier != 3 {
		t.Errorf("gov source tier = %d, want 3", ce.Sources[0].TrustTier)
	}

	if len(bundle.Flat) != 1 || bundle.Flat[0].URL != "https://cdc.gov/report" {
		t.Fatalf("flat = %+v, want single gov entry", bundle.Flat)
	}
}

func TestRetrieve_OverlappingURLCountedOnce(t *testing.T) {
	planJSON := `{"country":"Unknown","claims":[` +
		`{"id":"C1","claim":"first claim","type":"explicit"},` +
		`{"id":"C2","claim":"second claim","type":"explicit"}]}`
	queriesJSON := `{"claims":[{"id":"C1","queries":["first query"]},{"id":"C2","queries":["second query"]}]}`
	judgeJSON := `{"keep":[0],"note":"relevant"}`
	client := scriptedClient(planJSON, queriesJSON, judgeJSON, nil)

	shared := model.SearchHit{Title: "WHO brief", URL: "https://who.int/brief", Snippet: "brief"}
	provider := &fakeProvider{byQuery: map[string][]model.SearchHit{
		"first query":  {shared},
		"second query": {shared},
	}}

	p := newTestPipeline(t, client, provider)
	plan := p.Plan(context.Background(), "two claims about health")
	bundle := p.Retrieve(context.Background(), plan, 6)

	if len(bundle.PerClaim) != 2 {
		t.Fatalf("got %d per-claim entries, want 2", len(bundle.PerClaim))
	}
	for i, ce := range bundle.PerClaim {
		if len(ce.Sources) != 1 || ce.Sources[0].URL != shared.URL {
			t.Errorf("claim %d missing shared source: %+v", i, ce.Sources)
		}
	}
	if len(bundle.Flat) != 1 {
		t.Fatalf("flat has %d entries, want 1: %+v", len(bundle.Flat), bundle.Flat)
	}
	if bundle.Flat[0].Domain != "who.int" || bundle.Flat[0].TrustTier != 1 {
		t.Errorf("flat entry = %+v, want who.int at tier 1", bundle.Flat[0])
	}
}

func TestRetrieve_PerClaimOrderMatchesPlan(t *testing.T) {
	planJSON := `{"country":"Unknown","claims":[` +
		`{"id":"C1","claim":"alpha","type":"explicit"},` +
		`{"id":"C2","claim":"beta","type":"explicit"},` +
		`{"id":"C3","claim":"gamma","type":"explicit"}]}`
	queriesJSON := `{"claims":[{"id":"C1","queries":["q one"]},{"id":"C2","queries":["q two"]},{"id":"C3","queries":["q three"]}]}`
	client := scriptedClient(planJSON, queriesJSON, `{"keep":[],"note":"nothing usable"}`, nil)

	cfg := model.DefaultConfig()
	cfg.Concurrency.ClaimWorkers = 3
	p := NewPipeline(cfg, client, &fakeProvider{}, WithThrottle(search.NewThrottle(0)))

	plan := p.Plan(context.Background(), "three claims")
	bundle := p.Retrieve(context.Background(), plan, 6)

	if len(bundle.PerClaim) != 3 {
		t.Fatalf("got %d per-claim entries, want 3", len(bundle.PerClaim))
	}
	for i, want := range []string{"C1", "C2", "C3"} {
		if bundle.PerClaim[i].ClaimID != want {
			t.Errorf("per-claim[%d] = %q, want %q", i, bundle.PerClaim[i].ClaimID, want)
		}
	}
}

func TestProcessClaim_NoQueries(t *testing.T) {
	p := newTestPipeline(t, nil, &fakeProvider{})
	ce := p.processClaim(context.Background(), "Unknown", model.Claim{ID: "C1", Text: "orphan"}, nil)
	if len(ce.Sources) != 0 {
		t.Errorf("expected no sources, got %+v", ce.Sources)
	}
	if ce.Note == "" {
		t.Error("expected an explanatory note for a claim without queries")
	}
}

func TestProcessClaim_ProviderFailure(t *testing.T) {
	p := newTestPipeline(t, nil, &fakeProvider{err: errors.New("search down")})
	ce := p.processClaim(context.Background(), "Unknown", model.Claim{ID: "C1", Text: "claim"}, []string{"a query"})
	if len(ce.Sources) != 0 {
		t.Errorf("expected no sources, got %+v", ce.Sources)
	}
	if ce.Note != "no candidates" {
		t.Errorf("note = %q, want %q", ce.Note, "no candidates")
	}
}

func TestCapRunes(t *testing.T) {
	if got := capRunes("hello", 10); got != "hello" {
		t.Errorf("short input changed: %q", got)
	}
	if got := capRunes("héllo wörld", 5); got != "héllo" {
		t.Errorf("rune cap wrong: %q", got)
	}
	if got := capRunes("anything", 0); got != "anything" {
		t.Errorf("zero cap should disable: %q", got)
	}
}
