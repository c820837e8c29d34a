package trust

import "testing"

func TestClassifier_PriorityOrder(t *testing.T) {
	classifier := NewClassifier(nil)

	tests := []struct {
		domain       string
		jurisdiction string
		wantTier     int
		desc         string
	}{
		{
			domain:       "ncrb.gov.in",
			jurisdiction: "India",
			wantTier:     TierOfficial,
			desc:         "Official suffix wins over jurisdiction tier-2 listing",
		},
		{
			domain:       "cdc.gov",
			jurisdiction: "Unknown",
			wantTier:     TierOfficial,
			desc:         "Plain .gov suffix",
		},
		{
			domain:       "thehindu.com",
			jurisdiction: "India",
			wantTier:     TierCurated,
			desc:         "Jurisdiction tier-2 match",
		},
		{
			domain:       "thehindu.com",
			jurisdiction: "Unknown",
			wantTier:     TierUnvetted,
			desc:         "Tier-2 list requires matching jurisdiction hint",
		},
		{
			domain:       "who.int",
			jurisdiction: "India",
			wantTier:     TierReputable,
			desc:         "International organization",
		},
		{
			domain:       "reuters.com",
			jurisdiction: "Unknown",
			wantTier:     TierReputable,
			desc:         "Global tier-1 media",
		},
		{
			domain:       "snopes.com",
			jurisdiction: "Unknown",
			wantTier:     TierReputable,
			desc:         "Global fact-checker",
		},
		{
			domain:       "wikipedia.org",
			jurisdiction: "Unknown",
			wantTier:     TierUnvetted,
			desc:         "Low-signal platform",
		},
		{
			domain:       "myblog.wordpress.com",
			jurisdiction: "Unknown",
			wantTier:     TierUnvetted,
			desc:         "Low-signal by suffix",
		},
		{
			domain:       "randomsite.com",
			jurisdiction: "Unknown",
			wantTier:     TierUnvetted,
			desc:         "Unknown domain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			tier, reason := classifier.Classify(tt.domain, tt.jurisdiction)
			if tier != tt.wantTier {
				t.Errorf("Classify(%q, %q) tier = %d, want %d", tt.domain, tt.jurisdiction, tier, tt.wantTier)
			}
			if reason == "" {
				t.Errorf("Classify(%q, %q) returned empty reason", tt.domain, tt.jurisdiction)
			}
		})
	}
}

func TestClassifier_LowSignalReason(t *testing.T) {
	classifier := NewClassifier(nil)

	tier, reason := classifier.Classify("quora.com", "Unknown")
	if tier != TierUnvetted {
		t.Errorf("Expected tier %d, got %d", TierUnvetted, tier)
	}
	if reason != "low-signal/openly editable/community" {
		t.Errorf("Unexpected reason: %s", reason)
	}

	_, other := classifier.Classify("example.com", "Unknown")
	if other != "unvetted/other" {
		t.Errorf("Unexpected reason for unknown domain: %s", other)
	}
}

func TestClassifier_Total(t *testing.T) {
	classifier := NewClassifier(nil)

	// Garbage input must still produce a tier in range, never a panic.
	inputs := []string{"", "   ", "GOV", "ex ample.com", ".....", "localhost", "xn--p1ai"}
	for _, input := range inputs {
		tier, _ := classifier.Classify(input, "nowhere")
		if tier < TierUnvetted || tier > TierOfficial {
			t.Errorf("Classify(%q) tier out of range: %d", input, tier)
		}
	}
}

func TestClassifier_JurisdictionCaseInsensitive(t *testing.T) {
	classifier := NewClassifier(nil)

	for _, juris := range []string{"india", "India", "INDIA"} {
		tier, _ := classifier.Classify("altnews.in", juris)
		if tier != TierCurated {
			t.Errorf("Classify(altnews.in, %q) = %d, want %d", juris, tier, TierCurated)
		}
	}
}

func TestClassifier_CustomConfig(t *testing.T) {
	classifier := NewClassifier(&Config{
		OfficialSuffixes: []string{".gov.uk"},
		JurisdictionTier2: map[string][]string{
			"uk": {"fullfact.org"},
		},
	})

	tier, _ := classifier.Classify("ons.gov.uk", "UK")
	if tier != TierOfficial {
		t.Errorf("Expected official tier for ons.gov.uk, got %d", tier)
	}

	tier, _ = classifier.Classify("fullfact.org", "UK")
	if tier != TierCurated {
		t.Errorf("Expected curated tier for fullfact.org under UK, got %d", tier)
	}

	// Not in this config's global lists.
	tier, _ = classifier.Classify("reuters.com", "UK")
	if tier != TierUnvetted {
		t.Errorf("Expected unvetted for reuters.com with custom config, got %d", tier)
	}
}

func TestDomain(t *testing.T) {
	tests := []struct {
		rawURL string
		want   string
		desc   string
	}{
		{"https://www.ncrb.gov.in/en/crime-data", "ncrb.gov.in", "Indian government subdomain"},
		{"https://en.wikipedia.org/wiki/Vaccine", "wikipedia.org", "Subdomain collapses to registrable domain"},
		{"http://BBC.CO.UK/news", "bbc.co.uk", "Multi-label public suffix, lowercased"},
		{"https://example.com:8080/path", "example.com", "Port stripped"},
		{"reuters.com", "reuters.com", "Bare domain without scheme"},
		{"not a url at all", "", "Garbage input"},
		{"", "", "Empty input"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := Domain(tt.rawURL); got != tt.want {
				t.Errorf("Domain(%q) = %q, want %q", tt.rawURL, got, tt.want)
			}
		})
	}
}
