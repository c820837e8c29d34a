package trust

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Tier bounds for domain trust. 0 is unvetted, 3 is official/judiciary.
const (
	TierUnvetted  = 0
	TierReputable = 1
	TierCurated   = 2
	TierOfficial  = 3
)

// Config holds the allowlists the classifier evaluates. Lists are data,
// not policy: jurisdictions beyond the defaults can be added freely.
type Config struct {
	// OfficialSuffixes mark government/judiciary domains (tier 3).
	// Matched by suffix, e.g. ".gov" matches cdc.gov and data.cdc.gov.
	OfficialSuffixes []string

	// JurisdictionTier2 maps a jurisdiction name to its curated outlets,
	// fact-checkers and official data portals (tier 2, only when the
	// jurisdiction hint matches).
	JurisdictionTier2 map[string][]string

	// IntlOrgAcademic lists international organizations and
	// peer-reviewed academic publishers (tier 1).
	IntlOrgAcademic []string

	// GlobalTier1 lists globally reputable media outlets (tier 1).
	GlobalTier1 []string

	// GlobalFactCheck lists IFCN-style fact-checkers (tier 1).
	GlobalFactCheck []string

	// LowSignal lists open-editing and community platforms (tier 0 with
	// an explicit low-signal reason). Matched by suffix or exactly.
	LowSignal []string
}

// DefaultConfig reproduces the curated lists the project shipped with.
// The India list is the richest; that asymmetry is inherited data, not a
// constraint of the mechanism.
func DefaultConfig() *Config {
	return &Config{
		OfficialSuffixes: []string{
			".gov", ".gov.in", ".nic.in", ".parliament.in", ".supremecourt.nic.in",
		},
		JurisdictionTier2: map[string][]string{
			"india": {
				"timesofindia.com", "hindustantimes.com", "indianexpress.com", "thehindu.com",
				"livemint.com", "business-standard.com", "ndtv.com", "pti.in", "economictimes.com",
				"theprint.in", "scroll.in", "moneycontrol.com",
				"altnews.in", "boomlive.in", "factly.in", "pib.gov.in",
				"data.gov.in", "ncrb.gov.in", "mha.gov.in", "prsindia.org",
			},
		},
		IntlOrgAcademic: []string{
			"who.int", "un.org", "worldbank.org", "imf.org", "oecd.org",
			"journals.plos.org", "nature.com", "science.org", "thelancet.com",
		},
		GlobalTier1: []string{
			"reuters.com", "apnews.com", "bbc.com", "bbc.co.uk", "theguardian.com",
			"nytimes.com", "wsj.com", "ft.com", "washingtonpost.com", "aljazeera.com",
		},
		GlobalFactCheck: []string{
			"snopes.com", "politifact.com", "factcheck.org", "fullfact.org",
		},
		LowSignal: []string{
			"wikipedia.org", "medium.com", "quora.com", "reddit.com", "blogspot.com",
			"wordpress.com", "substack.com", "stackexchange.com",
		},
	}
}

// Classifier maps a registrable domain plus a jurisdiction hint to a
// trust tier and reason. Classification is pure and total: unknown
// domains resolve to tier 0, never an error.
type Classifier struct {
	config       *Config
	tier2ByJuris map[string]map[string]bool
	intlOrgAcad  map[string]bool
	globalTier1  map[string]bool
	factCheck    map[string]bool
}

// NewClassifier builds a classifier from the given config, or the
// defaults when config is nil.
func NewClassifier(config *Config) *Classifier {
	if config == nil {
		config = DefaultConfig()
	}

	c := &Classifier{
		config:       config,
		tier2ByJuris: make(map[string]map[string]bool),
		intlOrgAcad:  toSet(config.IntlOrgAcademic),
		globalTier1:  toSet(config.GlobalTier1),
		factCheck:    toSet(config.GlobalFactCheck),
	}
	for juris, domains := range config.JurisdictionTier2 {
		c.tier2ByJuris[strings.ToLower(juris)] = toSet(domains)
	}
	return c
}

// Classify returns the trust tier and reason for a domain under the
// given jurisdiction hint. Evaluation order is strict: official
// suffixes win over every other list, so a government domain that
// collides with a low-signal suffix still resolves to tier 3.
func (c *Classifier) Classify(domain, jurisdiction string) (int, string) {
	d := strings.ToLower(strings.TrimSpace(domain))
	if d == "" {
		return TierUnvetted, "unvetted/other"
	}

	for _, suffix := range c.config.OfficialSuffixes {
		if strings.HasSuffix(d, suffix) {
			return TierOfficial, "official/government or judiciary"
		}
	}

	if tier2, ok := c.tier2ByJuris[strings.ToLower(jurisdiction)]; ok && tier2[d] {
		return TierCurated, "jurisdiction-curated outlet / fact-check / official portal"
	}

	if c.intlOrgAcad[d] {
		return TierReputable, "international org / academic"
	}
	if c.globalTier1[d] || c.factCheck[d] {
		return TierReputable, "reputable global media / fact-checker"
	}

	for _, weak := range c.config.LowSignal {
		if d == weak || strings.HasSuffix(d, "."+weak) {
			return TierUnvetted, "low-signal/openly editable/community"
		}
	}

	return TierUnvetted, "unvetted/other"
}

// Domain extracts the registrable domain (eTLD+1) from a URL, lowercased.
// Returns "" for unparseable input; never panics.
func Domain(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		// Bare domains like "cdc.gov" parse with an empty host.
		host = strings.ToLower(strings.Split(parsed.Path, "/")[0])
	}
	if host == "" || !strings.Contains(host, ".") {
		return ""
	}

	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return etld1
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}
