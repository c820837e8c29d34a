package reputation

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nkarpov/claimsift/internal/model"
)

// BiasTable is a static domain -> (bias, credibility) lookup loaded
// from a curated CSV. It complements the analyzer: the table answers
// instantly for well-known outlets, the analyzer covers the long tail.
type BiasTable struct {
	entries map[string]biasEntry
}

type biasEntry struct {
	bias        model.Bias
	credibility model.Credibility
}

// LoadBiasTable reads a CSV with a domain,bias,credibility header.
// Unknown enum values in a row are kept as Unknown rather than
// rejecting the file.
func LoadBiasTable(path string) (*BiasTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bias table: %w", err)
	}
	defer f.Close()
	return ParseBiasTable(f)
}

// ParseBiasTable reads bias table rows from r.
func ParseBiasTable(r io.Reader) (*BiasTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse bias table: %w", err)
	}

	table := &BiasTable{entries: make(map[string]biasEntry)}
	for i, row := range records {
		if len(row) < 3 {
			continue
		}
		domain := strings.ToLower(strings.TrimSpace(row[0]))
		if domain == "" || (i == 0 && domain == "domain") {
			continue
		}
		table.entries[domain] = biasEntry{
			bias:        normalizeBias(row[1]),
			credibility: normalizeCredibility(row[2]),
		}
	}
	return table, nil
}

// Lookup returns the table's bias and credibility for a domain, or
// (Unknown, Unknown) when the domain is not listed.
func (t *BiasTable) Lookup(domain string) (model.Bias, model.Credibility) {
	if t == nil {
		return model.BiasUnknown, model.CredibilityUnknown
	}
	entry, ok := t.entries[strings.ToLower(strings.TrimSpace(domain))]
	if !ok {
		return model.BiasUnknown, model.CredibilityUnknown
	}
	return entry.bias, entry.credibility
}

// Len reports the number of listed domains.
func (t *BiasTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
