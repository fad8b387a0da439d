package domain

import "time"

// TableKind describes the payload shape of a recommendation table.
type TableKind string

const (
	// KindList tables map a key to an ordered list of short labels.
	KindList TableKind = "list"

	// KindProfile tables map a key to a headline plus an explanatory narrative.
	KindProfile TableKind = "profile"
)

// Entry is the payload stored for one category key.
// List tables fill Labels; profile tables fill Headline and Narrative.
type Entry struct {
	Labels    []string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Headline  string   `json:"headline,omitempty" yaml:"headline,omitempty"`
	Narrative string   `json:"narrative,omitempty" yaml:"narrative,omitempty"`
}

// Empty reports whether the entry carries no content at all.
func (e Entry) Empty() bool {
	return len(e.Labels) == 0 && e.Headline == "" && e.Narrative == ""
}

// Clone returns a deep copy so callers cannot mutate catalog state.
func (e Entry) Clone() Entry {
	out := e
	if e.Labels != nil {
		out.Labels = append([]string(nil), e.Labels...)
	}
	return out
}

// LookupStatus tags the outcome of a recommendation lookup.
type LookupStatus string

const (
	// LookupFound means the table has an entry for the key (possibly empty).
	LookupFound LookupStatus = "found"

	// LookupNotAvailable means the table has no entry for the key yet.
	LookupNotAvailable LookupStatus = "not_available"
)

// LookupResult is Found(entry) or NotAvailable. Entry is nil when not available.
type LookupResult struct {
	Table    string       `json:"table"`
	Category CategoryKey  `json:"category"`
	Status   LookupStatus `json:"status"`
	Entry    *Entry       `json:"entry,omitempty"`
}

// Found reports whether the lookup resolved to an entry.
func (r LookupResult) Found() bool {
	return r.Status == LookupFound && r.Entry != nil
}

// Found builds a found result holding a copy of e.
func Found(table string, key CategoryKey, e Entry) LookupResult {
	c := e.Clone()
	return LookupResult{Table: table, Category: key, Status: LookupFound, Entry: &c}
}

// NotAvailable builds the explicit absent result.
func NotAvailable(table string, key CategoryKey) LookupResult {
	return LookupResult{Table: table, Category: key, Status: LookupNotAvailable}
}

// CatalogEntry is a persisted override for one table cell.
type CatalogEntry struct {
	Table     string      `json:"table"`
	Category  CategoryKey `json:"category"`
	Entry     Entry       `json:"entry"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// RankedItem is one row of a static ranking such as base-stat totals.
type RankedItem struct {
	Name  string `json:"name" yaml:"name"`
	Total int    `json:"total" yaml:"total"`
}
