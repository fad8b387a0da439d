// Package dashboard filters the incident dataset and derives chart aggregates.
package dashboard

import (
	"sort"

	"github.com/typeboard/typeboard/internal/domain"
	"github.com/typeboard/typeboard/internal/incident"
	"github.com/typeboard/typeboard/internal/locale"
)

// Predicate is an extra row filter applied after the selection.
type Predicate interface {
	Match(domain.Incident) bool
}

// Filter returns a fresh slice of the incidents matching sel (and pred, when
// non-nil). The dataset is never modified.
func Filter(ds *incident.Dataset, sel domain.FilterSelection, pred Predicate) []domain.Incident {
	out := make([]domain.Incident, 0)
	ds.Each(func(inc domain.Incident) {
		if !sel.Matches(inc) {
			return
		}
		if pred != nil && !pred.Match(inc) {
			return
		}
		out = append(out, inc)
	})
	return out
}

// Option is one selectable filter value.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Options lists the selectable values of each filter and the default selection.
type Options struct {
	Years       []int                  `json:"years"`
	Countries   []Option               `json:"countries"`
	AttackTypes []Option               `json:"attackTypes"`
	Severities  []Option               `json:"severities"`
	Defaults    domain.FilterSelection `json:"defaults"`
	Labels      FilterLabels           `json:"labels"`
}

// FilterLabels are the localized captions of the filter controls and the
// export link.
type FilterLabels struct {
	Years       string `json:"years"`
	Countries   string `json:"countries"`
	AttackTypes string `json:"attackTypes"`
	Severities  string `json:"severities"`
	Export      string `json:"export"`
}

// Number of trailing years and leading countries selected by default.
const (
	DefaultYearCount    = 3
	DefaultCountryCount = 5
)

// BuildOptions derives the filter domains from the values present in ds.
// Countries and attack types are ordered by their localized labels.
func BuildOptions(ds *incident.Dataset, loc *locale.Locale) Options {
	years := make(map[int]struct{})
	countries := make(map[string]struct{})
	attacks := make(map[string]struct{})
	ds.Each(func(inc domain.Incident) {
		years[inc.Year] = struct{}{}
		countries[inc.Country] = struct{}{}
		attacks[inc.AttackType] = struct{}{}
	})

	opts := Options{
		Years:       sortedInts(years),
		Countries:   labelled(loc, loc.SortByLabel(keys(countries))),
		AttackTypes: labelled(loc, loc.SortByLabel(keys(attacks))),
		Labels: FilterLabels{
			Years:       loc.Text("filter.years"),
			Countries:   loc.Text("filter.countries"),
			AttackTypes: loc.Text("filter.attack_types"),
			Severities:  loc.Text("filter.severities"),
			Export:      loc.Text("export.label"),
		},
	}
	for _, s := range domain.Severities() {
		opts.Severities = append(opts.Severities, Option{Value: string(s), Label: loc.Label(string(s))})
	}
	opts.Defaults = defaults(opts)
	return opts
}

// DefaultSelection returns the selection a new visitor starts with:
// the last three years, the first five countries, every attack type and severity.
func DefaultSelection(ds *incident.Dataset, loc *locale.Locale) domain.FilterSelection {
	return BuildOptions(ds, loc).Defaults
}

func defaults(opts Options) domain.FilterSelection {
	sel := domain.FilterSelection{
		Years:       tailInts(opts.Years, DefaultYearCount),
		Countries:   values(headOptions(opts.Countries, DefaultCountryCount)),
		AttackTypes: values(opts.AttackTypes),
		Severities:  domain.Severities(),
	}
	return sel
}

// Normalize maps display labels in sel to canonical values, drops unknown
// entries and de-duplicates. It returns the cleaned selection.
func Normalize(sel domain.FilterSelection, loc *locale.Locale) domain.FilterSelection {
	out := domain.FilterSelection{
		Years:       make([]int, 0, len(sel.Years)),
		Countries:   canonicalize(loc, sel.Countries),
		AttackTypes: canonicalize(loc, sel.AttackTypes),
		Severities:  make([]domain.Severity, 0, len(sel.Severities)),
	}

	seenYears := make(map[int]bool)
	for _, y := range sel.Years {
		if !seenYears[y] {
			seenYears[y] = true
			out.Years = append(out.Years, y)
		}
	}

	seenSeverity := make(map[domain.Severity]bool)
	for _, s := range sel.Severities {
		v, ok := loc.Canonical(string(s))
		if !ok {
			continue
		}
		sev := domain.Severity(v)
		if !isSeverity(sev) || seenSeverity[sev] {
			continue
		}
		seenSeverity[sev] = true
		out.Severities = append(out.Severities, sev)
	}
	return out
}

func canonicalize(loc *locale.Locale, in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool)
	for _, v := range in {
		c, ok := loc.Canonical(v)
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func isSeverity(s domain.Severity) bool {
	for _, v := range domain.Severities() {
		if v == s {
			return true
		}
	}
	return false
}

func labelled(loc *locale.Locale, vals []string) []Option {
	out := make([]Option, len(vals))
	for i, v := range vals {
		out[i] = Option{Value: v, Label: loc.Label(v)}
	}
	return out
}

func values(opts []Option) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Value
	}
	return out
}

func headOptions(opts []Option, n int) []Option {
	if len(opts) < n {
		n = len(opts)
	}
	return opts[:n]
}

func tailInts(v []int, n int) []int {
	if len(v) < n {
		n = len(v)
	}
	return append([]int(nil), v[len(v)-n:]...)
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedInts(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
