// Package catalog loads the recommendation tables and rankings shown by the
// lookup pages. A Catalog is immutable; overrides produce a new one.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/typeboard/typeboard/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed tables/*.yaml rankings/*.yaml
var embeddedFS embed.FS

var (
	// ErrUnknownTable is returned for a table id the catalog does not define.
	ErrUnknownTable = errors.New("unknown table")

	// ErrInvalidEntry is returned when an entry does not fit its table kind.
	ErrInvalidEntry = errors.New("invalid catalog entry")
)

// Level is the severity a missing-entry notice is shown with.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Notice is the message shown when a key has no entry.
type Notice struct {
	Level Level  `yaml:"level" json:"level"`
	Text  string `yaml:"text" json:"text"`
}

// Table is one recommendation table with its page metadata.
type Table struct {
	ID      string                              `yaml:"id"`
	Order   int                                 `yaml:"order"`
	Kind    domain.TableKind                    `yaml:"kind"`
	Title   string                              `yaml:"title"`
	Prompt  string                              `yaml:"prompt"`
	Heading string                              `yaml:"heading"`
	Marker  string                              `yaml:"marker"`
	Missing Notice                              `yaml:"missing"`
	Entries map[domain.CategoryKey]domain.Entry `yaml:"entries"`
}

// HeadingFor fills the heading template for key.
func (t *Table) HeadingFor(key domain.CategoryKey) string {
	return strings.ReplaceAll(t.Heading, "{key}", string(key))
}

// Lookup returns Found with a copy of the entry, or NotAvailable.
func (t *Table) Lookup(key domain.CategoryKey) domain.LookupResult {
	e, ok := t.Entries[key]
	if !ok {
		return domain.NotAvailable(t.ID, key)
	}
	return domain.Found(t.ID, key, e)
}

// Coverage returns how many of the sixteen categories have an entry.
func (t *Table) Coverage() int {
	return len(t.Entries)
}

// Total reports whether every category has an entry.
func (t *Table) Total() bool {
	return t.Coverage() == len(domain.Categories())
}

// List returns the entries in category order.
func (t *Table) List() []*domain.CatalogEntry {
	out := make([]*domain.CatalogEntry, 0, len(t.Entries))
	for _, k := range domain.Categories() {
		if e, ok := t.Entries[k]; ok {
			out = append(out, &domain.CatalogEntry{Table: t.ID, Category: k, Entry: e.Clone()})
		}
	}
	return out
}

func (t *Table) clone() *Table {
	c := *t
	c.Entries = make(map[domain.CategoryKey]domain.Entry, len(t.Entries))
	for k, e := range t.Entries {
		c.Entries[k] = e.Clone()
	}
	return &c
}

func (t *Table) validate() error {
	if t.ID == "" {
		return fmt.Errorf("table without id")
	}
	if t.Kind != domain.KindList && t.Kind != domain.KindProfile {
		return fmt.Errorf("table %s: unknown kind %q", t.ID, t.Kind)
	}
	if t.Missing.Level != LevelInfo && t.Missing.Level != LevelWarning {
		return fmt.Errorf("table %s: unknown notice level %q", t.ID, t.Missing.Level)
	}
	for k, e := range t.Entries {
		if !k.Valid() {
			return fmt.Errorf("table %s: %w: %q", t.ID, domain.ErrUnknownCategory, k)
		}
		if err := ValidateEntry(t.Kind, e); err != nil {
			return fmt.Errorf("table %s, %s: %w", t.ID, k, err)
		}
	}
	return nil
}

// ValidateEntry checks e has the content its table kind requires.
func ValidateEntry(kind domain.TableKind, e domain.Entry) error {
	switch kind {
	case domain.KindList:
		if len(e.Labels) == 0 {
			return fmt.Errorf("%w: list entry needs labels", ErrInvalidEntry)
		}
		for _, l := range e.Labels {
			if strings.TrimSpace(l) == "" {
				return fmt.Errorf("%w: blank label", ErrInvalidEntry)
			}
		}
		if e.Headline != "" || e.Narrative != "" {
			return fmt.Errorf("%w: list entry cannot carry a headline", ErrInvalidEntry)
		}
	case domain.KindProfile:
		if strings.TrimSpace(e.Headline) == "" || strings.TrimSpace(e.Narrative) == "" {
			return fmt.Errorf("%w: profile entry needs headline and narrative", ErrInvalidEntry)
		}
		if len(e.Labels) > 0 {
			return fmt.Errorf("%w: profile entry cannot carry labels", ErrInvalidEntry)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEntry, kind)
	}
	return nil
}

// Ranking is a static leaderboard rendered as a bar chart.
type Ranking struct {
	ID         string              `yaml:"id" json:"id"`
	Title      string              `yaml:"title" json:"title"`
	ChartTitle string              `yaml:"chart_title" json:"chartTitle"`
	XLabel     string              `yaml:"x_label" json:"xLabel"`
	YLabel     string              `yaml:"y_label" json:"yLabel"`
	YRange     [2]int              `yaml:"y_range" json:"yRange"`
	Color      string              `yaml:"color" json:"color"`
	Items      []domain.RankedItem `yaml:"items" json:"items"`
}

// Sorted returns the items by total descending. Ties keep file order.
func (r *Ranking) Sorted() []domain.RankedItem {
	out := append([]domain.RankedItem(nil), r.Items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// Catalog is an immutable set of tables and rankings.
type Catalog struct {
	tables   map[string]*Table
	order    []string
	rankings map[string]*Ranking
}

// Default loads the embedded catalog.
func Default() (*Catalog, error) {
	return Load(embeddedFS)
}

// Load reads tables/*.yaml and rankings/*.yaml from fsys.
func Load(fsys fs.FS) (*Catalog, error) {
	c := &Catalog{
		tables:   make(map[string]*Table),
		rankings: make(map[string]*Ranking),
	}

	tablePaths, err := fs.Glob(fsys, "tables/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob tables: %w", err)
	}
	for _, p := range tablePaths {
		var t Table
		if err := decode(fsys, p, &t); err != nil {
			return nil, err
		}
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if t.Entries == nil {
			t.Entries = make(map[domain.CategoryKey]domain.Entry)
		}
		if _, dup := c.tables[t.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate table %s", p, t.ID)
		}
		c.tables[t.ID] = &t
	}

	rankingPaths, err := fs.Glob(fsys, "rankings/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob rankings: %w", err)
	}
	for _, p := range rankingPaths {
		var r Ranking
		if err := decode(fsys, p, &r); err != nil {
			return nil, err
		}
		if r.ID == "" || len(r.Items) == 0 {
			return nil, fmt.Errorf("%s: ranking needs an id and items", p)
		}
		c.rankings[r.ID] = &r
	}

	c.sortTables()
	return c, nil
}

func decode(fsys fs.FS, path string, v any) error {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Catalog) sortTables() {
	c.order = c.order[:0]
	for id := range c.tables {
		c.order = append(c.order, id)
	}
	sort.Slice(c.order, func(i, j int) bool {
		a, b := c.tables[c.order[i]], c.tables[c.order[j]]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})
}

// Tables returns every table in page order.
func (c *Catalog) Tables() []*Table {
	out := make([]*Table, len(c.order))
	for i, id := range c.order {
		out[i] = c.tables[id]
	}
	return out
}

// Table returns a table by id.
func (c *Catalog) Table(id string) (*Table, bool) {
	t, ok := c.tables[id]
	return t, ok
}

// Ranking returns a ranking by id.
func (c *Catalog) Ranking(id string) (*Ranking, bool) {
	r, ok := c.rankings[id]
	return r, ok
}

// Lookup resolves key in table. Only an unknown table is an error.
func (c *Catalog) Lookup(table string, key domain.CategoryKey) (domain.LookupResult, error) {
	t, ok := c.tables[table]
	if !ok {
		return domain.LookupResult{}, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return t.Lookup(key), nil
}

// Merge returns a new catalog with overrides applied on top of c.
// Overrides win over built-in entries. c is left unchanged.
func (c *Catalog) Merge(overrides []*domain.CatalogEntry) (*Catalog, error) {
	next := &Catalog{
		tables:   make(map[string]*Table, len(c.tables)),
		order:    append([]string(nil), c.order...),
		rankings: c.rankings,
	}
	for id, t := range c.tables {
		next.tables[id] = t.clone()
	}

	for _, o := range overrides {
		if err := next.apply(o); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// Check validates an override against the table it targets.
func (c *Catalog) Check(o *domain.CatalogEntry) error {
	t, ok := c.tables[o.Table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, o.Table)
	}
	if !o.Category.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCategory, o.Category)
	}
	return ValidateEntry(t.Kind, o.Entry)
}

func (c *Catalog) apply(o *domain.CatalogEntry) error {
	if err := c.Check(o); err != nil {
		return fmt.Errorf("override %s/%s: %w", o.Table, o.Category, err)
	}
	c.tables[o.Table].Entries[o.Category] = o.Entry.Clone()
	return nil
}
