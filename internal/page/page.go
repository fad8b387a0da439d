// Package page renders lookup pages: one table, one selected category.
package page

import (
	"errors"
	"fmt"
	"strings"

	"github.com/typeboard/typeboard/internal/catalog"
	"github.com/typeboard/typeboard/internal/domain"
)

// ErrUnknownPage is returned for a page id with no backing table.
var ErrUnknownPage = errors.New("unknown page")

// Selection is a single-select input over the sixteen categories.
// It always holds exactly one valid key.
type Selection struct {
	current domain.CategoryKey
}

// NewSelection starts at the first category.
func NewSelection() *Selection {
	return &Selection{current: domain.DefaultCategory()}
}

// SelectionOf restores a stored key, falling back to the default when it is invalid.
func SelectionOf(key domain.CategoryKey) *Selection {
	if !key.Valid() {
		return NewSelection()
	}
	return &Selection{current: key}
}

// Current returns the selected key.
func (s *Selection) Current() domain.CategoryKey {
	return s.current
}

// Select changes the selection. An unknown key is rejected and the
// previous selection is kept.
func (s *Selection) Select(raw string) (domain.CategoryKey, error) {
	key, err := domain.ParseCategory(raw)
	if err != nil {
		return s.current, err
	}
	s.current = key
	return key, nil
}

// Info summarizes a page for listings.
type Info struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Kind     domain.TableKind `json:"kind"`
	Coverage int              `json:"coverage"`
	Total    bool             `json:"total"`
}

// List returns every page of c in display order.
func List(c *catalog.Catalog) []Info {
	tables := c.Tables()
	out := make([]Info, len(tables))
	for i, t := range tables {
		out[i] = Info{ID: t.ID, Title: t.Title, Kind: t.Kind, Coverage: t.Coverage(), Total: t.Total()}
	}
	return out
}

// View is the render of one page for one key.
type View struct {
	Page      string               `json:"page"`
	Title     string               `json:"title"`
	Prompt    string               `json:"prompt"`
	Kind      domain.TableKind     `json:"kind"`
	Options   []domain.CategoryKey `json:"options"`
	Selected  domain.CategoryKey   `json:"selected"`
	Status    domain.LookupStatus  `json:"status"`
	Heading   string               `json:"heading,omitempty"`
	Items     []string             `json:"items,omitempty"`
	Headline  string               `json:"headline,omitempty"`
	Narrative string               `json:"narrative,omitempty"`
	Notice    *catalog.Notice      `json:"notice,omitempty"`
}

// Render looks key up in the page's table and builds a fresh view.
func Render(c *catalog.Catalog, pageID string, key domain.CategoryKey) (View, error) {
	t, ok := c.Table(pageID)
	if !ok {
		return View{}, fmt.Errorf("%w: %s", ErrUnknownPage, pageID)
	}
	if !key.Valid() {
		return View{}, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, key)
	}

	res := t.Lookup(key)
	v := View{
		Page:     t.ID,
		Title:    t.Title,
		Prompt:   t.Prompt,
		Kind:     t.Kind,
		Options:  domain.Categories(),
		Selected: key,
		Status:   res.Status,
	}

	switch t.Kind {
	case domain.KindList:
		v.Heading = t.HeadingFor(key)
		if res.Found() {
			v.Items = numbered(res.Entry.Labels)
		}
	case domain.KindProfile:
		if res.Found() {
			v.Heading = t.HeadingFor(key)
			v.Headline = strings.TrimSpace(t.Marker + " " + res.Entry.Headline)
			v.Narrative = res.Entry.Narrative
		}
	}
	if !res.Found() {
		n := t.Missing
		v.Notice = &n
	}
	return v, nil
}

// RenderSelection renders the page for the current value of sel.
func RenderSelection(c *catalog.Catalog, pageID string, sel *Selection) (View, error) {
	return Render(c, pageID, sel.Current())
}

func numbered(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = fmt.Sprintf("%d. %s", i+1, l)
	}
	return out
}

// Text renders the view as plain lines.
func (v View) Text() string {
	var b strings.Builder
	b.WriteString(v.Title)
	b.WriteByte('\n')
	if v.Heading != "" {
		b.WriteString(v.Heading)
		b.WriteByte('\n')
	}
	for _, item := range v.Items {
		b.WriteString(item)
		b.WriteByte('\n')
	}
	if v.Headline != "" {
		b.WriteString(v.Headline)
		b.WriteByte('\n')
	}
	if v.Narrative != "" {
		b.WriteString(v.Narrative)
		b.WriteByte('\n')
	}
	if v.Notice != nil {
		fmt.Fprintf(&b, "[%s] %s\n", v.Notice.Level, v.Notice.Text)
	}
	return b.String()
}
