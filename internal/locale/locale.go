// Package locale provides display labels, messages and number formatting
// for the supported languages.
package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embeddedFS embed.FS

type localeFile struct {
	Locale   string            `yaml:"locale"`
	Months   []string          `yaml:"months"`
	Labels   map[string]string `yaml:"labels"`
	Messages map[string]string `yaml:"messages"`
}

// Locale is an immutable label table for one language.
type Locale struct {
	tag      language.Tag
	months   []string
	labels   map[string]string
	reverse  map[string]string
	messages map[string]string
}

// Bundle holds every supported locale. The first one is the default.
type Bundle struct {
	locales []*Locale
	matcher language.Matcher
}

var defaultBundle = mustLoad()

// Default returns the embedded bundle.
func Default() *Bundle {
	return defaultBundle
}

func mustLoad() *Bundle {
	b, err := Load(embeddedFS)
	if err != nil {
		panic(fmt.Sprintf("locale: load embedded catalogs: %v", err))
	}
	return b
}

// Load reads locales/*.yaml from fsys. Korean is ordered first when present.
func Load(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locales: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no locale files found")
	}

	var locales []*Locale
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		var f localeFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		l, err := newLocale(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		locales = append(locales, l)
	}

	sort.SliceStable(locales, func(i, j int) bool {
		return locales[i].tag == language.Korean && locales[j].tag != language.Korean
	})

	tags := make([]language.Tag, len(locales))
	for i, l := range locales {
		tags[i] = l.tag
	}
	return &Bundle{locales: locales, matcher: language.NewMatcher(tags)}, nil
}

func newLocale(f localeFile) (*Locale, error) {
	tag, err := language.Parse(f.Locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", f.Locale, err)
	}
	if len(f.Months) != 12 {
		return nil, fmt.Errorf("expected 12 month names, got %d", len(f.Months))
	}
	reverse := make(map[string]string, len(f.Labels))
	for canonical, label := range f.Labels {
		reverse[label] = canonical
	}
	return &Locale{
		tag:      tag,
		months:   f.Months,
		labels:   f.Labels,
		reverse:  reverse,
		messages: f.Messages,
	}, nil
}

// Supported returns the tags of every loaded locale, default first.
func (b *Bundle) Supported() []language.Tag {
	tags := make([]language.Tag, len(b.locales))
	for i, l := range b.locales {
		tags[i] = l.tag
	}
	return tags
}

// Fallback returns the default locale.
func (b *Bundle) Fallback() *Locale {
	return b.locales[0]
}

// Lookup returns the locale for a language code such as "en" or "ko-KR".
func (b *Bundle) Lookup(code string) (*Locale, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, false
	}
	tag, err := language.Parse(code)
	if err != nil {
		return nil, false
	}
	base, _ := tag.Base()
	for _, l := range b.locales {
		if lb, _ := l.tag.Base(); lb == base {
			return l, true
		}
	}
	return nil, false
}

// Match picks the best locale for an Accept-Language header value.
func (b *Bundle) Match(acceptLanguage string) *Locale {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return b.Fallback()
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return b.Fallback()
	}
	return b.locales[idx]
}

// Tag returns the language tag.
func (l *Locale) Tag() language.Tag {
	return l.tag
}

// Code returns the short language code, e.g. "ko".
func (l *Locale) Code() string {
	base, _ := l.tag.Base()
	return base.String()
}

// Label translates a canonical categorical value. Unknown values pass through.
func (l *Locale) Label(canonical string) string {
	if v, ok := l.labels[canonical]; ok {
		return v
	}
	return canonical
}

// Canonical maps a display label (or a canonical value) back to its canonical form.
func (l *Locale) Canonical(value string) (string, bool) {
	if _, ok := l.labels[value]; ok {
		return value, true
	}
	v, ok := l.reverse[value]
	return v, ok
}

// Month returns the display name of month m (1-12).
func (l *Locale) Month(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return l.months[m-1]
}

// Text returns a UI message, or the key itself when it is missing.
func (l *Locale) Text(key string) string {
	if v, ok := l.messages[key]; ok {
		return v
	}
	return key
}

// Textf formats a UI message with the locale's number printer.
func (l *Locale) Textf(key string, args ...any) string {
	return message.NewPrinter(l.tag).Sprintf(l.Text(key), args...)
}

// FormatCount renders an integer with locale digit grouping, e.g. "12,345".
func (l *Locale) FormatCount(n int64) string {
	return message.NewPrinter(l.tag).Sprintf("%d", n)
}

// FormatAmount renders a float rounded to whole units with digit grouping.
func (l *Locale) FormatAmount(v float64) string {
	return message.NewPrinter(l.tag).Sprintf("%.0f", v)
}

// SortByLabel orders canonical values by their display labels using the
// locale's collation. The input slice is not modified.
func (l *Locale) SortByLabel(values []string) []string {
	out := append([]string(nil), values...)
	c := collate.New(l.tag)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(l.Label(out[i]), l.Label(out[j])) < 0
	})
	return out
}
