package catalog

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/typeboard/typeboard/internal/domain"
)

func mustDefault(t *testing.T) *Catalog {
	t.Helper()
	c, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}
	return c
}

func TestDefaultCatalog(t *testing.T) {
	c := mustDefault(t)

	var ids []string
	for _, tbl := range c.Tables() {
		ids = append(ids, tbl.ID)
	}
	if diff := cmp.Diff([]string{"jobs", "strengths", "pokemon", "lol-roles"}, ids); diff != "" {
		t.Errorf("table order mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		table    string
		coverage int
		kind     domain.TableKind
		level    Level
	}{
		{"jobs", 16, domain.KindList, LevelInfo},
		{"strengths", 8, domain.KindList, LevelInfo},
		{"pokemon", 4, domain.KindProfile, LevelInfo},
		{"lol-roles", 5, domain.KindProfile, LevelWarning},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			tbl, ok := c.Table(tt.table)
			if !ok {
				t.Fatalf("table %s missing", tt.table)
			}
			if tbl.Coverage() != tt.coverage {
				t.Errorf("expected coverage %d, got %d", tt.coverage, tbl.Coverage())
			}
			if tbl.Kind != tt.kind || tbl.Missing.Level != tt.level {
				t.Errorf("unexpected kind/level %s/%s", tbl.Kind, tbl.Missing.Level)
			}
			if len(tbl.List()) != tt.coverage {
				t.Errorf("expected %d listed entries", tt.coverage)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	c := mustDefault(t)

	res, err := c.Lookup("jobs", domain.INTJ)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !res.Found() {
		t.Fatal("expected INTJ jobs to be found")
	}
	if diff := cmp.Diff([]string{"전략기획가", "데이터 과학자", "시스템 설계자"}, res.Entry.Labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}

	res, _ = c.Lookup("pokemon", domain.ENTJ)
	if !res.Found() || res.Entry.Headline != "갸라도스" || res.Entry.Narrative == "" {
		t.Errorf("unexpected pokemon entry %+v", res.Entry)
	}

	res, _ = c.Lookup("pokemon", domain.ESFP)
	if res.Found() || res.Status != domain.LookupNotAvailable || res.Entry != nil {
		t.Errorf("expected not available, got %+v", res)
	}

	if _, err := c.Lookup("nope", domain.INTJ); !errors.Is(err, ErrUnknownTable) {
		t.Errorf("expected ErrUnknownTable, got %v", err)
	}

	t.Run("ResultIsACopy", func(t *testing.T) {
		res, _ := c.Lookup("jobs", domain.INTJ)
		res.Entry.Labels[0] = "changed"
		again, _ := c.Lookup("jobs", domain.INTJ)
		if again.Entry.Labels[0] != "전략기획가" {
			t.Error("lookup result aliased catalog state")
		}
	})
}

func TestHeadingFor(t *testing.T) {
	c := mustDefault(t)
	tbl, _ := c.Table("lol-roles")
	if got := tbl.HeadingFor(domain.INFJ); got != "🎮 INFJ에게 추천하는 라인은:" {
		t.Errorf("unexpected heading %q", got)
	}
}

func TestRanking(t *testing.T) {
	c := mustDefault(t)
	r, ok := c.Ranking("base-stats")
	if !ok {
		t.Fatal("base-stats ranking missing")
	}
	sorted := r.Sorted()
	if len(sorted) != 10 {
		t.Fatalf("expected 10 items, got %d", len(sorted))
	}
	if sorted[0].Name != "자시안(검의 왕)" || sorted[0].Total != 720 {
		t.Errorf("expected 자시안 first, got %+v", sorted[0])
	}
	if sorted[1].Name != "뮤츠" {
		t.Errorf("expected stable order for ties, got %+v", sorted[1])
	}
	if r.YRange != [2]int{600, 750} {
		t.Errorf("unexpected range %v", r.YRange)
	}
	if r.Items[0].Name != "뮤츠" {
		t.Error("Sorted modified the ranking")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"UnknownCategory", "id: x\nkind: list\nmissing: {level: info, text: t}\nentries:\n  ABCD: {labels: [a]}\n"},
		{"EmptyList", "id: x\nkind: list\nmissing: {level: info, text: t}\nentries:\n  INTJ: {labels: []}\n"},
		{"ProfileWithoutNarrative", "id: x\nkind: profile\nmissing: {level: info, text: t}\nentries:\n  INTJ: {headline: h}\n"},
		{"UnknownKind", "id: x\nkind: grid\nmissing: {level: info, text: t}\n"},
		{"UnknownLevel", "id: x\nkind: list\nmissing: {level: error, text: t}\n"},
		{"BadYAML", "id: [x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{"tables/x.yaml": {Data: []byte(tt.file)}}
			if _, err := Load(fsys); err == nil {
				t.Error("expected load error")
			}
		})
	}

	t.Run("EmptyTableLoads", func(t *testing.T) {
		fsys := fstest.MapFS{"tables/x.yaml": {Data: []byte("id: x\nkind: list\nmissing: {level: info, text: t}\n")}}
		c, err := Load(fsys)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		res, _ := c.Lookup("x", domain.INTJ)
		if res.Found() {
			t.Error("expected not available")
		}
	})
}

func TestMerge(t *testing.T) {
	base := mustDefault(t)
	override := &domain.CatalogEntry{
		Table:    "pokemon",
		Category: domain.ESFP,
		Entry:    domain.Entry{Headline: "푸린", Narrative: "무대를 사랑하는 포켓몬."},
	}

	merged, err := base.Merge([]*domain.CatalogEntry{override})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if res, _ := merged.Lookup("pokemon", domain.ESFP); !res.Found() || res.Entry.Headline != "푸린" {
		t.Errorf("override not applied: %+v", res)
	}
	if res, _ := base.Lookup("pokemon", domain.ESFP); res.Found() {
		t.Error("Merge modified the base catalog")
	}

	bad := []*domain.CatalogEntry{
		{Table: "missing", Category: domain.INTJ, Entry: domain.Entry{Labels: []string{"a"}}},
		{Table: "jobs", Category: "XXXX", Entry: domain.Entry{Labels: []string{"a"}}},
		{Table: "jobs", Category: domain.INTJ, Entry: domain.Entry{Headline: "h", Narrative: "n"}},
	}
	for _, o := range bad {
		if _, err := base.Merge([]*domain.CatalogEntry{o}); err == nil {
			t.Errorf("expected error merging %+v", o)
		}
	}
}

type fakeRepo struct {
	domain.Repository
	entries []*domain.CatalogEntry
	err     error
}

func (f *fakeRepo) ListCatalogEntries(ctx context.Context, table string) ([]*domain.CatalogEntry, error) {
	return f.entries, f.err
}

func TestRegistry(t *testing.T) {
	base := mustDefault(t)
	reg := NewRegistry(base)

	if reg.Current() != base || reg.Version() != 0 {
		t.Fatal("expected base as initial snapshot")
	}

	repo := &fakeRepo{entries: []*domain.CatalogEntry{
		{Table: "strengths", Category: domain.ISTJ, Entry: domain.Entry{Labels: []string{"책임감", "꼼꼼함", "성실함"}}},
		{Table: "retired", Category: domain.ISTJ, Entry: domain.Entry{Labels: []string{"x"}}},
	}}
	if err := reg.Reload(context.Background(), repo); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if reg.Version() != 1 {
		t.Errorf("expected version 1, got %d", reg.Version())
	}
	res, _ := reg.Current().Lookup("strengths", domain.ISTJ)
	if !res.Found() {
		t.Error("expected override after reload")
	}
	snapshot := reg.Current()

	repo.err = errors.New("db down")
	if err := reg.Reload(context.Background(), repo); err == nil {
		t.Fatal("expected reload error")
	}
	if reg.Current() != snapshot {
		t.Error("failed reload replaced the live catalog")
	}

	repo.err = nil
	repo.entries = nil
	if err := reg.Reload(context.Background(), repo); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if res, _ := reg.Current().Lookup("strengths", domain.ISTJ); res.Found() {
		t.Error("removed override still present")
	}
}
