package dashboard

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/typeboard/typeboard/internal/domain"
	"github.com/typeboard/typeboard/internal/incident"
	"github.com/typeboard/typeboard/internal/locale"
)

func mustLocale(t *testing.T, code string) *locale.Locale {
	t.Helper()
	loc, ok := locale.Default().Lookup(code)
	if !ok {
		t.Fatalf("locale %s not found", code)
	}
	return loc
}

func inc(year, month int, country, attack, sector string, sev domain.Severity, impact, users float64) domain.Incident {
	return domain.Incident{
		Date:            time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
		Year:            year,
		Month:           month,
		Country:         country,
		AttackType:      attack,
		Sector:          sector,
		Severity:        sev,
		FinancialImpact: impact,
		AffectedUsers:   users,
	}
}

func fixture() *incident.Dataset {
	return incident.NewDataset(7, []domain.Incident{
		inc(2022, 1, "USA", "Malware", "Finance", domain.SeverityLow, 100, 10),
		inc(2023, 1, "USA", "Phishing", "Finance", domain.SeverityCritical, 300, 20),
		inc(2023, 3, "China", "Malware", "Energy", domain.SeverityHigh, 200, 30),
		inc(2024, 3, "China", "Malware", "Energy", domain.SeverityCritical, 400, 40),
		inc(2024, 3, "Japan", "Ransomware", "Retail", domain.SeverityMedium, 1000, 50),
		inc(2024, 12, "USA", "Malware", "Finance", domain.SeverityLow, 600, 60),
	})
}

func allOf(ds *incident.Dataset) domain.FilterSelection {
	return domain.FilterSelection{
		Years:       incident.Years(),
		Countries:   []string{"USA", "China", "Japan"},
		AttackTypes: []string{"Malware", "Phishing", "Ransomware"},
		Severities:  domain.Severities(),
	}
}

type predicateFunc func(domain.Incident) bool

func (f predicateFunc) Match(i domain.Incident) bool { return f(i) }

func TestFilter(t *testing.T) {
	ds := incident.NewDataset(42, incident.Generate(42))
	sel := domain.FilterSelection{
		Years:       []int{2023, 2024},
		Countries:   []string{"USA", "Japan"},
		AttackTypes: []string{"Ransomware", "Phishing"},
		Severities:  []domain.Severity{domain.SeverityHigh, domain.SeverityCritical},
	}

	view := Filter(ds, sel, nil)
	if len(view) == 0 {
		t.Fatal("expected matches")
	}
	for _, row := range view {
		if !sel.Matches(row) {
			t.Fatalf("row outside selection: %+v", row)
		}
	}

	expected := 0
	ds.Each(func(i domain.Incident) {
		if sel.Matches(i) {
			expected++
		}
	})
	if len(view) != expected {
		t.Errorf("expected %d rows, got %d", expected, len(view))
	}

	t.Run("EmptyDimensionMatchesNothing", func(t *testing.T) {
		empty := sel
		empty.Severities = nil
		if got := Filter(ds, empty, nil); len(got) != 0 {
			t.Errorf("expected no rows, got %d", len(got))
		}
	})

	t.Run("Predicate", func(t *testing.T) {
		pred := predicateFunc(func(i domain.Incident) bool { return i.Year == 2024 })
		for _, row := range Filter(ds, sel, pred) {
			if row.Year != 2024 {
				t.Fatalf("predicate not applied: %+v", row)
			}
		}
	})
}

func TestDefaultSelection(t *testing.T) {
	ds := incident.NewDataset(42, incident.Generate(42))

	sel := DefaultSelection(ds, mustLocale(t, "en"))
	want := domain.FilterSelection{
		Years:       []int{2022, 2023, 2024},
		Countries:   []string{"Australia", "Brazil", "Canada", "China", "France"},
		AttackTypes: sel.AttackTypes,
		Severities:  domain.Severities(),
	}
	if diff := cmp.Diff(want, sel); diff != "" {
		t.Errorf("default selection mismatch (-want +got):\n%s", diff)
	}
	if len(sel.AttackTypes) != len(incident.DefaultDomains().AttackTypes) {
		t.Errorf("expected every attack type, got %v", sel.AttackTypes)
	}

	opts := BuildOptions(ds, mustLocale(t, "ko"))
	if opts.Severities[3].Label != "치명적" {
		t.Errorf("expected localized severity label, got %s", opts.Severities[3].Label)
	}
	if len(opts.Years) != 10 {
		t.Errorf("expected 10 years, got %d", len(opts.Years))
	}
	wantLabels := FilterLabels{
		Years:       "연도 선택",
		Countries:   "국가 선택",
		AttackTypes: "공격 유형 선택",
		Severities:  "심각도 수준 선택",
		Export:      "필터링된 데이터 CSV 다운로드",
	}
	if diff := cmp.Diff(wantLabels, opts.Labels); diff != "" {
		t.Errorf("filter labels mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize(t *testing.T) {
	ko := mustLocale(t, "ko")
	sel := domain.FilterSelection{
		Years:       []int{2024, 2024, 2023},
		Countries:   []string{"미국", "USA", "Atlantis"},
		AttackTypes: []string{"랜섬웨어"},
		Severities:  []domain.Severity{"치명적", "Low", "Ransomware"},
	}

	want := domain.FilterSelection{
		Years:       []int{2024, 2023},
		Countries:   []string{"USA"},
		AttackTypes: []string{"Ransomware"},
		Severities:  []domain.Severity{domain.SeverityCritical, domain.SeverityLow},
	}
	if diff := cmp.Diff(want, Normalize(sel, ko)); diff != "" {
		t.Errorf("normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregates(t *testing.T) {
	en := mustLocale(t, "en")
	view := Filter(fixture(), allOf(fixture()), nil)

	t.Run("ByYear", func(t *testing.T) {
		want := []YearCount{{2022, 1}, {2023, 2}, {2024, 3}}
		if diff := cmp.Diff(want, CountByYear(view)); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("AttackDistribution", func(t *testing.T) {
		want := []LabelCount{
			{Value: "Malware", Label: "Malware", Count: 4},
			{Value: "Phishing", Label: "Phishing", Count: 1},
			{Value: "Ransomware", Label: "Ransomware", Count: 1},
		}
		if diff := cmp.Diff(want, AttackDistribution(view, en)); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("Countries", func(t *testing.T) {
		want := []CountryStat{
			{Value: "USA", Label: "USA", Incidents: 3, AvgFinancialImpact: 333.33, TotalAffectedUsers: 90},
			{Value: "China", Label: "China", Incidents: 2, AvgFinancialImpact: 300, TotalAffectedUsers: 70},
			{Value: "Japan", Label: "Japan", Incidents: 1, AvgFinancialImpact: 1000, TotalAffectedUsers: 50},
		}
		if diff := cmp.Diff(want, CountryStats(view, en)); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("Sectors", func(t *testing.T) {
		want := []SectorStat{
			{Value: "Retail", Label: "Retail", Incidents: 1, AvgFinancialImpact: 1000},
			{Value: "Energy", Label: "Energy", Incidents: 2, AvgFinancialImpact: 300},
			{Value: "Finance", Label: "Finance", Incidents: 3, AvgFinancialImpact: 333.33},
		}
		if diff := cmp.Diff(want, SectorStats(view, en)); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("Monthly", func(t *testing.T) {
		want := []MonthCount{{1, "Jan", 2}, {3, "Mar", 3}, {12, "Dec", 1}}
		if diff := cmp.Diff(want, MonthlyPattern(view, en)); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("FinancialByAttack", func(t *testing.T) {
		got := FinancialByAttack(view, en)
		if got[0].Value != "Ransomware" || got[0].AverageImpact != 1000 {
			t.Errorf("expected Ransomware first, got %+v", got[0])
		}
		if got[1].Value != "Malware" || got[1].TotalImpact != 1300 || got[1].AverageImpact != 325 {
			t.Errorf("unexpected Malware impact %+v", got[1])
		}
	})

	t.Run("SeverityByCountry", func(t *testing.T) {
		got := SeverityByCountry(view, en)
		if len(got) != 5 {
			t.Fatalf("expected 5 pairs, got %d: %+v", len(got), got)
		}
		first := SeverityCount{Country: "China", CountryLabel: "China", Severity: "High", SeverityLabel: "High", Count: 1}
		if diff := cmp.Diff(first, got[0]); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("CrossTab", func(t *testing.T) {
		got := AttackSectorCrossTab(view, en)
		want := CrossTab{
			Rows:    []Option{{"Malware", "Malware"}, {"Phishing", "Phishing"}, {"Ransomware", "Ransomware"}},
			Columns: []Option{{"Energy", "Energy"}, {"Finance", "Finance"}, {"Retail", "Retail"}},
			Counts:  [][]int{{2, 2, 0}, {0, 1, 0}, {0, 0, 1}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("KPIs", func(t *testing.T) {
		kpis := KPIs(view, en)
		displays := []string{kpis[0].Display, kpis[1].Display, kpis[2].Display, kpis[3].Display}
		want := []string{"6", "$433", "210", "2"}
		if diff := cmp.Diff(want, displays); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})
}

func TestSample(t *testing.T) {
	view := incident.Generate(1)[:50]
	rng := incident.NewSeededRand(9)

	got := Sample(view, 10, rng)
	if len(got) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Year < got[i-1].Year {
			t.Fatalf("sample not in view order at %d", i)
		}
	}

	again := Sample(view, 10, incident.NewSeededRand(9))
	if diff := cmp.Diff(got, again); diff != "" {
		t.Errorf("same rng seed gave different samples:\n%s", diff)
	}

	if all := Sample(view, 1000, rng); len(all) != len(view) {
		t.Errorf("expected whole view when n exceeds it, got %d", len(all))
	}
	if head := Head(view, 5); len(head) != 5 || head[0] != view[0] {
		t.Errorf("unexpected head %+v", head)
	}
}

func TestTrend(t *testing.T) {
	en := mustLocale(t, "en")
	view := Filter(fixture(), allOf(fixture()), nil)

	tv := Trend(view, en)
	if !tv.Sufficient {
		t.Fatal("expected a sufficient trend")
	}
	want := []string{"Predicted incidents for 2025: 4", "Predicted incidents for 2026: 5"}
	if diff := cmp.Diff(want, tv.Notes); diff != "" {
		t.Errorf("notes mismatch (-want +got):\n%s", diff)
	}

	single := Trend(view[:1], en)
	if single.Sufficient || single.Warning == "" || len(single.Predictions) != 0 {
		t.Errorf("expected insufficient data warning, got %+v", single)
	}
}

func TestBuild(t *testing.T) {
	ko := mustLocale(t, "ko")
	ds := fixture()

	t.Run("Populated", func(t *testing.T) {
		d := Build(ds, allOf(ds), nil, ko)
		if d.Empty || d.Matched != 6 {
			t.Fatalf("expected 6 matched rows, got %d", d.Matched)
		}
		if d.Summary.Table[1].Severity != "치명적" {
			t.Errorf("expected localized rows, got %+v", d.Summary.Table[1])
		}
		if d.SeverityColors["치명적"] != "#8e44ad" {
			t.Errorf("unexpected colors %v", d.SeverityColors)
		}
		again := Build(ds, allOf(ds), nil, ko)
		if diff := cmp.Diff(d, again); diff != "" {
			t.Errorf("identical inputs rendered differently:\n%s", diff)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		sel := allOf(ds)
		sel.Countries = []string{"Iran"}
		d := Build(ds, sel, nil, ko)
		if !d.Empty || d.Notice == "" {
			t.Fatalf("expected empty notice, got %+v", d)
		}
		for _, k := range d.Summary.KPIs {
			if k.Value != 0 {
				t.Errorf("expected zero KPI %s, got %v", k.Key, k.Value)
			}
		}
		if len(d.Summary.ByYear) != 0 || len(d.Summary.Countries) != 0 || len(d.Summary.Heatmap.Rows) != 0 {
			t.Error("expected empty aggregates")
		}
		if d.Trend.Sufficient || d.Trend.Warning == "" {
			t.Error("expected insufficient trend on empty view")
		}
	})
}
