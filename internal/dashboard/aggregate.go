package dashboard

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/typeboard/typeboard/internal/domain"
	"github.com/typeboard/typeboard/internal/locale"
)

// Row caps for the scatter sample and the detail table.
const (
	MaxSampleRows = 1000
	MaxTableRows  = 1000
	TopCountries  = 10
)

// SeverityColors is the chart color of each severity.
var SeverityColors = map[domain.Severity]string{
	domain.SeverityLow:      "#2ecc71",
	domain.SeverityMedium:   "#f39c12",
	domain.SeverityHigh:     "#e74c3c",
	domain.SeverityCritical: "#8e44ad",
}

// KPI is one headline metric.
type KPI struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
}

// YearCount is the number of incidents in a year.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// LabelCount is a count keyed by a categorical value.
type LabelCount struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CountryStat aggregates incidents of one country.
type CountryStat struct {
	Value              string  `json:"value"`
	Label              string  `json:"label"`
	Incidents          int     `json:"incidents"`
	AvgFinancialImpact float64 `json:"avgFinancialImpact"`
	TotalAffectedUsers float64 `json:"totalAffectedUsers"`
}

// SeverityCount is the count of one severity in one country.
type SeverityCount struct {
	Country       string `json:"country"`
	CountryLabel  string `json:"countryLabel"`
	Severity      string `json:"severity"`
	SeverityLabel string `json:"severityLabel"`
	Count         int    `json:"count"`
}

// SectorStat aggregates incidents of one sector.
type SectorStat struct {
	Value              string  `json:"value"`
	Label              string  `json:"label"`
	Incidents          int     `json:"incidents"`
	AvgFinancialImpact float64 `json:"avgFinancialImpact"`
}

// MonthCount is the number of incidents in a calendar month across years.
type MonthCount struct {
	Month int    `json:"month"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// AttackImpact is the financial impact of one attack type.
type AttackImpact struct {
	Value         string  `json:"value"`
	Label         string  `json:"label"`
	AverageImpact float64 `json:"averageImpact"`
	TotalImpact   float64 `json:"totalImpact"`
}

// CrossTab counts incidents by attack type (rows) and sector (columns).
type CrossTab struct {
	Rows    []Option `json:"rows"`
	Columns []Option `json:"columns"`
	Counts  [][]int  `json:"counts"`
}

// Row is an incident with localized categorical values.
type Row struct {
	Date            string  `json:"date"`
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	Country         string  `json:"country"`
	AttackType      string  `json:"attackType"`
	Sector          string  `json:"sector"`
	Severity        string  `json:"severity"`
	FinancialImpact float64 `json:"financialImpact"`
	AffectedUsers   float64 `json:"affectedUsers"`
}

// DateLayout is the layout of Row.Date.
const DateLayout = "2006-01-02"

// LocalizeRow translates the categorical fields of inc.
func LocalizeRow(inc domain.Incident, loc *locale.Locale) Row {
	return Row{
		Date:            inc.Date.Format(DateLayout),
		Year:            inc.Year,
		Month:           inc.Month,
		Country:         loc.Label(inc.Country),
		AttackType:      loc.Label(inc.AttackType),
		Sector:          loc.Label(inc.Sector),
		Severity:        loc.Label(string(inc.Severity)),
		FinancialImpact: inc.FinancialImpact,
		AffectedUsers:   inc.AffectedUsers,
	}
}

// Rows localizes every incident of view.
func Rows(view []domain.Incident, loc *locale.Locale) []Row {
	out := make([]Row, len(view))
	for i, inc := range view {
		out[i] = LocalizeRow(inc, loc)
	}
	return out
}

// Summary holds every aggregate of a filtered view.
type Summary struct {
	KPIs               []KPI           `json:"kpis"`
	ByYear             []YearCount     `json:"byYear"`
	AttackDistribution []LabelCount    `json:"attackDistribution"`
	Countries          []CountryStat   `json:"countries"`
	TopCountries       []CountryStat   `json:"topCountries"`
	SeverityByCountry  []SeverityCount `json:"severityByCountry"`
	Sectors            []SectorStat    `json:"sectors"`
	Monthly            []MonthCount    `json:"monthly"`
	FinancialByAttack  []AttackImpact  `json:"financialByAttack"`
	Heatmap            CrossTab        `json:"heatmap"`
	Sample             []Row           `json:"sample"`
	Table              []Row           `json:"table"`
}

// Summarize computes the aggregates of view. rng drives the scatter sample.
func Summarize(view []domain.Incident, loc *locale.Locale, rng *rand.Rand) Summary {
	return Summary{
		KPIs:               KPIs(view, loc),
		ByYear:             CountByYear(view),
		AttackDistribution: AttackDistribution(view, loc),
		Countries:          CountryStats(view, loc),
		TopCountries:       headCountries(CountryStats(view, loc), TopCountries),
		SeverityByCountry:  SeverityByCountry(view, loc),
		Sectors:            SectorStats(view, loc),
		Monthly:            MonthlyPattern(view, loc),
		FinancialByAttack:  FinancialByAttack(view, loc),
		Heatmap:            AttackSectorCrossTab(view, loc),
		Sample:             Rows(Sample(view, MaxSampleRows, rng), loc),
		Table:              Rows(Head(view, MaxTableRows), loc),
	}
}

// KPIs returns total incidents, average financial impact, total affected
// users and critical incidents. An empty view yields zeros.
func KPIs(view []domain.Incident, loc *locale.Locale) []KPI {
	var impact, users float64
	critical := 0
	for _, inc := range view {
		impact += inc.FinancialImpact
		users += inc.AffectedUsers
		if inc.Severity == domain.SeverityCritical {
			critical++
		}
	}
	avg := 0.0
	if len(view) > 0 {
		avg = impact / float64(len(view))
	}
	return []KPI{
		{Key: "total_incidents", Label: loc.Text("kpi.total_incidents"), Value: float64(len(view)), Display: loc.FormatCount(int64(len(view)))},
		{Key: "avg_financial_impact", Label: loc.Text("kpi.avg_financial_impact"), Value: avg, Display: "$" + loc.FormatAmount(avg)},
		{Key: "total_affected_users", Label: loc.Text("kpi.total_affected_users"), Value: users, Display: loc.FormatAmount(users)},
		{Key: "critical_incidents", Label: loc.Text("kpi.critical_incidents"), Value: float64(critical), Display: loc.FormatCount(int64(critical))},
	}
}

// CountByYear counts incidents per year, ascending.
func CountByYear(view []domain.Incident) []YearCount {
	counts := make(map[int]int)
	for _, inc := range view {
		counts[inc.Year]++
	}
	out := make([]YearCount, 0, len(counts))
	for y, c := range counts {
		out = append(out, YearCount{Year: y, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// AttackDistribution counts incidents per attack type, most frequent first.
func AttackDistribution(view []domain.Incident, loc *locale.Locale) []LabelCount {
	counts := make(map[string]int)
	for _, inc := range view {
		counts[inc.AttackType]++
	}
	out := make([]LabelCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, LabelCount{Value: v, Label: loc.Label(v), Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// CountryStats aggregates per country, ordered by incidents descending.
// Means are rounded to two decimals.
func CountryStats(view []domain.Incident, loc *locale.Locale) []CountryStat {
	type acc struct {
		n            int
		impact, user float64
	}
	by := make(map[string]*acc)
	for _, inc := range view {
		a, ok := by[inc.Country]
		if !ok {
			a = &acc{}
			by[inc.Country] = a
		}
		a.n++
		a.impact += inc.FinancialImpact
		a.user += inc.AffectedUsers
	}
	out := make([]CountryStat, 0, len(by))
	for c, a := range by {
		out = append(out, CountryStat{
			Value:              c,
			Label:              loc.Label(c),
			Incidents:          a.n,
			AvgFinancialImpact: round2(a.impact / float64(a.n)),
			TotalAffectedUsers: round2(a.user),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Incidents != out[j].Incidents {
			return out[i].Incidents > out[j].Incidents
		}
		return out[i].Value < out[j].Value
	})
	return out
}

func headCountries(stats []CountryStat, n int) []CountryStat {
	if len(stats) < n {
		n = len(stats)
	}
	return append(make([]CountryStat, 0, n), stats[:n]...)
}

// SeverityByCountry counts each (country, severity) pair present in view.
func SeverityByCountry(view []domain.Incident, loc *locale.Locale) []SeverityCount {
	type key struct {
		country  string
		severity domain.Severity
	}
	counts := make(map[key]int)
	for _, inc := range view {
		counts[key{inc.Country, inc.Severity}]++
	}
	out := make([]SeverityCount, 0, len(counts))
	for k, c := range counts {
		out = append(out, SeverityCount{
			Country:       k.country,
			CountryLabel:  loc.Label(k.country),
			Severity:      string(k.severity),
			SeverityLabel: loc.Label(string(k.severity)),
			Count:         c,
		})
	}
	rank := severityRank()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Country != out[j].Country {
			return out[i].Country < out[j].Country
		}
		return rank[domain.Severity(out[i].Severity)] < rank[domain.Severity(out[j].Severity)]
	})
	return out
}

// SectorStats aggregates per sector, ordered by incidents ascending.
func SectorStats(view []domain.Incident, loc *locale.Locale) []SectorStat {
	type acc struct {
		n      int
		impact float64
	}
	by := make(map[string]*acc)
	for _, inc := range view {
		a, ok := by[inc.Sector]
		if !ok {
			a = &acc{}
			by[inc.Sector] = a
		}
		a.n++
		a.impact += inc.FinancialImpact
	}
	out := make([]SectorStat, 0, len(by))
	for s, a := range by {
		out = append(out, SectorStat{
			Value:              s,
			Label:              loc.Label(s),
			Incidents:          a.n,
			AvgFinancialImpact: round2(a.impact / float64(a.n)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Incidents != out[j].Incidents {
			return out[i].Incidents < out[j].Incidents
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// MonthlyPattern counts incidents per calendar month present in view.
func MonthlyPattern(view []domain.Incident, loc *locale.Locale) []MonthCount {
	var counts [12]int
	for _, inc := range view {
		if inc.Month >= 1 && inc.Month <= 12 {
			counts[inc.Month-1]++
		}
	}
	out := make([]MonthCount, 0, 12)
	for i, c := range counts {
		if c == 0 {
			continue
		}
		out = append(out, MonthCount{Month: i + 1, Name: loc.Month(i + 1), Count: c})
	}
	return out
}

// FinancialByAttack returns mean and total impact per attack type, highest mean first.
func FinancialByAttack(view []domain.Incident, loc *locale.Locale) []AttackImpact {
	type acc struct {
		n   int
		sum float64
	}
	by := make(map[string]*acc)
	for _, inc := range view {
		a, ok := by[inc.AttackType]
		if !ok {
			a = &acc{}
			by[inc.AttackType] = a
		}
		a.n++
		a.sum += inc.FinancialImpact
	}
	out := make([]AttackImpact, 0, len(by))
	for v, a := range by {
		out = append(out, AttackImpact{
			Value:         v,
			Label:         loc.Label(v),
			AverageImpact: round2(a.sum / float64(a.n)),
			TotalImpact:   round2(a.sum),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AverageImpact != out[j].AverageImpact {
			return out[i].AverageImpact > out[j].AverageImpact
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// AttackSectorCrossTab counts incidents by attack type and sector. Rows and
// columns contain only values present in view, ordered by display label.
func AttackSectorCrossTab(view []domain.Incident, loc *locale.Locale) CrossTab {
	attacks := make(map[string]struct{})
	sectors := make(map[string]struct{})
	for _, inc := range view {
		attacks[inc.AttackType] = struct{}{}
		sectors[inc.Sector] = struct{}{}
	}
	rows := loc.SortByLabel(keys(attacks))
	cols := loc.SortByLabel(keys(sectors))

	rowIdx := indexOf(rows)
	colIdx := indexOf(cols)
	counts := make([][]int, len(rows))
	for i := range counts {
		counts[i] = make([]int, len(cols))
	}
	for _, inc := range view {
		counts[rowIdx[inc.AttackType]][colIdx[inc.Sector]]++
	}
	return CrossTab{Rows: labelled(loc, rows), Columns: labelled(loc, cols), Counts: counts}
}

// Sample draws min(n, len(view)) rows without replacement, in view order.
func Sample(view []domain.Incident, n int, rng *rand.Rand) []domain.Incident {
	if n >= len(view) {
		return append(make([]domain.Incident, 0, len(view)), view...)
	}
	idx := make([]int, len(view))
	for i := range idx {
		idx[i] = i
	}
	// partial Fisher-Yates
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	picked := idx[:n]
	sort.Ints(picked)
	out := make([]domain.Incident, n)
	for i, k := range picked {
		out[i] = view[k]
	}
	return out
}

// Head returns the first n rows of view.
func Head(view []domain.Incident, n int) []domain.Incident {
	if len(view) < n {
		n = len(view)
	}
	return append(make([]domain.Incident, 0, n), view[:n]...)
}

func indexOf(vals []string) map[string]int {
	m := make(map[string]int, len(vals))
	for i, v := range vals {
		m[v] = i
	}
	return m
}

func severityRank() map[domain.Severity]int {
	m := make(map[domain.Severity]int)
	for i, s := range domain.Severities() {
		m[s] = i
	}
	return m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
