package dashboard

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/typeboard/typeboard/internal/domain"
	"github.com/typeboard/typeboard/internal/incident"
	"github.com/typeboard/typeboard/internal/locale"
	"github.com/typeboard/typeboard/internal/trend"
)

// ForecastYears are the years the trend line is extrapolated to.
var ForecastYears = []int{incident.LastYear + 1, incident.LastYear + 2}

// Chart title message keys, in display order.
var chartKeys = []string{
	"chart.by_year",
	"chart.attack_distribution",
	"chart.top_countries",
	"chart.severity_by_country",
	"chart.sectors",
	"chart.monthly",
	"chart.financial_by_attack",
	"chart.scatter",
	"chart.heatmap",
	"chart.trend",
}

// TrendView is a trend result with its localized notices.
type TrendView struct {
	Title string `json:"title"`
	trend.Result
	Warning string   `json:"warning,omitempty"`
	Notes   []string `json:"notes,omitempty"`
}

// Dashboard is the full render of a filtered view.
type Dashboard struct {
	Locale         string                 `json:"locale"`
	Title          string                 `json:"title"`
	Selection      domain.FilterSelection `json:"selection"`
	Query          string                 `json:"query,omitempty"`
	Matched        int                    `json:"matched"`
	Empty          bool                   `json:"empty"`
	Notice         string                 `json:"notice,omitempty"`
	Charts         map[string]string      `json:"charts"`
	SeverityColors map[string]string      `json:"severityColors"`
	Summary        Summary                `json:"summary"`
	Trend          TrendView              `json:"trend"`
}

// Build filters ds and renders every aggregate. pred may be nil.
// The scatter sample is seeded from the dataset so identical inputs render identically.
func Build(ds *incident.Dataset, sel domain.FilterSelection, pred Predicate, loc *locale.Locale) Dashboard {
	view := Filter(ds, sel, pred)
	rng := incident.NewSeededRand(ds.Seed() ^ uint64(len(view)))

	d := Dashboard{
		Locale:         loc.Code(),
		Title:          loc.Text("dashboard.title"),
		Selection:      sel,
		Matched:        len(view),
		Empty:          len(view) == 0,
		Charts:         make(map[string]string, len(chartKeys)),
		SeverityColors: make(map[string]string, len(SeverityColors)),
		Summary:        Summarize(view, loc, rng),
		Trend:          Trend(view, loc),
	}
	if s, ok := pred.(fmt.Stringer); ok {
		d.Query = s.String()
	}
	if d.Empty {
		d.Notice = loc.Text("filter.empty")
	}
	for _, k := range chartKeys {
		d.Charts[k] = loc.Text(k)
	}
	for sev, color := range SeverityColors {
		d.SeverityColors[loc.Label(string(sev))] = color
	}
	return d
}

// Trend fits the yearly counts of view and extrapolates ForecastYears.
// Fewer than two distinct years yield a warning and no predictions.
func Trend(view []domain.Incident, loc *locale.Locale) TrendView {
	counts := CountByYear(view)
	points := make([]trend.Point, len(counts))
	for i, c := range counts {
		points[i] = trend.Point{Year: c.Year, Count: float64(c.Count)}
	}

	res, err := trend.Extrapolate(points, ForecastYears...)
	tv := TrendView{Title: loc.Text("chart.trend"), Result: res}
	if errors.Is(err, trend.ErrInsufficientData) {
		tv.Warning = loc.Text("trend.insufficient")
		return tv
	}
	for _, p := range res.Predictions {
		// truncated toward zero, then grouped
		tv.Notes = append(tv.Notes, loc.Textf("trend.predicted", strconv.Itoa(p.Year), loc.FormatCount(int64(p.Count))))
	}
	return tv
}
