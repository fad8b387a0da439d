// Package incident generates the synthetic cybersecurity incident dataset.
package incident

import (
	"math/rand/v2"
	"time"

	"github.com/typeboard/typeboard/internal/domain"
)

// Window of generated years, inclusive.
const (
	FirstYear = 2015
	LastYear  = 2024
)

// Domains lists the canonical values each categorical field is drawn from.
type Domains struct {
	Countries   []string
	AttackTypes []string
	Sectors     []string
	Severities  []domain.Severity
}

// DefaultDomains returns the fixed dimension domains.
func DefaultDomains() Domains {
	return Domains{
		Countries: []string{
			"USA", "China", "Russia", "Germany", "UK", "India", "Brazil", "Japan", "France", "South Korea",
			"Australia", "Canada", "Netherlands", "Israel", "Iran", "North Korea", "Ukraine", "Turkey",
		},
		AttackTypes: []string{
			"Malware", "Phishing", "Ransomware", "DDoS", "Data Breach", "Social Engineering",
			"SQL Injection", "Zero-day Exploit", "Insider Threat", "APT",
		},
		Sectors: []string{
			"Finance", "Healthcare", "Government", "Education", "Technology", "Energy", "Retail",
			"Manufacturing", "Transportation", "Telecommunications",
		},
		Severities: domain.Severities(),
	}
}

// Years returns every year of the generated window in ascending order.
func Years() []int {
	years := make([]int, 0, LastYear-FirstYear+1)
	for y := FirstYear; y <= LastYear; y++ {
		years = append(years, y)
	}
	return years
}

// severityWeights are cumulative thresholds for Low/Medium/High/Critical (30/40/20/10).
var severityWeights = [...]float64{0.3, 0.7, 0.9, 1.0}

const (
	baseIncidents      = 800
	incidentsPerYear   = 150
	noiseLow           = -100
	noiseHigh          = 200
	meanFinancial      = 50000.0
	financialGrowth    = 0.1
	meanAffectedUsers  = 1000.0
	affectedUserGrowth = 0.2
)

// Generator draws incidents from an explicitly supplied random source.
type Generator struct {
	rng     *rand.Rand
	domains Domains
}

// NewGenerator creates a generator reading from rng.
func NewGenerator(rng *rand.Rand, domains Domains) *Generator {
	return &Generator{rng: rng, domains: domains}
}

// NewSeededRand returns the PCG source used for a dataset seed.
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generate produces the full dataset for FirstYear..LastYear.
func Generate(seed uint64) []domain.Incident {
	return NewGenerator(NewSeededRand(seed), DefaultDomains()).All()
}

// All produces every year's incidents in year order.
func (g *Generator) All() []domain.Incident {
	var out []domain.Incident
	for y := FirstYear; y <= LastYear; y++ {
		out = g.appendYear(out, y)
	}
	return out
}

// CountForYear draws the number of incidents for a year.
func (g *Generator) CountForYear(year int) int {
	noise := noiseLow + g.rng.IntN(noiseHigh-noiseLow)
	return baseIncidents + (year-FirstYear)*incidentsPerYear + noise
}

func (g *Generator) appendYear(out []domain.Incident, year int) []domain.Incident {
	n := g.CountForYear(year)
	for i := 0; i < n; i++ {
		out = append(out, g.Incident(year))
	}
	return out
}

// Incident draws one record dated within year.
func (g *Generator) Incident(year int) domain.Incident {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	date := start.AddDate(0, 0, g.rng.IntN(daysIn(year)))
	offset := float64(year - FirstYear)

	return domain.Incident{
		Date:            date,
		Year:            year,
		Month:           int(date.Month()),
		Country:         pick(g.rng, g.domains.Countries),
		AttackType:      pick(g.rng, g.domains.AttackTypes),
		Sector:          pick(g.rng, g.domains.Sectors),
		Severity:        g.severity(),
		FinancialImpact: g.rng.ExpFloat64() * meanFinancial * (1 + offset*financialGrowth),
		AffectedUsers:   g.rng.ExpFloat64() * meanAffectedUsers * (1 + offset*affectedUserGrowth),
	}
}

func (g *Generator) severity() domain.Severity {
	u := g.rng.Float64()
	for i, w := range severityWeights {
		if u < w {
			return g.domains.Severities[i]
		}
	}
	return g.domains.Severities[len(g.domains.Severities)-1]
}

func pick[T any](rng *rand.Rand, values []T) T {
	return values[rng.IntN(len(values))]
}

func daysIn(year int) int {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}
