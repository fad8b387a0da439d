package domain

import "time"

// Severity is an ordered incident severity level.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Severities returns the four levels in ascending order.
func Severities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// Incident is one synthetic cybersecurity incident.
// Categorical fields hold canonical (English) values; locales translate them for display.
type Incident struct {
	Date            time.Time `json:"date"`
	Year            int       `json:"year"`
	Month           int       `json:"month"`
	Country         string    `json:"country"`
	AttackType      string    `json:"attackType"`
	Sector          string    `json:"sector"`
	Severity        Severity  `json:"severity"`
	FinancialImpact float64   `json:"financialImpact"`
	AffectedUsers   float64   `json:"affectedUsers"`
}

// FilterSelection holds the four multi-select filters of the dashboard.
// Matching is OR within a dimension and AND across dimensions.
type FilterSelection struct {
	Years       []int      `json:"years"`
	Countries   []string   `json:"countries"`
	AttackTypes []string   `json:"attackTypes"`
	Severities  []Severity `json:"severities"`
}

// Matches reports whether inc belongs to the filtered view.
// An empty set in any dimension matches nothing.
func (f FilterSelection) Matches(inc Incident) bool {
	return containsInt(f.Years, inc.Year) &&
		containsString(f.Countries, inc.Country) &&
		containsString(f.AttackTypes, inc.AttackType) &&
		containsSeverity(f.Severities, inc.Severity)
}

func containsInt(set []int, v int) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsSeverity(set []Severity, v Severity) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
