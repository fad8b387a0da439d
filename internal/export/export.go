// Package export writes filtered incidents as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/typeboard/typeboard/internal/dashboard"
	"github.com/typeboard/typeboard/internal/domain"
	"github.com/typeboard/typeboard/internal/locale"
)

// Download metadata.
const (
	Filename    = "cybersecurity_threats_filtered.csv"
	ContentType = "text/csv; charset=utf-8"
)

// Header is the CSV column order.
var Header = []string{
	"date",
	"year",
	"month",
	"country",
	"attack_type",
	"sector",
	"severity",
	"financial_impact",
	"affected_users",
}

// WriteCSV writes the header and one line per incident, with categorical
// values in loc's language. An empty view produces the header only.
func WriteCSV(w io.Writer, view []domain.Incident, loc *locale.Locale) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(Header))
	for i, inc := range view {
		row := dashboard.LocalizeRow(inc, loc)
		record[0] = row.Date
		record[1] = strconv.Itoa(row.Year)
		record[2] = strconv.Itoa(row.Month)
		record[3] = row.Country
		record[4] = row.AttackType
		record[5] = row.Sector
		record[6] = row.Severity
		record[7] = formatFloat(row.FinancialImpact)
		record[8] = formatFloat(row.AffectedUsers)
		if err := cw.Write(record); err != nil {
			return i, fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return len(view), fmt.Errorf("flush csv: %w", err)
	}
	return len(view), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
