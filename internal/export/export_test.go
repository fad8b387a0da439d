package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/typeboard/typeboard/internal/domain"
	"github.com/typeboard/typeboard/internal/locale"
)

func TestWriteCSV(t *testing.T) {
	ko, _ := locale.Default().Lookup("ko")
	en, _ := locale.Default().Lookup("en")

	t.Run("EmptyViewHeaderOnly", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := WriteCSV(&buf, nil, ko)
		if err != nil {
			t.Fatalf("WriteCSV failed: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 rows, got %d", n)
		}
		want := "date,year,month,country,attack_type,sector,severity,financial_impact,affected_users\n"
		if buf.String() != want {
			t.Errorf("expected header only, got %q", buf.String())
		}
	})

	t.Run("LocalizedRows", func(t *testing.T) {
		view := []domain.Incident{{
			Date:            time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
			Year:            2024,
			Month:           3,
			Country:         "South Korea",
			AttackType:      "Data Breach",
			Sector:          "Finance",
			Severity:        domain.SeverityHigh,
			FinancialImpact: 1234.5,
			AffectedUsers:   42,
		}}

		for _, tt := range []struct {
			loc  *locale.Locale
			want []string
		}{
			{en, []string{"2024-03-05", "2024", "3", "South Korea", "Data Breach", "Finance", "High", "1234.5", "42"}},
			{ko, []string{"2024-03-05", "2024", "3", ko.Label("South Korea"), ko.Label("Data Breach"), ko.Label("Finance"), ko.Label("High"), "1234.5", "42"}},
		} {
			var buf bytes.Buffer
			if _, err := WriteCSV(&buf, view, tt.loc); err != nil {
				t.Fatalf("WriteCSV failed: %v", err)
			}
			records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
			if err != nil {
				t.Fatalf("output is not valid CSV: %v", err)
			}
			if diff := cmp.Diff([][]string{Header, tt.want}, records); diff != "" {
				t.Errorf("%s rows mismatch (-want +got):\n%s", tt.loc.Code(), diff)
			}
		}
	})

	t.Run("WriterError", func(t *testing.T) {
		_, err := WriteCSV(failingWriter{}, nil, en)
		if err == nil || !errors.Is(err, errBoom) {
			t.Errorf("expected writer error, got %v", err)
		}
	})
}

var errBoom = errors.New("boom")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errBoom }
