package domain

import (
	"errors"
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    CategoryKey
		wantErr bool
	}{
		{"INTJ", INTJ, false},
		{" esfp ", ESFP, false},
		{"ABCD", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownCategory) {
				t.Errorf("%q: expected ErrUnknownCategory, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%q: expected %s, got %s (%v)", tt.in, tt.want, got, err)
		}
	}
}

func TestCategories(t *testing.T) {
	keys := Categories()
	if len(keys) != 16 || keys[0] != INTJ || keys[15] != ESFP {
		t.Fatalf("unexpected categories %v", keys)
	}
	keys[0] = "XXXX"
	if Categories()[0] != INTJ {
		t.Error("Categories returned shared state")
	}
	if DefaultCategory() != INTJ {
		t.Errorf("expected INTJ default, got %s", DefaultCategory())
	}
}

func TestLookupResult(t *testing.T) {
	e := Entry{Labels: []string{"a"}}
	found := Found("jobs", INTJ, e)
	if !found.Found() {
		t.Fatal("expected found")
	}
	e.Labels[0] = "b"
	if found.Entry.Labels[0] != "a" {
		t.Error("Found did not copy the entry")
	}

	empty := Found("jobs", INTP, Entry{})
	if !empty.Found() || !empty.Entry.Empty() {
		t.Error("expected a found-but-empty result")
	}

	na := NotAvailable("jobs", ENTJ)
	if na.Found() || na.Status != LookupNotAvailable {
		t.Errorf("unexpected result %+v", na)
	}
}

func TestFilterSelectionMatches(t *testing.T) {
	inc := Incident{Year: 2024, Country: "USA", AttackType: "Malware", Severity: SeverityHigh}
	sel := FilterSelection{
		Years:       []int{2023, 2024},
		Countries:   []string{"USA"},
		AttackTypes: []string{"Malware", "DDoS"},
		Severities:  []Severity{SeverityHigh},
	}
	if !sel.Matches(inc) {
		t.Error("expected match")
	}

	miss := sel
	miss.Countries = []string{"Japan"}
	if miss.Matches(inc) {
		t.Error("expected country mismatch")
	}

	empty := sel
	empty.Years = nil
	if empty.Matches(inc) {
		t.Error("expected empty year set to match nothing")
	}
}
