package sheets

import (
	"testing"
)

func TestToRecords(t *testing.T) {
	values := [][]interface{}{
		{"group", "weekday", "", "subject"},
		{"10", "Mon", "ignored", "Algebra"},
		{"11", "Tue"},
		{"", "", "", ""},
		{float64(10), "Wed", nil, "Biology"},
	}

	recs := toRecords(values)
	if len(recs) != 3 {
		t.Fatalf("toRecords() = %d records, want 3", len(recs))
	}
	if recs[0]["subject"] != "Algebra" {
		t.Errorf("first subject = %v", recs[0]["subject"])
	}
	if _, ok := recs[0][""]; ok {
		t.Error("unnamed column must be dropped")
	}
	if recs[1]["subject"] != "" {
		t.Errorf("short row not padded: %v", recs[1])
	}
	if recs[2]["group"] != float64(10) {
		t.Errorf("non-string cell changed: %#v", recs[2]["group"])
	}
}

func TestToRecordsEmpty(t *testing.T) {
	if recs := toRecords(nil); recs != nil {
		t.Errorf("toRecords(nil) = %v", recs)
	}
	if recs := toRecords([][]interface{}{{"group"}}); len(recs) != 0 {
		t.Errorf("header only = %v", recs)
	}
}

func TestQuoteSheet(t *testing.T) {
	tests := map[string]string{
		"schedule":     "'schedule'",
		"Rock'n'Roll":  "'Rock''n''Roll'",
		"2 четверть":   "'2 четверть'",
	}
	for in, want := range tests {
		if got := quoteSheet(in); got != want {
			t.Errorf("quoteSheet(%q) = %q, want %q", in, got, want)
		}
	}
}
