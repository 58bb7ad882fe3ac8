package common

import (
	"testing"
	"time"

	"github.com/Rana718/docstorm/internal/types"
)

func TestTallyOrdersByCountThenKey(t *testing.T) {
	tally := NewTally()
	for _, k := range []interface{}{"B", "A", "C", "C", "B", "C"} {
		tally.Add(k)
	}

	results := tally.Results(types.GroupCount{Field: "STATUS"})
	if len(results) != 3 {
		t.Fatalf("Expected 3 groups, got %d", len(results))
	}
	if results[0]["STATUS"] != "C" || results[0]["total_records"] != int64(3) {
		t.Errorf("Expected C first with 3, got %v", results[0])
	}
	if results[1]["STATUS"] != "B" || results[2]["STATUS"] != "A" {
		t.Errorf("Expected B before A, got %v then %v", results[1], results[2])
	}
}

func TestTallyNormalizesTimes(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tally := NewTally()
	tally.Add(ts)
	tally.Add(ts.In(time.FixedZone("X", 3600)))

	results := tally.Results(types.GroupCount{Field: "D", CountField: "n"})
	if len(results) != 1 || results[0]["n"] != int64(2) {
		t.Errorf("Expected equal instants to share a group, got %v", results)
	}
}

func TestMatches(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := types.Document{"ID": int64(1), "AT": ts}

	if !Matches(doc, types.Filter{"ID": int64(1), "AT": ts.Local()}) {
		t.Error("Expected match")
	}
	if Matches(doc, types.Filter{"ID": int64(2)}) {
		t.Error("Expected mismatch on value")
	}
	if Matches(doc, types.Filter{"MISSING": nil}) {
		t.Error("Expected mismatch on absent field")
	}
}
