package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Rana718/docstorm/internal/database/common"
	"github.com/Rana718/docstorm/internal/types"
)

func openStore(t *testing.T, path, indexField string) *Store {
	t.Helper()
	s := New()
	err := s.Connect(context.Background(), common.Options{
		URL:        "bolt://" + path,
		Collection: "recon",
		IndexField: indexField,
	})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	return s
}

func TestBoltRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	s := openStore(t, path, "ID")
	defer s.Close()

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	docs := []types.Document{
		{"ID": int64(10), "STATUS": "OPEN", "CREATED": created},
		{"ID": int64(11), "STATUS": "CLOSED", "CREATED": created},
		{"ID": int64(12), "STATUS": "OPEN", "CREATED": created},
	}
	if err := s.InsertMany(ctx, docs); err != nil {
		t.Fatalf("InsertMany failed: %v", err)
	}

	doc, err := s.FindOne(ctx, types.Filter{"ID": int64(11)})
	if err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	if doc == nil || doc["STATUS"] != "CLOSED" {
		t.Fatalf("Expected CLOSED record, got %v", doc)
	}
	if got, ok := doc["CREATED"].(time.Time); !ok || !got.Equal(created) {
		t.Errorf("Expected date %v, got %v", created, doc["CREATED"])
	}

	byStatus, err := s.FindOne(ctx, types.Filter{"STATUS": "OPEN"})
	if err != nil || byStatus == nil || byStatus["ID"] != int64(10) {
		t.Errorf("Expected first OPEN record by scan, got %v, %v", byStatus, err)
	}

	missing, err := s.FindOne(ctx, types.Filter{"ID": int64(99)})
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for missing key, got %v, %v", missing, err)
	}

	groups, err := s.Aggregate(ctx, types.GroupCount{Field: "STATUS"}, types.Secondary)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(groups) != 2 || groups[0]["STATUS"] != "OPEN" || groups[0]["total_records"] != int64(2) {
		t.Errorf("Unexpected groups %v", groups)
	}
}

func TestBoltDatesKeepMilliseconds(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "test.db"), "CREATED")
	defer s.Close()

	created := time.Date(2025, 3, 1, 12, 0, 0, 123456789, time.UTC)
	if err := s.InsertOne(ctx, types.Document{"ID": int64(1), "CREATED": created}); err != nil {
		t.Fatalf("InsertOne failed: %v", err)
	}

	byIndex, err := s.FindOne(ctx, types.Filter{"CREATED": created})
	if err != nil || byIndex == nil {
		t.Fatalf("Expected indexed lookup by nanosecond date to match, got %v, %v", byIndex, err)
	}
	want := created.Truncate(time.Millisecond)
	if got := byIndex["CREATED"].(time.Time); !got.Equal(want) {
		t.Errorf("Expected stored date %v, got %v", want, got)
	}

	byScan, err := s.FindOne(ctx, types.Filter{"ID": int64(1), "CREATED": created})
	if err != nil || byScan == nil {
		t.Errorf("Expected scan by nanosecond date to match, got %v, %v", byScan, err)
	}
}

func TestBoltIndexBuiltOnReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s := openStore(t, path, "")
	if err := s.InsertOne(ctx, types.Document{"ID": int64(1), "STATUS": "OPEN"}); err != nil {
		t.Fatalf("InsertOne failed: %v", err)
	}
	s.Close()

	s = openStore(t, path, "ID")
	defer s.Close()

	doc, err := s.FindOne(ctx, types.Filter{"ID": int64(1)})
	if err != nil || doc == nil {
		t.Errorf("Expected indexed lookup after reopen, got %v, %v", doc, err)
	}
}

func TestBoltRequiresPath(t *testing.T) {
	s := New()
	if err := s.Connect(context.Background(), common.Options{URL: "bolt://", Collection: "recon"}); err == nil {
		t.Error("Expected error for empty path")
	}
}
