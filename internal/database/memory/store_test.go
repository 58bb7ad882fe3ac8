package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/Rana718/docstorm/internal/database/common"
	"github.com/Rana718/docstorm/internal/types"
)

func connected(t *testing.T, indexField string) *Store {
	t.Helper()
	s := New()
	if err := s.Connect(context.Background(), common.Options{Collection: "recon", IndexField: indexField}); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	return s
}

func TestFindOne(t *testing.T) {
	for _, indexField := range []string{"", "ID"} {
		s := connected(t, indexField)
		ctx := context.Background()

		s.InsertMany(ctx, []types.Document{
			{"ID": int64(1), "STATUS": "OPEN"},
			{"ID": int64(2), "STATUS": "CLOSED"},
		})

		doc, err := s.FindOne(ctx, types.Filter{"ID": int64(2)})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if doc == nil || doc["STATUS"] != "CLOSED" {
			t.Errorf("index %q: expected CLOSED, got %v", indexField, doc)
		}

		missing, err := s.FindOne(ctx, types.Filter{"ID": int64(3)})
		if err != nil || missing != nil {
			t.Errorf("index %q: expected nil, nil for missing key, got %v, %v", indexField, missing, err)
		}
	}
}

func TestFindOneReturnsCopy(t *testing.T) {
	s := connected(t, "ID")
	ctx := context.Background()
	s.InsertOne(ctx, types.Document{"ID": int64(1), "STATUS": "OPEN"})

	doc, _ := s.FindOne(ctx, types.Filter{"ID": int64(1)})
	doc["STATUS"] = "MUTATED"

	again, _ := s.FindOne(ctx, types.Filter{"ID": int64(1)})
	if again["STATUS"] != "OPEN" {
		t.Errorf("Expected stored document to be unchanged, got %v", again["STATUS"])
	}
}

func TestAggregateOrdering(t *testing.T) {
	s := connected(t, "")
	ctx := context.Background()

	statuses := []string{"OPEN", "CLOSED", "OPEN", "PENDING", "OPEN", "CLOSED"}
	for i, st := range statuses {
		s.InsertOne(ctx, types.Document{"ID": int64(i), "STATUS": st})
	}

	groups, err := s.Aggregate(ctx, types.GroupCount{Field: "STATUS"}, types.Secondary)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := []struct {
		status string
		count  int64
	}{{"OPEN", 3}, {"CLOSED", 2}, {"PENDING", 1}}

	if len(groups) != len(want) {
		t.Fatalf("Expected %d groups, got %d", len(want), len(groups))
	}
	for i, w := range want {
		if groups[i]["STATUS"] != w.status || groups[i]["total_records"] != w.count {
			t.Errorf("Group %d: expected %s=%d, got %v", i, w.status, w.count, groups[i])
		}
		if _, ok := groups[i]["_id"]; ok {
			t.Errorf("Group %d should not carry _id", i)
		}
	}
}

func TestPingRequiresConnect(t *testing.T) {
	s := New()
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Expected error before Connect")
	}
	s.Connect(context.Background(), common.Options{})
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Expected nil after Connect, got %v", err)
	}
}

func TestConcurrentInserts(t *testing.T) {
	s := connected(t, "ID")
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.InsertOne(ctx, types.Document{"ID": int64(w*1000 + i)})
			}
		}(w)
	}
	wg.Wait()

	if s.Len() != 800 {
		t.Errorf("Expected 800 documents, got %d", s.Len())
	}
}
