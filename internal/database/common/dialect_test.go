package common

import (
	"reflect"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/docstorm/internal/schema"
	"github.com/Rana718/docstorm/internal/types"
)

var testDialect = Dialect{
	Name:             "test",
	Placeholder:      squirrel.Dollar,
	Quote:            QuoteWith(`"`),
	IntType:          "BIGINT",
	StringType:       "TEXT",
	DateType:         "TIMESTAMPTZ",
	MaxParams:        10,
	IndexIfNotExists: true,
}

var testSpec = schema.NewSpec([]schema.FieldSpec{
	{Name: "ID", Type: schema.Int, Unique: true},
	{Name: "STATUS", Type: schema.String},
	{Name: "CREATED_AT", Type: schema.Date},
})

func TestCreateTableSQL(t *testing.T) {
	got := testDialect.CreateTableSQL("recon", testSpec)
	want := `CREATE TABLE IF NOT EXISTS "recon" ("ID" BIGINT, "STATUS" TEXT, "CREATED_AT" TIMESTAMPTZ)`
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestCreateIndexSQL(t *testing.T) {
	got := testDialect.CreateIndexSQL("recon", "ID")
	want := `CREATE INDEX IF NOT EXISTS "idx_recon_ID" ON "recon" ("ID")`
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	noIfNotExists := testDialect
	noIfNotExists.IndexIfNotExists = false
	if got := noIfNotExists.CreateIndexSQL("recon", "ID"); got != `CREATE INDEX "idx_recon_ID" ON "recon" ("ID")` {
		t.Errorf("Unexpected index SQL %q", got)
	}
}

func TestInsertSQL(t *testing.T) {
	docs := []types.Document{
		{"ID": int64(1), "STATUS": "OPEN"},
		{"ID": int64(2), "STATUS": "CLOSED"},
	}
	query, args, err := testDialect.InsertSQL("recon", []string{"ID", "STATUS"}, docs)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := `INSERT INTO "recon" ("ID","STATUS") VALUES ($1,$2),($3,$4)`
	if query != want {
		t.Errorf("Expected %q, got %q", want, query)
	}
	if !reflect.DeepEqual(args, []interface{}{int64(1), "OPEN", int64(2), "CLOSED"}) {
		t.Errorf("Unexpected args %v", args)
	}

	if _, _, err := testDialect.InsertSQL("recon", []string{"ID"}, nil); err == nil {
		t.Error("Expected error for empty insert")
	}
}

func TestFindSQL(t *testing.T) {
	query, args, err := testDialect.FindSQL("recon", []string{"ID", "STATUS"}, types.Filter{"ID": int64(7)})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := `SELECT "ID", "STATUS" FROM "recon" WHERE "ID" = $1 LIMIT 1`
	if query != want {
		t.Errorf("Expected %q, got %q", want, query)
	}
	if len(args) != 1 || args[0] != int64(7) {
		t.Errorf("Unexpected args %v", args)
	}
}

func TestAggregateSQL(t *testing.T) {
	query, _, err := testDialect.AggregateSQL("recon", types.GroupCount{Field: "STATUS"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := `SELECT "STATUS", COUNT(*) AS "total_records" FROM "recon" GROUP BY "STATUS" ORDER BY "total_records" DESC`
	if query != want {
		t.Errorf("Expected %q, got %q", want, query)
	}
}

func TestRowsPerInsert(t *testing.T) {
	if n := testDialect.RowsPerInsert(3); n != 3 {
		t.Errorf("Expected 3 rows for 3 columns under 10 params, got %d", n)
	}
	if n := testDialect.RowsPerInsert(20); n != 1 {
		t.Errorf("Expected at least one row, got %d", n)
	}
}

func TestChunkDocuments(t *testing.T) {
	docs := make([]types.Document, 7)
	chunks := ChunkDocuments(docs, 3)

	if len(chunks) != 3 || len(chunks[0]) != 3 || len(chunks[2]) != 1 {
		t.Errorf("Unexpected chunking: %d chunks", len(chunks))
	}
}

func TestQuoteWith(t *testing.T) {
	quote := QuoteWith("`")
	if got := quote("a`b"); got != "`a``b`" {
		t.Errorf("Expected escaped identifier, got %s", got)
	}
}

func TestRowToDocument(t *testing.T) {
	doc := RowToDocument([]string{"A", "B", "C"}, []interface{}{[]byte("x"), int32(4), nil})

	if doc["A"] != "x" || doc["B"] != int64(4) || doc["C"] != nil {
		t.Errorf("Unexpected document %v", doc)
	}
}
