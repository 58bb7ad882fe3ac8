package common

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/docstorm/internal/schema"
	"github.com/Rana718/docstorm/internal/types"
)

// Dialect captures what differs between the SQL stores: placeholders,
// identifier quoting and column types.
type Dialect struct {
	Name        string
	Placeholder squirrel.PlaceholderFormat
	Quote       func(string) string

	IntType    string
	StringType string
	DateType   string

	// MaxParams caps bind parameters per statement.
	MaxParams int
	// IndexIfNotExists is false for engines without CREATE INDEX IF NOT EXISTS.
	IndexIfNotExists bool
}

// QuoteWith returns an identifier quoter that doubles embedded quote chars.
func QuoteWith(q string) func(string) string {
	return func(id string) string {
		return q + strings.ReplaceAll(id, q, q+q) + q
	}
}

func (d Dialect) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(d.Placeholder)
}

func (d Dialect) ColumnType(t schema.FieldType) string {
	switch t {
	case schema.Int:
		return d.IntType
	case schema.String:
		return d.StringType
	case schema.Date:
		return d.DateType
	default:
		return d.StringType
	}
}

func (d Dialect) quoteAll(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = d.Quote(id)
	}
	return out
}

func (d Dialect) CreateTableSQL(table string, spec *schema.Spec) string {
	cols := make([]string, 0, spec.Len())
	for _, f := range spec.Fields {
		cols = append(cols, d.Quote(f.Name)+" "+d.ColumnType(f.Type))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", d.Quote(table), strings.Join(cols, ", "))
}

func (d Dialect) CreateIndexSQL(table, field string) string {
	ifNotExists := ""
	if d.IndexIfNotExists {
		ifNotExists = "IF NOT EXISTS "
	}
	return fmt.Sprintf("CREATE INDEX %s%s ON %s (%s)",
		ifNotExists, d.Quote(IndexName(table, field)), d.Quote(table), d.Quote(field))
}

// InsertSQL builds one multi-row INSERT. Fields missing from a document are
// written as NULL.
func (d Dialect) InsertSQL(table string, columns []string, docs []types.Document) (string, []interface{}, error) {
	if len(docs) == 0 {
		return "", nil, fmt.Errorf("no documents to insert")
	}
	q := d.Builder().Insert(d.Quote(table)).Columns(d.quoteAll(columns)...)
	for _, doc := range docs {
		row := make([]interface{}, len(columns))
		for i, c := range columns {
			row[i] = doc[c]
		}
		q = q.Values(row...)
	}
	return q.ToSql()
}

// RowsPerInsert is how many documents fit in one INSERT under MaxParams.
func (d Dialect) RowsPerInsert(columns int) int {
	if columns <= 0 || d.MaxParams <= 0 {
		return 1
	}
	if n := d.MaxParams / columns; n > 0 {
		return n
	}
	return 1
}

func (d Dialect) FindSQL(table string, columns []string, filter types.Filter) (string, []interface{}, error) {
	eq := squirrel.Eq{}
	for k, v := range filter {
		eq[d.Quote(k)] = v
	}
	return d.Builder().
		Select(d.quoteAll(columns)...).
		From(d.Quote(table)).
		Where(eq).
		Limit(1).
		ToSql()
}

// AggregateSQL is the SQL form of the group/count/sort pipeline.
func (d Dialect) AggregateSQL(table string, g types.GroupCount) (string, []interface{}, error) {
	field := d.Quote(g.Field)
	count := d.Quote(g.CountAs())
	return d.Builder().
		Select(field, "COUNT(*) AS "+count).
		From(d.Quote(table)).
		GroupBy(field).
		OrderBy(count + " DESC").
		ToSql()
}

// ChunkDocuments splits docs into slices of at most size.
func ChunkDocuments(docs []types.Document, size int) [][]types.Document {
	if size <= 0 {
		size = 1
	}
	chunks := make([][]types.Document, 0, (len(docs)+size-1)/size)
	for start := 0; start < len(docs); start += size {
		end := start + size
		if end > len(docs) {
			end = len(docs)
		}
		chunks = append(chunks, docs[start:end])
	}
	return chunks
}

// RowToDocument maps scanned column values back onto field names.
func RowToDocument(columns []string, values []interface{}) types.Document {
	doc := make(types.Document, len(columns))
	for i, c := range columns {
		if i < len(values) {
			doc[c] = NormalizeValue(values[i])
		}
	}
	return doc
}

// NormalizeValue converts driver values to the types the generator produces.
func NormalizeValue(v interface{}) interface{} {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case int8:
		return int64(x)
	case uint32:
		return int64(x)
	default:
		return v
	}
}
