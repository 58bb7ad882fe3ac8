package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Rana718/docstorm/internal/types"
)

// SQLStore implements the document operations on top of database/sql. One
// table holds the collection, one column per schema field.
type SQLStore struct {
	Dialect Dialect
	Primary *sql.DB
	Replica *sql.DB // nil reads secondary targets from Primary

	table   string
	columns []string
}

// Prepare creates the table and, if asked, the key index. ignoreIndexErr
// lets engines without IF NOT EXISTS skip "index already exists" errors.
func (s *SQLStore) Prepare(ctx context.Context, opts Options, ignoreIndexErr func(error) bool) error {
	if opts.Spec == nil || opts.Spec.Len() == 0 {
		return fmt.Errorf("a schema is required to create table %s", opts.Collection)
	}
	if opts.Collection == "" {
		return fmt.Errorf("collection name cannot be empty")
	}

	s.table = opts.Collection
	s.columns = opts.Spec.Names()

	if _, err := s.Primary.ExecContext(ctx, s.Dialect.CreateTableSQL(s.table, opts.Spec)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}

	if opts.IndexField != "" {
		if _, ok := opts.Spec.Field(opts.IndexField); !ok {
			return fmt.Errorf("index field %s is not in the schema", opts.IndexField)
		}
		_, err := s.Primary.ExecContext(ctx, s.Dialect.CreateIndexSQL(s.table, opts.IndexField))
		if err != nil && (ignoreIndexErr == nil || !ignoreIndexErr(err)) {
			return fmt.Errorf("failed to create index on %s: %w", opts.IndexField, err)
		}
	}

	return nil
}

func (s *SQLStore) Close() error {
	var errs []error
	if s.Replica != nil {
		errs = append(errs, s.Replica.Close())
	}
	if s.Primary != nil {
		errs = append(errs, s.Primary.Close())
	}
	return errors.Join(errs...)
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.Primary.PingContext(ctx); err != nil {
		return err
	}
	if s.Replica != nil {
		return s.Replica.PingContext(ctx)
	}
	return nil
}

func (s *SQLStore) InsertOne(ctx context.Context, doc types.Document) error {
	return s.InsertMany(ctx, []types.Document{doc})
}

// InsertMany writes docs in as few statements as the parameter limit allows,
// inside one transaction.
func (s *SQLStore) InsertMany(ctx context.Context, docs []types.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.Primary.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, chunk := range ChunkDocuments(docs, s.Dialect.RowsPerInsert(len(s.columns))) {
		query, args, err := s.Dialect.InsertSQL(s.table, s.columns, chunk)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", s.table, err)
		}
	}

	return tx.Commit()
}

func (s *SQLStore) FindOne(ctx context.Context, filter types.Filter) (types.Document, error) {
	query, args, err := s.Dialect.FindSQL(s.table, s.columns, filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.Primary.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	values, err := scanRow(rows, len(s.columns))
	if err != nil {
		return nil, err
	}
	return RowToDocument(s.columns, values), nil
}

func (s *SQLStore) Aggregate(ctx context.Context, g types.GroupCount, target types.Target) ([]types.Document, error) {
	query, args, err := s.Dialect.AggregateSQL(s.table, g)
	if err != nil {
		return nil, err
	}

	db := s.Primary
	if target == types.Secondary && s.Replica != nil {
		db = s.Replica
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", s.table, err)
	}
	defer rows.Close()

	columns := []string{g.Field, g.CountAs()}
	var results []types.Document
	for rows.Next() {
		values, err := scanRow(rows, len(columns))
		if err != nil {
			return nil, err
		}
		results = append(results, RowToDocument(columns, values))
	}
	return results, rows.Err()
}

func scanRow(rows *sql.Rows, n int) ([]interface{}, error) {
	values := make([]interface{}, n)
	ptrs := make([]interface{}, n)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}
	return values, nil
}
