package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/docstorm/internal/database/common"
	"github.com/Rana718/docstorm/internal/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

var dialect = common.Dialect{
	Name:             "postgresql",
	Placeholder:      squirrel.Dollar,
	Quote:            pq.QuoteIdentifier,
	IntType:          "BIGINT",
	StringType:       "TEXT",
	DateType:         "TIMESTAMPTZ",
	MaxParams:        65535,
	IndexIfNotExists: true,
}

type Adapter struct {
	pool    *pgxpool.Pool
	replica *pgxpool.Pool

	table   string
	columns []string
}

func New() *Adapter {
	return &Adapter{}
}

func (p *Adapter) Connect(ctx context.Context, opts common.Options) error {
	if opts.Spec == nil || opts.Spec.Len() == 0 {
		return fmt.Errorf("a schema is required to create table %s", opts.Collection)
	}
	if opts.Collection == "" {
		return fmt.Errorf("collection name cannot be empty")
	}

	pool, err := newPool(ctx, opts.URL, opts.PoolSize)
	if err != nil {
		return err
	}
	p.pool = pool

	if opts.ReplicaURL != "" {
		if p.replica, err = newPool(ctx, opts.ReplicaURL, opts.PoolSize); err != nil {
			p.Close()
			return err
		}
	}

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	p.table = opts.Collection
	p.columns = opts.Spec.Names()

	if _, err := p.pool.Exec(ctx, dialect.CreateTableSQL(p.table, opts.Spec)); err != nil {
		p.Close()
		return fmt.Errorf("failed to create table %s: %w", p.table, err)
	}
	if opts.IndexField != "" {
		if _, err := p.pool.Exec(ctx, dialect.CreateIndexSQL(p.table, opts.IndexField)); err != nil {
			p.Close()
			return fmt.Errorf("failed to create index on %s: %w", opts.IndexField, err)
		}
	}

	return nil
}

func newPool(ctx context.Context, url string, poolSize int) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection URL: %w", err)
	}

	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	if poolSize <= 0 {
		poolSize = 2
	}
	config.MaxConns = int32(poolSize)
	config.MinConns = 0
	config.MaxConnLifetime = 15 * time.Minute
	config.MaxConnIdleTime = 3 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return pool, nil
}

func (p *Adapter) Close() error {
	if p.replica != nil {
		p.replica.Close()
	}
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Adapter) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return err
	}
	if p.replica != nil {
		return p.replica.Ping(ctx)
	}
	return nil
}

func (p *Adapter) InsertOne(ctx context.Context, doc types.Document) error {
	query, args, err := dialect.InsertSQL(p.table, p.columns, []types.Document{doc})
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", p.table, err)
	}
	return nil
}

// InsertMany streams the batch with COPY.
func (p *Adapter) InsertMany(ctx context.Context, docs []types.Document) error {
	if len(docs) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(docs))
	for i, doc := range docs {
		row := make([]interface{}, len(p.columns))
		for j, c := range p.columns {
			row[j] = doc[c]
		}
		rows[i] = row
	}

	n, err := p.pool.CopyFrom(ctx, pgx.Identifier{p.table}, p.columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy into %s: %w", p.table, err)
	}
	if int(n) != len(docs) {
		return fmt.Errorf("copied %d of %d rows into %s", n, len(docs), p.table)
	}
	return nil
}

func (p *Adapter) FindOne(ctx context.Context, filter types.Filter) (types.Document, error) {
	query, args, err := dialect.FindSQL(p.table, p.columns, filter)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", p.table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	values, err := rows.Values()
	if err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}
	return common.RowToDocument(p.columns, values), nil
}

func (p *Adapter) Aggregate(ctx context.Context, g types.GroupCount, target types.Target) ([]types.Document, error) {
	query, args, err := dialect.AggregateSQL(p.table, g)
	if err != nil {
		return nil, err
	}

	pool := p.pool
	if target == types.Secondary && p.replica != nil {
		pool = p.replica
	}

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", p.table, err)
	}
	defer rows.Close()

	columns := []string{g.Field, g.CountAs()}
	var results []types.Document
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		results = append(results, common.RowToDocument(columns, values))
	}
	return results, rows.Err()
}
