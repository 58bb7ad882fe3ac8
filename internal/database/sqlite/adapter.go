package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/docstorm/internal/database/common"
	_ "github.com/mattn/go-sqlite3"
)

var dialect = common.Dialect{
	Name:             "sqlite",
	Placeholder:      squirrel.Question,
	Quote:            common.QuoteWith(`"`),
	IntType:          "INTEGER",
	StringType:       "TEXT",
	DateType:         "TIMESTAMP",
	MaxParams:        999,
	IndexIfNotExists: true,
}

type Adapter struct {
	common.SQLStore
	path string
}

func New() *Adapter {
	return &Adapter{SQLStore: common.SQLStore{Dialect: dialect}}
}

// Path returns the database file without query parameters.
func (s *Adapter) Path() string {
	return s.path
}

func (s *Adapter) Connect(ctx context.Context, opts common.Options) error {
	db, path, err := open(opts.URL, opts.PoolSize)
	if err != nil {
		return err
	}
	s.Primary = db
	s.path = path

	if opts.ReplicaURL != "" {
		replica, _, err := open(opts.ReplicaURL, opts.PoolSize)
		if err != nil {
			s.Primary.Close()
			return err
		}
		s.Replica = replica
	}

	if err := s.Ping(ctx); err != nil {
		s.Close()
		return fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if err := s.Prepare(ctx, opts, nil); err != nil {
		s.Close()
		return err
	}
	return nil
}

func open(url string, poolSize int) (*sql.DB, string, error) {
	dbPath := strings.TrimPrefix(url, "sqlite://")
	if dbPath == "" {
		return nil, "", fmt.Errorf("SQLite database path cannot be empty")
	}
	path := dbPath
	if idx := strings.Index(path, "?"); idx > 0 {
		path = path[:idx]
	}
	if !strings.Contains(dbPath, "?") {
		dbPath += "?cache=shared&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	if poolSize <= 0 {
		poolSize = 10
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, path, nil
}
