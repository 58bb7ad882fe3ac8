package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/docstorm/internal/database/common"
	driver "github.com/go-sql-driver/mysql"
)

// duplicate key name
const errDupKeyName = 1061

var dialect = common.Dialect{
	Name:        "mysql",
	Placeholder: squirrel.Question,
	Quote:       common.QuoteWith("`"),
	IntType:     "BIGINT",
	StringType:  "VARCHAR(255)",
	DateType:    "DATETIME(6)",
	MaxParams:   65535,
}

type Adapter struct {
	common.SQLStore
	database string
}

func New() *Adapter {
	return &Adapter{SQLStore: common.SQLStore{Dialect: dialect}}
}

// Database is the schema name taken from the DSN or the options.
func (m *Adapter) Database() string {
	return m.database
}

func (m *Adapter) Connect(ctx context.Context, opts common.Options) error {
	cfg, err := ParseURL(opts.URL, opts.Database)
	if err != nil {
		return err
	}
	m.database = cfg.DBName

	db, err := open(cfg, opts.PoolSize)
	if err != nil {
		return err
	}
	m.Primary = db

	if opts.ReplicaURL != "" {
		replicaCfg, err := ParseURL(opts.ReplicaURL, cfg.DBName)
		if err != nil {
			m.Close()
			return err
		}
		if m.Replica, err = open(replicaCfg, opts.PoolSize); err != nil {
			m.Close()
			return err
		}
	}

	if err := m.Ping(ctx); err != nil {
		m.Close()
		return fmt.Errorf("failed to ping MySQL: %w", err)
	}

	if err := m.Prepare(ctx, opts, isDuplicateIndex); err != nil {
		m.Close()
		return err
	}
	return nil
}

func open(cfg *driver.Config, poolSize int) (*sql.DB, error) {
	connector, err := driver.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	db := sql.OpenDB(connector)

	if poolSize <= 0 {
		poolSize = 2
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)
	return db, nil
}

// ParseURL accepts either a mysql:// URL or a native DSN. database overrides
// the schema named in the URL when non-empty.
func ParseURL(raw, database string) (*driver.Config, error) {
	dsn := raw
	if strings.HasPrefix(raw, "mysql://") {
		converted, err := urlToDSN(raw)
		if err != nil {
			return nil, err
		}
		dsn = converted
	}

	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL connection string: %w", err)
	}
	cfg.ParseTime = true
	if database != "" {
		cfg.DBName = database
	}
	if cfg.DBName == "" {
		return nil, fmt.Errorf("MySQL connection string must name a database")
	}
	return cfg, nil
}

var sslModes = map[string]string{
	"REQUIRED":        "skip-verify",
	"require":         "skip-verify",
	"DISABLED":        "false",
	"disable":         "false",
	"VERIFY_CA":       "true",
	"verify-ca":       "true",
	"VERIFY_IDENTITY": "true",
	"verify-full":     "true",
}

func urlToDSN(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid MySQL URL: %w", err)
	}

	cfg := driver.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" && u.Host != "" {
		cfg.Addr = u.Host + ":3306"
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")

	params := map[string]string{}
	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		value := values[0]
		if key == "ssl-mode" || key == "sslmode" {
			if tls, ok := sslModes[value]; ok {
				cfg.TLSConfig = tls
			}
			continue
		}
		params[key] = value
	}
	if len(params) > 0 {
		cfg.Params = params
	}

	return cfg.FormatDSN(), nil
}

func isDuplicateIndex(err error) bool {
	var myErr *driver.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errDupKeyName
}
