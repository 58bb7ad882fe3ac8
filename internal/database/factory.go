package database

import (
	"fmt"

	"github.com/Rana718/docstorm/internal/database/bolt"
	"github.com/Rana718/docstorm/internal/database/memory"
	"github.com/Rana718/docstorm/internal/database/mongodb"
	"github.com/Rana718/docstorm/internal/database/mysql"
	"github.com/Rana718/docstorm/internal/database/postgres"
	"github.com/Rana718/docstorm/internal/database/sqlite"
)

// Providers lists the accepted provider names.
var Providers = []string{"mongodb", "postgresql", "postgres", "mysql", "sqlite", "sqlite3", "bolt", "memory"}

func NewStore(provider string) (Store, error) {
	switch provider {
	case "mongodb", "mongo":
		return mongodb.New(), nil
	case "postgresql", "postgres":
		return postgres.New(), nil
	case "mysql":
		return mysql.New(), nil
	case "sqlite", "sqlite3":
		return sqlite.New(), nil
	case "bolt", "bbolt":
		return bolt.New(), nil
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported database provider: %s. Supported providers: %v", provider, Providers)
	}
}

// Supported reports whether NewStore accepts provider.
func Supported(provider string) bool {
	_, err := NewStore(provider)
	return err == nil
}
