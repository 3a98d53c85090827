package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/playtrack-api/pkg/config"
)

// Open connects to the store selected by DB_DRIVER.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres, "postgresql":
		return NewPostgres(cfg)
	case config.DriverSQLite, "sqlite3", "":
		return NewSQLite(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// IsPostgres reports whether db talks to PostgreSQL (or a sqlmock posing as it).
func IsPostgres(db *sqlx.DB) bool {
	return sqlx.BindType(db.DriverName()) == sqlx.DOLLAR
}
