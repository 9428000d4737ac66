package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/queryloom/queryloom/internal/config"
	"github.com/rs/zerolog/log"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the user's data source. The same connection serves schema
// introspection and our one housekeeping table (suggestion_history).
type DB struct {
	conn   *sql.DB
	driver string
}

// New creates a new database connection based on config
func New(cfg *config.Config) (*DB, error) {
	var conn *sql.DB
	var err error

	switch cfg.DBDriver {
	case "sqlite":
		// Ensure directory exists
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
		conn, err = sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on")
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		conn.SetMaxOpenConns(1) // SQLite is single-writer
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DATABASE_URL required for postgres driver")
		}
		conn, err = sql.Open("pgx", cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		conn.SetMaxOpenConns(10)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.DBDriver)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db := &DB{conn: conn, driver: cfg.DBDriver}

	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	log.Info().Str("driver", cfg.DBDriver).Msg("database connected")
	return db, nil
}

// NewFromConn wraps an already-open connection without running migrations.
// Tests use it to back a DB with a mock connection.
func NewFromConn(conn *sql.DB, driver string) *DB {
	return &DB{conn: conn, driver: driver}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// RawConn returns the underlying sql.DB connection, used by schema
// introspection.
func (db *DB) RawConn() *sql.DB {
	return db.conn
}

// Driver returns the configured driver name ("sqlite" or "postgres").
func (db *DB) Driver() string {
	return db.driver
}

// placeholder returns the correct placeholder syntax for the driver
func (db *DB) placeholder(n int) string {
	if db.driver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// autoIncrement returns the correct auto-increment syntax
func (db *DB) autoIncrement() string {
	if db.driver == "postgres" {
		return "SERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// timestampType returns the correct timestamp type
func (db *DB) timestampType() string {
	if db.driver == "postgres" {
		return "TIMESTAMPTZ"
	}
	return "DATETIME"
}

// now returns the correct current timestamp function
func (db *DB) now() string {
	if db.driver == "postgres" {
		return "NOW()"
	}
	return "datetime('now')"
}

func (db *DB) migrate() error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS suggestion_history (
		id %s,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		query TEXT NOT NULL,
		context TEXT NOT NULL DEFAULT '',
		table_names TEXT NOT NULL DEFAULT '',
		created_at %s NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, db.autoIncrement(), db.timestampType())

	if _, err := db.conn.Exec(stmt); err != nil {
		return fmt.Errorf("creating suggestion_history: %w", err)
	}
	return nil
}
