package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Housekeeping tables that belong to us, not to the user's data. They never
// appear in the rendered schema.
var internalTables = map[string]bool{
	"suggestion_history": true,
	"schema_migrations":  true,
}

// Inspect reads the live table layout from the data source. The driver must
// be "sqlite" or "postgres"; the queries differ but the result shape is the
// same ordered Description.
func Inspect(ctx context.Context, db *sql.DB, driver string) (Description, error) {
	var (
		names []string
		err   error
	)

	switch driver {
	case "sqlite":
		names, err = listSQLiteTables(ctx, db)
	case "postgres":
		names, err = listPostgresTables(ctx, db)
	default:
		return Description{}, fmt.Errorf("unsupported database driver: %s", driver)
	}
	if err != nil {
		return Description{}, fmt.Errorf("listing tables: %w", err)
	}

	desc := Description{}
	for _, name := range names {
		if internalTables[name] {
			continue
		}

		var cols []Column
		if driver == "sqlite" {
			cols, err = sqliteColumns(ctx, db, name)
		} else {
			cols, err = postgresColumns(ctx, db, name)
		}
		if err != nil {
			return Description{}, fmt.Errorf("reading columns of %s: %w", name, err)
		}

		count, err := countRows(ctx, db, name)
		if err != nil {
			log.Warn().Err(err).Str("table", name).Msg("row count failed, reporting 0")
			count = 0
		}

		desc.Tables = append(desc.Tables, Table{Name: name, Columns: cols, RowCount: count})
	}

	return desc, nil
}

func listSQLiteTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNames(rows)
}

func listPostgresTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		 ORDER BY table_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNames(rows)
}

func scanNames(rows *sql.Rows) ([]string, error) {
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func sqliteColumns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, Column{Name: name, Type: ctype})
	}
	return cols, rows.Err()
}

func postgresColumns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns
		 WHERE table_schema = 'public' AND table_name = $1
		 ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func countRows(ctx context.Context, db *sql.DB, table string) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %q", table)).Scan(&count)
	return count, err
}
