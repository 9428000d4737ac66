package database

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Suggestion is a stored generated query.
type Suggestion struct {
	ID         int64     `json:"id"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	Query      string    `json:"query"`
	Context    string    `json:"context"`
	TableNames []string  `json:"table_names"`
	CreatedAt  time.Time `json:"created_at"`
}

// SaveSuggestion stores a generated query and returns its id.
func (db *DB) SaveSuggestion(ctx context.Context, provider, model, query, queryContext string, tableNames []string) (int64, error) {
	stmt := fmt.Sprintf(`INSERT INTO suggestion_history (provider, model, query, context, table_names, created_at)
		VALUES (%s, %s, %s, %s, %s, %s)`,
		db.placeholder(1), db.placeholder(2), db.placeholder(3), db.placeholder(4), db.placeholder(5), db.now())

	joined := strings.Join(tableNames, ",")

	if db.driver == "postgres" {
		var id int64
		err := db.conn.QueryRowContext(ctx, stmt+" RETURNING id",
			provider, model, query, queryContext, joined).Scan(&id)
		return id, err
	}

	res, err := db.conn.ExecContext(ctx, stmt, provider, model, query, queryContext, joined)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetSuggestionHistory returns the most recent stored suggestions, newest first.
func (db *DB) GetSuggestionHistory(ctx context.Context, limit int) ([]Suggestion, error) {
	stmt := fmt.Sprintf(`SELECT id, provider, model, query, context, table_names, created_at
		FROM suggestion_history ORDER BY created_at DESC, id DESC LIMIT %s`, db.placeholder(1))

	rows, err := db.conn.QueryContext(ctx, stmt, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suggestions []Suggestion
	for rows.Next() {
		var s Suggestion
		var joined string
		if err := rows.Scan(&s.ID, &s.Provider, &s.Model, &s.Query, &s.Context, &joined, &s.CreatedAt); err != nil {
			return nil, err
		}
		if joined != "" {
			s.TableNames = strings.Split(joined, ",")
		} else {
			s.TableNames = []string{}
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, rows.Err()
}

// DeleteSuggestion removes one stored suggestion by id.
func (db *DB) DeleteSuggestion(ctx context.Context, id int64) error {
	stmt := fmt.Sprintf(`DELETE FROM suggestion_history WHERE id = %s`, db.placeholder(1))
	_, err := db.conn.ExecContext(ctx, stmt, id)
	return err
}

// CountSuggestions returns the number of stored suggestions.
func (db *DB) CountSuggestions(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM suggestion_history`).Scan(&count)
	return count, err
}
