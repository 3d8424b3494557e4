package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/qustavo/dotsql"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// queries provides access to named SQL statements loaded from embedded .sql
// files. dotsql handles the name lookup; sqlx Rebind converts ? placeholders
// to $1, $2 for PostgreSQL.
type queries struct {
	dot *dotsql.DotSql
	db  *sqlx.DB
}

// loadQueries loads all .sql files from the embedded filesystem.
func loadQueries(db *sqlx.DB) (*queries, error) {
	var combinedSQL string

	err := fs.WalkDir(queriesFS, "queries", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".sql" {
			return nil
		}

		content, err := queriesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		combinedSQL += string(content) + "\n"
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load query files: %w", err)
	}

	dot, err := dotsql.LoadFromString(combinedSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse queries: %w", err)
	}

	return &queries{dot: dot, db: db}, nil
}

// raw returns the rebound SQL text of a named query.
func (q *queries) raw(name string) (string, error) {
	text, err := q.dot.Raw(name)
	if err != nil {
		return "", fmt.Errorf("query not found: %s", name)
	}
	return q.db.Rebind(text), nil
}

// exec executes a named query.
func (q *queries) exec(ctx context.Context, name string, args ...any) (sql.Result, error) {
	text, err := q.raw(name)
	if err != nil {
		return nil, err
	}
	return q.db.ExecContext(ctx, text, args...)
}

// get retrieves a single row into dest using a named query.
func (q *queries) get(ctx context.Context, name string, dest any, args ...any) error {
	text, err := q.raw(name)
	if err != nil {
		return err
	}
	return q.db.GetContext(ctx, dest, text, args...)
}

// selectAll retrieves multiple rows into dest using a named query.
func (q *queries) selectAll(ctx context.Context, name string, dest any, args ...any) error {
	text, err := q.raw(name)
	if err != nil {
		return err
	}
	return q.db.SelectContext(ctx, dest, text, args...)
}
