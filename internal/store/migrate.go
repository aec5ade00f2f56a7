package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"golang.org/x/mod/semver"
)

// migration is one schema step, identified by a semantic version.
type migration struct {
	Version    string
	Statements []string
}

const schemaVersionKey = "schema_version"

var migrations = []migration{
	{
		Version: "v1.0.0",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS global_sequence (
				id INTEGER PRIMARY KEY CHECK (id = 1),
				next_val INTEGER NOT NULL DEFAULT 1
			)`,
			`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`,
			`CREATE TABLE IF NOT EXISTS session_summaries (
				id TEXT PRIMARY KEY,
				sequence INTEGER NOT NULL,
				timestamp_ms INTEGER NOT NULL,
				username TEXT NOT NULL,
				score INTEGER NOT NULL,
				total INTEGER NOT NULL,
				accuracy REAL NOT NULL,
				elapsed_seconds INTEGER NOT NULL,
				details_json TEXT NOT NULL DEFAULT '[]'
			)`,
			`CREATE TABLE IF NOT EXISTS llm_request_events (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				sequence INTEGER NOT NULL,
				timestamp_ms INTEGER NOT NULL,
				provider TEXT NOT NULL,
				model TEXT NOT NULL,
				purpose TEXT NOT NULL,
				input_tokens INTEGER NOT NULL DEFAULT 0,
				output_tokens INTEGER NOT NULL DEFAULT 0,
				latency_ms INTEGER NOT NULL DEFAULT 0,
				success INTEGER NOT NULL,
				error_message TEXT NOT NULL DEFAULT '',
				request_body TEXT NOT NULL DEFAULT '',
				response_body TEXT NOT NULL DEFAULT ''
			)`,
		},
	},
	{
		Version: "v1.1.0",
		Statements: []string{
			`ALTER TABLE session_summaries ADD COLUMN operations TEXT NOT NULL DEFAULT ''`,
			`ALTER TABLE session_summaries ADD COLUMN number_min INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE session_summaries ADD COLUMN number_max INTEGER NOT NULL DEFAULT 0`,
		},
	},
	{
		Version: "v1.2.0",
		Statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_session_summaries_time ON session_summaries (timestamp_ms DESC, sequence DESC)`,
			`CREATE INDEX IF NOT EXISTS idx_llm_request_events_purpose ON llm_request_events (purpose)`,
		},
	},
	{
		Version: "v1.3.0",
		Statements: []string{
			`ALTER TABLE llm_request_events ADD COLUMN images INTEGER NOT NULL DEFAULT 0`,
		},
	},
}

// LatestSchemaVersion is the version a freshly migrated database reports.
func LatestSchemaVersion() string {
	return sortedMigrations(migrations)[len(migrations)-1].Version
}

func sortedMigrations(ms []migration) []migration {
	out := slices.Clone(ms)
	slices.SortFunc(out, func(a, b migration) int {
		return semver.Compare(a.Version, b.Version)
	})
	return out
}

// migrate applies every migration newer than the recorded schema version,
// in semver order, each in its own transaction.
func migrate(ctx context.Context, drv dialect.Driver, ms []migration) error {
	for _, m := range ms {
		if !semver.IsValid(m.Version) {
			return fmt.Errorf("invalid migration version %q", m.Version)
		}
	}

	if err := drv.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`, []any{}, nil); err != nil {
		return fmt.Errorf("create schema_meta: %w", err)
	}

	current, err := schemaVersion(ctx, drv)
	if err != nil {
		return err
	}

	for _, m := range sortedMigrations(ms) {
		if current != "" && semver.Compare(m.Version, current) <= 0 {
			continue
		}
		if err := applyMigration(ctx, drv, m); err != nil {
			return fmt.Errorf("apply %s: %w", m.Version, err)
		}
		slog.Debug("applied schema migration", "version", m.Version)
		current = m.Version
	}
	return nil
}

func applyMigration(ctx context.Context, drv dialect.Driver, m migration) error {
	tx, err := drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, stmt := range m.Statements {
		if err := tx.Exec(ctx, stmt, []any{}, nil); err != nil {
			tx.Rollback()
			return err
		}
	}
	upsert := entsql.Dialect(dialect.SQLite).
		Insert("schema_meta").
		Columns("key", "value").
		Values(schemaVersionKey, m.Version).
		OnConflict(entsql.ConflictColumns("key"), entsql.ResolveWithNewValues())
	if _, err := exec(ctx, tx, upsert); err != nil {
		tx.Rollback()
		return fmt.Errorf("record version: %w", err)
	}
	return tx.Commit()
}

// schemaVersion returns the recorded version, or "" for a new database.
func schemaVersion(ctx context.Context, drv dialect.ExecQuerier) (string, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select("value").
		From(entsql.Table("schema_meta")).
		Where(entsql.EQ("key", schemaVersionKey))
	rows, err := query(ctx, drv, sel)
	if err != nil {
		return "", fmt.Errorf("read schema version: %w", err)
	}
	defer rows.Close()

	var v string
	if rows.Next() {
		if err := rows.Scan(&v); err != nil {
			return "", fmt.Errorf("scan schema version: %w", err)
		}
	}
	return v, rows.Err()
}

// SchemaVersion reports the schema version recorded in the database.
func (s *Store) SchemaVersion(ctx context.Context) (string, error) {
	return schemaVersion(ctx, s.drv)
}
