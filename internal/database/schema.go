package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
)

// SchemaVersion is bumped whenever the catalog tables change shape. A database
// written with another version is dropped and rebuilt.
const SchemaVersion = 1

// Metadata keys stored in the _meta table
const (
	metaSchemaVersion  = "schema_version"
	metaArchivePath    = "archive_path"
	metaArchiveModTime = "archive_mod_time"
	metaHighestCovered = "highest_covered"
	metaSlotCount      = "slot_count"
	metaSavedAt        = "saved_at"
)

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS _meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS categories (
    id INTEGER PRIMARY KEY,
    parent_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    UNIQUE (parent_id, name)
)`,
	`CREATE TABLE IF NOT EXISTS entries (
    slot INTEGER PRIMARY KEY,
    base_id INTEGER NOT NULL DEFAULT 0,
    file_id INTEGER NOT NULL DEFAULT 0,
    kind TEXT NOT NULL,
    name TEXT NOT NULL,
    category_id INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_category ON entries (category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_base_id ON entries (base_id)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_kind ON entries (kind)`,
}

var dropDDL = []string{
	`DROP TABLE IF EXISTS entries`,
	`DROP TABLE IF EXISTS categories`,
	`DROP TABLE IF EXISTS _meta`,
}

// EnsureSchema creates the catalog tables, rebuilding them when they were
// written by a different schema version
func (d *Database) EnsureSchema(ctx context.Context) error {
	version, err := d.schemaVersion(ctx)
	if err != nil {
		return err
	}

	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback()

	if version != 0 && version != SchemaVersion {
		slog.Info("Catalog schema changed, rebuilding", "found", version, "want", SchemaVersion)
		for _, ddl := range dropDDL {
			if _, err := tx.ExecContext(ctx, ddl); err != nil {
				return fmt.Errorf("dropping old schema: %w", err)
			}
		}
	}

	for _, ddl := range schemaDDL {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := setMeta(ctx, tx, metaSchemaVersion, strconv.Itoa(SchemaVersion)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}

// schemaVersion returns the stored schema version, or 0 for a fresh database
func (d *Database) schemaVersion(ctx context.Context) (int, error) {
	var count int
	err := d.QueryRow(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='_meta'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("checking for metadata table: %w", err)
	}
	if count == 0 {
		return 0, nil
	}

	var value string
	err = d.QueryRow(ctx, `SELECT value FROM _meta WHERE key = ?`, metaSchemaVersion).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}

	version, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parsing schema version %q: %w", value, err)
	}
	return version, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setMeta(ctx context.Context, tx execer, key string, value string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO _meta (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("writing metadata %s: %w", key, err)
	}
	return nil
}

// quoteSQLIdentifier quotes SQL identifiers to prevent conflicts with reserved words
func quoteSQLIdentifier(identifier string) string {
	return fmt.Sprintf(`"%s"`, identifier)
}
