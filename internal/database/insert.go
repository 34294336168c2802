package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jchantrell/datscan/internal/catalog"
)

// BulkInserter writes rows with multi-row INSERT statements
type BulkInserter struct {
	batchSize int
}

// BulkInsertOptions configures bulk insertion behavior
type BulkInsertOptions struct {
	// BatchSize determines how many rows go into one INSERT statement
	BatchSize int
}

// DefaultBulkInsertOptions returns sensible defaults for bulk insertion
func DefaultBulkInsertOptions() *BulkInsertOptions {
	return &BulkInsertOptions{
		BatchSize: 500,
	}
}

// NewBulkInserter creates a new bulk inserter with the given options
func NewBulkInserter(options *BulkInsertOptions) *BulkInserter {
	if options == nil {
		options = DefaultBulkInsertOptions()
	}

	batchSize := options.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBulkInsertOptions().BatchSize
	}

	return &BulkInserter{batchSize: batchSize}
}

// Insert writes n rows into table within tx. row returns the column values of row i.
func (bi *BulkInserter) Insert(ctx context.Context, tx *sql.Tx, table string, columns []string, n int, row func(i int) []any) error {
	var stmt *sql.Stmt
	stmtRows := 0
	defer func() {
		if stmt != nil {
			stmt.Close()
		}
	}()

	args := make([]any, 0, min(n, bi.batchSize)*len(columns))

	for i := 0; i < n; i += bi.batchSize {
		end := min(i+bi.batchSize, n)

		if end-i != stmtRows {
			if stmt != nil {
				stmt.Close()
			}
			prepared, err := tx.PrepareContext(ctx, generateInsertSQL(table, columns, end-i))
			if err != nil {
				return fmt.Errorf("preparing insert statement for %s: %w", table, err)
			}
			stmt = prepared
			stmtRows = end - i
		}

		args = args[:0]
		for j := i; j < end; j++ {
			args = append(args, row(j)...)
		}

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting batch %d-%d into %s: %w", i, end-1, table, err)
		}
	}

	return nil
}

// generateInsertSQL creates an INSERT statement with rows placeholder groups
func generateInsertSQL(table string, columns []string, rows int) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteSQLIdentifier(c)
	}

	group := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	groups := make([]string, rows)
	for i := range groups {
		groups[i] = group
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		quoteSQLIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Join(groups, ", "))
}

// SaveOptions describes the archive a catalog is saved for
type SaveOptions struct {
	ArchivePath string
	SlotCount   int
	BatchSize   int
}

var (
	categoryColumns = []string{"id", "parent_id", "name"}
	entryColumns    = []string{"slot", "base_id", "file_id", "kind", "name", "category_id"}
)

// SaveCatalog replaces the persisted catalog with idx in a single transaction
// and marks idx clean. A clean catalog is not written again.
func SaveCatalog(ctx context.Context, db *Database, idx *catalog.Index, opts SaveOptions) error {
	if !idx.Dirty() {
		slog.Debug("Catalog unchanged, skipping save", "path", db.Path())
		return nil
	}

	if err := db.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("preparing catalog schema: %w", err)
	}

	start := time.Now()
	inserter := NewBulkInserter(&BulkInsertOptions{BatchSize: opts.BatchSize})

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"entries", "categories"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+quoteSQLIdentifier(table)); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	// category handles are dense and parents always precede their children
	err = inserter.Insert(ctx, tx, "categories", categoryColumns, idx.CategoryCount(), func(i int) []any {
		id := catalog.CategoryID(i + 1)
		c, _ := idx.Category(id)
		return []any{int64(id), int64(c.Parent), c.Name}
	})
	if err != nil {
		return fmt.Errorf("saving categories: %w", err)
	}

	entries := idx.Entries()
	err = inserter.Insert(ctx, tx, "entries", entryColumns, len(entries), func(i int) []any {
		e := entries[i]
		return []any{e.Slot, int64(e.BaseID), int64(e.FileID), e.Kind.String(), e.Name, int64(e.Category)}
	})
	if err != nil {
		return fmt.Errorf("saving entries: %w", err)
	}

	meta := map[string]string{
		metaArchivePath:    opts.ArchivePath,
		metaArchiveModTime: encodeModTime(idx.ArchiveModTime()),
		metaHighestCovered: strconv.Itoa(idx.HighestCovered()),
		metaSlotCount:      strconv.Itoa(opts.SlotCount),
		metaSavedAt:        strconv.FormatInt(time.Now().Unix(), 10),
	}
	for key, value := range meta {
		if err := setMeta(ctx, tx, key, value); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing catalog: %w", err)
	}

	idx.MarkClean()
	slog.Debug("Saved catalog", "path", db.Path(), "entries", len(entries), "categories", idx.CategoryCount(), "duration", time.Since(start))

	return nil
}
