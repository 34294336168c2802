package database

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jchantrell/datscan/internal/catalog"
	"github.com/jchantrell/datscan/internal/filetype"
)

// Meta is the bookkeeping stored alongside a catalog
type Meta struct {
	SchemaVersion  int
	ArchivePath    string
	ArchiveModTime time.Time
	HighestCovered int
	SlotCount      int
	SavedAt        time.Time
}

func encodeModTime(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return strconv.FormatInt(t.UnixNano(), 10)
}

func decodeModTime(s string) (time.Time, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	if n == 0 {
		return time.Time{}, nil
	}
	return time.Unix(0, n), nil
}

// ReadMeta returns the stored metadata. ok is false when the database holds no
// catalog of the current schema version.
func ReadMeta(ctx context.Context, db *Database) (meta Meta, ok bool, err error) {
	version, err := db.schemaVersion(ctx)
	if err != nil {
		return Meta{}, false, err
	}
	if version != SchemaVersion {
		return Meta{}, false, nil
	}

	rows, err := db.Query(ctx, `SELECT key, value FROM _meta`)
	if err != nil {
		return Meta{}, false, fmt.Errorf("reading metadata: %w", err)
	}
	defer rows.Close()

	meta = Meta{SchemaVersion: version, HighestCovered: -1}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Meta{}, false, fmt.Errorf("scanning metadata: %w", err)
		}

		switch key {
		case metaArchivePath:
			meta.ArchivePath = value
		case metaArchiveModTime:
			meta.ArchiveModTime, err = decodeModTime(value)
		case metaHighestCovered:
			meta.HighestCovered, err = strconv.Atoi(value)
		case metaSlotCount:
			meta.SlotCount, err = strconv.Atoi(value)
		case metaSavedAt:
			var secs int64
			secs, err = strconv.ParseInt(value, 10, 64)
			meta.SavedAt = time.Unix(secs, 0)
		}
		if err != nil {
			return Meta{}, false, fmt.Errorf("parsing metadata %s=%q: %w", key, value, err)
		}
	}
	if err := rows.Err(); err != nil {
		return Meta{}, false, fmt.Errorf("reading metadata: %w", err)
	}

	return meta, true, nil
}

// LoadCatalog rebuilds the persisted catalog. A database without a catalog of
// the current schema version yields an empty catalog. The result is clean.
func LoadCatalog(ctx context.Context, db *Database) (*catalog.Index, error) {
	idx := catalog.New()

	meta, ok, err := ReadMeta(ctx, db)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.Debug("No stored catalog", "path", db.Path())
		return idx, nil
	}

	// stored ids map to fresh handles; parents are stored before children
	ids := map[int64]catalog.CategoryID{0: catalog.Root}

	rows, err := db.Query(ctx, `SELECT id, parent_id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("reading categories: %w", err)
	}
	for rows.Next() {
		var id, parent int64
		var name string
		if err := rows.Scan(&id, &parent, &name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning category: %w", err)
		}

		p, ok := ids[parent]
		if !ok {
			slog.Warn("Category with unknown parent", "id", id, "parent", parent, "name", name)
			p = catalog.Root
		}
		ids[id] = idx.FindOrAddSubCategory(p, name)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("reading categories: %w", err)
	}
	rows.Close()

	rows, err = db.Query(ctx, `SELECT slot, base_id, file_id, kind, name, category_id FROM entries ORDER BY slot`)
	if err != nil {
		return nil, fmt.Errorf("reading entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var slot int
		var baseID, fileID, category int64
		var kindName, name string
		if err := rows.Scan(&slot, &baseID, &fileID, &kindName, &name, &category); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}

		kind, ok := filetype.ParseKind(kindName)
		if !ok {
			slog.Debug("Unknown stored kind", "slot", slot, "kind", kindName)
		}

		idx.AddEntry().
			Slot(slot).
			BaseID(uint32(baseID)).
			FileID(uint32(fileID)).
			Kind(kind).
			Name(name).
			Category(ids[category]).
			Commit()
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading entries: %w", err)
	}

	idx.SetArchiveModTime(meta.ArchiveModTime)
	idx.MarkCovered(meta.HighestCovered)
	idx.MarkClean()

	slog.Debug("Loaded catalog", "path", db.Path(), "entries", idx.Len(), "categories", idx.CategoryCount(), "covered", idx.HighestCovered())

	return idx, nil
}
