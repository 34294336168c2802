package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jchantrell/datscan/internal/catalog"
	"github.com/jchantrell/datscan/internal/filetype"
)

// SlotLoader reads the full decompressed content of a slot
type SlotLoader interface {
	Read(slot int) []byte
}

// Filter reports whether an entry should be exported
type Filter func(e catalog.Entry) bool

// ProgressCallback is called to report export progress
type ProgressCallback func(current int, total int, description string)

// Exporter writes archive entries to disk, laid out by category
type Exporter struct {
	loader    SlotLoader
	index     *catalog.Index
	outputDir string
	filter    Filter
}

// NewExporter creates a new exporter
func NewExporter(loader SlotLoader, index *catalog.Index, outputDir string) *Exporter {
	return &Exporter{
		loader:    loader,
		index:     index,
		outputDir: outputDir,
	}
}

// SetFilter restricts exports to entries accepted by f
func (e *Exporter) SetFilter(f Filter) {
	e.filter = f
}

// LanguageFilter accepts every entry except string tables in a language outside langs.
// An empty langs accepts everything.
func LanguageFilter(index *catalog.Index, langs []filetype.Language) Filter {
	if len(langs) == 0 {
		return nil
	}

	allowed := make(map[string]bool, len(langs))
	for _, l := range langs {
		allowed[l.String()] = true
	}

	return func(e catalog.Entry) bool {
		if e.Kind != filetype.StringTable {
			return true
		}
		path := index.Path(e.Category)
		return len(path) > 0 && allowed[path[len(path)-1]]
	}
}

// OutputPath returns where an entry is written: <output>/<category path>/<name><extension>
func (e *Exporter) OutputPath(entry catalog.Entry) string {
	parts := []string{e.outputDir}
	for _, name := range e.index.Path(entry.Category) {
		parts = append(parts, sanitizeName(name))
	}

	name := entry.Name
	if name == "" {
		name = "slot-" + strconv.Itoa(entry.Slot)
	}
	parts = append(parts, sanitizeName(name)+entry.Kind.Extension())

	return filepath.Join(parts...)
}

// ExportSlots writes the given slots. Slots missing from the catalog are written
// to the output root as unknown content.
func (e *Exporter) ExportSlots(slots []int, progressCallback ProgressCallback) (int, error) {
	entries := make([]catalog.Entry, 0, len(slots))
	for _, slot := range slots {
		entry, ok := e.index.EntryForSlot(slot)
		if !ok {
			entry = catalog.Entry{Slot: slot, Category: catalog.Root}
		}
		entries = append(entries, entry)
	}
	return e.export(entries, progressCallback)
}

// ExportCategory writes every entry under a category and its descendants
func (e *Exporter) ExportCategory(id catalog.CategoryID, progressCallback ProgressCallback) (int, error) {
	ids := e.index.SubtreeEntries(id)
	entries := make([]catalog.Entry, 0, len(ids))
	for _, eid := range ids {
		if entry, ok := e.index.Entry(eid); ok {
			entries = append(entries, entry)
		}
	}
	return e.export(entries, progressCallback)
}

func (e *Exporter) export(entries []catalog.Entry, progressCallback ProgressCallback) (int, error) {
	if e.filter != nil {
		kept := entries[:0]
		for _, entry := range entries {
			if e.filter(entry) {
				kept = append(kept, entry)
			}
		}
		entries = kept
	}

	if len(entries) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}

	exported := 0
	for i, entry := range entries {
		outputPath := e.OutputPath(entry)

		data := e.loader.Read(entry.Slot)
		if len(data) == 0 {
			slog.Warn("Skipping unreadable slot", "slot", entry.Slot)
		} else {
			if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
				return exported, fmt.Errorf("creating directory for slot %d: %w", entry.Slot, err)
			}
			if err := os.WriteFile(outputPath, data, 0644); err != nil {
				return exported, fmt.Errorf("writing file %s: %w", outputPath, err)
			}
			exported++
			slog.Debug("Exported slot", "slot", entry.Slot, "output", outputPath, "size", len(data))
		}

		if progressCallback != nil {
			progressCallback(i+1, len(entries), filepath.Base(outputPath))
		}
	}

	return exported, nil
}

// sanitizeName makes a category or entry name safe to use as a single path element
func sanitizeName(name string) string {
	name = strings.NewReplacer("/", "@", "\\", "@", ":", "_").Replace(name)
	if name == "." || name == ".." || name == "" {
		return "_"
	}
	return name
}
