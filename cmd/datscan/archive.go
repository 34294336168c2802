package main

import (
	"fmt"
	"strings"

	"github.com/jchantrell/datscan/internal/cache"
	"github.com/jchantrell/datscan/internal/codec"
	"github.com/jchantrell/datscan/internal/database"
	"github.com/jchantrell/datscan/internal/datfile"
)

// resolveArchive returns the archive named on the command line, falling back to the configured one
func resolveArchive(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if cfg.Archive != "" {
		return cfg.Archive, nil
	}
	return "", fmt.Errorf("no archive given: pass a path or set 'archive' in the config")
}

func openArchive(path string) (*datfile.Reader, error) {
	registry, err := codec.NewRegistry(cfg.Codec)
	if err != nil {
		return nil, fmt.Errorf("creating codec registry: %w", err)
	}
	registry.SetMaxRawSize(cfg.MaxEntrySize)

	r, err := datfile.Open(path, registry)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	return r, nil
}

// openCatalog opens the catalog database of an archive. A read-only open fails
// when the archive was never scanned.
func openCatalog(archivePath string, readOnly bool) (*database.Database, error) {
	dir := cache.New(cfg.DataDir)

	path, err := dir.CatalogPath(archivePath)
	if err != nil {
		return nil, err
	}

	if readOnly {
		if !cache.FileExists(path) {
			return nil, fmt.Errorf("no catalog for %s, run 'datscan scan' first", archivePath)
		}
	} else if err := dir.EnsureDir(dir.CatalogDir()); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	opts := database.DefaultDatabaseOptions(path)
	opts.ReadOnly = readOnly

	db, err := database.NewDatabase(opts)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	return db, nil
}

// splitCategoryPath turns "Textures/PNG" into its path elements
func splitCategoryPath(path string) []string {
	var names []string
	for _, name := range strings.Split(path, "/") {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
