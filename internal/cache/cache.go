package cache

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDirName is the data directory created under the user's home
const DefaultDirName = ".datscan"

// Dir handles the data directory holding persisted catalogs and exports
type Dir struct {
	root string
}

// New creates a data directory handle rooted at root, or at ~/.datscan when root is empty
func New(root string) *Dir {
	if root == "" {
		root = DefaultRoot()
	}
	return &Dir{root: root}
}

// DefaultRoot returns ~/.datscan, falling back to the working directory
func DefaultRoot() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", DefaultDirName)
	}
	return filepath.Join(homeDir, DefaultDirName)
}

// Root returns the data directory
func (d *Dir) Root() string {
	return d.root
}

// CatalogDir returns the directory holding catalog databases
func (d *Dir) CatalogDir() string {
	return filepath.Join(d.root, "catalogs")
}

// CatalogPath returns the catalog database for an archive. Archives are keyed by
// a fingerprint of their absolute path so moving an archive starts a new catalog.
func (d *Dir) CatalogPath(archivePath string) (string, error) {
	abs, err := filepath.Abs(archivePath)
	if err != nil {
		return "", fmt.Errorf("resolving archive path: %w", err)
	}
	return filepath.Join(d.CatalogDir(), fmt.Sprintf("%016x.db", PathFingerprint(abs))), nil
}

// EnsureDir creates a directory and all parent directories
func (d *Dir) EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// FileExists checks if a file exists
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// FileSize returns the size of a file, or 0 if it doesn't exist
func FileSize(filename string) int64 {
	info, err := os.Stat(filename)
	if err != nil {
		return 0
	}
	return info.Size()
}
