// Package datadir resolves where clipq keeps its database and config file.
package datadir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	ConfigDir     = ".config/clipq"
	DefaultDBFile = "clipq.db"
	ConfigFile    = "config.yaml"
)

// Dir is the clipq data directory.
type Dir struct {
	root string
}

// New returns the directory rooted at ~/.config/clipq.
func New() (*Dir, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	return &Dir{root: filepath.Join(homeDir, ConfigDir)}, nil
}

// NewWithRoot returns a directory with a custom root (for testing).
func NewWithRoot(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the directory path.
func (d *Dir) Root() string {
	return d.root
}

// ConfigPath returns the path of the yaml config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.root, ConfigFile)
}

// DBPath resolves the database location and makes sure its parent exists.
// An empty path selects the default file inside the directory, an absolute
// path is used as is, and a relative path is taken inside the directory.
func (d *Dir) DBPath(dbPath string) (string, error) {
	var path string
	switch {
	case dbPath == "":
		path = filepath.Join(d.root, DefaultDBFile)
	case filepath.IsAbs(dbPath):
		path = dbPath
	default:
		path = filepath.Join(d.root, dbPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return path, nil
}
