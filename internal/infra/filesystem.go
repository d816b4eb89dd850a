package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSystem resolves user paths for level files and reports.
type FileSystem struct {
	homeDir string
}

// NewFileSystem creates a filesystem rooted at the user's home directory.
func NewFileSystem() *FileSystem {
	home, _ := os.UserHomeDir()
	return &FileSystem{homeDir: home}
}

// NewFileSystemWithHome creates a filesystem with custom home (for testing).
func NewFileSystemWithHome(home string) *FileSystem {
	return &FileSystem{homeDir: home}
}

// ExpandHome expands ~ to the user's home directory.
func (fs *FileSystem) ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(fs.homeDir, path[2:])
	}
	if path == "~" {
		return fs.homeDir
	}
	return path
}

// Exists checks if a path exists.
func (fs *FileSystem) Exists(path string) bool {
	_, err := os.Stat(fs.ExpandHome(path))
	return err == nil
}

// ReadLevelFile reads a level table from disk.
func (fs *FileSystem) ReadLevelFile(path string) ([]byte, error) {
	expanded := fs.ExpandHome(path)
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read level file %s: %w", expanded, err)
	}
	return data, nil
}
