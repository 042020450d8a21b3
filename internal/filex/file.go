// Package filex holds path helpers shared by the admin tooling.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return nil
}

// Stem is the file name of path without directory and extension:
// /photos/DSCF1234.tif -> DSCF1234.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DefaultCachePath returns name inside the per-user cache directory, or in
// the working directory when no cache directory is available.
func DefaultCachePath(name string) string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, "photogallery", name)
}
