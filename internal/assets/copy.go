// Package assets stages static files into the output tree.
package assets

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// CopyMode selects how CopyTree mirrors a source directory.
type CopyMode string

const (
	// CopyNested recursively mirrors the full subtree of src under dest.
	CopyNested CopyMode = "nested"
	// CopyFlat copies only the immediate children of src into dest; child
	// directories are copied as whole units without extra nesting.
	CopyFlat CopyMode = "flat"
)

// CopyTree copies src into dest according to mode. A missing source is not an
// error: the fixed input layout treats asset directories as optional.
func CopyTree(src, dest string, mode CopyMode) error {
	info, err := os.Stat(src)
	if os.IsNotExist(err) {
		slog.Debug("Asset source absent, skipping", "src", src)
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if !info.IsDir() {
		return copyFile(src, dest)
	}

	switch mode {
	case CopyNested:
		return copyDir(src, dest)
	case CopyFlat:
		entries, err := os.ReadDir(src)
		if err != nil {
			return fmt.Errorf("read dir %s: %w", src, err)
		}
		if err := os.MkdirAll(dest, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dest, err)
		}
		for _, entry := range entries {
			from := filepath.Join(src, entry.Name())
			to := filepath.Join(dest, entry.Name())
			if entry.IsDir() {
				if err := copyDir(from, to); err != nil {
					return err
				}
			} else if err := copyFile(from, to); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown copy mode %q", mode)
	}
}

// copyDir recursively mirrors src under dest, creating intermediate
// directories as needed.
func copyDir(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dest string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", dest, err)
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}
