package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mwantia/assetdb/data"
)

// FileSystem is the virtual file system every other package goes through.
// Names are slash separated and relative to the project root; "" and "."
// both address the root.
type FileSystem interface {
	// Returns the identifier name defined for this filesystem
	Name() string

	Stat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	ReadFile(name string) ([]byte, error)
	// WriteFile replaces the content of name, creating parent folders.
	WriteFile(name string, content []byte) error
	Rename(oldname, newname string) error
	Remove(name string) error
	MkdirAll(name string) error
	Chtimes(name string, atime, mtime time.Time) error
}

// Exists reports whether name can be stat'ed.
func Exists(fsys FileSystem, name string) bool {
	_, err := fsys.Stat(name)
	return err == nil
}

// IsDir reports whether name exists and is a folder.
func IsDir(fsys FileSystem, name string) bool {
	info, err := fsys.Stat(name)
	return err == nil && info.IsDir()
}

// WriteFileAtomic writes content to a temporary sibling and renames it over
// name, so readers observe either the old or the new content.
func WriteFileAtomic(fsys FileSystem, name string, content []byte) error {
	tmp := path.Join(path.Dir(name), fmt.Sprintf(".%s.%s.tmp", path.Base(name), uuid.NewString()))

	if err := fsys.WriteFile(tmp, content); err != nil {
		return err
	}

	if err := fsys.Rename(tmp, name); err != nil {
		_ = fsys.Remove(tmp)
		return err
	}
	return nil
}

// ResolveFold finds the stored spelling of name, comparing each path element
// with data.StringCmp. An exact match is preferred.
func ResolveFold(fsys FileSystem, name string) (string, error) {
	if _, err := fsys.Stat(name); err == nil {
		return name, nil
	}

	cleaned, err := data.CleanPath(name)
	if err != nil {
		return "", err
	}

	resolved := ""
	for _, part := range strings.Split(cleaned, "/") {
		entries, err := fsys.ReadDir(resolved)
		if err != nil {
			return "", err
		}

		found := false
		for _, entry := range entries {
			if data.StringCmp(entry.Name(), part) {
				resolved = path.Join(resolved, entry.Name())
				found = true
				break
			}
		}
		if !found {
			return "", fmt.Errorf("resolve %s: %w", name, data.ErrNotExist)
		}
	}
	return resolved, nil
}

// RemoveIfExists removes name and ignores a missing file.
func RemoveIfExists(fsys FileSystem, name string) error {
	if err := fsys.Remove(name); err != nil && !errors.Is(err, data.ErrNotExist) {
		return err
	}
	return nil
}

// mapError converts io/fs errors to their data counterparts while keeping
// the original error in the chain.
func mapError(op, name string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s %s: %w: %w", op, name, data.ErrNotExist, err)
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%s %s: %w: %w", op, name, data.ErrExist, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%s %s: %w: %w", op, name, data.ErrPermission, err)
	}
	return fmt.Errorf("%s %s: %w", op, name, err)
}

func toFSPath(name string) (string, error) {
	cleaned, err := data.CleanPath(name)
	if errors.Is(err, data.ErrInvalidPath) {
		return ".", nil
	}
	if err != nil {
		return "", err
	}
	if cleaned == "" {
		return ".", nil
	}
	return cleaned, nil
}
