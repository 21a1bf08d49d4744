package filesvc

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileEntry is one request file found under a listed root.
type FileEntry struct {
	Name string // path relative to the root
	Path string
}

// IsRequestFile reports whether path carries a request-file extension.
// The match is case-insensitive.
func IsRequestFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".http", ".rest":
		return true
	}
	return false
}

// ListRequestFiles collects the request files under root, sorted by
// relative name. Hidden directories are skipped when walking recursively.
func ListRequestFiles(root string, recursive bool) ([]FileEntry, error) {
	var entries []FileEntry
	var err error
	if recursive {
		entries, err = walkRequestFiles(root)
	} else {
		entries, err = readRequestFiles(root)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func readRequestFiles(root string) ([]FileEntry, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var entries []FileEntry
	for _, entry := range dirEntries {
		if entry.IsDir() || !IsRequestFile(entry.Name()) {
			continue
		}
		entries = append(entries, FileEntry{
			Name: entry.Name(),
			Path: filepath.Join(root, entry.Name()),
		})
	}
	return entries, nil
}

func walkRequestFiles(root string) ([]FileEntry, error) {
	var entries []FileEntry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsRequestFile(d.Name()) {
			return nil
		}

		name := d.Name()
		if rel, relErr := filepath.Rel(root, path); relErr == nil {
			name = rel
		}
		entries = append(entries, FileEntry{Name: name, Path: path})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
