package fileset

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// Scan walks root once and returns the Set of all regular files under
// it, each relative to root with forward-slash separators. Symlinks and
// other non-regular entries are skipped, and directory symlinks are not
// followed. A walk error is fatal to startup, so it is returned as-is.
func Scan(root string) (*Set, error) {
	set := New()
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		set.Add(filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %q: %w", root, err)
	}
	return set, nil
}
