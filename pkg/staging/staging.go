// Package staging prepares the directories that one pipeline run writes into.
//
// A staging directory holds the output of exactly one logical run. Before a
// run writes anything it calls EnsureEmpty, which removes whatever the previous
// attempt left behind. Re-running the same job against the same path therefore
// ends with the same file set (idempotent run).
//
// There is no locking. Two runs that clear and write the same path at the same
// time interleave arbitrarily.
package staging

import (
	"os"
	"path/filepath"
)

// DirPerm is the permission used for directories created by EnsureEmpty.
const DirPerm = 0o755

// EnsureEmpty creates path (including parents) if it does not exist and then
// removes every regular file directly inside it.
//
// The scan is not recursive: subdirectories and their contents are left as
// they are, so the directory is only guaranteed to be free of files, not
// empty. A symlink that resolves to a regular file is removed (the link, not
// its target).
//
// Filesystem errors are returned unmodified.
func EnsureEmpty(path string) error {
	if err := os.MkdirAll(path, DirPerm); err != nil {
		return err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		entryPath := filepath.Join(path, entry.Name())

		isFile := entry.Type().IsRegular()
		if entry.Type()&os.ModeSymlink != 0 {
			// Dangling links are skipped, the same as a non-file entry.
			if info, err := os.Stat(entryPath); err == nil {
				isFile = info.Mode().IsRegular()
			}
		}
		if !isFile {
			continue
		}

		if err := os.Remove(entryPath); err != nil {
			return err
		}
	}

	return nil
}
