// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FindFilesByExtension resolves the given path to a flat, de-duplicated list
// of files ending with the specified extension. A path to a single matching
// file is returned as-is; a directory is walked recursively.
func FindFilesByExtension(path string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	if !info.IsDir() {
		if !strings.HasSuffix(info.Name(), extension) {
			return nil, fmt.Errorf("file %s does not have extension %s", path, extension)
		}
		return []string{path}, nil
	}

	var files []string
	seen := make(map[string]struct{})
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), extension) {
			return nil
		}
		if _, wasSeen := seen[p]; !wasSeen {
			files = append(files, p)
			seen[p] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
