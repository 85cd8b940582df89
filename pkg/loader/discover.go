package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Discover returns the files directly inside dir whose name ends with ext, in
// lexical order. Subdirectories are not searched. A missing directory is an
// error; a directory without matches is not.
func Discover(dir string, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	// os.ReadDir sorts by file name
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// DirSource discovers files in a local directory.
type DirSource struct {
	Dir    string
	Ext    string
	Loader GraphFileLoader
}

// Discover implements Source.
func (s DirSource) Discover(ctx context.Context) ([]GraphFile, error) {
	paths, err := Discover(s.Dir, s.Ext)
	if err != nil {
		return nil, err
	}

	files := make([]GraphFile, 0, len(paths))
	for _, p := range paths {
		files = append(files, NewGraphFile(p, s.Loader))
	}
	return files, nil
}
