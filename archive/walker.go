// Package archive walks formula sources stored in zip archives.
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// WalkFunc is called for each file in archive visited by Walk. The archive
// argument is the path passed to Walk. If an error is returned, processing
// stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk visits files of the archive located under pattern in natural order of
// their names ("f2.mml" before "f10.mml"). Pattern is either path of a
// single file or a directory inside archive, empty pattern selects
// everything. Archives with absolute entries or entries containing ".." are
// refused as a whole.
func Walk(archive, pattern string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	pattern = strings.Trim(path.Clean("/"+strings.ReplaceAll(pattern, `\`, "/")), "/")

	files := make([]*zip.File, 0, len(r.File))
	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !matches(name, pattern) {
			continue
		}
		files = append(files, f)
	}
	slices.SortStableFunc(files, func(a, b *zip.File) int {
		switch {
		case a.Name == b.Name:
			return 0
		case natural.Less(a.Name, b.Name):
			return -1
		default:
			return 1
		}
	})

	for _, f := range files {
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

func matches(name, pattern string) bool {
	if pattern == "" || name == pattern {
		return true
	}
	return strings.HasPrefix(name, pattern+"/")
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	return !slices.Contains(strings.Split(strings.ReplaceAll(name, `\`, "/"), "/"), "..")
}
