package properties

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Source opens a named properties resource. Open returns an error matching
// fs.ErrNotExist when the resource is absent.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// Load parses the resource behind src. An absent resource yields an empty map.
func Load(src Source) (map[string]string, error) {
	rc, err := src.Open()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadable, src.Name(), err)
	}
	defer func() {
		_ = rc.Close()
	}()

	return Parse(src.Name(), rc)
}

// FSSource reads a resource from an fs.FS, typically an embedded one.
type FSSource struct {
	FS   fs.FS
	Path string
}

// Name returns the path inside the file system.
func (s FSSource) Name() string {
	return s.Path
}

// Open opens the resource.
func (s FSSource) Open() (io.ReadCloser, error) {
	if s.FS == nil {
		return nil, fs.ErrNotExist
	}
	return s.FS.Open(s.Path)
}

// SearchPathSource looks for File in each directory of Dirs and opens the
// first one that exists.
type SearchPathSource struct {
	File string
	Dirs []string
}

// Name returns the resource file name.
func (s SearchPathSource) Name() string {
	return s.File
}

// Resolve returns the path of the first existing candidate.
func (s SearchPathSource) Resolve() (string, bool) {
	for _, dir := range s.Dirs {
		candidate := filepath.Join(dir, s.File)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// Open opens the first existing candidate.
func (s SearchPathSource) Open() (io.ReadCloser, error) {
	path, ok := s.Resolve()
	if !ok {
		return nil, fmt.Errorf("%s: %w", s.File, fs.ErrNotExist)
	}
	return os.Open(path)
}

// ReaderFunc adapts a function into a Source.
type ReaderFunc struct {
	ResourceName string
	OpenFunc     func() (io.ReadCloser, error)
}

// Name returns the resource name.
func (f ReaderFunc) Name() string {
	return f.ResourceName
}

// Open calls OpenFunc.
func (f ReaderFunc) Open() (io.ReadCloser, error) {
	return f.OpenFunc()
}
