// Package loader reads ptree configuration sources into nested maps: TOML
// and YAML files, and PTREE_ environment variables.
package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned by ForPath for an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Loader produces one configuration layer. A missing source yields nil
// data and no error.
type Loader interface {
	Load() (map[string]any, error)
}

// FileLoader is a Loader backed by a file in some format.
type FileLoader interface {
	Loader
	LoadFrom(path string) (map[string]any, error)
	LoadFromReader(r io.Reader) (map[string]any, error)
}

// FileSystem is the file access loaders need. Tests substitute a map.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS reads from the operating system.
type OSFS struct{}

// ReadFile implements FileSystem.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns OSFS.
func DefaultFS() FileSystem {
	return OSFS{}
}

// ForPath picks a loader for path by its extension.
func ForPath(fsys FileSystem, path string) (FileLoader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return NewTOMLLoaderWithFS(fsys, path), nil
	case ".yaml", ".yml":
		return NewYAMLLoaderWithFS(fsys, path), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// decodeFunc turns file contents into settings. Errors it returns are
// reported as ParseErrors.
type decodeFunc func(data []byte) (map[string]any, *ParseError)

// fileLoader is the format-independent part of TOMLLoader and YAMLLoader.
type fileLoader struct {
	fs     FileSystem
	path   string
	decode decodeFunc
}

// Load reads the configured path.
func (l *fileLoader) Load() (map[string]any, error) {
	return l.LoadFrom(l.path)
}

// LoadFrom reads path. A file that does not exist yields nil data.
func (l *fileLoader) LoadFrom(path string) (map[string]any, error) {
	data, err := l.fs.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return l.parse(path, data)
}

// LoadFromReader decodes everything r yields.
func (l *fileLoader) LoadFromReader(r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return l.parse("<reader>", data)
}

func (l *fileLoader) parse(source string, data []byte) (map[string]any, error) {
	settings, perr := l.decode(data)
	if perr != nil {
		perr.Path = source
		return nil, perr
	}
	if settings == nil {
		settings = map[string]any{}
	}
	return settings, nil
}

// ParseError reports a malformed configuration file. Line and Column are
// zero when the decoder gave no position.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	var at string
	switch {
	case e.Line > 0 && e.Column > 0:
		at = fmt.Sprintf(" at line %d, column %d", e.Line, e.Column)
	case e.Line > 0:
		at = fmt.Sprintf(" at line %d", e.Line)
	}
	return fmt.Sprintf("parse error in %s%s: %s", e.Path, at, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
