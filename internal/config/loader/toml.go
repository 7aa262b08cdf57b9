package loader

import (
	"errors"

	"github.com/pelletier/go-toml/v2"
)

// TOMLLoader reads TOML configuration files.
type TOMLLoader struct {
	fileLoader
}

// NewTOMLLoader returns a TOMLLoader for path on the OS file system.
func NewTOMLLoader(path string) *TOMLLoader {
	return NewTOMLLoaderWithFS(DefaultFS(), path)
}

// NewTOMLLoaderWithFS returns a TOMLLoader reading path from fsys.
func NewTOMLLoaderWithFS(fsys FileSystem, path string) *TOMLLoader {
	return &TOMLLoader{fileLoader{fs: fsys, path: path, decode: decodeTOML}}
}

func decodeTOML(data []byte) (map[string]any, *ParseError) {
	var settings map[string]any
	err := toml.Unmarshal(data, &settings)
	if err == nil {
		return settings, nil
	}

	perr := &ParseError{Message: err.Error(), Err: err}
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		perr.Line, perr.Column = derr.Position()
	}
	return nil, perr
}
