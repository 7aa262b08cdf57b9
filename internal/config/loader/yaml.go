package loader

import (
	"gopkg.in/yaml.v3"
)

// YAMLLoader reads YAML configuration files.
type YAMLLoader struct {
	fileLoader
}

// NewYAMLLoader returns a YAMLLoader for path on the OS file system.
func NewYAMLLoader(path string) *YAMLLoader {
	return NewYAMLLoaderWithFS(DefaultFS(), path)
}

// NewYAMLLoaderWithFS returns a YAMLLoader reading path from fsys.
func NewYAMLLoaderWithFS(fsys FileSystem, path string) *YAMLLoader {
	return &YAMLLoader{fileLoader{fs: fsys, path: path, decode: decodeYAML}}
}

// decodeYAML widens integers to int64 so YAML and TOML files hand the same
// types to the config layer.
func decodeYAML(data []byte) (map[string]any, *ParseError) {
	var settings map[string]any
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, &ParseError{Message: err.Error(), Err: err}
	}
	for k, v := range settings {
		settings[k] = widenInts(v)
	}
	return settings, nil
}

func widenInts(v any) any {
	switch v := v.(type) {
	case int:
		return int64(v)
	case map[string]any:
		for k, e := range v {
			v[k] = widenInts(e)
		}
	case []any:
		for i, e := range v {
			v[i] = widenInts(e)
		}
	}
	return v
}
