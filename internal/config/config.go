package config

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/dshills/piecetree/internal/config/layer"
	"github.com/dshills/piecetree/internal/config/loader"
)

// Config is the layered ptree configuration. It is safe for concurrent use.
type Config struct {
	// mu guards configErrors and the read-modify-write in SetOverride.
	mu sync.RWMutex

	layers *layer.Manager

	fs        loader.FileSystem
	path      string
	envPrefix string

	// configErrors holds type mismatches found by the section accessors,
	// keyed by setting path.
	configErrors map[string]error
}

// Option configures a Config instance.
type Option func(*Config)

// WithFile sets the configuration file. The format follows the extension.
func WithFile(path string) Option {
	return func(c *Config) {
		c.path = path
	}
}

// WithFileSystem sets the file system the configuration file is read from.
func WithFileSystem(fs loader.FileSystem) Option {
	return func(c *Config) {
		c.fs = fs
	}
}

// WithEnvPrefix sets the environment variable prefix. An empty prefix
// disables the environment layer.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// New creates a Config holding only the built-in defaults. Call Load to
// read the file and environment layers.
func New(opts ...Option) *Config {
	c := &Config{
		layers:       layer.NewManager(),
		fs:           loader.DefaultFS(),
		envPrefix:    loader.DefaultEnvPrefix,
		configErrors: make(map[string]error),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.layers.AddLayer(layer.NewLayer(layer.SourceBuiltin, defaultConfig()))
	return c
}

// Default returns a Config with the built-in defaults only.
func Default() *Config {
	return New(WithEnvPrefix(""))
}

// Load loads the file and environment layers and validates the result.
func (c *Config) Load(_ context.Context) error {
	if err := c.loadFile(); err != nil {
		return err
	}
	if err := c.loadEnvironment(); err != nil {
		return err
	}
	return c.Validate()
}

// loadFile loads the configuration file layer. A missing file is skipped.
func (c *Config) loadFile() error {
	if c.path == "" {
		return nil
	}

	l, err := loader.ForPath(c.fs, c.path)
	if err != nil {
		return err
	}
	data, err := l.Load()
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}

	fileLayer := layer.NewLayer(layer.SourceFile, data)
	fileLayer.Path = c.path
	c.layers.AddLayer(fileLayer)
	return nil
}

// loadEnvironment loads configuration from environment variables.
func (c *Config) loadEnvironment() error {
	if c.envPrefix == "" {
		return nil
	}

	data, err := loader.NewEnvLoader(c.envPrefix).Load()
	if err != nil {
		return err
	}
	if len(data) > 0 {
		c.layers.AddLayer(layer.NewLayer(layer.SourceEnv, data))
	}
	return nil
}

// SetOverride sets a value in the command-line layer, which overrides
// every other source.
func (c *Config) SetOverride(path string, value any) {
	if path == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data := make(map[string]any)
	layers := c.layers.Layers()
	if i := slices.IndexFunc(layers, isArgs); i >= 0 {
		data = layers[i].Clone().Data
	}
	layer.SetByPath(data, path, value)
	c.layers.AddLayer(layer.NewLayer(layer.SourceArgs, data))
	delete(c.configErrors, path)
}

func isArgs(l *layer.Layer) bool { return l.Source == layer.SourceArgs }

// Get returns the effective value at path.
func (c *Config) Get(path string) (any, bool) {
	v, _, ok := c.layers.Get(path)
	return v, ok
}

// Source names the layer the effective value at path comes from:
// "defaults", "file", "environment" or "arguments".
func (c *Config) Source(path string) string {
	return c.layers.WhichLayer(path)
}

// lookup fetches path and converts it with as, which reports false for a
// value of the wrong kind.
func lookup[T any](c *Config, path, kind string, as func(any) (T, bool)) (T, error) {
	var zero T
	v, ok := c.Get(path)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrSettingNotFound, path)
	}
	t, ok := as(v)
	if !ok {
		return zero, &TypeError{Path: path, Expected: kind, Actual: typeName(v)}
	}
	return t, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// asInt64 accepts any integer and whole floats, which JSON-like decoders
// produce for plain numbers.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

// GetString returns the string at path.
func (c *Config) GetString(path string) (string, error) {
	return lookup(c, path, "string", asString)
}

// GetInt returns the integer at path.
func (c *Config) GetInt(path string) (int, error) {
	v, err := c.GetInt64(path)
	return int(v), err
}

// GetInt64 returns the integer at path.
func (c *Config) GetInt64(path string) (int64, error) {
	return lookup(c, path, "int", asInt64)
}

// GetBool returns the boolean at path.
func (c *Config) GetBool(path string) (bool, error) {
	return lookup(c, path, "bool", asBool)
}

// Merged returns a copy of the effective configuration.
func (c *Config) Merged() map[string]any {
	return c.layers.Merge()
}

// rule is one range check applied by Validate.
type rule struct {
	path    string
	message string
	value   any
	ok      bool
}

// Validate reports every problem with the effective configuration: values
// of the wrong type found while reading sections, then out-of-range values.
func (c *Config) Validate() error {
	lg, eng, st := c.Logging(), c.Engine(), c.Stress()

	var errs []error
	c.mu.RLock()
	for _, path := range slices.Sorted(maps.Keys(c.configErrors)) {
		errs = append(errs, c.configErrors[path])
	}
	c.mu.RUnlock()

	rules := []rule{
		{"logging.level", "must be debug, info, warn or error", lg.Level,
			slices.Contains([]string{"debug", "info", "warn", "error"}, lg.Level)},
		{"logging.format", "must be console or json", lg.Format,
			slices.Contains([]string{"console", "json"}, lg.Format)},
		{"engine.maxUndo", "must not be negative", eng.MaxUndo, eng.MaxUndo >= 0},
		{"engine.readChunk", "must be positive", eng.ReadChunk, eng.ReadChunk > 0},
		{"stress.ops", "must not be negative", st.Ops, st.Ops >= 0},
		{"stress.readers", "must not be negative", st.Readers, st.Readers >= 0},
		{"stress.snapshotEvery", "must be positive", st.SnapshotEvery, st.SnapshotEvery > 0},
		{"stress.maxInsert", "must be positive", st.MaxInsert, st.MaxInsert > 0},
	}
	for _, r := range rules {
		if !r.ok {
			errs = append(errs, &ValidationError{Path: r.path, Message: r.message, Value: r.value})
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
}

func (c *Config) recordConfigError(path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configErrors[path] = err
}

// defaultConfig returns the built-in settings.
func defaultConfig() map[string]any {
	return map[string]any{
		"logging": map[string]any{
			"level":  "info",
			"format": "console",
		},
		"engine": map[string]any{
			"maxUndo":   int64(1000),
			"readChunk": int64(64 * 1024),
			"checks":    false,
		},
		"stress": map[string]any{
			"seed":          int64(1),
			"ops":           int64(10000),
			"readers":       int64(4),
			"snapshotEvery": int64(100),
			"maxInsert":     int64(16),
		},
	}
}

// typeName describes v for TypeError messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case int, int64:
		return "int"
	case map[string]any:
		return "map"
	}
	return fmt.Sprintf("%T", v)
}
