package config

import "errors"

// LoggingConfig holds the logging section.
type LoggingConfig struct {
	// Level is the minimum level logged ("debug", "info", "warn", "error").
	Level string

	// Format selects the encoder ("console" or "json").
	Format string
}

// EngineConfig holds the engine section, applied to every opened document.
type EngineConfig struct {
	// MaxUndo bounds the undo history; zero keeps every entry.
	MaxUndo int

	// ReadChunk is the size of each original buffer read from a file.
	ReadChunk int

	// Checks runs the tree consistency checker after every edit.
	Checks bool
}

// StressConfig holds the stress command section.
type StressConfig struct {
	// Seed seeds the random edit generator.
	Seed int64

	// Ops is the number of random operations to apply.
	Ops int

	// Readers is the number of goroutines verifying each snapshot.
	Readers int

	// SnapshotEvery is the number of operations between snapshot checks.
	SnapshotEvery int

	// MaxInsert is the longest random insert in bytes.
	MaxInsert int
}

// Logging reads the logging section. Accessors return copies.
func (c *Config) Logging() LoggingConfig {
	return LoggingConfig{
		Level:  c.getStringOr("logging.level", "info"),
		Format: c.getStringOr("logging.format", "console"),
	}
}

// Engine reads the engine section.
func (c *Config) Engine() EngineConfig {
	return EngineConfig{
		MaxUndo:   c.getIntOr("engine.maxUndo", 1000),
		ReadChunk: c.getIntOr("engine.readChunk", 64*1024),
		Checks:    c.getBoolOr("engine.checks", false),
	}
}

// Stress reads the stress section.
func (c *Config) Stress() StressConfig {
	return StressConfig{
		Seed:          c.getInt64Or("stress.seed", 1),
		Ops:           c.getIntOr("stress.ops", 10000),
		Readers:       c.getIntOr("stress.readers", 4),
		SnapshotEvery: c.getIntOr("stress.snapshotEvery", 100),
		MaxInsert:     c.getIntOr("stress.maxInsert", 16),
	}
}

// orDefault returns get's value, or def when the setting is missing or has
// the wrong type. Type errors are kept for Validate.
func orDefault[T any](c *Config, path string, def T, get func(string) (T, error)) T {
	v, err := get(path)
	if err == nil {
		return v
	}
	if !errors.Is(err, ErrSettingNotFound) {
		c.recordConfigError(path, err)
	}
	return def
}

func (c *Config) getStringOr(path, def string) string {
	return orDefault(c, path, def, c.GetString)
}

func (c *Config) getIntOr(path string, def int) int {
	return orDefault(c, path, def, c.GetInt)
}

func (c *Config) getInt64Or(path string, def int64) int64 {
	return orDefault(c, path, def, c.GetInt64)
}

func (c *Config) getBoolOr(path string, def bool) bool {
	return orDefault(c, path, def, c.GetBool)
}
