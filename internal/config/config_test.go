package config

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// memFS is an in-memory file system for testing.
type memFS map[string]string

func (m memFS) ReadFile(path string) ([]byte, error) {
	s, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(s), nil
}

func TestDefault(t *testing.T) {
	c := Default()

	if diff := cmp.Diff(LoggingConfig{Level: "info", Format: "console"}, c.Logging()); diff != "" {
		t.Errorf("Logging() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(EngineConfig{MaxUndo: 1000, ReadChunk: 64 * 1024}, c.Engine()); diff != "" {
		t.Errorf("Engine() mismatch (-want +got):\n%s", diff)
	}
	want := StressConfig{Seed: 1, Ops: 10000, Readers: 4, SnapshotEvery: 100, MaxInsert: 16}
	if diff := cmp.Diff(want, c.Stress()); diff != "" {
		t.Errorf("Stress() mismatch (-want +got):\n%s", diff)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if got := c.Source("logging.level"); got != "defaults" {
		t.Errorf("Source(logging.level) = %q", got)
	}
}

func TestLoadLayers(t *testing.T) {
	fsys := memFS{"/ptree.toml": `
[logging]
level = "debug"
format = "json"

[stress]
ops = 500
`}
	t.Setenv("PTREE_LOG_LEVEL", "warn")
	t.Setenv("PTREE_STRESS_READERS", "2")

	c := New(WithFile("/ptree.toml"), WithFileSystem(fsys))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := c.Logging(); got.Level != "warn" || got.Format != "json" {
		t.Errorf("Logging() = %+v", got)
	}
	if got := c.Stress(); got.Ops != 500 || got.Readers != 2 || got.Seed != 1 {
		t.Errorf("Stress() = %+v", got)
	}

	sources := map[string]string{
		"logging.level":  "environment",
		"logging.format": "file",
		"stress.seed":    "defaults",
	}
	for path, want := range sources {
		if got := c.Source(path); got != want {
			t.Errorf("Source(%s) = %q, want %q", path, got, want)
		}
	}

	c.SetOverride("logging.level", "error")
	c.SetOverride("engine.checks", true)
	if got := c.Logging().Level; got != "error" {
		t.Errorf("override not applied: %q", got)
	}
	if !c.Engine().Checks {
		t.Error("second override lost")
	}
	if got := c.Source("logging.level"); got != "arguments" {
		t.Errorf("Source after override = %q", got)
	}
}

func TestLoadYAML(t *testing.T) {
	fsys := memFS{"/ptree.yaml": "engine:\n  maxUndo: 0\n  readChunk: 4096\n"}

	c := New(WithFile("/ptree.yaml"), WithFileSystem(fsys), WithEnvPrefix(""))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.Engine(); got.MaxUndo != 0 || got.ReadChunk != 4096 {
		t.Errorf("Engine() = %+v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	c := New(WithFile("/nope.toml"), WithFileSystem(memFS{}), WithEnvPrefix(""))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if got := c.Logging().Level; got != "info" {
		t.Errorf("Level = %q", got)
	}
}

func TestLoadParseError(t *testing.T) {
	fsys := memFS{"/bad.toml": "[logging\n"}

	err := New(WithFile("/bad.toml"), WithFileSystem(fsys), WithEnvPrefix("")).Load(context.Background())
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if perr.Path != "/bad.toml" {
		t.Errorf("Path = %q", perr.Path)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	err := New(WithFile("/ptree.ini"), WithFileSystem(memFS{}), WithEnvPrefix("")).Load(context.Background())
	if err == nil {
		t.Fatal("expected error for .ini file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		value any
	}{
		{"unknown level", "logging.level", "loud"},
		{"unknown format", "logging.format", "xml"},
		{"negative undo", "engine.maxUndo", int64(-1)},
		{"zero chunk", "engine.readChunk", int64(0)},
		{"negative readers", "stress.readers", int64(-3)},
		{"zero snapshot interval", "stress.snapshotEvery", int64(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.SetOverride(tt.path, tt.value)
			err := c.Validate()
			if !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("expected ErrValidationFailed, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Path != tt.path {
				t.Errorf("expected ValidationError for %s, got %v", tt.path, err)
			}
		})
	}
}

func TestTypeMismatch(t *testing.T) {
	c := Default()
	c.SetOverride("engine.maxUndo", "lots")

	if _, err := c.GetInt("engine.maxUndo"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("GetInt: expected ErrTypeMismatch, got %v", err)
	}
	if got := c.Engine().MaxUndo; got != 1000 {
		t.Errorf("mismatched value should fall back to default, got %d", got)
	}
	if err := c.Validate(); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Validate: expected ErrTypeMismatch, got %v", err)
	}

	c.SetOverride("engine.maxUndo", int64(10))
	if err := c.Validate(); err != nil {
		t.Errorf("fixed override should validate: %v", err)
	}
}

func TestGetters(t *testing.T) {
	c := Default()
	c.SetOverride("stress.seed", 3.0)

	if _, err := c.GetString("nope"); !errors.Is(err, ErrSettingNotFound) {
		t.Errorf("expected ErrSettingNotFound, got %v", err)
	}
	if v, err := c.GetInt64("stress.seed"); err != nil || v != 3 {
		t.Errorf("GetInt64 of whole float = %d, %v", v, err)
	}
	c.SetOverride("stress.seed", 3.5)
	if _, err := c.GetInt64("stress.seed"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch for 3.5, got %v", err)
	}
	if _, err := c.GetBool("logging.level"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}

	merged := c.Merged()
	if _, ok := merged["logging"]; !ok {
		t.Error("Merged() missing logging section")
	}
}
