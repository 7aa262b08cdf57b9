package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/piecetree/internal/config/layer"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

type failFS struct{ err error }

func (f failFS) ReadFile(string) ([]byte, error) { return nil, f.err }

const tomlConfig = `
[logging]
level = "debug"
format = "json"

[engine]
maxUndo = 50
checks = true

[stress]
seed = 7
`

const yamlConfig = `
logging:
  level: debug
  format: json
engine:
  maxUndo: 50
  checks: true
stress:
  seed: 7
`

func TestTOMLAndYAMLAgree(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/ptree.toml", tomlConfig)
	memfs.AddFile("/ptree.yaml", yamlConfig)

	fromTOML, err := NewTOMLLoaderWithFS(memfs, "/ptree.toml").Load()
	if err != nil {
		t.Fatalf("TOML Load failed: %v", err)
	}
	fromYAML, err := NewYAMLLoaderWithFS(memfs, "/ptree.yaml").Load()
	if err != nil {
		t.Fatalf("YAML Load failed: %v", err)
	}

	want := map[string]any{
		"logging": map[string]any{"level": "debug", "format": "json"},
		"engine":  map[string]any{"maxUndo": int64(50), "checks": true},
		"stress":  map[string]any{"seed": int64(7)},
	}
	if diff := cmp.Diff(want, fromTOML); diff != "" {
		t.Errorf("TOML mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, fromYAML); diff != "" {
		t.Errorf("YAML mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingFile(t *testing.T) {
	memfs := NewMemFS()
	for _, l := range []FileLoader{
		NewTOMLLoaderWithFS(memfs, "/missing.toml"),
		NewYAMLLoaderWithFS(memfs, "/missing.yaml"),
	} {
		config, err := l.Load()
		if err != nil {
			t.Errorf("%T: missing file should not be an error: %v", l, err)
		}
		if config != nil {
			t.Errorf("%T: expected nil config, got %v", l, config)
		}
	}
}

func TestReadError(t *testing.T) {
	boom := errors.New("permission denied")
	_, err := NewTOMLLoaderWithFS(failFS{boom}, "/ptree.toml").Load()
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped read error, got %v", err)
	}
}

func TestTOMLParseError(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/bad.toml", "[logging]\nlevel = \n")

	_, err := NewTOMLLoaderWithFS(memfs, "/bad.toml").Load()
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if perr.Path != "/bad.toml" {
		t.Errorf("Path = %q", perr.Path)
	}
	if perr.Line == 0 {
		t.Errorf("expected a line number, got %+v", perr)
	}
	if !strings.Contains(perr.Error(), "/bad.toml at line") {
		t.Errorf("Error() = %q", perr.Error())
	}
}

func TestYAMLParseError(t *testing.T) {
	_, err := NewYAMLLoader("").LoadFromReader(strings.NewReader("logging: [unclosed"))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if perr.Path != "<reader>" {
		t.Errorf("Path = %q", perr.Path)
	}
}

func TestYAMLEmptyDocument(t *testing.T) {
	config, err := NewYAMLLoader("").LoadFromReader(strings.NewReader("# nothing\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(config) != 0 {
		t.Errorf("expected empty config, got %v", config)
	}
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/etc/ptree.toml", "*loader.TOMLLoader"},
		{"ptree.YAML", "*loader.YAMLLoader"},
		{"ptree.yml", "*loader.YAMLLoader"},
	}
	for _, tt := range tests {
		l, err := ForPath(NewMemFS(), tt.path)
		if err != nil {
			t.Errorf("ForPath(%q): %v", tt.path, err)
			continue
		}
		if got := fmt.Sprintf("%T", l); got != tt.want {
			t.Errorf("ForPath(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}

	if _, err := ForPath(NewMemFS(), "ptree.json"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestEnvLoader_Load(t *testing.T) {
	t.Setenv("PTREE_LOG_LEVEL", "warn")
	t.Setenv("PTREE_MAX_UNDO", "0")
	t.Setenv("PTREE_CHECKS", "yes")
	t.Setenv("PTREE_STRESS_SNAPSHOT_EVERY", "25")

	config, err := NewEnvLoader(DefaultEnvPrefix).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	checks := []struct {
		path string
		want any
	}{
		{"logging.level", "warn"},
		{"engine.maxUndo", int64(0)},
		{"engine.checks", true},
		{"stress.snapshotEvery", int64(25)},
	}
	for _, c := range checks {
		got, ok := layer.GetByPath(config, c.path)
		if !ok || got != c.want {
			t.Errorf("%s = %v (%T), want %v", c.path, got, got, c.want)
		}
	}
}

func TestEnvLoader_CustomMapping(t *testing.T) {
	t.Setenv("MYAPP_SEED", "42")

	l := NewEnvLoaderWithMapping("MYAPP_", nil)
	l.AddMapping("MYAPP_SEED", "stress.seed")
	config, err := l.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got, ok := layer.GetByPath(config, "stress.seed"); !ok || got != int64(42) {
		t.Errorf("stress.seed = %v", got)
	}
}

func TestEnvLoader_envToPath(t *testing.T) {
	l := NewEnvLoader(DefaultEnvPrefix)
	tests := []struct {
		env  string
		want string
	}{
		{"PTREE_LOGGING_LEVEL", "logging.level"},
		{"PTREE_STRESS_SNAPSHOT_EVERY", "stress.snapshotEvery"},
		{"PTREE_ENGINE_READ__CHUNK", "engine.readChunk"},
		{"PTREE_ALONE", ""},
		{"PTREE__X", ""},
	}
	for _, tt := range tests {
		if got := l.envToPath(tt.env); got != tt.want {
			t.Errorf("envToPath(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", ""},
		{"0", int64(0)},
		{"-12", int64(-12)},
		{"on", true},
		{"OFF", false},
		{"1.5", 1.5},
		{"json", "json"},
		{"v1.2.3", "v1.2.3"},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %v (%T), want %v", tt.in, got, got, tt.want)
		}
	}
}
