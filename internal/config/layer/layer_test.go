package layer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"logging": map[string]any{"level": "info", "format": "console"},
		"engine":  map[string]any{"maxUndo": int64(1000)},
	}
	src := map[string]any{
		"logging": map[string]any{"level": "debug"},
		"stress":  map[string]any{"ops": int64(10)},
	}

	got := DeepMerge(dst, src)
	want := map[string]any{
		"logging": map[string]any{"level": "debug", "format": "console"},
		"engine":  map[string]any{"maxUndo": int64(1000)},
		"stress":  map[string]any{"ops": int64(10)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DeepMerge mismatch (-want +got):\n%s", diff)
	}

	// src maps are copied, not aliased
	src["stress"].(map[string]any)["ops"] = int64(99)
	if v, _ := GetByPath(got, "stress.ops"); v != int64(10) {
		t.Errorf("merged value aliased src: %v", v)
	}
}

func TestDeepMergeReplacesNonMap(t *testing.T) {
	got := DeepMerge(
		map[string]any{"logging": "off"},
		map[string]any{"logging": map[string]any{"level": "warn"}},
	)
	if v, ok := GetByPath(got, "logging.level"); !ok || v != "warn" {
		t.Errorf("logging.level = %v, %v", v, ok)
	}
}

func TestGetSetByPath(t *testing.T) {
	data := map[string]any{}
	SetByPath(data, "engine.readChunk", int64(4096))
	SetByPath(data, "engine.maxUndo", int64(5))

	if v, ok := GetByPath(data, "engine.readChunk"); !ok || v != int64(4096) {
		t.Errorf("engine.readChunk = %v, %v", v, ok)
	}
	if _, ok := GetByPath(data, "engine.missing"); ok {
		t.Error("expected missing path")
	}
	if _, ok := GetByPath(data, "engine.maxUndo.deeper"); ok {
		t.Error("expected path through a scalar to fail")
	}
	if _, ok := GetByPath(data, ""); ok {
		t.Error("expected empty path to fail")
	}

	SetByPath(data, "engine.maxUndo.deeper", true)
	if v, ok := GetByPath(data, "engine.maxUndo.deeper"); !ok || v != true {
		t.Errorf("SetByPath through scalar: %v, %v", v, ok)
	}
}

func TestManagerPriority(t *testing.T) {
	m := NewManager()
	m.AddLayer(NewLayer(SourceEnv, map[string]any{
		"logging": map[string]any{"level": "warn"},
	}))
	m.AddLayer(NewLayer(SourceBuiltin, map[string]any{
		"logging": map[string]any{"level": "info", "format": "console"},
	}))
	m.AddLayer(NewLayer(SourceFile, map[string]any{
		"logging": map[string]any{"level": "debug", "format": "json"},
	}))

	merged := m.Merge()
	if v, _ := GetByPath(merged, "logging.level"); v != "warn" {
		t.Errorf("logging.level = %v, want warn", v)
	}
	if v, _ := GetByPath(merged, "logging.format"); v != "json" {
		t.Errorf("logging.format = %v, want json", v)
	}

	if got := m.WhichLayer("logging.level"); got != "environment" {
		t.Errorf("WhichLayer(logging.level) = %q", got)
	}
	if got := m.WhichLayer("logging.format"); got != "file" {
		t.Errorf("WhichLayer(logging.format) = %q", got)
	}
	if got := m.WhichLayer("nope"); got != "" {
		t.Errorf("WhichLayer(nope) = %q", got)
	}

	var names []string
	for _, l := range m.Layers() {
		names = append(names, l.Name)
	}
	if diff := cmp.Diff([]string{"defaults", "file", "environment"}, names); diff != "" {
		t.Errorf("layer order (-want +got):\n%s", diff)
	}
}

func TestManagerReplaceAndRemove(t *testing.T) {
	m := NewManager()
	m.AddLayer(NewLayer(SourceArgs, map[string]any{"logging": map[string]any{"level": "error"}}))
	_ = m.Merge()

	m.AddLayer(NewLayer(SourceArgs, map[string]any{"logging": map[string]any{"level": "debug"}}))
	if len(m.Layers()) != 1 {
		t.Fatalf("expected replacement, got %d layers", len(m.Layers()))
	}
	if v, _ := GetByPath(m.Merge(), "logging.level"); v != "debug" {
		t.Errorf("cached merge not refreshed: %v", v)
	}

	if !m.RemoveLayer("arguments") {
		t.Error("RemoveLayer returned false")
	}
	if m.RemoveLayer("arguments") {
		t.Error("second RemoveLayer returned true")
	}
	if len(m.Merge()) != 0 {
		t.Error("expected empty merge")
	}
}

func TestMergeReturnsCopy(t *testing.T) {
	m := NewManager()
	m.AddLayer(NewLayer(SourceBuiltin, map[string]any{"engine": map[string]any{"maxUndo": int64(1)}}))

	merged := m.Merge()
	SetByPath(merged, "engine.maxUndo", int64(2))
	if v, _ := GetByPath(m.Merge(), "engine.maxUndo"); v != int64(1) {
		t.Errorf("Merge result aliased cache: %v", v)
	}
}

func TestLayerClone(t *testing.T) {
	l := NewLayer(SourceFile, map[string]any{"a": []any{map[string]any{"b": 1}}})
	l.Path = "/etc/ptree.toml"
	c := l.Clone()
	if diff := cmp.Diff(l, c); diff != "" {
		t.Errorf("Clone mismatch (-orig +clone):\n%s", diff)
	}
	c.Data["a"].([]any)[0].(map[string]any)["b"] = 2
	if l.Data["a"].([]any)[0].(map[string]any)["b"] != 1 {
		t.Error("Clone shares nested data")
	}
}
