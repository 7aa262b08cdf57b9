package loader

import (
	"os"
	"strconv"
	"strings"

	"github.com/dshills/piecetree/internal/config/layer"
)

// DefaultEnvPrefix is the prefix of environment variables read by ptree.
const DefaultEnvPrefix = "PTREE_"

// defaultEnvNames maps the documented variables, minus the prefix, onto
// settings. Other prefixed variables go through envToPath.
var defaultEnvNames = map[string]string{
	"LOG_LEVEL":      "logging.level",
	"LOG_FORMAT":     "logging.format",
	"MAX_UNDO":       "engine.maxUndo",
	"READ_CHUNK":     "engine.readChunk",
	"CHECKS":         "engine.checks",
	"STRESS_SEED":    "stress.seed",
	"STRESS_OPS":     "stress.ops",
	"STRESS_READERS": "stress.readers",
}

// EnvLoader reads settings from prefixed environment variables.
type EnvLoader struct {
	prefix  string
	mapping map[string]string // full variable name -> setting path
}

// NewEnvLoader returns a loader for variables starting with prefix, which
// should end in an underscore.
func NewEnvLoader(prefix string) *EnvLoader {
	l := NewEnvLoaderWithMapping(prefix, nil)
	for name, path := range defaultEnvNames {
		l.AddMapping(prefix+name, path)
	}
	return l
}

// NewEnvLoaderWithMapping returns a loader using only the given explicit
// mapping of variable names to setting paths.
func NewEnvLoaderWithMapping(prefix string, mapping map[string]string) *EnvLoader {
	return &EnvLoader{prefix: prefix, mapping: mapping}
}

// AddMapping routes the variable envVar to configPath.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	if l.mapping == nil {
		l.mapping = make(map[string]string)
	}
	l.mapping[envVar] = configPath
}

// Load collects every prefixed variable. A set but empty variable yields an
// empty string setting.
func (l *EnvLoader) Load() (map[string]any, error) {
	settings := make(map[string]any)
	for _, kv := range os.Environ() {
		name, value, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(name, l.prefix) {
			continue
		}
		path, ok := l.mapping[name]
		if !ok {
			path = l.envToPath(name)
		}
		if path != "" {
			layer.SetByPath(settings, path, parseValue(value))
		}
	}
	return settings, nil
}

// envToPath turns PREFIX_SECTION_SOME_NAME into section.someName. It
// returns "" for names without both a section and a setting.
func (l *EnvLoader) envToPath(env string) string {
	section, rest, ok := strings.Cut(strings.TrimPrefix(env, l.prefix), "_")
	if !ok || section == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString(strings.ToLower(section))
	b.WriteByte('.')
	first := true
	for _, word := range strings.Split(rest, "_") {
		if word == "" {
			continue
		}
		if first {
			b.WriteString(strings.ToLower(word))
			first = false
			continue
		}
		b.WriteString(strings.ToUpper(word[:1]))
		b.WriteString(strings.ToLower(word[1:]))
	}
	if first {
		return ""
	}
	return b.String()
}

// parseValue types a variable's value: integer, then boolean word, then
// decimal, else the string itself. "0" and "1" stay integers.
func parseValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}
