// Package layer stacks configuration sources for ptree.
//
// Each source (built-in defaults, the config file, PTREE_ variables and
// command-line flags) contributes one Layer of nested settings. A setting
// in a higher priority layer hides the same setting below it; sibling
// settings of the lower layer stay visible.
package layer

// Layer is the settings contributed by one source.
type Layer struct {
	// Name is unique within a Manager; NewLayer uses the source name.
	Name string

	// Priority orders layers; higher wins.
	Priority int

	Source Source

	// Path is the file the layer was read from, if any.
	Path string

	// Data is a tree of map[string]any with scalar or []any leaves.
	Data map[string]any
}

// NewLayer returns a layer named and prioritized after source.
func NewLayer(source Source, data map[string]any) *Layer {
	if data == nil {
		data = map[string]any{}
	}
	return &Layer{
		Name:     source.String(),
		Priority: DefaultPriority(source),
		Source:   source,
		Data:     data,
	}
}

// Clone returns a copy of l that shares no nested data with it.
func (l *Layer) Clone() *Layer {
	c := *l
	c.Data = cloneMap(l.Data)
	return &c
}

// Source identifies where a layer came from.
type Source uint8

const (
	SourceBuiltin Source = iota
	SourceFile
	SourceEnv
	SourceArgs
)

// Layer priorities by source.
const (
	PriorityBuiltin = 0
	PriorityFile    = 100
	PriorityEnv     = 500
	PriorityArgs    = 600
)

var sources = [...]struct {
	name     string
	priority int
}{
	SourceBuiltin: {"defaults", PriorityBuiltin},
	SourceFile:    {"file", PriorityFile},
	SourceEnv:     {"environment", PriorityEnv},
	SourceArgs:    {"arguments", PriorityArgs},
}

// String returns the layer name used for source.
func (s Source) String() string {
	if int(s) >= len(sources) {
		return "unknown"
	}
	return sources[s].name
}

// DefaultPriority returns the priority of layers from source. Unknown
// sources rank with the defaults.
func DefaultPriority(source Source) int {
	if int(source) >= len(sources) {
		return PriorityBuiltin
	}
	return sources[source].priority
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
	return dst
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		if v == nil {
			return v
		}
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}
