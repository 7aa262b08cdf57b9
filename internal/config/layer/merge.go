package layer

import "strings"

// DeepMerge copies src into dst and returns dst, allocating it if nil.
// Where both sides hold a map the maps are merged; otherwise the src value
// wins.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, sv := range src {
		if sm, ok := sv.(map[string]any); ok {
			if dm, ok := dst[k].(map[string]any); ok {
				dst[k] = DeepMerge(dm, sm)
				continue
			}
		}
		dst[k] = cloneValue(sv)
	}
	return dst
}

// GetByPath looks up a dotted path such as "engine.maxUndo".
func GetByPath(data map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	node := data
	for {
		key, rest, more := strings.Cut(path, ".")
		v, ok := node[key]
		if !ok || !more {
			return v, ok
		}
		if node, ok = v.(map[string]any); !ok {
			return nil, false
		}
		path = rest
	}
}

// SetByPath stores value at a dotted path, creating intermediate maps and
// overwriting any scalar that is in the way.
func SetByPath(data map[string]any, path string, value any) {
	if data == nil || path == "" {
		return
	}
	node := data
	for {
		key, rest, more := strings.Cut(path, ".")
		if !more {
			node[key] = value
			return
		}
		child, ok := node[key].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[key] = child
		}
		node, path = child, rest
	}
}
