package layer

import (
	"slices"
	"sync"
)

// Manager holds the configuration layers of one Config. Lookups consult the
// layers from highest priority to lowest; Merge folds them lowest first.
type Manager struct {
	mu      sync.RWMutex
	byName  map[string]*Layer
	ordered []*Layer // ascending priority, insertion order among equals
	seq     map[string]int
	next    int
	merged  map[string]any // nil until computed, reset on every change
}

// NewManager returns a Manager with no layers.
func NewManager() *Manager {
	return &Manager{
		byName: make(map[string]*Layer),
		seq:    make(map[string]int),
	}
}

// AddLayer installs l. A layer with the same name is replaced and keeps its
// place among layers of equal priority.
func (m *Manager) AddLayer(l *Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seq[l.Name]; !ok {
		m.seq[l.Name] = m.next
		m.next++
	}
	m.byName[l.Name] = l
	m.reorderLocked()
}

// RemoveLayer drops the named layer and reports whether it was present.
func (m *Manager) RemoveLayer(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byName[name]; !ok {
		return false
	}
	delete(m.byName, name)
	delete(m.seq, name)
	m.reorderLocked()
	return true
}

func (m *Manager) reorderLocked() {
	m.ordered = m.ordered[:0]
	for _, l := range m.byName {
		m.ordered = append(m.ordered, l)
	}
	slices.SortFunc(m.ordered, func(a, b *Layer) int {
		if a.Priority != b.Priority {
			return a.Priority - b.Priority
		}
		return m.seq[a.Name] - m.seq[b.Name]
	})
	m.merged = nil
}

// Layers returns the layers in ascending priority.
func (m *Manager) Layers() []*Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.ordered)
}

// Merge returns the effective configuration. The result is a private copy
// the caller may modify.
func (m *Manager) Merge() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.merged == nil {
		m.merged = make(map[string]any)
		for _, l := range m.ordered {
			m.merged = DeepMerge(m.merged, l.Data)
		}
	}
	return cloneMap(m.merged)
}

// Get returns the effective value at path and the layer supplying it.
func (m *Manager) Get(path string) (any, *Layer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, l := range slices.Backward(m.ordered) {
		if v, ok := GetByPath(l.Data, path); ok {
			return v, l, true
		}
	}
	return nil, nil, false
}

// WhichLayer names the layer supplying path, or returns "" if none does.
func (m *Manager) WhichLayer(path string) string {
	_, l, ok := m.Get(path)
	if !ok {
		return ""
	}
	return l.Name
}
