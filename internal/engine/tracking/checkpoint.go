package tracking

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/piecetree/internal/engine/piecetree"
)

// Errors returned by checkpoint operations.
var (
	ErrCheckpointNotFound = errors.New("checkpoint not found")
)

// Checkpoint is a named version of a document.
// Checkpoints are immutable and can be safely shared across goroutines.
type Checkpoint struct {
	// ID uniquely identifies this checkpoint.
	ID uuid.UUID

	// Name is the human-readable name, such as "before_format".
	// It may be empty.
	Name string

	// Timestamp when this checkpoint was created.
	Timestamp time.Time

	// Revision is the document revision the checkpoint captured.
	Revision uint64

	snap *piecetree.ReferenceSnapshot
}

// Snapshot returns the captured document version.
func (c *Checkpoint) Snapshot() *piecetree.ReferenceSnapshot {
	return c.snap
}

// Text returns the full text at this checkpoint.
// Use sparingly for large documents.
func (c *Checkpoint) Text() string {
	return c.snap.Text()
}

// Len returns the byte length at this checkpoint.
func (c *Checkpoint) Len() int {
	return int(c.snap.Length())
}

// LineCount returns the number of lines at this checkpoint.
func (c *Checkpoint) LineCount() int {
	return c.snap.LineCount()
}

// Age returns how long ago this checkpoint was created.
func (c *Checkpoint) Age() time.Duration {
	return time.Since(c.Timestamp)
}

// Manager keeps named checkpoints.
// All operations are thread-safe.
type Manager struct {
	mu          sync.RWMutex
	checkpoints map[uuid.UUID]*Checkpoint
	byName      map[string]*Checkpoint

	now func() time.Time
}

// NewManager creates an empty checkpoint manager.
func NewManager() *Manager {
	return &Manager{
		checkpoints: make(map[uuid.UUID]*Checkpoint),
		byName:      make(map[string]*Checkpoint),
		now:         time.Now,
	}
}

// Create records snap under name and returns the new checkpoint's ID.
// If a checkpoint with the same name exists, it is replaced.
func (m *Manager) Create(name string, snap *piecetree.ReferenceSnapshot, revision uint64) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byName[name]; ok {
		delete(m.checkpoints, existing.ID)
	}

	cp := &Checkpoint{
		ID:        uuid.New(),
		Name:      name,
		Timestamp: m.now(),
		Revision:  revision,
		snap:      snap,
	}

	m.checkpoints[cp.ID] = cp
	if name != "" {
		m.byName[name] = cp
	}

	return cp.ID
}

// Get retrieves a checkpoint by ID.
func (m *Manager) Get(id uuid.UUID) (*Checkpoint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp, ok := m.checkpoints[id]
	return cp, ok
}

// GetByName retrieves a checkpoint by name.
func (m *Manager) GetByName(name string) (*Checkpoint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp, ok := m.byName[name]
	return cp, ok
}

// Delete removes a checkpoint by ID. It reports whether one was removed.
func (m *Manager) Delete(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp, ok := m.checkpoints[id]
	if !ok {
		return false
	}
	m.removeLocked(cp)
	return true
}

// DeleteByName removes a checkpoint by name.
func (m *Manager) DeleteByName(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp, ok := m.byName[name]
	if !ok {
		return false
	}
	m.removeLocked(cp)
	return true
}

func (m *Manager) removeLocked(cp *Checkpoint) {
	if cp.Name != "" {
		delete(m.byName, cp.Name)
	}
	delete(m.checkpoints, cp.ID)
}

// List returns all checkpoints, oldest first.
func (m *Manager) List() []*Checkpoint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedLocked()
}

func (m *Manager) sortedLocked() []*Checkpoint {
	list := make([]*Checkpoint, 0, len(m.checkpoints))
	for _, cp := range m.checkpoints {
		list = append(list, cp)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Timestamp.Equal(list[j].Timestamp) {
			return list[i].Revision < list[j].Revision
		}
		return list[i].Timestamp.Before(list[j].Timestamp)
	})
	return list
}

// Count returns the number of checkpoints.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.checkpoints)
}

// Names returns the names of all named checkpoints, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.byName))
	for name := range m.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes all checkpoints.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoints = make(map[uuid.UUID]*Checkpoint)
	m.byName = make(map[string]*Checkpoint)
}

// Prune removes checkpoints older than maxAge.
// Returns the number of checkpoints removed.
func (m *Manager) Prune(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	removed := 0
	for _, cp := range m.checkpoints {
		if cp.Timestamp.Before(cutoff) {
			m.removeLocked(cp)
			removed++
		}
	}
	return removed
}

// PruneKeepN removes the oldest checkpoints, keeping only the n most recent.
// Returns the number of checkpoints removed.
func (m *Manager) PruneKeepN(n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.checkpoints) <= n {
		return 0
	}

	list := m.sortedLocked()
	excess := len(list) - max(n, 0)
	for _, cp := range list[:excess] {
		m.removeLocked(cp)
	}
	return excess
}
