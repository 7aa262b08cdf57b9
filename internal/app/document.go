package app

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dshills/piecetree/internal/engine"
)

// Document represents a file loaded into an engine.
type Document struct {
	// Path is the absolute file path.
	Path string

	// Name is the display name (the path as given).
	Name string

	// Engine is the text buffer and editing engine.
	Engine *engine.Engine
}

// DocumentManager loads documents with shared engine options and keeps
// one engine per file.
type DocumentManager struct {
	mu        sync.RWMutex
	documents map[string]*Document // absolute path -> document
	order     []string             // tracks open order
	opts      []engine.Option
}

// NewDocumentManager creates a new document manager. opts are applied to
// every engine it creates.
func NewDocumentManager(opts ...engine.Option) *DocumentManager {
	return &DocumentManager{
		documents: make(map[string]*Document),
		opts:      opts,
	}
}

// Open loads the file at path. Returns the existing document if the file
// is already open.
func (dm *DocumentManager) Open(path string) (*Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()

	if doc, exists := dm.documents[absPath]; exists {
		return doc, nil
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	eng, err := engine.NewFromReader(f, dm.opts...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	doc := &Document{Path: absPath, Name: path, Engine: eng}
	dm.documents[absPath] = doc
	dm.order = append(dm.order, absPath)
	return doc, nil
}

// Get returns an open document by path.
func (dm *DocumentManager) Get(path string) (*Document, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}

	dm.mu.RLock()
	defer dm.mu.RUnlock()
	doc, ok := dm.documents[absPath]
	return doc, ok
}

// Close forgets a document. Returns false if it was not open.
func (dm *DocumentManager) Close(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()

	if _, ok := dm.documents[absPath]; !ok {
		return false
	}
	delete(dm.documents, absPath)
	for i, p := range dm.order {
		if p == absPath {
			dm.order = append(dm.order[:i], dm.order[i+1:]...)
			break
		}
	}
	return true
}

// Count returns the number of open documents.
func (dm *DocumentManager) Count() int {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return len(dm.documents)
}

// Paths returns the absolute paths of open documents in open order.
func (dm *DocumentManager) Paths() []string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return append([]string(nil), dm.order...)
}
