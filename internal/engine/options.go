package engine

import (
	"go.uber.org/zap"
)

// Default configuration values.
const (
	DefaultMaxUndoEntries = 1000
	DefaultReadChunkSize  = 64 * 1024
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithContent sets the initial content of the engine. Each chunk becomes
// one original buffer.
func WithContent(chunks ...string) Option {
	return func(e *Engine) {
		e.initContent = append(e.initContent, chunks...)
	}
}

// WithMaxUndoEntries sets the maximum number of undo history entries.
// Zero keeps every entry.
func WithMaxUndoEntries(max int) Option {
	return func(e *Engine) {
		if max >= 0 {
			e.maxUndoEntries = max
		}
	}
}

// WithReadOnly creates a read-only engine.
// Write operations will return ErrReadOnly.
func WithReadOnly() Option {
	return func(e *Engine) {
		e.readOnly = true
	}
}

// WithLogger sets the logger used for edit and history events.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithReadChunkSize sets the size of the chunks NewFromReader reads.
func WithReadChunkSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.readChunkSize = size
		}
	}
}

// WithConsistencyChecks verifies the tree after every edit and panics on
// corruption. Meant for tests and stress runs.
func WithConsistencyChecks() Option {
	return func(e *Engine) {
		e.checks = true
	}
}
