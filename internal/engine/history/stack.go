package history

import "slices"

// Stack holds undo and redo entries of any state type.
//
// Pushing a new entry discards the redo side. When maxEntries is positive
// the oldest undo entries are dropped once the limit is passed; zero keeps
// every entry.
//
// A Stack is not safe for concurrent use; it belongs to its single writer.
type Stack[T any] struct {
	undo []T
	redo []T

	maxEntries int
}

// NewStack creates an empty stack. maxEntries <= 0 means unbounded.
func NewStack[T any](maxEntries int) *Stack[T] {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &Stack[T]{maxEntries: maxEntries}
}

// Push records entry as the most recent undo state and clears the redo side.
func (s *Stack[T]) Push(entry T) {
	s.ClearRedo()
	s.pushUndo(entry)
}

// pushUndo appends to the undo side without touching redo.
func (s *Stack[T]) pushUndo(entry T) {
	s.undo = append(s.undo, entry)

	if s.maxEntries > 0 && len(s.undo) > s.maxEntries {
		excess := len(s.undo) - s.maxEntries
		clear(s.undo[:excess])
		s.undo = s.undo[excess:]
	}
}

// Undo pops the most recent undo entry and records current on the redo side.
// It reports false, leaving both sides untouched, when there is nothing to undo.
func (s *Stack[T]) Undo(current T) (T, bool) {
	var zero T
	if len(s.undo) == 0 {
		return zero, false
	}

	entry := s.undo[len(s.undo)-1]
	s.undo[len(s.undo)-1] = zero
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, current)
	return entry, true
}

// Redo pops the most recent redo entry and records current on the undo side.
// It reports false when there is nothing to redo.
func (s *Stack[T]) Redo(current T) (T, bool) {
	var zero T
	if len(s.redo) == 0 {
		return zero, false
	}

	entry := s.redo[len(s.redo)-1]
	s.redo[len(s.redo)-1] = zero
	s.redo = s.redo[:len(s.redo)-1]
	s.pushUndo(current)
	return entry, true
}

// ClearRedo drops every redo entry.
func (s *Stack[T]) ClearRedo() {
	clear(s.redo)
	s.redo = s.redo[:0]
}

// CanUndo returns true if undo is available.
func (s *Stack[T]) CanUndo() bool {
	return len(s.undo) > 0
}

// CanRedo returns true if redo is available.
func (s *Stack[T]) CanRedo() bool {
	return len(s.redo) > 0
}

// UndoCount returns the number of undo entries.
func (s *Stack[T]) UndoCount() int {
	return len(s.undo)
}

// RedoCount returns the number of redo entries.
func (s *Stack[T]) RedoCount() int {
	return len(s.redo)
}

// PeekUndo returns the next undo entry without removing it.
func (s *Stack[T]) PeekUndo() (T, bool) {
	var zero T
	if len(s.undo) == 0 {
		return zero, false
	}
	return s.undo[len(s.undo)-1], true
}

// PeekRedo returns the next redo entry without removing it.
func (s *Stack[T]) PeekRedo() (T, bool) {
	var zero T
	if len(s.redo) == 0 {
		return zero, false
	}
	return s.redo[len(s.redo)-1], true
}

// Clear removes all undo/redo history.
func (s *Stack[T]) Clear() {
	s.undo = nil
	s.redo = nil
}

// SetMaxEntries changes the undo limit. If the undo side is larger, the
// oldest entries are removed.
func (s *Stack[T]) SetMaxEntries(max int) {
	if max < 0 {
		max = 0
	}
	s.maxEntries = max

	if max > 0 && len(s.undo) > max {
		excess := len(s.undo) - max
		clear(s.undo[:excess])
		s.undo = s.undo[excess:]
	}
}

// MaxEntries returns the undo limit; zero means unbounded.
func (s *Stack[T]) MaxEntries() int {
	return s.maxEntries
}

// Saved is a copy of a Stack's entries, taken by Save.
type Saved[T any] struct {
	undo []T
	redo []T
}

// Save copies both sides of the stack.
func (s *Stack[T]) Save() Saved[T] {
	return Saved[T]{undo: slices.Clone(s.undo), redo: slices.Clone(s.redo)}
}

// Restore puts back the entries captured by Save, including any undo
// entries evicted by the limit since.
func (s *Stack[T]) Restore(v Saved[T]) {
	s.undo = slices.Clone(v.undo)
	s.redo = slices.Clone(v.redo)
}
