// Package history provides undo/redo stacks for the text editor engine.
//
// The engine's document model is persistent: every edit produces a new tree
// root and leaves the previous one intact. Undo therefore needs no inverse
// commands. It keeps the old states themselves and swaps them back in:
//
//	s := history.NewStack[State](0) // unbounded
//
//	// Before an edit, record the state being replaced.
//	s.Push(current)
//
//	// Undo hands back the previous state and remembers the current one.
//	prev, ok := s.Undo(current)
//
//	// Redo walks forward again.
//	next, ok := s.Redo(prev)
//
// Pushing after an undo discards the redo side, so a fresh edit always ends
// the redo chain.
package history
