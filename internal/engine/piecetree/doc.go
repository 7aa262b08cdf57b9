// Package piecetree provides a persistent piece-table text buffer.
//
// Document content is stored as an ordered sequence of pieces, each naming a
// contiguous span of one underlying buffer: an immutable original chunk or the
// single append-only mod buffer that receives inserted text. Pieces live in a
// purely functional red-black tree whose nodes cache the length and line-feed
// count of their left subtree, so offset and line lookups descend the tree in
// O(log n) without any node storing an absolute position.
//
// Key features:
//   - O(log n) insertion, removal and line/offset lookup
//   - Updates build new nodes and share untouched subtrees with the old version
//   - Undo/redo by swapping root pointers
//   - Forward and reverse walkers that materialize text lazily
//   - Snapshots that stay valid while the live tree keeps changing
//
// Basic usage:
//
//	t := piecetree.Build([]string{"foo\nbar\nbaz"})
//	t.Insert(3, "!", piecetree.SuppressHistoryNo)
//	line, _ := t.LineContent(1)   // "foo!"
//	t.TryUndo(0)
//
// Lines are numbered from 1. Line 0 (LineIndexBeginning) is the position
// before the first line and is never a valid query target.
//
// A Tree is not safe for concurrent mutation. Snapshots and retained roots
// may be read from any goroutine while a single writer keeps editing.
package piecetree
