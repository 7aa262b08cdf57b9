// Package engine provides the thread-safe document engine built on the
// persistent piece tree.
//
// The engine package serves as the main facade, combining the piece tree,
// a caller cursor, undo/redo, and named checkpoints into a single API.
//
// # Architecture
//
// The engine is built on several sub-packages:
//
//   - piecetree: persistent red-black tree of pieces over append-only buffers
//   - history: bounded undo/redo stack of tree roots
//   - tracking: named checkpoints and line diffs between versions
//
// # Thread Safety
//
// All Engine operations are thread-safe. The engine uses a read-write mutex
// to allow concurrent reads while serializing writes. Snapshots returned by
// Snapshot and ReferenceSnapshot are immutable and can be read from any
// goroutine without holding the engine lock.
//
// # Basic Usage
//
//	e := engine.New(engine.WithContent("Hello, World!"))
//
//	// Replace "World" with "Go"
//	e.Replace(7, 5, "Go") // "Hello, Go!"
//
//	// Undo the replacement
//	e.Undo() // "Hello, World!"
//
// # Offsets and Lines
//
// Offsets are byte positions starting at 0. Lines start at 1. Edits with an
// offset or range outside the document return ErrOffsetOutOfRange or
// ErrRangeInvalid; the underlying piece tree clamps instead.
//
// # Undo Grouping
//
// Consecutive inserts that continue where the previous one ended share one
// undo step. Replace and Batch always form exactly one step:
//
//	e.Batch(func(b *engine.Batch) error {
//		b.Insert(0, "// header\n")
//		_, err := b.Replace(10, 5, "Hello")
//		return err
//	})
//
// A Batch whose function returns an error is rolled back completely.
//
// # Checkpoints
//
// Checkpoints are cheap: they keep a reference snapshot, which shares all
// buffers with the engine.
//
//	id := e.CreateCheckpoint("before-refactor")
//	// ... edits ...
//	diff, _ := e.DiffSinceCheckpoint(id, engine.DefaultDiffOptions())
//	e.RestoreCheckpoint(id)
package engine
