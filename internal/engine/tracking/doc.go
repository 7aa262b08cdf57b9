// Package tracking provides named checkpoints and line diffs over
// piece-tree documents.
//
// # Checkpoints
//
// A [Checkpoint] wraps a [piecetree.ReferenceSnapshot] with an ID, a name and
// the revision it was taken at. Because the tree is persistent, creating one
// is O(1) and keeps no copy of the text:
//
//	m := tracking.NewManager()
//	id := m.Create("before_format", tree.ReferenceSnapshot(), rev)
//
//	cp, ok := m.Get(id)
//	tree.RestoreSnapshot(cp.Snapshot())
//
// Creating a checkpoint under an existing name replaces it. [Manager.Prune]
// and [Manager.PruneKeepN] bound how many are kept.
//
// # Diffing
//
// [Diff] compares any two documents line by line with the Myers algorithm:
//
//	result := tracking.Diff(cp.Snapshot(), tree, tracking.DefaultDiffOptions())
//	fmt.Print(tracking.UnifiedDiff(result, "checkpoint", "current"))
//
// # Thread Safety
//
// All Manager operations are thread-safe through internal locking.
// Checkpoints are immutable and can be freely shared across goroutines.
package tracking
