package piecetree

// OwningSnapshot is a version of a document with its own copy of the mod
// buffer. It stays valid and unchanged whatever happens to the tree it was
// taken from, and may be read from any number of goroutines.
type OwningSnapshot struct {
	textView
}

// ReferenceSnapshot is a version of a document that shares buffers with the
// tree it was taken from. It is cheap to take and, like OwningSnapshot,
// never observes later edits. It can be restored into its own tree.
type ReferenceSnapshot struct {
	textView
}

// OwningSnapshot captures the current state with a private mod buffer.
func (t *Tree) OwningSnapshot() *OwningSnapshot {
	return &OwningSnapshot{textView{
		root:    t.root,
		buffers: t.buffers.clone(),
		meta:    t.meta,
	}}
}

// ReferenceSnapshot captures the current state, sharing the tree's buffers.
func (t *Tree) ReferenceSnapshot() *ReferenceSnapshot {
	return &ReferenceSnapshot{t.view()}
}
