package piecetree

import (
	"github.com/dshills/piecetree/internal/engine/history"
)

// historyEntry is one recorded document state.
type historyEntry struct {
	root   *node
	offset CharOffset // where the caller's cursor belongs in that state
}

// Tree is a piece table over a persistent red-black tree.
//
// root and meta change only through Insert, Remove, TryUndo, TryRedo,
// CommitHead and RestoreSnapshot. A Tree must have a single writer.
type Tree struct {
	buffers *BufferCollection
	root    *node
	meta    bufferMeta

	// lastInsert is the mod-buffer cursor just past the most recent append;
	// a piece ending there can be extended in place of adding a node.
	lastInsert BufferCursor

	// endLastInsert is the document offset just past the most recent
	// recorded insert. An insert starting there joins its undo entry.
	endLastInsert CharOffset

	history *history.Stack[historyEntry]
	checked bool
}

// Option configures a Tree during Build.
type Option func(*Tree)

// WithMaxHistory bounds the number of undo entries. Zero, the default,
// keeps all of them.
func WithMaxHistory(n int) Option {
	return func(t *Tree) {
		t.history.SetMaxEntries(n)
	}
}

// WithConsistencyChecks runs the consistency checker after every edit and
// panics on the first violation. Intended for tests and stress runs.
func WithConsistencyChecks() Option {
	return func(t *Tree) {
		t.checked = true
	}
}

// Build creates a tree whose content is the concatenation of chunks. Each
// non-empty chunk becomes one original buffer referenced by one piece.
func Build(chunks []string, opts ...Option) *Tree {
	nonEmpty := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk != "" {
			nonEmpty = append(nonEmpty, chunk)
		}
	}

	t := &Tree{
		buffers:       NewBufferCollection(nonEmpty),
		endLastInsert: SentinelOffset,
		history:       history.NewStack[historyEntry](0),
	}
	for _, opt := range opts {
		opt(t)
	}

	var offset CharOffset
	for i := range nonEmpty {
		buf := t.buffers.BufferAt(BufferIndex(i))
		last := buf.endCursor()
		p := Piece{
			Index:        BufferIndex(i),
			First:        BufferCursor{},
			Last:         last,
			Length:       Length(buf.Len()),
			NewlineCount: lineFeedCount(BufferCursor{}, last),
		}
		t.root = insertPiece(t.root, p, offset)
		offset = offset.Extend(p.Length)
	}
	t.computeMeta()
	t.verify()
	return t
}

// Buffers returns the tree's buffer collection.
func (t *Tree) Buffers() *BufferCollection {
	return t.buffers
}

// computeMeta refreshes the cached totals from the root.
func (t *Tree) computeMeta() {
	t.meta = bufferMeta{
		totalLength:  treeLength(t.root),
		totalLFCount: treeLFCount(t.root),
	}
}

// verify panics if consistency checks are enabled and the tree is broken.
func (t *Tree) verify() {
	if !t.checked {
		return
	}
	if err := t.Check(); err != nil {
		panic(err)
	}
}

// Check runs the consistency checker over the current root.
func (t *Tree) Check() error {
	if err := checkTree(t.buffers, t.root); err != nil {
		return err
	}
	if got := treeLength(t.root); got != t.meta.totalLength {
		return wrapInvariant("cached length %d, tree holds %d", t.meta.totalLength, got)
	}
	if got := treeLFCount(t.root); got != t.meta.totalLFCount {
		return wrapInvariant("cached line feeds %d, tree holds %d", t.meta.totalLFCount, got)
	}
	return nil
}

// clamp limits an offset to [0, Length()].
func (t *Tree) clamp(offset CharOffset) CharOffset {
	if offset < 0 {
		return 0
	}
	if end := CharOffset(t.meta.totalLength); offset > end {
		return end
	}
	return offset
}

// Insert adds text at offset. Offsets past the end insert at the end.
func (t *Tree) Insert(offset CharOffset, text string, suppress SuppressHistory) {
	if text == "" {
		return
	}
	offset = t.clamp(offset)

	if suppress {
		t.history.ClearRedo()
	} else if t.endLastInsert != offset || t.root == nil {
		t.appendUndo(offset)
	}

	t.insertText(offset, text)
	if suppress {
		t.endLastInsert = SentinelOffset
	} else {
		t.endLastInsert = offset.Extend(Length(len(text)))
	}
	t.computeMeta()
	t.verify()
}

func (t *Tree) insertText(offset CharOffset, text string) {
	if t.root == nil {
		t.root = insertPiece(nil, t.buildPiece(text), 0)
		return
	}

	pos := nodeAt(t.buffers, t.root, offset)
	n := pos.node

	// At the start of a piece. If the piece before it ends where the mod
	// buffer ends, grow that piece instead of adding a node.
	if pos.startOffset == offset {
		if offset > 0 {
			prev := nodeAt(t.buffers, t.root, offset-1)
			if t.extendable(prev.node.piece) {
				t.combinePieces(prev, t.buildPiece(text))
				return
			}
		}
		t.root = insertPiece(t.root, t.buildPiece(text), offset)
		return
	}

	// At the end of the last piece.
	if offset >= pos.startOffset.Extend(n.piece.Length) {
		if t.extendable(n.piece) {
			t.combinePieces(pos, t.buildPiece(text))
			return
		}
		t.root = insertPiece(t.root, t.buildPiece(text), offset)
		return
	}

	// Inside a piece: split it around the new text.
	cut := t.buffers.bufferPosition(n.piece, pos.remainder)
	left := trimPieceRight(t.buffers, n.piece, cut)
	right := trimPieceLeft(t.buffers, n.piece, cut)
	mid := t.buildPiece(text)

	start := pos.startOffset
	t.root = removePiece(t.root, start)
	t.root = insertPiece(t.root, left, start)
	t.root = insertPiece(t.root, mid, start.Extend(left.Length))
	t.root = insertPiece(t.root, right, start.Extend(left.Length+mid.Length))
}

// extendable reports whether p ends exactly at the tail of the mod buffer.
func (t *Tree) extendable(p Piece) bool {
	return p.Index == ModBufferIndex && p.Last == t.lastInsert
}

// buildPiece appends text to the mod buffer and returns the piece covering it.
func (t *Tree) buildPiece(text string) Piece {
	_, first, last := t.buffers.Append(text)
	t.lastInsert = last
	return Piece{
		Index:        ModBufferIndex,
		First:        first,
		Last:         last,
		Length:       Length(len(text)),
		NewlineCount: lineFeedCount(first, last),
	}
}

// combinePieces replaces the piece at existing with one that also covers
// next, which must start where the existing piece ends.
func (t *Tree) combinePieces(existing nodePosition, next Piece) {
	p := existing.node.piece
	if p.Index != ModBufferIndex || p.Last != next.First {
		panic("piecetree: combining pieces that are not adjacent in the mod buffer")
	}
	p.Last = next.Last
	p.Length += next.Length
	p.NewlineCount = lineFeedCount(p.First, p.Last)

	t.root = removePiece(t.root, existing.startOffset)
	t.root = insertPiece(t.root, p, existing.startOffset)
}

// Remove deletes count bytes starting at offset. The range is clamped to
// the end of the document.
func (t *Tree) Remove(offset CharOffset, count Length, suppress SuppressHistory) {
	if count <= 0 || t.root == nil {
		return
	}
	offset = t.clamp(offset)
	avail := offset.Distance(CharOffset(t.meta.totalLength))
	if avail == 0 {
		return
	}
	count = min(count, avail)

	if suppress {
		t.history.ClearRedo()
	} else {
		t.appendUndo(offset)
	}
	t.endLastInsert = SentinelOffset

	t.removeRange(offset, count)
	t.computeMeta()
	t.verify()
}

// removeRange deletes [offset, offset+count) one covered piece at a time.
// Each step removes the piece containing offset and reinserts whatever part
// of it lies outside the range, so the document shrinks by exactly the
// covered amount on every step.
func (t *Tree) removeRange(offset CharOffset, count Length) {
	end := offset.Extend(count)
	for offset < end {
		pos := nodeAt(t.buffers, t.root, offset)
		p := pos.node.piece
		start := pos.startOffset
		pieceEnd := start.Extend(p.Length)

		t.root = removePiece(t.root, start)
		if pieceEnd > end {
			cut := t.buffers.bufferPosition(p, start.Distance(end))
			t.root = insertPiece(t.root, trimPieceLeft(t.buffers, p, cut), start)
		}
		if start < offset {
			cut := t.buffers.bufferPosition(p, start.Distance(offset))
			t.root = insertPiece(t.root, trimPieceRight(t.buffers, p, cut), start)
		}

		// The range now starts at offset again and is shorter by the
		// part this piece covered.
		end = end.Retract(offset.Distance(min(pieceEnd, end)))
	}
}

// trimPieceLeft keeps [pos, p.Last) of p.
func trimPieceLeft(bc *BufferCollection, p Piece, pos BufferCursor) Piece {
	first := bc.BufferOffset(p.Index, pos)
	last := bc.BufferOffset(p.Index, p.Last)
	p.First = pos
	p.Length = first.Distance(last)
	p.NewlineCount = lineFeedCount(pos, p.Last)
	return p
}

// trimPieceRight keeps [p.First, pos) of p.
func trimPieceRight(bc *BufferCollection, p Piece, pos BufferCursor) Piece {
	first := bc.BufferOffset(p.Index, p.First)
	last := bc.BufferOffset(p.Index, pos)
	p.Last = pos
	p.Length = first.Distance(last)
	p.NewlineCount = lineFeedCount(p.First, pos)
	return p
}

// appendUndo records the current root as an undo state and ends the redo
// chain.
func (t *Tree) appendUndo(offset CharOffset) {
	t.history.Push(historyEntry{root: t.root, offset: offset})
}

// CommitHead records the current state as an undo checkpoint without
// editing. Follow it with suppressed edits to make them one undo unit.
func (t *Tree) CommitHead(offset CharOffset) {
	t.appendUndo(offset)
	t.endLastInsert = SentinelOffset
}

// TryUndo restores the previous state. opOffset is remembered for the
// matching redo. It returns the offset recorded with the restored state, or
// false if there is nothing to undo.
func (t *Tree) TryUndo(opOffset CharOffset) (CharOffset, bool) {
	entry, ok := t.history.Undo(historyEntry{root: t.root, offset: opOffset})
	if !ok {
		return 0, false
	}
	t.install(entry.root)
	return entry.offset, true
}

// TryRedo reapplies the most recently undone state.
func (t *Tree) TryRedo(opOffset CharOffset) (CharOffset, bool) {
	entry, ok := t.history.Redo(historyEntry{root: t.root, offset: opOffset})
	if !ok {
		return 0, false
	}
	t.install(entry.root)
	return entry.offset, true
}

// Mark is a tree state with its history, taken by Mark and reinstated by
// Rollback.
type Mark struct {
	root          *node
	endLastInsert CharOffset
	history       history.Saved[historyEntry]
}

// Mark captures the current document and history.
func (t *Tree) Mark() Mark {
	return Mark{root: t.root, endLastInsert: t.endLastInsert, history: t.history.Save()}
}

// Rollback returns the tree to m, discarding every edit and history change
// made since. Text appended to the mod buffer stays there unreferenced.
func (t *Tree) Rollback(m Mark) {
	t.history.Restore(m.history)
	t.install(m.root)
	t.endLastInsert = m.endLastInsert
}

// CanUndo returns true if TryUndo would succeed.
func (t *Tree) CanUndo() bool {
	return t.history.CanUndo()
}

// CanRedo returns true if TryRedo would succeed.
func (t *Tree) CanRedo() bool {
	return t.history.CanRedo()
}

// ClearHistory discards all undo and redo history.
func (t *Tree) ClearHistory() {
	t.history.Clear()
	t.endLastInsert = SentinelOffset
}

// UndoCount returns the number of recorded undo states.
func (t *Tree) UndoCount() int {
	return t.history.UndoCount()
}

// RedoCount returns the number of recorded redo states.
func (t *Tree) RedoCount() int {
	return t.history.RedoCount()
}

// RestoreSnapshot makes the state captured by s current, recording the
// present state for undo. It reports false if s was taken from another tree.
func (t *Tree) RestoreSnapshot(s *ReferenceSnapshot) bool {
	if s == nil || s.buffers != t.buffers {
		return false
	}
	t.appendUndo(0)
	t.install(s.root)
	return true
}

// install swaps in a root from history.
func (t *Tree) install(root *node) {
	t.root = root
	t.endLastInsert = SentinelOffset
	t.computeMeta()
	t.verify()
}

// view returns a read-only view of the current state.
func (t *Tree) view() textView {
	return textView{root: t.root, buffers: t.buffers, meta: t.meta}
}

// Length returns the document length in bytes.
func (t *Tree) Length() Length {
	return t.meta.totalLength
}

// LineFeedCount returns the number of '\n' bytes in the document.
func (t *Tree) LineFeedCount() LFCount {
	return t.meta.totalLFCount
}

// LineCount returns the number of lines; an empty document has one.
func (t *Tree) LineCount() int {
	return t.view().LineCount()
}

// IsEmpty returns true if the document has no content.
func (t *Tree) IsEmpty() bool {
	return t.meta.totalLength == 0
}

// At returns the byte at offset, or false if offset is outside the document.
func (t *Tree) At(offset CharOffset) (byte, bool) {
	return t.view().At(offset)
}

// LineAt returns the line containing offset. Offsets past the end belong
// to the last line.
func (t *Tree) LineAt(offset CharOffset) Line {
	return t.view().LineAt(offset)
}

// LineContent returns the text of line without its line feed. It reports
// false for a line past LineCount.
func (t *Tree) LineContent(line Line) (string, bool) {
	return t.view().LineContent(line)
}

// LineContentCRLF returns the text of line with a trailing "\r\n" or "\n"
// removed and reports which one was found.
func (t *Tree) LineContentCRLF(line Line) (string, CRLFStatus, bool) {
	return t.view().LineContentCRLF(line)
}

// LineRange returns the offsets of line, excluding its line feed.
func (t *Tree) LineRange(line Line) LineRange {
	return t.view().LineRange(line)
}

// LineRangeCRLF returns the offsets of line, excluding a trailing "\r\n"
// or "\n".
func (t *Tree) LineRangeCRLF(line Line) LineRange {
	return t.view().LineRangeCRLF(line)
}

// LineRangeWithNewline returns the offsets of line including its terminator.
func (t *Tree) LineRangeWithNewline(line Line) LineRange {
	return t.view().LineRangeWithNewline(line)
}

// Text returns the whole document. Use sparingly for large documents.
func (t *Tree) Text() string {
	return t.view().Text()
}

// Slice returns the text in [first, last), clamped to the document.
func (t *Tree) Slice(first, last CharOffset) string {
	return t.view().Slice(first, last)
}

// PieceCount returns the number of pieces in the tree.
func (t *Tree) PieceCount() int {
	n := 0
	inorder(t.root, func(Piece) { n++ })
	return n
}
