package piecetree

// Source is a readable version of a document: a *Tree, *OwningSnapshot or
// *ReferenceSnapshot.
type Source interface {
	view() textView
}

// visit names the part of a node a walker handles next.
type visit uint8

const (
	visitLeft visit = iota
	visitCenter
	visitRight
)

type walkStep struct {
	node *node
	next visit
}

// TreeWalker reads a document byte by byte from a start offset towards the
// end. It holds the version it was created on; later edits to a Tree do
// not affect it.
type TreeWalker struct {
	buffers *BufferCollection
	root    *node
	total   Length
	stack   []walkStep
	span    []byte // rest of the current piece
	offset  CharOffset
}

// NewTreeWalker returns a walker positioned at offset.
func NewTreeWalker(src Source, offset CharOffset) *TreeWalker {
	v := src.view()
	w := &TreeWalker{
		buffers: v.buffers,
		root:    v.root,
		total:   v.meta.totalLength,
	}
	w.Seek(offset)
	return w
}

// Seek moves the walker to offset, clamped to the document.
func (w *TreeWalker) Seek(offset CharOffset) {
	offset = clampTo(offset, w.total)
	w.offset = offset
	w.stack = w.stack[:0]
	w.span = nil

	n := w.root
	off := offset
	for n != nil {
		left := CharOffset(n.leftLength)
		switch {
		case off < left:
			w.stack = append(w.stack, walkStep{n, visitCenter})
			n = n.left
		case off < left.Extend(n.piece.Length):
			w.span = w.buffers.bytesOf(n.piece)[off-left:]
			w.stack = append(w.stack, walkStep{n, visitRight})
			return
		default:
			off -= left.Extend(n.piece.Length)
			n = n.right
		}
	}
}

// populate loads the next non-empty piece into span.
func (w *TreeWalker) populate() bool {
	for len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]
		n := top.node
		switch top.next {
		case visitLeft:
			top.next = visitCenter
			if n.left != nil {
				w.stack = append(w.stack, walkStep{n.left, visitLeft})
			}
		case visitCenter:
			top.next = visitRight
			w.span = w.buffers.bytesOf(n.piece)
			if len(w.span) > 0 {
				return true
			}
		case visitRight:
			w.stack = w.stack[:len(w.stack)-1]
			if n.right != nil {
				w.stack = append(w.stack, walkStep{n.right, visitLeft})
			}
		}
	}
	return false
}

// Next returns the byte at the walker's offset and advances past it. It
// returns false once the end is reached.
func (w *TreeWalker) Next() (byte, bool) {
	if len(w.span) == 0 && !w.populate() {
		return 0, false
	}
	b := w.span[0]
	w.span = w.span[1:]
	w.offset++
	return b, true
}

// Current returns the byte Next would return without advancing.
func (w *TreeWalker) Current() (byte, bool) {
	if len(w.span) == 0 && !w.populate() {
		return 0, false
	}
	return w.span[0], true
}

// Offset returns the offset of the next byte to be read.
func (w *TreeWalker) Offset() CharOffset {
	return w.offset
}

// Remaining returns the number of bytes left to read.
func (w *TreeWalker) Remaining() Length {
	return w.offset.Distance(CharOffset(w.total))
}

// Exhausted returns true if no bytes are left.
func (w *TreeWalker) Exhausted() bool {
	return w.Remaining() == 0
}

// ReverseTreeWalker reads a document towards its start. Positioned at
// offset, the first byte it returns is the one at offset-1, so forward and
// reverse walkers started at the same offset cover opposite sides of it.
type ReverseTreeWalker struct {
	buffers *BufferCollection
	root    *node
	total   Length
	stack   []walkStep
	span    []byte // unread head of the current piece
	offset  CharOffset
}

// NewReverseTreeWalker returns a reverse walker positioned at offset.
func NewReverseTreeWalker(src Source, offset CharOffset) *ReverseTreeWalker {
	v := src.view()
	w := &ReverseTreeWalker{
		buffers: v.buffers,
		root:    v.root,
		total:   v.meta.totalLength,
	}
	w.Seek(offset)
	return w
}

// Seek moves the walker to offset, clamped to the document.
func (w *ReverseTreeWalker) Seek(offset CharOffset) {
	offset = clampTo(offset, w.total)
	w.offset = offset
	w.stack = w.stack[:0]
	w.span = nil

	n := w.root
	off := offset
	for n != nil {
		left := CharOffset(n.leftLength)
		switch {
		case off <= left:
			n = n.left
		case off <= left.Extend(n.piece.Length):
			w.span = w.buffers.bytesOf(n.piece)[:off-left]
			w.stack = append(w.stack, walkStep{n, visitLeft})
			return
		default:
			w.stack = append(w.stack, walkStep{n, visitCenter})
			off -= left.Extend(n.piece.Length)
			n = n.right
		}
	}
}

// populate loads the previous non-empty piece into span.
func (w *ReverseTreeWalker) populate() bool {
	for len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]
		n := top.node
		switch top.next {
		case visitRight:
			top.next = visitCenter
			if n.right != nil {
				w.stack = append(w.stack, walkStep{n.right, visitRight})
			}
		case visitCenter:
			top.next = visitLeft
			w.span = w.buffers.bytesOf(n.piece)
			if len(w.span) > 0 {
				return true
			}
		case visitLeft:
			w.stack = w.stack[:len(w.stack)-1]
			if n.left != nil {
				w.stack = append(w.stack, walkStep{n.left, visitRight})
			}
		}
	}
	return false
}

// Next returns the byte before the walker's offset and moves back over it.
// It returns false once the start is reached.
func (w *ReverseTreeWalker) Next() (byte, bool) {
	if len(w.span) == 0 && !w.populate() {
		return 0, false
	}
	last := len(w.span) - 1
	b := w.span[last]
	w.span = w.span[:last]
	w.offset--
	return b, true
}

// Current returns the byte Next would return without moving.
func (w *ReverseTreeWalker) Current() (byte, bool) {
	if len(w.span) == 0 && !w.populate() {
		return 0, false
	}
	return w.span[len(w.span)-1], true
}

// Offset returns the walker's position; the next byte read is at Offset()-1.
func (w *ReverseTreeWalker) Offset() CharOffset {
	return w.offset
}

// Remaining returns the number of bytes left before the start.
func (w *ReverseTreeWalker) Remaining() Length {
	return Length(w.offset)
}

// Exhausted returns true if no bytes are left.
func (w *ReverseTreeWalker) Exhausted() bool {
	return w.offset == 0
}

func clampTo(offset CharOffset, total Length) CharOffset {
	if offset < 0 {
		return 0
	}
	return min(offset, CharOffset(total))
}
