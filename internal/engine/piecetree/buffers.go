package piecetree

import (
	"bytes"
	"sort"
	"sync/atomic"
)

// CharBuffer is one underlying buffer plus the table of offsets at which its
// lines start. The first entry is always 0.
type CharBuffer struct {
	data       []byte
	lineStarts []int
}

// newCharBuffer copies text into a fresh buffer and indexes its lines.
func newCharBuffer(text string) *CharBuffer {
	data := []byte(text)
	return &CharBuffer{
		data:       data,
		lineStarts: appendLineStarts([]int{0}, data, 0),
	}
}

// appendLineStarts scans data for '\n' and appends the offset following each
// one, shifted by base.
func appendLineStarts(starts []int, data []byte, base int) []int {
	pos := 0
	for {
		i := bytes.IndexByte(data[pos:], '\n')
		if i < 0 {
			return starts
		}
		pos += i + 1
		starts = append(starts, base+pos)
	}
}

// Len returns the byte length of the buffer.
func (b *CharBuffer) Len() int {
	return len(b.data)
}

// LineStart returns the offset of the i-th line start within the buffer.
func (b *CharBuffer) LineStart(i int) int {
	return b.lineStarts[i]
}

// endCursor returns the cursor one past the last byte of the buffer.
func (b *CharBuffer) endCursor() BufferCursor {
	last := len(b.lineStarts) - 1
	return BufferCursor{Line: last, Column: Column(len(b.data) - b.lineStarts[last])}
}

// offset converts a cursor to a byte offset within the buffer.
func (b *CharBuffer) offset(c BufferCursor) int {
	return b.lineStarts[c.Line] + int(c.Column)
}

// BufferCollection holds the original chunks and the mod buffer.
//
// Original buffers are written once at construction. The mod buffer only
// grows: each append publishes a longer view, and bytes inside any view that
// was ever published are never rewritten, so pieces keep pointing at valid
// text for their whole lifetime.
type BufferCollection struct {
	orig []*CharBuffer
	mod  atomic.Pointer[CharBuffer]
}

// NewBufferCollection creates a collection whose originals are the given
// chunks, in order. The mod buffer starts empty.
func NewBufferCollection(chunks []string) *BufferCollection {
	bc := &BufferCollection{orig: make([]*CharBuffer, 0, len(chunks))}
	for _, chunk := range chunks {
		bc.orig = append(bc.orig, newCharBuffer(chunk))
	}
	bc.mod.Store(&CharBuffer{lineStarts: []int{0}})
	return bc
}

// OriginalCount returns the number of original buffers.
func (bc *BufferCollection) OriginalCount() int {
	return len(bc.orig)
}

// BufferAt returns the buffer for index. ModBufferIndex returns the current
// view of the mod buffer.
func (bc *BufferCollection) BufferAt(index BufferIndex) *CharBuffer {
	if index == ModBufferIndex {
		return bc.mod.Load()
	}
	return bc.orig[index]
}

// BufferOffset converts a cursor in the given buffer to a byte offset
// within that buffer.
func (bc *BufferCollection) BufferOffset(index BufferIndex, c BufferCursor) CharOffset {
	return CharOffset(bc.BufferAt(index).offset(c))
}

// Append extends the mod buffer with text and returns the mod-buffer offset
// the text starts at together with the cursors bounding it.
func (bc *BufferCollection) Append(text string) (start int, first, last BufferCursor) {
	old := bc.mod.Load()
	first = old.endCursor()
	start = len(old.data)

	data := append(old.data, text...)
	next := &CharBuffer{
		data:       data,
		lineStarts: appendLineStarts(old.lineStarts, data[start:], start),
	}
	bc.mod.Store(next)
	return start, first, next.endCursor()
}

// clone returns a collection that owns a private copy of the mod buffer.
// Original buffers are immutable and are shared.
func (bc *BufferCollection) clone() *BufferCollection {
	mod := bc.mod.Load()
	cp := &BufferCollection{orig: bc.orig}
	cp.mod.Store(&CharBuffer{
		data:       append([]byte(nil), mod.data...),
		lineStarts: append([]int(nil), mod.lineStarts...),
	})
	return cp
}

// bytesOf returns the bytes a piece references.
func (bc *BufferCollection) bytesOf(p Piece) []byte {
	b := bc.BufferAt(p.Index)
	return b.data[b.offset(p.First):b.offset(p.Last)]
}

// bufferPosition converts an offset relative to the start of a piece into a
// cursor in the piece's buffer.
func (bc *BufferCollection) bufferPosition(p Piece, remainder Length) BufferCursor {
	b := bc.BufferAt(p.Index)
	offset := b.offset(p.First) + int(remainder)

	// Largest line start <= offset among the lines the piece spans.
	lo, hi := p.First.Line, p.Last.Line
	n := sort.Search(hi-lo+1, func(i int) bool {
		return b.lineStarts[lo+i] > offset
	})
	line := lo + n - 1
	return BufferCursor{Line: line, Column: Column(offset - b.lineStarts[line])}
}

// lineFeedCount counts the '\n' bytes in [first, last) of one buffer.
func lineFeedCount(first, last BufferCursor) LFCount {
	return LFCount(last.Line - first.Line)
}
