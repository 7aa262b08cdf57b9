package piecetree

import "fmt"

// textView is one immutable version of a document: a root together with the
// buffers its pieces address. The query surface shared by Tree and the
// snapshots lives here.
type textView struct {
	root    *node
	buffers *BufferCollection
	meta    bufferMeta
}

func (v textView) view() textView {
	return v
}

// accumulator returns the offset, relative to the start of p, of the
// start of the line following the lf-th line feed inside p (lf >= 1).
type accumulator func(bc *BufferCollection, p Piece, lf LFCount) Length

// accumulateValue measures up to and including the lf-th line feed of p.
func accumulateValue(bc *BufferCollection, p Piece, lf LFCount) Length {
	b := bc.BufferAt(p.Index)
	first := b.offset(p.First)
	return Length(b.lineStarts[p.First.Line+int(lf)] - first)
}

// accumulateValueNoLF measures up to but excluding the lf-th line feed of p.
func accumulateValueNoLF(bc *BufferCollection, p Piece, lf LFCount) Length {
	return accumulateValue(bc, p, lf) - 1
}

// lineStart descends to the piece holding the line feed that ends the line
// before line and returns the document offset acc computes for it. Lines
// past the last one resolve to the document length.
func (v textView) lineStart(acc accumulator, line Line) CharOffset {
	var offset CharOffset
	lf := LFCount(line - LineBeginning)
	n := v.root
	for n != nil {
		switch {
		case n.leftLFCount >= lf:
			n = n.left
		case n.leftLFCount+n.piece.NewlineCount >= lf:
			lf -= n.leftLFCount
			return offset.Extend(n.leftLength + acc(v.buffers, n.piece, lf))
		default:
			lf -= n.leftLFCount + n.piece.NewlineCount
			offset = offset.Extend(n.leftLength + n.piece.Length)
			n = n.right
		}
	}
	return offset
}

// mustLine panics unless line names an existing line.
func (v textView) mustLine(line Line) {
	if line <= LineIndexBeginning || int(line) > v.LineCount() {
		panic(fmt.Sprintf("piecetree: line %d out of range [1, %d]", line, v.LineCount()))
	}
}

// Length returns the document length in bytes.
func (v textView) Length() Length {
	return v.meta.totalLength
}

// LineCount returns the number of lines; an empty document has one.
func (v textView) LineCount() int {
	return int(v.meta.totalLFCount) + 1
}

// IsEmpty returns true if the document has no content.
func (v textView) IsEmpty() bool {
	return v.meta.totalLength == 0
}

// At returns the byte at offset, or false if offset is outside the document.
func (v textView) At(offset CharOffset) (byte, bool) {
	if offset < 0 || offset >= CharOffset(v.meta.totalLength) {
		return 0, false
	}
	pos := nodeAt(v.buffers, v.root, offset)
	b := v.buffers.BufferAt(pos.node.piece.Index)
	return b.data[b.offset(pos.node.piece.First)+int(pos.remainder)], true
}

// LineAt returns the line containing offset: one more than the number of
// line feeds before it. Offsets past the end belong to the last line.
func (v textView) LineAt(offset CharOffset) Line {
	if v.root == nil || offset <= 0 {
		return LineBeginning
	}
	return nodeAt(v.buffers, v.root, offset).line
}

// LineRange returns the offsets of line, excluding its line feed.
func (v textView) LineRange(line Line) LineRange {
	v.mustLine(line)
	return LineRange{
		First: v.lineStart(accumulateValue, line),
		Last:  v.lineStart(accumulateValueNoLF, line+1),
	}
}

// LineRangeCRLF returns the offsets of line, excluding a trailing "\r\n"
// or "\n".
func (v textView) LineRangeCRLF(line Line) LineRange {
	r := v.LineRange(line)
	if int(line) < v.LineCount() && r.Last > r.First {
		if b, _ := v.At(r.Last - 1); b == '\r' {
			r.Last--
		}
	}
	return r
}

// LineRangeWithNewline returns the offsets of line including its line feed,
// if it has one.
func (v textView) LineRangeWithNewline(line Line) LineRange {
	v.mustLine(line)
	return LineRange{
		First: v.lineStart(accumulateValue, line),
		Last:  v.lineStart(accumulateValue, line+1),
	}
}

// LineContent returns the text of line without its line feed. It reports
// false for a line past LineCount and panics for LineIndexBeginning.
func (v textView) LineContent(line Line) (string, bool) {
	if line <= LineIndexBeginning {
		panic(fmt.Sprintf("piecetree: line %d out of range", line))
	}
	if int(line) > v.LineCount() {
		return "", false
	}
	w := NewTreeWalker(v, v.lineStart(accumulateValue, line))
	var buf []byte
	for {
		b, ok := w.Next()
		if !ok || b == '\n' {
			return string(buf), true
		}
		buf = append(buf, b)
	}
}

// LineContentCRLF returns the text of line with its terminator removed. The
// status is CRLFComplete only when a "\r\n" pair ended the line.
func (v textView) LineContentCRLF(line Line) (string, CRLFStatus, bool) {
	if line <= LineIndexBeginning {
		panic(fmt.Sprintf("piecetree: line %d out of range", line))
	}
	if int(line) > v.LineCount() {
		return "", CRLFIncomplete, false
	}
	text, status := trimCRLF(NewTreeWalker(v, v.lineStart(accumulateValue, line)))
	return text, status, true
}

// trimCRLF consumes w up to and including the next '\n' and returns what
// came before it, dropping a '\r' that immediately precedes the '\n'.
func trimCRLF(w *TreeWalker) (string, CRLFStatus) {
	var buf []byte
	for {
		b, ok := w.Next()
		if !ok {
			return string(buf), CRLFIncomplete
		}
		if b == '\n' {
			if n := len(buf); n > 0 && buf[n-1] == '\r' {
				return string(buf[:n-1]), CRLFComplete
			}
			return string(buf), CRLFIncomplete
		}
		buf = append(buf, b)
	}
}

// Text returns the whole document.
func (v textView) Text() string {
	return v.Slice(0, CharOffset(v.meta.totalLength))
}

// Slice returns the text in [first, last), clamped to the document.
func (v textView) Slice(first, last CharOffset) string {
	end := CharOffset(v.meta.totalLength)
	first = max(first, 0)
	last = min(last, end)
	if first >= last {
		return ""
	}
	buf := make([]byte, 0, int(last-first))
	return string(v.appendRange(buf, v.root, 0, first, last))
}

// appendRange appends the bytes of n's subtree that fall in [first, last).
// base is the document offset the subtree starts at.
func (v textView) appendRange(dst []byte, n *node, base, first, last CharOffset) []byte {
	if n == nil {
		return dst
	}
	start := base.Extend(n.leftLength)
	end := start.Extend(n.piece.Length)
	if first < start {
		dst = v.appendRange(dst, n.left, base, first, last)
	}
	if first < end && last > start {
		text := v.buffers.bytesOf(n.piece)
		lo := max(first, start) - start
		hi := min(last, end) - start
		dst = append(dst, text[lo:hi]...)
	}
	if last > end {
		dst = v.appendRange(dst, n.right, end, first, last)
	}
	return dst
}
