package piecetree

import "math"

// CharOffset is an absolute position in the document, counted in bytes from 0.
type CharOffset int

// SentinelOffset stands for "none" or "end". Edits clamp it to the end of the
// document.
const SentinelOffset CharOffset = math.MaxInt

// Length is a non-negative count of bytes.
type Length int

// Line is a 1-based line number.
type Line int

const (
	// LineIndexBeginning is the virtual position before the first line.
	LineIndexBeginning Line = 0

	// LineBeginning is the first line of the document.
	LineBeginning Line = 1
)

// Column is a 0-based byte column within one buffer line.
type Column int

// LFCount is a count of line-feed characters.
type LFCount int

// Extend returns the offset moved forward by n.
func (o CharOffset) Extend(n Length) CharOffset {
	return o + CharOffset(n)
}

// Retract returns the offset moved backward by n, stopping at 0.
func (o CharOffset) Retract(n Length) CharOffset {
	if CharOffset(n) > o {
		return 0
	}
	return o - CharOffset(n)
}

// Distance returns the length between o and a later offset.
func (o CharOffset) Distance(later CharOffset) Length {
	if later < o {
		return 0
	}
	return Length(later - o)
}

// BufferIndex identifies one buffer in a BufferCollection.
type BufferIndex int

// ModBufferIndex addresses the append-only mod buffer.
const ModBufferIndex BufferIndex = -1

// BufferCursor is a position relative to one buffer's own line-start table.
type BufferCursor struct {
	Line   int    // index into the buffer's line starts
	Column Column // bytes past that line start
}

// Piece names the half-open range [First, Last) of one buffer together with
// its cached length and line-feed count.
type Piece struct {
	Index        BufferIndex
	First        BufferCursor
	Last         BufferCursor
	Length       Length
	NewlineCount LFCount
}

// LineRange is a half-open range of document offsets.
type LineRange struct {
	First CharOffset
	Last  CharOffset
}

// Len returns the number of bytes covered by the range.
func (r LineRange) Len() Length {
	return r.First.Distance(r.Last)
}

// SuppressHistory controls whether an edit records an undo entry.
type SuppressHistory bool

const (
	// SuppressHistoryNo records the pre-edit state for undo, unless the
	// edit extends the previous insert.
	SuppressHistoryNo SuppressHistory = false
	// SuppressHistoryYes records nothing and discards any redo states.
	SuppressHistoryYes SuppressHistory = true
)

// CRLFStatus reports how a line's terminator was trimmed.
type CRLFStatus uint8

const (
	// CRLFIncomplete means no "\r\n" pair ended the line: either a lone "\n"
	// was dropped or the line ran to the end of the document.
	CRLFIncomplete CRLFStatus = iota

	// CRLFComplete means a "\r\n" pair ended the line and both were dropped.
	CRLFComplete
)

// String returns the name of the status.
func (s CRLFStatus) String() string {
	if s == CRLFComplete {
		return "complete"
	}
	return "incomplete"
}

// bufferMeta caches document-wide aggregates for a root.
type bufferMeta struct {
	totalLength  Length
	totalLFCount LFCount
}
