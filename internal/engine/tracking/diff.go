package tracking

import (
	"strconv"
	"strings"

	"github.com/dshills/piecetree/internal/engine/piecetree"
)

// DefaultMaxDiffLines is the largest changed region, in lines per side,
// that is diffed with the Myers algorithm.
const DefaultMaxDiffLines = 10000

// DiffOptions configures diff computation.
type DiffOptions struct {
	// ContextLines is the number of unchanged lines kept around each change.
	ContextLines int

	// IgnoreCase performs case-insensitive comparison.
	IgnoreCase bool

	// IgnoreWhitespace ignores leading/trailing whitespace on each line.
	IgnoreWhitespace bool

	// MaxLines bounds the Myers search. A larger changed region is reported
	// as a whole-region replacement. Zero means DefaultMaxDiffLines.
	MaxLines int
}

// DefaultDiffOptions returns default diff options.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{
		ContextLines: 3,
		MaxLines:     DefaultMaxDiffLines,
	}
}

// EditKind is the kind of one line of a diff.
type EditKind uint8

const (
	// EditEqual is a line present in both versions.
	EditEqual EditKind = iota

	// EditInsert is a line only in the new version.
	EditInsert

	// EditDelete is a line only in the old version.
	EditDelete
)

// String returns a human-readable representation of the edit kind.
func (k EditKind) String() string {
	switch k {
	case EditEqual:
		return "equal"
	case EditInsert:
		return "insert"
	case EditDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Edit is one line of a diff. OldIndex and NewIndex are the 0-based
// positions in each version at which the line sits; for an insert OldIndex
// is where it would go in the old version, and likewise for a delete.
type Edit struct {
	Kind     EditKind
	OldIndex int
	NewIndex int
	Text     string
}

// Hunk is a run of edits with surrounding context. Starts are 1-based line
// numbers in unified diff convention.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Edits    []Edit
}

// DiffResult contains the complete result of a diff operation.
type DiffResult struct {
	Hunks        []Hunk
	OldLineCount int
	NewLineCount int
}

// HasChanges returns true if there are any differences.
func (r DiffResult) HasChanges() bool {
	return len(r.Hunks) > 0
}

// InsertedLines returns the total number of inserted lines.
func (r DiffResult) InsertedLines() int {
	return r.count(EditInsert)
}

// DeletedLines returns the total number of deleted lines.
func (r DiffResult) DeletedLines() int {
	return r.count(EditDelete)
}

func (r DiffResult) count(kind EditKind) int {
	n := 0
	for _, h := range r.Hunks {
		for _, e := range h.Edits {
			if e.Kind == kind {
				n++
			}
		}
	}
	return n
}

// Document is the read surface a diff needs. *piecetree.Tree and both
// snapshot types satisfy it.
type Document interface {
	IsEmpty() bool
	LineCount() int
	LineContent(piecetree.Line) (string, bool)
}

// Diff computes a line diff between two documents.
func Diff(oldDoc, newDoc Document, opts DiffOptions) DiffResult {
	return diffLines(documentLines(oldDoc), documentLines(newDoc), opts)
}

// DiffStrings computes a line diff between two strings.
func DiffStrings(oldText, newText string, opts DiffOptions) DiffResult {
	return diffLines(splitLines(oldText), splitLines(newText), opts)
}

// documentLines reads every line of d. An empty document has no lines.
func documentLines(d Document) []string {
	if d.IsEmpty() {
		return nil
	}
	lines := make([]string, 0, d.LineCount())
	for l := piecetree.LineBeginning; int(l) <= d.LineCount(); l++ {
		s, _ := d.LineContent(l)
		lines = append(lines, s)
	}
	return lines
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func diffLines(a, b []string, opts DiffOptions) DiffResult {
	eq := lineComparer(opts)

	// Common prefix and suffix never need searching.
	prefix := 0
	for prefix < len(a) && prefix < len(b) && eq(a[prefix], b[prefix]) {
		prefix++
	}
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix &&
		eq(a[len(a)-1-suffix], b[len(b)-1-suffix]) {
		suffix++
	}

	edits := make([]Edit, 0, len(a)+len(b))
	for i := 0; i < prefix; i++ {
		edits = append(edits, Edit{Kind: EditEqual, OldIndex: i, NewIndex: i, Text: a[i]})
	}

	midA := a[prefix : len(a)-suffix]
	midB := b[prefix : len(b)-suffix]
	maxLines := opts.MaxLines
	if maxLines <= 0 {
		maxLines = DefaultMaxDiffLines
	}
	if len(midA) > maxLines || len(midB) > maxLines {
		edits = appendReplace(edits, midA, midB, prefix)
	} else {
		edits = appendMyers(edits, midA, midB, prefix, eq)
	}

	oldSuffix, newSuffix := len(a)-suffix, len(b)-suffix
	for i := 0; i < suffix; i++ {
		edits = append(edits, Edit{
			Kind:     EditEqual,
			OldIndex: oldSuffix + i,
			NewIndex: newSuffix + i,
			Text:     a[oldSuffix+i],
		})
	}

	return DiffResult{
		Hunks:        buildHunks(edits, max(opts.ContextLines, 0)),
		OldLineCount: len(a),
		NewLineCount: len(b),
	}
}

// lineComparer returns the line equality the options ask for.
func lineComparer(opts DiffOptions) func(x, y string) bool {
	return func(x, y string) bool {
		if opts.IgnoreWhitespace {
			x, y = strings.TrimSpace(x), strings.TrimSpace(y)
		}
		if opts.IgnoreCase {
			return strings.EqualFold(x, y)
		}
		return x == y
	}
}

// appendReplace reports every line of a as deleted and every line of b as
// inserted.
func appendReplace(edits []Edit, a, b []string, base int) []Edit {
	for i, s := range a {
		edits = append(edits, Edit{Kind: EditDelete, OldIndex: base + i, NewIndex: base, Text: s})
	}
	for j, s := range b {
		edits = append(edits, Edit{Kind: EditInsert, OldIndex: base + len(a), NewIndex: base + j, Text: s})
	}
	return edits
}

// appendMyers appends a shortest edit script from a to b.
func appendMyers(edits []Edit, a, b []string, base int, eq func(x, y string) bool) []Edit {
	n, m := len(a), len(b)
	if n == 0 && m == 0 {
		return edits
	}

	maxD := n + m
	offset := maxD + 1
	v := make([]int, 2*maxD+3)

	// trace[d] is v as it stood before round d.
	var trace [][]int
	final := -1
search:
	for d := 0; d <= maxD; d++ {
		trace = append(trace, append([]int(nil), v...))
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k
			for x < n && y < m && eq(a[x], b[y]) {
				x++
				y++
			}
			v[offset+k] = x
			if x >= n && y >= m {
				final = d
				break search
			}
		}
	}

	// Walk back from (n, m), collecting edits in reverse.
	var rev []Edit
	x, y := n, m
	for d := final; d > 0; d-- {
		pv := trace[d]
		k := x - y
		var prevK int
		if k == -d || (k != d && pv[offset+k-1] < pv[offset+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := pv[offset+prevK]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			rev = append(rev, Edit{Kind: EditEqual, OldIndex: base + x, NewIndex: base + y, Text: a[x]})
		}
		if x == prevX {
			y--
			rev = append(rev, Edit{Kind: EditInsert, OldIndex: base + x, NewIndex: base + y, Text: b[y]})
		} else {
			x--
			rev = append(rev, Edit{Kind: EditDelete, OldIndex: base + x, NewIndex: base + y, Text: a[x]})
		}
	}
	for x > 0 && y > 0 {
		x--
		y--
		rev = append(rev, Edit{Kind: EditEqual, OldIndex: base + x, NewIndex: base + y, Text: a[x]})
	}

	for i := len(rev) - 1; i >= 0; i-- {
		edits = append(edits, rev[i])
	}
	return edits
}

// buildHunks groups changed edits with up to context equal lines on each
// side. Changes separated by more than 2*context equal lines get separate
// hunks.
func buildHunks(edits []Edit, context int) []Hunk {
	var hunks []Hunk
	i := 0
	for i < len(edits) {
		if edits[i].Kind == EditEqual {
			i++
			continue
		}

		start := max(i-context, 0)
		end := i + 1 // one past the last change in this hunk
		for j := i + 1; j < len(edits); j++ {
			if edits[j].Kind != EditEqual {
				end = j + 1
				continue
			}
			if j-end+1 > 2*context {
				break
			}
		}
		stop := min(end+context, len(edits))

		hunks = append(hunks, newHunk(edits[start:stop]))
		i = stop
	}
	return hunks
}

func newHunk(edits []Edit) Hunk {
	h := Hunk{Edits: edits}
	for _, e := range edits {
		if e.Kind != EditInsert {
			h.OldCount++
		}
		if e.Kind != EditDelete {
			h.NewCount++
		}
	}

	// An empty side starts at the line before the change.
	h.OldStart = edits[0].OldIndex
	if h.OldCount > 0 {
		h.OldStart++
	}
	h.NewStart = edits[0].NewIndex
	if h.NewCount > 0 {
		h.NewStart++
	}
	return h
}

// UnifiedDiff returns the diff in unified diff format.
func UnifiedDiff(result DiffResult, oldName, newName string) string {
	if !result.HasChanges() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("--- ")
	sb.WriteString(oldName)
	sb.WriteString("\n+++ ")
	sb.WriteString(newName)
	sb.WriteString("\n")

	for _, h := range result.Hunks {
		sb.WriteString("@@ -")
		sb.WriteString(strconv.Itoa(h.OldStart))
		sb.WriteString(",")
		sb.WriteString(strconv.Itoa(h.OldCount))
		sb.WriteString(" +")
		sb.WriteString(strconv.Itoa(h.NewStart))
		sb.WriteString(",")
		sb.WriteString(strconv.Itoa(h.NewCount))
		sb.WriteString(" @@\n")

		for _, e := range h.Edits {
			switch e.Kind {
			case EditInsert:
				sb.WriteByte('+')
			case EditDelete:
				sb.WriteByte('-')
			default:
				sb.WriteByte(' ')
			}
			sb.WriteString(e.Text)
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}
