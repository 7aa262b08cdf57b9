package piecetree

import (
	"math/rand"
	"strings"
	"testing"
)

// mustCheck fails the test if the tree is inconsistent.
func mustCheck(t testing.TB, tree *Tree) {
	t.Helper()
	if err := tree.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

// allLines returns the content of every line of src without terminators.
func allLines(src interface {
	LineCount() int
	LineContent(Line) (string, bool)
}) []string {
	out := make([]string, 0, src.LineCount())
	for l := LineBeginning; int(l) <= src.LineCount(); l++ {
		s, _ := src.LineContent(l)
		out = append(out, s)
	}
	return out
}

// readForward reads up to n bytes from a forward walker started at offset.
func readForward(src Source, offset CharOffset, n int) string {
	w := NewTreeWalker(src, offset)
	var sb strings.Builder
	for i := 0; i < n; i++ {
		b, ok := w.Next()
		if !ok {
			break
		}
		sb.WriteByte(b)
	}
	return sb.String()
}

// readReverse reads up to n bytes from a reverse walker started at offset.
func readReverse(src Source, offset CharOffset, n int) string {
	w := NewReverseTreeWalker(src, offset)
	var sb strings.Builder
	for i := 0; i < n; i++ {
		b, ok := w.Next()
		if !ok {
			break
		}
		sb.WriteByte(b)
	}
	return sb.String()
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// randomText returns a short string that contains line feeds and the
// occasional carriage return.
func randomText(rng *rand.Rand, maxLen int) string {
	const alphabet = "abcdefgh\n\n\r xyz"
	n := 1 + rng.Intn(maxLen)
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(b)
}

// buildEdited returns a tree whose content is text but which is made of
// many pieces from both the original and the mod buffer.
func buildEdited(text string) *Tree {
	half := len(text) / 2
	var chunks []string
	for i := 0; i < half; i += 4 {
		chunks = append(chunks, text[i:min(i+4, half)])
	}
	tree := Build(chunks)

	// Inserting the tail back to front at one offset gives every chunk its
	// own mod-buffer piece.
	rest := text[half:]
	for i := len(rest); i > 0; i -= 3 {
		tree.Insert(CharOffset(half), rest[max(i-3, 0):i], SuppressHistoryNo)
	}
	return tree
}
