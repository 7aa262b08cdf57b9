package piecetree

import (
	"math/rand"
	"strings"
	"testing"
)

// unitPieces returns a collection with one original buffer and a function
// that makes the one-byte piece covering byte i of it.
func unitPieces(n int) (*BufferCollection, func(i int) Piece) {
	text := strings.Repeat("abcdefghijklmnopqrstuvwxyz", n/26+1)[:n]
	bc := NewBufferCollection([]string{text})
	return bc, func(i int) Piece {
		return Piece{
			Index:  0,
			First:  BufferCursor{Column: Column(i)},
			Last:   BufferCursor{Column: Column(i + 1)},
			Length: 1,
		}
	}
}

func pieceOrder(root *node) []int {
	var out []int
	inorder(root, func(p Piece) { out = append(out, int(p.First.Column)) })
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRBTreeRandomInsertRemove(t *testing.T) {
	const n = 500
	rng := rand.New(rand.NewSource(1))
	bc, piece := unitPieces(n)

	var root *node
	var model []int
	for i := 0; i < n; i++ {
		at := rng.Intn(len(model) + 1)
		root = insertPiece(root, piece(i), CharOffset(at))
		model = append(model[:at], append([]int{i}, model[at:]...)...)

		if err := checkTree(bc, root); err != nil {
			t.Fatalf("after insert %d: %v", i, err)
		}
	}
	if !equalInts(pieceOrder(root), model) {
		t.Fatal("piece order differs from model after inserts")
	}
	if treeLength(root) != n {
		t.Errorf("treeLength() = %d, want %d", treeLength(root), n)
	}

	for len(model) > 0 {
		at := rng.Intn(len(model))
		root = removePiece(root, CharOffset(at))
		model = append(model[:at], model[at+1:]...)

		if err := checkTree(bc, root); err != nil {
			t.Fatalf("after remove with %d left: %v", len(model), err)
		}
		if !equalInts(pieceOrder(root), model) {
			t.Fatalf("piece order differs from model with %d left", len(model))
		}
	}
	if root != nil {
		t.Error("tree not empty after removing every piece")
	}
}

func TestRBTreePersistence(t *testing.T) {
	bc, piece := unitPieces(64)

	var versions []*node
	var root *node
	for i := 0; i < 64; i++ {
		root = insertPiece(root, piece(i), CharOffset(i))
		versions = append(versions, root)
	}
	for i := 0; i < 32; i++ {
		root = removePiece(root, 0)
	}

	// Every earlier root still describes its own version.
	for i, v := range versions {
		if got := treeLength(v); got != Length(i+1) {
			t.Errorf("version %d: length %d", i, got)
		}
		if err := checkTree(bc, v); err != nil {
			t.Errorf("version %d: %v", i, err)
		}
	}
}

func TestRBTreeSequentialInsertStaysBalanced(t *testing.T) {
	const n = 1 << 12
	_, piece := unitPieces(n)

	var root *node
	for i := 0; i < n; i++ {
		root = insertPiece(root, piece(i), CharOffset(i))
	}

	depth := maxDepth(root)
	// A red-black tree is at most twice as deep as a perfect one.
	if depth > 2*12+2 {
		t.Errorf("depth %d for %d nodes", depth, n)
	}
}

func maxDepth(n *node) int {
	if n == nil {
		return 0
	}
	return 1 + max(maxDepth(n.left), maxDepth(n.right))
}

func TestRemovePiecePanics(t *testing.T) {
	tests := []struct {
		name string
		root func() *node
		at   CharOffset
	}{
		{"empty tree", func() *node { return nil }, 0},
		{"past end", func() *node {
			_, piece := unitPieces(1)
			return insertPiece(nil, piece(0), 0)
		}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("removePiece did not panic")
				}
			}()
			removePiece(tt.root(), tt.at)
		})
	}
}

func TestSub1Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("sub1 of a red node did not panic")
		}
	}()
	sub1(&node{color: red})
}

func TestNodeAt(t *testing.T) {
	tree := Build([]string{"ab\n", "cd", "\nef"})

	tests := []struct {
		offset    CharOffset
		start     CharOffset
		remainder Length
		line      Line
	}{
		{0, 0, 0, 1},
		{2, 0, 2, 1},
		{3, 3, 0, 2},
		{4, 3, 1, 2},
		{5, 5, 0, 2},
		{6, 5, 1, 3},
		{8, 5, 3, 3},
		{50, 5, 3, 3},
	}

	for _, tt := range tests {
		pos := nodeAt(tree.buffers, tree.root, tt.offset)
		if pos.startOffset != tt.start || pos.remainder != tt.remainder || pos.line != tt.line {
			t.Errorf("nodeAt(%d) = start %d remainder %d line %d; want %d %d %d",
				tt.offset, pos.startOffset, pos.remainder, pos.line, tt.start, tt.remainder, tt.line)
		}
	}
}
