package piecetree

import (
	"bytes"
	"fmt"
)

// checkTree walks the tree rooted at root and verifies the red-black and
// aggregate invariants, along with each piece's cached length and newline
// count against its buffer.
func checkTree(bc *BufferCollection, root *node) error {
	if root == nil {
		return nil
	}
	if root.color != black {
		return fmt.Errorf("%w: root is red", ErrInvariant)
	}
	_, _, _, err := checkNode(bc, root, 0)
	return err
}

func checkNode(bc *BufferCollection, n *node, depth int) (int, Length, LFCount, error) {
	if n == nil {
		return 1, 0, 0, nil
	}
	if n.color == red && (isRed(n.left) || isRed(n.right)) {
		return 0, 0, 0, fmt.Errorf("%w: red node at depth %d has a red child", ErrInvariant, depth)
	}

	lbh, llen, llf, err := checkNode(bc, n.left, depth+1)
	if err != nil {
		return 0, 0, 0, err
	}
	rbh, rlen, rlf, err := checkNode(bc, n.right, depth+1)
	if err != nil {
		return 0, 0, 0, err
	}
	if lbh != rbh {
		return 0, 0, 0, fmt.Errorf("%w: black height %d on the left, %d on the right at depth %d",
			ErrInvariant, lbh, rbh, depth)
	}
	if n.leftLength != llen {
		return 0, 0, 0, fmt.Errorf("%w: left length %d, subtree holds %d at depth %d",
			ErrInvariant, n.leftLength, llen, depth)
	}
	if n.leftLFCount != llf {
		return 0, 0, 0, fmt.Errorf("%w: left line feeds %d, subtree holds %d at depth %d",
			ErrInvariant, n.leftLFCount, llf, depth)
	}
	if err := checkPiece(bc, n.piece); err != nil {
		return 0, 0, 0, fmt.Errorf("%w at depth %d", err, depth)
	}

	bh := lbh
	if n.color == black {
		bh++
	}
	return bh, llen + n.piece.Length + rlen, llf + n.piece.NewlineCount + rlf, nil
}

func checkPiece(bc *BufferCollection, p Piece) error {
	if p.Length <= 0 {
		return fmt.Errorf("%w: empty piece", ErrInvariant)
	}
	text := bc.bytesOf(p)
	if Length(len(text)) != p.Length {
		return fmt.Errorf("%w: piece length %d, range holds %d", ErrInvariant, p.Length, len(text))
	}
	if lf := LFCount(bytes.Count(text, []byte{'\n'})); lf != p.NewlineCount {
		return fmt.Errorf("%w: piece newline count %d, range holds %d", ErrInvariant, p.NewlineCount, lf)
	}
	return nil
}
