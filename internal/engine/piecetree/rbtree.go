package piecetree

// color is the color of a tree node.
type color uint8

const (
	red color = iota
	black
)

// node is one immutable node of the augmented red-black tree. A nil *node is
// the empty tree.
//
// leftLength and leftLFCount summarize the left subtree and are fixed when the
// node is built. Nothing writes to a node once it is linked into a parent; any
// structural change builds replacement nodes.
type node struct {
	color       color
	left        *node
	right       *node
	piece       Piece
	leftLength  Length
	leftLFCount LFCount
}

// newNode builds a node and computes its left-subtree aggregates.
func newNode(c color, left *node, p Piece, right *node) *node {
	return &node{
		color:       c,
		left:        left,
		right:       right,
		piece:       p,
		leftLength:  treeLength(left),
		leftLFCount: treeLFCount(left),
	}
}

// treeLength sums the piece lengths of a subtree by walking its right spine.
func treeLength(n *node) Length {
	var total Length
	for n != nil {
		total += n.leftLength + n.piece.Length
		n = n.right
	}
	return total
}

// treeLFCount sums the newline counts of a subtree by walking its right spine.
func treeLFCount(n *node) LFCount {
	var total LFCount
	for n != nil {
		total += n.leftLFCount + n.piece.NewlineCount
		n = n.right
	}
	return total
}

func isRed(n *node) bool {
	return n != nil && n.color == red
}

func isBlack(n *node) bool {
	return n != nil && n.color == black
}

// paint returns n with color c. Repainting keeps the children, so the
// aggregates carry over unchanged.
func paint(n *node, c color) *node {
	if n == nil || n.color == c {
		return n
	}
	cp := *n
	cp.color = c
	return &cp
}

// sub1 lightens a black node to red, taking one black out of its height.
func sub1(n *node) *node {
	if !isBlack(n) {
		panic("piecetree: invariant violation: sub1 of non-black node")
	}
	return paint(n, red)
}

// insertPiece returns a new root with p inserted so that it starts at the
// document offset at. An offset inside an existing piece is not a valid
// target; callers split the piece first.
func insertPiece(root *node, p Piece, at CharOffset) *node {
	return paint(ins(root, p, at, 0), black)
}

func ins(n *node, p Piece, at, total CharOffset) *node {
	if n == nil {
		return newNode(red, nil, p, nil)
	}
	end := total.Extend(n.leftLength + n.piece.Length)
	if at < end {
		left := ins(n.left, p, at, total)
		if n.color == black {
			return balance(left, n.piece, n.right)
		}
		return newNode(red, left, n.piece, n.right)
	}
	right := ins(n.right, p, at, end)
	if n.color == black {
		return balance(n.left, n.piece, right)
	}
	return newNode(red, n.left, n.piece, right)
}

// balance builds a black-rooted subtree from l, p, r, lifting any red-red
// pair found just below it. The five shapes are:
//
//	both children red      -> red root, both children repainted black
//	left red, left-left    -> rotate right
//	left red, left-right   -> double rotation
//	right red, right-right -> rotate left
//	right red, right-left  -> double rotation
func balance(l *node, p Piece, r *node) *node {
	switch {
	case isRed(l) && isRed(r):
		return newNode(red, paint(l, black), p, paint(r, black))
	case isRed(l) && isRed(l.left):
		return newNode(red,
			paint(l.left, black),
			l.piece,
			newNode(black, l.right, p, r))
	case isRed(l) && isRed(l.right):
		return newNode(red,
			newNode(black, l.left, l.piece, l.right.left),
			l.right.piece,
			newNode(black, l.right.right, p, r))
	case isRed(r) && isRed(r.right):
		return newNode(red,
			newNode(black, l, p, r.left),
			r.piece,
			paint(r.right, black))
	case isRed(r) && isRed(r.left):
		return newNode(red,
			newNode(black, l, p, r.left.left),
			r.left.piece,
			newNode(black, r.left.right, r.piece, r.right))
	}
	return newNode(black, l, p, r)
}

// removePiece returns a new root without the piece whose span contains at.
// Removing from an empty tree, or at an offset past the end, is a caller
// bug and panics.
func removePiece(root *node, at CharOffset) *node {
	if root == nil {
		panic("piecetree: remove from empty tree")
	}
	if at < 0 || at >= CharOffset(treeLength(root)) {
		panic("piecetree: remove offset out of range")
	}
	return paint(del(root, at, 0), black)
}

// del removes the piece containing at. When the subtree rooted at a black
// node loses the piece, the result is one black short ("double black") and
// the caller repairs it through balanceLeft or balanceRight.
func del(n *node, at, total CharOffset) *node {
	if n == nil {
		return nil
	}
	start := total.Extend(n.leftLength)
	end := start.Extend(n.piece.Length)
	switch {
	case at < start:
		if isBlack(n.left) {
			return balanceLeft(del(n.left, at, total), n.piece, n.right)
		}
		return newNode(red, del(n.left, at, total), n.piece, n.right)
	case at >= end:
		if isBlack(n.right) {
			return balanceRight(n.left, n.piece, del(n.right, at, end))
		}
		return newNode(red, n.left, n.piece, del(n.right, at, end))
	}
	return fuse(n.left, n.right)
}

// balanceLeft repairs a node whose left subtree l is one black short.
func balanceLeft(l *node, p Piece, r *node) *node {
	switch {
	case isRed(l):
		return newNode(red, paint(l, black), p, r)
	case isBlack(r):
		return balance(l, p, paint(r, red))
	case isRed(r) && isBlack(r.left):
		return newNode(red,
			newNode(black, l, p, r.left.left),
			r.left.piece,
			balance(r.left.right, r.piece, sub1(r.right)))
	}
	panic("piecetree: invariant violation in balanceLeft")
}

// balanceRight repairs a node whose right subtree r is one black short.
func balanceRight(l *node, p Piece, r *node) *node {
	switch {
	case isRed(r):
		return newNode(red, l, p, paint(r, black))
	case isBlack(l):
		return balance(paint(l, red), p, r)
	case isRed(l) && isBlack(l.right):
		return newNode(red,
			balance(sub1(l.left), l.piece, l.right.left),
			l.right.piece,
			newNode(black, l.right.right, p, r))
	}
	panic("piecetree: invariant violation in balanceRight")
}

// fuse joins two subtrees that were the children of a removed node. Every
// piece of l precedes every piece of r, and both have the same black height.
func fuse(l, r *node) *node {
	if l == nil {
		return r
	}
	if r == nil {
		return l
	}
	switch {
	case isRed(l) && isRed(r):
		m := fuse(l.right, r.left)
		if isRed(m) {
			return newNode(red,
				newNode(red, l.left, l.piece, m.left),
				m.piece,
				newNode(red, m.right, r.piece, r.right))
		}
		return newNode(red, l.left, l.piece, newNode(red, m, r.piece, r.right))
	case isBlack(l) && isBlack(r):
		m := fuse(l.right, r.left)
		if isRed(m) {
			return newNode(red,
				newNode(black, l.left, l.piece, m.left),
				m.piece,
				newNode(black, m.right, r.piece, r.right))
		}
		return balanceLeft(l.left, l.piece, newNode(black, m, r.piece, r.right))
	case isRed(r):
		// black / red
		return newNode(red, fuse(l, r.left), r.piece, r.right)
	}
	// red / black
	return newNode(red, l.left, l.piece, fuse(l.right, r))
}

// nodePosition locates an offset inside the tree.
type nodePosition struct {
	node        *node
	remainder   Length     // offset relative to the start of node's piece
	startOffset CharOffset // document offset at which node's piece starts
	line        Line       // line containing the offset
}

// nodeAt finds the piece containing off. An offset at or past the end
// resolves to the last piece with remainder equal to its length. The zero
// nodePosition is returned for an empty tree.
func nodeAt(bc *BufferCollection, n *node, off CharOffset) nodePosition {
	var start CharOffset
	var lf LFCount
	for n != nil {
		switch {
		case CharOffset(n.leftLength) > off:
			n = n.left
		case CharOffset(n.leftLength+n.piece.Length) > off:
			start = start.Extend(n.leftLength)
			lf += n.leftLFCount
			remainder := Length(off) - n.leftLength
			pos := bc.bufferPosition(n.piece, remainder)
			lf += LFCount(pos.Line - n.piece.First.Line)
			return nodePosition{
				node:        n,
				remainder:   remainder,
				startOffset: start,
				line:        Line(lf) + LineBeginning,
			}
		case n.right == nil:
			start = start.Extend(n.leftLength)
			lf += n.leftLFCount + n.piece.NewlineCount
			return nodePosition{
				node:        n,
				remainder:   n.piece.Length,
				startOffset: start,
				line:        Line(lf) + LineBeginning,
			}
		default:
			span := n.leftLength + n.piece.Length
			off -= CharOffset(span)
			start = start.Extend(span)
			lf += n.leftLFCount + n.piece.NewlineCount
			n = n.right
		}
	}
	return nodePosition{}
}

// inorder calls fn for each piece in document order.
func inorder(n *node, fn func(p Piece)) {
	if n == nil {
		return
	}
	inorder(n.left, fn)
	fn(n.piece)
	inorder(n.right, fn)
}
