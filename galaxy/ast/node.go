// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package ast implements the immutable, structurally-hashed expression
// DAG that the galaxy evaluator reduces.
//
// A Node is a tag plus an ordered list of children. Nodes are built
// bottom-up and never mutated after construction; every constructor
// computes a 64-bit structural fingerprint that the evaluator uses as
// its memo key (see galaxy/eval).
package ast

import (
	"encoding/binary"

	"github.com/dchest/siphash"
	"golang.org/x/exp/slices"
)

// Tag is the discrete kind label on a Node.
type Tag uint8

const (
	// Ap is a function application; it always has exactly two
	// children at parse time (function, argument). During
	// reduction a resolved head tag replaces Ap with the callee's
	// own tag plus accumulated argument children.
	Ap Tag = iota
	Nil
	Number
	Variable
	Cons
	Car
	Cdr
	IsNil
	Neg
	Add
	Mul
	Div
	Lt
	Eq
	B
	C
	S
	I
	True
	False

	// List is a pretty-printer-only pseudo-tag: it collapses a
	// cons(x, cons(y, nil)) chain for display. It is never produced
	// by the evaluator or accepted by the codec.
	List
)

// String returns the lower-case name of t; for built-in atoms this is
// the token that spells it in galaxy source text.
func (t Tag) String() string {
	switch t {
	case Ap:
		return "ap"
	case Nil:
		return "nil"
	case Number:
		return "number"
	case Variable:
		return "variable"
	case Cons:
		return "cons"
	case Car:
		return "car"
	case Cdr:
		return "cdr"
	case IsNil:
		return "isnil"
	case Neg:
		return "neg"
	case Add:
		return "add"
	case Mul:
		return "mul"
	case Div:
		return "div"
	case Lt:
		return "lt"
	case Eq:
		return "eq"
	case B:
		return "b"
	case C:
		return "c"
	case S:
		return "s"
	case I:
		return "i"
	case True:
		return "t"
	case False:
		return "f"
	case List:
		return "list"
	default:
		return "unknown"
	}
}

// fingerprint keys. These are domain-separation constants, not secrets:
// the memo only needs collision resistance against accidental aliasing
// within a single process, not against an adversary (see SPEC_FULL.md's
// DOMAIN STACK entry for siphash, grounded on vm/interphash.go).
const (
	fpKey0 uint64 = 0x67616c6178792d30
	fpKey1 uint64 = 0x79692d6b65792d31
)

// Node is an immutable expression tree node. The zero Node is not
// valid; use the constructors below.
type Node struct {
	tag      Tag
	children []*Node
	num      int64 // payload for Number and Variable
	fp       uint64
}

// Tag returns the node's atom kind.
func (n *Node) Tag() Tag { return n.tag }

// NumChildren returns the number of children currently attached to n.
// For built-in heads this tracks how many arguments have been
// collected so far during partial application (see galaxy/eval).
func (n *Node) NumChildren() int { return len(n.children) }

// Child returns the i'th child of n.
func (n *Node) Child(i int) *Node { return n.children[i] }

// Fingerprint returns the 64-bit structural hash used as the memo key.
// Two nodes with equal fingerprints must be checked structurally with
// Equal before being treated as interchangeable, since fingerprints
// can (extremely rarely) collide.
func (n *Node) Fingerprint() uint64 { return n.fp }

func fingerprint(tag Tag, num int64, children []*Node) uint64 {
	buf := make([]byte, 9+8*len(children))
	buf[0] = byte(tag)
	binary.LittleEndian.PutUint64(buf[1:9], uint64(num))
	for i, c := range children {
		binary.LittleEndian.PutUint64(buf[9+8*i:9+8*(i+1)], c.fp)
	}
	return siphash.Hash(fpKey0, fpKey1, buf)
}

func newNode(tag Tag, num int64, children []*Node) *Node {
	return &Node{
		tag:      tag,
		children: children,
		num:      num,
		fp:       fingerprint(tag, num, children),
	}
}

// Leaf builds a childless node for one of the fixed built-in atoms,
// including the unapplied cons function (anything other than Number
// and Variable, which carry a payload, Ap, which always has two
// children, or List).
func Leaf(tag Tag) *Node { return newNode(tag, 0, nil) }

// NilNode returns the nil atom.
func NilNode() *Node { return Leaf(Nil) }

// NumberNode builds an integer literal.
func NumberNode(v int64) *Node { return newNode(Number, v, nil) }

// VariableNode builds a reference to global variable id.
func VariableNode(id int64) *Node { return newNode(Variable, id, nil) }

// ApNode builds a function application of f to x.
func ApNode(f, x *Node) *Node { return newNode(Ap, 0, []*Node{f, x}) }

// ConsNode builds a fully-applied cons cell from two already-reduced
// values. Use this to build literal pairs; the evaluator produces its
// own Cons spines via WithArg during reduction.
func ConsNode(a, b *Node) *Node { return newNode(Cons, 0, []*Node{a, b}) }

// ListNode builds a right-folded cons chain terminated by nil, i.e.
// list([x0,...,xn-1]) = cons(x0, cons(x1, ... cons(xn-1, nil))).
func ListNode(items []*Node) *Node {
	n := NilNode()
	for i := len(items) - 1; i >= 0; i-- {
		n = ConsNode(items[i], n)
	}
	return n
}

// VectorNode builds cons(x, y) from two plain integers; this is the
// shape the interaction driver uses for click coordinates.
func VectorNode(x, y int64) *Node { return ConsNode(NumberNode(x), NumberNode(y)) }

// WithArg returns a new node with the same tag as n and x appended as
// an additional child. It is used by the evaluator to build up a
// partially-applied spine one argument at a time without mutating n.
func (n *Node) WithArg(x *Node) *Node {
	children := append(slices.Clone(n.children), x)
	return newNode(n.tag, n.num, children)
}

// GetNumber returns the integer payload of a Number node and true, or
// (0, false) if n is not a Number. Callers that need a hard failure
// for a non-Number node turn the false into a ReductionError/ShapeError
// themselves (see galaxy/eval, galaxy/interact).
func (n *Node) GetNumber() (int64, bool) {
	if n.tag != Number {
		return 0, false
	}
	return n.num, true
}

// VariableID returns the global id of a Variable node.
func (n *Node) VariableID() (int64, bool) {
	if n.tag != Variable {
		return 0, false
	}
	return n.num, true
}

// IsNilLeaf reports whether n is the nil atom.
func (n *Node) IsNilLeaf() bool { return n.tag == Nil }

// GetListItem walks a cons-chain and returns the i'th element,
// reporting false if the chain ends (hits nil) before reaching index
// i or if n is not shaped as a value list.
func (n *Node) GetListItem(i int) (*Node, bool) {
	cur := n
	for i > 0 {
		if cur.tag != Cons {
			return nil, false
		}
		cur = cur.children[1]
		i--
	}
	if cur.tag != Cons {
		return nil, false
	}
	return cur.children[0], true
}

// ForEach walks a cons-chain from n until it reaches nil, invoking
// visit on each element in order. It returns false if the chain is
// not nil-terminated.
func ForEach(n *Node, visit func(*Node)) bool {
	cur := n
	for !cur.IsNilLeaf() {
		if cur.tag != Cons {
			return false
		}
		visit(cur.children[0])
		cur = cur.children[1]
	}
	return true
}

// Equal reports whether a and b are structurally identical: same tag,
// same payload, and recursively equal children. This is the
// definitive equality check; Fingerprint is only a fast pre-filter.
func Equal(a, b *Node) bool {
	if a == b {
		return true
	}
	if a.fp != b.fp {
		return false
	}
	return equalStructural(a, b)
}

func equalStructural(a, b *Node) bool {
	if a.tag != b.tag || a.num != b.num || len(a.children) != len(b.children) {
		return false
	}
	for i := range a.children {
		if !equalStructural(a.children[i], b.children[i]) {
			return false
		}
	}
	return true
}
