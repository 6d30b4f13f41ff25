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

// Package eval implements call-by-need weak-head reduction of the
// galaxy combinator calculus, with a fingerprint-keyed memo table
// that collapses the galaxy program's self-referential unfolding to
// polynomial cost (see spec.md §4.4 and §9).
package eval

import (
	"fmt"

	"golang.org/x/sys/cpu"

	"github.com/galaxy-lang/galaxy/galaxy/ast"
	"github.com/galaxy-lang/galaxy/galaxy/load"
)

// ReductionError reports that reduction reached a head with no
// applicable rule: applying a non-callable value as a function,
// destructuring a non-cons, or comparing operands that still contain
// an application or variable after forcing (see spec.md §7).
type ReductionError struct {
	Msg string
}

func (e *ReductionError) Error() string { return fmt.Sprintf("eval: %s", e.Msg) }

// Evaluator holds the globals map and the memo table for a single
// evaluation session. It is not safe for concurrent use: per spec.md
// §5, each instance is owned by exactly one goroutine at a time and
// must not be reentered from within its own call stack except via its
// own recursion.
type Evaluator struct {
	globals load.Globals
	memo    map[uint64][]memoEntry
}

type memoEntry struct {
	node   *ast.Node
	result *ast.Node
}

// New constructs an Evaluator over a read-only globals map produced
// by galaxy/load. The globals map is never mutated after this call.
func New(globals load.Globals) *Evaluator {
	return &Evaluator{
		globals: globals,
		memo:    make(map[uint64][]memoEntry, initialMemoBuckets()),
	}
}

// initialMemoBuckets sizes the memo table's initial bucket count.
// This is a narrow cache-sizing hint, not a vectorized code path: the
// evaluator has no SIMD kernel (spec.md's Non-goals rule out parallel
// evaluation), but a wider vector unit on this CPU usually implies a
// larger L1/L2 footprint is affordable, so the memo starts larger to
// reduce early rehashing during the galaxy program's first unfolding.
// Grounded on cmd/sneller/main.go's cpu.X86.HasAVX512 feature check.
func initialMemoBuckets() int {
	const baseline = 4096
	if cpu.X86.HasAVX512 {
		return baseline * 2
	}
	return baseline
}

// arity reports how many arguments a built-in head must collect
// before it can be reduced, per the table in spec.md §4.4. The second
// return value is false for tags that are never callable (Number,
// Variable, List; Ap itself never appears as a resolved head).
func arity(t ast.Tag) (int, bool) {
	switch t {
	case ast.Neg, ast.IsNil, ast.I, ast.Car, ast.Cdr, ast.Nil:
		return 1, true
	case ast.Add, ast.Mul, ast.Div, ast.Lt, ast.Eq, ast.True, ast.False:
		return 2, true
	case ast.Cons, ast.B, ast.C, ast.S:
		return 3, true
	default:
		return 0, false
	}
}

// Evaluate returns the weak head normal form of node, per spec.md
// §4.4's evaluate/resolve algorithm.
func (e *Evaluator) Evaluate(node *ast.Node) (*ast.Node, error) {
	switch node.Tag() {
	case ast.Ap:
		lhs, err := e.Evaluate(node.Child(0))
		if err != nil {
			return nil, err
		}
		want, ok := arity(lhs.Tag())
		if !ok {
			return nil, &ReductionError{Msg: fmt.Sprintf("cannot apply an argument to a %s", lhs.Tag())}
		}
		applied := lhs.WithArg(node.Child(1))
		if applied.NumChildren() < want {
			return applied, nil
		}
		return e.resolve(applied)
	case ast.Variable:
		id, _ := node.VariableID()
		def, ok := e.globals[id]
		if !ok {
			return nil, &ReductionError{Msg: fmt.Sprintf("reference to undefined global :%d", id)}
		}
		return e.Evaluate(def)
	default:
		return node, nil
	}
}

// force evaluates a child that a built-in's rule demands be resolved
// before rewriting: an Ap is weak-head evaluated, a Variable is
// resolved through the globals map and then evaluated, and anything
// else (already a leaf, number, or partial application) is returned
// unchanged.
func (e *Evaluator) force(node *ast.Node) (*ast.Node, error) {
	switch node.Tag() {
	case ast.Ap:
		return e.Evaluate(node)
	case ast.Variable:
		id, _ := node.VariableID()
		def, ok := e.globals[id]
		if !ok {
			return nil, &ReductionError{Msg: fmt.Sprintf("reference to undefined global :%d", id)}
		}
		return e.Evaluate(def)
	default:
		return node, nil
	}
}

// resolve consults the memo for the pre-resolve node n, and on a miss
// dispatches to reduce and writes the memo entry before returning.
// The memo key is n's fingerprint; a hash bucket may hold more than
// one entry, and lookups re-check structurally to guard against
// (astronomically unlikely) fingerprint collisions.
func (e *Evaluator) resolve(n *ast.Node) (*ast.Node, error) {
	if cached, ok := e.lookupMemo(n); ok {
		return cached, nil
	}
	result, err := e.reduce(n)
	if err != nil {
		return nil, err
	}
	e.storeMemo(n, result)
	return result, nil
}

func (e *Evaluator) lookupMemo(n *ast.Node) (*ast.Node, bool) {
	for _, entry := range e.memo[n.Fingerprint()] {
		if ast.Equal(entry.node, n) {
			return entry.result, true
		}
	}
	return nil, false
}

func (e *Evaluator) storeMemo(n, result *ast.Node) {
	fp := n.Fingerprint()
	e.memo[fp] = append(e.memo[fp], memoEntry{node: n, result: result})
}

// reduce applies the rewrite rule for n's (now arity-satisfied) head,
// forcing only the children the rule demands, per the table in
// spec.md §4.4.
func (e *Evaluator) reduce(n *ast.Node) (*ast.Node, error) {
	switch n.Tag() {
	case ast.Neg:
		a, err := e.forceNumber(n.Child(0), "neg")
		if err != nil {
			return nil, err
		}
		return ast.NumberNode(-a), nil
	case ast.Add:
		a, b, err := e.forceNumberPair(n, "add")
		if err != nil {
			return nil, err
		}
		return ast.NumberNode(a + b), nil
	case ast.Mul:
		a, b, err := e.forceNumberPair(n, "mul")
		if err != nil {
			return nil, err
		}
		return ast.NumberNode(a * b), nil
	case ast.Div:
		a, b, err := e.forceNumberPair(n, "div")
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return nil, &ReductionError{Msg: "div: division by zero"}
		}
		// Go's integer division truncates toward zero, matching the
		// reference implementation's native i64 `/` (see
		// original_source/core/src/galaxy_interpreter.rs and
		// DESIGN.md's resolution of this open question).
		return ast.NumberNode(a / b), nil
	case ast.Lt:
		a, b, err := e.forceNumberPair(n, "lt")
		if err != nil {
			return nil, err
		}
		return ast.Leaf(boolTag(a < b)), nil
	case ast.Eq:
		eq, err := e.equalDeep(n.Child(0), n.Child(1))
		if err != nil {
			return nil, err
		}
		return ast.Leaf(boolTag(eq)), nil
	case ast.IsNil:
		a, err := e.force(n.Child(0))
		if err != nil {
			return nil, err
		}
		return ast.Leaf(boolTag(a.Tag() == ast.Nil)), nil
	case ast.I:
		return e.force(n.Child(0))
	case ast.True:
		return e.force(n.Child(0))
	case ast.False:
		return e.force(n.Child(1))
	case ast.Nil:
		return ast.Leaf(ast.True), nil
	case ast.Cons:
		return e.Evaluate(ast.ApNode(ast.ApNode(n.Child(2), n.Child(0)), n.Child(1)))
	case ast.Car:
		return e.Evaluate(ast.ApNode(n.Child(0), ast.Leaf(ast.True)))
	case ast.Cdr:
		return e.Evaluate(ast.ApNode(n.Child(0), ast.Leaf(ast.False)))
	case ast.B:
		return e.Evaluate(ast.ApNode(n.Child(0), ast.ApNode(n.Child(1), n.Child(2))))
	case ast.C:
		return e.Evaluate(ast.ApNode(ast.ApNode(n.Child(0), n.Child(2)), n.Child(1)))
	case ast.S:
		return e.Evaluate(ast.ApNode(ast.ApNode(n.Child(0), n.Child(2)), ast.ApNode(n.Child(1), n.Child(2))))
	default:
		return nil, &ReductionError{Msg: fmt.Sprintf("no reduction rule for %s", n.Tag())}
	}
}

func boolTag(v bool) ast.Tag {
	if v {
		return ast.True
	}
	return ast.False
}

func (e *Evaluator) forceNumber(n *ast.Node, op string) (int64, error) {
	forced, err := e.force(n)
	if err != nil {
		return 0, err
	}
	v, ok := forced.GetNumber()
	if !ok {
		return 0, &ReductionError{Msg: fmt.Sprintf("%s: operand is not a number (got %s)", op, forced.Tag())}
	}
	return v, nil
}

func (e *Evaluator) forceNumberPair(n *ast.Node, op string) (int64, int64, error) {
	a, err := e.forceNumber(n.Child(0), op)
	if err != nil {
		return 0, 0, err
	}
	b, err := e.forceNumber(n.Child(1), op)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// equalDeep implements the structural equality defined in spec.md
// §4.4: both operands are forced (recursively, inside their
// children) before comparison, and it is a ReductionError for either
// side to still contain an Ap or Variable once forced.
func (e *Evaluator) equalDeep(a, b *ast.Node) (bool, error) {
	af, err := e.force(a)
	if err != nil {
		return false, err
	}
	bf, err := e.force(b)
	if err != nil {
		return false, err
	}
	if af.Tag() == ast.Ap || af.Tag() == ast.Variable || bf.Tag() == ast.Ap || bf.Tag() == ast.Variable {
		return false, &ReductionError{Msg: "eq: operand did not reduce to a normal form"}
	}
	if af.Tag() != bf.Tag() {
		return false, nil
	}
	if v1, ok := af.GetNumber(); ok {
		v2, _ := bf.GetNumber()
		return v1 == v2, nil
	}
	if af.NumChildren() != bf.NumChildren() {
		return false, nil
	}
	for i := 0; i < af.NumChildren(); i++ {
		ok, err := e.equalDeep(af.Child(i), bf.Child(i))
		if err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

// DeepForce walks a head-normal value and forces inside constructors,
// per spec.md §4.4: for Cons it recursively deep-forces both
// children; every other head-normal form (including the Car/Cdr
// pretty-printer hook, which should never appear in a fully reduced
// value) is returned as-is. DeepForce is used only just before a
// value is handed to the codec or the driver.
func (e *Evaluator) DeepForce(n *ast.Node) (*ast.Node, error) {
	forced, err := e.force(n)
	if err != nil {
		return nil, err
	}
	if forced.Tag() != ast.Cons {
		return forced, nil
	}
	if forced.NumChildren() != 2 {
		return forced, nil
	}
	a, err := e.DeepForce(forced.Child(0))
	if err != nil {
		return nil, err
	}
	b, err := e.DeepForce(forced.Child(1))
	if err != nil {
		return nil, err
	}
	return ast.ConsNode(a, b), nil
}
