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

package eval

import (
	"strings"
	"testing"

	"github.com/galaxy-lang/galaxy/galaxy/ast"
	"github.com/galaxy-lang/galaxy/galaxy/load"
)

func mustLoad(t *testing.T, src string) load.Globals {
	t.Helper()
	g, err := load.Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return g
}

func mustParseExpr(t *testing.T, tokens string) *ast.Node {
	t.Helper()
	g := mustLoad(t, ":0 = "+tokens+"\n")
	return g[0]
}

func wantNumber(t *testing.T, n *ast.Node, want int64) {
	t.Helper()
	v, ok := n.GetNumber()
	if !ok {
		t.Fatalf("result %s is not a number", n.Tag())
	}
	if v != want {
		t.Fatalf("got %d, want %d", v, want)
	}
}

func TestNegLiteral(t *testing.T) {
	e := New(nil)
	n := mustParseExpr(t, "ap neg 14")
	r, err := e.Evaluate(n)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	wantNumber(t, r, -14)
}

func TestNestedAdd(t *testing.T) {
	e := New(nil)
	n := mustParseExpr(t, "ap ap add ap ap add 1 2 3")
	r, err := e.Evaluate(n)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	wantNumber(t, r, 6)
}

func TestCarOfConsWithDivergingCdr(t *testing.T) {
	g := mustLoad(t, ":0 = ap car ap ap cons ap neg 1 :111\n:111 = :111\n")
	e := New(g)
	r, err := e.Evaluate(g[0])
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	wantNumber(t, r, -1)
}

func TestIsNilOnNonEmptyCons(t *testing.T) {
	e := New(nil)
	n := mustParseExpr(t, "ap isnil ap ap cons 1 nil")
	r, err := e.Evaluate(n)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if r.Tag() != ast.False {
		t.Fatalf("got %s, want false", r.Tag())
	}
}

func TestSCombinatorArithmetic(t *testing.T) {
	e := New(nil)
	n := mustParseExpr(t, "ap ap ap s mul ap add 1 6")
	r, err := e.Evaluate(n)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	wantNumber(t, r, 42)
}

func TestSelfRecursivePowerOfTwo(t *testing.T) {
	src := ":111 = ap ap s ap ap c ap eq 0 1 ap ap b ap mul 2 ap ap b :111 ap add -1\n" +
		":0 = ap :111 :1\n"
	cases := []struct {
		n    int64
		want int64
	}{
		{0, 1},
		{1, 2},
		{2, 4},
	}
	for _, tc := range cases {
		g := mustLoad(t, src+":1 = "+itoa(tc.n)+"\n")
		e := New(g)
		r, err := e.Evaluate(g[0])
		if err != nil {
			t.Fatalf("n=%d: Evaluate: %v", tc.n, err)
		}
		wantNumber(t, r, tc.want)
	}
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func TestInfiniteAlternatingList(t *testing.T) {
	src := ":111 = ap ap cons 1 :112\n:112 = ap ap cons 2 :111\n"
	cases := []struct {
		expr string
		want int64
	}{
		{"ap car :111", 1},
		{"ap car ap cdr :111", 2},
		{"ap car ap cdr ap cdr :111", 1},
	}
	for _, tc := range cases {
		g := mustLoad(t, src+":0 = "+tc.expr+"\n")
		e := New(g)
		r, err := e.Evaluate(g[0])
		if err != nil {
			t.Fatalf("%s: Evaluate: %v", tc.expr, err)
		}
		wantNumber(t, r, tc.want)
	}
}

func TestEvaluationIsIdempotentOnValues(t *testing.T) {
	e := New(nil)
	n := mustParseExpr(t, "ap ap add 1 2")
	r1, err := e.Evaluate(n)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	r2, err := e.Evaluate(r1)
	if err != nil {
		t.Fatalf("Evaluate(Evaluate(n)): %v", err)
	}
	if !ast.Equal(r1, r2) {
		t.Fatalf("evaluate is not idempotent: %v != %v", r1, r2)
	}
}

func TestVariableTransparency(t *testing.T) {
	g := mustLoad(t, ":1 = ap ap add 1 2\n")
	e := New(g)
	viaVar, err := e.Evaluate(ast.VariableNode(1))
	if err != nil {
		t.Fatalf("Evaluate(Variable): %v", err)
	}
	viaDirect, err := e.Evaluate(g[1])
	if err != nil {
		t.Fatalf("Evaluate(direct): %v", err)
	}
	if !ast.Equal(viaVar, viaDirect) {
		t.Fatalf("variable transparency violated")
	}
}

func TestLazinessNeverForcesUnusedBranch(t *testing.T) {
	g := mustLoad(t, ":111 = :111\n")
	e := New(g)

	// ap (ap t A) B never forces B.
	n := mustParseExpr(t, "ap ap t 5 :111")
	r, err := e.Evaluate(n)
	if err != nil {
		t.Fatalf("true-branch: %v", err)
	}
	wantNumber(t, r, 5)

	// ap (ap f A) B never forces A.
	n2 := mustParseExpr(t, "ap ap f :111 7")
	r2, err := e.Evaluate(n2)
	if err != nil {
		t.Fatalf("false-branch: %v", err)
	}
	wantNumber(t, r2, 7)
}

func TestEqStructural(t *testing.T) {
	e := New(nil)
	cases := []struct {
		expr string
		want ast.Tag
	}{
		{"ap ap eq i i", ast.True},
		{"ap ap eq i t", ast.False},
		{"ap ap eq ap ap cons 1 2 ap ap cons 1 2", ast.True},
		{"ap ap eq ap ap cons 1 2 ap ap cons 1 3", ast.False},
	}
	for _, tc := range cases {
		n := mustParseExpr(t, tc.expr)
		r, err := e.Evaluate(n)
		if err != nil {
			t.Fatalf("%s: Evaluate: %v", tc.expr, err)
		}
		if r.Tag() != tc.want {
			t.Errorf("%s: got %s, want %s", tc.expr, r.Tag(), tc.want)
		}
	}
}

func TestDivTruncatesTowardZero(t *testing.T) {
	e := New(nil)
	cases := []struct {
		expr string
		want int64
	}{
		{"ap ap div 7 2", 3},
		{"ap ap div -7 2", -3},
		{"ap ap div 7 -2", -3},
		{"ap ap div -7 -2", 3},
	}
	for _, tc := range cases {
		n := mustParseExpr(t, tc.expr)
		r, err := e.Evaluate(n)
		if err != nil {
			t.Fatalf("%s: Evaluate: %v", tc.expr, err)
		}
		wantNumber(t, r, tc.want)
	}
}

func TestApplyingNumberAsFunctionIsReductionError(t *testing.T) {
	e := New(nil)
	n := mustParseExpr(t, "ap 5 1")
	if _, err := e.Evaluate(n); err == nil {
		t.Fatalf("expected ReductionError applying a number as a function")
	}
}

func TestDeepForceProducesNoApOrVariable(t *testing.T) {
	g := mustLoad(t, ":1 = ap ap add 1 2\n")
	e := New(g)
	n := ast.ConsNode(ast.VariableNode(1), ast.ConsNode(ast.NumberNode(3), ast.NilNode()))
	forced, err := e.DeepForce(n)
	if err != nil {
		t.Fatalf("DeepForce: %v", err)
	}
	var walk func(*ast.Node)
	walk = func(v *ast.Node) {
		if v.Tag() == ast.Ap || v.Tag() == ast.Variable {
			t.Fatalf("deep-forced value still contains %s", v.Tag())
		}
		for i := 0; i < v.NumChildren(); i++ {
			walk(v.Child(i))
		}
	}
	walk(forced)
}
