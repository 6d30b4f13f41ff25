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

package interact

import (
	"testing"

	"github.com/galaxy-lang/galaxy/galaxy/ast"
	"github.com/galaxy-lang/galaxy/galaxy/load"
	"github.com/galaxy-lang/galaxy/galaxy/modem"
)

func apply(f *ast.Node, args ...*ast.Node) *ast.Node {
	for _, a := range args {
		f = ast.ApNode(f, a)
	}
	return f
}

// echoGalaxy builds, purely from S/B/C/true/cons, a closed combinator
// expression equivalent to \state vector -> cons(0, cons(state, cons(vector, nil))),
// i.e. a stand-in galaxy function that always reports flag=0, threads
// state through unchanged, and echoes vector back as data. It is built
// directly with ast constructors rather than galaxy/load's text
// format, since that format has no lambda-binder syntax of its own.
func echoGalaxy() *ast.Node {
	cons := ast.Leaf(ast.Cons)
	b := ast.Leaf(ast.B)
	c := ast.Leaf(ast.C)
	s := ast.Leaf(ast.S)
	t := ast.Leaf(ast.True)

	// T1 y = cons y nil
	t1 := apply(s, cons, apply(t, ast.NilNode()))
	// inner x y = innerB x T1 y = cons x (T1 y) = cons x (cons y nil)
	innerB := apply(b, b, cons)
	inner := apply(c, innerB, t1)
	zeroPrefix := apply(cons, ast.NumberNode(0))
	return apply(b, apply(b, zeroPrefix), inner)
}

func TestInteractSplitsFlagStateData(t *testing.T) {
	d := New(load.Globals{0: echoGalaxy()})

	state := ast.NumberNode(42)
	vector := ast.VectorNode(1, 2)
	flag, newState, data, err := d.Interact(state, vector)
	if err != nil {
		t.Fatalf("Interact: %v", err)
	}
	if flag != 0 {
		t.Fatalf("flag = %d, want 0", flag)
	}
	if !ast.Equal(newState, state) {
		t.Fatalf("state not threaded through: got %s", ast.Pretty(newState))
	}
	if !ast.Equal(data, vector) {
		t.Fatalf("data != vector: got %s", ast.Pretty(data))
	}
}

var errStop = &ShapeError{Msg: "test: stop"}

func TestRunDispatchesToOnPicture(t *testing.T) {
	d := New(load.Globals{0: echoGalaxy()})

	calls := 0
	onPicture := func(data *ast.Node) (*ast.Node, error) {
		calls++
		if calls >= 2 {
			return nil, errStop
		}
		return ast.VectorNode(int64(calls), int64(calls)), nil
	}
	err := d.Run(ast.NumberNode(0), ast.VectorNode(0, 0), nil, onPicture)
	if err != errStop {
		t.Fatalf("Run: got %v, want errStop", err)
	}
	if calls != 2 {
		t.Fatalf("onPicture called %d times, want 2", calls)
	}
}

func TestSendDataRoundTripsThroughEchoTransport(t *testing.T) {
	send, err := ParseSend("", "")
	if err != nil {
		t.Fatalf("ParseSend: %v", err)
	}
	in := ast.VectorNode(3, 4)
	out, err := sendData(send, in)
	if err != nil {
		t.Fatalf("sendData: %v", err)
	}
	if !ast.Equal(in, out) {
		t.Fatalf("echo transport did not round-trip: got %s", ast.Pretty(out))
	}
}

func TestSendDataRejectsErrorHead(t *testing.T) {
	errorReply := ast.ConsNode(ast.NumberNode(0), ast.NilNode())
	encoded, err := modem.Modulate(errorReply)
	if err != nil {
		t.Fatalf("Modulate: %v", err)
	}
	send := func(string) (string, error) { return encoded, nil }
	if _, err := sendData(send, ast.NumberNode(1)); err == nil {
		t.Fatalf("expected TransportError for a 0-headed reply")
	}
}

func TestSealStateRoundTrips(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	token, err := SealState(key, "1101100001")
	if err != nil {
		t.Fatalf("SealState: %v", err)
	}
	back, err := OpenState(key, token)
	if err != nil {
		t.Fatalf("OpenState: %v", err)
	}
	if back != "1101100001" {
		t.Fatalf("got %q, want %q", back, "1101100001")
	}
}

func TestOpenStateRejectsWrongKey(t *testing.T) {
	key1 := make([]byte, 32)
	key2 := make([]byte, 32)
	key2[0] = 1
	token, err := SealState(key1, "00")
	if err != nil {
		t.Fatalf("SealState: %v", err)
	}
	if _, err := OpenState(key2, token); err == nil {
		t.Fatalf("expected OpenState to reject a token sealed under a different key")
	}
}

func TestPicturesExtractsLayersOfPoints(t *testing.T) {
	layer := ast.ListNode([]*ast.Node{
		ast.VectorNode(1, 1),
		ast.VectorNode(2, 2),
	})
	data := ast.ListNode([]*ast.Node{layer})
	layers, err := Pictures(data)
	if err != nil {
		t.Fatalf("Pictures: %v", err)
	}
	if len(layers) != 1 || len(layers[0]) != 2 {
		t.Fatalf("unexpected shape: %+v", layers)
	}
	if layers[0][0] != (Point{1, 1}) || layers[0][1] != (Point{2, 2}) {
		t.Fatalf("unexpected points: %+v", layers[0])
	}
}

func TestPicturesRejectsMalformedPoint(t *testing.T) {
	badLayer := ast.ListNode([]*ast.Node{ast.NumberNode(7)})
	data := ast.ListNode([]*ast.Node{badLayer})
	if _, err := Pictures(data); err == nil {
		t.Fatalf("expected ShapeError for a non-cons point")
	}
}

func TestPicturesRejectsNonListLayer(t *testing.T) {
	data := ast.ListNode([]*ast.Node{ast.NumberNode(1)})
	if _, err := Pictures(data); err == nil {
		t.Fatalf("expected ShapeError for a layer that is not a list")
	}
}
