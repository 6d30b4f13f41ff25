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

// Package modem implements the bijection between galaxy values
// (Nil, Number, Cons) and the alien server's binary-text wire
// alphabet {0,1}, per spec.md §4.3.
//
// It plays the role ion/reader.go and ion/writer.go play for
// sneller's Ion codec: a total, symmetric encode/decode pair over a
// closed value sum, with every frame self-delimiting so that
// Demodulate can consume a whole message without a length prefix.
package modem

import (
	"fmt"
	"strings"

	"github.com/galaxy-lang/galaxy/galaxy/ast"
)

// CodecError reports a problem modulating a non-value node or
// demodulating truncated or out-of-alphabet input.
type CodecError struct {
	Offset int // byte offset into the wire string, -1 if not applicable
	Msg    string
}

func (e *CodecError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("modem: offset %d: %s", e.Offset, e.Msg)
	}
	return fmt.Sprintf("modem: %s", e.Msg)
}

// Modulate converts a fully-forced value (Nil, Number, or a Cons of
// values) to its wire-format string. It returns a *CodecError if n is
// not one of those three shapes (e.g. it still contains an Ap or an
// unresolved Variable).
func Modulate(n *ast.Node) (string, error) {
	var out strings.Builder
	if err := appendModulated(&out, n); err != nil {
		return "", err
	}
	return out.String(), nil
}

func appendModulated(out *strings.Builder, n *ast.Node) error {
	switch n.Tag() {
	case ast.Nil:
		out.WriteString("00")
		return nil
	case ast.Number:
		v, _ := n.GetNumber()
		appendModulatedNumber(out, v)
		return nil
	case ast.Cons:
		if n.NumChildren() != 2 {
			return &CodecError{Offset: -1, Msg: fmt.Sprintf("cannot modulate a partially-applied cons (%d of 2 args)", n.NumChildren())}
		}
		out.WriteString("11")
		if err := appendModulated(out, n.Child(0)); err != nil {
			return err
		}
		return appendModulated(out, n.Child(1))
	default:
		return &CodecError{Offset: -1, Msg: fmt.Sprintf("cannot modulate a %s node", n.Tag())}
	}
}

func appendModulatedNumber(out *strings.Builder, v int64) {
	if v == 0 {
		out.WriteString("010")
		return
	}
	mag := v
	if mag < 0 {
		out.WriteString("10")
		mag = -mag
	} else {
		out.WriteString("01")
	}
	width := bitWidthNibbles(uint64(mag))
	for i := 0; i < width; i++ {
		out.WriteByte('1')
	}
	out.WriteByte('0')
	for bit := width*4 - 1; bit >= 0; bit-- {
		if uint64(mag)&(1<<uint(bit)) != 0 {
			out.WriteByte('1')
		} else {
			out.WriteByte('0')
		}
	}
}

// bitWidthNibbles returns ceil(bits(v)/4) where bits(v) is the
// position of v's highest set bit (v must be > 0).
func bitWidthNibbles(v uint64) int {
	n := 0
	for v > 0 {
		n++
		v >>= 4
	}
	return n
}

// Demodulate is the exact inverse of Modulate: it parses s as a
// concatenation of the three tagged frames described in spec.md §4.3
// and reports a *CodecError if s contains anything outside {0,1}, is
// truncated mid-frame, or has unconsumed trailing bytes.
func Demodulate(s string) (*ast.Node, error) {
	n, pos, err := demodulateAt(s, 0)
	if err != nil {
		return nil, err
	}
	if pos != len(s) {
		return nil, &CodecError{Offset: pos, Msg: fmt.Sprintf("trailing %d bytes after value", len(s)-pos)}
	}
	return n, nil
}

func demodulateAt(s string, pos int) (*ast.Node, int, error) {
	prefix, err := peek(s, pos, 2)
	if err != nil {
		return nil, pos, err
	}
	switch prefix {
	case "00":
		return ast.NilNode(), pos + 2, nil
	case "11":
		left, pos, err := demodulateAt(s, pos+2)
		if err != nil {
			return nil, pos, err
		}
		right, pos, err := demodulateAt(s, pos)
		if err != nil {
			return nil, pos, err
		}
		return ast.ConsNode(left, right), pos, nil
	case "01", "10":
		return demodulateNumber(s, pos)
	default:
		return nil, pos, &CodecError{Offset: pos, Msg: fmt.Sprintf("invalid frame prefix %q", prefix)}
	}
}

func demodulateNumber(s string, pos int) (*ast.Node, int, error) {
	sign := int64(1)
	if s[pos] == '1' {
		sign = -1
	}
	pos += 2
	b, err := byteAt(s, pos)
	if err != nil {
		return nil, pos, err
	}
	if b == '0' {
		return ast.NumberNode(0), pos + 1, nil
	}
	width := 0
	for {
		b, err := byteAt(s, pos)
		if err != nil {
			return nil, pos, err
		}
		if b == '0' {
			pos++
			break
		}
		if b != '1' {
			return nil, pos, &CodecError{Offset: pos, Msg: fmt.Sprintf("invalid unary digit %q", b)}
		}
		width++
		pos++
	}
	var mag uint64
	for i := 0; i < width*4; i++ {
		b, err := byteAt(s, pos)
		if err != nil {
			return nil, pos, err
		}
		mag <<= 1
		switch b {
		case '1':
			mag |= 1
		case '0':
		default:
			return nil, pos, &CodecError{Offset: pos, Msg: fmt.Sprintf("invalid binary digit %q", b)}
		}
		pos++
	}
	return ast.NumberNode(sign * int64(mag)), pos, nil
}

func byteAt(s string, pos int) (byte, error) {
	if pos >= len(s) {
		return 0, &CodecError{Offset: pos, Msg: "unexpected end of input"}
	}
	return s[pos], nil
}

func peek(s string, pos, n int) (string, error) {
	if pos+n > len(s) {
		return "", &CodecError{Offset: pos, Msg: "unexpected end of input"}
	}
	return s[pos : pos+n], nil
}
