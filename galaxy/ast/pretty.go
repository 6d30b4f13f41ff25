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

package ast

import "strconv"

// Pretty renders a deep-forced value for human consumption, collapsing
// cons(x, cons(y, ... nil)) chains into a bracketed list the way a
// display-time rewrite would. It is a debugging/CLI aid only: the
// collapsing happens while writing the string, so no List-tagged node
// is ever built and nothing reaches the evaluator or the codec.
func Pretty(n *Node) string {
	var out []byte
	out = appendPretty(out, n)
	return string(out)
}

func appendPretty(out []byte, n *Node) []byte {
	switch n.tag {
	case Nil:
		return append(out, "nil"...)
	case Number:
		return strconv.AppendInt(out, n.num, 10)
	case Cons:
		if items, ok := collapseList(n); ok {
			out = append(out, '[')
			for i, item := range items {
				if i > 0 {
					out = append(out, ' ')
				}
				out = appendPretty(out, item)
			}
			return append(out, ']')
		}
		out = append(out, '(')
		out = appendPretty(out, n.children[0])
		out = append(out, ' ')
		out = appendPretty(out, n.children[1])
		return append(out, ')')
	default:
		return append(out, n.tag.String()...)
	}
}

// collapseList reports whether n is a proper (nil-terminated) cons
// chain and, if so, returns its elements in order.
func collapseList(n *Node) ([]*Node, bool) {
	var items []*Node
	cur := n
	for cur.tag == Cons {
		items = append(items, cur.children[0])
		cur = cur.children[1]
	}
	if cur.tag != Nil {
		return nil, false
	}
	return items, true
}
