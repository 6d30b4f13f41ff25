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

// Package load parses the galaxy program's flat token-stream source
// text into a globals map of expression trees.
package load

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/galaxy-lang/galaxy/galaxy/ast"
)

// LoadError reports a fatal problem encountered while parsing the
// galaxy source text: an unknown token, a malformed id, or a
// statement whose token list was not fully consumed by the walk.
//
// It is grounded on the small *Error structs in expr/check.go
// (TypeError, SyntaxError), which likewise carry a line and a short
// message instead of a bare string.
type LoadError struct {
	Line int    // 1-based source line, 0 if not line-specific
	Msg  string
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("load: line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("load: %s", e.Msg)
}

var tagByToken = map[string]ast.Tag{
	"ap":    ast.Ap,
	"cons":  ast.Cons,
	"car":   ast.Car,
	"cdr":   ast.Cdr,
	"isnil": ast.IsNil,
	"nil":   ast.Nil,
	"neg":   ast.Neg,
	"add":   ast.Add,
	"mul":   ast.Mul,
	"div":   ast.Div,
	"lt":    ast.Lt,
	"eq":    ast.Eq,
	"b":     ast.B,
	"c":     ast.C,
	"s":     ast.S,
	"i":     ast.I,
	"t":     ast.True,
	"f":     ast.False,
}

// Globals maps a variable id (galaxy itself is id 0) to the root
// expression of its definition.
type Globals map[int64]*ast.Node

// Load parses the galaxy text format (one `«name» = «tok»*` statement
// per line; «name» is either the literal "galaxy", bound to id 0, or
// `:N`) into a Globals map.
//
// Grounded on original_source/core/src/galaxy_interpreter.rs's
// Statement::new + Function::from + AstNode::parse_cells, reworked
// into Go's error-return idiom (the Rust source panics on malformed
// input; LoadError reports it instead, per spec.md §7).
func Load(r io.Reader) (Globals, error) {
	g := make(Globals)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		id, node, err := parseStatement(text)
		if err != nil {
			if le, ok := err.(*LoadError); ok && le.Line == 0 {
				le.Line = line
			}
			return nil, err
		}
		if _, dup := g[id]; dup {
			return nil, &LoadError{Line: line, Msg: fmt.Sprintf("duplicate definition of :%d", id)}
		}
		g[id] = node
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("load: reading source: %w", err)
	}
	return g, nil
}

func parseStatement(text string) (int64, *ast.Node, error) {
	fields := strings.Fields(text)
	if len(fields) < 3 || fields[1] != "=" {
		return 0, nil, &LoadError{Msg: fmt.Sprintf("malformed statement %q", text)}
	}
	id, err := parseID(fields[0])
	if err != nil {
		return 0, nil, err
	}
	tokens := fields[2:]
	node, consumed, err := parseTokens(tokens, 0)
	if err != nil {
		return 0, nil, err
	}
	if consumed != len(tokens) {
		return 0, nil, &LoadError{Msg: fmt.Sprintf("statement %q left %d unconsumed tokens", text, len(tokens)-consumed)}
	}
	return id, node, nil
}

func parseID(name string) (int64, error) {
	if name == "galaxy" {
		return 0, nil
	}
	if !strings.HasPrefix(name, ":") {
		return 0, &LoadError{Msg: fmt.Sprintf("invalid statement name %q", name)}
	}
	n, err := strconv.ParseInt(name[1:], 10, 64)
	if err != nil {
		return 0, &LoadError{Msg: fmt.Sprintf("invalid variable id %q", name)}
	}
	return n, nil
}

// parseTokens performs the deterministic left-to-right walk described
// in spec.md §4.1: `ap` consumes the next two sub-expressions as its
// children; every other token is a leaf. It parses the expression
// starting at tokens[from] and returns it with the index in tokens
// just past its last token.
func parseTokens(tokens []string, from int) (*ast.Node, int, error) {
	if from >= len(tokens) {
		return nil, from, &LoadError{Msg: "unexpected end of statement"}
	}
	tok := tokens[from]
	if tok == "ap" {
		lhs, next, err := parseTokens(tokens, from+1)
		if err != nil {
			return nil, next, err
		}
		rhs, next, err := parseTokens(tokens, next)
		if err != nil {
			return nil, next, err
		}
		return ast.ApNode(lhs, rhs), next, nil
	}
	n, err := parseLeaf(tok)
	if err != nil {
		return nil, from, err
	}
	return n, from + 1, nil
}

func parseLeaf(tok string) (*ast.Node, error) {
	if tag, ok := tagByToken[tok]; ok {
		return ast.Leaf(tag), nil
	}
	if strings.HasPrefix(tok, ":") {
		n, err := strconv.ParseInt(tok[1:], 10, 64)
		if err != nil {
			return nil, &LoadError{Msg: fmt.Sprintf("invalid variable token %q", tok)}
		}
		return ast.VariableNode(n), nil
	}
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return ast.NumberNode(n), nil
	}
	return nil, &LoadError{Msg: fmt.Sprintf("unknown token %q", tok)}
}
