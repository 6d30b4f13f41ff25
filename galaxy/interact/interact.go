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

// Package interact implements the top-level fixed-point protocol
// (flag, state, data) <- galaxy(state, vector), driving the network
// round-trip with a remote alien server when the flag requests it
// (see spec.md §4.5 and §6).
package interact

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/galaxy-lang/galaxy/galaxy/ast"
	"github.com/galaxy-lang/galaxy/galaxy/eval"
	"github.com/galaxy-lang/galaxy/galaxy/load"
)

// SendFn is the host-supplied collaborator that POSTs a modulated
// value to the alien server and returns its modulated reply. The
// driver loop depends only on this function type, not on any HTTP
// mechanics; HTTPSend is one concrete implementation.
type SendFn func(encoded string) (string, error)

// TransportError wraps an error returned by a Driver's SendFn,
// propagated to the caller unchanged in substance (see spec.md §7).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("interact: send: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// ShapeError reports that a value handed to the driver did not have
// the shape the protocol requires (e.g. galaxy's result is not a
// 3-element list, or a picture layer's point is not cons(x, y)).
type ShapeError struct {
	Msg string
}

func (e *ShapeError) Error() string { return fmt.Sprintf("interact: %s", e.Msg) }

// Driver owns one Evaluator and the galaxy global id (0) and runs the
// interact fixed point described in spec.md §4.5.
type Driver struct {
	eval *eval.Evaluator
	// Log receives one line per successful Interact call (request id
	// and flag; state and data sizes are not logged) when non-nil.
	// Library packages in
	// this repo are otherwise silent; only Driver and cmd/galaxyctl
	// log, matching how sneller's expr/ion/vm packages never log but
	// its cmd/* front ends do.
	Log *log.Logger
}

// New builds a Driver over a galaxy program's parsed globals.
func New(globals load.Globals) *Driver {
	return &Driver{eval: eval.New(globals)}
}

// Interact evaluates `ap (ap galaxy state) vector`, deep-forces the
// result, and splits it into (flag, new_state, data) via three
// GetListItem calls, per spec.md §4.5.
func (d *Driver) Interact(state, vector *ast.Node) (flag int64, newState, data *ast.Node, err error) {
	id := uuid.New()
	call := ast.ApNode(ast.ApNode(ast.VariableNode(0), state), vector)
	result, err := d.eval.Evaluate(call)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("interact: evaluate: %w", err)
	}
	result, err = d.eval.DeepForce(result)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("interact: deep-force: %w", err)
	}
	flagNode, ok := result.GetListItem(0)
	if !ok {
		return 0, nil, nil, &ShapeError{Msg: "galaxy result is not a list"}
	}
	flagVal, ok := flagNode.GetNumber()
	if !ok {
		return 0, nil, nil, &ShapeError{Msg: "galaxy result's flag element is not a number"}
	}
	stateNode, ok := result.GetListItem(1)
	if !ok {
		return 0, nil, nil, &ShapeError{Msg: "galaxy result is missing the state element"}
	}
	dataNode, ok := result.GetListItem(2)
	if !ok {
		return 0, nil, nil, &ShapeError{Msg: "galaxy result is missing the data element"}
	}
	if d.Log != nil {
		d.Log.Printf("interact %s: flag=%d", id, flagVal)
	}
	return flagVal, stateNode, dataNode, nil
}

// Run drives the full fixed-point loop described in spec.md §4.5:
// it calls Interact repeatedly, dispatching to send whenever the
// returned flag is non-zero (re-entering the loop with the demodulated
// reply as the next vector) and invoking onPicture whenever flag is
// zero (onPicture's returned node, the next user click, becomes the
// next vector).
//
// Either collaborator may be nil only if the corresponding flag value
// never occurs for the program being driven; a nil collaborator
// invoked at runtime returns a ShapeError.
func (d *Driver) Run(state, vector *ast.Node, send SendFn, onPicture func(data *ast.Node) (*ast.Node, error)) error {
	for {
		flag, newState, data, err := d.Interact(state, vector)
		if err != nil {
			return err
		}
		state = newState
		if flag == 0 {
			if onPicture == nil {
				return &ShapeError{Msg: "flag is 0 but no picture collaborator was provided"}
			}
			next, err := onPicture(data)
			if err != nil {
				return err
			}
			vector = next
			continue
		}
		if send == nil {
			return &ShapeError{Msg: "flag is non-zero but no send collaborator was provided"}
		}
		reply, err := sendData(send, data)
		if err != nil {
			return err
		}
		vector = reply
	}
}
