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

import "github.com/galaxy-lang/galaxy/galaxy/ast"

// Point is one pixel of a picture layer, per spec.md §6's rendering
// contract: data, when flag is 0, is a list of layers, each layer a
// list of cons(x, y) points.
type Point struct {
	X, Y int64
}

// Pictures extracts the list-of-layers-of-points shape named in
// spec.md §6 out of a deep-forced data value. It reports a ShapeError
// if any layer or point does not have the expected shape, rather than
// silently dropping malformed entries; ast.ForEach's visit callback
// has no way to signal failure mid-walk, so the cons chains are
// walked by hand here instead.
func Pictures(data *ast.Node) ([][]Point, error) {
	var layers [][]Point
	cur := data
	for !cur.IsNilLeaf() {
		if cur.Tag() != ast.Cons || cur.NumChildren() != 2 {
			return nil, &ShapeError{Msg: "picture data is not a nil-terminated list of layers"}
		}
		points, err := layerPoints(cur.Child(0))
		if err != nil {
			return nil, err
		}
		layers = append(layers, points)
		cur = cur.Child(1)
	}
	return layers, nil
}

func layerPoints(layer *ast.Node) ([]Point, error) {
	var points []Point
	cur := layer
	for !cur.IsNilLeaf() {
		if cur.Tag() != ast.Cons || cur.NumChildren() != 2 {
			return nil, &ShapeError{Msg: "picture layer is not a nil-terminated list of points"}
		}
		p := cur.Child(0)
		if p.Tag() != ast.Cons || p.NumChildren() != 2 {
			return nil, &ShapeError{Msg: "picture point is not a cons of two numbers"}
		}
		xv, xok := p.Child(0).GetNumber()
		yv, yok := p.Child(1).GetNumber()
		if !xok || !yok {
			return nil, &ShapeError{Msg: "picture point is not a cons of two numbers"}
		}
		points = append(points, Point{X: xv, Y: yv})
		cur = cur.Child(1)
	}
	return points, nil
}
