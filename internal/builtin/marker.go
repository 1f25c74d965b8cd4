// Copyright 2024 The Rulecube Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package builtin

import (
	"fmt"

	"github.com/jedox/rulecube/ast"
	"github.com/jedox/rulecube/cube"
	"github.com/jedox/rulecube/internal/eval"
)

// paloMarkerFunc implements PALO.MARKER(db, cube, coord1, coord2, ...),
// the cross-cube source reference of spec.md §4.7. The first two
// parameters name the source database and cube; the remainder is a
// path, one entry per dimension of the source cube, each either a
// string constant or a dimension-name variable resolved against the
// destination cube's current coordinates — grounded on convertMarker
// in original_source/Olap/Rule.cpp.
type paloMarkerFunc struct{}

func (paloMarkerFunc) Name() string { return "PALO.MARKER" }

func (paloMarkerFunc) Validate(params []ast.Expr) error {
	if err := checkArityRange("PALO.MARKER", params, 2, -1); err != nil {
		return err
	}
	if _, ok := params[0].(*ast.String); !ok {
		return fmt.Errorf("PALO.MARKER: database argument must be a string constant")
	}
	if _, ok := params[1].(*ast.String); !ok {
		return fmt.Errorf("PALO.MARKER: cube argument must be a string constant")
	}
	return nil
}

func (paloMarkerFunc) ValueType(params []ast.Expr) ast.ValueType { return ast.Numeric }

// ResolveTarget resolves a PALO.MARKER call's database and cube names
// against the evaluating cube's server, and reports the source cube
// together with its path argument expressions. It is exported for use
// by package marker (C7), which needs the same resolution to build a
// Marker at rule-registration time rather than at eval time.
func ResolveTarget(c cube.Cube, params []ast.Expr) (cube.Cube, []ast.Expr, error) {
	dbName := params[0].(*ast.String).Value
	cubeName := params[1].(*ast.String).Value

	server := c.Database().Server()
	if server == nil {
		return nil, nil, fmt.Errorf("PALO.MARKER: no server bound to database '%s'", c.Database().Name())
	}
	db := server.FindDatabaseByName(dbName)
	if db == nil {
		return nil, nil, fmt.Errorf("PALO.MARKER: unknown database '%s'", dbName)
	}
	fromCube := db.FindCubeByName(cubeName)
	if fromCube == nil {
		return nil, nil, fmt.Errorf("PALO.MARKER: unknown cube '%s' in database '%s'", cubeName, dbName)
	}
	path := params[2:]
	if len(path) != len(fromCube.Dimensions()) {
		return nil, nil, fmt.Errorf(
			"PALO.MARKER: path length %d does not match dimension count %d of cube '%s'",
			len(path), len(fromCube.Dimensions()), cubeName)
	}
	return fromCube, path, nil
}

func (paloMarkerFunc) Eval(ctx *eval.Context, params []ast.Expr, path cube.CellPath) eval.Value {
	fromCube, pathExprs, err := ResolveTarget(ctx.Cube, params)
	if err != nil {
		ctx.Tracef("PALO.MARKER: %v", err)
		return eval.NumericValue(0)
	}

	dims := fromCube.Dimensions()
	coords := make([]cube.Identifier, len(dims))
	for i, pe := range pathExprs {
		name := pe.Eval(ctx, path).String0()
		e := dims[i].FindElementByName(name)
		if e == nil {
			return eval.NumericValue(0)
		}
		coords[i] = e.Identifier()
	}

	cv, err := fromCube.GetCellValue(cube.CellPath{Coordinates: coords}, ctx.User, ctx.History)
	if err != nil || !cv.Found {
		return eval.NumericValue(0)
	}
	if cv.Type == cube.String {
		return eval.StringValue(cv.Str)
	}
	return eval.NumericValue(cv.Double)
}

func init() {
	register(paloMarkerFunc{})
}
