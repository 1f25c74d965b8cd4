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
	"github.com/jedox/rulecube/ast"
	"github.com/jedox/rulecube/cube"
	"github.com/jedox/rulecube/internal/eval"
)

// compareFunc implements the six relational comparators of spec.md
// §4.4, returning 1.0/0.0. Through ast.DimensionRestriction, "=" reports
// a dimension restriction when one side is a Variable and the other a
// String constant, the shape the optimizer (package optimize, C6)
// recognizes for STET rewriting (spec.md §4.6); every other comparator,
// "<>" included, reports none.
type compareFunc struct {
	name string
	cmp  func(order int) bool
}

func (f *compareFunc) Name() string { return f.name }

func (f *compareFunc) Validate(params []ast.Expr) error {
	return checkArity(f.name, params, 2)
}

func (f *compareFunc) ValueType(params []ast.Expr) ast.ValueType { return ast.Numeric }

func boolValue(b bool) eval.Value {
	if b {
		return eval.NumericValue(1)
	}
	return eval.NumericValue(0)
}

func (f *compareFunc) Eval(ctx *eval.Context, params []ast.Expr, path cube.CellPath) eval.Value {
	a := params[0].Eval(ctx, path)
	b := params[1].Eval(ctx, path)
	if v, ok := propagateControl(a, b); ok {
		return v
	}
	if a.Type == eval.String || b.Type == eval.String {
		order := 0
		switch {
		case a.String0() < b.String0():
			order = -1
		case a.String0() > b.String0():
			order = 1
		}
		return boolValue(f.cmp(order))
	}
	order := a.Decimal.Cmp(&b.Decimal)
	return boolValue(f.cmp(order))
}

// asVariableEquality reports whether this call is `Variable = 'literal'`
// or `Variable <> 'literal'` (either operand order), per spec.md §4.6.
func asVariableEquality(params []ast.Expr) (*ast.Variable, string, bool) {
	if len(params) != 2 {
		return nil, "", false
	}
	if v, ok := params[0].(*ast.Variable); ok {
		if s, ok := params[1].(*ast.String); ok {
			return v, s.Value, true
		}
	}
	if v, ok := params[1].(*ast.Variable); ok {
		if s, ok := params[0].(*ast.String); ok {
			return v, s.Value, true
		}
	}
	return nil, "", false
}

func (f *compareFunc) IsDimensionRestriction(c cube.Cube, params []ast.Expr) (cube.Dimension, bool) {
	if f.name != "=" {
		return nil, false
	}
	v, _, ok := asVariableEquality(params)
	if !ok {
		return nil, false
	}
	dim := v.Dimension(c)
	return dim, dim != nil
}

func (f *compareFunc) ComputeDimensionRestriction(c cube.Cube, params []ast.Expr) []cube.Element {
	v, name, ok := asVariableEquality(params)
	if !ok {
		return nil
	}
	dim := v.Dimension(c)
	if dim == nil {
		return nil
	}
	if e := dim.FindElementByName(name); e != nil {
		return []cube.Element{e}
	}
	return nil
}

func init() {
	register(&compareFunc{name: "<", cmp: func(o int) bool { return o < 0 }})
	register(&compareFunc{name: "<=", cmp: func(o int) bool { return o <= 0 }})
	register(&compareFunc{name: "=", cmp: func(o int) bool { return o == 0 }})
	register(&compareFunc{name: ">=", cmp: func(o int) bool { return o >= 0 }})
	register(&compareFunc{name: ">", cmp: func(o int) bool { return o > 0 }})
	register(&compareFunc{name: "<>", cmp: func(o int) bool { return o != 0 }})
}
