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
	"github.com/cockroachdb/apd/v2"

	"github.com/jedox/rulecube/ast"
	"github.com/jedox/rulecube/cube"
	"github.com/jedox/rulecube/internal/eval"
)

// arithFunc implements the four binary arithmetic operators of
// spec.md §4.4 using github.com/cockroachdb/apd/v2 decimal arithmetic
// rather than float64, so chained rule evaluation does not accumulate
// binary floating-point rounding error (SPEC_FULL.md §4.1).
type arithFunc struct {
	name string
	op   func(ctx *apd.Context, res, a, b *apd.Decimal) (apd.Condition, error)
}

func (f *arithFunc) Name() string { return f.name }

func (f *arithFunc) Validate(params []ast.Expr) error {
	return checkArity(f.name, params, 2)
}

func (f *arithFunc) ValueType(params []ast.Expr) ast.ValueType { return ast.Numeric }

func (f *arithFunc) Eval(ctx *eval.Context, params []ast.Expr, path cube.CellPath) eval.Value {
	a := params[0].Eval(ctx, path)
	b := params[1].Eval(ctx, path)
	if v, ok := propagateControl(a, b); ok {
		return v
	}
	var res apd.Decimal
	da, db := a.Decimal, b.Decimal
	dctx := eval.DecimalContext()
	if _, err := f.op(dctx, &res, &da, &db); err != nil {
		return eval.NumericValue(0)
	}
	return eval.NumericDecimal(res)
}

func init() {
	register(&arithFunc{name: "+", op: func(c *apd.Context, r, a, b *apd.Decimal) (apd.Condition, error) { return c.Add(r, a, b) }})
	register(&arithFunc{name: "-", op: func(c *apd.Context, r, a, b *apd.Decimal) (apd.Condition, error) { return c.Sub(r, a, b) }})
	register(&arithFunc{name: "*", op: func(c *apd.Context, r, a, b *apd.Decimal) (apd.Condition, error) { return c.Mul(r, a, b) }})
	register(&arithFunc{name: "/", op: func(c *apd.Context, r, a, b *apd.Decimal) (apd.Condition, error) {
		if b.IsZero() {
			r.SetFinite(0, 0)
			return 0, nil
		}
		return c.Quo(r, a, b)
	}})
}
