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

// ifFunc implements IF(cond, t, f): cond is evaluated, and only the
// winning branch is evaluated — control tokens (STET/CONTINUE)
// produced by either cond or the winning branch propagate as-is
// (spec.md §4.6, §9).
type ifFunc struct{}

func (ifFunc) Name() string { return "IF" }

func (ifFunc) Validate(params []ast.Expr) error {
	return checkArity("IF", params, 3)
}

func (ifFunc) ValueType(params []ast.Expr) ast.ValueType { return ast.Unknown }

func (ifFunc) Eval(ctx *eval.Context, params []ast.Expr, path cube.CellPath) eval.Value {
	cond := params[0].Eval(ctx, path)
	if cond.IsControl() {
		return cond
	}
	if cond.Type == eval.Numeric && !cond.Decimal.IsZero() {
		return params[1].Eval(ctx, path)
	}
	if cond.Type == eval.String && cond.Str != "" {
		return params[1].Eval(ctx, path)
	}
	return params[2].Eval(ctx, path)
}

// stetFunc implements STET(): the control token meaning "use the
// base storage value for this cell, skip all remaining rules"
// (spec.md §4.1).
type stetFunc struct{}

func (stetFunc) Name() string { return "STET" }

func (stetFunc) Validate(params []ast.Expr) error { return checkArity("STET", params, 0) }

func (stetFunc) ValueType(params []ast.Expr) ast.ValueType { return ast.Stet }

func (stetFunc) Eval(ctx *eval.Context, params []ast.Expr, path cube.CellPath) eval.Value {
	return eval.StetValue()
}

// continueFunc implements CONTINUE(): the control token meaning "this
// rule declines, try the next applicable rule" (spec.md §4.1).
type continueFunc struct{}

func (continueFunc) Name() string { return "CONTINUE" }

func (continueFunc) Validate(params []ast.Expr) error { return checkArity("CONTINUE", params, 0) }

func (continueFunc) ValueType(params []ast.Expr) ast.ValueType { return ast.Continue }

func (continueFunc) Eval(ctx *eval.Context, params []ast.Expr, path cube.CellPath) eval.Value {
	return eval.ContinueValue()
}

func init() {
	register(ifFunc{})
	register(stetFunc{})
	register(continueFunc{})
}
