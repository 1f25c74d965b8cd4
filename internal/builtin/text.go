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
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jedox/rulecube/ast"
	"github.com/jedox/rulecube/cube"
	"github.com/jedox/rulecube/internal/eval"
)

var (
	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)
)

// clampSubstring mirrors the original source's tolerant substring
// semantics: out-of-range start/length arguments clamp instead of
// panicking or erroring (spec.md §4.4, Edge Cases).
func clampSubstring(s string, start, length int) string {
	r := []rune(s)
	if start < 0 {
		start = 0
	}
	if start > len(r) {
		start = len(r)
	}
	end := start + length
	if length < 0 || end > len(r) {
		end = len(r)
	}
	if end < start {
		end = start
	}
	return string(r[start:end])
}

func intArg(v eval.Value) int {
	return int(v.Float64())
}

// lenFunc implements LEN(s).
type lenFunc struct{}

func (lenFunc) Name() string { return "LEN" }

func (lenFunc) Validate(params []ast.Expr) error { return checkArity("LEN", params, 1) }

func (lenFunc) ValueType(params []ast.Expr) ast.ValueType { return ast.Numeric }

func (lenFunc) Eval(ctx *eval.Context, params []ast.Expr, path cube.CellPath) eval.Value {
	s := params[0].Eval(ctx, path)
	if v, ok := propagateControl(s); ok {
		return v
	}
	return eval.NumericValue(float64(len([]rune(s.String0()))))
}

// caseFunc implements UPPER(s) / LOWER(s), and additionally implements
// ast.DimensionTransform, reporting the folded name of each element
// when the argument is a Variable. Package optimize does not consult
// this capability.
type caseFunc struct {
	name string
	fold func(string) string
}

func (f *caseFunc) Name() string { return f.name }

func (f *caseFunc) Validate(params []ast.Expr) error { return checkArity(f.name, params, 1) }

func (f *caseFunc) ValueType(params []ast.Expr) ast.ValueType { return ast.String }

func (f *caseFunc) Eval(ctx *eval.Context, params []ast.Expr, path cube.CellPath) eval.Value {
	s := params[0].Eval(ctx, path)
	if v, ok := propagateControl(s); ok {
		return v
	}
	return eval.StringValue(f.fold(s.String0()))
}

func (f *caseFunc) IsDimensionTransformation(c cube.Cube, params []ast.Expr) (cube.Dimension, bool) {
	if len(params) != 1 {
		return nil, false
	}
	v, ok := params[0].(*ast.Variable)
	if !ok {
		return nil, false
	}
	dim := v.Dimension(c)
	return dim, dim != nil
}

// ComputeDimensionTransformations maps each of dim's elements to the
// folded name the call would produce when the variable is bound to
// that element.
func (f *caseFunc) ComputeDimensionTransformations(c cube.Cube, params []ast.Expr) map[cube.Element]string {
	v := params[0].(*ast.Variable)
	dim := v.Dimension(c)
	if dim == nil {
		return nil
	}
	out := make(map[cube.Element]string, len(dim.Elements()))
	for _, e := range dim.Elements() {
		out[e] = f.fold(e.Name())
	}
	return out
}

// concatFunc implements CONCAT(a, b, ...).
type concatFunc struct{}

func (concatFunc) Name() string { return "CONCAT" }

func (concatFunc) Validate(params []ast.Expr) error { return checkArityRange("CONCAT", params, 1, -1) }

func (concatFunc) ValueType(params []ast.Expr) ast.ValueType { return ast.String }

func (concatFunc) Eval(ctx *eval.Context, params []ast.Expr, path cube.CellPath) eval.Value {
	var b strings.Builder
	for _, p := range params {
		v := p.Eval(ctx, path)
		if c, ok := propagateControl(v); ok {
			return c
		}
		b.WriteString(v.String0())
	}
	return eval.StringValue(b.String())
}

// substringFunc implements LEFT/RIGHT/MID with clamped bounds.
type substringFunc struct {
	name string
	cut  func(s string, args []int) string
}

func (f *substringFunc) Name() string { return f.name }

func (f *substringFunc) Validate(params []ast.Expr) error {
	if f.name == "MID" {
		return checkArity(f.name, params, 3)
	}
	return checkArity(f.name, params, 2)
}

func (f *substringFunc) ValueType(params []ast.Expr) ast.ValueType { return ast.String }

func (f *substringFunc) Eval(ctx *eval.Context, params []ast.Expr, path cube.CellPath) eval.Value {
	vals := make([]eval.Value, len(params))
	for i, p := range params {
		vals[i] = p.Eval(ctx, path)
	}
	if v, ok := propagateControl(vals...); ok {
		return v
	}
	args := make([]int, len(vals)-1)
	for i := 1; i < len(vals); i++ {
		args[i-1] = intArg(vals[i])
	}
	return eval.StringValue(f.cut(vals[0].String0(), args))
}

func init() {
	register(lenFunc{})
	register(&caseFunc{name: "UPPER", fold: func(s string) string { return upperCaser.String(s) }})
	register(&caseFunc{name: "LOWER", fold: func(s string) string { return lowerCaser.String(s) }})
	register(concatFunc{})
	register(&substringFunc{name: "LEFT", cut: func(s string, a []int) string { return clampSubstring(s, 0, a[0]) }})
	register(&substringFunc{name: "RIGHT", cut: func(s string, a []int) string {
		n := len([]rune(s))
		start := n - a[0]
		return clampSubstring(s, start, a[0])
	}})
	register(&substringFunc{name: "MID", cut: func(s string, a []int) string { return clampSubstring(s, a[0]-1, a[1]) }})
}
