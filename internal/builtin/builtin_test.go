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

package builtin_test

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jedox/rulecube/ast"
	"github.com/jedox/rulecube/cube"
	"github.com/jedox/rulecube/cube/cubetest"
	"github.com/jedox/rulecube/internal/builtin"
	"github.com/jedox/rulecube/internal/eval"
	"github.com/jedox/rulecube/token"
)

func loadD(t *testing.T) cube.Cube {
	t.Helper()
	data, err := os.ReadFile("../../rule/testdata/d_cube.yaml")
	require.NoError(t, err)
	server, err := cubetest.Load(data)
	require.NoError(t, err)
	return server.SoleDatabase().FindCubeByName("D")
}

func lookup(t *testing.T, name string) ast.Function {
	t.Helper()
	fn, ok := builtin.Full().Lookup(name)
	require.True(t, ok, "function %q must be registered", name)
	return fn
}

func num(f float64) *ast.Double { return ast.NewDouble(token.NoPos, f) }

func str(s string) *ast.String { return &ast.String{Value: s} }

func evalCall(fn ast.Function, params ...ast.Expr) eval.Value {
	return fn.Eval(&eval.Context{}, params, cube.CellPath{})
}

func TestArithOperators(t *testing.T) {
	cases := []struct {
		name string
		a, b float64
		want float64
	}{
		{"+", 2, 3, 5},
		{"-", 5, 3, 2},
		{"*", 4, 3, 12},
		{"/", 9, 3, 3},
	}
	for _, c := range cases {
		fn := lookup(t, c.name)
		v := evalCall(fn, num(c.a), num(c.b))
		assert.Equal(t, eval.Numeric, v.Type)
		assert.Equal(t, c.want, v.Float64())
	}
}

func TestDivisionByZeroReturnsZero(t *testing.T) {
	fn := lookup(t, "/")
	v := evalCall(fn, num(5), num(0))
	assert.Equal(t, eval.Numeric, v.Type)
	assert.Equal(t, 0.0, v.Float64())
}

func TestArithPropagatesControlTokens(t *testing.T) {
	fn := lookup(t, "+")
	stet := lookup(t, "STET")
	stetVal := evalCall(stet)
	v := fn.Eval(&eval.Context{}, []ast.Expr{num(1), stubExpr{stetVal}}, cube.CellPath{})
	assert.Equal(t, eval.Stet, v.Type)
}

// stubExpr lets a test inject a pre-built eval.Value as if it were an
// evaluated AST node, without needing a full Call/registry round trip.
type stubExpr struct{ v eval.Value }

func (s stubExpr) Pos() token.Position                                   { return token.NoPos }
func (s stubExpr) Clone() ast.Node                                       { return s }
func (s stubExpr) Validate(v *ast.Validator) error                       { return nil }
func (s stubExpr) ValueType() ast.ValueType                              { return s.v.Type }
func (s stubExpr) Eval(ctx *eval.Context, path cube.CellPath) eval.Value { return s.v }
func (s stubExpr) HasElement(dim cube.Dimension, elem cube.Identifier) bool {
	return false
}
func (s stubExpr) Render(w *strings.Builder)                                  {}
func (s stubExpr) RenderXML(w *strings.Builder, indent int, outputNames bool) {}
func (s stubExpr) CollectMarkers(out *[]ast.Node)                             {}

func TestCompareOperators(t *testing.T) {
	lt := lookup(t, "<")
	assert.Equal(t, 1.0, evalCall(lt, num(1), num(2)).Float64())
	assert.Equal(t, 0.0, evalCall(lt, num(2), num(1)).Float64())

	eq := lookup(t, "=")
	assert.Equal(t, 1.0, evalCall(eq, str("a"), str("a")).Float64())
	assert.Equal(t, 0.0, evalCall(eq, str("a"), str("b")).Float64())
}

func TestCompareDimensionRestrictionOnVariableEquality(t *testing.T) {
	c := loadD(t)
	v := &ast.Variable{Name: "Product"}
	require.NoError(t, v.Validate(&ast.Validator{Cube: c}))

	eq := lookup(t, "=").(interface {
		IsDimensionRestriction(cube.Cube, []ast.Expr) (cube.Dimension, bool)
		ComputeDimensionRestriction(cube.Cube, []ast.Expr) []cube.Element
	})
	params := []ast.Expr{v, str("B")}
	dim, ok := eq.IsDimensionRestriction(c, params)
	require.True(t, ok)
	assert.Equal(t, "Product", dim.Name())

	elems := eq.ComputeDimensionRestriction(c, params)
	require.Len(t, elems, 1)
	assert.Equal(t, "B", elems[0].Name())
}

func TestIfFuncBranchesOnNumericCondition(t *testing.T) {
	iff := lookup(t, "IF")
	v := evalCall(iff, num(1), num(10), num(20))
	assert.Equal(t, 10.0, v.Float64())
	v = evalCall(iff, num(0), num(10), num(20))
	assert.Equal(t, 20.0, v.Float64())
}

func TestStetAndContinueAreControlTokens(t *testing.T) {
	stet := evalCall(lookup(t, "STET"))
	assert.Equal(t, eval.Stet, stet.Type)
	assert.True(t, stet.IsControl())

	cont := evalCall(lookup(t, "CONTINUE"))
	assert.Equal(t, eval.Continue, cont.Type)
	assert.True(t, cont.IsControl())
}

func TestAggregateSumMinMaxCount(t *testing.T) {
	assert.Equal(t, 6.0, evalCall(lookup(t, "SUM"), num(1), num(2), num(3)).Float64())
	assert.Equal(t, 1.0, evalCall(lookup(t, "MIN"), num(3), num(1), num(2)).Float64())
	assert.Equal(t, 3.0, evalCall(lookup(t, "MAX"), num(3), num(1), num(2)).Float64())
	assert.Equal(t, 3.0, evalCall(lookup(t, "COUNT"), num(9), num(9), num(9)).Float64())
}

func TestAggregateProductAlwaysZero(t *testing.T) {
	v := evalCall(lookup(t, "PRODUCT"), num(2), num(3), num(4))
	assert.Equal(t, 0.0, v.Float64(), "PRODUCT's accumulator starts at 0, so it is always 0")
}

func TestAggregateAndOrInverseAccumulation(t *testing.T) {
	assert.Equal(t, 1.0, evalCall(lookup(t, "AND"), num(1), num(2), num(3)).Float64())
	assert.Equal(t, 0.0, evalCall(lookup(t, "AND"), num(1), num(0), num(3)).Float64())

	assert.Equal(t, 0.0, evalCall(lookup(t, "OR"), num(0), num(0)).Float64())
	assert.Equal(t, 1.0, evalCall(lookup(t, "OR"), num(0), num(5)).Float64())
}

func TestLenUpperLowerConcat(t *testing.T) {
	assert.Equal(t, 5.0, evalCall(lookup(t, "LEN"), str("hello")).Float64())
	assert.Equal(t, "HELLO", evalCall(lookup(t, "UPPER"), str("Hello")).String0())
	assert.Equal(t, "hello", evalCall(lookup(t, "LOWER"), str("Hello")).String0())
	assert.Equal(t, "ab-cd", evalCall(lookup(t, "CONCAT"), str("ab"), str("-"), str("cd")).String0())
}

func TestSubstringFamilyClampsOutOfRangeArgs(t *testing.T) {
	left := lookup(t, "LEFT")
	assert.Equal(t, "he", evalCall(left, str("hello"), num(2)).String0())
	assert.Equal(t, "hello", evalCall(left, str("hello"), num(99)).String0())

	right := lookup(t, "RIGHT")
	assert.Equal(t, "llo", evalCall(right, str("hello"), num(3)).String0())
	assert.Equal(t, "hello", evalCall(right, str("hello"), num(99)).String0())

	mid := lookup(t, "MID")
	assert.Equal(t, "ell", evalCall(mid, str("hello"), num(2), num(3)).String0())
	assert.Equal(t, "", evalCall(mid, str("hello"), num(99), num(3)).String0())
}

func TestCaseFuncDimensionTransformation(t *testing.T) {
	c := loadD(t)
	v := &ast.Variable{Name: "Product"}
	require.NoError(t, v.Validate(&ast.Validator{Cube: c}))

	upper := lookup(t, "UPPER").(interface {
		IsDimensionTransformation(cube.Cube, []ast.Expr) (cube.Dimension, bool)
		ComputeDimensionTransformations(cube.Cube, []ast.Expr) map[cube.Element]string
	})
	params := []ast.Expr{v}
	dim, ok := upper.IsDimensionTransformation(c, params)
	require.True(t, ok)
	assert.Equal(t, "Product", dim.Name())

	folded := upper.ComputeDimensionTransformations(c, params)
	a := dim.FindElementByName("A")
	require.NotNil(t, a)
	assert.Equal(t, "A", folded[a])
}

func TestWhitelistAndNames(t *testing.T) {
	names := builtin.Full().Names()
	assert.Contains(t, names, "SUM")
	assert.Contains(t, names, "STET")

	wl := builtin.Whitelist("IF", "STET")
	assert.True(t, wl["IF"])
	assert.False(t, wl["SUM"])
}
