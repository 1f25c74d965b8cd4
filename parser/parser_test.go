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

package parser_test

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/jedox/rulecube/ast"
	"github.com/jedox/rulecube/cube"
	"github.com/jedox/rulecube/cube/cubetest"
	"github.com/jedox/rulecube/internal/builtin"
	"github.com/jedox/rulecube/parser"
)

func loadD(t *testing.T) cube.Cube {
	t.Helper()
	data, err := os.ReadFile("../rule/testdata/d_cube.yaml")
	require.NoError(t, err)
	server, err := cubetest.Load(data)
	require.NoError(t, err)
	return server.SoleDatabase().FindCubeByName("D")
}

func TestParseRuleByNameDestinationFullMode(t *testing.T) {
	c := loadD(t)
	d := parser.NewDriver(parser.WithCube(c))
	rule, err := d.ParseRule("t.rule", []byte(`['Product':B,'Measure':Revenue] = 5`))
	require.NoError(t, err)
	require.NotNil(t, rule.Destination)
	require.Len(t, rule.Destination.ByName, 2)
	assert.Equal(t, "Product", *rule.Destination.ByName[0].Dim)
	assert.Equal(t, "B", *rule.Destination.ByName[0].Elem)
}

func TestParseRuleByIDDestination(t *testing.T) {
	c := loadD(t)
	d := parser.NewDriver(parser.WithCube(c))
	rule, err := d.ParseRule("t.rule", []byte(`{0:0,1:0,2:0} = 1`))
	require.NoError(t, err)
	require.NotNil(t, rule.Destination)
	require.Len(t, rule.Destination.ByID, 3)
}

func TestParseRuleEmptyPlaceholdersPreservePosition(t *testing.T) {
	c := loadD(t)
	d := parser.NewDriver(parser.WithCube(c))
	rule, err := d.ParseRule("t.rule", []byte(`['Product':A,,'Measure':Units] = 1`))
	require.NoError(t, err)
	require.Len(t, rule.Destination.ByName, 3)
	assert.Nil(t, rule.Destination.ByName[1].Dim)
	assert.Nil(t, rule.Destination.ByName[1].Elem)
}

func TestParseRuleConsolidationAndBaseOptions(t *testing.T) {
	c := loadD(t)
	d := parser.NewDriver(parser.WithCube(c))

	rule, err := d.ParseRule("t.rule", []byte(`['Measure':Revenue] = C: 2`))
	require.NoError(t, err)
	assert.Equal(t, ast.OptionConsolidation, rule.Option)

	rule, err = d.ParseRule("t.rule", []byte(`['Measure':Revenue] = N: 3`))
	require.NoError(t, err)
	assert.Equal(t, ast.OptionBase, rule.Option)
}

func TestParseRuleMarkerListWithSourceAndPaloMarker(t *testing.T) {
	c := loadD(t)
	d := parser.NewDriver(parser.WithCube(c))
	rule, err := d.ParseRule("t.rule", []byte(
		`['Measure':Revenue] = N: 1 @ [['Product':A]], PALO.MARKER('Sales','E','2023','A','Units')`))
	require.NoError(t, err)
	require.Len(t, rule.ExternalMarkers, 2)

	src, ok := rule.ExternalMarkers[0].(*ast.Source)
	require.True(t, ok)
	assert.True(t, src.Marker)

	call, ok := rule.ExternalMarkers[1].(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "PALO.MARKER", call.Name)
}

func TestParseRuleExternalMarkersRequireBaseOption(t *testing.T) {
	c := loadD(t)
	d := parser.NewDriver(parser.WithCube(c))
	_, err := d.ParseRule("t.rule", []byte(`['Measure':Revenue] = 1 @ [['Product':A]]`))
	require.Error(t, err)
}

func TestParseExprArithmeticAndPrecedence(t *testing.T) {
	d := parser.NewDriver(parser.WithWhitelist(builtin.Full().Names()...))
	expr, err := d.ParseExpr("t.expr", []byte(`2 + 3 * 4`))
	require.NoError(t, err)
	call, ok := expr.(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "+", call.Name)
	rhs, ok := call.Params[1].(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "*", rhs.Name)
}

func TestParseExprUnaryMinusDesugarsToSubtraction(t *testing.T) {
	d := parser.NewDriver(parser.WithWhitelist(builtin.Full().Names()...))
	expr, err := d.ParseExpr("t.expr", []byte(`-5`))
	require.NoError(t, err)
	call, ok := expr.(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "-", call.Name)
	zero, ok := call.Params[0].(*ast.Double)
	require.True(t, ok)
	assert.True(t, zero.Value.IsZero())
}

func TestParseExprVariableRequiresBang(t *testing.T) {
	d := parser.NewDriver(parser.WithWhitelist(builtin.Full().Names()...))
	expr, err := d.ParseExpr("t.expr", []byte(`!Product`))
	require.NoError(t, err)
	v, ok := expr.(*ast.Variable)
	require.True(t, ok)
	assert.Equal(t, "Product", v.Name)
}

func TestParseExprFunctionCallAndDottedName(t *testing.T) {
	d := parser.NewDriver(parser.WithWhitelist(builtin.Full().Names()...))
	expr, err := d.ParseExpr("t.expr", []byte(`IF(1,2,3)`))
	require.NoError(t, err)
	call, ok := expr.(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "IF", call.Name)
	require.Len(t, call.Params, 3)
}

func TestParseExprParseOnlyModeAcceptsWhitelistedCallsWithoutCube(t *testing.T) {
	d := parser.NewDriver(parser.WithWhitelist("SUM", "STET"))
	_, err := d.ParseExpr("t.expr", []byte(`SUM(1,2,3)`))
	require.NoError(t, err)

	_, err = d.ParseExpr("t.expr", []byte(`AVERAGE(1,2)`))
	require.Error(t, err, "AVERAGE is not in the whitelist")
}

func TestParseExprSourceAreaFormsByNameAndByIDAndMarker(t *testing.T) {
	c := loadD(t)
	d := parser.NewDriver(parser.WithCube(c))

	expr, err := d.ParseExpr("t.expr", []byte(`['Product':A]`))
	require.NoError(t, err)
	src := expr.(*ast.Source)
	assert.False(t, src.Marker)

	expr, err = d.ParseExpr("t.expr", []byte(`{1:0}`))
	require.NoError(t, err)
	src = expr.(*ast.Source)
	require.Len(t, src.ByID, 1)

	expr, err = d.ParseExpr("t.expr", []byte(`[['Product':A]]`))
	require.NoError(t, err)
	src = expr.(*ast.Source)
	assert.True(t, src.Marker)
}

func TestParseRuleSyntaxErrorReportsPosition(t *testing.T) {
	c := loadD(t)
	d := parser.NewDriver(parser.WithCube(c))
	_, err := d.ParseRule("t.rule", []byte(`['Product':A] 5`))
	require.Error(t, err)
	assert.Same(t, err, d.LastError())
}

func TestParseRuleUnknownFunctionInFullModeErrors(t *testing.T) {
	c := loadD(t)
	d := parser.NewDriver(parser.WithCube(c))
	_, err := d.ParseRule("t.rule", []byte(`['Measure':Revenue] = NOSUCHFUNC(1)`))
	require.Error(t, err)
}

// TestRuleRenderRoundTrip drives testdata/roundtrip.txtar: every
// "*.rule" file is parsed against the shared D cube and re-rendered,
// and the result must match its paired "*.want" file. This exercises
// the rule language's Render side against the grammar Parse accepts,
// catching any divergence between the two (e.g. omitted separators).
func TestRuleRenderRoundTrip(t *testing.T) {
	data, err := os.ReadFile("testdata/roundtrip.txtar")
	require.NoError(t, err)
	archive := txtar.Parse(data)

	wants := make(map[string]string)
	for _, f := range archive.Files {
		if name, ok := strings.CutSuffix(f.Name, ".want"); ok {
			wants[name] = strings.TrimRight(string(f.Data), "\n")
		}
	}
	require.NotEmpty(t, wants)

	c := loadD(t)
	for _, f := range archive.Files {
		name, ok := strings.CutSuffix(f.Name, ".rule")
		if !ok {
			continue
		}
		want, ok := wants[name]
		require.Truef(t, ok, "no %s.want entry for %s.rule", name, name)

		t.Run(name, func(t *testing.T) {
			d := parser.NewDriver(parser.WithCube(c))
			rule, err := d.ParseRule(name+".rule", f.Data)
			require.NoError(t, err)
			assert.Equal(t, want, rule.RenderString())
		})
	}
}
