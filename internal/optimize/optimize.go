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

// Package optimize implements the two rewrite checks spec.md §4.6 (C6)
// runs over a validated rule body: the STET-guard rewrite, which turns
// `IF(restriction, STET(), body)` (or the inclusive mirror image) into
// a narrower area restricted to body alone, and the linear-rule check,
// which recognizes `[] = CONSTANT * []` shaped rules so the cube layer
// can apply them incrementally. Both are grounded line-for-line on
// original_source/Parser/RuleOptimizer.cpp's checkStetRule and
// checkLinearRule.
package optimize

import (
	"github.com/jedox/rulecube/ast"
	"github.com/jedox/rulecube/cube"
)

// Result is the outcome of running Optimize over a rule body, mirroring
// the two independent fields RuleOptimizer keeps across a call to
// optimize(): restrictedRule/restrictedDimension/restrictedIdentifiers,
// and linearRule.
type Result struct {
	// Restricted is non-nil when the STET rewrite applies: the
	// narrower expression to evaluate within RestrictedDimension
	// limited to RestrictedIdentifiers, instead of the full body.
	Restricted            ast.Expr
	RestrictedDimension   cube.Dimension
	RestrictedIdentifiers cube.IDSet

	// Linear reports whether the (possibly STET-restricted) body has
	// shape "[] = CONSTANT * []" against a base, all-numeric
	// destination area of the same shape as the source.
	Linear bool
}

// Optimize runs the STET and linearity checks against body within the
// destination area of a BASE-option rule. area must be the rule's
// resolved destination cube.Area; option distinguishes BASE rules
// (eligible for linearity) from CONSOLIDATION/NONE rules (spec.md
// §4.6: linearity is only ever checked for BASE rules).
func Optimize(c cube.Cube, body ast.Expr, area cube.Area, option ast.RuleOption) *Result {
	res := &Result{}

	if restricted, dim, ids, ok := checkStetRule(c, body, area); ok {
		res.Restricted = restricted
		res.RestrictedDimension = dim
		res.RestrictedIdentifiers = ids
	}

	if option == ast.OptionBase {
		target := body
		if res.Restricted != nil {
			target = res.Restricted
		}
		res.Linear = checkLinearRule(c, target, area)
	}

	return res
}

// checkStetRule recognizes `IF(clause, STET(), body)` (exclusive: use
// body outside clause's restriction) and `IF(clause, body, STET())`
// (inclusive: use body inside clause's restriction), where clause is a
// dimension restriction recognized via ast.DimensionRestriction
// (spec.md §4.6).
func checkStetRule(c cube.Cube, node ast.Expr, area cube.Area) (ast.Expr, cube.Dimension, cube.IDSet, bool) {
	call, ok := node.(*ast.Call)
	if !ok || call.Name != "IF" || len(call.Params) != 3 {
		return nil, nil, nil, false
	}

	clause := call.Params[0]
	trueNode := call.Params[1]
	falseNode := call.Params[2]

	var nonStet ast.Expr
	var inclusive bool

	if isStet(trueNode) {
		nonStet = falseNode
		inclusive = false
	} else if isStet(falseNode) {
		nonStet = trueNode
		inclusive = true
	} else {
		return nil, nil, nil, false
	}

	clauseCall, ok := clause.(*ast.Call)
	if !ok || clauseCall.Func == nil {
		return nil, nil, nil, false
	}
	restriction, ok := clauseCall.Func.(ast.DimensionRestriction)
	if !ok {
		return nil, nil, nil, false
	}
	dim, ok := restriction.IsDimensionRestriction(c, clauseCall.Params)
	if !ok {
		return nil, nil, nil, false
	}

	elements := restriction.ComputeDimensionRestriction(c, clauseCall.Params)

	pos := dimensionPosition(c, dim)
	if pos < 0 {
		return nil, nil, nil, false
	}
	given := area[pos]

	computed := computeRestriction(dim, elements, given, inclusive)
	return nonStet, dim, computed, true
}

func isStet(n ast.Expr) bool {
	call, ok := n.(*ast.Call)
	return ok && call.Name == "STET" && len(call.Params) == 0
}

func dimensionPosition(c cube.Cube, dim cube.Dimension) int {
	for i, d := range c.Dimensions() {
		if d == dim {
			return i
		}
	}
	return -1
}

// computeRestriction mirrors RuleOptimizer::checkStetRule's four-way
// branch: inclusive vs exclusive, and given-restriction-present vs
// empty (spec.md §4.6).
func computeRestriction(dim cube.Dimension, elements []cube.Element, given cube.IDSet, inclusive bool) cube.IDSet {
	ids := make(cube.IDSet, 0, len(elements))
	for _, e := range elements {
		ids = append(ids, e.Identifier())
	}
	ids = cube.NewIDSet(ids...)

	if inclusive {
		if len(given) == 0 {
			return ids
		}
		return ids.Intersect(given)
	}

	// exclusive: restrict to the complement of ids.
	if len(given) == 0 {
		universe := make(cube.IDSet, 0, len(dim.Elements()))
		for _, e := range dim.Elements() {
			universe = append(universe, e.Identifier())
		}
		universe = cube.NewIDSet(universe...)
		return ids.Complement(universe)
	}
	return ids.Complement(given)
}

// checkLinearRule recognizes "[] = CONSTANT * []", "[] = [] * CONSTANT"
// and "[] = [] / CONSTANT" against a base, all-numeric destination area
// whose per-dimension restriction sizes match the source area exactly
// (spec.md §4.6).
func checkLinearRule(c cube.Cube, node ast.Expr, area cube.Area) bool {
	call, ok := node.(*ast.Call)
	if !ok || (call.Name != "*" && call.Name != "/") || len(call.Params) != 2 {
		return false
	}

	left, right := call.Params[0], call.Params[1]

	var sourceNode *ast.Source

	switch {
	case call.Name == "*" && isDouble(left) && isSource(right):
		sourceNode = right.(*ast.Source)
	case isSource(left) && isDouble(right):
		sourceNode = left.(*ast.Source)
	default:
		return false
	}

	dims := c.Dimensions()
	for i, dim := range dims {
		if i >= len(area) {
			break
		}
		for _, id := range area[i] {
			e := dim.FindElement(id)
			if e == nil || e.Type() != cube.Numeric {
				return false
			}
		}
	}

	sourceArea := sourceNode.Area()
	if sourceArea == nil {
		return false
	}
	for i := 0; i < len(area) && i < len(*sourceArea); i++ {
		if len(area[i]) != len((*sourceArea)[i]) {
			return false
		}
	}

	return true
}

func isDouble(n ast.Expr) bool { _, ok := n.(*ast.Double); return ok }
func isSource(n ast.Expr) bool { _, ok := n.(*ast.Source); return ok }
