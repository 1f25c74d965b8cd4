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

// Package rule implements the registered-rule lifecycle of spec.md
// §4.5 (C8): binding a validated AST to a cube, lazily rebuilding its
// optimizer and area caches whenever the cube's dimension token
// changes, evaluating it against a cell path with STET/CONTINUE
// projection, and maintaining its marker registrations. Grounded on
// original_source/Olap/Rule.cpp.
package rule

import (
	"fmt"
	"sync"

	"github.com/jedox/rulecube/ast"
	"github.com/jedox/rulecube/cube"
	"github.com/jedox/rulecube/internal/builtin"
	"github.com/jedox/rulecube/internal/eval"
	"github.com/jedox/rulecube/internal/optimize"
	"github.com/jedox/rulecube/marker"
)

// Rule binds a validated rule AST to the cube it targets. A Rule is
// safe for concurrent use: every exported method takes an internal
// mutex around its cached derived state (restricted area, contains
// closures, markers). The C++ source this is grounded on assumes a
// single request thread per cube and takes no such lock; this module
// deliberately adds one rather than replicate that assumption (see
// DESIGN.md).
type Rule struct {
	mu sync.Mutex

	id   int64
	cube cube.Cube
	expr *ast.RuleExpr

	cubeToken    uint64
	tokenChecked bool

	isOptimized           bool
	restricted            ast.Expr
	restrictedDimension   cube.Dimension
	restrictedIdentifiers cube.IDSet
	restrictedArea        cube.Area
	linear                bool

	containsArea           cube.Area
	containsRestrictedArea cube.Area

	markers []*marker.Marker
}

// Outcome is the result of evaluating a Rule against a cell path: a
// CellValueType, or one of the two control-flow signals that never
// reach cube storage (spec.md §4.1, §4.5).
type Outcome struct {
	Value    cube.CellValueType
	Stet     bool // use the base storage value, stop trying rules
	Continue bool // this rule declines, try the next applicable rule
}

// New validates expr against c and, only on success, constructs a Rule
// that takes ownership of expr: the caller must not mutate or reuse
// expr afterwards. On a validation error expr is returned untouched
// and ownership stays with the caller — the original C++
// RuleCreateHandler leaked the AST on this path; this constructor's
// success-only transfer fixes that (spec.md §9).
func New(id int64, c cube.Cube, expr *ast.RuleExpr) (*Rule, error) {
	v := &ast.Validator{Cube: c}
	if err := expr.Validate(v); err != nil {
		return nil, err
	}
	r := &Rule{id: id, cube: c, expr: expr}
	r.computeMarkersLocked()
	return r, nil
}

// ID returns the rule's identifier, used as CellValueType.RuleID and
// as the RuleID half of a recursion-guard HistoryKey.
func (r *Rule) ID() int64 { return r.id }

// Remove deregisters every marker this rule owns from the cubes they
// reference, the Go equivalent of the C++ source's Rule destructor and
// removeMarkers.
func (r *Rule) Remove() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeMarkersLocked()
}

// GetValue evaluates the rule's (possibly STET-restricted) body
// against path, projecting the result onto path's cell type and
// detecting the two control tokens (spec.md §4.1, §4.5).
func (r *Rule) GetValue(path cube.CellPath, user any, history cube.History) Outcome {
	r.mu.Lock()
	body, dims := r.bodyLocked()
	if r.isOptimized && !cube.IsInArea(path, r.restrictedArea) {
		// The restricted rewrite only stands in for the full body inside
		// the optimizer's narrowed area; elsewhere the full body decides.
		body = r.expr.Body
	}
	r.mu.Unlock()

	ctx := &eval.Context{Cube: r.cube, User: user, History: history}
	result := body.Eval(ctx, path)

	switch result.Type {
	case eval.Stet:
		return Outcome{Stet: true}
	case eval.Continue:
		return Outcome{Continue: true}
	}

	if path.PathType(dims) == cube.PathString {
		v := cube.CellValueType{Type: cube.String, RuleID: r.id}
		if result.Type == eval.String {
			v.Str = result.String0()
		}
		return Outcome{Value: v}
	}

	v := cube.CellValueType{Type: cube.Numeric, RuleID: r.id}
	if result.Type == eval.Numeric {
		v.Double = result.Float64()
	}
	return Outcome{Value: v}
}

// bodyLocked returns the expression to evaluate (the optimizer's
// restricted rewrite, if applicable) and the cube's current dimension
// list, refreshing cached state first if the cube's token changed.
func (r *Rule) bodyLocked() (ast.Expr, []cube.Dimension) {
	r.checkCubeToken()
	if r.isOptimized {
		return r.restricted, r.cube.Dimensions()
	}
	return r.expr.Body, r.cube.Dimensions()
}

// WithinArea reports whether path lies in the rule's destination area,
// ignoring rule option and optimizer state.
func (r *Rule) WithinArea(path cube.CellPath) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkCubeToken()
	return cube.IsInArea(path, r.destinationArea())
}

// WithinRestricted reports whether path lies in the optimizer's
// narrowed destination area.
func (r *Rule) WithinRestricted(path cube.CellPath) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkCubeToken()
	return cube.IsInArea(path, r.restrictedArea)
}

// Within reports whether the rule applies to path: within its
// destination area and consistent with its BASE/CONSOLIDATION/NONE
// option (spec.md §4.5). Rules linear in a BASE option are applied to
// consolidations by the cube layer at a later stage, outside this
// module's scope.
func (r *Rule) Within(path cube.CellPath) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkCubeToken()
	if !cube.IsInArea(path, r.destinationArea()) {
		return false
	}
	dims := r.cube.Dimensions()
	switch r.expr.Option {
	case ast.OptionNone:
		return true
	case ast.OptionConsolidation:
		return !path.IsBase(dims)
	case ast.OptionBase:
		return path.IsBase(dims)
	default:
		return false
	}
}

// Contains reports whether path lies within the ancestor-closure of
// the rule's destination area (spec.md §4.5: a consolidated cell
// "contains" the rule if any of its base descendants does).
func (r *Rule) Contains(path cube.CellPath) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkCubeToken()
	return cube.IsInArea(path, r.containsArea)
}

// ContainsRestricted is Contains narrowed to the optimizer's
// restricted area.
func (r *Rule) ContainsRestricted(path cube.CellPath) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkCubeToken()
	return cube.IsInArea(path, r.containsRestrictedArea)
}

// IsLinearRule reports whether the optimizer recognized this BASE rule
// as linear (spec.md §4.6).
func (r *Rule) IsLinearRule() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkCubeToken()
	return r.linear
}

// IsRestrictedRule reports whether the STET rewrite applies.
func (r *Rule) IsRestrictedRule() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkCubeToken()
	return r.isOptimized
}

func (r *Rule) destinationArea() cube.Area {
	if a := r.expr.Destination.Area(); a != nil {
		return *a
	}
	return nil
}

// checkCubeToken refreshes the optimizer and contains-closure caches
// whenever the cube's dimension token has advanced since the last
// refresh, mirroring Rule::checkCubeToken.
func (r *Rule) checkCubeToken() {
	if r.tokenChecked && r.cube.Token() == r.cubeToken {
		return
	}
	r.optimizeRuleLocked()
	r.containsArea = computeContains(r.cube, r.destinationArea())
	if r.isOptimized {
		r.containsRestrictedArea = computeContains(r.cube, r.restrictedArea)
	} else {
		r.containsRestrictedArea = nil
	}
	r.cubeToken = r.cube.Token()
	r.tokenChecked = true
}

// optimizeRuleLocked re-runs the optimizer. Rules with markers are
// never optimized (spec.md §4.6: markers require the unrestricted
// body so cross-cube dependencies stay correct).
func (r *Rule) optimizeRuleLocked() {
	r.isOptimized = false
	r.linear = false
	r.restricted = nil
	r.restrictedDimension = nil
	r.restrictedIdentifiers = nil

	if len(r.markers) != 0 {
		return
	}

	area := r.destinationArea()
	res := optimize.Optimize(r.cube, r.expr.Body, area, r.expr.Option)

	if res.Restricted != nil {
		r.isOptimized = true
		r.restricted = res.Restricted
		r.restrictedDimension = res.RestrictedDimension
		r.restrictedIdentifiers = res.RestrictedIdentifiers

		r.restrictedArea = area.Clone()
		for i, d := range r.cube.Dimensions() {
			if d == r.restrictedDimension {
				r.restrictedArea[i] = r.restrictedIdentifiers
				break
			}
		}
	}
	r.linear = res.Linear
}

// computeContains expands area into the ancestor-closure Area used by
// Contains: every consolidated ancestor of a restricted element is
// added alongside it, so a consolidated cell containing any restricted
// base element also "contains" the rule.
func computeContains(c cube.Cube, area cube.Area) cube.Area {
	if area == nil {
		return nil
	}
	dims := c.Dimensions()
	out := make(cube.Area, len(area))
	for i, s := range area {
		if i >= len(dims) || len(s) == 0 {
			continue
		}
		dim := dims[i]
		var ids cube.IDSet
		for _, id := range s {
			e := dim.FindElement(id)
			if e == nil {
				continue
			}
			for _, a := range dim.Ancestors(e) {
				ids = append(ids, a.Identifier())
			}
		}
		out[i] = cube.NewIDSet(ids...)
	}
	return out
}

// ComputeMarkers rebuilds the rule's marker registrations from its
// external and internal marker nodes, registering each with its
// from/to cubes. A marker that fails to convert (unknown database,
// dimension mismatch) is skipped, mirroring Rule::computeMarkers'
// catch-and-log behavior.
func (r *Rule) ComputeMarkers() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.computeMarkersLocked()
}

func (r *Rule) computeMarkersLocked() []error {
	r.removeMarkersLocked()

	destArea := r.destinationArea()
	if destArea == nil {
		return nil
	}

	var nodes []ast.Node
	nodes = append(nodes, r.expr.ExternalMarkers...)
	nodes = append(nodes, r.expr.InternalMarkers()...)

	var errs []error
	for _, n := range nodes {
		m, err := convertMarker(r.cube, destArea, n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m.FromCube.AddFromMarker(m)
		m.ToCube.AddToMarker(m)
		r.markers = append(r.markers, m)
	}
	return errs
}

func (r *Rule) removeMarkersLocked() {
	old := r.markers
	r.markers = nil
	for _, m := range old {
		m.FromCube.RemoveFromMarker(m)
		m.ToCube.RemoveToMarker(m)
	}
}

// convertMarker builds a Marker from one external/internal marker
// node, grounded on the free function convertMarker in
// original_source/Olap/Rule.cpp.
func convertMarker(c cube.Cube, destArea cube.Area, n ast.Node) (*marker.Marker, error) {
	switch src := n.(type) {
	case *ast.Source:
		area := src.Area()
		if area == nil {
			return marker.FromArea(c, nil, destArea), nil
		}
		return marker.FromArea(c, *area, destArea), nil
	case *ast.Call:
		fromCube, path, err := builtin.ResolveTarget(c, src.Params)
		if err != nil {
			return nil, err
		}
		return marker.FromPaloMarker(fromCube, c, path, destArea)
	default:
		return nil, fmt.Errorf("rule: unknown node type as marker")
	}
}
