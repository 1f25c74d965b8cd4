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

// Package ast defines the rule language's abstract syntax tree
// (spec.md §4.1, C1) and area nodes (§4.2, C2): a closed set of node
// kinds, each owning its children exclusively (no sharing, no
// cycles), each able to clone itself deeply, validate against cube
// metadata, report its value type, evaluate against a cell path, and
// render itself in both the XML and single-line textual forms of
// spec.md §6.
package ast

import (
	"strings"

	"github.com/jedox/rulecube/cube"
	"github.com/jedox/rulecube/internal/eval"
	"github.com/jedox/rulecube/token"
)

// ValueType is re-exported from package eval so that ast callers never
// need to import eval directly just to read a node's static type.
type ValueType = eval.ValueType

const (
	Unknown  = eval.Unknown
	Numeric  = eval.Numeric
	String   = eval.String
	Stet     = eval.Stet
	Continue = eval.Continue
)

// Validator carries the context Validate needs: the target cube (nil
// in parse-only mode, spec.md §4.3) and, in parse-only mode, the
// whitelist of recognized function names.
type Validator struct {
	Cube      cube.Cube
	Whitelist map[string]bool

	// IsDestination is set while validating a rule's destination area,
	// so Source/Destination validation can share one code path yet
	// still distinguish "this is the rule's target" where needed.
	IsDestination bool
}

// ParseOnly reports whether v has no cube bound, i.e. area resolution
// and variable binding must be skipped (spec.md §4.3).
func (v *Validator) ParseOnly() bool { return v == nil || v.Cube == nil }

// Node is the common interface of every AST node kind.
type Node interface {
	Pos() token.Position
	Clone() Node
	Validate(v *Validator) error
	ValueType() ValueType
	Render(w *strings.Builder)
	RenderXML(w *strings.Builder, indent int, outputNames bool)
	CollectMarkers(out *[]Node)
}

// Expr is a Node that can be evaluated against a cell path. Both area
// nodes implement Expr; Destination's Eval always returns numeric 0,
// since a rule's target is never read as a value (spec.md §4.1).
type Expr interface {
	Node
	Eval(ctx *eval.Context, path cube.CellPath) eval.Value
	// HasElement reports whether this expression's evaluation can ever
	// depend on dim containing elem — used by downstream cache
	// invalidation, not by this module directly, but every node must
	// answer it (spec.md §4.1).
	HasElement(dim cube.Dimension, elem cube.Identifier) bool
}

// Function is the evaluation strategy a Call node delegates to,
// assigned at construction by the function registry (package
// builtin, C4) — the Go substitute for the virtual FunctionNode
// subclasses of the C++ source (spec.md §4.4).
type Function interface {
	Name() string
	// Validate checks arity and parameter value types, returning a
	// descriptive error on mismatch.
	Validate(params []Expr) error
	// Eval evaluates the call. Its parameters are not precomputed:
	// implementations call Eval on each ast.Expr parameter themselves
	// so that control-flow functions (IF) can short-circuit.
	Eval(ctx *eval.Context, params []Expr, path cube.CellPath) eval.Value
	// ValueType reports the static value type the call produces, given
	// its parameters' static types.
	ValueType(params []Expr) ValueType
}

// DimensionRestriction is an optional capability a Function may
// implement to let the optimizer (package optimize, C6) recognize a
// conjunction/equality on a single Variable as restricting one
// dimension to a set of elements (spec.md §4.1, §4.6).
type DimensionRestriction interface {
	// IsDimensionRestriction reports whether, given its parameters,
	// this call reduces to "coordinate along dim is in some set",
	// returning that dimension.
	IsDimensionRestriction(c cube.Cube, params []Expr) (cube.Dimension, bool)
	// ComputeDimensionRestriction returns the restricted element set.
	ComputeDimensionRestriction(c cube.Cube, params []Expr) []cube.Element
}

// DimensionTransform is an optional capability for functions that map
// a Variable's element names to transformed text (spec.md §4.1, §4.4).
// In package builtin it is implemented by UPPER and LOWER; the
// string-slicing functions LEFT/RIGHT/MID do not implement it.
type DimensionTransform interface {
	IsDimensionTransformation(c cube.Cube, params []Expr) (cube.Dimension, bool)
	ComputeDimensionTransformations(c cube.Cube, params []Expr) map[cube.Element]string
}
