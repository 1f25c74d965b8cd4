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

package ast

import (
	"fmt"
	"strings"

	"github.com/jedox/rulecube/cube"
	"github.com/jedox/rulecube/internal/eval"
	"github.com/jedox/rulecube/token"
)

// Source represents an area of the cube, written [ ... ] (or [[ ... ]]
// for the marker form, Marker=true), carrying either name-pairs or
// id-pairs (spec.md §4.1, §4.2).
type Source struct {
	Position token.Position
	ByName   []NameElem
	ByID     []IDElem
	Marker   bool // true for [[ ]] / {{ }} form

	resolved *Resolved
}

func (n *Source) Pos() token.Position { return n.Position }

func (n *Source) Clone() Node {
	c := *n
	c.ByName = append([]NameElem(nil), n.ByName...)
	c.ByID = append([]IDElem(nil), n.ByID...)
	if n.resolved != nil {
		r := *n.resolved
		c.resolved = &r
	}
	return &c
}

func (n *Source) Validate(v *Validator) error {
	if v.ParseOnly() {
		return nil
	}
	var r *Resolved
	var err error
	if n.ByID != nil {
		r, err = ResolveByID(v.Cube, n.ByID)
	} else {
		r, err = ResolveByName(v.Cube, n.ByName)
	}
	if err != nil {
		return err
	}
	n.resolved = r
	return nil
}

func (n *Source) ValueType() ValueType {
	// A source area's value type depends on the target cell; it is
	// determined at evaluation time from the cube's cell classification,
	// so statically we report Unknown unless validation has already
	// proven it numeric-only (we don't track that distinction here).
	return Unknown
}

// Area returns the resolved cube.Area, or nil if this node has not
// been validated against a cube (spec.md §4.2).
func (n *Source) Area() *cube.Area {
	if n.resolved == nil {
		return nil
	}
	return &n.resolved.NodeArea
}

// Resolved exposes the full resolution result for use by the
// optimizer and marker engine.
func (n *Source) Resolved() *Resolved { return n.resolved }

func (n *Source) Eval(ctx *eval.Context, path cube.CellPath) eval.Value {
	if n.resolved == nil || ctx.Cube == nil {
		return eval.NumericValue(0)
	}
	var target cube.CellPath
	if n.resolved.FixedCellPath != nil {
		target = *n.resolved.FixedCellPath
	} else {
		coords := make([]cube.Identifier, len(n.resolved.ElementIDs))
		for d := range coords {
			if n.resolved.IsRestricted[d] {
				coords[d] = n.resolved.ElementIDs[d]
			} else if d < len(path.Coordinates) {
				coords[d] = path.Coordinates[d]
			}
		}
		target = cube.CellPath{Coordinates: coords}
	}

	cv, err := ctx.Cube.GetCellValue(target, ctx.User, ctx.History)
	if err != nil || !cv.Found {
		// EvalMissingCell (spec.md §7): not an error, zero of the
		// target type.
		if cv.Type == cube.String {
			return eval.StringValue("")
		}
		return eval.NumericValue(0)
	}
	if cv.Type == cube.String {
		return eval.StringValue(cv.Str)
	}
	return eval.NumericValue(cv.Double)
}

func (n *Source) HasElement(dim cube.Dimension, elem cube.Identifier) bool {
	if n.resolved == nil {
		return false
	}
	for d, id := range n.resolved.DimensionIDs {
		if id == dim.Identifier() && n.resolved.IsRestricted[d] && n.resolved.ElementIDs[d] == elem {
			return true
		}
	}
	return false
}

func (n *Source) CollectMarkers(out *[]Node) {
	if n.Marker {
		*out = append(*out, n)
	}
}

func (n *Source) open() (open, close string) {
	switch {
	case n.ByID != nil && n.Marker:
		return "{{", "}}"
	case n.ByID != nil:
		return "{", "}"
	case n.Marker:
		return "[[", "]]"
	}
	return "[", "]"
}

func (n *Source) Render(w *strings.Builder) {
	open, closeTok := n.open()
	w.WriteString(open)
	if n.ByID != nil {
		for i, e := range n.ByID {
			if i > 0 {
				w.WriteString(",")
			}
			renderIDElem(w, e)
		}
	} else {
		for i, e := range n.ByName {
			if i > 0 {
				w.WriteString(",")
			}
			renderNameElem(w, e)
		}
	}
	w.WriteString(closeTok)
}

func renderNameElem(w *strings.Builder, e NameElem) {
	switch {
	case e.Dim != nil && e.Elem != nil:
		fmt.Fprintf(w, "'%s':%s", escapeQuote(*e.Dim), *e.Elem)
	case e.Dim != nil:
		fmt.Fprintf(w, "'%s':", escapeQuote(*e.Dim))
	case e.Elem != nil:
		w.WriteString(*e.Elem)
	}
}

func renderIDElem(w *strings.Builder, e IDElem) {
	if e.DimID >= 0 && e.ElemID < 0 {
		fmt.Fprintf(w, "%d:", e.DimID)
	} else if e.DimID >= 0 {
		fmt.Fprintf(w, "%d:%d", e.DimID, e.ElemID)
	} else {
		fmt.Fprintf(w, "%d@%d", -(e.DimID + 1), e.ElemID)
	}
}

func (n *Source) RenderXML(w *strings.Builder, indent int, outputNames bool) {
	pad(w, indent)
	tag := "source"
	if n.Marker {
		tag = "marker"
	}
	fmt.Fprintf(w, "<%s>\n", tag)
	renderAreaXML(w, indent+1, n.resolved, outputNames)
	pad(w, indent)
	fmt.Fprintf(w, "</%s>\n", tag)
}

func renderAreaXML(w *strings.Builder, indent int, r *Resolved, outputNames bool) {
	if r == nil {
		return
	}
	for d := range r.DimensionIDs {
		pad(w, indent)
		restriction := "none"
		if r.IsRestricted[d] {
			restriction = fmt.Sprintf("%d", r.ElementIDs[d])
		}
		fmt.Fprintf(w, `<dimension id="%d" restriction="%s" />`+"\n", r.DimensionIDs[d], restriction)
	}
}
