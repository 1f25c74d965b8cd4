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
	"strings"

	"github.com/jedox/rulecube/cube"
	"github.com/jedox/rulecube/internal/eval"
	"github.com/jedox/rulecube/token"
)

// Destination is a name-or-id area node used as a rule's target. It
// shares area semantics with Source (spec.md §4.2) but is never
// evaluated directly — Eval always returns numeric 0 (spec.md §4.1).
type Destination struct {
	Position token.Position
	ByName   []NameElem
	ByID     []IDElem

	resolved *Resolved
}

func (n *Destination) Pos() token.Position { return n.Position }

func (n *Destination) Clone() Node {
	c := *n
	c.ByName = append([]NameElem(nil), n.ByName...)
	c.ByID = append([]IDElem(nil), n.ByID...)
	if n.resolved != nil {
		r := *n.resolved
		c.resolved = &r
	}
	return &c
}

func (n *Destination) Validate(v *Validator) error {
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

func (n *Destination) ValueType() ValueType { return Numeric }

func (n *Destination) Area() *cube.Area {
	if n.resolved == nil {
		return nil
	}
	return &n.resolved.NodeArea
}

func (n *Destination) Resolved() *Resolved { return n.resolved }

func (n *Destination) Eval(ctx *eval.Context, path cube.CellPath) eval.Value {
	return eval.NumericValue(0)
}

func (n *Destination) HasElement(dim cube.Dimension, elem cube.Identifier) bool {
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

func (n *Destination) CollectMarkers(out *[]Node) {}

func (n *Destination) Render(w *strings.Builder) {
	if n.ByID != nil {
		w.WriteString("{")
		for i, e := range n.ByID {
			if i > 0 {
				w.WriteString(",")
			}
			renderIDElem(w, e)
		}
		w.WriteString("}")
		return
	}
	w.WriteString("[")
	for i, e := range n.ByName {
		if i > 0 {
			w.WriteString(",")
		}
		renderNameElem(w, e)
	}
	w.WriteString("]")
}

func (n *Destination) RenderXML(w *strings.Builder, indent int, outputNames bool) {
	pad(w, indent)
	w.WriteString("<destination>\n")
	renderAreaXML(w, indent+1, n.resolved, outputNames)
	pad(w, indent)
	w.WriteString("</destination>\n")
}
