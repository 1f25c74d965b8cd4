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

// RuleOption is the option prefix of a rule's right-hand side
// ("C:"/"N:"/absent, spec.md §3).
type RuleOption int

const (
	OptionNone RuleOption = iota
	OptionConsolidation
	OptionBase
)

func (o RuleOption) String() string {
	switch o {
	case OptionConsolidation:
		return "C:"
	case OptionBase:
		return "N:"
	default:
		return ""
	}
}

// RuleExpr is the root of a parsed rule (spec.md §3, RuleNode).
// External markers are only allowed when Option == OptionBase; every
// external marker must be a Source node or a "PALO.MARKER" Call
// (enforced in Validate). A Source in the marker list is accepted
// whether or not its Marker flag is set.
type RuleExpr struct {
	Position        token.Position
	Option          RuleOption
	Destination     *Destination
	Body            Expr
	ExternalMarkers []Node
	Comment         string
}

func (n *RuleExpr) Pos() token.Position { return n.Position }

// Clone returns a fully independent deep copy of the rule, including
// its own cloned Destination and Body — deliberately deviating from
// the C++ source's clone constructor, which shares the cloned
// exprNode pointer with the original (spec.md §9 Open Question; this
// module picks the safer, fully-independent behavior).
func (n *RuleExpr) Clone() Node {
	c := &RuleExpr{
		Position: n.Position,
		Option:   n.Option,
		Comment:  n.Comment,
	}
	if n.Destination != nil {
		c.Destination = n.Destination.Clone().(*Destination)
	}
	if n.Body != nil {
		c.Body = n.Body.Clone().(Expr)
	}
	c.ExternalMarkers = make([]Node, len(n.ExternalMarkers))
	for i, m := range n.ExternalMarkers {
		c.ExternalMarkers[i] = m.Clone()
	}
	return c
}

// CloneExpr is a typed convenience wrapper around Clone.
func (n *RuleExpr) CloneExpr() *RuleExpr { return n.Clone().(*RuleExpr) }

func (n *RuleExpr) Validate(v *Validator) error {
	if n.Destination == nil {
		return fmt.Errorf("rule has no destination")
	}
	dv := *v
	dv.IsDestination = true
	if err := n.Destination.Validate(&dv); err != nil {
		return err
	}
	if n.Body != nil {
		if err := n.Body.Validate(v); err != nil {
			return err
		}
	}
	for _, m := range n.ExternalMarkers {
		if err := m.Validate(v); err != nil {
			return err
		}
		switch m.(type) {
		case *Source, *Call:
		default:
			return fmt.Errorf("external marker must be a source or PALO.MARKER call")
		}
		if call, ok := m.(*Call); ok && call.Name != "PALO.MARKER" {
			return fmt.Errorf("external marker call must be PALO.MARKER, got '%s'", call.Name)
		}
	}
	if len(n.ExternalMarkers) > 0 && n.Option != OptionBase {
		return fmt.Errorf("external markers require the 'N:' (BASE) rule option")
	}
	return nil
}

func (n *RuleExpr) ValueType() ValueType {
	if n.Body == nil {
		return Unknown
	}
	return n.Body.ValueType()
}

// InternalMarkers returns the [[ ]] Source nodes and PALO.MARKER calls
// reachable from Body (spec.md §3, internalMarkers).
func (n *RuleExpr) InternalMarkers() []Node {
	var out []Node
	if n.Body != nil {
		n.Body.CollectMarkers(&out)
	}
	return out
}

func (n *RuleExpr) CollectMarkers(out *[]Node) {
	*out = append(*out, n.InternalMarkers()...)
	*out = append(*out, n.ExternalMarkers...)
}

// Eval evaluates the rule's body against path — it is the entry point
// used internally by package optimize/rule; the top-level
// STET/CONTINUE projection described in spec.md §4.5 happens one
// layer up, in package rule, since it needs the destination cell's
// path type to project NUMERIC/STRING.
func (n *RuleExpr) Eval(ctx *eval.Context, path cube.CellPath) eval.Value {
	if n.Body == nil {
		return eval.NumericValue(0)
	}
	return n.Body.Eval(ctx, path)
}

func (n *RuleExpr) HasElement(dim cube.Dimension, elem cube.Identifier) bool {
	if n.Destination != nil && n.Destination.HasElement(dim, elem) {
		return true
	}
	if n.Body != nil {
		return n.Body.HasElement(dim, elem)
	}
	return false
}

func (n *RuleExpr) Render(w *strings.Builder) {
	if n.Destination != nil {
		n.Destination.Render(w)
	}
	w.WriteString(" = ")
	if n.Option != OptionNone {
		w.WriteString(n.Option.String())
	}
	if n.Body != nil {
		n.Body.Render(w)
	}
	if len(n.ExternalMarkers) > 0 {
		w.WriteString(" @ ")
		for i, m := range n.ExternalMarkers {
			if i > 0 {
				w.WriteString(",")
			}
			m.Render(w)
		}
	}
}

// RenderString returns the single-line textual form of the rule
// (spec.md §6).
func (n *RuleExpr) RenderString() string {
	var b strings.Builder
	n.Render(&b)
	return b.String()
}

func (n *RuleExpr) RenderXML(w *strings.Builder, indent int, outputNames bool) {
	pad(w, indent)
	path := "none-base"
	if n.Option == OptionBase {
		path = "base"
	}
	fmt.Fprintf(w, `<rule path="%s">`+"\n", path)
	if n.Destination != nil {
		n.Destination.RenderXML(w, indent+1, outputNames)
	}
	pad(w, indent+1)
	w.WriteString("<definition>\n")
	if n.Body != nil {
		n.Body.RenderXML(w, indent+2, outputNames)
	}
	pad(w, indent+1)
	w.WriteString("</definition>\n")
	if len(n.ExternalMarkers) > 0 {
		pad(w, indent+1)
		w.WriteString("<external-markers>\n")
		for _, m := range n.ExternalMarkers {
			m.RenderXML(w, indent+2, outputNames)
		}
		pad(w, indent+1)
		w.WriteString("</external-markers>\n")
	}
	pad(w, indent)
	w.WriteString("</rule>\n")
}

// RenderXMLString returns the XML textual form of the rule (spec.md §6).
func (n *RuleExpr) RenderXMLString(outputNames bool) string {
	var b strings.Builder
	n.RenderXML(&b, 0, outputNames)
	return b.String()
}
