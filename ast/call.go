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

// Call is a function-call node, dispatched at evaluation time through
// Func — the registry-assigned Function implementation (spec.md
// §4.1, §4.4). Binary and unary operators (+ - * / < <= = >= > <>)
// are themselves Call nodes whose Name is the operator text, matching
// the teacher's FunctionNodeSimple dispatch-on-operator-text pattern.
type Call struct {
	Position token.Position
	Name     string
	Params   []Expr

	Func Function // assigned by the registry at parse time

	valid bool
	err   error
}

func (n *Call) Pos() token.Position { return n.Position }

func (n *Call) Clone() Node {
	c := *n
	c.Params = make([]Expr, len(n.Params))
	for i, p := range n.Params {
		c.Params[i] = p.Clone().(Expr)
	}
	return &c
}

func (n *Call) Validate(v *Validator) error {
	for _, p := range n.Params {
		if err := p.Validate(v); err != nil {
			return err
		}
	}
	if v.ParseOnly() {
		if v.Whitelist != nil && !v.Whitelist[n.Name] {
			return fmt.Errorf("function '%s' is not in the parse-only whitelist", n.Name)
		}
		n.valid = true
		return nil
	}
	if n.Func == nil {
		return fmt.Errorf("function '%s' is not registered", n.Name)
	}
	if err := n.Func.Validate(n.Params); err != nil {
		n.err = err
		return err
	}
	n.valid = true
	return nil
}

func (n *Call) ValueType() ValueType {
	if n.Func == nil {
		return Unknown
	}
	return n.Func.ValueType(n.Params)
}

func (n *Call) Eval(ctx *eval.Context, path cube.CellPath) eval.Value {
	if n.Func == nil {
		return eval.NumericValue(0)
	}
	return n.Func.Eval(ctx, n.Params, path)
}

func (n *Call) HasElement(dim cube.Dimension, elem cube.Identifier) bool {
	for _, p := range n.Params {
		if p.HasElement(dim, elem) {
			return true
		}
	}
	return false
}

func (n *Call) CollectMarkers(out *[]Node) {
	if n.Name == "PALO.MARKER" {
		*out = append(*out, n)
		return
	}
	for _, p := range n.Params {
		p.CollectMarkers(out)
	}
}

var binaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true,
	"<": true, "<=": true, "=": true, ">=": true, ">": true, "<>": true,
}

func (n *Call) Render(w *strings.Builder) {
	if binaryOps[n.Name] && len(n.Params) == 2 {
		w.WriteString("(")
		n.Params[0].Render(w)
		fmt.Fprintf(w, " %s ", n.Name)
		n.Params[1].Render(w)
		w.WriteString(")")
		return
	}
	w.WriteString(n.Name)
	w.WriteString("(")
	for i, p := range n.Params {
		if i > 0 {
			w.WriteString(",")
		}
		p.Render(w)
	}
	w.WriteString(")")
}

func (n *Call) RenderXML(w *strings.Builder, indent int, outputNames bool) {
	pad(w, indent)
	fmt.Fprintf(w, `<function name="%s">`+"\n", escapeXML(n.Name))
	for _, p := range n.Params {
		p.RenderXML(w, indent+1, outputNames)
	}
	pad(w, indent)
	w.WriteString("</function>\n")
}
