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
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v2"

	"github.com/jedox/rulecube/cube"
	"github.com/jedox/rulecube/internal/eval"
	"github.com/jedox/rulecube/token"
)

// Double is a constant numeric literal (spec.md §4.1).
type Double struct {
	Position token.Position
	Value    apd.Decimal
}

// NewDouble constructs a Double literal from a float64.
func NewDouble(pos token.Position, f float64) *Double {
	d := &Double{Position: pos}
	d.Value.SetFloat64(f)
	return d
}

func (n *Double) Pos() token.Position { return n.Position }

func (n *Double) Clone() Node {
	// Value is copied through Set rather than by struct assignment: a
	// copied apd.Decimal would share its coefficient's storage.
	c := &Double{Position: n.Position}
	c.Value.Set(&n.Value)
	return c
}

func (n *Double) Validate(v *Validator) error { return nil }

func (n *Double) ValueType() ValueType { return Numeric }

func (n *Double) Eval(ctx *eval.Context, path cube.CellPath) eval.Value {
	return eval.NumericDecimal(n.Value)
}

func (n *Double) HasElement(dim cube.Dimension, elem cube.Identifier) bool { return false }

func (n *Double) Render(w *strings.Builder) {
	w.WriteString(n.Value.Text('f'))
}

func (n *Double) RenderXML(w *strings.Builder, indent int, outputNames bool) {
	pad(w, indent)
	fmt.Fprintf(w, "<double>%s</double>\n", n.Value.Text('f'))
}

func (n *Double) CollectMarkers(out *[]Node) {}

// String is a constant string literal (spec.md §4.1).
type String struct {
	Position token.Position
	Value    string
}

func (n *String) Pos() token.Position { return n.Position }

func (n *String) Clone() Node {
	c := *n
	return &c
}

func (n *String) Validate(v *Validator) error { return nil }

func (n *String) ValueType() ValueType { return eval.String }

func (n *String) Eval(ctx *eval.Context, path cube.CellPath) eval.Value {
	return eval.StringValue(n.Value)
}

func (n *String) HasElement(dim cube.Dimension, elem cube.Identifier) bool { return false }

func (n *String) Render(w *strings.Builder) {
	w.WriteString("'")
	w.WriteString(escapeQuote(n.Value))
	w.WriteString("'")
}

func (n *String) RenderXML(w *strings.Builder, indent int, outputNames bool) {
	pad(w, indent)
	fmt.Fprintf(w, "<string>%s</string>\n", escapeXML(n.Value))
}

func (n *String) CollectMarkers(out *[]Node) {}

// Variable resolves to a cube dimension at validate time and, at
// evaluate time, returns the name of the requesting cell path's
// element on that dimension (spec.md §4.1).
type Variable struct {
	Position token.Position
	Name     string

	num    int // resolved dimension index, set by Validate
	bound  bool
}

func (n *Variable) Pos() token.Position { return n.Position }

func (n *Variable) Clone() Node {
	c := *n
	return &c
}

func (n *Variable) Validate(v *Validator) error {
	if v.ParseOnly() {
		n.bound = false
		return nil
	}
	for i, d := range v.Cube.Dimensions() {
		if d.Name() == n.Name {
			n.num = i
			n.bound = true
			return nil
		}
	}
	return fmt.Errorf("variable '%s' does not name a dimension of this cube", n.Name)
}

func (n *Variable) ValueType() ValueType { return eval.String }

func (n *Variable) Eval(ctx *eval.Context, path cube.CellPath) eval.Value {
	if !n.bound {
		return eval.StringValue("")
	}
	if n.num >= len(path.Coordinates) || ctx.Cube == nil {
		return eval.StringValue("")
	}
	dims := ctx.Cube.Dimensions()
	if n.num >= len(dims) {
		return eval.StringValue("")
	}
	elem := dims[n.num].FindElement(path.Coordinates[n.num])
	if elem == nil {
		return eval.StringValue("")
	}
	return eval.StringValue(elem.Name())
}

func (n *Variable) HasElement(dim cube.Dimension, elem cube.Identifier) bool {
	return false
}

// Dimension returns the cube dimension this variable was bound to by
// Validate, or nil if unbound (parse-only mode).
func (n *Variable) Dimension(c cube.Cube) cube.Dimension {
	if !n.bound || c == nil {
		return nil
	}
	dims := c.Dimensions()
	if n.num >= len(dims) {
		return nil
	}
	return dims[n.num]
}

func (n *Variable) Render(w *strings.Builder) {
	w.WriteString(n.Name)
}

func (n *Variable) RenderXML(w *strings.Builder, indent int, outputNames bool) {
	pad(w, indent)
	fmt.Fprintf(w, "<variable>%s</variable>\n", escapeXML(n.Name))
}

func (n *Variable) CollectMarkers(out *[]Node) {}

func escapeQuote(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

func pad(w *strings.Builder, indent int) {
	w.WriteString(strings.Repeat("  ", indent))
}

// parseNumberLiteral is a small helper shared by the parser for
// turning scanned INT/FLOAT literal text (with optional leading sign)
// into an apd.Decimal, per spec.md §4.3's literal grammar.
func parseNumberLiteral(lit string) (apd.Decimal, error) {
	var d apd.Decimal
	_, _, err := d.SetString(lit)
	if err != nil {
		f, ferr := strconv.ParseFloat(lit, 64)
		if ferr != nil {
			return d, err
		}
		d.SetFloat64(f)
		return d, nil
	}
	return d, nil
}

// ParseNumberLiteral exposes parseNumberLiteral to package parser.
func ParseNumberLiteral(lit string) (apd.Decimal, error) { return parseNumberLiteral(lit) }
