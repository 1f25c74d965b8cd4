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

// Package eval defines the value and context types the rule evaluator
// (spec.md §4.5, C5) passes between AST nodes. It holds no node logic
// of its own — each ast.Node implements its own Eval method, the way
// Node::getValue is a virtual method on every node in the C++ source
// this module is grounded on (original_source/Parser/Node.h) — so that
// ast can depend on eval without eval ever depending back on ast.
package eval

import (
	"fmt"
	"log/slog"

	"github.com/cockroachdb/apd/v2"

	"github.com/jedox/rulecube/cube"
)

// ValueType is the value-type lattice of spec.md §4.1: two ordinary
// data types plus two control-flow tokens.
type ValueType int

const (
	Unknown ValueType = iota
	Numeric
	String
	Stet     // "use the base storage value, skip all remaining rules"
	Continue // "this rule declines, try the next applicable rule"
)

func (t ValueType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case String:
		return "string"
	case Stet:
		return "stet"
	case Continue:
		return "continue"
	default:
		return "unknown"
	}
}

// decCtx is shared by every Value's Decimal arithmetic; 40 digits of
// precision comfortably exceeds float64's ~17 significant digits, so
// converting back via Float64 never loses information the source
// computation didn't already lack.
var decCtx = apd.BaseContext.WithPrecision(40)

// DecimalContext returns the apd.Context used for all rule arithmetic.
func DecimalContext() *apd.Context {
	ctx := *decCtx
	return &ctx
}

// Value is the result of evaluating an AST node: either a concrete
// NUMERIC/STRING payload or one of the STET/CONTINUE control tokens
// (spec.md §4.1, §9). Control tokens carry no payload and are detected
// at the top of rule evaluation (spec.md §4.5), not consumed inside
// arithmetic — arithmetic operators propagate them unchanged.
type Value struct {
	Type    ValueType
	Decimal apd.Decimal
	Str     string
}

// NumericValue constructs a NUMERIC Value from a float64.
func NumericValue(f float64) Value {
	var d apd.Decimal
	d.SetFloat64(f)
	return Value{Type: Numeric, Decimal: d}
}

// NumericDecimal constructs a NUMERIC Value from an apd.Decimal.
func NumericDecimal(d apd.Decimal) Value {
	return Value{Type: Numeric, Decimal: d}
}

// StringValue constructs a STRING Value.
func StringValue(s string) Value {
	return Value{Type: String, Str: s}
}

// StetValue is the singleton STET control token.
func StetValue() Value { return Value{Type: Stet} }

// ContinueValue is the singleton CONTINUE control token.
func ContinueValue() Value { return Value{Type: Continue} }

// IsControl reports whether v is a STET or CONTINUE control token.
func (v Value) IsControl() bool { return v.Type == Stet || v.Type == Continue }

// Float64 returns v's numeric payload as a float64, or 0.0 if v is not
// NUMERIC (a STRING or a control token has no numeric payload).
func (v Value) Float64() float64 {
	if v.Type != Numeric {
		return 0
	}
	f, err := v.Decimal.Float64()
	if err != nil {
		return 0
	}
	return f
}

// String0 returns v's string payload, or "" if v is not STRING.
func (v Value) String0() string {
	if v.Type != String {
		return ""
	}
	return v.Str
}

// Context carries the per-call evaluation state: the requesting user
// (opaque — permission checks are out of scope, spec.md §1), the
// recursion guard, and a structured logger for trace-level
// diagnostics mirroring Logger::trace in the C++ source.
type Context struct {
	Cube    cube.Cube
	User    any
	History cube.History
	Log     *slog.Logger
}

// WithHistory returns a copy of c with key added to the history set,
// the Go equivalent of passing ruleHistory by reference down the C++
// recursive getValue calls (spec.md §4.5).
func (c *Context) WithHistory(key cube.HistoryKey) *Context {
	h := make(cube.History, len(c.History)+1)
	for k := range c.History {
		h[k] = struct{}{}
	}
	h[key] = struct{}{}
	nc := *c
	nc.History = h
	return &nc
}

// Seen reports whether key is already on the evaluation stack.
func (c *Context) Seen(key cube.HistoryKey) bool {
	_, ok := c.History[key]
	return ok
}

func (c *Context) logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}

// Tracef logs a trace-level diagnostic, the Go analogue of the C++
// source's pervasive Logger::trace calls in Rule.cpp/RuleOptimizer.cpp.
func (c *Context) Tracef(format string, args ...any) {
	c.logger().Debug("rule trace", slog.String("msg", fmt.Sprintf(format, args...)))
}
