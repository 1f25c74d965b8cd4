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

package builtin

import (
	"github.com/cockroachdb/apd/v2"

	"github.com/jedox/rulecube/ast"
	"github.com/jedox/rulecube/cube"
	"github.com/jedox/rulecube/internal/eval"
)

// aggregateFunc implements the variadic numeric reduction family of
// spec.md §4.4: SUM PRODUCT MIN MAX COUNT FIRST LAST AVERAGE AND OR.
// Parameters are consumed left-to-right; empty input reduces per
// reduce's zero-input result.
type aggregateFunc struct {
	name   string
	reduce func(vals []apd.Decimal) apd.Decimal
}

func (f *aggregateFunc) Name() string { return f.name }

func (f *aggregateFunc) Validate(params []ast.Expr) error {
	return checkArityRange(f.name, params, 0, -1)
}

func (f *aggregateFunc) ValueType(params []ast.Expr) ast.ValueType { return ast.Numeric }

func (f *aggregateFunc) Eval(ctx *eval.Context, params []ast.Expr, path cube.CellPath) eval.Value {
	vals := make([]apd.Decimal, 0, len(params))
	for _, p := range params {
		v := p.Eval(ctx, path)
		if v.IsControl() {
			return v
		}
		vals = append(vals, v.Decimal)
	}
	return eval.NumericDecimal(f.reduce(vals))
}

func dec(f float64) apd.Decimal {
	var d apd.Decimal
	d.SetFloat64(f)
	return d
}

func init() {
	register(&aggregateFunc{name: "SUM", reduce: func(vals []apd.Decimal) apd.Decimal {
		sum := dec(0)
		dctx := eval.DecimalContext()
		for _, v := range vals {
			dctx.Add(&sum, &sum, &v)
		}
		return sum
	}})

	// PRODUCT preserves the original C++ source's accumulator-starts-
	// at-0 behavior (original_source/Parser/FunctionNodeAggregate.h),
	// which makes PRODUCT always evaluate to 0 — spec.md §9 leaves the
	// choice to the implementer; see DESIGN.md.
	register(&aggregateFunc{name: "PRODUCT", reduce: func(vals []apd.Decimal) apd.Decimal {
		prod := dec(0)
		dctx := eval.DecimalContext()
		for _, v := range vals {
			dctx.Mul(&prod, &prod, &v)
		}
		return prod
	}})

	register(&aggregateFunc{name: "MIN", reduce: func(vals []apd.Decimal) apd.Decimal {
		if len(vals) == 0 {
			return dec(0)
		}
		min := vals[0]
		for _, v := range vals[1:] {
			if v.Cmp(&min) < 0 {
				min = v
			}
		}
		return min
	}})

	register(&aggregateFunc{name: "MAX", reduce: func(vals []apd.Decimal) apd.Decimal {
		if len(vals) == 0 {
			return dec(0)
		}
		max := vals[0]
		for _, v := range vals[1:] {
			if v.Cmp(&max) > 0 {
				max = v
			}
		}
		return max
	}})

	register(&aggregateFunc{name: "COUNT", reduce: func(vals []apd.Decimal) apd.Decimal {
		return dec(float64(len(vals)))
	}})

	register(&aggregateFunc{name: "FIRST", reduce: func(vals []apd.Decimal) apd.Decimal {
		if len(vals) == 0 {
			return dec(0)
		}
		return vals[0]
	}})

	register(&aggregateFunc{name: "LAST", reduce: func(vals []apd.Decimal) apd.Decimal {
		if len(vals) == 0 {
			return dec(0)
		}
		return vals[len(vals)-1]
	}})

	register(&aggregateFunc{name: "AVERAGE", reduce: func(vals []apd.Decimal) apd.Decimal {
		if len(vals) == 0 {
			return dec(0)
		}
		sum := dec(0)
		dctx := eval.DecimalContext()
		for _, v := range vals {
			dctx.Add(&sum, &sum, &v)
		}
		var avg apd.Decimal
		dctx.Quo(&avg, &sum, decPtr(float64(len(vals))))
		return avg
	}})

	// AND uses inverse-logic accumulation: 0 means "all non-zero so
	// far"; any zero operand flips it to 1; the returned result is
	// 1-acc (spec.md §4.4).
	register(&aggregateFunc{name: "AND", reduce: func(vals []apd.Decimal) apd.Decimal {
		acc := 0
		for _, v := range vals {
			if v.IsZero() {
				acc = 1
			}
		}
		return dec(float64(1 - acc))
	}})

	register(&aggregateFunc{name: "OR", reduce: func(vals []apd.Decimal) apd.Decimal {
		acc := 0
		for _, v := range vals {
			if !v.IsZero() {
				acc = 1
			}
		}
		return dec(float64(acc))
	}})
}

func decPtr(f float64) *apd.Decimal {
	d := dec(f)
	return &d
}
