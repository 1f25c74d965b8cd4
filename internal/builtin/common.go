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
	"fmt"

	"github.com/jedox/rulecube/ast"
	"github.com/jedox/rulecube/internal/eval"
)

func checkArity(name string, params []ast.Expr, n int) error {
	if len(params) != n {
		return fmt.Errorf("%s: expected %d argument(s), got %d", name, n, len(params))
	}
	return nil
}

func checkArityRange(name string, params []ast.Expr, min, max int) error {
	if len(params) < min || (max >= 0 && len(params) > max) {
		return fmt.Errorf("%s: expected between %d and %d argument(s), got %d", name, min, max, len(params))
	}
	return nil
}

// propagateControl implements the §9 design decision that arithmetic
// and aggregate operators never silently consume a STET/CONTINUE
// control token as numeric zero: if any value carries a control
// token, the first one found is propagated unchanged. This resolves
// the apparent tension between spec.md §4.1 ("propagate ... as
// numeric zero in arithmetic") and §9's explicit, more specific
// design note that control tokens are never consumed as zero; see
// DESIGN.md.
func propagateControl(vals ...eval.Value) (eval.Value, bool) {
	for _, v := range vals {
		if v.IsControl() {
			return v, true
		}
	}
	return eval.Value{}, false
}
