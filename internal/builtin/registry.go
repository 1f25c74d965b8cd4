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

// Package builtin implements the function registry of spec.md §4.4
// (C4): the fixed set of built-in functions a rule expression may
// call, grounded on the teacher's pkg/native + pkg/math registration
// pattern (one family file, one func init() { register(...) } call
// per family) rather than the C++ source's per-function FunctionNode
// subclass hierarchy.
package builtin

import "github.com/jedox/rulecube/ast"

// Registry maps a function name to the ast.Function implementation a
// Call node should delegate to.
type Registry struct {
	funcs map[string]ast.Function
}

var full = &Registry{funcs: map[string]ast.Function{}}

// register adds fn to the full built-in registry under fn.Name(). It
// is called from each family file's init(), mirroring
// pkg/native.Register's one-package-per-family registration.
func register(fn ast.Function) {
	full.funcs[fn.Name()] = fn
}

// Full returns the registry that evaluates every built-in function
// (spec.md §4.4's "full built-in set").
func Full() *Registry { return full }

// Lookup returns the Function registered under name, if any.
func (r *Registry) Lookup(name string) (ast.Function, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Whitelist builds the name-set used by parse-only mode (spec.md
// §4.3): any call whose name is in this set is accepted without cube
// binding or evaluation.
func Whitelist(names ...string) map[string]bool {
	w := make(map[string]bool, len(names))
	for _, n := range names {
		w[n] = true
	}
	return w
}

// Names returns every name known to the full registry, primarily for
// building a default parse-only whitelist.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		out = append(out, name)
	}
	return out
}
