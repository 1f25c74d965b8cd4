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

// Package errors implements the error taxonomy of spec.md §7: parsing,
// validation, marker and internal errors, each carrying enough context
// to surface as the wire-level kind the cube server's HTTP layer expects
// ("parsing-rule", "invalid-coordinates", "dimension-not-found",
// "internal") without this package knowing anything about HTTP.
package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/xerrors"

	"github.com/jedox/rulecube/token"
)

// Kind classifies an Error per the taxonomy of spec.md §7.
type Kind int

const (
	// Parse is raised when the parser rejects rule input.
	Parse Kind = iota
	// Validation is raised when names/ids don't resolve, or arity/type
	// checks on a function call fail.
	Validation
	// MarkerCoordinate is raised when a cross-cube marker path length
	// does not match the source cube's dimensionality.
	MarkerCoordinate
	// MarkerDimension is raised when a marker's variable dimension
	// cannot be found.
	MarkerDimension
	// Internal is raised for conditions that should be unreachable,
	// such as an unrecognized node type during marker construction.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Parse:
		return "parsing-rule"
	case Validation:
		return "parsing-rule"
	case MarkerCoordinate:
		return "invalid-coordinates"
	case MarkerDimension:
		return "dimension-not-found"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by this module. It is never
// used for the EvalMissingCell case of spec.md §7, which is modeled as
// an ordinary zero value, not an error.
type Error struct {
	Kind    Kind
	Pos     token.Position
	Message string
	cause   error
}

// New constructs an Error of the given kind at pos, wrapping it with a
// stack trace via github.com/pkg/errors so that %+v printing of a
// propagated Error shows where it originated.
func New(kind Kind, pos token.Position, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{
		Kind:    kind,
		Pos:     pos,
		Message: msg,
		cause:   pkgerrors.New(msg),
	}
}

// Wrap attaches kind/pos context to an existing error.
func Wrap(kind Kind, pos token.Position, err error, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{
		Kind:    kind,
		Pos:     pos,
		Message: msg,
		cause:   pkgerrors.Wrap(err, msg),
	}
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Format implements xerrors.Formatter so that fmt.Sprintf("%+v", err)
// prints a full stack trace of the wrapped cause, the way the teacher's
// cue/errors package renders positioned errors with detail on demand.
func (e *Error) Format(f fmt.State, verb rune) { xerrors.FormatError(e, f, verb) }

// FormatError implements xerrors.Formatter.
func (e *Error) FormatError(p xerrors.Printer) (next error) {
	p.Print(e.Error())
	if p.Detail() {
		return e.cause
	}
	return nil
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if xerrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
