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

package token

import "testing"

func TestNoPosIsInvalid(t *testing.T) {
	if NoPos.IsValid() {
		t.Errorf("NoPos should not be valid")
	}
	if got := NoPos.String(); got != "-" {
		t.Errorf("NoPos.String() = %q, want \"-\"", got)
	}
}

func TestPositionStringWithAndWithoutFilename(t *testing.T) {
	p := Position{Filename: "t.rule", Line: 3, Column: 7}
	if got, want := p.String(), "t.rule:3:7"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	p.Filename = ""
	if got, want := p.String(), "3:7"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestTokenPrecedenceOrdersArithmeticAboveComparison(t *testing.T) {
	if MUL.Precedence() <= ADD.Precedence() {
		t.Errorf("MUL precedence (%d) must exceed ADD precedence (%d)", MUL.Precedence(), ADD.Precedence())
	}
	if ADD.Precedence() <= EQL.Precedence() {
		t.Errorf("ADD precedence (%d) must exceed EQL precedence (%d)", ADD.Precedence(), EQL.Precedence())
	}
	if EQL.Precedence() == 0 {
		t.Errorf("EQL must be a binary operator, got precedence 0")
	}
}

func TestTokenIsOperator(t *testing.T) {
	for _, tok := range []Token{ADD, SUB, MUL, QUO, LSS, LEQ, EQL, GEQ, GTR, NEQ} {
		if !tok.IsOperator() {
			t.Errorf("%s.IsOperator() = false, want true", tok)
		}
	}
	for _, tok := range []Token{IDENT, LPAREN, RPAREN, COMMA, COLON, BANG, ILLEGAL, EOF} {
		if tok.IsOperator() {
			t.Errorf("%s.IsOperator() = true, want false", tok)
		}
	}
}

func TestTokenStringFallsBackForUnnamedValues(t *testing.T) {
	var unnamed Token = 999
	if got, want := unnamed.String(), "token(999)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
