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

// Package parser implements a recursive-descent parser for the rule
// language's grammar (spec.md §4.3, C3): it turns rule or expression
// source text into an AST, then validates it either against a bound
// cube (full mode) or a whitelist of recognized function names
// (parse-only mode). Grounded on the teacher's hand-written
// recursive-descent style (one parseX method per grammar production,
// a one-token lookahead buffer) rather than a generated parser.
package parser

import (
	"fmt"
	"strconv"

	"github.com/jedox/rulecube/ast"
	"github.com/jedox/rulecube/cube"
	"github.com/jedox/rulecube/errors"
	"github.com/jedox/rulecube/internal/builtin"
	"github.com/jedox/rulecube/scanner"
	"github.com/jedox/rulecube/token"
)

// Driver holds the configuration for one or more parses: the cube to
// validate against (full mode) and/or the whitelist to accept in
// parse-only mode (spec.md §4.3, Modes). A zero Driver has neither: it
// validates in parse-only mode and accepts any function name — callers
// almost always want WithCube or WithWhitelist.
type Driver struct {
	cube      cube.Cube
	whitelist map[string]bool

	lastErr error
}

// Option configures a Driver.
type Option func(*Driver)

// WithCube selects full mode: parsed rules are validated against c.
func WithCube(c cube.Cube) Option {
	return func(d *Driver) { d.cube = c }
}

// WithWhitelist selects parse-only mode: any call whose name is in
// names is accepted without evaluation or area resolution against a
// cube. The builtin registry's own names are a common choice; callers
// may pass a narrower set to restrict parsing to a specific function
// subset.
func WithWhitelist(names ...string) Option {
	return func(d *Driver) { d.whitelist = builtin.Whitelist(names...) }
}

// NewDriver constructs a Driver from the given options.
func NewDriver(opts ...Option) *Driver {
	d := &Driver{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// LastError returns the most recent parse error the driver reported,
// or nil. The driver keeps only the last error (spec.md §4.3).
func (d *Driver) LastError() error { return d.lastErr }

func (d *Driver) validator() *ast.Validator {
	return &ast.Validator{Cube: d.cube, Whitelist: d.whitelist}
}

// ParseRule parses and validates one full rule definition: destination
// '=' [option] expr [ '@' markerList ]. On any error the returned AST
// is discarded — the caller receives only the error (spec.md §4.3).
func (d *Driver) ParseRule(filename string, src []byte) (*ast.RuleExpr, error) {
	p := newParser(filename, src)
	rule, err := p.parseRule()
	if err == nil {
		err = p.firstErr
	}
	if err != nil {
		d.lastErr = err
		return nil, err
	}
	if err := rule.Validate(d.validator()); err != nil {
		d.lastErr = err
		return nil, err
	}
	d.lastErr = nil
	return rule, nil
}

// ParseExpr parses and validates a standalone expression, without a
// destination or marker list. Used by tests and by cmd/rulectl's
// "render" subcommand for interactively evaluating sub-expressions.
func (d *Driver) ParseExpr(filename string, src []byte) (ast.Expr, error) {
	p := newParser(filename, src)
	expr, err := p.parseExpr(0)
	if err == nil {
		err = p.firstErr
	}
	if err != nil {
		d.lastErr = err
		return nil, err
	}
	if p.tok != token.EOF {
		err := p.errorf("unexpected trailing input %q", p.lit)
		d.lastErr = err
		return nil, err
	}
	if err := expr.Validate(d.validator()); err != nil {
		d.lastErr = err
		return nil, err
	}
	d.lastErr = nil
	return expr, nil
}

// parser is the internal recursive-descent state: a scanner plus a
// one-token lookahead buffer. Call nodes are bound at parse time
// through builtin.Full() (spec.md §4.1: Call.Func is assigned by the
// registry, not resolved lazily at validate time).
type parser struct {
	filename string
	scan     scanner.Scanner

	pos token.Position
	tok token.Token
	lit string

	firstErr error
}

func newParser(filename string, src []byte) *parser {
	p := &parser{filename: filename}
	p.scan.Init(filename, src, p.handleScanError)
	p.next()
	return p
}

func (p *parser) handleScanError(pos token.Position, msg string) {
	p.record(errors.New(errors.Parse, pos, "%s", msg))
}

func (p *parser) next() {
	p.pos, p.tok, p.lit = p.scan.Scan()
}

func (p *parser) record(err error) {
	if p.firstErr == nil {
		p.firstErr = err
	}
}

func (p *parser) errorf(format string, args ...any) error {
	err := errors.New(errors.Parse, p.pos, "%s", fmt.Sprintf(format, args...))
	p.record(err)
	return err
}

func (p *parser) expect(tok token.Token) (token.Position, string, error) {
	if p.tok != tok {
		return p.pos, "", p.errorf("expected %s, found %s %q", tok, p.tok, p.lit)
	}
	pos, lit := p.pos, p.lit
	p.next()
	return pos, lit, nil
}

// ---- rule and destination ----

func (p *parser) parseRule() (*ast.RuleExpr, error) {
	pos := p.pos
	dest, err := p.parseDestination()
	if err != nil {
		return nil, err
	}
	if _, _, err := p.expect(token.EQL); err != nil {
		return nil, err
	}

	option := ast.OptionNone
	if p.tok == token.IDENT && (p.lit == "C" || p.lit == "N") {
		save := p.lit
		savedPos, savedTok, savedLit := p.pos, p.tok, p.lit
		p.next()
		if p.tok == token.COLON {
			p.next()
			if save == "C" {
				option = ast.OptionConsolidation
			} else {
				option = ast.OptionBase
			}
		} else {
			// not an option prefix after all; this is vanishingly rare
			// in practice (an IDENT "C"/"N" immediately followed by
			// something other than ':') and is rejected rather than
			// un-lexed, since the scanner has no token pushback.
			return nil, p.errorfAt(savedPos, "expected ':' after rule option %q, found %s %q", save, savedTok, savedLit)
		}
	}

	body, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}

	var external []ast.Node
	if p.tok == token.AT {
		p.next()
		external, err = p.parseMarkerList()
		if err != nil {
			return nil, err
		}
	}

	if p.tok != token.EOF {
		return nil, p.errorf("unexpected trailing input %q", p.lit)
	}

	return &ast.RuleExpr{
		Position:        pos,
		Option:          option,
		Destination:     dest,
		Body:            body,
		ExternalMarkers: external,
	}, nil
}

func (p *parser) errorfAt(pos token.Position, format string, args ...any) error {
	err := errors.New(errors.Parse, pos, "%s", fmt.Sprintf(format, args...))
	p.record(err)
	return err
}

func (p *parser) parseDestination() (*ast.Destination, error) {
	pos := p.pos
	switch p.tok {
	case token.LBRACK:
		elems, err := p.parseNameElements(token.LBRACK, token.RBRACK)
		if err != nil {
			return nil, err
		}
		return &ast.Destination{Position: pos, ByName: elems}, nil
	case token.LBRACE:
		elems, err := p.parseIDElements(token.LBRACE, token.RBRACE)
		if err != nil {
			return nil, err
		}
		return &ast.Destination{Position: pos, ByID: elems}, nil
	default:
		return nil, p.errorf("expected destination area, found %s %q", p.tok, p.lit)
	}
}

// ---- marker list ----

func (p *parser) parseMarkerList() ([]ast.Node, error) {
	var out []ast.Node
	for {
		n, err := p.parseMarkerItem()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		if p.tok != token.COMMA {
			break
		}
		p.next()
	}
	return out, nil
}

func (p *parser) parseMarkerItem() (ast.Node, error) {
	switch p.tok {
	case token.LBRACK, token.LBRACE, token.LDBRACK, token.LDBRACE:
		return p.parseSourceOrMarker()
	case token.IDENT:
		return p.parseCall()
	default:
		return nil, p.errorf("expected marker (source or function call), found %s %q", p.tok, p.lit)
	}
}

// ---- source / marker area nodes ----

func (p *parser) parseSourceOrMarker() (*ast.Source, error) {
	pos := p.pos
	switch p.tok {
	case token.LBRACK:
		elems, err := p.parseNameElements(token.LBRACK, token.RBRACK)
		if err != nil {
			return nil, err
		}
		return &ast.Source{Position: pos, ByName: elems}, nil
	case token.LDBRACK:
		elems, err := p.parseNameElements(token.LDBRACK, token.RDBRACK)
		if err != nil {
			return nil, err
		}
		return &ast.Source{Position: pos, ByName: elems, Marker: true}, nil
	case token.LBRACE:
		elems, err := p.parseIDElements(token.LBRACE, token.RBRACE)
		if err != nil {
			return nil, err
		}
		return &ast.Source{Position: pos, ByID: elems}, nil
	case token.LDBRACE:
		elems, err := p.parseIDElements(token.LDBRACE, token.RDBRACE)
		if err != nil {
			return nil, err
		}
		return &ast.Source{Position: pos, ByID: elems, Marker: true}, nil
	default:
		return nil, p.errorf("expected source area, found %s %q", p.tok, p.lit)
	}
}

// parseNameElements parses `elements` between open and close, allowing
// empty slots between (or trailing after) commas, which preserve
// positional indexing (spec.md §4.3).
func (p *parser) parseNameElements(open, close token.Token) ([]ast.NameElem, error) {
	if _, _, err := p.expect(open); err != nil {
		return nil, err
	}
	if p.tok == close {
		p.next()
		return nil, nil
	}
	var elems []ast.NameElem
	for {
		if p.tok == close || p.tok == token.COMMA {
			elems = append(elems, ast.NameElem{})
		} else {
			e, err := p.parseNameElement()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		if p.tok == token.COMMA {
			p.next()
			continue
		}
		break
	}
	if _, _, err := p.expect(close); err != nil {
		return nil, err
	}
	return elems, nil
}

// parseNameElement parses one `element := ELEM_STR | STRING ':' ELEM_STR
// | ELEM_STR ':' ELEM_STR | ELEM_STR ':'`. Unquoted element names
// (ELEM_STR) are scanned as IDENT; the scanner does not special-case
// bracket context. After a dimension qualifier an INT is also taken as
// the element name, so digit-leading names such as 2024 can follow
// 'Year':.
func (p *parser) parseNameElement() (ast.NameElem, error) {
	switch p.tok {
	case token.STRING:
		dim := p.lit
		p.next()
		if _, _, err := p.expect(token.COLON); err != nil {
			return ast.NameElem{}, err
		}
		if p.tok == token.IDENT || p.tok == token.INT {
			elem := p.lit
			p.next()
			return ast.NameElem{Dim: &dim, Elem: &elem}, nil
		}
		return ast.NameElem{Dim: &dim}, nil
	case token.IDENT:
		name := p.lit
		p.next()
		if p.tok == token.COLON {
			p.next()
			if p.tok == token.IDENT || p.tok == token.INT {
				elem := p.lit
				p.next()
				return ast.NameElem{Dim: &name, Elem: &elem}, nil
			}
			return ast.NameElem{Dim: &name}, nil
		}
		return ast.NameElem{Elem: &name}, nil
	default:
		return ast.NameElem{}, p.errorf("expected element, found %s %q", p.tok, p.lit)
	}
}

func (p *parser) parseIDElements(open, close token.Token) ([]ast.IDElem, error) {
	if _, _, err := p.expect(open); err != nil {
		return nil, err
	}
	if p.tok == close {
		p.next()
		return nil, nil
	}
	var elems []ast.IDElem
	for {
		e, err := p.parseIDElement()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.tok == token.COMMA {
			p.next()
			continue
		}
		break
	}
	if _, _, err := p.expect(close); err != nil {
		return nil, err
	}
	return elems, nil
}

// parseIDElement parses one `elementId := INT ':' INT | INT '@' INT |
// INT ':'` (spec.md §4.3); see ast.IDElem for the qualified/unqualified
// encoding.
func (p *parser) parseIDElement() (ast.IDElem, error) {
	first, err := p.parseIntLiteral()
	if err != nil {
		return ast.IDElem{}, err
	}
	switch p.tok {
	case token.COLON:
		p.next()
		if p.tok == token.INT {
			second, err := p.parseIntLiteral()
			if err != nil {
				return ast.IDElem{}, err
			}
			return ast.IDElem{DimID: first, ElemID: second}, nil
		}
		return ast.IDElem{DimID: first, ElemID: -1}, nil
	case token.AT:
		p.next()
		second, err := p.parseIntLiteral()
		if err != nil {
			return ast.IDElem{}, err
		}
		return ast.IDElem{DimID: -(first + 1), ElemID: second}, nil
	default:
		return ast.IDElem{}, p.errorf("expected ':' or '@' in element id, found %s %q", p.tok, p.lit)
	}
}

func (p *parser) parseIntLiteral() (int, error) {
	if p.tok != token.INT {
		return 0, p.errorf("expected integer, found %s %q", p.tok, p.lit)
	}
	n, err := strconv.Atoi(p.lit)
	if err != nil {
		return 0, p.errorf("invalid integer %q", p.lit)
	}
	p.next()
	return n, nil
}

// ---- expressions ----

// parseExpr implements operator-precedence (precedence climbing)
// parsing of the binop grammar, using token.Precedence for binding
// power.
func (p *parser) parseExpr(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.IsOperator() && p.tok.Precedence() >= minPrec {
		op := p.tok
		opPos := p.pos
		prec := op.Precedence()
		p.next()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		call := &ast.Call{Position: opPos, Name: op.String(), Params: []ast.Expr{left, right}}
		if fn, ok := builtin.Full().Lookup(call.Name); ok {
			call.Func = fn
		}
		left = call
	}
	return left, nil
}

// parseUnary implements the grammar's `unop expr` production. There is
// no dedicated unary AST node or builtin function: unary '-' desugars
// to `0 - expr` and unary '+' is the identity, matching how the
// original source folds a leading sign into the literal it prefixes.
func (p *parser) parseUnary() (ast.Expr, error) {
	if p.tok == token.ADD || p.tok == token.SUB {
		op := p.tok
		pos := p.pos
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op == token.ADD {
			return operand, nil
		}
		zero := ast.NewDouble(pos, 0)
		call := &ast.Call{Position: pos, Name: "-", Params: []ast.Expr{zero, operand}}
		if fn, ok := builtin.Full().Lookup(call.Name); ok {
			call.Func = fn
		}
		return call, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	pos := p.pos
	switch p.tok {
	case token.INT, token.FLOAT:
		lit := p.lit
		p.next()
		d, err := ast.ParseNumberLiteral(lit)
		if err != nil {
			return nil, p.errorfAt(pos, "invalid number literal %q: %v", lit, err)
		}
		return &ast.Double{Position: pos, Value: d}, nil
	case token.STRING:
		lit := p.lit
		p.next()
		return &ast.String{Position: pos, Value: lit}, nil
	case token.BANG:
		p.next()
		_, lit, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		return &ast.Variable{Position: pos, Name: lit}, nil
	case token.IDENT:
		return p.parseCall()
	case token.LBRACK, token.LBRACE:
		return p.parseSourceOrMarker()
	case token.LDBRACK, token.LDBRACE:
		return p.parseSourceOrMarker()
	case token.LPAREN:
		p.next()
		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	default:
		return nil, p.errorf("unexpected token %s %q in expression", p.tok, p.lit)
	}
}

// parseCall parses `call := IDENT '(' [expr (',' expr)*] ')'`. A bare
// IDENT not followed by '(' is a syntax error: the only other surface
// for a dimension reference is the BANG-prefixed variable form.
func (p *parser) parseCall() (*ast.Call, error) {
	pos := p.pos
	name := p.lit
	p.next()

	// The scanner folds '.' into an identifier's character class, so
	// "PALO.MARKER" ordinarily arrives as one IDENT already. This loop
	// only matters if whitespace splits the name around a '.', in
	// which case the scanner emits separate IDENT/PERIOD tokens that
	// must be re-joined here.
	for p.tok == token.PERIOD {
		p.next()
		_, part, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		name = name + "." + part
	}

	if _, _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var params []ast.Expr
	if p.tok != token.RPAREN {
		for {
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			params = append(params, e)
			if p.tok != token.COMMA {
				break
			}
			p.next()
		}
	}
	if _, _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	call := &ast.Call{Position: pos, Name: name, Params: params}
	if fn, ok := builtin.Full().Lookup(name); ok {
		call.Func = fn
	}
	return call, nil
}
