package filter

import (
	"strings"

	"github.com/scimplex/core/attrrep"
	"github.com/scimplex/core/errors"
)

// ParseError reports a structural problem found while parsing a filter
// string, carrying one of spec.md §7's filter-syntax codes plus the
// rendering context for it.
type ParseError struct {
	Code errors.Code
	Ctx  map[string]interface{}
}

func (e *ParseError) Error() string {
	return e.Code.Render(e.Ctx)
}

func parseErr(code errors.Code, ctx map[string]interface{}) *ParseError {
	return &ParseError{Code: code, Ctx: ctx}
}

// Parse parses s as a filter expression, resolving operator keywords
// against reg (DefaultRegistry if nil), and returns its AST. Implements the
// grammar of spec.md §4.E:
//
//	filter      = or_term
//	or_term     = and_term ("or" and_term)*
//	and_term    = not_term ("and" not_term)*
//	not_term    = "not" primary | primary
//	primary     = "(" filter ")" | attr_op | complex_grp
//	complex_grp = attr_rep "[" filter "]"
//	attr_op     = attr_rep unary_op | attr_rep binary_op literal
//	literal     = string | integer | decimal | "true" | "false" | "null"
func Parse(s string, reg *Registry) (Expression, error) {
	if reg == nil {
		reg = DefaultRegistry
	}
	ph := newPlaceholderTable()
	toks := tokenize(ph.protect(s))
	if len(toks) == 0 {
		return nil, parseErr(errors.EmptyFilter, nil)
	}

	p := &parser{tokens: toks, reg: reg, ph: ph}
	expr, err := p.parseOr(false)
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, parseErr(errors.UnknownExpression, map[string]interface{}{"expr": p.peek()})
	}
	return expr, nil
}

type parser struct {
	tokens []string
	pos    int
	reg    *Registry
	ph     *placeholderTable
}

func (p *parser) peek() string {
	if p.atEnd() {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *parser) next() string {
	tok := p.peek()
	p.pos++
	return tok
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) parseOr(insideComplex bool) (Expression, error) {
	left, err := p.parseAnd(insideComplex)
	if err != nil {
		return nil, err
	}
	for !p.atEnd() && strings.EqualFold(p.peek(), "or") {
		p.next()
		right, err := p.parseAnd(insideComplex)
		if err != nil {
			return nil, err
		}
		left = &OrExpr{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd(insideComplex bool) (Expression, error) {
	left, err := p.parseNot(insideComplex)
	if err != nil {
		return nil, err
	}
	for !p.atEnd() && strings.EqualFold(p.peek(), "and") {
		p.next()
		right, err := p.parseNot(insideComplex)
		if err != nil {
			return nil, err
		}
		left = &AndExpr{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot(insideComplex bool) (Expression, error) {
	if !p.atEnd() && strings.EqualFold(p.peek(), "not") {
		p.next()
		child, err := p.parsePrimary(insideComplex)
		if err != nil {
			return nil, err
		}
		return &NotExpr{Child: child}, nil
	}
	return p.parsePrimary(insideComplex)
}

func (p *parser) parsePrimary(insideComplex bool) (Expression, error) {
	if p.atEnd() {
		return nil, parseErr(errors.EmptyFilter, nil)
	}

	if p.peek() == "(" {
		p.next()
		inner, err := p.parseOr(insideComplex)
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, parseErr(errors.BracketMismatch, nil)
		}
		p.next()
		return inner, nil
	}

	tok := p.peek()
	if tok == ")" || tok == "]" || tok == "[" {
		return nil, parseErr(errors.UnknownExpression, map[string]interface{}{"expr": tok})
	}
	rep, _, err := (attrrep.Factory{}).Parse(p.ph.resolve(tok))
	if err != nil {
		return nil, parseErr(errors.BadAttributeName, map[string]interface{}{"name": tok})
	}
	p.next()

	if !p.atEnd() && p.peek() == "[" {
		return p.parseComplexGroup(rep, tok, insideComplex)
	}

	if p.atEnd() {
		return nil, parseErr(errors.MissingOperand, map[string]interface{}{"op": "", "expr": tok})
	}
	opTok := p.peek()

	if fn, ok := p.reg.Unary(opTok); ok {
		p.next()
		return &UnaryExpr{Attr: rep, Op: strings.ToLower(opTok), Fn: fn}, nil
	}
	if fn, ok := p.reg.Binary(opTok); ok {
		p.next()
		if p.atEnd() {
			return nil, parseErr(errors.MissingOperand, map[string]interface{}{"op": opTok, "expr": tok})
		}
		litTok := p.next()
		lit, err := p.parseLiteral(litTok, opTok)
		if err != nil {
			return nil, err
		}
		return &CompareExpr{Attr: rep, Op: strings.ToLower(opTok), Literal: lit, Fn: fn}, nil
	}
	return nil, parseErr(errors.UnknownOperator, map[string]interface{}{"op": opTok, "expr": tok})
}

func (p *parser) parseComplexGroup(rep attrrep.BoundedAttrRep, tok string, insideComplex bool) (Expression, error) {
	if insideComplex {
		return nil, parseErr(errors.NestedComplexAttribute, nil)
	}
	if rep.HasSubAttr() {
		return nil, parseErr(errors.ComplexSubAttribute, map[string]interface{}{"attr": rep.Attr, "sub": rep.SubAttr})
	}
	p.next() // consume "["
	if !p.atEnd() && p.peek() == "]" {
		return nil, parseErr(errors.EmptyComplexGroup, map[string]interface{}{"attr": rep.String()})
	}
	inner, err := p.parseOr(true)
	if err != nil {
		return nil, err
	}
	if p.peek() != "]" {
		return nil, parseErr(errors.ComplexAttributeBracketMismatch, nil)
	}
	p.next()
	return &ComplexExpr{Attr: rep, Inner: inner}, nil
}

// compatible reports whether op accepts a literal of the given kind, per the
// operator/literal compatibility table (spec.md §4.E "Operator value
// compatibility").
func compatible(op string, kind string) bool {
	switch strings.ToLower(op) {
	case "eq", "ne":
		return true
	case "co", "sw", "ew":
		return kind == "string" || kind == "float"
	case "gt", "ge", "lt", "le":
		return kind == "string" || kind == "int" || kind == "float"
	default:
		return false
	}
}

func (p *parser) parseLiteral(tok, op string) (interface{}, error) {
	if isPlaceholder(tok) {
		raw := p.ph.resolve(tok)
		s, err := unquote(raw)
		if err != nil {
			return nil, parseErr(errors.BadValueSyntax, nil)
		}
		if !compatible(op, "string") {
			return nil, parseErr(errors.NonCompatibleOperand, map[string]interface{}{"value": s, "op": op})
		}
		return s, nil
	}

	switch strings.ToLower(tok) {
	case "true", "false":
		if !compatible(op, "bool") {
			return nil, parseErr(errors.NonCompatibleOperand, map[string]interface{}{"value": tok, "op": op})
		}
		return strings.EqualFold(tok, "true"), nil
	case "null":
		if !compatible(op, "null") {
			return nil, parseErr(errors.NonCompatibleOperand, map[string]interface{}{"value": tok, "op": op})
		}
		return nil, nil
	}

	if f, ok := isDecimalLiteral(tok); ok {
		if !compatible(op, "float") {
			return nil, parseErr(errors.NonCompatibleOperand, map[string]interface{}{"value": tok, "op": op})
		}
		return f, nil
	}
	if n, ok := isIntegerLiteral(tok); ok {
		if !compatible(op, "int") {
			return nil, parseErr(errors.NonCompatibleOperand, map[string]interface{}{"value": tok, "op": op})
		}
		return n, nil
	}
	return nil, parseErr(errors.BadOperand, map[string]interface{}{"value": tok})
}
