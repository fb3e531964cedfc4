// Package filter implements component E: tokenizing and parsing the SCIM
// filter expression language (RFC 7644 §3.4.2.2), building a small AST of
// logical/attribute operators, matching that AST against a container, and
// rendering it back to its canonical string form.
//
// Grounded structurally on github.com/scim2/filter-parser/v2's AST shapes
// (CompareExpression, LogicalExpression, ValuePath) — used directly, for a
// different purpose, in the HTTP query-string glue (see server.go) — and
// semantically on original_source/src/filter/operator.py's LogicalOperator/
// AttributeOperator/ComplexAttributeOperator hierarchy and MatchResult
// three-way status collapsed, per spec.md §9's resolved Open Question, into
// a plain bool ("missing data" now matches false rather than its own
// tri-state). The teacher (dwardin-scim) has no filter engine of its own;
// its server.go instead delegates query-string filters entirely to
// scim2/filter-parser/v2 and never matches them against a resource tree.
package filter

import (
	"github.com/scimplex/core/attrrep"
	"github.com/scimplex/core/container"
	"github.com/scimplex/core/schema"
)

// Expression is one node of a parsed filter. Match evaluates the expression
// against c, resolving attribute references via rs.
type Expression interface {
	Match(c *container.Container, rs *schema.ResourceSchema) (bool, error)
	String() string
}

// AndExpr is a logical conjunction; Match short-circuits on the first false.
type AndExpr struct {
	Left, Right Expression
}

// OrExpr is a logical disjunction; Match short-circuits on the first true.
type OrExpr struct {
	Left, Right Expression
}

// NotExpr inverts a single child expression.
type NotExpr struct {
	Child Expression
}

// UnaryExpr is a unary operator (built-in "pr", or any keyword registered
// through a Registry) applied to Attr. Fn is resolved once, at parse time,
// from whichever Registry parsed the filter, so Match never has to re-look
// up a keyword against a possibly-different registry.
type UnaryExpr struct {
	Attr attrrep.BoundedAttrRep
	Op   string
	Fn   UnaryOperator
}

// CompareExpr is a binary operator applied to Attr against Literal. Fn is
// resolved at parse time, same reasoning as UnaryExpr.Fn.
type CompareExpr struct {
	Attr    attrrep.BoundedAttrRep
	Op      string
	Literal interface{}
	Fn      BinaryOperator
}

// ComplexExpr is a complex attribute group: attr_rep "[" Inner "]". Attr must
// not carry a sub-attribute; Inner is evaluated per multi-valued element of
// Attr, matching if any element satisfies it.
type ComplexExpr struct {
	Attr  attrrep.BoundedAttrRep
	Inner Expression
}
