package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders e in canonical form, parenthesizing an Or child nested
// inside an And (the only precedence ambiguity the grammar has), per
// spec.md §4.E "Serialization".
func (e *AndExpr) String() string {
	return wrapIfOr(e.Left) + " and " + wrapIfOr(e.Right)
}

func wrapIfOr(e Expression) string {
	if _, ok := e.(*OrExpr); ok {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// String renders e in canonical form.
func (e *OrExpr) String() string {
	return e.Left.String() + " or " + e.Right.String()
}

// String renders e in canonical form, parenthesizing a logical child.
func (e *NotExpr) String() string {
	child := e.Child.String()
	switch e.Child.(type) {
	case *AndExpr, *OrExpr:
		child = "(" + child + ")"
	}
	return "not " + child
}

// String renders e in canonical form.
func (e *UnaryExpr) String() string {
	return e.Attr.String() + " " + e.Op
}

// String renders e in canonical form, requoting the literal.
func (e *CompareExpr) String() string {
	return e.Attr.String() + " " + e.Op + " " + literalString(e.Literal)
}

// String renders e in canonical form.
func (e *ComplexExpr) String() string {
	return e.Attr.String() + "[" + e.Inner.String() + "]"
}

func literalString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		if val {
			return "true"
		}
		return "false"
	case string:
		return "\"" + strings.ReplaceAll(val, "\"", "\\\"") + "\""
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
