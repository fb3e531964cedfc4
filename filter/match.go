package filter

import (
	"github.com/scimplex/core/container"
	"github.com/scimplex/core/schema"
)

// Match implements Expression for AndExpr, short-circuiting on the first
// false child per spec.md §4.E "Logical operators".
func (e *AndExpr) Match(c *container.Container, rs *schema.ResourceSchema) (bool, error) {
	left, err := e.Left.Match(c, rs)
	if err != nil {
		return false, err
	}
	if !left {
		return false, nil
	}
	return e.Right.Match(c, rs)
}

// Match implements Expression for OrExpr, short-circuiting on the first
// true child.
func (e *OrExpr) Match(c *container.Container, rs *schema.ResourceSchema) (bool, error) {
	left, err := e.Left.Match(c, rs)
	if err != nil {
		return false, err
	}
	if left {
		return true, nil
	}
	return e.Right.Match(c, rs)
}

// Match implements Expression for NotExpr.
func (e *NotExpr) Match(c *container.Container, rs *schema.ResourceSchema) (bool, error) {
	v, err := e.Child.Match(c, rs)
	if err != nil {
		return false, err
	}
	return !v, nil
}

// Match implements Expression for UnaryExpr. It reads the value from c
// directly and does not consult rs, so it never errors; an attribute the
// schema does not define is judged only by what c holds for it.
func (e *UnaryExpr) Match(c *container.Container, rs *schema.ResourceSchema) (bool, error) {
	val := c.Get(container.BoundedKey(e.Attr))
	return e.Fn(val), nil
}

// Match implements Expression for CompareExpr. Per spec.md §4.E, a Complex
// multi-valued attribute referenced without an explicit sub-attribute is
// compared by projecting each element onto its "value" sub-attribute first
// (e.g. "emails eq 'foo'" behaves like "emails.value eq 'foo'"); a missing
// attribute or an attribute the catalog doesn't know about yields false,
// per the resolved "missing value policy" Open Question.
func (e *CompareExpr) Match(c *container.Container, rs *schema.ResourceSchema) (bool, error) {
	attr, ok := rs.Attrs.Get(e.Attr)
	if !ok {
		return false, nil
	}

	var val interface{}
	if attr.Type == schema.TypeComplex && attr.MultiValued && !e.Attr.HasSubAttr() {
		val = projectOntoValue(c.Get(container.BoundedKey(e.Attr)))
	} else {
		val = c.Get(container.BoundedKey(e.Attr))
	}

	if val == container.Missing || val == container.Invalid {
		return false, nil
	}

	ctx := CompareContext{Attr: *attr}
	if elems, ok := val.([]interface{}); ok {
		for _, elem := range elems {
			matched, err := e.Fn(elem, e.Literal, ctx)
			if err != nil {
				return false, err
			}
			if matched {
				return true, nil
			}
		}
		return false, nil
	}
	return e.Fn(val, e.Literal, ctx)
}

// projectOntoValue reduces a multi-valued Complex attribute's raw value
// (a slice of per-element containers) to the slice of each element's
// "value" sub-attribute, so binary operators can compare against it as if
// it were a plain multi-valued scalar attribute.
func projectOntoValue(val interface{}) interface{} {
	elems, ok := val.([]interface{})
	if !ok {
		return val
	}
	out := make([]interface{}, 0, len(elems))
	for _, e := range elems {
		ec, ok := e.(*container.Container)
		if !ok {
			continue
		}
		out = append(out, ec.Get(container.AttrKey(attrFor("value"))))
	}
	return out
}

// Match implements Expression for ComplexExpr: Inner is evaluated against
// each element of Attr's multi-valued container slice, matching if any one
// element satisfies it (spec.md §4.E "ComplexAttributeOperator"). Inner's
// attribute references are bare sub-attribute names (e.g. "type" in
// "emails[type eq \"work\"]"), so Inner is matched against a scope built
// from Attr's own sub-attributes rather than rs, letting those bare names
// resolve the same way a top-level attribute reference would.
func (e *ComplexExpr) Match(c *container.Container, rs *schema.ResourceSchema) (bool, error) {
	attr, ok := rs.Attrs.Get(e.Attr)
	if !ok {
		return false, nil
	}
	val := c.Get(container.BoundedKey(e.Attr))
	elems, ok := val.([]interface{})
	if !ok {
		return false, nil
	}
	scope := schema.SubSchema(attr)
	for _, elem := range elems {
		ec, ok := elem.(*container.Container)
		if !ok {
			continue
		}
		matched, err := e.Inner.Match(ec, scope)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}
