// Package patch implements component F: parsing "attr[filter].sub" patch
// paths and validating PATCH operations (add/replace/remove) against a
// resource schema's mutability and requiredness rules.
//
// Grounded on original_source/src/data/patch_path.py and src/patch.py for
// the grammar and validation rules; the teacher (dwardin-scim)'s
// resource_type.go patches resources by walking a bare map[string]interface{}
// with ad-hoc strings.EqualFold path matching (ValidatePatchOperation in its
// schema/schema.go) — this package generalizes that into a parsed Path value
// built on the attrrep/container/schema/filter packages already in this
// module.
package patch

import (
	"fmt"
	"strings"

	"github.com/scimplex/core/attrrep"
	"github.com/scimplex/core/errors"
	"github.com/scimplex/core/filter"
	"github.com/scimplex/core/schema"
)

// Path is a parsed patch path:
//
//	patch-path = attr-rep ("[" filter "]")? ("." sub-attr)?
//
// Attr never carries a sub-attribute when Group is non-nil (the trailing
// ".sub" fills that role instead, held in SubAttr); when Group is nil, any
// sub-attribute is carried directly on Attr, same as a plain attribute
// reference.
type Path struct {
	Attr    attrrep.BoundedAttrRep
	Group   *filter.ComplexExpr // non-nil when the path carries a "[filter]"
	SubAttr string               // trailing ".sub" after a "[filter]"; "" otherwise
}

// PathError reports a patch-path syntax problem.
type PathError struct {
	Code errors.Code
	Ctx  map[string]interface{}
}

func (e *PathError) Error() string { return e.Code.Render(e.Ctx) }

func pathErr(code errors.Code, ctx map[string]interface{}) *PathError {
	return &PathError{Code: code, Ctx: ctx}
}

// ParsePath parses raw as a patch path.
func ParsePath(raw string) (*Path, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, pathErr(errors.BadValueSyntax, nil)
	}

	attrPart, filterPart, rest, hasBracket, err := splitBracket(raw)
	if err != nil {
		return nil, pathErr(errors.BracketMismatch, nil)
	}

	if !hasBracket {
		rep, _, perr := (attrrep.Factory{}).Parse(raw)
		if perr != nil {
			return nil, pathErr(errors.BadAttributeName, map[string]interface{}{"name": raw})
		}
		return &Path{Attr: rep}, nil
	}

	rep, _, perr := (attrrep.Factory{}).Parse(attrPart)
	if perr != nil {
		return nil, pathErr(errors.BadAttributeName, map[string]interface{}{"name": attrPart})
	}
	if rep.HasSubAttr() {
		return nil, pathErr(errors.ComplexSubAttribute, map[string]interface{}{"attr": rep.Attr, "sub": rep.SubAttr})
	}

	expr, ferr := filter.Parse(fmt.Sprintf("%s[%s]", attrPart, filterPart), nil)
	if ferr != nil {
		if pe, ok := ferr.(*filter.ParseError); ok {
			return nil, pathErr(pe.Code, pe.Ctx)
		}
		return nil, pathErr(errors.BadValueSyntax, nil)
	}
	group, ok := expr.(*filter.ComplexExpr)
	if !ok {
		return nil, pathErr(errors.ComplexAttributeBracketMismatch, nil)
	}

	subAttr := ""
	if rest != "" {
		if !strings.HasPrefix(rest, ".") {
			return nil, pathErr(errors.BadValueSyntax, nil)
		}
		subAttr = rest[1:]
		if subAttr == "" || strings.ContainsAny(subAttr, ".[]") {
			return nil, pathErr(errors.BadAttributeName, map[string]interface{}{"name": subAttr})
		}
	}

	return &Path{Attr: rep, Group: group, SubAttr: subAttr}, nil
}

// splitBracket locates the first top-level, quote-respecting "[...]" group
// in s and returns the text before it, the text inside it, and the text
// after its closing "]". hasBracket is false when s has no bracket at all.
func splitBracket(s string) (attrPart, filterPart, rest string, hasBracket bool, err error) {
	var inQuote byte
	depth := 0
	start := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == inQuote {
				inQuote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			inQuote = c
		case '[':
			if start == -1 {
				start = i
			}
			depth++
		case ']':
			if start != -1 {
				depth--
				if depth == 0 {
					return s[:start], s[start+1 : i], s[i+1:], true, nil
				}
			}
		}
	}
	if start != -1 {
		return "", "", "", false, fmt.Errorf("unbalanced bracket in patch path %q", s)
	}
	return s, "", "", false, nil
}

// TargetRep returns the full attribute reference the path ultimately names:
// Attr itself when there is no bracket group, or Attr with SubAttr set to
// the trailing ".sub" when one was given.
func (p *Path) TargetRep() attrrep.BoundedAttrRep {
	if p.Group == nil || p.SubAttr == "" {
		return p.Attr
	}
	rep := p.Attr
	rep.SubAttr = p.SubAttr
	return rep
}

// Resolve looks up the path's target attribute against a resource schema.
func (p *Path) Resolve(rs *schema.ResourceSchema) (*schema.Attribute, attrrep.BoundedAttrRep, bool) {
	rep := p.TargetRep()
	attr, ok := rs.Attrs.Get(rep)
	return attr, rep, ok
}

// String renders the path in canonical form.
func (p *Path) String() string {
	if p.Group == nil {
		return p.Attr.String()
	}
	s := p.Group.String()
	if p.SubAttr != "" {
		s += "." + p.SubAttr
	}
	return s
}
