// Package attrrep implements component B: parsing and representing SCIM
// attribute references, e.g. "userName", "name.givenName", or
// "urn:ietf:params:scim:schemas:extension:enterprise:2.0:User:employeeNumber".
//
// Grounded on original_source/src/container.py and src/data/attrs.py, which
// parse and compare attribute references the same way (case-insensitive,
// schema-URI-aware); the teacher (dwardin-scim) addresses attributes by bare
// strings compared with strings.EqualFold everywhere an AttrRep would be
// used here (schema/core.go's validate, schema/schema.go's
// ValidatePatchOperation) — this package generalizes that ad-hoc string
// comparison into a reusable, parsed, hashable value per spec.md §4.B.
package attrrep

import (
	"regexp"
	"strings"

	"github.com/scimplex/core/errors"
	"github.com/scimplex/core/issuelog"
)

// attrNamePattern matches a single SCIM attribute name segment.
var attrNamePattern = regexp.MustCompile(`^(?:[A-Za-z]|\$)[A-Za-z0-9_\-\$]*$`)

// AttrRep is a (attr, sub_attr?) pair with no schema association.
type AttrRep struct {
	Attr    string
	SubAttr string // "" when absent
}

// New constructs an unbounded AttrRep. It does not validate the name.
func New(attr, subAttr string) AttrRep {
	return AttrRep{Attr: attr, SubAttr: subAttr}
}

// HasSubAttr reports whether the reference names a sub-attribute.
func (a AttrRep) HasSubAttr() bool {
	return a.SubAttr != ""
}

// Equals compares two AttrReps case-insensitively on both components.
func (a AttrRep) Equals(other AttrRep) bool {
	return strings.EqualFold(a.Attr, other.Attr) && strings.EqualFold(a.SubAttr, other.SubAttr)
}

// String renders the canonical dotted form.
func (a AttrRep) String() string {
	if a.SubAttr == "" {
		return a.Attr
	}
	return a.Attr + "." + a.SubAttr
}

// HashKey returns a value suitable as a Go map key that respects
// AttrRep.Equals's case-insensitivity.
func (a AttrRep) HashKey() string {
	return strings.ToLower(a.Attr) + "\x00" + strings.ToLower(a.SubAttr)
}

// BoundedAttrRep is an AttrRep additionally carrying a schema URI and
// extension metadata.
type BoundedAttrRep struct {
	AttrRep
	Schema            string // "" when the reference carries no schema prefix
	Extension         bool   // whether attr belongs to an extension schema
	ExtensionRequired bool   // whether that extension is mandatory on its parent resource
}

// NewBounded constructs a BoundedAttrRep.
func NewBounded(schema, attr, subAttr string) BoundedAttrRep {
	return BoundedAttrRep{AttrRep: AttrRep{Attr: attr, SubAttr: subAttr}, Schema: schema}
}

// Equals compares two BoundedAttrReps: attr/sub-attr compare
// case-insensitively equal, and either both schemas are empty or the
// schemas match case-insensitively.
func (b BoundedAttrRep) Equals(other BoundedAttrRep) bool {
	if !b.AttrRep.Equals(other.AttrRep) {
		return false
	}
	if b.Schema == "" || other.Schema == "" {
		return true
	}
	return strings.EqualFold(b.Schema, other.Schema)
}

// ParentEquals compares two BoundedAttrReps ignoring the sub-attr.
func (b BoundedAttrRep) ParentEquals(other BoundedAttrRep) bool {
	parent := func(r BoundedAttrRep) BoundedAttrRep {
		r.SubAttr = ""
		return r
	}
	return parent(b).Equals(parent(other))
}

// String renders the canonical "schema:attr.sub" form.
func (b BoundedAttrRep) String() string {
	if b.Schema == "" {
		return b.AttrRep.String()
	}
	return b.Schema + ":" + b.AttrRep.String()
}

// HashKey returns a value suitable as a Go map key that respects
// BoundedAttrRep.Equals's case-insensitivity. Because the schema component
// of Equals is match-if-either-empty rather than strict equality, no hash
// key can be exactly consistent with Equals; HashKey folds in schema so that
// two BoundedAttrReps that both carry the same schema hash identically,
// which is the common case for catalog indices (§4.D BoundedAttrs key is
// always (schema_uri, attr_name)).
func (b BoundedAttrRep) HashKey() string {
	return strings.ToLower(b.Schema) + "\x00" + b.AttrRep.HashKey()
}

// Factory parses attribute reference strings per the grammar in spec.md
// §4.B:
//
//	attrname   = (ALPHA / "$") *(ALPHA / DIGIT / "_" / "-" / "$")
//	uri-prefix = *( segment ":" )
//	attr-rep   = [ uri-prefix ] attrname [ "." attrname ]
type Factory struct{}

// Parse parses s into an AttrRep or BoundedAttrRep, returning an error if s
// does not match the grammar. The second return value is true when a schema
// URI prefix was present.
func (Factory) Parse(s string) (BoundedAttrRep, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return BoundedAttrRep{}, false, &errors.ScimErrorInvalidSyntax
	}

	schemaURI := ""
	rest := s
	if idx := strings.LastIndex(s, ":"); idx >= 0 {
		schemaURI = s[:idx]
		rest = s[idx+1:]
	}

	parts := strings.SplitN(rest, ".", 2)
	attr := parts[0]
	subAttr := ""
	if len(parts) == 2 {
		subAttr = parts[1]
	}

	if !attrNamePattern.MatchString(attr) {
		return BoundedAttrRep{}, false, &errors.ScimErrorInvalidSyntax
	}
	if subAttr != "" && !attrNamePattern.MatchString(subAttr) {
		return BoundedAttrRep{}, false, &errors.ScimErrorInvalidSyntax
	}

	return BoundedAttrRep{AttrRep: AttrRep{Attr: attr, SubAttr: subAttr}, Schema: schemaURI}, schemaURI != "", nil
}

// Validate adds a BadAttributeName error at loc when s does not match the
// attribute reference grammar.
func (f Factory) Validate(s string, log *issuelog.Log, loc ...issuelog.PathElem) {
	if _, _, err := f.Parse(s); err != nil {
		log.AddError(errors.BadAttributeName, true, map[string]interface{}{"name": s}, loc...)
	}
}
