package schema

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	datetime "github.com/di-wu/xsd-datetime"
	"golang.org/x/text/secure/precis"

	"github.com/scimplex/core/container"
	"github.com/scimplex/core/errors"
	"github.com/scimplex/core/issuelog"
)

// Validator is a user-supplied validation hook, run after the attribute's
// own built-in checks (spec.md §4.D "Attribute methods").
type Validator func(value interface{}, log *issuelog.Log, loc ...issuelog.PathElem)

// Converter is a user-supplied (de)serializer hook for a scalar value.
type Converter func(value interface{}) (interface{}, error)

// precisProfiles names the profiles exercised by Attribute.Precis, using
// golang.org/x/text/secure/precis — the ecosystem PRECIS implementation
// named in spec.md §4.E's matching semantics ("apply the PRECIS profile (if
// any) before comparison").
var precisProfiles = map[string]*precis.Profile{
	"UsernameCaseMapped":    precis.UsernameCaseMapped,
	"UsernameCasePreserved": precis.UsernameCasePreserved,
	"OpaqueString":          precis.OpaqueString,
	"Nickname":              precis.Nickname,
}

// ApplyPrecis runs the named PRECIS profile over s, returning s unchanged if
// name is empty or unrecognized, or if the profile rejects s. An
// unrecognized profile name is not reported anywhere.
func ApplyPrecis(name, s string) string {
	profile, ok := precisProfiles[name]
	if !ok || profile == nil {
		return s
	}
	out, err := profile.String(s)
	if err != nil {
		return s
	}
	return out
}

// Attribute is a single, discriminated attribute definition. Rather than a
// Rust-style enum per variant (spec.md §9 "Inheritance hierarchies"), it is
// one flat struct with a Type tag and variant-only fields left zeroed when
// not applicable, carrying over the teacher's CoreAttribute shape directly.
type Attribute struct {
	Name                    string
	Description             string
	Required                bool
	MultiValued             bool
	Mutability              Mutability
	Returned                Returned
	CanonicalValues         []string
	RestrictCanonicalValues bool
	Issuer                  Issuer
	Type                    Type

	// String | Integer | Decimal
	Uniqueness Uniqueness

	// String | Binary | *Reference
	CaseExact bool
	// String only: name of a golang.org/x/text/secure/precis profile to
	// apply before case-sensitive comparisons; "" means none.
	Precis string

	// Reference variants only.
	ReferenceTypes []string

	// Complex only.
	SubAttributes []Attribute

	Validators   []Validator
	Deserializer Converter
	Serializer   Converter
}

var binaryPattern = regexp.MustCompile(`^([A-Za-z0-9+/]{4})*([A-Za-z0-9+/]{3}=|[A-Za-z0-9+/]{2}==)?$`)

func errf(code errors.Code, ctx map[string]interface{}) func(log *issuelog.Log, proceed bool, loc ...issuelog.PathElem) {
	return func(log *issuelog.Log, proceed bool, loc ...issuelog.PathElem) {
		log.AddError(code, proceed, ctx, loc...)
	}
}

// HasDefaultComplexSubAttributes reports whether a is a multi-valued complex
// attribute whose sub-attributes include every name of the standard
// {value, display, type, primary, $ref} set returned by
// DefaultComplexSubAttributes (spec.md §3 "Invariants for Complex").
func (a Attribute) HasDefaultComplexSubAttributes() bool {
	if a.Type != TypeComplex || !a.MultiValued {
		return false
	}
	names := map[string]bool{}
	for _, s := range a.SubAttributes {
		names[strings.ToLower(s.Name)] = true
	}
	for _, want := range []string{"value", "display", "type", "primary", "$ref"} {
		if !names[want] {
			return false
		}
	}
	return true
}

// DefaultComplexSubAttributes returns the standard sub-attribute set used
// when a multi-valued Complex attribute is declared without explicit
// sub-attributes (spec.md §3).
func DefaultComplexSubAttributes() []Attribute {
	return []Attribute{
		{Name: "value", Type: TypeString},
		{Name: "display", Type: TypeString, Mutability: MutabilityReadOnly},
		{Name: "type", Type: TypeString},
		{Name: "primary", Type: TypeBoolean},
		{Name: "$ref", Type: TypeURIReference},
	}
}

func (a *Attribute) subAttr(name string) (*Attribute, bool) {
	for i := range a.SubAttributes {
		if strings.EqualFold(a.SubAttributes[i].Name, name) {
			return &a.SubAttributes[i], true
		}
	}
	return nil, false
}

// Validate checks value (read from a container via Get) against a, merging
// findings into log at loc, and returns the value validation should leave in
// place (Invalid when typing failed badly enough to bail).
func (a *Attribute) Validate(value interface{}, log *issuelog.Log, loc ...issuelog.PathElem) interface{} {
	if value == container.Missing || value == nil {
		if a.Required {
			log.AddError(errors.Missing, true, nil, loc...)
		}
		return container.Missing
	}
	if value == container.Invalid {
		return container.Invalid
	}

	if a.MultiValued {
		list, ok := value.([]interface{})
		if !ok {
			log.AddError(errors.BadType, true, map[string]interface{}{"expected": "list"}, loc...)
			return container.Invalid
		}
		out := make([]interface{}, len(list))
		bad := false
		for i, item := range list {
			elemLoc := append(append(issuelog.Location{}, loc...), issuelog.Index(i))
			v := a.validateSingular(item, log, elemLoc...)
			out[i] = v
			if v == container.Invalid {
				bad = true
			}
		}
		if a.Type == TypeComplex {
			a.checkComplexListInvariants(out, log, loc...)
		}
		if bad {
			// Individual elements already carry Invalid; the slot as a whole
			// still round-trips the valid elements.
			return out
		}
		return out
	}

	return a.validateSingular(value, log, loc...)
}

func (a *Attribute) checkComplexListInvariants(elems []interface{}, log *issuelog.Log, loc ...issuelog.PathElem) {
	if _, hasPrimary := a.subAttr("primary"); hasPrimary {
		primaryCount := 0
		for _, e := range elems {
			c, ok := e.(*container.Container)
			if !ok {
				continue
			}
			if b, _ := c.Get(container.AttrKey(attrRepOf("primary"))).(bool); b {
				primaryCount++
			}
		}
		if primaryCount > 1 {
			log.AddError(errors.MultiplePrimaryValues, true, nil, loc...)
		}
	}

	_, hasType := a.subAttr("type")
	_, hasValue := a.subAttr("value")
	if hasType && hasValue {
		seen := map[string]bool{}
		for _, e := range elems {
			c, ok := e.(*container.Container)
			if !ok {
				continue
			}
			t, _ := c.Get(container.AttrKey(attrRepOf("type"))).(string)
			v := c.Get(container.AttrKey(attrRepOf("value")))
			key := fmt.Sprintf("%s\x00%v", strings.ToLower(t), v)
			if seen[key] {
				log.AddWarning(errors.DuplicatedValues, nil, loc...)
			}
			seen[key] = true
		}
	}
}

func (a *Attribute) validateSingular(value interface{}, log *issuelog.Log, loc ...issuelog.PathElem) interface{} {
	if value == container.Missing || value == nil {
		if a.Required {
			log.AddError(errors.Missing, true, nil, loc...)
			return container.Missing
		}
		return container.Missing
	}

	var typed interface{}
	switch a.Type {
	case TypeBoolean:
		b, ok := value.(bool)
		if !ok {
			log.AddError(errors.BadType, true, map[string]interface{}{"expected": "boolean"}, loc...)
			return container.Invalid
		}
		typed = b
	case TypeInteger:
		switch n := value.(type) {
		case json.Number:
			i, err := n.Int64()
			if err != nil {
				log.AddError(errors.BadType, true, map[string]interface{}{"expected": "integer"}, loc...)
				return container.Invalid
			}
			typed = i
		case int, int32, int64:
			typed = n
		case float64:
			if n != float64(int64(n)) {
				log.AddError(errors.BadType, true, map[string]interface{}{"expected": "integer"}, loc...)
				return container.Invalid
			}
			typed = int64(n)
		default:
			log.AddError(errors.BadType, true, map[string]interface{}{"expected": "integer"}, loc...)
			return container.Invalid
		}
	case TypeDecimal:
		switch n := value.(type) {
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				log.AddError(errors.BadType, true, map[string]interface{}{"expected": "decimal"}, loc...)
				return container.Invalid
			}
			typed = f
		case float64:
			typed = n
		default:
			log.AddError(errors.BadType, true, map[string]interface{}{"expected": "decimal"}, loc...)
			return container.Invalid
		}
	case TypeString:
		s, ok := value.(string)
		if !ok {
			log.AddError(errors.BadType, true, map[string]interface{}{"expected": "string"}, loc...)
			return container.Invalid
		}
		typed = s
	case TypeBinary:
		s, ok := value.(string)
		if !ok {
			log.AddError(errors.BadType, true, map[string]interface{}{"expected": "binary"}, loc...)
			return container.Invalid
		}
		if !binaryPattern.MatchString(s) {
			if _, err := base64.StdEncoding.DecodeString(s); err != nil {
				log.AddError(errors.BadEncoding, true, map[string]interface{}{"expected": "base64"}, loc...)
				return container.Invalid
			}
		}
		typed = s
	case TypeDateTime:
		s, ok := value.(string)
		if !ok {
			log.AddError(errors.BadType, true, map[string]interface{}{"expected": "dateTime"}, loc...)
			return container.Invalid
		}
		if _, err := datetime.Parse(s); err != nil {
			log.AddError(errors.BadValueSyntax, true, nil, loc...)
			return container.Invalid
		}
		typed = s
	case TypeExternalReference:
		s, ok := value.(string)
		if !ok {
			log.AddError(errors.BadType, true, map[string]interface{}{"expected": "reference"}, loc...)
			return container.Invalid
		}
		u, err := url.Parse(s)
		if err != nil || !u.IsAbs() {
			log.AddError(errors.BadValueSyntax, true, nil, loc...)
			return container.Invalid
		}
		typed = s
	case TypeURIReference:
		s, ok := value.(string)
		if !ok {
			log.AddError(errors.BadType, true, map[string]interface{}{"expected": "reference"}, loc...)
			return container.Invalid
		}
		if _, err := url.Parse(s); err != nil {
			log.AddError(errors.BadValueSyntax, true, nil, loc...)
			return container.Invalid
		}
		typed = s
	case TypeSCIMReference:
		s, ok := value.(string)
		if !ok {
			log.AddError(errors.BadType, true, map[string]interface{}{"expected": "reference"}, loc...)
			return container.Invalid
		}
		if len(a.ReferenceTypes) > 0 {
			matched := false
			for _, rt := range a.ReferenceTypes {
				if strings.Contains(s, rt) {
					matched = true
					break
				}
			}
			if !matched {
				log.AddError(errors.BadScimReference, true, map[string]interface{}{"resources": a.ReferenceTypes}, loc...)
				return container.Invalid
			}
		}
		typed = s
	case TypeComplex:
		c, ok := value.(*container.Container)
		if !ok {
			log.AddError(errors.BadType, true, map[string]interface{}{"expected": "complex"}, loc...)
			return container.Invalid
		}
		out := container.New()
		for i := range a.SubAttributes {
			sub := &a.SubAttributes[i]
			subVal := c.Get(container.AttrKey(attrRepOf(sub.Name)))
			subLoc := append(append(issuelog.Location{}, loc...), issuelog.Key(sub.Name))
			v := sub.Validate(subVal, log, subLoc...)
			out.Set(container.AttrKey(attrRepOf(sub.Name)), v, false)
		}
		typed = out
	default:
		typed = value
	}

	if s, ok := typed.(string); ok && len(a.CanonicalValues) > 0 {
		if !matchesCanonical(s, a.CanonicalValues, a.CaseExact) {
			if a.RestrictCanonicalValues {
				log.AddError(errors.MustBeOneOf, true, map[string]interface{}{"expected": a.CanonicalValues}, loc...)
			} else {
				log.AddWarning(errors.MustBeOneOf, map[string]interface{}{"expected": a.CanonicalValues}, loc...)
			}
		}
	}

	if log.CanProceed(issuelog.Location(loc)) {
		for _, v := range a.Validators {
			v(typed, log, loc...)
		}
	}

	return typed
}

// Deserialize converts a wire value into the canonical in-memory
// representation. A per-attribute Deserializer, when set, always wins over
// the built-in conversion.
func (a *Attribute) Deserialize(value interface{}) (interface{}, error) {
	if value == nil || value == container.Missing {
		return container.Missing, nil
	}
	if a.Deserializer != nil && !a.MultiValued {
		return a.Deserializer(value)
	}
	if a.MultiValued {
		list, ok := value.([]interface{})
		if !ok {
			return nil, &errors.ScimErrorInvalidValue
		}
		out := make([]interface{}, len(list))
		for i, item := range list {
			v, err := a.deserializeSingular(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	return a.deserializeSingular(value)
}

func (a *Attribute) deserializeSingular(value interface{}) (interface{}, error) {
	if a.Deserializer != nil {
		return a.Deserializer(value)
	}
	if a.Type == TypeComplex {
		c, ok := value.(*container.Container)
		if !ok {
			return nil, &errors.ScimErrorInvalidValue
		}
		out := container.New()
		for i := range a.SubAttributes {
			sub := &a.SubAttributes[i]
			v, err := sub.Deserialize(c.Get(container.AttrKey(attrRepOf(sub.Name))))
			if err != nil {
				return nil, err
			}
			out.Set(container.AttrKey(attrRepOf(sub.Name)), v, false)
		}
		return out, nil
	}
	return value, nil
}

// Serialize converts the canonical in-memory representation back into a
// wire value. Symmetric to Deserialize.
func (a *Attribute) Serialize(value interface{}) (interface{}, error) {
	if value == nil || value == container.Missing {
		return nil, nil
	}
	if a.Serializer != nil && !a.MultiValued {
		return a.Serializer(value)
	}
	if a.MultiValued {
		list, ok := value.([]interface{})
		if !ok {
			return nil, &errors.ScimErrorInvalidValue
		}
		out := make([]interface{}, len(list))
		for i, item := range list {
			v, err := a.serializeSingular(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	return a.serializeSingular(value)
}

func (a *Attribute) serializeSingular(value interface{}) (interface{}, error) {
	if a.Serializer != nil {
		return a.Serializer(value)
	}
	if a.Type == TypeComplex {
		c, ok := value.(*container.Container)
		if !ok {
			return nil, &errors.ScimErrorInvalidValue
		}
		out := map[string]interface{}{}
		for i := range a.SubAttributes {
			sub := &a.SubAttributes[i]
			v, err := sub.Serialize(c.Get(container.AttrKey(attrRepOf(sub.Name))))
			if err != nil {
				return nil, err
			}
			if v != nil {
				out[sub.Name] = v
			}
		}
		return out, nil
	}
	return value, nil
}

// Clone produces a copy of a Complex attribute with only sub-attributes
// matching filter; non-Complex attributes are returned unchanged.
func (a Attribute) Clone(filter func(Attribute) bool) Attribute {
	if a.Type != TypeComplex {
		return a
	}
	out := a
	out.SubAttributes = nil
	for _, sub := range a.SubAttributes {
		if filter(sub) {
			out.SubAttributes = append(out.SubAttributes, sub)
		}
	}
	return out
}
