// Package schema implements component D: the typed attribute model and the
// schema/extension catalog, including presence policy and whole-resource
// validation.
//
// Grounded on dwardin-scim/schema/core.go and schema/schema.go (CoreAttribute,
// attributeType/attributeMutability/attributeReturned/attributeUniqueness
// enums, ComplexCoreAttribute/SimpleCoreAttribute constructors) generalized
// from a validate-and-stop model to the issue-log-accumulating, presence-aware
// model of spec.md §4.D; and on original_source/src/data/attrs.py and
// src/data/schemas.py for the catalog/extension/presence semantics the
// teacher's flat schema.Schema does not have.
package schema

import "strings"

// Type is the SCIM attribute data type.
type Type int

const (
	TypeUnknown Type = iota
	TypeBoolean
	TypeInteger
	TypeDecimal
	TypeString
	TypeBinary
	TypeDateTime
	TypeExternalReference
	TypeURIReference
	TypeSCIMReference
	TypeComplex
)

func (t Type) String() string {
	switch t {
	case TypeBoolean:
		return "boolean"
	case TypeInteger:
		return "integer"
	case TypeDecimal:
		return "decimal"
	case TypeString:
		return "string"
	case TypeBinary:
		return "binary"
	case TypeDateTime:
		return "dateTime"
	case TypeExternalReference, TypeURIReference, TypeSCIMReference:
		return "reference"
	case TypeComplex:
		return "complex"
	default:
		return "unknown"
	}
}

// IsReference reports whether t is one of the three reference variants.
func (t Type) IsReference() bool {
	return t == TypeExternalReference || t == TypeURIReference || t == TypeSCIMReference
}

// Mutability is the attribute mutability enumeration.
type Mutability int

const (
	MutabilityReadWrite Mutability = iota
	MutabilityReadOnly
	MutabilityWriteOnly
	MutabilityImmutable
)

func (m Mutability) String() string {
	switch m {
	case MutabilityReadOnly:
		return "readOnly"
	case MutabilityWriteOnly:
		return "writeOnly"
	case MutabilityImmutable:
		return "immutable"
	default:
		return "readWrite"
	}
}

// Returned is the attribute return-policy enumeration.
type Returned int

const (
	ReturnedDefault Returned = iota
	ReturnedAlways
	ReturnedNever
	ReturnedRequest
)

func (r Returned) String() string {
	switch r {
	case ReturnedAlways:
		return "always"
	case ReturnedNever:
		return "never"
	case ReturnedRequest:
		return "request"
	default:
		return "default"
	}
}

// Issuer describes who is expected to supply an attribute's value.
type Issuer int

const (
	IssuerNotSpecified Issuer = iota
	IssuerServer
	IssuerClient
)

// Uniqueness is the attribute uniqueness enumeration.
type Uniqueness int

const (
	UniquenessNone Uniqueness = iota
	UniquenessServer
	UniquenessGlobal
)

func (u Uniqueness) String() string {
	switch u {
	case UniquenessServer:
		return "server"
	case UniquenessGlobal:
		return "global"
	default:
		return "none"
	}
}

// Direction is the presence-check direction: a request flowing in, or a
// response flowing out.
type Direction int

const (
	DirectionRequest Direction = iota
	DirectionResponse
)

// matchesCanonical reports whether v (case-insensitively when !caseExact)
// matches one of the allowed canonical values.
func matchesCanonical(v string, canonical []string, caseExact bool) bool {
	for _, c := range canonical {
		if caseExact {
			if v == c {
				return true
			}
		} else if strings.EqualFold(v, c) {
			return true
		}
	}
	return false
}
