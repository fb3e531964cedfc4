// Package errors defines the fixed SCIM error taxonomy (spec §7) plus the
// flat HTTP-facing ScimError the teacher's server glue already returned.
// Code.Render renders a code against a context map the way the teacher
// built Detail strings by hand (e.g. errors.ScimErrorInvalidValue.Detail +
// " Attribute name: " + name) — Render centralizes that string-building so
// issuelog and every validator share one template per code instead of
// repeating ad-hoc concatenation.
package errors

import "fmt"

// Code is one of the fixed, enumerated issue codes from spec.md §7.
type Code int

const (
	BadValueSyntax Code = iota + 1
	BadType
	BadEncoding
	BadValueContent
	Missing
	MustNotBeProvided
	MustNotBeReturned
	MustBeEqualTo
	MustBeOneOf
	DuplicatedValues
	CannotBeUsedTogether
	MissingMainSchema
	MissingSchemaExtension
	UnknownSchema
	MultiplePrimaryValues
	BadScimReference
	BadAttributeName
	BadErrorStatus
	BadStatusCode
	BadNumberOfResources
	ResourcesNotFiltered
	ResourcesNotSorted
	ResourceTypeEndpointRequired
	ResourceObjectEndpointRequired
	UnknownOperationResource
	TooManyBulkOperations
	TooManyErrorsInBulk
	UnknownModificationTarget
	AttributeCannotBeModified
	AttributeCannotBeDeleted
	NotSupported
)

// Filter-syntax codes live in their own numeric band (100+) per spec.md §7.
const (
	BracketMismatch Code = iota + 100
	ComplexAttributeBracketMismatch
	ComplexSubAttribute
	MissingOperand
	UnknownOperator
	EmptyFilter
	UnknownExpression
	NestedComplexAttribute
	EmptyComplexGroup
	BadOperand
	NonCompatibleOperand
)

var names = map[Code]string{
	BadValueSyntax:                  "badValueSyntax",
	BadType:                         "badType",
	BadEncoding:                     "badEncoding",
	BadValueContent:                 "badValueContent",
	Missing:                         "missing",
	MustNotBeProvided:               "mustNotBeProvided",
	MustNotBeReturned:               "mustNotBeReturned",
	MustBeEqualTo:                   "mustBeEqualTo",
	MustBeOneOf:                     "mustBeOneOf",
	DuplicatedValues:                "duplicatedValues",
	CannotBeUsedTogether:            "cannotBeUsedTogether",
	MissingMainSchema:               "missingMainSchema",
	MissingSchemaExtension:          "missingSchemaExtension",
	UnknownSchema:                   "unknownSchema",
	MultiplePrimaryValues:           "multiplePrimaryValues",
	BadScimReference:                "badScimReference",
	BadAttributeName:                "badAttributeName",
	BadErrorStatus:                  "badErrorStatus",
	BadStatusCode:                   "badStatusCode",
	BadNumberOfResources:            "badNumberOfResources",
	ResourcesNotFiltered:            "resourcesNotFiltered",
	ResourcesNotSorted:              "resourcesNotSorted",
	ResourceTypeEndpointRequired:    "resourceTypeEndpointRequired",
	ResourceObjectEndpointRequired:  "resourceObjectEndpointRequired",
	UnknownOperationResource:        "unknownOperationResource",
	TooManyBulkOperations:           "tooManyBulkOperations",
	TooManyErrorsInBulk:             "tooManyErrorsInBulk",
	UnknownModificationTarget:       "unknownModificationTarget",
	AttributeCannotBeModified:       "attributeCannotBeModified",
	AttributeCannotBeDeleted:        "attributeCannotBeDeleted",
	NotSupported:                    "notSupported",
	BracketMismatch:                 "bracketMismatch",
	ComplexAttributeBracketMismatch: "complexAttributeBracketMismatch",
	ComplexSubAttribute:             "complexSubAttribute",
	MissingOperand:                  "missingOperand",
	UnknownOperator:                 "unknownOperator",
	EmptyFilter:                     "emptyFilter",
	UnknownExpression:               "unknownExpression",
	NestedComplexAttribute:          "nestedComplexAttribute",
	EmptyComplexGroup:               "emptyComplexGroup",
	BadOperand:                      "badOperand",
	NonCompatibleOperand:            "nonCompatibleOperand",
}

// String returns the code's stable, lowerCamelCase name.
func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Render formats the code's message template against a context map. Context
// keys referenced by a given code's template that are absent from ctx are
// rendered as "<?>" rather than panicking, so a caller assembling context
// incrementally never crashes validation.
func (c Code) Render(ctx map[string]interface{}) string {
	get := func(k string) interface{} {
		if v, ok := ctx[k]; ok {
			return v
		}
		return "<?>"
	}

	switch c {
	case BadValueSyntax:
		return "bad value syntax"
	case BadType:
		return fmt.Sprintf("bad type, expected %v", get("expected"))
	case BadEncoding:
		return fmt.Sprintf("bad encoding, expected %v", get("expected"))
	case BadValueContent:
		return "bad value content"
	case Missing:
		return "missing required value"
	case MustNotBeProvided:
		return "value must not be provided"
	case MustNotBeReturned:
		return "value must not be returned"
	case MustBeEqualTo:
		return fmt.Sprintf("must be equal to %v", get("value"))
	case MustBeOneOf:
		return fmt.Sprintf("must be one of %v", get("expected"))
	case DuplicatedValues:
		return "duplicated values"
	case CannotBeUsedTogether:
		return fmt.Sprintf("cannot be used together with %v", get("other"))
	case MissingMainSchema:
		return "missing main schema in \"schemas\""
	case MissingSchemaExtension:
		return fmt.Sprintf("missing required schema extension %v", get("ext"))
	case UnknownSchema:
		return "unknown schema"
	case MultiplePrimaryValues:
		return "multiple values marked as primary"
	case BadScimReference:
		return fmt.Sprintf("bad SCIM reference, resource must be one of %v", get("resources"))
	case BadAttributeName:
		return fmt.Sprintf("bad attribute name %v", get("name"))
	case BadErrorStatus:
		return "bad error status"
	case BadStatusCode:
		return fmt.Sprintf("bad status code, expected %v", get("expected"))
	case BadNumberOfResources:
		return fmt.Sprintf("bad number of resources: %v", get("reason"))
	case ResourcesNotFiltered:
		return "resources are not filtered"
	case ResourcesNotSorted:
		return "resources are not sorted"
	case ResourceTypeEndpointRequired:
		return "resource type endpoint is required"
	case ResourceObjectEndpointRequired:
		return "resource object endpoint is required"
	case UnknownOperationResource:
		return "unknown operation resource"
	case TooManyBulkOperations:
		return fmt.Sprintf("too many bulk operations, max is %v", get("max"))
	case TooManyErrorsInBulk:
		return fmt.Sprintf("too many errors in bulk response, max is %v", get("max"))
	case UnknownModificationTarget:
		return "unknown modification target"
	case AttributeCannotBeModified:
		return "attribute cannot be modified"
	case AttributeCannotBeDeleted:
		return "attribute cannot be deleted"
	case NotSupported:
		return "not supported"
	case BracketMismatch:
		return "bracket mismatch"
	case ComplexAttributeBracketMismatch:
		return "complex attribute bracket mismatch"
	case ComplexSubAttribute:
		return fmt.Sprintf("attribute %v has no sub-attribute %v", get("attr"), get("sub"))
	case MissingOperand:
		return fmt.Sprintf("missing operand for operator %v in %v", get("op"), get("expr"))
	case UnknownOperator:
		return fmt.Sprintf("unknown operator %v in %v", get("op"), get("expr"))
	case EmptyFilter:
		return "empty filter"
	case UnknownExpression:
		return fmt.Sprintf("unknown expression %v", get("expr"))
	case NestedComplexAttribute:
		return "nested complex attribute grouping is not allowed"
	case EmptyComplexGroup:
		return fmt.Sprintf("empty complex attribute group for %v", get("attr"))
	case BadOperand:
		return fmt.Sprintf("bad operand value %v", get("value"))
	case NonCompatibleOperand:
		return fmt.Sprintf("operand %v is not compatible with operator %v", get("value"), get("op"))
	default:
		return c.String()
	}
}

// ScimError is the flat, HTTP-facing error shape the teacher's glue layer
// (server.go, resource_type.go) returns directly to callers that are not
// walking a resource tree — e.g. a malformed PATCH path, or a request body
// that fails to parse as JSON at all.
type ScimError struct {
	ScimType string `json:"scimType,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Status   int    `json:"status"`
}

func (e *ScimError) Error() string {
	return e.Detail
}

// Sentinel ScimErrors, carried over verbatim from the teacher (dwardin-scim's
// schema/core.go and schema/schema.go construct errors.ScimErrorInvalidValue
// etc. inline at every call site; here they are named values so the whole
// repo shares one copy of each).
var (
	ScimErrorInvalidSyntax = ScimError{
		ScimType: "invalidSyntax",
		Detail:   "Request is invalid or malformed.",
		Status:   400,
	}
	ScimErrorInvalidValue = ScimError{
		ScimType: "invalidValue",
		Detail:   "Attribute value is invalid.",
		Status:   400,
	}
	ScimErrorInvalidFilter = ScimError{
		ScimType: "invalidFilter",
		Detail:   "Filter syntax was invalid, or the attribute and filter comparison combination is not supported.",
		Status:   400,
	}
	ScimErrorInvalidPath = ScimError{
		ScimType: "invalidPath",
		Detail:   "The path attribute was invalid or malformed.",
		Status:   400,
	}
	ScimErrorMutability = ScimError{
		ScimType: "mutability",
		Detail:   "Attribute is immutable and cannot be modified.",
		Status:   400,
	}
	ScimErrorDuplicateAttributeFound = ScimError{
		ScimType: "invalidValue",
		Detail:   "Duplicate attribute name found in request body.",
		Status:   400,
	}
	ScimErrorNoTarget = ScimError{
		ScimType: "noTarget",
		Detail:   "The specified path did not yield an attribute or attribute value that could be operated on.",
		Status:   400,
	}
)

// ScimErrorBadParams reports one or more unrecognized/invalid query
// parameters, carried over from the teacher's server.go.
func ScimErrorBadParams(params []string) ScimError {
	return ScimError{
		ScimType: "invalidValue",
		Detail:   fmt.Sprintf("Invalid request parameter(s) provided: %v.", params),
		Status:   400,
	}
}
