package patch

import (
	"strings"

	"github.com/scimplex/core/attrrep"
	"github.com/scimplex/core/container"
	"github.com/scimplex/core/errors"
	"github.com/scimplex/core/issuelog"
	"github.com/scimplex/core/schema"
)

func attrFor(name string) attrrep.AttrRep { return attrrep.New(name, "") }

// Op is a PATCH operation's restricted-canonical "op" value.
type Op string

const (
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpReplace Op = "replace"
)

// Operation is one parsed element of a PatchOp's "Operations" list: the
// {op, path, value} triple of spec.md §4.F, with path already parsed (or nil
// when omitted) and value left as whatever the wire payload carried.
type Operation struct {
	Op    Op
	Path  *Path
	Value interface{}
}

// ValidateStructure checks the structural requirement every PatchOp
// operation must satisfy regardless of target schema: remove needs a path,
// add needs a value. A violation is recorded at the operation's own location
// with proceed=false, so CanProceed for that operation reports false.
func ValidateStructure(o Operation, log *issuelog.Log, loc ...issuelog.PathElem) {
	switch o.Op {
	case OpRemove:
		if o.Path == nil {
			log.AddError(errors.Missing, false, map[string]interface{}{"field": "path"}, loc...)
		}
	case OpAdd:
		if o.Value == nil {
			log.AddError(errors.Missing, false, map[string]interface{}{"field": "value"}, loc...)
		}
	}
}

// Location is a small alias to keep this package's location appends legible.
type Location = issuelog.Location

func findSubAttr(attr *schema.Attribute, name string) (*schema.Attribute, bool) {
	for i := range attr.SubAttributes {
		if strings.EqualFold(attr.SubAttributes[i].Name, name) {
			return &attr.SubAttributes[i], true
		}
	}
	return nil, false
}

// ValidateOperation checks o against rs, per spec.md §4.F "Operation
// validation against a resource schema". It assumes o already passed
// ValidateStructure.
func ValidateOperation(o Operation, rs *schema.ResourceSchema, log *issuelog.Log, loc ...issuelog.PathElem) {
	switch o.Op {
	case OpRemove:
		validateRemove(o, rs, log, loc...)
	case OpAdd, OpReplace:
		if o.Path == nil {
			validateAddReplaceWithoutPath(o, rs, log, loc...)
		} else {
			validateAddReplaceWithPath(o, rs, log, loc...)
		}
	}
}

func validateRemove(o Operation, rs *schema.ResourceSchema, log *issuelog.Log, loc ...issuelog.PathElem) {
	if o.Path == nil {
		return
	}
	attr, rep, ok := o.Path.Resolve(rs)
	if !ok {
		log.AddError(errors.UnknownModificationTarget, true, nil, loc...)
		return
	}

	if !rep.HasSubAttr() {
		if attr.Mutability == schema.MutabilityReadOnly {
			log.AddError(errors.AttributeCannotBeModified, true, nil, loc...)
		}
		if attr.Required {
			log.AddError(errors.AttributeCannotBeDeleted, true, nil, loc...)
		}
		return
	}

	parentRep := rep
	parentRep.SubAttr = ""
	parent, pok := rs.Attrs.Get(parentRep)
	if !pok {
		log.AddError(errors.UnknownModificationTarget, true, nil, loc...)
		return
	}
	if parent.Mutability == schema.MutabilityReadOnly || attr.Mutability == schema.MutabilityReadOnly {
		log.AddError(errors.AttributeCannotBeModified, true, nil, loc...)
	}
	if attr.Required && !parent.MultiValued {
		log.AddError(errors.AttributeCannotBeDeleted, true, nil, loc...)
	}
}

// schemaErrorCodes are the "schemas"-field-related errors a partial resource
// supplied by an add/replace-without-path operation is not expected to
// satisfy (it is not itself a full resource), popped after the full
// validation pass runs over it.
var schemaErrorCodes = []errors.Code{errors.MissingMainSchema, errors.MissingSchemaExtension, errors.UnknownSchema}

func validateAddReplaceWithoutPath(o Operation, rs *schema.ResourceSchema, log *issuelog.Log, loc ...issuelog.PathElem) {
	c, ok := o.Value.(*container.Container)
	if !ok {
		log.AddError(errors.BadValueSyntax, true, nil, loc...)
		return
	}

	sub := rs.Validate(c, &schema.AttrPresenceConfig{Direction: schema.DirectionRequest})
	sub.PopErrors(schemaErrorCodes)
	// A partial value need not carry every required attribute; required
	// sub-attributes of the attributes it does supply are checked again by
	// checkSuppliedAttr below.
	sub.PopErrors([]errors.Code{errors.Missing})
	log.Merge(sub, loc...)

	for _, key := range c.Keys() {
		rep, _, err := (attrrep.Factory{}).Parse(key)
		if err != nil {
			continue
		}
		attr, ok := rs.Attrs.Get(rep)
		if !ok {
			continue
		}
		if attr.Mutability == schema.MutabilityReadOnly {
			log.AddError(errors.AttributeCannotBeModified, false, nil, append(append(Location{}, loc...), issuelog.Key(key))...)
			continue
		}
		attrLoc := append(append(Location{}, loc...), issuelog.Key(key))
		checkSuppliedAttr(attr, c.Get(container.BoundedKey(rep)), log, attrLoc...)
	}
}

func validateAddReplaceWithPath(o Operation, rs *schema.ResourceSchema, log *issuelog.Log, loc ...issuelog.PathElem) {
	attr, _, ok := o.Path.Resolve(rs)
	if !ok {
		log.AddError(errors.UnknownModificationTarget, true, nil, loc...)
		return
	}
	if attr.Mutability == schema.MutabilityReadOnly {
		log.AddError(errors.AttributeCannotBeModified, true, nil, loc...)
		return
	}

	value := o.Value
	if o.Path.Group != nil && o.Path.SubAttr == "" {
		if _, isList := value.([]interface{}); !isList {
			value = []interface{}{value}
		}
	}

	attr.Validate(value, log, loc...)
	checkSuppliedAttr(attr, value, log, loc...)
}

// checkSuppliedAttr applies the Complex-attribute sub-attribute rules
// ("readonly sub-attributes present -> per-sub error; otherwise verify
// presence of required sub-attributes") to a value already known to have
// been supplied for attr.
func checkSuppliedAttr(attr *schema.Attribute, value interface{}, log *issuelog.Log, loc ...issuelog.PathElem) {
	if attr.Type != schema.TypeComplex {
		return
	}
	elems := []interface{}{value}
	if attr.MultiValued {
		if list, ok := value.([]interface{}); ok {
			elems = list
		}
	}
	for i, e := range elems {
		elemLoc := loc
		if attr.MultiValued {
			elemLoc = append(append(Location{}, loc...), issuelog.Index(i))
		}
		ec, ok := e.(*container.Container)
		if !ok {
			continue
		}
		for _, sub := range attr.SubAttributes {
			subLoc := append(append(Location{}, elemLoc...), issuelog.Key(sub.Name))
			val := ec.Get(container.AttrKey(attrFor(sub.Name)))
			present := val != nil && val != container.Missing
			if present && sub.Mutability == schema.MutabilityReadOnly {
				log.AddError(errors.AttributeCannotBeModified, true, nil, subLoc...)
				continue
			}
			if !present && sub.Required {
				log.AddError(errors.Missing, true, nil, subLoc...)
			}
		}
	}
}
