// Package container implements component C: a case-insensitive,
// schema-URI-aware nested associative structure with dotted/filtered path
// access, key-casing preservation, and the Missing/Invalid
// sentinels used throughout validation.
//
// Grounded on original_source/src/container.py, which implements exactly
// this routing (top-level vs. extension-bucket vs. sub-attribute writes).
// The teacher (dwardin-scim) instead threads plain map[string]interface{}
// through validate()/Validate() with manual strings.EqualFold lookups
// (schema/core.go, schema/schema.go) — this package is the generalized,
// reusable replacement the spec calls for, built in the same
// constructor-returns-struct, method-per-operation style as CoreAttribute.
package container

import (
	"sort"
	"strings"

	"github.com/scimplex/core/attrrep"
)

type missingType struct{}

func (missingType) String() string { return "<missing>" }

type invalidType struct{}

func (invalidType) String() string { return "<invalid>" }

// Missing marks an attribute that is entirely absent.
var Missing = missingType{}

// Invalid marks an attribute that was present but failed typing badly
// enough that validation bailed and replaced the value.
var Invalid = invalidType{}

// Key selects a position to read/write in a Container. Construct one with
// SchemaKey, AttrKey, BoundedKey, or ParseKey.
type Key struct {
	isSchemaURI bool
	schemaURI   string
	rep         attrrep.BoundedAttrRep
}

// SchemaKey targets an entire extension bucket by its schema URI.
func SchemaKey(uri string) Key {
	return Key{isSchemaURI: true, schemaURI: uri}
}

// AttrKey targets an unbounded attribute reference.
func AttrKey(rep attrrep.AttrRep) Key {
	return Key{rep: attrrep.BoundedAttrRep{AttrRep: rep}}
}

// BoundedKey targets a schema-qualified attribute reference.
func BoundedKey(rep attrrep.BoundedAttrRep) Key {
	return Key{rep: rep}
}

// ParseKey parses a dotted attribute-reference string (e.g. "name.givenName"
// or "urn:...:employeeNumber") into a Key.
func ParseKey(s string) (Key, error) {
	rep, _, err := (attrrep.Factory{}).Parse(s)
	if err != nil {
		return Key{}, err
	}
	return Key{rep: rep}, nil
}

// Container is the engine's case-insensitive nested map value.
type Container struct {
	keys          []string // original-case keys, insertion order
	lower         map[string]int
	values        map[string]interface{}
	extensionURIs map[string]bool // lower(uri) -> true; only meaningful on a root/resource-level container
}

// New returns an empty container. extensionURIs names the schema URIs that
// should be treated as extension buckets for routing purposes (only
// meaningful on a resource-level container).
func New(extensionURIs ...string) *Container {
	c := &Container{
		lower:         map[string]int{},
		values:        map[string]interface{}{},
		extensionURIs: map[string]bool{},
	}
	for _, u := range extensionURIs {
		c.extensionURIs[strings.ToLower(u)] = true
	}
	return c
}

func (c *Container) isExtensionURI(uri string) bool {
	return c.extensionURIs[strings.ToLower(uri)]
}

// FromRaw deep-converts a parsed JSON-like tree (maps/slices/primitives, as
// produced by encoding/json with UseNumber) into a Container. Top-level keys
// that are, or are prefixed by, a registered extension URI are routed into
// that extension's bucket.
func FromRaw(raw map[string]interface{}, extensionURIs ...string) *Container {
	c := New(extensionURIs...)
	for k, v := range raw {
		if c.isExtensionURI(k) {
			c.setTopLevel(k, deepConvert(v))
			continue
		}
		if idx := strings.LastIndex(k, ":"); idx > 0 && c.isExtensionURI(k[:idx]) {
			bucket := c.bucketFor(k[:idx], true)
			bucket.setTopLevel(k[idx+1:], deepConvert(v))
			continue
		}
		c.setTopLevel(k, deepConvert(v))
	}
	return c
}

func deepConvert(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return FromRaw(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = deepConvert(e)
		}
		return out
	default:
		return v
	}
}

func (c *Container) setTopLevel(key string, value interface{}) {
	lk := strings.ToLower(key)
	if i, ok := c.lower[lk]; ok {
		c.keys[i] = key
		c.values[lk] = value
		return
	}
	c.keys = append(c.keys, key)
	c.lower[lk] = len(c.keys) - 1
	c.values[lk] = value
}

func (c *Container) getTopLevel(key string) (interface{}, bool) {
	lk := strings.ToLower(key)
	v, ok := c.values[lk]
	return v, ok
}

func (c *Container) popTopLevel(key string) (interface{}, bool) {
	lk := strings.ToLower(key)
	v, ok := c.values[lk]
	if !ok {
		return nil, false
	}
	delete(c.values, lk)
	if i, ok := c.lower[lk]; ok {
		c.keys = append(c.keys[:i], c.keys[i+1:]...)
		delete(c.lower, lk)
		for k, idx := range c.lower {
			if idx > i {
				c.lower[k] = idx - 1
			}
		}
	}
	return v, true
}

// bucketFor returns (creating if necessary, when create is true) the nested
// Container stored under the given extension schema URI.
func (c *Container) bucketFor(uri string, create bool) *Container {
	if v, ok := c.getTopLevel(uri); ok {
		if sub, ok := v.(*Container); ok {
			return sub
		}
	}
	if !create {
		return nil
	}
	sub := New()
	c.setTopLevel(uri, sub)
	return sub
}

// Set writes value at key. expand controls how a list sub-attribute value
// is distributed across a multi-valued complex parent (see spec.md §4.C).
func (c *Container) Set(key Key, value interface{}, expand bool) error {
	if key.isSchemaURI {
		sub, _ := value.(*Container)
		if sub == nil {
			sub = New()
		}
		c.setTopLevel(key.schemaURI, sub)
		return nil
	}

	if key.rep.Schema != "" && c.isExtensionURI(key.rep.Schema) {
		bucket := c.bucketFor(key.rep.Schema, true)
		return bucket.Set(AttrKey(key.rep.AttrRep), value, expand)
	}

	if !key.rep.HasSubAttr() {
		c.setTopLevel(key.rep.Attr, value)
		return nil
	}

	return c.setSubAttr(key.rep.Attr, key.rep.SubAttr, value, expand)
}

func (c *Container) setSubAttr(attr, sub string, value interface{}, expand bool) error {
	existing, _ := c.getTopLevel(attr)

	list, isList := value.([]interface{})
	if isList && expand {
		var parent []interface{}
		switch p := existing.(type) {
		case nil:
			parent = make([]interface{}, 0, len(list))
		case missingType:
			parent = make([]interface{}, 0, len(list))
		case []interface{}:
			parent = p
		default:
			return errNotAList
		}
		for len(parent) < len(list) {
			parent = append(parent, New())
		}
		for i, sv := range list {
			if sv == Missing {
				continue
			}
			elemContainer, ok := parent[i].(*Container)
			if !ok {
				elemContainer = New()
				parent[i] = elemContainer
			}
			elemContainer.setTopLevel(sub, sv)
		}
		c.setTopLevel(attr, parent)
		return nil
	}

	if isList && !expand {
		target := c.childContainer(attr, existing)
		target.setTopLevel(sub, list)
		return nil
	}

	target := c.childContainer(attr, existing)
	target.setTopLevel(sub, value)
	return nil
}

func (c *Container) childContainer(attr string, existing interface{}) *Container {
	switch v := existing.(type) {
	case *Container:
		return v
	default:
		sub := New()
		c.setTopLevel(attr, sub)
		return sub
	}
}

var errNotAList = &notAListError{}

type notAListError struct{}

func (*notAListError) Error() string { return "cannot expand a non-list sub-attribute value onto a non-list parent" }

// Get reads the value at key, returning Missing when absent.
func (c *Container) Get(key Key) interface{} {
	if key.isSchemaURI {
		if v, ok := c.getTopLevel(key.schemaURI); ok {
			return v
		}
		return Missing
	}

	if key.rep.Schema != "" && c.isExtensionURI(key.rep.Schema) {
		bucket := c.bucketFor(key.rep.Schema, false)
		if bucket == nil {
			return Missing
		}
		return bucket.Get(AttrKey(key.rep.AttrRep))
	}

	if !key.rep.HasSubAttr() {
		if v, ok := c.getTopLevel(key.rep.Attr); ok {
			return v
		}
		return Missing
	}

	parent, ok := c.getTopLevel(key.rep.Attr)
	if !ok {
		return Missing
	}
	switch p := parent.(type) {
	case *Container:
		return p.Get(AttrKey(attrrep.New(key.rep.SubAttr, "")))
	case []interface{}:
		out := make([]interface{}, len(p))
		for i, e := range p {
			if ec, ok := e.(*Container); ok {
				out[i] = ec.Get(AttrKey(attrrep.New(key.rep.SubAttr, "")))
			} else {
				out[i] = Missing
			}
		}
		return out
	default:
		return Missing
	}
}

// Pop removes and returns the value at key, or Missing if absent.
func (c *Container) Pop(key Key) interface{} {
	if key.isSchemaURI {
		if v, ok := c.popTopLevel(key.schemaURI); ok {
			return v
		}
		return Missing
	}
	if key.rep.Schema != "" && c.isExtensionURI(key.rep.Schema) {
		bucket := c.bucketFor(key.rep.Schema, false)
		if bucket == nil {
			return Missing
		}
		return bucket.Pop(AttrKey(key.rep.AttrRep))
	}
	if !key.rep.HasSubAttr() {
		if v, ok := c.popTopLevel(key.rep.Attr); ok {
			return v
		}
		return Missing
	}
	parent, ok := c.getTopLevel(key.rep.Attr)
	if !ok {
		return Missing
	}
	if p, ok := parent.(*Container); ok {
		return p.Pop(AttrKey(attrrep.New(key.rep.SubAttr, "")))
	}
	return Missing
}

// Keys returns the top-level keys in insertion order, each in the casing of
// the most recent write to that key.
func (c *Container) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// ToDict converts the container back into a plain tree of maps, slices, and
// primitives, suitable for JSON encoding by the caller.
func (c *Container) ToDict() map[string]interface{} {
	out := make(map[string]interface{}, len(c.keys))
	for _, k := range c.keys {
		out[k] = toDictValue(c.values[strings.ToLower(k)])
	}
	return out
}

func toDictValue(v interface{}) interface{} {
	switch val := v.(type) {
	case *Container:
		return val.ToDict()
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = toDictValue(e)
		}
		return out
	case missingType:
		return nil
	default:
		return v
	}
}

// Equals reports whether c and other describe the same data, treating a
// namespaced SchemaURI key as equivalent to the corresponding nested
// extension bucket (spec.md §4.C, §8).
func (c *Container) Equals(other *Container) bool {
	if c == nil || other == nil {
		return c == other
	}
	a := flatten(c)
	b := flatten(other)
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		ov, ok := b[k]
		if !ok || !valueEquals(v, ov) {
			return false
		}
	}
	return true
}

// flatten produces a map keyed by lower-case top-level attr name, with
// extension buckets folded in as "schema:attr" entries alongside a nested
// form, so containers built from either the flat or nested spelling of an
// extension attribute compare equal.
func flatten(c *Container) map[string]interface{} {
	out := map[string]interface{}{}
	for _, k := range c.keys {
		lk := strings.ToLower(k)
		v := c.values[lk]
		out[lk] = v
		if bucket, ok := v.(*Container); ok && c.isExtensionURI(k) {
			for _, bk := range bucket.keys {
				blk := strings.ToLower(bk)
				out[lk+":"+blk] = bucket.values[blk]
			}
		}
	}
	return out
}

func valueEquals(a, b interface{}) bool {
	ac, aok := a.(*Container)
	bc, bok := b.(*Container)
	if aok || bok {
		if !aok || !bok {
			return false
		}
		return ac.Equals(bc)
	}

	al, aok := a.([]interface{})
	bl, bok := b.([]interface{})
	if aok || bok {
		if !aok || !bok || len(al) != len(bl) {
			return false
		}
		for i := range al {
			if !valueEquals(al[i], bl[i]) {
				return false
			}
		}
		return true
	}

	return a == b
}

// SortedKeys is a small helper for deterministic test output.
func (c *Container) SortedKeys() []string {
	out := c.Keys()
	sort.Strings(out)
	return out
}
