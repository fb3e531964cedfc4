package schema

import (
	"strings"

	"github.com/scimplex/core/attrrep"
	"github.com/scimplex/core/container"
	"github.com/scimplex/core/errors"
	"github.com/scimplex/core/issuelog"
)

// UserSchema is the URI for the User resource.
const UserSchema = "urn:ietf:params:scim:schemas:core:2.0:User"

// GroupSchema is the URI for the Group resource.
const GroupSchema = "urn:ietf:params:scim:schemas:core:2.0:Group"

func idxKey(schemaURI, attr, sub string) string {
	return strings.ToLower(schemaURI) + "\x00" + strings.ToLower(attr) + "\x00" + strings.ToLower(sub)
}

// BoundedAttrs is the two-level index described in spec.md §4.D: a
// (schema_uri, attr_name) -> Attribute map plus an
// (attr_rep, sub_attr_rep) -> Attribute index for Complex attributes, filled
// in as each Complex attribute is added.
// Grounded on dwardin-scim/schema/schema.go's Attributes.ContainsAttribute,
// generalized from a single flat slice scanned with strings.EqualFold to a
// schema-URI-aware index so extension attributes and core attributes share
// one lookup surface.
type BoundedAttrs struct {
	mainURI string
	order   []attrrep.BoundedAttrRep
	attrs   map[string]*Attribute
	subs    map[string]*Attribute
}

func newBoundedAttrs(mainURI string) *BoundedAttrs {
	return &BoundedAttrs{
		mainURI: mainURI,
		attrs:   map[string]*Attribute{},
		subs:    map[string]*Attribute{},
	}
}

// add registers attr under schemaURI, indexing its sub-attributes too when
// it is Complex, and returns the BoundedAttrRep identifying it.
func (b *BoundedAttrs) add(schemaURI string, attr Attribute) attrrep.BoundedAttrRep {
	cp := attr
	key := idxKey(schemaURI, attr.Name, "")
	b.attrs[key] = &cp
	rep := attrrep.BoundedAttrRep{AttrRep: attrRepOf(attr.Name), Schema: schemaURI}
	b.order = append(b.order, rep)

	if attr.Type == TypeComplex {
		for _, sub := range attr.SubAttributes {
			subCp := sub
			b.subs[idxKey(schemaURI, attr.Name, sub.Name)] = &subCp
		}
	}
	return rep
}

// Get resolves a BoundedAttrRep to its Attribute, checking the sub-attribute
// index when rep carries a sub-attr. An empty rep.Schema resolves against
// the schema's own (main) URI.
func (b *BoundedAttrs) Get(rep attrrep.BoundedAttrRep) (*Attribute, bool) {
	schema := rep.Schema
	if schema == "" {
		schema = b.mainURI
	}
	if rep.HasSubAttr() {
		a, ok := b.subs[idxKey(schema, rep.Attr, rep.SubAttr)]
		return a, ok
	}
	a, ok := b.attrs[idxKey(schema, rep.Attr, "")]
	return a, ok
}

// Top returns the top-level attribute references in declaration order.
func (b *BoundedAttrs) Top() []attrrep.BoundedAttrRep {
	out := make([]attrrep.BoundedAttrRep, len(b.order))
	copy(out, b.order)
	return out
}

// TopIn returns the top-level attribute references declared under schemaURI,
// in declaration order.
func (b *BoundedAttrs) TopIn(schemaURI string) []attrrep.BoundedAttrRep {
	var out []attrrep.BoundedAttrRep
	for _, r := range b.order {
		if strings.EqualFold(r.Schema, schemaURI) {
			out = append(out, r)
		}
	}
	return out
}

// Schema is a named collection of attribute definitions under a URI (spec.md
// §3 "Schema"). Grounded on dwardin-scim/schema.Schema, generalized to hold
// a BoundedAttrs index instead of a bare []CoreAttribute.
type Schema struct {
	URI         string
	Name        string
	Description string
	Attrs       *BoundedAttrs

	commonAttrNames map[string]bool
}

// commonSchemaAttrs returns the attribute every schema implicitly carries: a
// required, multi-valued, read-only "schemas" attribute (spec.md §3).
func commonSchemaAttrs() []Attribute {
	return []Attribute{
		{
			Name:        "schemas",
			Type:        TypeURIReference,
			Required:    true,
			MultiValued: true,
			Mutability:  MutabilityReadOnly,
			Returned:    ReturnedAlways,
		},
	}
}

// NewSchema builds a base schema, prepending the common "schemas" attribute.
func NewSchema(uri, name, description string, attrs []Attribute) *Schema {
	s := &Schema{
		URI:             uri,
		Name:            name,
		Description:     description,
		Attrs:           newBoundedAttrs(uri),
		commonAttrNames: map[string]bool{"schemas": true},
	}
	for _, a := range commonSchemaAttrs() {
		s.Attrs.add(uri, a)
	}
	for _, a := range attrs {
		s.Attrs.add(uri, a)
	}
	return s
}

// SubSchema returns a ResourceSchema whose top-level attributes are attr's
// sub-attributes, keyed under attr's own name as their schema URI. It lets
// a caller that only holds a Complex attribute's definition, such as the
// filter engine matching a complex-attribute group, resolve a bare
// sub-attribute name (e.g. "type") through the same BoundedAttrs.Get lookup
// used for top-level attribute references, rather than needing a
// dotted parent.sub reference.
func SubSchema(attr *Attribute) *ResourceSchema {
	b := newBoundedAttrs(attr.Name)
	for _, sub := range attr.SubAttributes {
		b.add(attr.Name, sub)
	}
	return &ResourceSchema{Schema: Schema{URI: attr.Name, Name: attr.Name, Attrs: b}}
}

// Extension is a named collection of attributes bound to a distinct schema
// URI, attachable to at most one resource schema (spec.md §3 "Extension").
type Extension struct {
	URI      string
	Name     string
	Attrs    []Attribute
	Required bool
}

// ResourceSchema is a BaseResourceSchema per spec.md §3: a Schema plus
// plural name, endpoint, description, and a registry of extensions.
type ResourceSchema struct {
	Schema
	PluralName string
	Endpoint   string

	extOrder []string // lower(uri), declaration order
	exts     map[string]*Extension
}

// commonResourceAttrs returns id, externalId, and meta — prepended to every
// resource schema (spec.md §3).
func commonResourceAttrs() []Attribute {
	return []Attribute{
		{Name: "id", Type: TypeString, Mutability: MutabilityReadOnly, Returned: ReturnedAlways, Issuer: IssuerServer},
		{Name: "externalId", Type: TypeString, CaseExact: true},
		{
			Name:       "meta",
			Type:       TypeComplex,
			Mutability: MutabilityReadOnly,
			SubAttributes: []Attribute{
				{Name: "resourceType", Type: TypeString, Mutability: MutabilityReadOnly},
				{Name: "created", Type: TypeDateTime, Mutability: MutabilityReadOnly},
				{Name: "lastModified", Type: TypeDateTime, Mutability: MutabilityReadOnly},
				{Name: "location", Type: TypeURIReference, Mutability: MutabilityReadOnly},
				{Name: "version", Type: TypeString, Mutability: MutabilityReadOnly},
			},
		},
	}
}

// NewResourceSchema builds a resource schema, prepending "schemas", "id",
// "externalId", and "meta" ahead of attrs.
func NewResourceSchema(uri, name, pluralName, endpoint, description string, attrs []Attribute) *ResourceSchema {
	rs := &ResourceSchema{
		Schema: Schema{
			URI:             uri,
			Name:            name,
			Description:     description,
			Attrs:           newBoundedAttrs(uri),
			commonAttrNames: map[string]bool{"schemas": true, "id": true, "externalid": true, "meta": true},
		},
		PluralName: pluralName,
		Endpoint:   endpoint,
		exts:       map[string]*Extension{},
	}
	for _, a := range commonSchemaAttrs() {
		rs.Attrs.add(uri, a)
	}
	for _, a := range commonResourceAttrs() {
		rs.Attrs.add(uri, a)
	}
	for _, a := range attrs {
		rs.Attrs.add(uri, a)
	}
	return rs
}

// Extend registers ext's attributes under its own schema URI within the
// resource's index (spec.md §3 "Extension"). A warning is recorded in log
// when an extension attribute shadows a core attribute by name.
func (rs *ResourceSchema) Extend(ext *Extension, required bool, log *issuelog.Log) {
	ext.Required = required
	lu := strings.ToLower(ext.URI)
	rs.exts[lu] = ext
	rs.extOrder = append(rs.extOrder, lu)

	for _, a := range ext.Attrs {
		if _, exists := rs.Attrs.Get(attrrep.BoundedAttrRep{AttrRep: attrRepOf(a.Name), Schema: rs.URI}); exists && log != nil {
			log.AddWarning(errors.BadAttributeName, map[string]interface{}{"name": a.Name}, issuelog.Key(ext.URI), issuelog.Key(a.Name))
		}
		rs.Attrs.add(ext.URI, a)
	}
}

// Extensions returns the registered extensions in declaration order.
func (rs *ResourceSchema) Extensions() []*Extension {
	out := make([]*Extension, 0, len(rs.extOrder))
	for _, lu := range rs.extOrder {
		out = append(out, rs.exts[lu])
	}
	return out
}

// ExtensionURIs returns the registered extension schema URIs, suitable for
// container.New/container.FromRaw.
func (rs *ResourceSchema) ExtensionURIs() []string {
	out := make([]string, 0, len(rs.extOrder))
	for _, e := range rs.Extensions() {
		out = append(out, e.URI)
	}
	return out
}

func (rs *ResourceSchema) extension(uri string) (*Extension, bool) {
	e, ok := rs.exts[strings.ToLower(uri)]
	return e, ok
}

// Validate performs whole-resource validation per spec.md §4.D: attribute
// typing and presence, then "schemas" field validation, then
// meta.resourceType consistency. It mutates c in place, overwriting slots
// that failed typing with container.Invalid, and returns the accumulated
// issue log.
func (rs *ResourceSchema) Validate(c *container.Container, presence *AttrPresenceConfig) *issuelog.Log {
	log := issuelog.New()

	validateOne := func(rep attrrep.BoundedAttrRep, loc issuelog.Location) {
		attr, ok := rs.Attrs.Get(rep)
		if !ok {
			return
		}
		key := container.BoundedKey(rep)
		val := c.Get(key)

		sub := issuelog.New()
		checked := attr.Validate(val, sub, loc...)
		log.Merge(sub)
		if checked != container.Missing {
			c.Set(key, checked, false)
		}

		if presence != nil {
			checkPresence(*attr, rep, checked, presence, rs.attrRequiredBySchema(rep, c), log, loc...)
		}

		if attr.Type == TypeComplex && checked != container.Missing && checked != container.Invalid {
			for _, subAttr := range attr.SubAttributes {
				subRep := attrrep.BoundedAttrRep{AttrRep: attrrep.New(rep.Attr, subAttr.Name), Schema: rep.Schema}
				subLoc := append(append(issuelog.Location{}, loc...), issuelog.Key(subAttr.Name))
				if presence != nil {
					subVal := c.Get(container.BoundedKey(subRep))
					checkPresence(subAttr, subRep, subVal, presence, rs.attrRequiredBySchema(rep, c), log, subLoc...)
				}
			}
		}
	}

	for _, rep := range rs.Attrs.TopIn(rs.URI) {
		validateOne(rep, issuelog.Location{issuelog.Key(rep.Attr)})
	}
	for _, ext := range rs.Extensions() {
		for _, rep := range rs.Attrs.TopIn(ext.URI) {
			validateOne(rep, issuelog.Location{issuelog.Key(ext.URI), issuelog.Key(rep.Attr)})
		}
	}

	rs.validateSchemasField(c, log)
	rs.validateResourceType(c, log)

	return log
}

func (rs *ResourceSchema) attrRequiredBySchema(rep attrrep.BoundedAttrRep, c *container.Container) bool {
	if rep.Schema == "" || strings.EqualFold(rep.Schema, rs.URI) {
		return true
	}
	ext, ok := rs.extension(rep.Schema)
	if !ok {
		return true
	}
	if ext.Required {
		return true
	}
	schemas, _ := c.Get(container.AttrKey(attrRepOf("schemas"))).([]interface{})
	for _, s := range schemas {
		if str, ok := s.(string); ok && strings.EqualFold(str, ext.URI) {
			return true
		}
	}
	return false
}

func checkPresence(attr Attribute, rep attrrep.BoundedAttrRep, value interface{}, cfg *AttrPresenceConfig, requiredBySchema bool, log *issuelog.Log, loc ...issuelog.PathElem) {
	present := value != container.Missing && value != nil
	ignoreIssuer := cfg.ignoresIssuer(rep)
	isServerIssued := attr.Issuer == IssuerServer && !ignoreIssuer

	if present {
		if cfg.Direction == DirectionRequest && isServerIssued {
			log.AddError(errors.MustNotBeProvided, true, nil, loc...)
			return
		}
		if cfg.Direction == DirectionResponse {
			if attr.Returned == ReturnedNever {
				log.AddError(errors.MustNotBeReturned, true, nil, loc...)
				return
			}
			if attr.Returned != ReturnedAlways && !desired(rep, cfg) {
				log.AddError(errors.MustNotBeReturned, true, nil, loc...)
				return
			}
		}
		return
	}

	if !attr.Required {
		return
	}
	if cfg.Direction == DirectionRequest && isServerIssued {
		return
	}
	listEmpty := len(cfg.AttrReps) == 0
	listedInclude := false
	for _, r := range cfg.AttrReps {
		if r.Equals(rep) && cfg.Include {
			listedInclude = true
		}
	}
	responseAlways := cfg.Direction == DirectionResponse && attr.Returned == ReturnedAlways
	if (listEmpty || listedInclude || responseAlways) && requiredBySchema {
		log.AddError(errors.Missing, true, nil, loc...)
	}
}

func (rs *ResourceSchema) validateSchemasField(c *container.Container, log *issuelog.Log) {
	raw := c.Get(container.AttrKey(attrRepOf("schemas")))
	list, ok := raw.([]interface{})
	if !ok {
		return
	}

	loc := issuelog.Location{issuelog.Key("schemas")}
	seen := map[string]bool{}
	seenMain := false
	present := map[string]bool{}
	for i, v := range list {
		s, ok := v.(string)
		if !ok {
			continue
		}
		lu := strings.ToLower(s)
		if seen[lu] {
			log.AddError(errors.DuplicatedValues, true, nil, append(append(issuelog.Location{}, loc...), issuelog.Index(i))...)
			continue
		}
		seen[lu] = true
		present[lu] = true

		if strings.EqualFold(s, rs.URI) {
			seenMain = true
			continue
		}
		if _, ok := rs.extension(s); !ok {
			log.AddError(errors.UnknownSchema, true, nil, append(append(issuelog.Location{}, loc...), issuelog.Index(i))...)
		}
	}

	if !seenMain {
		log.AddError(errors.MissingMainSchema, true, nil, loc...)
	}

	for _, ext := range rs.Extensions() {
		_, hasBucket := c.Get(container.SchemaKey(ext.URI)).(*container.Container)
		if hasBucket && !present[strings.ToLower(ext.URI)] {
			log.AddError(errors.MissingSchemaExtension, true, map[string]interface{}{"ext": ext.URI}, loc...)
		}
	}
}

func (rs *ResourceSchema) validateResourceType(c *container.Container, log *issuelog.Log) {
	meta, ok := c.Get(container.AttrKey(attrRepOf("meta"))).(*container.Container)
	if !ok {
		return
	}
	rt := meta.Get(container.AttrKey(attrRepOf("resourceType")))
	if rt == container.Missing || rt == container.Invalid || rt == nil {
		return
	}
	s, ok := rt.(string)
	if !ok || !strings.EqualFold(s, rs.Name) {
		log.AddError(errors.MustBeEqualTo, true, map[string]interface{}{"value": rs.Name}, issuelog.Key("meta"), issuelog.Key("resourceType"))
	}
}

// Deserialize walks (attr_rep, attr) pairs found in c and applies each
// attribute's own Deserialize, returning a new Container.
func (s *Schema) Deserialize(c *container.Container) (*container.Container, error) {
	out := container.New()
	for _, rep := range s.Attrs.order {
		attr, _ := s.Attrs.Get(rep)
		val := c.Get(container.BoundedKey(rep))
		if val == container.Missing {
			continue
		}
		v, err := attr.Deserialize(val)
		if err != nil {
			return nil, err
		}
		out.Set(container.BoundedKey(rep), v, false)
	}
	return out, nil
}

// Serialize walks (attr_rep, attr) pairs found in c and applies each
// attribute's own Serialize, producing a plain tree.
func (s *Schema) Serialize(c *container.Container) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	for _, rep := range s.Attrs.order {
		attr, _ := s.Attrs.Get(rep)
		val := c.Get(container.BoundedKey(rep))
		if val == container.Missing {
			continue
		}
		v, err := attr.Serialize(val)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out[attr.Name] = v
		}
	}
	return out, nil
}

// AttrFilter decides whether an attribute should be kept by Schema.Filter.
type AttrFilter func(Attribute) bool

// Filter returns a new tree containing only attributes for which filter
// returns true; Complex attributes recurse with the same filter.
func (s *Schema) Filter(c *container.Container, filter AttrFilter) map[string]interface{} {
	out := map[string]interface{}{}
	for _, rep := range s.Attrs.order {
		attr, _ := s.Attrs.Get(rep)
		if !filter(*attr) {
			continue
		}
		val := c.Get(container.BoundedKey(rep))
		if val == container.Missing {
			continue
		}
		out[attr.Name] = filterValue(*attr, val, filter)
	}
	return out
}

func filterValue(attr Attribute, val interface{}, filter AttrFilter) interface{} {
	if attr.Type != TypeComplex {
		return val
	}
	apply := func(c *container.Container) map[string]interface{} {
		out := map[string]interface{}{}
		for _, sub := range attr.SubAttributes {
			if !filter(sub) {
				continue
			}
			sv := c.Get(container.AttrKey(attrRepOf(sub.Name)))
			if sv == container.Missing {
				continue
			}
			out[sub.Name] = filterValue(sub, sv, filter)
		}
		return out
	}
	if attr.MultiValued {
		list, ok := val.([]interface{})
		if !ok {
			return val
		}
		out := make([]interface{}, len(list))
		for i, e := range list {
			if ec, ok := e.(*container.Container); ok {
				out[i] = apply(ec)
			} else {
				out[i] = e
			}
		}
		return out
	}
	if c, ok := val.(*container.Container); ok {
		return apply(c)
	}
	return val
}
