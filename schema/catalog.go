package schema

import (
	"fmt"
	"strings"
	"sync"
)

// CatalogConfig configures a Catalog at construction time. It replaces the
// teacher's pattern of mutable package-level hooks (there was none to speak
// of in dwardin-scim, which hard-codes its two schemas as package vars) with
// an explicit, passed-in struct, per spec.md §9's design note on avoiding
// global mutable configuration.
type CatalogConfig struct {
	// UnknownExtensionIsWarning is stored with the catalog and returned by
	// Config. ResourceSchema.Validate does not read it: an unrecognized
	// schema URI in a resource's "schemas" list is always an error.
	UnknownExtensionIsWarning bool
	// DefaultPrecisProfile names a PRECIS profile and is returned by Config.
	// Neither schema validation nor filter matching reads it; a String
	// attribute is normalized only through its own Precis field.
	DefaultPrecisProfile string
}

// Catalog is the process-wide registry of schemas and resource schemas
// (spec.md §5 "process-wide registries"). Grounded on the teacher's two
// package-level schema.Schema{} literals (schema.CoreUserSchema,
// schema.CoreGroupSchema in the wider elimity-com/scim family), generalized
// into a registered, lockable store so a caller can register arbitrary
// resource types and extensions instead of only the two the teacher
// hard-codes.
type Catalog struct {
	mu        sync.RWMutex
	once      sync.Once
	frozen    bool
	cfg       CatalogConfig
	schemas   map[string]*Schema
	resources map[string]*ResourceSchema
	byName    map[string]*ResourceSchema
}

// NewCatalog returns an empty, unfrozen Catalog configured by cfg.
func NewCatalog(cfg CatalogConfig) *Catalog {
	return &Catalog{
		cfg:       cfg,
		schemas:   map[string]*Schema{},
		resources: map[string]*ResourceSchema{},
		byName:    map[string]*ResourceSchema{},
	}
}

// Config returns the catalog's configuration.
func (c *Catalog) Config() CatalogConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

var errFrozen = fmt.Errorf("catalog is frozen")

// RegisterSchema adds a non-resource schema (typically an Extension's or a
// protocol-envelope schema's backing Schema) to the catalog.
func (c *Catalog) RegisterSchema(s *Schema) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return errFrozen
	}
	c.schemas[strings.ToLower(s.URI)] = s
	return nil
}

// RegisterResourceSchema adds a resource schema, indexed by both URI and
// resource-type name.
func (c *Catalog) RegisterResourceSchema(rs *ResourceSchema) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return errFrozen
	}
	c.resources[strings.ToLower(rs.URI)] = rs
	c.byName[strings.ToLower(rs.Name)] = rs
	return nil
}

// Freeze stops further registration; subsequent Register* calls return an
// error. Idempotent: only the first call has any effect.
func (c *Catalog) Freeze() {
	c.once.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.frozen = true
	})
}

// Frozen reports whether the catalog has been frozen.
func (c *Catalog) Frozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frozen
}

// Schema looks up a registered non-resource schema by URI.
func (c *Catalog) Schema(uri string) (*Schema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.schemas[strings.ToLower(uri)]
	return s, ok
}

// ResourceSchema looks up a registered resource schema by URI.
func (c *Catalog) ResourceSchema(uri string) (*ResourceSchema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rs, ok := c.resources[strings.ToLower(uri)]
	return rs, ok
}

// ResourceSchemaByName looks up a registered resource schema by its
// resource-type name (e.g. "User", "Group").
func (c *Catalog) ResourceSchemaByName(name string) (*ResourceSchema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rs, ok := c.byName[strings.ToLower(name)]
	return rs, ok
}

// ResourceSchemas returns all registered resource schemas, in no particular
// order; callers that need determinism should sort by Name/URI themselves.
func (c *Catalog) ResourceSchemas() []*ResourceSchema {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*ResourceSchema, 0, len(c.resources))
	for _, rs := range c.resources {
		out = append(out, rs)
	}
	return out
}
