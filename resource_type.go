package core

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/scimplex/core/container"
	"github.com/scimplex/core/errors"
	"github.com/scimplex/core/issuelog"
	"github.com/scimplex/core/optional"
	"github.com/scimplex/core/patch"
	"github.com/scimplex/core/schema"
)

// unmarshal unifies the unmarshal of the requests, carried over from
// dwardin-scim/resource_type.go.
func unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// ResourceType specifies the metadata about a resource type, adapted from
// dwardin-scim/resource_type.go's ResourceType onto the schema.ResourceSchema
// catalog entry rather than the teacher's flat schema.Schema.
type ResourceType struct {
	// ID is the resource type's server unique id, often the same as Name.
	ID optional.String
	// Name is the resource type name, referenced by "meta.resourceType".
	Name string
	// Description is the resource type's human-readable description.
	Description optional.String
	// Endpoint is the resource type's HTTP-addressable endpoint relative to
	// the server's Prefix, e.g. "/Users".
	Endpoint string
	// Schema is the resource type's registered schema, including any
	// extensions already attached via Schema.Extend.
	Schema *schema.ResourceSchema
	// Handler connects the server to a storage provider for this type.
	Handler ResourceHandler
}

func (t ResourceType) getRaw() map[string]interface{} {
	exts := make([]map[string]interface{}, 0)
	for _, ext := range t.Schema.Extensions() {
		exts = append(exts, map[string]interface{}{
			"schema":   ext.URI,
			"required": ext.Required,
		})
	}
	return map[string]interface{}{
		"schemas":          []string{"urn:ietf:params:scim:schemas:core:2.0:ResourceType"},
		"id":               t.ID.Value(),
		"name":             t.Name,
		"description":      t.Description.Value(),
		"endpoint":         t.Endpoint,
		"schema":           t.Schema.URI,
		"schemaExtensions": exts,
	}
}

// validate parses raw as JSON, wraps it in a Container keyed by the
// resource type's extension URIs, and runs whole-resource validation over
// it in the given direction.
func (t ResourceType) validate(raw []byte, direction schema.Direction) (*container.Container, *issuelog.Log, *errors.ScimError) {
	var m map[string]interface{}
	if err := unmarshal(raw, &m); err != nil {
		return nil, nil, &errors.ScimErrorInvalidSyntax
	}

	c := container.FromRaw(m, t.Schema.ExtensionURIs()...)
	log := t.Schema.Validate(c, &schema.AttrPresenceConfig{Direction: direction})
	return c, log, nil
}

// validatePatch parses and structurally validates a PATCH request body,
// then validates each operation against the resource type's schema
// (spec.md §4.F "Operation validation against a resource schema").
func (t ResourceType) validatePatch(r *http.Request) (*PatchRequest, *issuelog.Log, *errors.ScimError) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, nil, &errors.ScimErrorInvalidSyntax
	}

	var wire struct {
		Schemas    []string `json:"schemas"`
		Operations []struct {
			Op    string      `json:"op"`
			Path  string      `json:"path"`
			Value interface{} `json:"value"`
		} `json:"Operations"`
	}
	if err := unmarshal(data, &wire); err != nil {
		return nil, nil, &errors.ScimErrorInvalidSyntax
	}
	if len(wire.Operations) == 0 {
		scimErr := errors.ScimErrorBadParams([]string{"Operations"})
		return nil, nil, &scimErr
	}

	log := issuelog.New()
	req := &PatchRequest{Schemas: wire.Schemas}
	for i, raw := range wire.Operations {
		loc := issuelog.Index(i)
		op := patch.Operation{Op: patch.Op(raw.Op), Value: raw.Value}
		if raw.Path != "" {
			p, perr := patch.ParsePath(raw.Path)
			if perr != nil {
				return nil, nil, &errors.ScimErrorInvalidPath
			}
			op.Path = p
		}
		patch.ValidateStructure(op, log, loc)
		if !log.CanProceed(issuelog.Location{loc}) {
			return nil, log, &errors.ScimErrorInvalidValue
		}
		patch.ValidateOperation(op, t.Schema, log, loc)
		req.Operations = append(req.Operations, op)
	}
	return req, log, nil
}

// PatchRequest is a parsed PATCH request body.
type PatchRequest struct {
	Schemas    []string
	Operations []patch.Operation
}
