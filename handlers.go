package core

import (
	"io"
	"net/http"
	"strings"

	"github.com/scimplex/core/errors"
	"github.com/scimplex/core/schema"
)

// attrSummary is the trimmed wire shape for one attribute definition in a
// /Schemas listing: full RFC 7643 §7 attribute metadata (mutability,
// returned policy, canonical values, etc.) is carried internally on
// schema.Attribute but not re-serialized here in full; only what a
// discovery client needs to tell attributes apart is rendered.
type attrSummary struct {
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	MultiValued bool          `json:"multiValued"`
	Required    bool          `json:"required"`
	SubAttrs    []attrSummary `json:"subAttributes,omitempty"`
}

func summarize(attr *schema.Attribute) attrSummary {
	s := attrSummary{Name: attr.Name, Type: attr.Type.String(), MultiValued: attr.MultiValued, Required: attr.Required}
	for i := range attr.SubAttributes {
		s.SubAttrs = append(s.SubAttrs, summarize(&attr.SubAttributes[i]))
	}
	return s
}

func (s Server) schemaRaw(sc *schema.Schema) map[string]interface{} {
	var attrs []attrSummary
	for _, rep := range sc.Attrs.Top() {
		if a, ok := sc.Attrs.Get(rep); ok {
			attrs = append(attrs, summarize(a))
		}
	}
	return map[string]interface{}{
		"id":          sc.URI,
		"name":        sc.Name,
		"description": sc.Description,
		"attributes":  attrs,
	}
}

func (s Server) schemasHandler(w http.ResponseWriter, r *http.Request) {
	var raw []map[string]interface{}
	for _, rt := range s.ResourceTypes {
		raw = append(raw, s.schemaRaw(&rt.Schema.Schema))
		for _, ext := range rt.Schema.Extensions() {
			raw = append(raw, map[string]interface{}{
				"id":   ext.URI,
				"name": ext.Name,
			})
		}
	}
	writeJSON(w, http.StatusOK, listResponse{TotalResults: len(raw), Resources: raw})
}

func (s Server) schemaHandler(w http.ResponseWriter, r *http.Request, id string) {
	for _, rt := range s.ResourceTypes {
		if strings.EqualFold(rt.Schema.URI, id) {
			writeJSON(w, http.StatusOK, s.schemaRaw(&rt.Schema.Schema))
			return
		}
		for _, ext := range rt.Schema.Extensions() {
			if strings.EqualFold(ext.URI, id) {
				writeJSON(w, http.StatusOK, map[string]interface{}{"id": ext.URI, "name": ext.Name})
				return
			}
		}
	}
	errorHandler(w, r, &errors.ScimError{Status: http.StatusNotFound, Detail: "Schema not found."})
}

func (s Server) resourceTypesHandler(w http.ResponseWriter, r *http.Request) {
	raw := make([]map[string]interface{}, 0, len(s.ResourceTypes))
	for _, rt := range s.ResourceTypes {
		raw = append(raw, rt.getRaw())
	}
	writeJSON(w, http.StatusOK, listResponse{TotalResults: len(raw), Resources: raw})
}

func (s Server) resourceTypeHandler(w http.ResponseWriter, r *http.Request, name string) {
	for _, rt := range s.ResourceTypes {
		if strings.EqualFold(rt.Name, name) {
			writeJSON(w, http.StatusOK, rt.getRaw())
			return
		}
	}
	errorHandler(w, r, &errors.ScimError{Status: http.StatusNotFound, Detail: "ResourceType not found."})
}

func (s Server) serviceProviderConfigHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Config.getRaw())
}

func (s Server) resourcePostHandler(w http.ResponseWriter, r *http.Request, rt ResourceType) {
	data, err := readBody(r)
	if err != nil {
		errorHandler(w, r, &errors.ScimErrorInvalidSyntax)
		return
	}
	c, log, scimErr := rt.validate(data, schema.DirectionRequest)
	if scimErr != nil {
		errorHandler(w, r, scimErr)
		return
	}
	if log.HasErrors() {
		errorHandler(w, r, &errors.ScimErrorInvalidValue)
		return
	}

	res, createErr := rt.Handler.Create(r, c)
	if createErr != nil {
		errorHandler(w, r, &errors.ScimError{Status: http.StatusInternalServerError, Detail: createErr.Error()})
		return
	}
	s.writeResource(w, rt, res, http.StatusCreated)
}

func (s Server) resourcesGetHandler(w http.ResponseWriter, r *http.Request, rt ResourceType) {
	params, scimErr := s.parseRequestParams(r)
	if scimErr != nil {
		errorHandler(w, r, scimErr)
		return
	}
	page, err := rt.Handler.GetAll(r, params)
	if err != nil {
		errorHandler(w, r, &errors.ScimError{Status: http.StatusInternalServerError, Detail: err.Error()})
		return
	}

	out := make([]map[string]interface{}, 0, len(page.Resources))
	for _, res := range page.Resources {
		out = append(out, s.renderResource(rt, res))
	}
	writeJSON(w, http.StatusOK, listResponse{
		TotalResults: page.TotalResults,
		ItemsPerPage: params.Count,
		StartIndex:   params.StartIndex,
		Resources:    out,
	})
}

func (s Server) resourceGetHandler(w http.ResponseWriter, r *http.Request, id string, rt ResourceType) {
	res, err := rt.Handler.Get(r, id)
	if err != nil {
		errorHandler(w, r, &errors.ScimError{Status: http.StatusNotFound, Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.renderResource(rt, res))
}

func (s Server) resourcePutHandler(w http.ResponseWriter, r *http.Request, id string, rt ResourceType) {
	data, err := readBody(r)
	if err != nil {
		errorHandler(w, r, &errors.ScimErrorInvalidSyntax)
		return
	}
	c, log, scimErr := rt.validate(data, schema.DirectionRequest)
	if scimErr != nil {
		errorHandler(w, r, scimErr)
		return
	}
	if log.HasErrors() {
		errorHandler(w, r, &errors.ScimErrorInvalidValue)
		return
	}

	res, replaceErr := rt.Handler.Replace(r, id, c)
	if replaceErr != nil {
		errorHandler(w, r, &errors.ScimError{Status: http.StatusInternalServerError, Detail: replaceErr.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.renderResource(rt, res))
}

func (s Server) resourcePatchHandler(w http.ResponseWriter, r *http.Request, id string, rt ResourceType) {
	req, log, scimErr := rt.validatePatch(r)
	if scimErr != nil {
		errorHandler(w, r, scimErr)
		return
	}
	if log.HasErrors() {
		errorHandler(w, r, &errors.ScimErrorInvalidValue)
		return
	}

	res, patchErr := rt.Handler.Patch(r, id, req.Operations)
	if patchErr != nil {
		errorHandler(w, r, &errors.ScimError{Status: http.StatusInternalServerError, Detail: patchErr.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.renderResource(rt, res))
}

func (s Server) resourceDeleteHandler(w http.ResponseWriter, r *http.Request, id string, rt ResourceType) {
	if err := rt.Handler.Delete(r, id); err != nil {
		errorHandler(w, r, &errors.ScimError{Status: http.StatusNotFound, Detail: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// renderResource serializes a stored resource's attributes back through its
// resource type's schema, applying each attribute's own serializer; no
// attribute is dropped for its returned or mutability setting. It falls back
// to the bare attribute map when serialization fails rather than dropping
// the response entirely.
func (s Server) renderResource(rt ResourceType, res Resource) map[string]interface{} {
	out, err := rt.Schema.Serialize(res.Attributes)
	if err != nil {
		out = res.Attributes.ToDict()
	}
	out["id"] = res.ID
	return out
}

func (s Server) writeResource(w http.ResponseWriter, rt ResourceType, res Resource, status int) {
	writeJSON(w, status, s.renderResource(rt, res))
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}
