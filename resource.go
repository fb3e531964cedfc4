package core

import (
	"net/http"

	"github.com/scimplex/core/container"
	"github.com/scimplex/core/patch"
)

// Resource is a single stored SCIM resource as the rest of the package sees
// it: an identity plus its attributes in the engine's container form, ready
// for schema-driven validation/serialization.
type Resource struct {
	ID         string
	Attributes *container.Container
}

// Page is one page of a GetAll listing.
type Page struct {
	TotalResults int
	Resources    []Resource
}

// ResourceHandler is the set of callbacks that connect the server with a
// storage provider for one resource type. Grounded on dwardin-scim's
// (elimity-com/scim family) ResourceHandler shape; its CRUD signatures are
// adapted here to pass *container.Container instead of bare
// map[string]interface{}, and Patch now receives already-parsed
// patch.Operation values instead of a request-specific PatchOperation type.
type ResourceHandler interface {
	Create(r *http.Request, attributes *container.Container) (Resource, error)
	Get(r *http.Request, id string) (Resource, error)
	GetAll(r *http.Request, params ListRequestParams) (Page, error)
	Replace(r *http.Request, id string, attributes *container.Container) (Resource, error)
	Patch(r *http.Request, id string, operations []patch.Operation) (Resource, error)
	Delete(r *http.Request, id string) error
}
