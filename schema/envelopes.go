package schema

// Protocol-envelope schemas: payload shapes the wire protocol carries that
// are not themselves resource types (list responses, search requests,
// service provider config, bulk requests/responses, standalone errors).
// Grounded on original_source/src/assets/schemas/*.py and
// src/assets/scim_error.py, built with the same Attribute/NewSchema
// constructors as any catalog schema so they run through the same
// Validate/Serialize paths (spec.md §6.1).

const (
	uriListResponse           = "urn:ietf:params:scim:api:messages:2.0:ListResponse"
	uriSearchRequest          = "urn:ietf:params:scim:api:messages:2.0:SearchRequest"
	uriServiceProviderConfig  = "urn:ietf:params:scim:schemas:core:2.0:ServiceProviderConfig"
	uriError                  = "urn:ietf:params:scim:api:messages:2.0:Error"
	uriBulkRequest            = "urn:ietf:params:scim:api:messages:2.0:BulkRequest"
	uriBulkResponse           = "urn:ietf:params:scim:api:messages:2.0:BulkResponse"
)

// ListResponseSchema describes the envelope a resource collection GET
// returns, as data the same way a resource schema is, so it can be run
// through Schema.Validate/Serialize. The HTTP layer does not use it: the
// list responses it writes are shaped by listResponse.MarshalJSON in
// list_response.go.
var ListResponseSchema = NewSchema(uriListResponse, "ListResponse", "Query or list response envelope.", []Attribute{
	{Name: "totalResults", Type: TypeInteger, Required: true},
	{Name: "itemsPerPage", Type: TypeInteger},
	{Name: "startIndex", Type: TypeInteger},
	{Name: "Resources", Type: TypeUnknown, MultiValued: true},
})

// SearchRequestSchema describes the POST /.search request body: the filter
// and patch-path languages are named by the distilled spec, but not the
// envelope that carries a filter string over the wire — supplemented here.
var SearchRequestSchema = NewSchema(uriSearchRequest, "SearchRequest", "Filtered/paginated/sorted search request.", []Attribute{
	{Name: "attributes", Type: TypeString, MultiValued: true},
	{Name: "excludedAttributes", Type: TypeString, MultiValued: true},
	{Name: "filter", Type: TypeString},
	{Name: "sortBy", Type: TypeString},
	{Name: "sortOrder", Type: TypeString, CanonicalValues: []string{"ascending", "descending"}, RestrictCanonicalValues: true},
	{Name: "startIndex", Type: TypeInteger},
	{Name: "count", Type: TypeInteger},
})

// ServiceProviderConfigSchema describes how a caller discovers the engine's
// operating limits and supported protocol surface.
var ServiceProviderConfigSchema = NewSchema(uriServiceProviderConfig, "Service Provider Config", "Service provider feature and limit discovery.", []Attribute{
	{Name: "documentationUri", Type: TypeExternalReference},
	{
		Name: "patch", Type: TypeComplex,
		SubAttributes: []Attribute{{Name: "supported", Type: TypeBoolean, Required: true}},
	},
	{
		Name: "bulk", Type: TypeComplex,
		SubAttributes: []Attribute{
			{Name: "supported", Type: TypeBoolean, Required: true},
			{Name: "maxOperations", Type: TypeInteger, Required: true},
			{Name: "maxPayloadSize", Type: TypeInteger, Required: true},
		},
	},
	{
		Name: "filter", Type: TypeComplex,
		SubAttributes: []Attribute{
			{Name: "supported", Type: TypeBoolean, Required: true},
			{Name: "maxResults", Type: TypeInteger, Required: true},
		},
	},
	{
		Name: "changePassword", Type: TypeComplex,
		SubAttributes: []Attribute{{Name: "supported", Type: TypeBoolean, Required: true}},
	},
	{
		Name: "sort", Type: TypeComplex,
		SubAttributes: []Attribute{{Name: "supported", Type: TypeBoolean, Required: true}},
	},
	{
		Name: "etag", Type: TypeComplex,
		SubAttributes: []Attribute{{Name: "supported", Type: TypeBoolean, Required: true}},
	},
	{
		Name: "authenticationSchemes", Type: TypeComplex, MultiValued: true,
		SubAttributes: []Attribute{
			{Name: "type", Type: TypeString, Required: true},
			{Name: "name", Type: TypeString, Required: true},
			{Name: "description", Type: TypeString, Required: true},
			{Name: "specUri", Type: TypeExternalReference},
			{Name: "documentationUri", Type: TypeExternalReference},
		},
	},
})

// ErrorSchema describes a standalone SCIM error response, modeled on
// original_source/src/assets/scim_error.py. Nothing in this module uses it;
// the HTTP layer's error responses are built by hand in server.go's
// errorHandler.
var ErrorSchema = NewSchema(uriError, "Error", "Protocol error response.", []Attribute{
	{Name: "status", Type: TypeString, Required: true},
	{Name: "scimType", Type: TypeString},
	{Name: "detail", Type: TypeString},
})

// BulkRequestSchema and BulkResponseSchema describe the bulk-operation
// envelope named in spec.md §1 Purpose as an ingested payload kind but
// otherwise left to the caller; errors.TooManyBulkOperations and
// errors.TooManyErrorsInBulk are raised against these shapes by whatever
// glue enforces a bulk request's operation-count ceiling (out of scope for
// this package, which only models the wire shape).
var BulkRequestSchema = NewSchema(uriBulkRequest, "BulkRequest", "Bulk operation request envelope.", []Attribute{
	{Name: "failOnErrors", Type: TypeInteger},
	{
		Name: "Operations", Type: TypeComplex, MultiValued: true, Required: true,
		SubAttributes: []Attribute{
			{Name: "method", Type: TypeString, Required: true, CanonicalValues: []string{"POST", "PUT", "PATCH", "DELETE"}, RestrictCanonicalValues: true},
			{Name: "bulkId", Type: TypeString},
			{Name: "path", Type: TypeString, Required: true},
			{Name: "data", Type: TypeUnknown},
		},
	},
})

var BulkResponseSchema = NewSchema(uriBulkResponse, "BulkResponse", "Bulk operation response envelope.", []Attribute{
	{
		Name: "Operations", Type: TypeComplex, MultiValued: true, Required: true,
		SubAttributes: []Attribute{
			{Name: "location", Type: TypeExternalReference},
			{Name: "method", Type: TypeString, Required: true},
			{Name: "bulkId", Type: TypeString},
			{Name: "status", Type: TypeString, Required: true},
			{Name: "response", Type: TypeUnknown},
		},
	},
})
