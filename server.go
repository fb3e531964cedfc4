// Package core wires the engine's components (issuelog, attrrep, container,
// schema, filter, patch) to an HTTP-based SCIM server, in the same request
// dispatch shape dwardin-scim/server.go uses, adapted to build on a
// schema.Catalog and container.Container instead of dwardin-scim's flat
// schema.Schema/map[string]interface{} pair.
package core

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	scimfilter "github.com/scim2/filter-parser/v2"

	"github.com/scimplex/core/errors"
	"github.com/scimplex/core/optional"
	"github.com/scimplex/core/schema"
)

const (
	defaultStartIndex = 1
	fallbackCount      = 100
)

// getFilter extracts and parses the "?filter=" query parameter with
// scim2/filter-parser/v2, carried over directly from dwardin-scim/server.go:
// the HTTP query-string filter is a caller-facing convenience, independent
// of this module's own filter package (which matches an already-parsed
// filter.Expression against an in-memory container.Container).
func getFilter(r *http.Request) (scimfilter.Expression, error) {
	rawFilter := strings.TrimSpace(r.URL.Query().Get("filter"))
	decodedFilter, _ := url.QueryUnescape(rawFilter)
	if decodedFilter == "" {
		return nil, nil
	}
	return scimfilter.ParseFilter([]byte(decodedFilter))
}

func getIntQueryParam(r *http.Request, key string, def int) (int, error) {
	strVal := r.URL.Query().Get(key)
	if strVal == "" {
		return def, nil
	}
	if intVal, err := strconv.Atoi(strVal); err == nil {
		return intVal, nil
	}
	return 0, fmt.Errorf("invalid query parameter, %q must be an integer", key)
}

func parseIdentifier(path, endpoint string) (string, error) {
	return url.PathUnescape(strings.TrimPrefix(path, endpoint+"/"))
}

// ListRequestParams is a parsed set of query parameters for a GET on a
// resource collection.
type ListRequestParams struct {
	Count      int
	Filter     scimfilter.Expression
	StartIndex int
}

// ServiceProviderConfig advertises the server's supported features.
// Grounded on dwardin-scim's implied ServiceProviderConfig shape (the
// teacher's copy referenced but never defined it; filled in here per
// RFC 7643 §5).
type ServiceProviderConfig struct {
	MaxResults           int
	SupportFiltering     bool
	SupportPatch         bool
	SupportBulk          bool
	DocumentationURI     optional.String
}

func (c ServiceProviderConfig) getItemsPerPage() int {
	if c.MaxResults <= 0 {
		return fallbackCount
	}
	return c.MaxResults
}

func (c ServiceProviderConfig) getRaw() map[string]interface{} {
	return map[string]interface{}{
		"schemas": []string{"urn:ietf:params:scim:schemas:core:2.0:ServiceProviderConfig"},
		"documentationUri": c.DocumentationURI.Value(),
		"patch": map[string]interface{}{
			"supported": c.SupportPatch,
		},
		"bulk": map[string]interface{}{
			"supported":      c.SupportBulk,
			"maxOperations":  1000,
			"maxPayloadSize": 1048576,
		},
		"filter": map[string]interface{}{
			"supported":  c.SupportFiltering,
			"maxResults": c.getItemsPerPage(),
		},
		"changePassword": map[string]interface{}{"supported": false},
		"sort":           map[string]interface{}{"supported": false},
		"etag":           map[string]interface{}{"supported": false},
	}
}

// Server dispatches the HTTP-based SCIM protocol across a set of resource
// types, each backed by a ResourceHandler. Grounded on
// dwardin-scim/server.go's Server/ServeHTTP, generalized to carry a
// schema.Catalog (held on the server value; the /Schemas handlers list only
// the schemas and extensions reachable from ResourceTypes and do not read
// it) and an hclog.Logger for
// request-scoped logging (spec.md §1.1 ambient logging, following the
// pack's terraform-plugin-log/hclog convention).
type Server struct {
	Config        ServiceProviderConfig
	Prefix        string
	ResourceTypes []ResourceType
	Catalog       *schema.Catalog
	Log           hclog.Logger
}

func (s Server) logger() hclog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return hclog.NewNullLogger()
}

// ServeHTTP dispatches the request to the handler whose pattern most
// closely matches the request URL.
func (s Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/scim+json")
	path := strings.TrimPrefix(r.URL.Path, s.Prefix)
	log := s.logger().With("method", r.Method, "path", path)
	log.Debug("handling request")

	switch {
	case path == "/Schemas" && r.Method == http.MethodGet:
		s.schemasHandler(w, r)
		return
	case strings.HasPrefix(path, "/Schemas/") && r.Method == http.MethodGet:
		s.schemaHandler(w, r, strings.TrimPrefix(path, "/Schemas/"))
		return
	case path == "/ResourceTypes" && r.Method == http.MethodGet:
		s.resourceTypesHandler(w, r)
		return
	case strings.HasPrefix(path, "/ResourceTypes/") && r.Method == http.MethodGet:
		s.resourceTypeHandler(w, r, strings.TrimPrefix(path, "/ResourceTypes/"))
		return
	case path == "/ServiceProviderConfig" && r.Method == http.MethodGet:
		s.serviceProviderConfigHandler(w, r)
		return
	}

	for _, resourceType := range s.ResourceTypes {
		if path == resourceType.Endpoint {
			switch r.Method {
			case http.MethodPost:
				s.resourcePostHandler(w, r, resourceType)
				return
			case http.MethodGet:
				s.resourcesGetHandler(w, r, resourceType)
				return
			}
		}

		if strings.HasPrefix(path, resourceType.Endpoint+"/") {
			id, err := parseIdentifier(path, resourceType.Endpoint)
			if err != nil {
				break
			}
			switch r.Method {
			case http.MethodGet:
				s.resourceGetHandler(w, r, id, resourceType)
				return
			case http.MethodPut:
				s.resourcePutHandler(w, r, id, resourceType)
				return
			case http.MethodPatch:
				s.resourcePatchHandler(w, r, id, resourceType)
				return
			case http.MethodDelete:
				s.resourceDeleteHandler(w, r, id, resourceType)
				return
			}
		}
	}

	errorHandler(w, r, &errors.ScimError{
		Detail: "Specified endpoint does not exist.",
		Status: http.StatusNotFound,
	})
}

func (s Server) parseRequestParams(r *http.Request) (ListRequestParams, *errors.ScimError) {
	var invalidParams []string

	defaultCount := s.Config.getItemsPerPage()
	count, countErr := getIntQueryParam(r, "count", defaultCount)
	if countErr != nil {
		invalidParams = append(invalidParams, "count")
	}
	if count > defaultCount {
		count = defaultCount
	}
	if count < 0 {
		count = 0
	}

	startIndex, indexErr := getIntQueryParam(r, "startIndex", defaultStartIndex)
	if indexErr != nil {
		invalidParams = append(invalidParams, "startIndex")
	}
	if startIndex < 1 {
		startIndex = defaultStartIndex
	}

	if len(invalidParams) > 0 {
		scimErr := errors.ScimErrorBadParams(invalidParams)
		return ListRequestParams{}, &scimErr
	}

	filterExpr, filterErr := getFilter(r)
	if filterErr != nil {
		return ListRequestParams{}, &errors.ScimErrorInvalidFilter
	}

	return ListRequestParams{Count: count, Filter: filterExpr, StartIndex: startIndex}, nil
}

func errorHandler(w http.ResponseWriter, _ *http.Request, scimErr *errors.ScimError) {
	raw, _ := json.Marshal(struct {
		Schemas  []string `json:"schemas"`
		Detail   string   `json:"detail,omitempty"`
		Status   string   `json:"status"`
		ScimType string   `json:"scimType,omitempty"`
	}{
		Schemas:  []string{"urn:ietf:params:scim:api:messages:2.0:Error"},
		Detail:   scimErr.Detail,
		Status:   strconv.Itoa(scimErr.Status),
		ScimType: scimErr.ScimType,
	})
	w.WriteHeader(scimErr.Status)
	_, _ = w.Write(raw)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		errorHandler(w, nil, &errors.ScimError{Status: http.StatusInternalServerError, Detail: err.Error()})
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}
