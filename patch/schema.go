package patch

import "github.com/scimplex/core/schema"

// PatchOpSchema is the wire envelope for a PATCH request body (spec.md §4.F
// "PatchOp schema"), modeled on original_source/src/assets/schemas/patch_op.py.
// It is validated the same way any other schema.Schema is, independent of
// the per-operation semantic checks in ValidateStructure/ValidateOperation,
// which still require a target schema.ResourceSchema to run against.
var PatchOpSchema = schema.NewSchema(
	"urn:ietf:params:scim:api:messages:2.0:PatchOp",
	"PatchOp",
	"Patch request envelope.",
	[]schema.Attribute{
		{
			Name: "Operations", Type: schema.TypeComplex, MultiValued: true, Required: true,
			SubAttributes: []schema.Attribute{
				{Name: "op", Type: schema.TypeString, Required: true, CanonicalValues: []string{"add", "remove", "replace"}, RestrictCanonicalValues: true},
				{Name: "path", Type: schema.TypeString},
				{Name: "value", Type: schema.TypeUnknown},
			},
		},
	},
)
