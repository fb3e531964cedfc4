package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scimplex/core/attrrep"
	"github.com/scimplex/core/container"
	"github.com/scimplex/core/errors"
)

func testUserSchema() *ResourceSchema {
	return NewResourceSchema(
		UserSchema, "User", "Users", "/Users", "User account",
		[]Attribute{
			{Name: "userName", Type: TypeString, Required: true},
			{Name: "active", Type: TypeBoolean},
		},
	)
}

func TestValidateFlagsMissingRequiredAttribute(t *testing.T) {
	rs := testUserSchema()
	c := container.FromRaw(map[string]interface{}{
		"schemas": []interface{}{UserSchema},
	})
	log := rs.Validate(c, &AttrPresenceConfig{Direction: DirectionRequest})
	assert.True(t, log.HasErrors())
}

func TestValidateAcceptsCompleteResource(t *testing.T) {
	rs := testUserSchema()
	c := container.FromRaw(map[string]interface{}{
		"schemas":  []interface{}{UserSchema},
		"userName": "bjensen",
	})
	log := rs.Validate(c, &AttrPresenceConfig{Direction: DirectionRequest})
	assert.False(t, log.HasErrors())
}

func TestValidateFlagsMissingMainSchema(t *testing.T) {
	rs := testUserSchema()
	c := container.FromRaw(map[string]interface{}{
		"schemas":  []interface{}{"urn:ietf:params:scim:schemas:core:2.0:Group"},
		"userName": "bjensen",
	})
	log := rs.Validate(c, &AttrPresenceConfig{Direction: DirectionRequest})
	assert.True(t, log.HasErrors())
}

func TestValidateServerIssuedAttrRejectedOnRequest(t *testing.T) {
	rs := testUserSchema()
	c := container.FromRaw(map[string]interface{}{
		"schemas":  []interface{}{UserSchema},
		"userName": "bjensen",
		"id":       "client-supplied-id",
	})
	log := rs.Validate(c, &AttrPresenceConfig{Direction: DirectionRequest})
	assert.True(t, log.HasErrors())
}

func TestSerializeProducesPlainTree(t *testing.T) {
	rs := testUserSchema()
	c := container.FromRaw(map[string]interface{}{
		"userName": "bjensen",
		"active":   true,
	})
	out, err := rs.Serialize(c)
	require.NoError(t, err)
	assert.Equal(t, "bjensen", out["userName"])
	assert.Equal(t, true, out["active"])
}

func TestCatalogRegisterAndFreeze(t *testing.T) {
	cat := NewCatalog(CatalogConfig{})
	rs := testUserSchema()
	require.NoError(t, cat.RegisterResourceSchema(rs))

	got, ok := cat.ResourceSchema(UserSchema)
	require.True(t, ok)
	assert.Same(t, rs, got)

	cat.Freeze()
	assert.True(t, cat.Frozen())
	err := cat.RegisterResourceSchema(testUserSchema())
	assert.Error(t, err)
}

func TestValidateExcludePresenceOnlyFlagsListedParent(t *testing.T) {
	rs := NewResourceSchema(
		UserSchema, "User", "Users", "/Users", "User account",
		[]Attribute{
			{Name: "userName", Type: TypeString, Required: true},
			{
				Name: "name", Type: TypeComplex,
				SubAttributes: []Attribute{
					{Name: "givenName", Type: TypeString},
					{Name: "familyName", Type: TypeString},
				},
			},
		},
	)
	c := container.FromRaw(map[string]interface{}{
		"schemas":  []interface{}{UserSchema},
		"userName": "bjensen",
		"name": map[string]interface{}{
			"givenName":  "Barbara",
			"familyName": "Jensen",
		},
	})

	name, _, err := (attrrep.Factory{}).Parse("name")
	require.NoError(t, err)
	log := rs.Validate(c, &AttrPresenceConfig{
		Direction: DirectionResponse,
		AttrReps:  []attrrep.BoundedAttrRep{name},
		Include:   false,
	})

	issues := log.Flatten()
	var mustNotBeReturned []string
	for path, is := range issues {
		for _, i := range is {
			if i.Code == errors.MustNotBeReturned {
				mustNotBeReturned = append(mustNotBeReturned, path)
			}
		}
	}
	require.Len(t, mustNotBeReturned, 1)
	assert.Equal(t, "name", mustNotBeReturned[0])
}

func TestExtendRegistersExtensionAttributes(t *testing.T) {
	rs := testUserSchema()
	const ext = "urn:ietf:params:scim:schemas:extension:enterprise:2.0:User"
	rs.Extend(&Extension{
		URI:  ext,
		Name: "EnterpriseUser",
		Attrs: []Attribute{
			{Name: "employeeNumber", Type: TypeString},
		},
	}, true, nil)

	require.Len(t, rs.Extensions(), 1)
	assert.Equal(t, []string{ext}, rs.ExtensionURIs())
}
