package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scimplex/core/container"
	"github.com/scimplex/core/issuelog"
	"github.com/scimplex/core/schema"
)

func testResourceSchema() *schema.ResourceSchema {
	return schema.NewResourceSchema(
		"urn:ietf:params:scim:schemas:core:2.0:User",
		"User", "Users", "/Users", "User account",
		[]schema.Attribute{
			{Name: "userName", Type: schema.TypeString, Required: true},
			{Name: "active", Type: schema.TypeBoolean},
			{
				Name: "emails", Type: schema.TypeComplex, MultiValued: true,
				SubAttributes: []schema.Attribute{
					{Name: "value", Type: schema.TypeString},
					{Name: "type", Type: schema.TypeString},
				},
			},
		},
	)
}

func TestParsePathSimple(t *testing.T) {
	p, err := ParsePath("userName")
	require.NoError(t, err)
	assert.Equal(t, "userName", p.Attr.Attr)
	assert.Nil(t, p.Group)
}

func TestParsePathWithGroupAndSubAttr(t *testing.T) {
	p, err := ParsePath(`emails[type eq "work"].value`)
	require.NoError(t, err)
	assert.Equal(t, "emails", p.Attr.Attr)
	require.NotNil(t, p.Group)
	assert.Equal(t, "value", p.SubAttr)
}

func TestParsePathRejectsSubAttrBeforeBracket(t *testing.T) {
	_, err := ParsePath(`name.givenName[type eq "work"]`)
	assert.Error(t, err)
}

func TestValidateStructureRemoveRequiresPath(t *testing.T) {
	log := issuelog.New()
	ValidateStructure(Operation{Op: OpRemove}, log, issuelog.Index(0))
	assert.True(t, log.HasErrors())
	assert.False(t, log.CanProceed(issuelog.Location{issuelog.Index(0)}))
}

func TestValidateStructureAddRequiresValue(t *testing.T) {
	log := issuelog.New()
	ValidateStructure(Operation{Op: OpAdd}, log, issuelog.Index(0))
	assert.True(t, log.HasErrors())
}

func TestValidateOperationRemoveRequiredFails(t *testing.T) {
	rs := testResourceSchema()
	p, err := ParsePath("userName")
	require.NoError(t, err)

	log := issuelog.New()
	ValidateOperation(Operation{Op: OpRemove, Path: p}, rs, log)
	assert.True(t, log.HasErrors())
}

func TestValidateOperationReplaceWithPathOnUnknownTarget(t *testing.T) {
	rs := testResourceSchema()
	p, err := ParsePath("nickName")
	require.NoError(t, err)

	log := issuelog.New()
	ValidateOperation(Operation{Op: OpReplace, Path: p, Value: "Bob"}, rs, log)
	assert.True(t, log.HasErrors())
}

func TestValidateOperationReplaceWithPathValid(t *testing.T) {
	rs := testResourceSchema()
	p, err := ParsePath("active")
	require.NoError(t, err)

	log := issuelog.New()
	ValidateOperation(Operation{Op: OpReplace, Path: p, Value: true}, rs, log)
	assert.False(t, log.HasErrors())
}

func TestValidateOperationAddWithoutPathUsesContainer(t *testing.T) {
	rs := testResourceSchema()
	c := container.FromRaw(map[string]interface{}{"active": true})

	log := issuelog.New()
	ValidateOperation(Operation{Op: OpAdd, Value: c}, rs, log)
	assert.False(t, log.HasErrors())
}

func TestValidateOperationAddWithoutPathRejectsNonContainer(t *testing.T) {
	rs := testResourceSchema()

	log := issuelog.New()
	ValidateOperation(Operation{Op: OpAdd, Value: "not-a-container"}, rs, log)
	assert.True(t, log.HasErrors())
}
