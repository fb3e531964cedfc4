package attrrep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scimplex/core/issuelog"
)

func TestFactoryParseSimpleAttr(t *testing.T) {
	rep, bounded, err := (Factory{}).Parse("userName")
	require.NoError(t, err)
	assert.False(t, bounded)
	assert.Equal(t, "userName", rep.Attr)
	assert.Empty(t, rep.SubAttr)
	assert.Empty(t, rep.Schema)
}

func TestFactoryParseSubAttr(t *testing.T) {
	rep, _, err := (Factory{}).Parse("name.givenName")
	require.NoError(t, err)
	assert.Equal(t, "name", rep.Attr)
	assert.Equal(t, "givenName", rep.SubAttr)
	assert.True(t, rep.HasSubAttr())
}

func TestFactoryParseSchemaPrefixed(t *testing.T) {
	rep, bounded, err := (Factory{}).Parse("urn:ietf:params:scim:schemas:core:2.0:User:userName")
	require.NoError(t, err)
	assert.True(t, bounded)
	assert.Equal(t, "urn:ietf:params:scim:schemas:core:2.0:User", rep.Schema)
	assert.Equal(t, "userName", rep.Attr)
}

func TestFactoryParseInvalidName(t *testing.T) {
	_, _, err := (Factory{}).Parse("3invalid")
	assert.Error(t, err)

	_, _, err = (Factory{}).Parse("")
	assert.Error(t, err)
}

func TestAttrRepEqualsCaseInsensitive(t *testing.T) {
	a := New("userName", "")
	b := New("USERNAME", "")
	assert.True(t, a.Equals(b))
}

func TestBoundedAttrRepEqualsMatchesOnEmptySchema(t *testing.T) {
	bound := NewBounded("urn:ietf:params:scim:schemas:core:2.0:User", "userName", "")
	unbound := NewBounded("", "userName", "")
	assert.True(t, bound.Equals(unbound))
	assert.True(t, unbound.Equals(bound))

	other := NewBounded("urn:ietf:params:scim:schemas:extension:enterprise:2.0:User", "userName", "")
	assert.False(t, bound.Equals(other))
}

func TestBoundedAttrRepParentEqualsIgnoresSubAttr(t *testing.T) {
	a := NewBounded("", "name", "givenName")
	b := NewBounded("", "name", "familyName")
	assert.False(t, a.Equals(b))
	assert.True(t, a.ParentEquals(b))
}

func TestBoundedAttrRepString(t *testing.T) {
	b := NewBounded("urn:ietf:params:scim:schemas:core:2.0:User", "name", "givenName")
	assert.Equal(t, "urn:ietf:params:scim:schemas:core:2.0:User:name.givenName", b.String())

	unbound := NewBounded("", "userName", "")
	assert.Equal(t, "userName", unbound.String())
}

func TestFactoryValidateRecordsError(t *testing.T) {
	log := issuelog.New()
	(Factory{}).Validate("3bad", log, issuelog.Key("path"))
	assert.True(t, log.HasErrors())
}
