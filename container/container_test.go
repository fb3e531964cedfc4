package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scimplex/core/attrrep"
)

func TestFromRawTopLevelCaseInsensitiveLookup(t *testing.T) {
	c := FromRaw(map[string]interface{}{"userName": "bjensen"})
	assert.Equal(t, "bjensen", c.Get(AttrKey(attrrep.New("username", ""))))
	assert.Equal(t, Missing, c.Get(AttrKey(attrrep.New("nickName", ""))))
}

func TestFromRawRoutesExtensionBucket(t *testing.T) {
	const ext = "urn:ietf:params:scim:schemas:extension:enterprise:2.0:User"
	c := FromRaw(map[string]interface{}{
		ext: map[string]interface{}{"employeeNumber": "701984"},
	}, ext)

	rep := attrrep.NewBounded(ext, "employeeNumber", "")
	assert.Equal(t, "701984", c.Get(BoundedKey(rep)))
}

func TestFromRawRoutesDottedExtensionKey(t *testing.T) {
	const ext = "urn:ietf:params:scim:schemas:extension:enterprise:2.0:User"
	c := FromRaw(map[string]interface{}{
		ext + ":employeeNumber": "701984",
	}, ext)

	rep := attrrep.NewBounded(ext, "employeeNumber", "")
	assert.Equal(t, "701984", c.Get(BoundedKey(rep)))
}

func TestSetSubAttrCreatesNestedContainer(t *testing.T) {
	c := New()
	rep := attrrep.New("name", "givenName")
	require.NoError(t, c.Set(AttrKey(rep), "Barbara", false))

	assert.Equal(t, "Barbara", c.Get(AttrKey(rep)))
	parent, ok := c.Get(AttrKey(attrrep.New("name", ""))).(*Container)
	require.True(t, ok)
	assert.Equal(t, "Barbara", parent.Get(AttrKey(attrrep.New("givenName", ""))))
}

func TestSetSubAttrExpandOntoMultiValuedParent(t *testing.T) {
	c := New()
	rep := attrrep.New("emails", "value")
	err := c.Set(AttrKey(rep), []interface{}{"a@example.com", "b@example.com"}, true)
	require.NoError(t, err)

	parent, ok := c.Get(AttrKey(attrrep.New("emails", ""))).([]interface{})
	require.True(t, ok)
	require.Len(t, parent, 2)
	elem0, ok := parent[0].(*Container)
	require.True(t, ok)
	assert.Equal(t, "a@example.com", elem0.Get(AttrKey(attrrep.New("value", ""))))
}

func TestGetMissingSubAttrOnMultiValuedProjectsAcrossElements(t *testing.T) {
	c := New()
	rep := attrrep.New("emails", "value")
	require.NoError(t, c.Set(AttrKey(rep), []interface{}{"a@example.com"}, true))

	got := c.Get(AttrKey(attrrep.New("emails", "type")))
	list, ok := got.([]interface{})
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, Missing, list[0])
}

func TestPopRemovesValue(t *testing.T) {
	c := FromRaw(map[string]interface{}{"userName": "bjensen"})
	v := c.Pop(AttrKey(attrrep.New("userName", "")))
	assert.Equal(t, "bjensen", v)
	assert.Equal(t, Missing, c.Get(AttrKey(attrrep.New("userName", ""))))
	assert.Empty(t, c.Keys())
}

func TestToDictRoundTrips(t *testing.T) {
	c := FromRaw(map[string]interface{}{
		"userName": "bjensen",
		"name":     map[string]interface{}{"givenName": "Barbara"},
	})
	dict := c.ToDict()
	assert.Equal(t, "bjensen", dict["userName"])
	nested, ok := dict["name"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Barbara", nested["givenName"])
}

func TestEqualsTreatsFlatAndNestedExtensionFormsAsEqual(t *testing.T) {
	const ext = "urn:ietf:params:scim:schemas:extension:enterprise:2.0:User"
	a := FromRaw(map[string]interface{}{ext: map[string]interface{}{"employeeNumber": "701984"}}, ext)
	b := FromRaw(map[string]interface{}{ext + ":employeeNumber": "701984"}, ext)
	assert.True(t, a.Equals(b))
}

func TestEqualsDetectsDifference(t *testing.T) {
	a := FromRaw(map[string]interface{}{"userName": "bjensen"})
	b := FromRaw(map[string]interface{}{"userName": "jsmith"})
	assert.False(t, a.Equals(b))
}

func TestParseKeyRejectsBadGrammar(t *testing.T) {
	_, err := ParseKey("3bad")
	assert.Error(t, err)

	key, err := ParseKey("name.givenName")
	require.NoError(t, err)
	c := New()
	require.NoError(t, c.Set(key, "Barbara", false))
	assert.Equal(t, "Barbara", c.Get(key))
}
