package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scimplex/core/container"
	"github.com/scimplex/core/schema"
)

func testResourceSchema() *schema.ResourceSchema {
	return schema.NewResourceSchema(
		"urn:ietf:params:scim:schemas:core:2.0:User",
		"User", "Users", "/Users", "User account",
		[]schema.Attribute{
			{Name: "userName", Type: schema.TypeString},
			{Name: "active", Type: schema.TypeBoolean},
			{
				Name: "emails", Type: schema.TypeComplex, MultiValued: true,
				SubAttributes: []schema.Attribute{
					{Name: "value", Type: schema.TypeString},
					{Name: "type", Type: schema.TypeString},
					{Name: "primary", Type: schema.TypeBoolean},
				},
			},
		},
	)
}

func mustParse(t *testing.T, s string) Expression {
	t.Helper()
	expr, err := Parse(s, nil)
	require.NoError(t, err, "filter: %s", s)
	return expr
}

func TestParseAndMatchSimpleEquality(t *testing.T) {
	rs := testResourceSchema()
	c := container.FromRaw(map[string]interface{}{"userName": "bjensen"})

	expr := mustParse(t, `userName eq "bjensen"`)
	matched, err := expr.Match(c, rs)
	require.NoError(t, err)
	assert.True(t, matched)

	expr = mustParse(t, `userName eq "nope"`)
	matched, err = expr.Match(c, rs)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestParseAndMatchAndOrPrecedence(t *testing.T) {
	rs := testResourceSchema()
	c := container.FromRaw(map[string]interface{}{"userName": "bjensen", "active": true})

	expr := mustParse(t, `userName eq "bjensen" and active eq true or userName eq "other"`)
	matched, err := expr.Match(c, rs)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestParseAndMatchNot(t *testing.T) {
	rs := testResourceSchema()
	c := container.FromRaw(map[string]interface{}{"active": false})

	expr := mustParse(t, `not (active eq true)`)
	matched, err := expr.Match(c, rs)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestParseAndMatchPresence(t *testing.T) {
	rs := testResourceSchema()
	c := container.FromRaw(map[string]interface{}{"userName": "bjensen"})

	expr := mustParse(t, `userName pr`)
	matched, err := expr.Match(c, rs)
	require.NoError(t, err)
	assert.True(t, matched)

	expr = mustParse(t, `active pr`)
	matched, err = expr.Match(c, rs)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestParseAndMatchComplexGroup(t *testing.T) {
	rs := testResourceSchema()
	c := container.FromRaw(map[string]interface{}{
		"emails": []interface{}{
			map[string]interface{}{"value": "a@example.com", "type": "work"},
			map[string]interface{}{"value": "b@example.com", "type": "home", "primary": true},
		},
	})

	expr := mustParse(t, `emails[type eq "home" and primary eq true]`)
	matched, err := expr.Match(c, rs)
	require.NoError(t, err)
	assert.True(t, matched)

	expr = mustParse(t, `emails[type eq "other"]`)
	matched, err = expr.Match(c, rs)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestMatchProjectsBareComplexMultiValuedOntoValue(t *testing.T) {
	rs := testResourceSchema()
	c := container.FromRaw(map[string]interface{}{
		"emails": []interface{}{
			map[string]interface{}{"value": "a@example.com", "type": "work"},
		},
	})

	expr := mustParse(t, `emails eq "a@example.com"`)
	matched, err := expr.Match(c, rs)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestMatchMissingAttributeIsFalse(t *testing.T) {
	rs := testResourceSchema()
	c := container.FromRaw(map[string]interface{}{})

	expr := mustParse(t, `userName eq "bjensen"`)
	matched, err := expr.Match(c, rs)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestParseStringLiteralWithEmbeddedOperatorKeywords(t *testing.T) {
	rs := testResourceSchema()
	c := container.FromRaw(map[string]interface{}{"userName": "and or not"})

	expr := mustParse(t, `userName eq "and or not"`)
	matched, err := expr.Match(c, rs)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestParseRejectsNestedComplexGroup(t *testing.T) {
	_, err := Parse(`emails[addresses[type eq "work"]]`, nil)
	assert.Error(t, err)
}

func TestParseRejectsIncompatibleOperandKind(t *testing.T) {
	_, err := Parse(`userName co true`, nil)
	assert.Error(t, err)
}

func TestParseRejectsUnbalancedBracket(t *testing.T) {
	_, err := Parse(`emails[type eq "work"`, nil)
	assert.Error(t, err)
}

func TestSerializeRoundTrips(t *testing.T) {
	expr := mustParse(t, `userName eq "bjensen" and active eq true`)
	str := expr.String()
	reparsed, err := Parse(str, nil)
	require.NoError(t, err)

	rs := testResourceSchema()
	c := container.FromRaw(map[string]interface{}{"userName": "bjensen", "active": true})
	matched, err := reparsed.Match(c, rs)
	require.NoError(t, err)
	assert.True(t, matched)
}
