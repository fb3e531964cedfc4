package issuelog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scimplex/core/errors"
)

func TestAddErrorStopsProceeding(t *testing.T) {
	log := New()
	log.AddError(errors.Missing, false, nil, Key("userName"))

	assert.False(t, log.CanProceed(Location{Key("userName")}))
	assert.True(t, log.CanProceed(Location{Key("displayName")}))
	assert.True(t, log.HasErrors())
}

func TestAddErrorProceedTrueDoesNotStop(t *testing.T) {
	log := New()
	log.AddError(errors.BadValueSyntax, true, nil, Key("emails"), Index(0), Key("value"))

	assert.True(t, log.CanProceed(Location{Key("emails")}))
	assert.True(t, log.HasErrors(Location{Key("emails")}))
	assert.False(t, log.HasErrors(Location{Key("name")}))
}

func TestStopProceedingBlocksDescendants(t *testing.T) {
	log := New()
	log.AddError(errors.BadType, false, nil, Key("name"))

	assert.False(t, log.CanProceed(Location{Key("name"), Key("familyName")}))
}

func TestMergeRebasesLocationsAndStopping(t *testing.T) {
	parent := New()
	child := New()
	child.AddError(errors.Missing, false, nil, Key("value"))
	child.AddWarning(errors.DuplicatedValues, nil, Key("type"))

	parent.Merge(child, Key("emails"), Index(0))

	assert.False(t, parent.CanProceed(Location{Key("emails"), Index(0), Key("value")}))
	flat := parent.Flatten()
	require.Contains(t, flat, "emails.0.value")
	require.Contains(t, flat, "emails.0.type")
}

func TestPopErrorsRemovesMatchingAndKeepsOtherStops(t *testing.T) {
	log := New()
	log.AddError(errors.MissingMainSchema, false, nil, Key("schemas"))
	log.AddError(errors.BadType, false, nil, Key("schemas"))

	popped := log.PopErrors([]errors.Code{errors.MissingMainSchema}, Key("schemas"))
	require.Len(t, popped, 1)
	assert.Equal(t, errors.MissingMainSchema, popped[0].Code)

	// BadType still blocks proceeding at "schemas" since it wasn't popped.
	assert.False(t, log.CanProceed(Location{Key("schemas")}))
}

func TestGetScopesByLocationAndCode(t *testing.T) {
	log := New()
	log.AddError(errors.Missing, true, nil, Key("name"), Key("familyName"))
	log.AddError(errors.BadType, true, nil, Key("name"), Key("givenName"))

	sub := log.Get([]errors.Code{errors.Missing}, nil, Key("name"))
	assert.Len(t, sub.Flatten(), 1)
	assert.Contains(t, sub.Flatten(), "familyName")
}

func TestLocationStringAndToDict(t *testing.T) {
	loc := Location{Key("emails"), Index(1), Key("value")}
	assert.Equal(t, "emails.1.value", loc.String())

	log := New()
	log.AddError(errors.Missing, true, map[string]interface{}{"name": "value"}, Key("emails"), Index(0), Key("value"))
	dict := log.ToDict()
	emails, ok := dict["emails"].(map[string]interface{})
	require.True(t, ok)
	idx, ok := emails["0"].(map[string]interface{})
	require.True(t, ok)
	val, ok := idx["value"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, val["_errors"], 1)
}

func TestPathsSortedAndDeduplicated(t *testing.T) {
	log := New()
	log.AddError(errors.Missing, true, nil, Key("b"))
	log.AddError(errors.BadType, true, nil, Key("b"))
	log.AddError(errors.Missing, true, nil, Key("a"))

	assert.Equal(t, []string{"a", "b"}, log.Paths())
}
