package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderFillsContextPlaceholders(t *testing.T) {
	msg := BadType.Render(map[string]interface{}{"expected": "boolean"})
	assert.Equal(t, "bad type, expected boolean", msg)
}

func TestRenderMissingContextKeyUsesPlaceholder(t *testing.T) {
	msg := BadAttributeName.Render(nil)
	assert.Contains(t, msg, "<?>")
}

func TestCodeStringStable(t *testing.T) {
	assert.Equal(t, "missing", Missing.String())
	assert.Equal(t, "bracketMismatch", BracketMismatch.String())
}

func TestScimErrorBadParams(t *testing.T) {
	err := ScimErrorBadParams([]string{"count", "startIndex"})
	assert.Equal(t, 400, err.Status)
	assert.Contains(t, err.Detail, "count")
	assert.Contains(t, err.Detail, "startIndex")
}
