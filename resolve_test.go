package pdxscript

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_SubstitutesReferences(t *testing.T) {
	ops, err := ParseOps(`
@cost = 100
@half = @cost
unit = { cost = @cost upkeep = @half list = { @cost 2 3 } }
`)
	require.NoError(t, err)

	resolved, err := NewResolver().Resolve(ops)
	require.NoError(t, err)

	want, err := ParseOps("unit = { cost = 100 upkeep = 100 list = { 100 2 3 } }")
	require.NoError(t, err)
	if diff := cmp.Diff(want, resolved); diff != "" {
		t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestResolver_DoesNotMutateInput(t *testing.T) {
	ops, err := ParseOps("@x = 1\na = @x")
	require.NoError(t, err)
	before := Serialize(ops, 0)

	_, err = NewResolver().Resolve(ops)
	require.NoError(t, err)
	assert.Equal(t, before, Serialize(ops, 0))
	assert.Equal(t, Ref("x"), ops[1].Value)
}

func TestResolver_KeepDefinitions(t *testing.T) {
	ops, err := ParseOps("@x = 1\na = @x")
	require.NoError(t, err)

	resolved, err := NewResolver().WithKeepDefinitions(true).Resolve(ops)
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, Ref("x"), resolved[0].Key)
	assert.Equal(t, Number(1), resolved[1].Value)
}

func TestResolver_UndefinedReferences(t *testing.T) {
	ops, err := ParseOps("a = @missing")
	require.NoError(t, err)

	resolved, err := NewResolver().Resolve(ops)
	require.NoError(t, err)
	assert.Equal(t, Ref("missing"), resolved[0].Value)

	_, err = NewResolver().WithStrict(true).Resolve(ops)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined reference @missing")
}

func TestResolver_ExternalVars(t *testing.T) {
	ops, err := ParseOps("@b = 2\na = @a\nb = @b")
	require.NoError(t, err)

	resolved, err := NewResolver().
		WithVars(map[string]Value{"a": String("outside"), "b": Number(99)}).
		Resolve(ops)
	require.NoError(t, err)
	assert.Equal(t, String("outside"), resolved[0].Value)
	assert.Equal(t, Number(2), resolved[1].Value)
}

func TestResolver_CircularReference(t *testing.T) {
	ops, err := ParseOps("@a = @b\n@b = { x = @a }\nv = @a")
	require.NoError(t, err)

	_, err = NewResolver().Resolve(ops)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular reference: @a -> @b -> @a")
}

func TestResolver_FirstDefinitionWins(t *testing.T) {
	ops, err := ParseOps("@a = 1\n@a = 2\nv = @a")
	require.NoError(t, err)

	resolved, err := NewResolver().Resolve(ops)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, Number(1), resolved[0].Value)
}
