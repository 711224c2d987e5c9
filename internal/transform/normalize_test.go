package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_ArrayOfObjects(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `[{"a":1},{"a":2}]`)
	res, err := Normalize(doc)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Empty(t, res.Warnings)
	assert.Same(t, res.Rows[0], res.Sample)
}

func TestNormalize_WrapsPrimitiveElements(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `[1,"two",{"a":3}]`)
	res, err := Normalize(doc)
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)

	v, ok := res.Rows[0].Get("value")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
	assert.Len(t, res.Warnings, 2)
}

func TestNormalize_SingleObjectBecomesOneRow(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{"name":"solo"}`)
	res, err := Normalize(doc)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []string{"name"}, res.Sample.Keys())
}

func TestNormalize_NilIsEmptySuccess(t *testing.T) {
	t.Parallel()

	res, err := Normalize(nil)
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	require.NotNil(t, res.Sample)
	assert.Equal(t, 0, res.Sample.Len())
}

func TestNormalize_PrimitiveRootFails(t *testing.T) {
	t.Parallel()

	for _, doc := range []Value{"text", 3.14, true} {
		_, err := Normalize(doc)
		require.ErrorIs(t, err, ErrWrongShape, "doc %v", doc)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `[{"a":1,"b":"x"},{"a":2,"b":"y"}]`)
	first, err := Normalize(doc)
	require.NoError(t, err)

	// Re-normalizing an already-row-shaped array changes nothing.
	asArray := make([]Value, len(first.Rows))
	for i, r := range first.Rows {
		asArray[i] = r
	}
	second, err := Normalize(asArray)
	require.NoError(t, err)

	require.Len(t, second.Rows, len(first.Rows))
	for i := range first.Rows {
		assert.True(t, ValueEqual(first.Rows[i], second.Rows[i]))
	}
}

func TestExtractAndNormalize_MissingPathIsEmptyNotError(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{"data":[{"a":1}]}`)
	res, err := ExtractAndNormalize(doc, "/nope")
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.NotEmpty(t, res.Warnings)
}

func TestExtractAndNormalize_ResolvesPath(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{"data":{"items":[{"a":1},{"a":2}]}}`)
	res, err := ExtractAndNormalize(doc, "/data/items")
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
}
