package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) Value {
	t.Helper()
	v, err := ParseDocument([]byte(src))
	require.NoError(t, err)
	return v
}

func TestParseDocument_PreservesObjectFieldOrder(t *testing.T) {
	t.Parallel()

	v := mustParse(t, `{"zeta":1,"alpha":2,"mid":3}`)
	row, ok := v.(*Row)
	require.True(t, ok)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, row.Keys())

	out, err := EncodeValue(row)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":2,"mid":3}`, string(out))
}

func TestParseDocument_RejectsTrailingContent(t *testing.T) {
	t.Parallel()

	_, err := ParseDocument([]byte(`{"a":1} trailing`))
	require.Error(t, err)
}

func TestRow_SetKeepsInsertionOrderOnOverwrite(t *testing.T) {
	t.Parallel()

	r := NewRow()
	r.Set("a", 1.0)
	r.Set("b", 2.0)
	r.Set("a", 9.0)

	assert.Equal(t, []string{"a", "b"}, r.Keys())
	v, _ := r.Get("a")
	assert.Equal(t, 9.0, v)
}

func TestLookupPointer(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{"results":{"forecast":[{"day":"mon"},{"day":"tue"}]},"count":2}`)

	tests := []struct {
		name  string
		path  string
		found bool
	}{
		{"root", "", true},
		{"nested array", "/results/forecast", true},
		{"array element field", "/results/forecast/1/day", true},
		{"missing field", "/results/missing", false},
		{"index out of range", "/results/forecast/7", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := LookupPointer(doc, tt.path)
			assert.Equal(t, tt.found, ok)
		})
	}

	v, ok := LookupPointer(doc, "/results/forecast/1/day")
	require.True(t, ok)
	assert.Equal(t, "tue", v)
}

func TestNumeric(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   Value
		want float64
		ok   bool
	}{
		{42.0, 42, true},
		{"3.5", 3.5, true},
		{" 7 ", 7, true},
		{"abc", 0, false},
		{true, 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := Numeric(tt.in)
		assert.Equal(t, tt.ok, ok, "Numeric(%v)", tt.in)
		if ok {
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestValueEqual_ObjectsCompareByFieldSet(t *testing.T) {
	t.Parallel()

	a := mustParse(t, `{"x":1,"y":2}`)
	b := mustParse(t, `{"y":2,"x":1}`)
	c := mustParse(t, `{"x":1,"y":3}`)

	assert.True(t, ValueEqual(a, b))
	assert.False(t, ValueEqual(a, c))
}

func TestEncodeValue_WholeFloatsRenderAsIntegers(t *testing.T) {
	t.Parallel()

	out, err := EncodeValue(10.0)
	require.NoError(t, err)
	assert.Equal(t, "10", string(out))

	out, err = EncodeValue(10.5)
	require.NoError(t, err)
	assert.Equal(t, "10.5", string(out))
}
