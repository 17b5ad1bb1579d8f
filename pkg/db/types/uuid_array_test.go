package dbtypes

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDArrayValueAndScanRoundTrip(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	arr := UUIDArray{a, b}

	raw, err := arr.Value()
	require.NoError(t, err)
	assert.Equal(t, "{"+a.String()+","+b.String()+"}", raw)

	var scanned UUIDArray
	require.NoError(t, scanned.Scan([]byte(raw.(string))))
	assert.Equal(t, arr, scanned)
}

func TestUUIDArrayScanEmptyForms(t *testing.T) {
	for _, src := range []any{nil, "", "{}", []byte("{ }")} {
		var arr UUIDArray
		require.NoError(t, arr.Scan(src))
		assert.Empty(t, arr)
	}

	var arr UUIDArray
	assert.Error(t, arr.Scan(42))
	assert.Error(t, arr.Scan("{not-a-uuid}"))
}

func TestUUIDArrayAppendKeepsOrderWithoutDuplicates(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	arr := UUIDArray{a}

	arr = arr.Append(b)
	arr = arr.Append(a)

	assert.Equal(t, UUIDArray{a, b}, arr)
}

func TestUUIDArrayWithout(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	arr := UUIDArray{a, b, c}

	assert.Equal(t, UUIDArray{a, c}, arr.Without(b))
	assert.Equal(t, UUIDArray{a, b, c}, arr, "original must not be mutated")
	assert.Empty(t, UUIDArray{a}.Without(a))
	assert.True(t, arr.Contains(c))
	assert.False(t, arr.Without(c).Contains(c))
}

func TestUUIDArrayScansQuotedElements(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	var arr UUIDArray
	require.NoError(t, arr.Scan(`{"`+a.String()+`","`+b.String()+`"}`))
	assert.Equal(t, UUIDArray{a, b}, arr)
}
