package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sechub/pkg/errors"
)

func TestNegotiateSchemaAcceptsSupportedRange(t *testing.T) {
	for v := MinSchemaVersion; v <= MaxSchemaVersion; v++ {
		got, err := NegotiateSchema(v)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestNegotiateSchemaRejectsOutOfRange(t *testing.T) {
	for _, v := range []int{-1, MaxSchemaVersion + 1, 100} {
		_, err := NegotiateSchema(v)
		require.Error(t, err)
		assert.Equal(t, errors.CodeSchemaInvalid, errors.CodeOf(err))
	}
}

func TestVersionWindowContains(t *testing.T) {
	w := Window(0, 2)
	assert.True(t, w.Contains(0))
	assert.True(t, w.Contains(2))
	assert.False(t, w.Contains(3))

	since := Since(3)
	assert.False(t, since.Contains(2))
	assert.True(t, since.Contains(3))
	assert.True(t, since.Contains(MaxSchemaVersion))

	all := AllVersions()
	for v := MinSchemaVersion; v <= MaxSchemaVersion; v++ {
		assert.True(t, all.Contains(v))
	}
}
