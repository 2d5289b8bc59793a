package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeVector(t *testing.T) {
	assert.Equal(t, "[]", EncodeVector(nil))
	assert.Equal(t, "[0.5,-1,0.25]", EncodeVector([]float32{0.5, -1, 0.25}))
}

func TestParseVector_RoundTrip(t *testing.T) {
	in := []float32{0.125, -0.75, 3, 0}

	out, err := ParseVector(EncodeVector(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseVector_Whitespace(t *testing.T) {
	out, err := ParseVector(" [0.1, 0.2, 0.3] ")
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestParseVector_Malformed(t *testing.T) {
	_, err := ParseVector("0.1,0.2")
	assert.Error(t, err)

	_, err = ParseVector("[0.1,abc]")
	assert.Error(t, err)
}

func TestParseVector_Empty(t *testing.T) {
	out, err := ParseVector("[]")
	require.NoError(t, err)
	assert.Empty(t, out)
}
