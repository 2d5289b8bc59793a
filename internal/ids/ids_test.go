package ids

import (
	"encoding/binary"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectID_FormatAndLayout(t *testing.T) {
	g := NewObjectID()

	before := uint32(time.Now().Unix())
	id := g.NewID()
	after := uint32(time.Now().Unix())

	require.True(t, IsHexID(id), "id %q is not 24-char lowercase hex", id)

	raw, err := hex.DecodeString(id)
	require.NoError(t, err)
	require.Len(t, raw, 12)

	ts := binary.BigEndian.Uint32(raw[0:4])
	assert.GreaterOrEqual(t, ts, before)
	assert.LessOrEqual(t, ts, after)
}

func TestObjectID_CounterAdvances(t *testing.T) {
	g := NewObjectID()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := g.NewID()
		assert.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}

func TestSequence_Deterministic(t *testing.T) {
	s := NewSequence(0)

	assert.Equal(t, "000000000000000000000001", s.NewID())
	assert.Equal(t, "000000000000000000000002", s.NewID())
	assert.True(t, IsHexID(s.NewID()))
}

func TestIsHexID(t *testing.T) {
	assert.True(t, IsHexID("65a1b2c3d4e5f60718293a4b"))
	assert.False(t, IsHexID("65A1B2C3D4E5F60718293A4B"))
	assert.False(t, IsHexID("65a1b2c3"))
	assert.False(t, IsHexID("65a1b2c3d4e5f60718293a4g"))
}
