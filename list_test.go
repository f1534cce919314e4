package capn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveListRoundTrip(t *testing.T) {
	m := NewInMemoryMessage(128)
	_, err := NewRoot(m)
	require.NoError(t, err)
	seg, err := m.Segment(0)
	require.NoError(t, err)

	l8, err := NewList(seg, 4, 1, 0)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		Write8(l8, i, uint8(10+i))
	}
	for i := 0; i < 4; i++ {
		assert.Equal(t, uint8(10+i), Read8(l8, i))
	}

	l16, err := NewList(seg, 3, 2, 0)
	require.NoError(t, err)
	Write16(l16, 1, 0xbeef)
	assert.Equal(t, uint16(0xbeef), Read16(l16, 1))
	assert.Equal(t, uint16(0), Read16(l16, 0))

	l64, err := NewList(seg, 3, 8, 0)
	require.NoError(t, err)
	Write64(l64, 2, 0x1122334455667788)
	assert.Equal(t, uint64(0x1122334455667788), Read64(l64, 2))
	assert.Equal(t, uint64(0), Read64(l64, 0))
}

func TestElemAddrLogicallyOutOfRangePanics(t *testing.T) {
	m := NewInMemoryMessage(64)
	_, err := NewRoot(m)
	require.NoError(t, err)
	seg, err := m.Segment(0)
	require.NoError(t, err)

	l, err := NewList(seg, 3, 8, 0)
	require.NoError(t, err)

	// Index 5 is well within elemAddr's raw arithmetic range for an
	// 8-byte-wide list, but the list only has 3 elements.
	assert.Panics(t, func() { Read64(l, 5) })
}

func TestElemAddrWrongWidthPanics(t *testing.T) {
	m := NewInMemoryMessage(64)
	_, err := NewRoot(m)
	require.NoError(t, err)
	seg, err := m.Segment(0)
	require.NoError(t, err)

	l, err := NewList(seg, 4, 2, 0)
	require.NoError(t, err)

	assert.Panics(t, func() { Read64(l, 0) })
}

func TestElemAddrOutOfRangePanics(t *testing.T) {
	m := NewInMemoryMessage(64)
	_, err := NewRoot(m)
	require.NoError(t, err)
	seg, err := m.Segment(0)
	require.NoError(t, err)

	l, err := NewList(seg, 2, 8, 0)
	require.NoError(t, err)

	// An index this large would overflow the 32-bit byte-offset arithmetic
	// elemAddr uses; it is also past the list's element count, so
	// elemAddr's count guard panics before that arithmetic is reached.
	assert.Panics(t, func() { Read64(l, 1<<29) })
}
