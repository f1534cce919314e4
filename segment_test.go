package capn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageSegmentRegistryLookup(t *testing.T) {
	m := &Message{}
	var want []*Segment
	for i := 0; i < 20; i++ {
		s := NewSegment(make([]byte, 32))
		m.AppendSegment(s)
		want = append(want, s)
	}

	for i, s := range want {
		got, err := m.Segment(SegmentID(i))
		require.NoError(t, err)
		assert.Same(t, s, got)
	}

	_, err := m.Segment(SegmentID(len(want)))
	assert.ErrorIs(t, err, errSegmentNotFound)
}

func TestMessageSegmentLookupCallback(t *testing.T) {
	backing := NewSegment(make([]byte, 16))
	m := &Message{
		Lookup: func(user interface{}, id SegmentID) *Segment {
			if id == 7 {
				return backing
			}
			return nil
		},
	}

	got, err := m.Segment(7)
	require.NoError(t, err)
	assert.Same(t, backing, got)

	// A second lookup for the same id must hit the registry, not Lookup
	// again (a replacement Lookup records whether it was called, and the
	// test asserts that it was not).
	called := false
	m.Lookup = func(user interface{}, id SegmentID) *Segment {
		called = true
		return nil
	}
	got2, err := m.Segment(7)
	require.NoError(t, err)
	assert.Same(t, backing, got2)
	assert.False(t, called)
}

func TestAllocFallsBackAcrossSegments(t *testing.T) {
	m := &Message{}
	full := NewSegment(make([]byte, 8))
	m.AppendSegment(full)
	full.length = 8 // no room left

	roomy := NewSegment(make([]byte, 64))
	m.AppendSegment(roomy)

	s, addr, err := alloc(m, 16)
	require.NoError(t, err)
	assert.Same(t, roomy, s)
	assert.Equal(t, Address(0), addr)
	assert.Equal(t, Size(16), roomy.length)
}

func TestAllocRefusedWithoutCreate(t *testing.T) {
	m := &Message{}
	_, _, err := alloc(m, 8)
	assert.ErrorIs(t, err, ErrAllocRefused)
}

func TestAllocCreatesNewSegment(t *testing.T) {
	var created []Size
	m := &Message{
		Create: func(user interface{}, idHint SegmentID, minBytes Size) *Segment {
			created = append(created, minBytes)
			return NewSegment(make([]byte, minBytes))
		},
	}
	s, addr, err := alloc(m, 24)
	require.NoError(t, err)
	assert.Equal(t, Address(0), addr)
	assert.Equal(t, Size(24), s.length)
	assert.Equal(t, []Size{24}, created)
	assert.Equal(t, SegmentID(0), s.id)
}
