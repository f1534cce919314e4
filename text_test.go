package capn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextRoundTrip(t *testing.T) {
	m := NewInMemoryMessage(64)
	root, err := NewRoot(m)
	require.NoError(t, err)

	require.NoError(t, SetText(root, 0, "hello"))

	p := Getp(root, 0)
	require.True(t, p.IsValid())
	assert.Equal(t, TypeList, p.Type)
	assert.Equal(t, uint32(1), p.DataSize)
	assert.Equal(t, uint32(6), p.Size)
	assert.Equal(t, "hello", GetText(p))
	assert.Equal(t, byte(0), p.Seg.slice(p.Off, 6)[5])
}

func TestDataRoundTrip(t *testing.T) {
	m := NewInMemoryMessage(64)
	root, err := NewRoot(m)
	require.NoError(t, err)

	require.NoError(t, SetData(root, 0, []byte{1, 2, 3}))

	p := Getp(root, 0)
	require.True(t, p.IsValid())
	assert.Equal(t, []byte{1, 2, 3}, GetData(p))
}

func TestGetTextAndDataOnNullAreEmpty(t *testing.T) {
	assert.Equal(t, "", GetText(Ptr{}))
	assert.Nil(t, GetData(Ptr{}))
}

func TestGetTextWithoutTerminatorIsEmpty(t *testing.T) {
	m := NewInMemoryMessage(64)
	root, err := NewRoot(m)
	require.NoError(t, err)

	require.NoError(t, SetData(root, 0, []byte{'h', 'i'}))

	p := Getp(root, 0)
	require.True(t, p.IsValid())
	assert.Equal(t, []byte{'h', 'i'}, GetData(p))
	assert.Equal(t, "", GetText(p))
}

func TestGetTextOnWrongShapeIsEmpty(t *testing.T) {
	m := NewInMemoryMessage(64)
	_, err := NewRoot(m)
	require.NoError(t, err)
	seg, err := m.Segment(0)
	require.NoError(t, err)

	l, err := NewList(seg, 4, 8, 0)
	require.NoError(t, err)
	assert.Equal(t, "", GetText(l))
	assert.Nil(t, GetData(l))
}
