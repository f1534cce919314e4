package capn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRootOnEmptyMessageIsNull(t *testing.T) {
	m := &Message{}
	assert.False(t, GetRoot(m).IsValid())
}

func TestNewRootRefusesExistingShortSegmentZero(t *testing.T) {
	m := &Message{}
	m.AppendSegment(NewSegment(make([]byte, 64))) // segment 0 exists, length 0

	_, err := NewRoot(m)
	assert.ErrorIs(t, err, ErrAllocRefused)
}

func TestNewRootStructByteLayout(t *testing.T) {
	m := NewInMemoryMessage(64)

	root, err := NewRoot(m)
	require.NoError(t, err)

	seg, err := m.Segment(0)
	require.NoError(t, err)

	s, err := NewStruct(seg, 8, 0)
	require.NoError(t, err)

	require.NoError(t, SetPtr(root, 0, s))

	want := []byte{0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	assert.Equal(t, want, seg.Data()[:16])
}

func TestStructDataAndPointerRoundTrip(t *testing.T) {
	m := NewInMemoryMessage(256)
	root, err := NewRoot(m)
	require.NoError(t, err)
	seg, err := m.Segment(0)
	require.NoError(t, err)

	s, err := NewStruct(seg, 16, 2)
	require.NoError(t, err)
	Write64(Ptr{Seg: s.Seg, Off: s.Off, Type: TypeList, Size: 2, DataSize: 8}, 0, 0xdeadbeefcafef00d)

	child, err := NewStruct(seg, 8, 0)
	require.NoError(t, err)
	Write32(Ptr{Seg: child.Seg, Off: child.Off, Type: TypeList, Size: 2, DataSize: 4}, 0, 42)

	require.NoError(t, SetPtr(s, 0, child))
	require.NoError(t, SetPtr(root, 0, s))

	decoded := GetRoot(m)
	require.True(t, decoded.IsValid())
	assert.Equal(t, TypeStruct, decoded.Type)
	assert.Equal(t, uint32(16), decoded.DataSize)
	assert.Equal(t, uint32(16), decoded.PtrSize)

	primView := Ptr{Seg: decoded.Seg, Off: decoded.Off, Type: TypeList, Size: 2, DataSize: 8}
	assert.Equal(t, uint64(0xdeadbeefcafef00d), Read64(primView, 0))

	gotChild := Getp(decoded, 0)
	require.True(t, gotChild.IsValid())
	assert.Equal(t, TypeStruct, gotChild.Type)
	childView := Ptr{Seg: gotChild.Seg, Off: gotChild.Off, Type: TypeList, Size: 2, DataSize: 4}
	assert.Equal(t, uint32(42), Read32(childView, 0))
}

func TestNewListCompositeShape(t *testing.T) {
	m := NewInMemoryMessage(256)
	_, err := NewRoot(m)
	require.NoError(t, err)
	seg, err := m.Segment(0)
	require.NoError(t, err)

	l, err := NewList(seg, 3, 8, 1)
	require.NoError(t, err)
	assert.True(t, l.HasCompositeTag)
	assert.Equal(t, uint32(3), l.Size)
	assert.Equal(t, uint32(8), l.DataSize)
	assert.Equal(t, uint32(8), l.PtrSize)

	for i := 0; i < 3; i++ {
		elem := Getp(l, i)
		require.True(t, elem.IsValid())
		assert.True(t, elem.ListMember)
		view := Ptr{Seg: elem.Seg, Off: elem.Off, Type: TypeList, Size: 1, DataSize: 8}
		Write64(view, 0, uint64(i+1))
	}
	for i := 0; i < 3; i++ {
		elem := Getp(l, i)
		view := Ptr{Seg: elem.Seg, Off: elem.Off, Type: TypeList, Size: 1, DataSize: 8}
		assert.Equal(t, uint64(i+1), Read64(view, 0))
	}

	assert.False(t, Getp(l, 3).IsValid())
}

func TestNewPtrListAndNewBitList(t *testing.T) {
	m := NewInMemoryMessage(128)
	_, err := NewRoot(m)
	require.NoError(t, err)
	seg, err := m.Segment(0)
	require.NoError(t, err)

	pl, err := NewPtrList(seg, 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), pl.Size)
	for i := 0; i < 4; i++ {
		assert.False(t, Getp(pl, i).IsValid())
	}

	bl, err := NewBitList(seg, 10)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), bl.DataSize)
	WriteBit(bl, 0, true)
	WriteBit(bl, 9, true)
	WriteBit(bl, 5, false)
	assert.True(t, ReadBit(bl, 0))
	assert.True(t, ReadBit(bl, 9))
	assert.False(t, ReadBit(bl, 5))
	assert.False(t, ReadBit(bl, 1))
}
