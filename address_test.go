package capn

import "testing"

import "github.com/stretchr/testify/assert"

func TestAddressAddSizeOverflow(t *testing.T) {
	a := Address(^uint32(0) - 3)
	_, ok := a.addSize(8)
	assert.False(t, ok)

	b := Address(10)
	v, ok := b.addSize(5)
	assert.True(t, ok)
	assert.Equal(t, Address(15), v)
}

func TestSizeTimesOverflow(t *testing.T) {
	_, ok := Size(1 << 30).times(1 << 30)
	assert.False(t, ok)

	v, ok := Size(4).times(3)
	assert.True(t, ok)
	assert.Equal(t, Size(12), v)

	_, ok = Size(4).times(-1)
	assert.False(t, ok)
}
