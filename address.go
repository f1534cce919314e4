package capn

// Address is a byte offset from the start of a Segment's data.
type Address uint32

// addSize returns a+Address(sz), reporting overflow.
func (a Address) addSize(sz Size) (Address, bool) {
	v := a + Address(sz)
	if v < a {
		return 0, false
	}
	return v, true
}

func (a Address) add(off int32) (Address, bool) {
	v := int64(a) + int64(off)
	if v < 0 || v > int64(^Address(0)) {
		return 0, false
	}
	return Address(v), true
}

// Size is a byte count, always representable in 32 bits.
type Size uint32

func (s Size) times(n int32) (Size, bool) {
	if n < 0 {
		return 0, false
	}
	v := uint64(s) * uint64(n)
	if v > uint64(^Size(0)) {
		return 0, false
	}
	return Size(v), true
}

const wordSize Size = 8
