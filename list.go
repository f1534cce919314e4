package capn

// Read8, Read16, Read32 and Read64 return element i of a primitive list p,
// zero-extended. p.DataSize must equal the accessor's width and i must be
// within p.Size (spec section 4.8's type/size guard); either violation
// panics rather than reading at a scaled-but-wrong offset.
func Read8(p Ptr, i int) uint8   { return p.Seg.readUint8(elemAddr(p, i, 1)) }
func Read16(p Ptr, i int) uint16 { return p.Seg.readUint16(elemAddr(p, i, 2)) }
func Read32(p Ptr, i int) uint32 { return p.Seg.readUint32(elemAddr(p, i, 4)) }
func Read64(p Ptr, i int) uint64 { return p.Seg.readUint64(elemAddr(p, i, 8)) }

// Write8, Write16, Write32 and Write64 set element i of a primitive list p,
// under the same type/size guard as the Read functions.
func Write8(p Ptr, i int, v uint8)   { p.Seg.writeUint8(elemAddr(p, i, 1), v) }
func Write16(p Ptr, i int, v uint16) { p.Seg.writeUint16(elemAddr(p, i, 2), v) }
func Write32(p Ptr, i int, v uint32) { p.Seg.writeUint32(elemAddr(p, i, 4), v) }
func Write64(p Ptr, i int, v uint64) { p.Seg.writeUint64(elemAddr(p, i, 8), v) }

// elemAddr returns the byte address of element i (width bytes wide) in list
// p, after checking that p's own element width matches width and that i is
// within p.Size (spec section 4.8's "datasz == width/8, i < size" guard),
// then the raw arithmetic-overflow check. Any violation panics.
func elemAddr(p Ptr, i int, width Size) Address {
	if Size(p.DataSize) != width || i < 0 || uint32(i) >= p.Size {
		panic("capn: list index out of range")
	}
	off, ok := width.times(int32(i))
	if !ok {
		panic("capn: list index out of range")
	}
	addr, ok := p.Off.addSize(off)
	if !ok {
		panic("capn: list index out of range")
	}
	return addr
}

// ReadBit returns bit i of a bit list p (spec section 4.8; capn_read1 in
// original_source/c/capn.c).
func ReadBit(p Ptr, i int) bool {
	byteAddr, ok := p.Off.addSize(Size(i / 8))
	if !ok {
		panic("capn: list index out of range")
	}
	return p.Seg.readUint8(byteAddr)&(1<<uint(i%8)) != 0
}

// WriteBit sets or clears bit i of a bit list p (capn_write1 in
// original_source/c/capn.c).
func WriteBit(p Ptr, i int, v bool) {
	byteAddr, ok := p.Off.addSize(Size(i / 8))
	if !ok {
		panic("capn: list index out of range")
	}
	mask := uint8(1) << uint(i%8)
	b := p.Seg.readUint8(byteAddr)
	if v {
		b |= mask
	} else {
		b &^= mask
	}
	p.Seg.writeUint8(byteAddr, b)
}
