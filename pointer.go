package capn

// rawPointer is a 64-bit on-wire pointer word, decoded least-significant-bit
// first. See spec section 3 ("On-wire pointer word") and the reference
// C implementation in original_source/c/capn.c for the exact bit layout
// this mirrors.
type rawPointer uint64

const (
	structPtrTag   = 0 // low 2 bits
	listPtrTag     = 1
	farPtrTag      = 2 // low 3 bits
	doubleFarTag   = 6 // low 3 bits
)

// elementKind values for list pointers, bits 32..34.
const (
	voidList = iota
	bit1List
	byte1List
	byte2List
	byte4List
	byte8List
	ptrList
	compositeList
)

func (v rawPointer) isFar() bool       { return uint64(v)&7 == farPtrTag }
func (v rawPointer) isDoubleFar() bool { return uint64(v)&7 == doubleFarTag }
func (v rawPointer) isList() bool      { return uint64(v)&3 == listPtrTag }
func (v rawPointer) isZero() bool      { return v == 0 }

// offsetWords returns the signed word offset carried in bits 2..31,
// interpreted relative to the end of the pointer word itself.
func (v rawPointer) offsetWords() int32 {
	return int32(uint32(v)) >> 2
}

// farOffsetWords returns the unsigned word offset carried in bits 3..31 of a
// far or double-far pointer.
func (v rawPointer) farOffsetWords() uint32 {
	return uint32(v) >> 3
}

func (v rawPointer) farSegment() SegmentID {
	return SegmentID(uint32(v >> 32))
}

func (v rawPointer) dataWords() uint16 { return uint16(uint32(v>>32) & 0xffff) }
func (v rawPointer) ptrWords() uint16  { return uint16(uint32(v>>48) & 0xffff) }

func (v rawPointer) elementKind() uint8  { return uint8((v >> 32) & 7) }
func (v rawPointer) numElements() uint32 { return uint32(v >> 35) }

// compositeCount reads the element count out of a composite-list tag word,
// which is shaped like a struct pointer whose "offset" field is repurposed
// to hold a raw element count rather than an address delta.
func (v rawPointer) compositeCount() uint32 { return uint32(v) >> 2 }

func rawFarPointer(seg SegmentID, addr Address) rawPointer {
	off := uint64(addr) / uint64(wordSize)
	return rawPointer(uint64(farPtrTag) | off<<3 | uint64(seg)<<32)
}

func rawDoubleFarPointer(seg SegmentID, addr Address) rawPointer {
	off := uint64(addr) / uint64(wordSize)
	return rawPointer(uint64(doubleFarTag) | off<<3 | uint64(seg)<<32)
}

// rawStructPointer builds a near struct pointer whose offset is relative to
// the word immediately following it (offWords may be negative).
func rawStructPointer(offWords int32, dataWords, ptrWords uint16) rawPointer {
	off := uint64(uint32(offWords << 2))
	return rawPointer(uint64(structPtrTag) | off | uint64(dataWords)<<32 | uint64(ptrWords)<<48)
}

// rawListPointer builds a near list pointer for a non-composite element kind.
func rawListPointer(offWords int32, kind uint8, count uint32) rawPointer {
	off := uint64(uint32(offWords << 2))
	return rawPointer(uint64(listPtrTag) | off | uint64(kind)<<32 | uint64(count)<<35)
}

// rawCompositeTag builds the tag word stored immediately before a composite
// list's body: struct-pointer-shaped, with the element count in the
// "offset" field.
func rawCompositeTag(count uint32, dataWords, ptrWords uint16) rawPointer {
	return rawPointer(uint64(structPtrTag) | uint64(count)<<2 | uint64(dataWords)<<32 | uint64(ptrWords)<<48)
}
