package capn

// newObject bump-allocates totalBytes (rounded up to 8-byte alignment) for
// shape, preferring seg itself before falling back to the message's general
// allocator. When the fallback switches segments, an extra 8-byte scratch
// tag is written immediately before the returned data and HasPtrTag is set,
// so a later far-pointer installation can reuse it as a landing pad instead
// of allocating one (spec section 4.6; new_object in the reference source).
func newObject(seg *Segment, totalBytes Size, shape Ptr) (Ptr, error) {
	aligned := (totalBytes + 7) &^ 7

	if seg.length+aligned <= seg.Cap() {
		shape.Seg = seg
		shape.Off = Address(seg.length)
		seg.length += aligned
		return shape, nil
	}

	newSeg, tagAddr, err := alloc(seg.msg, aligned+wordSize)
	if err != nil {
		return Ptr{}, err
	}
	dataAddr, ok := tagAddr.addSize(wordSize)
	if !ok {
		return Ptr{}, errOverflow
	}
	shape.Seg = newSeg
	shape.Off = dataAddr
	shape.HasPtrTag = true
	newSeg.writeRawPointer(tagAddr, ptrValue(shape, 0))
	return shape, nil
}

// NewStruct allocates a struct with the given data-section size (in bytes,
// rounded up to a multiple of 8) and pointer-section count.
func NewStruct(seg *Segment, dataSize Size, ptrCount int) (Ptr, error) {
	datasz := (dataSize + 7) &^ 7
	ptrsz := Size(ptrCount) * 8
	shape := Ptr{Type: TypeStruct, DataSize: uint32(datasz), PtrSize: uint32(ptrsz)}
	return newObject(seg, datasz+ptrsz, shape)
}

// NewList allocates a list of n elements. When ptrCount > 0 or dataSize > 8
// bytes, the elements are mixed-shape structs and the list is built as a
// composite list with a leading 8-byte tag (spec section 4.6).
func NewList(seg *Segment, n int, dataSize Size, ptrCount int) (Ptr, error) {
	if ptrCount > 0 || dataSize > 8 {
		return newCompositeList(seg, uint32(n), (dataSize+7)&^7, uint32(ptrCount))
	}
	size := uint32(n)
	switch {
	case dataSize > 4:
		return newObject(seg, Size(n)*8, Ptr{Type: TypeList, Size: size, DataSize: 8})
	case dataSize > 2:
		return newObject(seg, Size(n)*4, Ptr{Type: TypeList, Size: size, DataSize: 4})
	default:
		return newObject(seg, Size(n)*Size(dataSize), Ptr{Type: TypeList, Size: size, DataSize: uint32(dataSize)})
	}
}

// newCompositeList allocates a mixed-shape (struct) list body plus its
// leading composite tag word, regardless of whether datasz/ptrCount happen
// to be small enough that a plain list could have expressed the same bytes.
// Used directly by NewList and by the copy engine's newClone, which must
// reproduce a decoded source list's HasCompositeTag bit exactly rather than
// re-deriving it from width thresholds.
func newCompositeList(seg *Segment, n uint32, datasz Size, ptrCount uint32) (Ptr, error) {
	ptrsz := Size(ptrCount) * 8
	shape := Ptr{
		Type:            TypeList,
		Size:            n,
		DataSize:        uint32(datasz),
		PtrSize:         uint32(ptrsz),
		HasCompositeTag: true,
	}
	bodyBytes, ok := (datasz + ptrsz).times(int32(n))
	if !ok {
		return Ptr{}, errOverflow
	}
	p, err := newObject(seg, bodyBytes+wordSize, shape)
	if err != nil {
		return Ptr{}, err
	}
	hdr := rawCompositeTag(n, uint16(datasz/8), uint16(ptrCount))
	p.Seg.writeRawPointer(p.Off, hdr)
	bodyStart, ok := p.Off.addSize(wordSize)
	if !ok {
		return Ptr{}, errOverflow
	}
	p.Off = bodyStart
	return p, nil
}

// NewBitList allocates a list of n single-bit elements.
func NewBitList(seg *Segment, n int) (Ptr, error) {
	size := uint32(n)
	bytes := Size((size + 7) / 8)
	return newObject(seg, bytes, Ptr{Type: TypeBitList, Size: size, DataSize: uint32(bytes)})
}

// NewPtrList allocates a list of n pointer slots, all initially null.
func NewPtrList(seg *Segment, n int) (Ptr, error) {
	size := uint32(n)
	return newObject(seg, Size(n)*8, Ptr{Type: TypePtrList, Size: size})
}

// NewString allocates a byte1 list of sz+1 bytes (or len(str)+1 if sz < 0)
// holding str followed by a zero terminator, as required by GetText.
func NewString(seg *Segment, str string, sz int) (Ptr, error) {
	if sz < 0 {
		sz = len(str)
	}
	p, err := newObject(seg, Size(sz+1), Ptr{Type: TypeList, Size: uint32(sz + 1), DataSize: 1})
	if err != nil {
		return Ptr{}, err
	}
	copy(p.Seg.slice(p.Off, Size(sz)), str)
	return p, nil
}

// NewRoot allocates (or reuses) segment 0 and returns a one-element
// pointer-list handle over its first word, which is the message's root
// pointer slot.
func NewRoot(m *Message) (Ptr, error) {
	s, err := m.Segment(0)
	if err != nil || s == nil {
		s, _, err = alloc(m, wordSize)
		if err != nil {
			return Ptr{}, err
		}
	}
	if s.length < wordSize {
		return Ptr{}, errAllocRefused
	}
	return Ptr{Seg: s, Off: 0, Type: TypePtrList, Size: 1}, nil
}

// GetRoot returns the message's root pointer, or the null Ptr if segment 0
// does not exist or has no data yet.
func GetRoot(m *Message) Ptr {
	s, err := m.Segment(0)
	if err != nil || s == nil || s.length < wordSize {
		return Ptr{}
	}
	p, err := readPtrAt(m, s, 0)
	if err != nil {
		return Ptr{}
	}
	return p
}
