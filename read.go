package capn

// addSignedWords adds off (a signed word count) to base, reporting under
// or overflow.
func addSignedWords(base Address, off int32) (Address, bool) {
	v := int64(base) + int64(off)*int64(wordSize)
	if v < 0 || v > int64(^Address(0)) {
		return 0, false
	}
	return Address(v), true
}

// readPtrAt decodes the pointer word at addr within seg, following at most
// one far or double-far indirection, and returns the corresponding Ptr.
// A malformed word or an out-of-bounds target yields (Ptr{}, nil), not an
// error: spec section 7 kind 1 treats decode failure as a null handle, not
// a propagated error. This mirrors read_ptr in original_source/c/capn.c,
// adapted to the richer has_ptr_tag/has_composite_tag bookkeeping this
// handle type carries.
func readPtrAt(msg *Message, seg *Segment, addr Address) (Ptr, error) {
	val := seg.readRawPointer(addr)
	if val.isZero() {
		return Ptr{}, nil
	}

	var (
		curSeg    = seg
		dataAddr  Address
		kindVal   rawPointer
		hasPtrTag bool
	)

	switch {
	case val.isDoubleFar():
		landingSeg, err := msg.Segment(val.farSegment())
		if err != nil || landingSeg == nil {
			return Ptr{}, nil
		}
		landingAddr := Address(val.farOffsetWords()) * Address(wordSize)
		if !landingSeg.regionInBounds(landingAddr, 2*wordSize) {
			return Ptr{}, nil
		}
		far := landingSeg.readRawPointer(landingAddr)
		tagAddr, ok := landingAddr.addSize(wordSize)
		if !ok {
			return Ptr{}, nil
		}
		tag := landingSeg.readRawPointer(tagAddr)
		if !far.isFar() || far.isDoubleFar() || tag.offsetWords() != 0 {
			return Ptr{}, nil
		}
		targetSeg, err := msg.Segment(far.farSegment())
		if err != nil || targetSeg == nil {
			return Ptr{}, nil
		}
		curSeg = targetSeg
		dataAddr = Address(far.farOffsetWords()) * Address(wordSize)
		kindVal = tag

	case val.isFar():
		targetSeg, err := msg.Segment(val.farSegment())
		if err != nil || targetSeg == nil {
			return Ptr{}, nil
		}
		farAddr := Address(val.farOffsetWords()) * Address(wordSize)
		if !targetSeg.regionInBounds(farAddr, wordSize) {
			return Ptr{}, nil
		}
		resolved := targetSeg.readRawPointer(farAddr)
		hasPtrTag = resolved.offsetWords() == 0
		wordEnd, ok := farAddr.addSize(wordSize)
		if !ok {
			return Ptr{}, nil
		}
		d, ok := addSignedWords(wordEnd, resolved.offsetWords())
		if !ok {
			return Ptr{}, nil
		}
		curSeg = targetSeg
		dataAddr = d
		kindVal = resolved

	default:
		wordEnd, ok := addr.addSize(wordSize)
		if !ok {
			return Ptr{}, nil
		}
		d, ok := addSignedWords(wordEnd, val.offsetWords())
		if !ok {
			return Ptr{}, nil
		}
		curSeg = seg
		dataAddr = d
		kindVal = val
	}

	if kindVal&3 > listPtrTag {
		// Low-2-bit values 2 and 3 are neither struct nor list tags (2 is
		// far/double-far, which must never chain): a far target whose tag
		// is itself far is rejected.
		return Ptr{}, nil
	}

	var ret Ptr
	ret.Seg = curSeg
	ret.HasPtrTag = hasPtrTag
	ret.Off = dataAddr

	var end Address
	var ok bool

	switch {
	case kindVal&3 == structPtrTag:
		ret.Type = TypeStruct
		ret.DataSize = uint32(kindVal.dataWords()) * 8
		ret.PtrSize = uint32(kindVal.ptrWords()) * 8
		end, ok = dataAddr.addSize(Size(ret.DataSize + ret.PtrSize))

	case kindVal.elementKind() == voidList:
		ret.Type = TypeList
		ret.Size = kindVal.numElements()
		end, ok = dataAddr, true

	case kindVal.elementKind() == bit1List:
		ret.Type = TypeBitList
		ret.Size = kindVal.numElements()
		ret.DataSize = (ret.Size + 7) / 8
		end, ok = dataAddr.addSize(Size(ret.DataSize))

	case kindVal.elementKind() == ptrList:
		ret.Type = TypePtrList
		ret.Size = kindVal.numElements()
		end, ok = dataAddr.addSize(Size(ret.Size) * 8)

	case kindVal.elementKind() == compositeList:
		ret.Type, end, ok = decodeCompositeTag(curSeg, dataAddr, kindVal.numElements(), &ret)

	default:
		ret.Type = TypeList
		ret.Size = kindVal.numElements()
		width := elementByteWidth(kindVal.elementKind())
		if width == 0 {
			return Ptr{}, nil
		}
		ret.DataSize = width
		end, ok = dataAddr.addSize(Size(ret.Size) * Size(width))
	}

	if !ok || end > Address(curSeg.length) {
		return Ptr{}, nil
	}
	return ret, nil
}

func elementByteWidth(kind uint8) uint32 {
	switch kind {
	case byte1List:
		return 1
	case byte2List:
		return 2
	case byte4List:
		return 4
	case byte8List:
		return 8
	default:
		return 0
	}
}

// decodeCompositeTag reads the composite-list tag word at dataAddr (the list
// pointer's own offset targets the tag, not the body) and fills in ret's
// shape from it. bodyWords is the word count of the body as carried by the
// outer list pointer itself; the tag supplies the true element count.
func decodeCompositeTag(seg *Segment, dataAddr Address, bodyWords uint32, ret *Ptr) (PtrType, Address, bool) {
	if !seg.regionInBounds(dataAddr, wordSize) {
		return TypeNull, 0, false
	}
	tag := seg.readRawPointer(dataAddr)
	bodyStart, ok := dataAddr.addSize(wordSize)
	if !ok {
		return TypeNull, 0, false
	}
	bodyEnd, ok := bodyStart.addSize(Size(bodyWords) * 8)
	if !ok {
		return TypeNull, 0, false
	}
	dataWords, ptrWords := tag.dataWords(), tag.ptrWords()
	count := tag.compositeCount()
	perElem := Size(dataWords)*8 + Size(ptrWords)*8
	total, ok := perElem.times(int32(count))
	if !ok || total != Size(bodyEnd-bodyStart) {
		return TypeNull, 0, false
	}
	ret.Off = bodyStart
	ret.Size = count
	ret.DataSize = uint32(dataWords) * 8
	ret.PtrSize = uint32(ptrWords) * 8
	ret.HasCompositeTag = true
	return TypeList, bodyEnd, true
}
