package capn

// ptrValue encodes p as a 64-bit pointer word whose offset field is offBytes
// (a signed byte distance, always a multiple of 8) relative to the word's
// own end. This is the inverse of the struct/list branches of readPtrAt; see
// ptr_value in original_source/c/capn.c.
func ptrValue(p Ptr, offBytes int32) rawPointer {
	offWords := offBytes / 8

	switch p.Type {
	case TypeStruct:
		return rawStructPointer(offWords, uint16(p.DataSize/8), uint16(p.PtrSize/8))

	case TypeList:
		if p.HasCompositeTag {
			words := uint32(Size(p.Size) * Size(p.DataSize+p.PtrSize) / 8)
			return rawListPointer(offWords, compositeList, words)
		}
		var kind uint8
		switch p.DataSize {
		case 8:
			kind = byte8List
		case 4:
			kind = byte4List
		case 2:
			kind = byte2List
		case 1:
			kind = byte1List
		default:
			kind = voidList
		}
		return rawListPointer(offWords, kind, p.Size)

	case TypeBitList:
		return rawListPointer(offWords, bit1List, p.Size)

	case TypePtrList:
		return rawListPointer(offWords, ptrList, p.Size)

	default:
		return 0
	}
}

// needCopySignal is the sentinel error writePtrNoCopy returns to tell its
// caller that tgt cannot be installed in place and must go through the copy
// engine instead.
type needCopySignal struct{}

func (needCopySignal) Error() string { return "capn: needs copy" }

var needCopy error = needCopySignal{}

// writePtrNoCopy attempts to install tgt into the word at (seg, addr)
// without copying: as a near pointer if tgt already lives in seg, as a far
// or double-far pointer if tgt lives in a different segment of the same
// message, or as a plain zero word if tgt is null. It returns needCopy if
// none of those apply (tgt is static data, belongs to a different message,
// or is a list member), in which case the caller must fall through to the
// copy engine. Mirrors write_ptr_no_copy in original_source/c/capn.c.
func writePtrNoCopy(seg *Segment, addr Address, tgt Ptr) error {
	if !tgt.IsValid() {
		seg.writeRawPointer(addr, 0)
		return nil
	}

	if tgt.Seg == nil || tgt.Seg.msg != seg.msg || tgt.ListMember {
		return needCopy
	}

	tgtAddr := tgt.address()

	if tgt.Seg == seg {
		// diff is the signed byte distance from the end of this pointer
		// word to the target's own address.
		diff := int64(tgtAddr) - int64(addr) - int64(wordSize)
		seg.writeRawPointer(addr, ptrValue(tgt, int32(diff)))
		return nil
	}

	if tgt.HasPtrTag {
		// The target already has a scratch tag in front of it from a
		// prior segment-switching allocation; reuse it as the far
		// pointer's landing pad instead of allocating a new one.
		seg.writeRawPointer(addr, rawFarPointer(tgt.Seg.id, tgtAddr-Address(wordSize)))
		return nil
	}

	if tgt.Seg.length+wordSize <= tgt.Seg.Cap() {
		tagAddr := Address(tgt.Seg.length)
		tgt.Seg.length += wordSize
		diff := int64(tgtAddr) - int64(tagAddr) - int64(wordSize)
		tgt.Seg.writeRawPointer(tagAddr, ptrValue(tgt, int32(diff)))
		seg.writeRawPointer(addr, rawFarPointer(tgt.Seg.id, tagAddr))
		return nil
	}

	// Neither segment has room for a one-word landing pad: allocate a
	// two-word double-far landing pad, preferring the source segment so
	// that reads of the freshly written pointer stay local.
	var landingSeg *Segment
	var landingAddr Address
	if seg.length+2*wordSize <= seg.Cap() {
		landingAddr = Address(seg.length)
		seg.length += 2 * wordSize
		landingSeg = seg
	} else {
		s, a, err := alloc(seg.msg, 2*wordSize)
		if err != nil {
			return err
		}
		landingSeg = s
		landingAddr = a
	}

	landingSeg.writeRawPointer(landingAddr, rawFarPointer(tgt.Seg.id, tgtAddr))
	tagWordAddr, _ := landingAddr.addSize(wordSize)
	landingSeg.writeRawPointer(tagWordAddr, ptrValue(tgt, 0))
	seg.writeRawPointer(addr, rawDoubleFarPointer(landingSeg.id, landingAddr))
	return nil
}
