package capn

// Getp navigates from parent to the handle reachable at index, per spec
// section 4.5. For a list parent, index selects an embedded struct element
// (bounds-checked, flagged ListMember). For a struct parent, index selects a
// pointer slot. For a pointer-list parent, index selects a pointer word.
// Any other combination, or an out-of-range index, yields the null Ptr.
func Getp(parent Ptr, index int) Ptr {
	if index < 0 {
		return Ptr{}
	}
	switch parent.Type {
	case TypeList:
		if uint32(index) >= parent.Size {
			return Ptr{}
		}
		stride := Size(parent.DataSize + parent.PtrSize)
		off, ok := parent.Off.addSize(stride.mulInt(index))
		if !ok {
			return Ptr{}
		}
		return Ptr{
			Seg:        parent.Seg,
			Off:        off,
			Type:       TypeStruct,
			DataSize:   parent.DataSize,
			PtrSize:    parent.PtrSize,
			ListMember: true,
		}

	case TypeStruct:
		slot := index * 8
		if uint32(slot) >= parent.PtrSize {
			return Ptr{}
		}
		addr, ok := parent.Off.addSize(Size(parent.DataSize) + Size(slot))
		if !ok {
			return Ptr{}
		}
		p, err := readPtrAt(parent.Seg.msg, parent.Seg, addr)
		if err != nil {
			return Ptr{}
		}
		return p

	case TypePtrList:
		if uint32(index) >= parent.Size {
			return Ptr{}
		}
		addr, ok := parent.Off.addSize(Size(index) * 8)
		if !ok {
			return Ptr{}
		}
		p, err := readPtrAt(parent.Seg.msg, parent.Seg, addr)
		if err != nil {
			return Ptr{}
		}
		return p

	default:
		return Ptr{}
	}
}

func (sz Size) mulInt(n int) Size { return sz * Size(n) }
