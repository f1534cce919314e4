package capn

// maxCopyDepth bounds the number of frames on the work stack that one
// installClone call drains (see drainCopyStack); see copy_loop's
// MAX_COPY_DEPTH in original_source/c/capn.c. Each nested object reached
// through a pointer slot is cloned by a recursive setSlot/installClone call
// with its own stack, so one stack holds at most two frames (a composite
// list and one element's pointer section). The nesting depth of the source
// graph is therefore not limited by this constant, and a deep graph does
// not produce ErrCopyDepth.
const maxCopyDepth = 32

// copyEntry is a node of a message's copy-tracking tree: it remembers that
// the source byte range [fdata, fdata+fsize) has already been copied to
// "to", so a second pointer into the same range installs another reference
// to "to" instead of duplicating it (recursion and DAG sharing), while a
// pointer into only part of that range is rejected as an illegal overlap
// the wire format cannot express.
type copyEntry struct {
	from, to Ptr
	fseg     *Segment
	fdata    Address
	fsize    Size
	node     rbNode[*copyEntry]
}

// copyFrame is one level of the depth-first copy walk: an already-allocated
// destination container (a pointer list, or a composite list's per-element
// pointer section) paired with the matching source container, both
// positioned at the next unprocessed slot or element. to.Size is the number
// of slots or elements remaining.
type copyFrame struct {
	to, from Ptr
}

// SetPtr installs target as the pointer-valued child of parent at index
// (spec section 4.7): a struct's pointer-section slot, or a pointer list's
// element. As a special case, when parent is itself a struct list and
// target is a struct, target's primitive data is copied into the list
// element in place (truncated or zero-extended to the element's own data
// size) and only the pointer section is installed through the usual slot
// machinery, bounded by the smaller of the two pointer-section sizes — this
// is the one place shape mismatch between source and destination is
// tolerated rather than rejected, matching the reference source's
// list-element assignment branch.
func SetPtr(parent Ptr, index int, target Ptr) error {
	if index < 0 {
		return ErrInvalidSlot
	}
	if parent.Type == TypeList && target.Type == TypeStruct {
		return setStructListElement(parent, index, target)
	}
	seg, addr, ok := slotAddress(parent, index)
	if !ok {
		return ErrInvalidSlot
	}
	return setSlot(seg, addr, target, 0)
}

// slotAddress returns the segment and address of the pointer word Getp and
// SetPtr address for (parent, index).
func slotAddress(parent Ptr, index int) (*Segment, Address, bool) {
	switch parent.Type {
	case TypeStruct:
		slot := Size(index) * wordSize
		if slot >= Size(parent.PtrSize) {
			return nil, 0, false
		}
		addr, ok := parent.Off.addSize(Size(parent.DataSize) + slot)
		return parent.Seg, addr, ok

	case TypePtrList:
		if uint32(index) >= parent.Size {
			return nil, 0, false
		}
		addr, ok := parent.Off.addSize(Size(index) * wordSize)
		return parent.Seg, addr, ok

	default:
		return nil, 0, false
	}
}

// setStructListElement implements the struct-into-struct-list-element
// branch documented on SetPtr.
func setStructListElement(parent Ptr, index int, target Ptr) error {
	if uint32(index) >= parent.Size {
		return ErrInvalidSlot
	}
	stride := Size(parent.DataSize + parent.PtrSize)
	elemOff, ok := parent.Off.addSize(stride.mulInt(index))
	if !ok {
		return ErrInvalidSlot
	}
	seg := parent.Seg

	dst := seg.slice(elemOff, Size(parent.DataSize))
	if target.Seg == nil {
		for i := range dst {
			dst[i] = 0
		}
	} else {
		n := Size(parent.DataSize)
		if Size(target.DataSize) < n {
			n = Size(target.DataSize)
		}
		if n > 0 {
			copy(dst[:n], target.Seg.slice(target.Off, n))
		}
		for i := n; i < Size(parent.DataSize); i++ {
			dst[i] = 0
		}
	}

	ptrOff, ok := elemOff.addSize(Size(parent.DataSize))
	if !ok {
		return ErrInvalidSlot
	}
	slots := parent.PtrSize / 8
	srcSlots := uint32(0)
	if target.Seg != nil {
		srcSlots = target.PtrSize / 8
	}
	for i := uint32(0); i < slots; i++ {
		slotAddr, ok := ptrOff.addSize(Size(i) * wordSize)
		if !ok {
			return ErrInvalidSlot
		}
		if i >= srcSlots {
			seg.writeRawPointer(slotAddr, 0)
			continue
		}
		srcAddr, ok := target.Off.addSize(Size(target.DataSize) + Size(i)*wordSize)
		if !ok {
			return ErrInvalidSlot
		}
		srcPtr, err := readPtrAt(target.Seg.msg, target.Seg, srcAddr)
		if err != nil {
			return err
		}
		if err := setSlot(seg, slotAddr, srcPtr, 0); err != nil {
			return err
		}
	}
	return nil
}

// setSlot writes target into the pointer word at (seg, addr), falling
// through to the copy engine when it cannot be referenced in place. zeros
// is forwarded to the copy engine unchanged; every caller in this package
// passes 0.
func setSlot(seg *Segment, addr Address, target Ptr, zeros Size) error {
	err := writePtrNoCopy(seg, addr, target)
	if err == nil {
		return nil
	}
	if _, needsCopy := err.(needCopySignal); !needsCopy {
		return err
	}
	return copyInto(seg.msg, seg, addr, target, zeros)
}

// copyInto installs a same-shape clone of src at (dstSeg, dstAddr), the
// entry point writePtrNoCopy falls through to once it decides src cannot be
// referenced in place. Mirrors write_ptr's call into write_copy in
// original_source/c/capn.c.
func copyInto(m *Message, dstSeg *Segment, dstAddr Address, src Ptr, zeros Size) error {
	to, err := installClone(m, dstSeg, src, zeros)
	if err != nil {
		return err
	}
	return writePtrNoCopy(dstSeg, dstAddr, to)
}

// installClone returns the destination clone of src: an existing copy-tree
// entry when src's footprint exactly matches one already produced earlier
// into m (the tree lives on the message and persists across SetPtr calls;
// recursion collapse / DAG sharing), an error
// when it partially overlaps one without matching (a graph the wire format
// cannot express), or a freshly allocated clone with its contents copied in.
func installClone(m *Message, dstSeg *Segment, src Ptr, zeros Size) (Ptr, error) {
	fdata, fsize := src.footprint()

	var parent *rbNode[*copyEntry]
	var dir int
	if fsize > 0 {
		p, d, existing := m.searchCopyTree(src.Seg, fdata, fsize)
		if existing != nil {
			if sameShape(src, existing.from) {
				return existing.to, nil
			}
			return Ptr{}, ErrOverlap
		}
		parent, dir = p, d
	}

	to, err := newClone(dstSeg, src)
	if err != nil {
		return Ptr{}, err
	}

	if fsize > 0 && !src.ListMember {
		e := &copyEntry{from: src, to: to, fseg: src.Seg, fdata: fdata, fsize: fsize}
		n := &e.node
		n.value = e
		if parent != nil {
			n.parent = parent
			parent.setLink(dir, n)
		}
		m.copytree = rbInsertRebalance(m.copytree, n)
	}

	stack := make([]copyFrame, 0, 4)
	if err := copyBody(to, src, zeros, &stack); err != nil {
		return Ptr{}, err
	}
	if err := drainCopyStack(m, &stack); err != nil {
		return Ptr{}, err
	}
	return to, nil
}

// searchCopyTree walks m's copy-tracking tree for an entry whose source
// range overlaps [fseg:fdata, fseg:fdata+fsize). Address is only unique
// within a single segment (two unrelated segments both start objects at
// offset 0), so entries are ordered first by segment identity (fseg.seq, a
// per-segment creation-order counter — Go pointers have no ordering
// operators) and only compared by address range once the segment matches;
// ranges in different segments are never considered overlapping. A disjoint
// path returns the insertion point (parent, dir) for a new entry; an
// overlapping one returns the existing entry, leaving the
// exact-match-vs-illegal-overlap distinction to the caller (which compares
// shapes, including segment identity, with sameShape).
func (m *Message) searchCopyTree(fseg *Segment, fdata Address, fsize Size) (parent *rbNode[*copyEntry], dir int, existing *copyEntry) {
	n := m.copytree
	for n != nil {
		e := n.value
		switch {
		case fseg.seq < e.fseg.seq, fseg.seq == e.fseg.seq && uint64(fdata)+uint64(fsize) <= uint64(e.fdata):
			if n.left == nil {
				return n, 0, nil
			}
			n = n.left
		case fseg.seq > e.fseg.seq, fseg.seq == e.fseg.seq && uint64(e.fdata)+uint64(e.fsize) <= uint64(fdata):
			if n.right == nil {
				return n, 1, nil
			}
			n = n.right
		default:
			return nil, 0, e
		}
	}
	return nil, 0, nil
}

// newClone allocates an object in seg with the same shape as src (struct,
// list, bit list or pointer list), uninitialized. Mirrors new_clone in
// original_source/c/capn.c.
func newClone(seg *Segment, src Ptr) (Ptr, error) {
	switch src.Type {
	case TypeStruct:
		return NewStruct(seg, Size(src.DataSize), int(src.PtrSize/8))
	case TypePtrList:
		return NewPtrList(seg, int(src.Size))
	case TypeBitList:
		return NewBitList(seg, int(src.Size))
	case TypeList:
		if src.HasCompositeTag {
			return newCompositeList(seg, src.Size, Size(src.DataSize), src.PtrSize/8)
		}
		return newObject(seg, Size(src.Size)*Size(src.DataSize), Ptr{Type: TypeList, Size: src.Size, DataSize: src.DataSize})
	default:
		return src, nil
	}
}

// copyBody copies src's immediate bytes into the freshly allocated,
// same-shape to, and queues a copyFrame for any nested pointer-bearing
// section it cannot copy with a single memcpy: a struct's own pointer
// section, a pointer list's elements, or a composite list's per-element
// pointer sections. zeros trailing bytes of a struct's data section are
// left as allocated (zero) rather than read from src.
func copyBody(to, src Ptr, zeros Size, stack *[]copyFrame) error {
	switch to.Type {
	case TypeStruct:
		if to.DataSize > 0 {
			n := Size(to.DataSize) - zeros
			copy(to.Seg.slice(to.Off, n), src.Seg.slice(src.Off, n))
		}
		if to.PtrSize > 0 {
			toPtrOff, ok1 := to.Off.addSize(Size(to.DataSize))
			fromPtrOff, ok2 := src.Off.addSize(Size(src.DataSize))
			if !ok1 || !ok2 {
				return errOverflow
			}
			*stack = append(*stack, copyFrame{
				to:   Ptr{Seg: to.Seg, Off: toPtrOff, Type: TypePtrList, Size: to.PtrSize / 8},
				from: Ptr{Seg: src.Seg, Off: fromPtrOff, Type: TypePtrList, Size: src.PtrSize / 8},
			})
		}
		return nil

	case TypePtrList:
		if to.Size > 0 {
			*stack = append(*stack, copyFrame{to: to, from: src})
		}
		return nil

	case TypeBitList:
		if to.DataSize > 0 {
			copy(to.Seg.slice(to.Off, Size(to.DataSize)), src.Seg.slice(src.Off, Size(to.DataSize)))
		}
		return nil

	case TypeList:
		if to.HasCompositeTag {
			if to.Size > 0 {
				*stack = append(*stack, copyFrame{to: to, from: src})
			}
			return nil
		}
		n := Size(to.Size) * Size(to.DataSize)
		if n > 0 {
			copy(to.Seg.slice(to.Off, n), src.Seg.slice(src.Off, n))
		}
		return nil

	default:
		return nil
	}
}

// drainCopyStack processes queued copyFrames depth-first until the stack is
// empty. A pointer-list frame installs each slot through the full
// setSlot/copy-engine machinery, since every slot is an independently
// addressable object that may itself need copying or may already be in the
// copy tree. A composite-list frame copies each element's data in place
// (truncating or zero-extending to the destination's own per-element data
// size, matching a schema evolving between source and destination) and
// queues the element's pointer section exactly like a struct's own.
func drainCopyStack(m *Message, stack *[]copyFrame) error {
	for len(*stack) > 0 {
		if len(*stack) > maxCopyDepth {
			return ErrCopyDepth
		}
		idx := len(*stack) - 1
		to := (*stack)[idx].to

		if to.Size == 0 {
			*stack = (*stack)[:idx]
			continue
		}

		switch {
		case to.Type == TypePtrList:
			from := (*stack)[idx].from
			srcPtr, err := readPtrAt(from.Seg.msg, from.Seg, from.Off)
			if err != nil {
				return err
			}
			if err := setSlot(to.Seg, to.Off, srcPtr, 0); err != nil {
				return err
			}
			nextTo, ok1 := to.Off.addSize(wordSize)
			nextFrom, ok2 := from.Off.addSize(wordSize)
			if !ok1 || !ok2 {
				return errOverflow
			}
			to.Off, from.Off = nextTo, nextFrom
			to.Size--
			(*stack)[idx] = copyFrame{to: to, from: from}

		case to.Type == TypeList && to.HasCompositeTag:
			from := (*stack)[idx].from
			n := Size(to.DataSize)
			if n > 0 {
				dst := to.Seg.slice(to.Off, n)
				srcN := n
				if Size(from.DataSize) < srcN {
					srcN = Size(from.DataSize)
				}
				copy(dst[:srcN], from.Seg.slice(from.Off, srcN))
				for i := srcN; i < n; i++ {
					dst[i] = 0
				}
			}
			if to.PtrSize > 0 {
				toPtrOff, ok1 := to.Off.addSize(Size(to.DataSize))
				fromPtrOff, ok2 := from.Off.addSize(Size(from.DataSize))
				if !ok1 || !ok2 {
					return errOverflow
				}
				*stack = append(*stack, copyFrame{
					to:   Ptr{Seg: to.Seg, Off: toPtrOff, Type: TypePtrList, Size: to.PtrSize / 8},
					from: Ptr{Seg: from.Seg, Off: fromPtrOff, Type: TypePtrList, Size: from.PtrSize / 8},
				})
			}
			toStride := Size(to.DataSize + to.PtrSize)
			fromStride := Size(from.DataSize + from.PtrSize)
			nextTo, ok1 := to.Off.addSize(toStride)
			nextFrom, ok2 := from.Off.addSize(fromStride)
			if !ok1 || !ok2 {
				return errOverflow
			}
			to.Off, from.Off = nextTo, nextFrom
			to.Size--
			(*stack)[idx] = copyFrame{to: to, from: from}

		default:
			*stack = (*stack)[:idx]
		}
	}
	return nil
}
