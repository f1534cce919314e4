package capn

// PtrType is the shape a Ptr handle refers to.
type PtrType uint8

const (
	// TypeNull is the zero value: an absent pointer.
	TypeNull PtrType = iota
	// TypeStruct is a struct: a fixed-size data section followed by a
	// fixed-size pointer section.
	TypeStruct
	// TypeList is a list of primitives, void, or (with HasCompositeTag)
	// mixed-shape structs.
	TypeList
	// TypeBitList is a list of single-bit elements.
	TypeBitList
	// TypePtrList is a list of pointer words.
	TypePtrList
)

// Ptr is a fat, freely-copyable descriptor for an object in a Message. It is
// never stored on the wire; Encode/decode translate between this and the
// 64-bit pointer words described in spec section 3.
//
// A Ptr with a nil Seg is legal as the source of a write (SetPtr) and always
// forces the copy path: schema-generated constant pools are represented this
// way, and this type preserves that so static data can still be installed
// into a message.
type Ptr struct {
	Seg  *Segment
	Off  Address
	Type PtrType

	// Size is the element count for lists, ignored for structs.
	Size uint32
	// DataSize is the data-section size in bytes, per struct or per list
	// element.
	DataSize uint32
	// PtrSize is the pointer-section size in bytes, per struct or per list
	// element (composite lists only; zero for non-composite lists).
	PtrSize uint32

	// ListMember is set when this handle's data is embedded in a parent
	// list and therefore has no independent pointer identity: it must
	// always be copied, never referenced.
	ListMember bool
	// HasCompositeTag is set when Off is preceded by an 8-byte composite
	// list tag word.
	HasCompositeTag bool
	// HasPtrTag is set when Off is preceded by a scratch tag word that a
	// later far-pointer installation may reuse as a landing pad, avoiding
	// an extra double-far allocation.
	HasPtrTag bool
}

// IsValid reports whether p refers to an object (as opposed to a null
// pointer or the zero Ptr).
func (p Ptr) IsValid() bool { return p.Type != TypeNull }

// dataSize returns the total byte footprint of p's own data (not counting a
// composite tag, which callers add separately when HasCompositeTag is set).
func (p Ptr) dataSize() Size {
	switch p.Type {
	case TypeBitList:
		return Size(p.DataSize)
	case TypePtrList:
		return Size(p.Size) * 8
	case TypeStruct:
		return Size(p.DataSize) + Size(p.PtrSize)
	case TypeList:
		return Size(p.Size) * Size(p.DataSize+p.PtrSize)
	default:
		return 0
	}
}

// footprint returns the source byte range [addr, addr+size) that write_copy
// uses for overlap and recursion detection: it extends back by one word when
// a composite tag precedes the data.
func (p Ptr) footprint() (addr Address, size Size) {
	size = p.dataSize()
	addr = p.Off
	if p.HasCompositeTag {
		size += wordSize
		addr -= Address(wordSize)
	}
	return addr, size
}

// address returns the address a far pointer to p should target: the start
// of its own tag if it has one, else its data address.
func (p Ptr) address() Address {
	if p.HasCompositeTag {
		return p.Off - Address(wordSize)
	}
	return p.Off
}

// sameShape reports whether a and b would produce byte-identical encodings
// (spec's is_ptr_equal, used by the copy engine to detect a second pointer
// into an already-copied sub-object vs. an illegal overlap).
func sameShape(a, b Ptr) bool {
	return a.Seg == b.Seg &&
		a.Off == b.Off &&
		a.Type == b.Type &&
		a.Size == b.Size &&
		a.DataSize == b.DataSize &&
		a.PtrSize == b.PtrSize &&
		a.HasCompositeTag == b.HasCompositeTag
}
