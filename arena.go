package capn

// memArena is the host state behind NewInMemoryMessage: a Create callback
// that hands out fresh, zeroed, fixed-capacity segments (segmentSize bytes,
// or minBytes when a single request needs more) with no external
// persistence. Grounded on the Arena / SingleSegment / MultiSegment pattern
// in the pack's v3 example (other_examples/...matheusd-go-capnp__message.go),
// adapted to this package's Create/Lookup callback shape rather than an
// Arena interface.
type memArena struct {
	segmentSize Size
}

func memArenaCreate(user interface{}, idHint SegmentID, minBytes Size) *Segment {
	a := user.(*memArena)
	sz := a.segmentSize
	if minBytes > sz {
		sz = minBytes
	}
	return NewSegment(make([]byte, sz))
}

// defaultSegmentSize is used by NewInMemoryMessage when the caller does not
// request a specific size.
const defaultSegmentSize Size = 4096

// NewInMemoryMessage returns an empty Message backed purely by host memory.
// It holds no segments yet: the first allocation (typically NewRoot) drives
// the Create callback to materialize segment 0 at segmentSize bytes (or a
// 4 KiB default), and later allocations that outgrow the current segment
// create further ones the same way. There is no Lookup callback, since
// every segment this arena ever hands out is created through Create and
// immediately registered by alloc/appendSegment.
//
// NewInMemoryMessage deliberately does not preallocate segment 0: NewRoot
// mirrors capn_new_root's reference behavior of refusing to grow a segment
// 0 that already exists but is too short, rather than silently extending
// it, so segment 0 must come into being through the same allocation path
// every other segment does.
func NewInMemoryMessage(segmentSize Size) *Message {
	if segmentSize == 0 {
		segmentSize = defaultSegmentSize
	}
	return &Message{User: &memArena{segmentSize: segmentSize}, Create: memArenaCreate}
}

// NewSingleSegmentMessage wraps an already-framed single-segment wire
// message (buf holds every byte, with no other segments) for reading. The
// whole buffer is marked in-use, so an accidental write-path call cannot
// bump-allocate over already-decoded data.
func NewSingleSegmentMessage(buf []byte) *Message {
	m := &Message{}
	s := NewSegment(buf)
	s.length = Size(len(buf))
	m.AppendSegment(s)
	return m
}

// NewMultiSegmentMessage wraps an already-framed multi-segment wire message
// (one []byte per segment, in segment-id order) for reading.
func NewMultiSegmentMessage(bufs [][]byte) *Message {
	m := &Message{}
	for _, buf := range bufs {
		s := NewSegment(buf)
		s.length = Size(len(buf))
		m.AppendSegment(s)
	}
	return m
}
