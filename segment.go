package capn

import "encoding/binary"

// SegmentID is a numeric identifier for a Segment, unique within a Message.
type SegmentID uint32

// LocalSegment is the reserved id hint passed to a Message's Create callback
// when requesting scratch memory that is not part of the wire message (used
// by the copy engine's bookkeeping in earlier, pre-GC implementations of
// this format; see DESIGN.md for why this Go port keeps the constant but
// does not round-trip copy bookkeeping through the host callback).
const LocalSegment SegmentID = ^SegmentID(0)

// CreateFunc allocates a new segment with capacity for at least minBytes.
// idHint is informational except for LocalSegment. A nil return means the
// host declined the allocation.
type CreateFunc func(user interface{}, idHint SegmentID, minBytes Size) *Segment

// LookupFunc returns the segment for id if the host can materialize it
// on-demand, or nil if it cannot (or the id is unknown).
type LookupFunc func(user interface{}, id SegmentID) *Segment

// Segment is a contiguous byte buffer owned by the host. It is part of a
// Message, which can contain other segments that reference each other via
// far pointers.
type Segment struct {
	msg    *Message
	id     SegmentID
	data   []byte // full-capacity buffer
	length Size   // bytes in use; length <= Size(len(data))
	seq    uint64 // process-wide creation order, for copy-tree key ordering

	next *Segment
	node rbNode[*Segment]
}

// nextSegmentSeq hands out a unique, totally ordered identity to every
// Segment as it is created, so the copy engine's tracking tree (copy.go) can
// order entries across segments and messages without relying on Address
// (which is only unique within a single segment) or on pointer comparison
// (which Go does not define an ordering for). Plain, non-atomic counter:
// this package is single-threaded/cooperative throughout (spec section 5).
var nextSegmentSeq uint64

// NewSegment wraps a caller-owned byte slice as an empty segment. The slice's
// length is its capacity; Segment tracks bytes-in-use separately.
func NewSegment(buf []byte) *Segment {
	nextSegmentSeq++
	return &Segment{data: buf, seq: nextSegmentSeq}
}

// Message returns the message that owns s, or nil if s has not been
// appended to one yet.
func (s *Segment) Message() *Message { return s.msg }

// ID returns the segment's assigned id.
func (s *Segment) ID() SegmentID { return s.id }

// Data returns the in-use portion of the segment's buffer.
func (s *Segment) Data() []byte { return s.data[:s.length] }

// Cap returns the segment's total capacity in bytes.
func (s *Segment) Cap() Size { return Size(len(s.data)) }

// Len returns the number of bytes currently in use.
func (s *Segment) Len() Size { return s.length }

func (s *Segment) regionInBounds(base Address, sz Size) bool {
	end, ok := base.addSize(sz)
	if !ok {
		return false
	}
	return end <= Address(s.length) && base <= end
}

func (s *Segment) slice(base Address, sz Size) []byte {
	return s.data[base : base+Address(sz)]
}

func (s *Segment) readUint8(addr Address) uint8   { return s.slice(addr, 1)[0] }
func (s *Segment) readUint16(addr Address) uint16 { return binary.LittleEndian.Uint16(s.slice(addr, 2)) }
func (s *Segment) readUint32(addr Address) uint32 { return binary.LittleEndian.Uint32(s.slice(addr, 4)) }
func (s *Segment) readUint64(addr Address) uint64 { return binary.LittleEndian.Uint64(s.slice(addr, 8)) }

func (s *Segment) writeUint8(addr Address, v uint8)   { s.slice(addr, 1)[0] = v }
func (s *Segment) writeUint16(addr Address, v uint16) { binary.LittleEndian.PutUint16(s.slice(addr, 2), v) }
func (s *Segment) writeUint32(addr Address, v uint32) { binary.LittleEndian.PutUint32(s.slice(addr, 4), v) }
func (s *Segment) writeUint64(addr Address, v uint64) { binary.LittleEndian.PutUint64(s.slice(addr, 8), v) }

func (s *Segment) readRawPointer(addr Address) rawPointer  { return rawPointer(s.readUint64(addr)) }
func (s *Segment) writeRawPointer(addr Address, v rawPointer) { s.writeUint64(addr, uint64(v)) }

// Message owns a collection of segments sharing an id space, plus the
// callbacks used to grow that collection and to materialize segments it
// does not yet hold.
type Message struct {
	User   interface{}
	Create CreateFunc
	Lookup LookupFunc

	seglist *Segment
	lastseg *Segment
	segnum  SegmentID
	segtree *rbNode[*Segment]

	copytree *rbNode[*copyEntry]
}

// appendSegment assigns s the next id, links it into the iteration list and
// inserts it into the registry tree. Mirrors capn_append_segment in
// original_source/c/capn.c.
func (m *Message) appendSegment(s *Segment) {
	s.id = m.segnum
	m.segnum++
	s.msg = m
	s.next = nil

	n := &s.node
	n.value = s
	if m.lastseg != nil {
		m.lastseg.next = s
		m.lastseg.node.right = n
		n.parent = &m.lastseg.node
	} else {
		m.seglist = s
		n.parent = nil
	}
	m.lastseg = s
	m.segtree = rbInsertRebalance(m.segtree, n)
}

// AppendSegment is the exported form of appendSegment, for hosts building
// segments up front (e.g. when decoding an already-framed message) rather
// than lazily through Lookup.
func (m *Message) AppendSegment(s *Segment) { m.appendSegment(s) }

// Segment returns the segment for id, first checking already-known segments,
// then falling back to the host Lookup callback. This is capn_lookup_segment
// from the reference source, restricted to the registry + lookup path (the
// "s && s->id == id" fast path from the C source is the caller's job here,
// since Go calls through *Segment.Message() rather than passing a hint).
func (m *Message) Segment(id SegmentID) (*Segment, error) {
	if id < m.segnum {
		n := m.segtree
		var parent *rbNode[*Segment]
		dir := 0
		for n != nil {
			if id == n.value.id {
				return n.value, nil
			}
			parent = n
			if id < n.value.id {
				dir = 0
				n = n.left
			} else {
				dir = 1
				n = n.right
			}
		}
		s := m.callLookup(id)
		if s == nil {
			return nil, errSegmentNotFound
		}
		s.id = id
		s.msg = m
		s.next = m.seglist
		m.seglist = s
		nn := &s.node
		nn.value = s
		if parent != nil {
			nn.parent = parent
			parent.setLink(dir, nn)
		}
		m.segtree = rbInsertRebalance(m.segtree, nn)
		return s, nil
	}

	s := m.callLookup(id)
	if s == nil {
		return nil, errSegmentNotFound
	}
	m.segnum = id
	m.appendSegment(s)
	return s, nil
}

func (m *Message) callLookup(id SegmentID) *Segment {
	if m.Lookup == nil {
		return nil
	}
	return m.Lookup(m.User, id)
}

// alloc finds or creates room for sz bytes, rounded up to 8-byte alignment,
// and returns the segment plus the start address of the new region. This is
// alloc from spec section 4.2 / new_data in the reference C source.
func alloc(m *Message, sz Size) (*Segment, Address, error) {
	aligned := (sz + 7) &^ 7

	for s := m.seglist; s != nil; s = s.next {
		if s.length+aligned <= s.Cap() {
			addr := Address(s.length)
			s.length += aligned
			return s, addr, nil
		}
	}

	if m.Create == nil {
		return nil, 0, errAllocRefused
	}
	s := m.Create(m.User, m.segnum, aligned)
	if s == nil {
		return nil, 0, errAllocRefused
	}
	m.appendSegment(s)
	if s.Cap() < aligned {
		return nil, 0, errAllocRefused
	}
	addr := Address(s.length)
	s.length += aligned
	return s, addr, nil
}
