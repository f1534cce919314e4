package capn

import "errors"

// Internal errors. Malformed pointer words, bad landing pads, bad
// composite tags and indirection-depth violations are not among them: spec
// section 7 kind 1 is explicit that malformed input surfaces as a null
// handle, not an error value, so readPtrAt reports those failures by
// returning the zero Ptr with a nil error (decodeCompositeTag by returning
// TypeNull and false), never a sentinel. What remains here are failures
// unrelated to "is this pointer well-formed": arithmetic overflow while
// computing an address or size in the builders and the copy engine, and an
// unresolvable segment id.
var (
	errOverflow        = errors.New("capn: address or size overflow")
	errSegmentNotFound = errors.New("capn: segment not found")
)

// Write-time errors (spec section 7, kinds 2 and 3): allocation refusal and
// copy-illegal source graphs. These are returned to the caller as ordinary
// Go errors from the affected builder or installer.
var (
	// ErrAllocRefused is returned when the host Create callback declines an
	// allocation required to satisfy a builder or installer call.
	ErrAllocRefused = errors.New("capn: segment allocation refused by host")
	// ErrOverlap is returned when a source graph passed to SetPtr contains
	// two distinct pointers into overlapping-but-not-identical byte ranges,
	// which the wire format cannot express.
	ErrOverlap = errors.New("capn: overlapping source pointers")
	// ErrCopyDepth is returned when a copy's iterative depth-first walk
	// would exceed the bounded work stack (maxCopyDepth).
	ErrCopyDepth = errors.New("capn: copy depth exceeded")
	// ErrInvalidSlot is returned when SetPtr is asked to address a pointer
	// slot or list element that does not exist, or a slot on a handle type
	// that has none. Getp returns the null Ptr in the same cases.
	ErrInvalidSlot = errors.New("capn: invalid pointer slot or list index")
)

var errAllocRefused = ErrAllocRefused
